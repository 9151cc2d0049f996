package export

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/memorg/internal/domain"
)

// 结构化下载调用：onclick="downloadMemories('https://...')"。
// 单引号内的就是真正的下载引用。
var downloadRefRE = regexp.MustCompile(`downloadMemories\('([^']+)'`)

// 表格列约定：第 0 列是时间戳，第 1 列是媒体类型。
const (
	dateColIndex = 0
	typeColIndex = 1
)

// Parse 把导出文档解析为逐行元数据。
//
// 约束：
// - 第一行是表头，不产出行
// - Index 按数据行位置递增（含被跳过的残缺行），与产物文件名中的行号一致
// - 列数不足的行直接丢弃；没有可用引用的行保留（Ref 为空，由上层记 skipped）
func Parse(r io.Reader) ([]domain.MetadataRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.MetadataRow, 0, 64)
	doc.Find("table tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			// 表头行。
			return
		}

		cols := tr.Find("td")
		if cols.Length() <= typeColIndex {
			return
		}

		rows = append(rows, domain.MetadataRow{
			Index:     i,
			DateText:  strings.TrimSpace(cols.Eq(dateColIndex).Text()),
			MediaType: strings.TrimSpace(cols.Eq(typeColIndex).Text()),
			Ref:       refFromRow(tr),
		})
	})
	return rows, nil
}

// refFromRow 从行内第一个 anchor 提取下载引用。
// 优先结构化调用（onclick），否则退回非占位符的 href；都没有则返回空串。
func refFromRow(tr *goquery.Selection) string {
	a := tr.Find("a").First()
	if a.Length() == 0 {
		return ""
	}

	if onclick, ok := a.Attr("onclick"); ok {
		if m := downloadRefRE.FindStringSubmatch(onclick); m != nil {
			return m[1]
		}
	}

	if href, ok := a.Attr("href"); ok {
		href = strings.TrimSpace(href)
		if href != "" && href != "#" {
			return href
		}
	}
	return ""
}

// 引用后缀里可直接采信的扩展名（顺序即检查顺序）。
var knownRefExts = []string{".zip", ".mp4", ".mov", ".jpg", ".jpeg", ".png", ".heic"}

// GuessExt 推断最可信的文件扩展名。
//
// 顺序是刻意的：引用串里可解码的后缀是强证据，永远优先于标签推断；
// 标签只在后缀不可用时做关键字兜底；两者都没有则返回空串。
func GuessExt(mediaType, ref string) string {
	refL := strings.ToLower(ref)
	for _, ext := range knownRefExts {
		if strings.HasSuffix(refL, ext) {
			return ext
		}
	}

	label := strings.ToLower(mediaType)
	switch {
	case strings.Contains(label, "zip"):
		return ".zip"
	case strings.Contains(label, "video"):
		return ".mp4"
	case strings.Contains(label, "image"), strings.Contains(label, "photo"), strings.Contains(label, "snap"):
		return ".jpg"
	}
	return ""
}

// SafeMediaType 把媒体类型标签变成文件名安全的片段（空白转下划线、小写；空标签退为 media）。
func SafeMediaType(mediaType string) string {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(mediaType), " ", "_"))
	if s == "" {
		return "media"
	}
	return s
}
