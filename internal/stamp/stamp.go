package stamp

import (
	"strings"
	"time"

	"github.com/John-Robertt/memorg/internal/domain"
)

// 导出文档里出现过的时间戳形态（带/不带时区缩写，秒级精度）。
// 顺序即优先级：第一个解析成功的生效。
var layouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
}

// Resolve 把自由文本时间戳解析为规范时间。
//
// 解析全部失败时返回 clock() 并置 fallback=true——这是刻意的有损兜底：
// 下游所有命名/排序都依赖时间戳，宁可用当前时间也不让单行失败。
// 调用方必须在 fallback=true 时记一条 warning。
func Resolve(s string, clock domain.Clock) (t time.Time, fallback bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, false
		}
	}
	return clock(), true
}

// FormatName 把时间戳格式化为文件名片段（秒级，路径安全）。
func FormatName(t time.Time) string {
	return t.Format("2006-01-02_15-04-05")
}

// ParseNamePrefix 尝试把条目名的前 10 个字符按 YYYY-MM-DD 解析。
// 归档阶段用它从产物名里还原拍摄日期（产物名恒以 FormatName 开头）。
func ParseNamePrefix(name string) (time.Time, bool) {
	if len(name) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", name[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
