package organize

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/John-Robertt/memorg/internal/domain"
	"github.com/John-Robertt/memorg/internal/infra/fsx"
	"github.com/John-Robertt/memorg/internal/scan"
	"github.com/John-Robertt/memorg/internal/stamp"
)

// 已归档的年份目录：4 位数字。重跑时跳过它们是幂等性的关键。
var yearDirRE = regexp.MustCompile(`^\d{4}$`)

// MovePlan 规划一次归档移动（只描述 src/dst；真正执行由 Apply 做）。
type MovePlan struct {
	SrcAbs   string
	DstAbs   string
	Category string // images / videos / other
}

// Plan 为 root 下的每个顶层条目生成确定性的归档计划（不做任何写入/移动）。
//
// 跳过规则：
// - 4 位年份目录（已经归档过的输出，跳过它们让重跑幂等）
// - 隐藏条目（点开头）
//
// 目标日期的选择也是有序规则表，第一条命中即生效：
// 1) 条目名以 YYYY-MM-DD 开头：直接用（管道产物恒满足）
// 2) 图片文件：EXIF DateTimeOriginal（手工丢进来的照片通常有）
// 3) 文件系统 mtime（管道产物的 mtime 恒等于拍摄时间）
func Plan(root string, entries []scan.Entry, clock domain.Clock) ([]MovePlan, error) {
	_ = clock // 目标日期全部来自条目自身；保留注入点是为了和上游签名一致

	// 计划内已占用的目标路径：同批条目撞名时也必须错开，不能依赖执行时的盘面。
	used := make(map[string]struct{}, len(entries))

	plans := make([]MovePlan, 0, len(entries))
	for _, e := range entries {
		if e.IsDir && yearDirRE.MatchString(e.Name) {
			continue
		}
		if strings.HasPrefix(e.Name, ".") {
			continue
		}

		dt := targetDate(e)
		category, err := classifyEntry(e)
		if err != nil {
			return nil, err
		}

		destDir := filepath.Join(
			root,
			fmt.Sprintf("%04d", dt.Year()),
			fmt.Sprintf("%02d - %s", int(dt.Month()), dt.Month().String()),
			category,
		)
		dstName := allocName(destDir, e.Name, used)
		dst := filepath.Join(destDir, dstName)
		used[dst] = struct{}{}

		plans = append(plans, MovePlan{
			SrcAbs:   e.AbsPath,
			DstAbs:   dst,
			Category: category,
		})
	}
	return plans, nil
}

// Apply 执行归档移动。
//
// 冲突已在 Plan 阶段用 _dup 预先消解，这里的失败意味着环境异常；
// 按契约直接向上传播（整个 run 失败），不做逐条降级。
func Apply(plans []MovePlan) error {
	for _, p := range plans {
		if err := fsx.EnsureDir(filepath.Dir(p.DstAbs)); err != nil {
			return err
		}
		if err := fsx.Rename(p.SrcAbs, p.DstAbs); err != nil {
			return err
		}
	}
	return nil
}

func targetDate(e scan.Entry) time.Time {
	if t, ok := stamp.ParseNamePrefix(e.Name); ok {
		return t
	}
	if !e.IsDir && domain.IsImageName(e.Name) {
		if t, ok := exifDate(e.AbsPath); ok {
			return t
		}
	}
	return e.ModTime
}

// classifyEntry 判定条目类别。
//
// 文件只有一个扩展名，直接判定；目录要扫内容：出现任何视频成员则整个目录
// 是 videos（短路），否则有图片就是 images，再否则 other。
// 这个不对称是刻意的：视频包目录里往往带缩略图 sidecar，必须落到 videos/。
func classifyEntry(e scan.Entry) (string, error) {
	if !e.IsDir {
		switch {
		case domain.IsImageName(e.Name):
			return domain.CategoryImages, nil
		case domain.IsVideoName(e.Name):
			return domain.CategoryVideos, nil
		default:
			return domain.CategoryOther, nil
		}
	}

	hasImage := false
	err := filepath.WalkDir(e.AbsPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if domain.IsVideoName(d.Name()) {
			return errFoundVideo
		}
		if domain.IsImageName(d.Name()) {
			hasImage = true
		}
		return nil
	})
	if err == errFoundVideo {
		return domain.CategoryVideos, nil
	}
	if err != nil {
		return "", err
	}
	if hasImage {
		return domain.CategoryImages, nil
	}
	return domain.CategoryOther, nil
}

// errFoundVideo 只用于短路 WalkDir，不会泄漏给调用方。
var errFoundVideo = fmt.Errorf("found video")

// allocName 解决目标名冲突：首选原名；被占用则在扩展名前插入 _dup；
// 仍被占用则递增 _dup2、_dup3……（绝不覆盖已有条目）。
func allocName(destDir, name string, used map[string]struct{}) string {
	taken := func(n string) bool {
		p := filepath.Join(destDir, n)
		if _, ok := used[p]; ok {
			return true
		}
		_, err := os.Lstat(p)
		return err == nil
	}

	if !taken(name) {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	cand := base + "_dup" + ext
	if !taken(cand) {
		return cand
	}
	for n := 2; ; n++ {
		cand = fmt.Sprintf("%s_dup%d%s", base, n, ext)
		if !taken(cand) {
			return cand
		}
	}
}
