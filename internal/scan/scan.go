package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry 描述媒体根目录下的一个顶层条目（只做 stat，不读内容）。
type Entry struct {
	Name    string
	AbsPath string
	IsDir   bool
	ModTime time.Time
}

// TopLevel 列出 root 的顶层条目。
//
// 规则（硬约束）：
// - 只看一层，不递归；归档阶段对目录的内容扫描由 organize 自己做
// - 输出按名字排序，强制稳定，避免不同平台/文件系统行为差异带来的不确定性
func TopLevel(root string) ([]Entry, error) {
	root = filepath.Clean(root)

	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Name:    d.Name(),
			AbsPath: filepath.Join(root, d.Name()),
			IsDir:   d.IsDir(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Archives 列出 root 顶层的 .zip 文件（解包阶段的输入），按名字排序。
func Archives(root string) ([]string, error) {
	entries, err := TopLevel(root)
	if err != nil {
		return nil, err
	}

	zips := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name), ".zip") {
			zips = append(zips, e.AbsPath)
		}
	}
	return zips, nil
}
