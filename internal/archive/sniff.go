package archive

import (
	"bytes"
	"io"
	"os"
)

// zip 本地文件头魔数。导出端的媒体类型标签不可信，
// 下载产物是不是压缩包必须看内容，不能看扩展名。
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// IsZip 按文件头判断 path 是否为 zip。读不到 4 字节一律视为否。
func IsZip(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, zipMagic)
}
