package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/John-Robertt/memorg/internal/infra/fsx"
	"github.com/John-Robertt/memorg/internal/stamp"
)

// RewriteNames 就地重写压缩包：成员改为带时间戳的名字，仍保持单个 zip。
//
// 新成员名：<时间戳>_<原 stem>_<行号>_<成员序号><ext>；目录成员丢弃。
// 成员时间统一写为 ts（上游解析出的拍摄时间）。
//
// 写入协议与 fsx 一致：同目录临时文件 + rename，失败不碰原包；
// 成功后重打包自身的 mtime（重写会把它刷成当前时间）。
func RewriteNames(zipPath string, ts time.Time, row int) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}

	tmpPath := zipPath + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_ = zr.Close()
		return err
	}

	err = rewriteTo(zr, tmp, ts, row)
	_ = zr.Close()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := fsx.Rename(tmpPath, zipPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return fsx.Chtimes(zipPath, ts)
}

func rewriteTo(zr *zip.ReadCloser, w io.Writer, ts time.Time, row int) error {
	zw := zip.NewWriter(w)

	inner := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		inner++

		ext := path.Ext(f.Name)
		base := strings.TrimSuffix(path.Base(f.Name), ext)
		if base == "" {
			base = "file"
		}
		newName := fmt.Sprintf("%s_%s_%d_%d%s", stamp.FormatName(ts), base, row, inner, ext)

		dst, err := zw.CreateHeader(&zip.FileHeader{
			Name:     newName,
			Method:   zip.Deflate,
			Modified: ts,
		})
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, rc)
		_ = rc.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}
