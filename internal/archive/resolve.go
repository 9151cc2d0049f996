package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/memorg/internal/domain"
	"github.com/John-Robertt/memorg/internal/infra/fsx"
	"github.com/John-Robertt/memorg/internal/infra/imgx"
)

// Kind 是压缩包的处理路径。
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// SkipError 表示该压缩包应被整体跳过：不产出、不删除、记日志后继续下一个。
// Code 对应 report 的 error_code（bad_archive / no_base_image）。
type SkipError struct {
	Code   string
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s：%s", e.Code, e.Reason)
}

func AsSkip(err error) (*SkipError, bool) {
	var e *SkipError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Result 描述一次压缩包处理的产出。
type Result struct {
	Kind    Kind
	Base    string   // IMAGE 路径：选中的 base 成员名
	Overlay string   // IMAGE 路径：选中的 overlay 成员名（可为空）
	Outputs []string // 产物绝对路径（合并图，或逐个解出的成员）
	Deleted bool     // 原压缩包是否已删除（只有全部产物落盘后才会是 true）
}

// Plan 只做枚举 + 分类 + 选择，不写任何东西（dry-run 用）。
// 返回的 Outputs 是“将会产出”的路径。
func Plan(zipPath string) (Result, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return Result{}, &SkipError{Code: domain.ErrCodeBadArchive, Reason: fmt.Sprintf("无法打开压缩包：%v", err)}
	}
	defer zr.Close()

	names := memberNames(zr)
	res := Result{Kind: Classify(names)}

	switch res.Kind {
	case KindVideo:
		outDir := stemPath(zipPath)
		for _, n := range names {
			res.Outputs = append(res.Outputs, filepath.Join(outDir, filepath.FromSlash(n)))
		}
		return res, nil
	default:
		base, overlay, ok := PickBaseOverlay(names)
		if !ok {
			return Result{}, &SkipError{Code: domain.ErrCodeNoBaseImage, Reason: "包内没有可用的 base 图片"}
		}
		res.Base = base
		res.Overlay = overlay
		res.Outputs = []string{mergedPath(zipPath)}
		return res, nil
	}
}

// Resolve 完整处理一个压缩包：
//
//  1. 打开并一次性枚举成员；打不开 => SkipError(bad_archive)
//  2. 分类：任何视频成员 => VIDEO；否则 IMAGE
//  3. VIDEO：全部成员解到 <stem>/ 并统一打上压缩包自身的 mtime
//  4. IMAGE：选 base/overlay，合成为 <stem>_merged.jpg，mtime 同上
//  5. 只有全部产物成功落盘后才删除原压缩包
//
// 成员自身的时间戳不可信（上游已把拍摄时间写进了包的 mtime），
// 所以所有产物统一继承包的 mtime，而不是成员元数据。
func Resolve(zipPath string) (Result, error) {
	fi, err := os.Stat(zipPath)
	if err != nil {
		return Result{}, err
	}
	mtime := fi.ModTime()

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return Result{}, &SkipError{Code: domain.ErrCodeBadArchive, Reason: fmt.Sprintf("无法打开压缩包：%v", err)}
	}

	names := memberNames(zr)
	kind := Classify(names)

	var res Result
	switch kind {
	case KindVideo:
		res, err = extractAll(zr, zipPath, mtime)
	default:
		res, err = mergeImages(zr, zipPath, mtime)
	}

	// 删除前必须先关闭句柄（Windows 上持句柄删除会失败）。
	_ = zr.Close()
	if err != nil {
		return Result{}, err
	}

	// 删除是唯一的破坏性操作，严格排在所有产物落盘之后。
	if err := os.Remove(zipPath); err != nil {
		return Result{}, err
	}
	res.Deleted = true
	return res, nil
}

func extractAll(zr *zip.ReadCloser, zipPath string, mtime time.Time) (Result, error) {
	outDir := stemPath(zipPath)
	if err := fsx.EnsureDir(outDir); err != nil {
		return Result{}, err
	}

	res := Result{Kind: KindVideo}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dst, err := extractOne(f, outDir, mtime)
		if err != nil {
			return Result{}, fmt.Errorf("解出 %q 失败：%w", f.Name, err)
		}
		res.Outputs = append(res.Outputs, dst)
	}
	return res, nil
}

func extractOne(f *zip.File, outDir string, mtime time.Time) (string, error) {
	dst, err := safeJoin(outDir, f.Name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	// 所有解出的成员共享同一个时间戳：继承容器，而不是成员元数据。
	if err := fsx.Chtimes(dst, mtime); err != nil {
		return "", err
	}
	return dst, nil
}

func mergeImages(zr *zip.ReadCloser, zipPath string, mtime time.Time) (Result, error) {
	names := memberNames(zr)
	base, overlay, ok := PickBaseOverlay(names)
	if !ok {
		return Result{}, &SkipError{Code: domain.ErrCodeNoBaseImage, Reason: "包内没有可用的 base 图片"}
	}

	baseBytes, err := readMember(zr, base)
	if err != nil {
		return Result{}, fmt.Errorf("读取 base %q 失败：%w", base, err)
	}

	var overlayBytes []byte
	if overlay != "" {
		overlayBytes, err = readMember(zr, overlay)
		if err != nil {
			return Result{}, fmt.Errorf("读取 overlay %q 失败：%w", overlay, err)
		}
	}

	merged, err := imgx.MergeToJPEG(baseBytes, overlayBytes)
	if err != nil {
		return Result{}, fmt.Errorf("合成失败：%w", err)
	}

	outPath := mergedPath(zipPath)
	if err := fsx.WriteFileAtomicReplace(filepath.Dir(outPath), filepath.Base(outPath), merged); err != nil {
		return Result{}, err
	}
	if err := fsx.Chtimes(outPath, mtime); err != nil {
		return Result{}, err
	}

	return Result{
		Kind:    KindImage,
		Base:    base,
		Overlay: overlay,
		Outputs: []string{outPath},
	}, nil
}

func readMember(zr *zip.ReadCloser, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("成员不存在：%q", name)
}

func memberNames(zr *zip.ReadCloser) []string {
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// safeJoin 把 zip 成员名安全地落到 outDir 内，拒绝路径逃逸（zip-slip）。
func safeJoin(outDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("非法成员路径：%q", name)
	}
	return filepath.Join(outDir, cleaned), nil
}

// stemPath 去掉扩展名：/x/a.zip -> /x/a（VIDEO 路径的解包目录）。
func stemPath(zipPath string) string {
	return strings.TrimSuffix(zipPath, filepath.Ext(zipPath))
}

// mergedPath 合并图路径：/x/a.zip -> /x/a_merged.jpg。
func mergedPath(zipPath string) string {
	return stemPath(zipPath) + "_merged.jpg"
}
