package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/memorg/internal/domain"
	"github.com/John-Robertt/memorg/internal/infra/fsx"
)

// Store 提供 <path>/cache/ 下运行产物的读写：
// - report.json：最近一次运行的完整报告（`memorg report` 读它）
// - rows.json：最近一次解析出的元数据行快照（排障用）
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
type Store struct {
	Root     string // <path>（媒体根目录）
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// ReportPath 返回运行报告的绝对路径。
func (s Store) ReportPath() string {
	return filepath.Join(s.Root, "cache", "report.json")
}

// RowsPath 返回元数据行快照的绝对路径。
func (s Store) RowsPath() string {
	return filepath.Join(s.Root, "cache", "rows.json")
}

func (s Store) WriteReport(rep *domain.RunReport) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Join(s.Root, "cache"), "report.json", b)
}

// ReadReport 读取最近一次的运行报告；不存在时 ok=false 而不是错误。
func (s Store) ReadReport() (*domain.RunReport, bool, error) {
	b, err := os.ReadFile(s.ReportPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rep domain.RunReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, false, err
	}
	return &rep, true, nil
}

func (s Store) WriteRows(rows []domain.MetadataRow) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Join(s.Root, "cache"), "rows.json", b)
}

func (s Store) ReadRows() ([]domain.MetadataRow, bool, error) {
	b, err := os.ReadFile(s.RowsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rows []domain.MetadataRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, false, err
	}
	return rows, true, nil
}
