package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StageDownload = "download"
	StageResolve  = "resolve"
	StageOrganize = "organize"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	FileStatusPlanned   = "planned"
	FileStatusWritten   = "written"
	FileStatusExtracted = "extracted"
	FileStatusMoved     = "moved"
	FileStatusDeleted   = "deleted"
	FileStatusFailed    = "failed"
)

const (
	ErrCodeNoReference       = "no_reference"
	ErrCodeFetchFailed       = "fetch_failed"
	ErrCodeBadArchive        = "bad_archive"
	ErrCodeNoBaseImage       = "no_base_image"
	ErrCodeIOFailed          = "io_failed"
	ErrCodeMoveFailed        = "move_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Root   string `json:"root"`
	HTML   string `json:"html"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ItemResult 是单个条目（一行下载 / 一个压缩包 / 一个待归档条目）的结果。
//
// 约束：
// - Stage 必须是 download/resolve/organize 之一
// - Row 仅 download 阶段有意义（>=1）；其余阶段为 0
// - Warnings 用于“已恢复的退化”（例如时间戳解析兜底），不影响 Status
type ItemResult struct {
	Stage string `json:"stage"`
	Row   int    `json:"row,omitempty"`
	Name  string `json:"name"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Warnings []string     `json:"warnings"`
	Files    []FileResult `json:"files"`
}

type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Status string `json:"status"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按阶段顺序（download < resolve < organize），再按 Row，再按 Name
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i], r.Items[j]
		if sa, sb := stageRank(a.Stage), stageRank(b.Stage); sa != sb {
			return sa < sb
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Name < b.Name
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusProcessed:
			s.Processed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

func stageRank(stage string) int {
	switch stage {
	case StageDownload:
		return 0
	case StageResolve:
		return 1
	case StageOrganize:
		return 2
	default:
		// 合成条目（例如配置错误）排在最前，保证用户先看到它。
		return -1
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
