package domain

// MetadataRow 是导出文档中一行的最小可用信息（解析一次，不落盘）。
//
// 约束：
// - Index 从 1 开始（表头行不计入），与产物文件名中的行号一致
// - Ref 允许为空：表示该行没有可用的下载引用（上层记 skipped，不中断）
type MetadataRow struct {
	Index     int    `json:"index"`
	DateText  string `json:"date_text"`  // 自由文本时间戳（原样保留，解析交给 stamp）
	MediaType string `json:"media_type"` // 自由文本媒体类型标签
	Ref       string `json:"ref"`        // 下载引用（URL 或等价标识）
}
