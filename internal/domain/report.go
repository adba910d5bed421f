package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const (
	ErrCodeUnsupportedType   = "unsupported_type"
	ErrCodeWriterUnavailable = "writer_unavailable"
	ErrCodeWriteFailed       = "write_failed"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（stdout JSON / 运行日志）的结构。
type RunReport struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

// ReportSummary 满足 Successful + Failed == Total。
type ReportSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ItemResult 是单个文件的处理结果。
type ItemResult struct {
	File     string    `json:"file"` // 相对扫描根目录的路径
	Class    FileClass `json:"class"`
	Title    string    `json:"title"`
	Keywords string    `json:"keywords"`
	Category string    `json:"category"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Succeeded 报告该条目是否写入成功。
func (it ItemResult) Succeeded() bool { return it.Status == StatusSucceeded }

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 items 计算得出
//
// 与扫描顺序保持一致：items 不重新排序（日志按处理顺序逐条输出）。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	s := ReportSummary{Total: len(r.Items)}
	for _, it := range r.Items {
		if it.Succeeded() {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性：items 为 nil 时输出 []。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	if r.Items == nil {
		r.Items = []ItemResult{}
	}
	return json.Marshal(Alias(r))
}
