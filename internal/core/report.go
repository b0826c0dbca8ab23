package core

import "time"

// StageStatus is the outcome class of one pipeline stage.
type StageStatus string

const (
	StageOK        StageStatus = "ok"
	StageWarn      StageStatus = "warn"
	StageFail      StageStatus = "fail"
	StageSkipped   StageStatus = "skipped"
	StageCancelled StageStatus = "cancelled"
)

// maxStageDetail bounds the free-form details string of a stage report.
const maxStageDetail = 2000

// StageReport records the outcome of one stage for one article (or for the
// shared batch phase). Reports are append-only.
type StageReport struct {
	StageID  string      `json:"stage_id"`
	Status   StageStatus `json:"status"`
	Details  string      `json:"details,omitempty"`
	Duration float64     `json:"duration_seconds,omitempty"`
}

// NewStageReport builds a report, truncating oversized detail strings.
func NewStageReport(stageID string, status StageStatus, details string) StageReport {
	if len(details) > maxStageDetail {
		details = details[:maxStageDetail]
	}
	return StageReport{StageID: stageID, Status: status, Details: details}
}

// ArticleStatus is the aggregate outcome of one article worker.
type ArticleStatus string

const (
	ArticleOK        ArticleStatus = "ok"
	ArticleFailed    ArticleStatus = "fail"
	ArticleCancelled ArticleStatus = "cancelled"
	ArticleSkipped   ArticleStatus = "skipped"
)

// ArticleResult is the per-article entry of the batch report. Results are
// emitted in input keyword order regardless of completion order.
type ArticleResult struct {
	JobID     string        `json:"job_id"`
	Keyword   string        `json:"keyword"`
	Slug      string        `json:"slug"`
	Status    ArticleStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
	ErrorKind ErrKind       `json:"error_kind,omitempty"`
	Stages    []StageReport `json:"stages,omitempty"`
	OutputDir string        `json:"output_dir,omitempty"`
}

// BatchReport is the aggregate written to batch.json.
type BatchReport struct {
	BatchID            string          `json:"batch_id"`
	StartedAt          time.Time       `json:"started_at"`
	FinishedAt         time.Time       `json:"finished_at"`
	WallTime           float64         `json:"wall_time_seconds"`
	ArticlesTotal      int             `json:"articles_total"`
	ArticlesSuccessful int             `json:"articles_successful"`
	ArticlesFailed     int             `json:"articles_failed"`
	ArticlesCancelled  int             `json:"articles_cancelled"`
	ArticlesSkipped    int             `json:"articles_skipped"`
	SharedStages       []StageReport   `json:"shared_stages,omitempty"`
	Results            []ArticleResult `json:"results"`
	EstimatedCostUSD   float64         `json:"estimated_cost_usd,omitempty"`
	Summary            string          `json:"summary,omitempty"`
}

// ExitCode maps the batch outcome to the process exit code contract:
// 0 all articles succeeded, 1 partial failure, 2 fatal batch error.
func (r *BatchReport) ExitCode() int {
	if r.ArticlesTotal == 0 {
		return 2
	}
	if r.ArticlesSuccessful == r.ArticlesTotal {
		return 0
	}
	return 1
}
