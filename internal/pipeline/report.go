package pipeline

import (
	"time"

	"datapipe/internal/stage"
)

// StageOutcome records the terminal state of one stage within a run.
type StageOutcome struct {
	Stage      string       `json:"stage"`
	Status     stage.Status `json:"status"`
	DurationMs int64        `json:"duration_ms"`
	ExitCode   int          `json:"exit_code,omitempty"`
	Detail     string       `json:"detail,omitempty"`
}

// Report is the persisted record of a single pipeline run. Outcomes list
// every attempted stage in order; stages after the first failure are
// absent, not marked.
type Report struct {
	RunID      string         `json:"run_id"`
	Pipeline   string         `json:"pipeline"`
	Status     string         `json:"status"` // "succeeded", "failed"
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcomes   []StageOutcome `json:"outcomes"`
	Error      string         `json:"error,omitempty"`
}
