package task

import (
	"time"
)

// Status represents the current state of a task
type Status string

// Possible task status values
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCancelling Status = "cancelling"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// listPriority orders statuses for listing: active work first, then queued,
// then the terminal states.
func (s Status) listPriority() int {
	switch s {
	case StatusProcessing:
		return 1
	case StatusCancelling:
		return 2
	case StatusQueued:
		return 3
	case StatusCompleted:
		return 4
	case StatusFailed:
		return 5
	case StatusCancelled:
		return 6
	default:
		return 999
	}
}

// Type identifies which job runner produced a task.
type Type string

// Task type constants
const (
	TypeSingleExplanation Type = "single_explanation"
	TypeBulkExplanation   Type = "bulk_explanation"
	TypeMCQGeneration     Type = "mcq_generation"
)

// Result is one per-item outcome of a task: either a generated explanation
// or the error that item produced. Entries are append-only; once appended,
// a Result is never modified.
type Result struct {
	Index         int      `json:"index"`
	QuestionID    int64    `json:"questionId,omitempty"`
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	CompletedAt   string   `json:"completed_at,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Record is the live status record of one task. It is created by a start
// operation and mutated only through the store's lock-guarded Mutate, by
// the worker that owns it.
type Record struct {
	ID           string         `json:"task_id"`
	Type         Type           `json:"task_type"`
	Params       map[string]any `json:"task_params,omitempty"`
	Status       Status         `json:"status"`
	Stage        string         `json:"stage,omitempty"`
	Progress     int            `json:"progress"`
	Total        int            `json:"total"`
	Results      []Result       `json:"results,omitempty"`
	ResultCount  int            `json:"results_count"`
	LatestResult *Result        `json:"latest_result,omitempty"`
	DownloadURL  string         `json:"download_url,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Restored     bool           `json:"restored,omitempty"`
}

// clone returns a deep copy safe to hand to callers while the worker keeps
// mutating the original.
func (r *Record) clone() Record {
	out := *r
	if r.Results != nil {
		out.Results = make([]Result, len(r.Results))
		copy(out.Results, r.Results)
	}
	if r.LatestResult != nil {
		lr := *r.LatestResult
		out.LatestResult = &lr
	}
	if r.Params != nil {
		out.Params = make(map[string]any, len(r.Params))
		for k, v := range r.Params {
			out.Params[k] = v
		}
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// appendResult records one item outcome and advances progress. Successful
// outcomes also become the latest result for cheap polling.
func (r *Record) appendResult(res Result) {
	r.Results = append(r.Results, res)
	r.ResultCount = len(r.Results)
	r.Progress = len(r.Results)
	if res.Error == "" {
		lr := res
		r.LatestResult = &lr
	}
}
