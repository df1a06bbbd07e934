// Package jobs tracks in-flight podcast generation runs and the
// notifications they raise. Both stores live in process memory only.
package jobs

import "time"

// Status is the phase a generation job is in.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDedupLocal  Status = "dedup-local"
	StatusDedupShared Status = "dedup-shared"
	StatusExtracting  Status = "extracting"
	StatusPlanning    Status = "planning"
	StatusGenerating  Status = "generating"
	StatusDone        Status = "done"
	StatusError       Status = "error"
)

// Terminal reports whether the job has finished.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Job is the progress record of one generation run.
type Job struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	BookTitle string    `json:"book_title"`
	ToneID    string    `json:"tone_id"`
	Tone      string    `json:"tone"`
	Kind      string    `json:"kind"` // "series" or "retry"
	Status    Status    `json:"status"`
	Label     string    `json:"label"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Job kinds.
const (
	KindSeries = "series"
	KindRetry  = "retry"
)
