package artifact

import (
	"fmt"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRunID returns a sortable run ID: a UTC timestamp prefix plus a
// random suffix, e.g. "20260115-093012-k3x9q2ab".
func NewRunID(now time.Time) (string, error) {
	suffix, err := nanoid.Generate(runIDAlphabet, 8)
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return now.UTC().Format("20060102-150405") + "-" + suffix, nil
}

// StepRecord is the outcome of one pipeline step.
type StepRecord struct {
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   time.Time     `json:"endedAt"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Record summarizes a pipeline run.
type Record struct {
	RunID      string `json:"runId"`
	Status     string `json:"status"`
	DryRun     bool   `json:"dryRun,omitempty"`
	Repository string `json:"repository,omitempty"`
	PRNumber   int    `json:"prNumber,omitempty"`
	SHA        string `json:"sha,omitempty"`
	Branch     string `json:"branch,omitempty"` // Local checkout only
	Dirty      bool   `json:"dirty,omitempty"`

	Version    string `json:"version,omitempty"`
	WheelURL   string `json:"wheelUrl,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	CommentURL string `json:"commentUrl,omitempty"`

	Steps      []StepRecord `json:"steps,omitempty"`
	FailedStep string       `json:"failedStep,omitempty"`
	Error      string       `json:"error,omitempty"`
	SkipReason string       `json:"skipReason,omitempty"`

	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
}

// NewRecord starts a record in the running state.
func NewRecord(runID string, now time.Time) *Record {
	return &Record{
		RunID:     runID,
		Status:    StatusRunning,
		StartedAt: now,
	}
}

// Finish closes the record with the given status.
func (r *Record) Finish(status string, err error, now time.Time) {
	r.Status = status
	r.EndedAt = now
	if err != nil {
		r.Error = err.Error()
	}
}

// Done reports whether the run has ended.
func (r *Record) Done() bool {
	return r.Status != StatusRunning
}

// Summary renders a one-line description for listings.
func (r *Record) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %-9s", r.RunID, r.Status)
	if r.PRNumber > 0 {
		fmt.Fprintf(&sb, "  #%d", r.PRNumber)
	}
	switch {
	case r.PreviewURL != "":
		sb.WriteString("  " + r.PreviewURL)
	case r.FailedStep != "":
		sb.WriteString("  failed at " + r.FailedStep)
	case r.SkipReason != "":
		sb.WriteString("  " + r.SkipReason)
	}
	return sb.String()
}
