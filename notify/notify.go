package notify

import (
	"context"
	"time"
)

// EventType represents the type of deployment event.
type EventType string

// Event type constants.
const (
	EventDeployStarted   EventType = "deploy_started"
	EventDeploySucceeded EventType = "deploy_succeeded"
	EventDeployFailed    EventType = "deploy_failed"
	EventDeploySkipped   EventType = "deploy_skipped"
)

// Severity constants for notifications.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes a deployment event for notification.
type Event struct {
	Type       EventType      `json:"type"`
	RunID      string         `json:"run_id"`
	Repository string         `json:"repository,omitempty"`
	PRNumber   int            `json:"pr_number,omitempty"`
	SHA        string         `json:"sha,omitempty"`
	Step       string         `json:"step,omitempty"` // Failing step for EventDeployFailed
	URL        string         `json:"url,omitempty"`  // Preview URL when known
	Message    string         `json:"message"`
	Severity   string         `json:"severity"` // SeverityInfo, SeverityWarning, SeverityError
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SeverityFor returns the default severity of an event type.
func SeverityFor(t EventType) string {
	switch t {
	case EventDeployFailed:
		return SeverityError
	case EventDeploySkipped:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Notifier sends notifications about deployment events.
type Notifier interface {
	// Notify sends a notification. Callers treat errors as non-fatal.
	Notify(ctx context.Context, event Event) error
}

type serviceContextKey string

const notifierServiceKey serviceContextKey = "prdeploy.notifier"

// WithNotifier adds a Notifier to the context.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierServiceKey, n)
}

// NotifierFromContext extracts the Notifier from context.
// Returns nil if no notifier is configured.
func NotifierFromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(notifierServiceKey).(Notifier); ok {
		return n
	}
	return nil
}
