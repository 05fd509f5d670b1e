package event

import (
	"fmt"
	"slices"
)

// DefaultActions are the pull request actions that produce a preview.
var DefaultActions = []string{"opened", "synchronize", "reopened"}

// SkipReason identifies why an event was skipped.
type SkipReason string

// Skip reasons.
const (
	SkipNotPullRequest SkipReason = "not_pull_request"
	SkipAction         SkipReason = "action"
	SkipBaseBranch     SkipReason = "base_branch"
	SkipFork           SkipReason = "fork"
)

// SkipError is returned by Gate when the event should not run.
// A skip is not a failure: callers end the run successfully.
type SkipError struct {
	Reason SkipReason
	Detail string
}

// Error implements the error interface.
func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped (%s): %s", e.Reason, e.Detail)
}

// GateOptions configures Gate.
type GateOptions struct {
	// BaseBranch is the branch PRs must target. Empty accepts any branch.
	BaseBranch string

	// Actions overrides DefaultActions. An event without an action
	// (no payload) is always accepted.
	Actions []string

	// AllowForks disables the fork-origin check.
	AllowForks bool
}

// Gate returns nil when the event should run, or a *SkipError.
func (e *Event) Gate(opts GateOptions) error {
	if !e.IsPullRequest() {
		return &SkipError{Reason: SkipNotPullRequest, Detail: "event " + e.Name}
	}
	if e.PRNumber <= 0 {
		return &SkipError{Reason: SkipNotPullRequest, Detail: "no pull request number in " + e.Ref}
	}

	actions := opts.Actions
	if len(actions) == 0 {
		actions = DefaultActions
	}
	if e.Action != "" && !slices.Contains(actions, e.Action) {
		return &SkipError{Reason: SkipAction, Detail: "action " + e.Action}
	}

	if opts.BaseBranch != "" && e.BaseRef != opts.BaseBranch {
		return &SkipError{
			Reason: SkipBaseBranch,
			Detail: fmt.Sprintf("base %q is not %q", e.BaseRef, opts.BaseBranch),
		}
	}

	if !opts.AllowForks && e.IsFork() {
		if e.HeadRepository == "" {
			return &SkipError{Reason: SkipFork, Detail: "head repository unknown (deleted fork)"}
		}
		return &SkipError{
			Reason: SkipFork,
			Detail: fmt.Sprintf("head %s differs from %s", e.HeadRepository, e.Repository),
		}
	}

	return nil
}
