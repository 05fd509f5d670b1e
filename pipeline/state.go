package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/prdeploy/build"
	"github.com/randalmurphal/prdeploy/demo"
	"github.com/randalmurphal/prdeploy/deploy"
	"github.com/randalmurphal/prdeploy/event"
	"github.com/randalmurphal/prdeploy/pr"
	"github.com/randalmurphal/prdeploy/storage"
)

// Step names, in execution order.
const (
	StepResolveVersion = "resolve-version"
	StepBuild          = "build"
	StepUpload         = "upload"
	StepAssemble       = "assemble"
	StepDeploy         = "deploy"
	StepComment        = "comment"
)

// Steps returns the step names in execution order.
func Steps() []string {
	steps := graphSteps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	return names
}

// Options configures a run.
type Options struct {
	Package       string   // Distribution name, e.g. "gradio"
	BaseBranch    string   // PRs must target this branch
	Actions       []string // Accepted pull_request actions
	AllowForks    bool
	DistDir       string // Where the build leaves the wheel
	StagingDir    string // Bundle directory; a temp dir when empty
	SpaceOrg      string
	SpaceName     string // Name template, see deploy.SpaceName
	SpaceSDK      string
	CommentMarker string // Defaults to pr.DefaultMarker
	DryRun        bool   // Skip the PR comment
}

// GateOptions returns the event gate settings.
func (o Options) GateOptions() event.GateOptions {
	return event.GateOptions{
		BaseBranch: o.BaseBranch,
		Actions:    o.Actions,
		AllowForks: o.AllowForks,
	}
}

func (o Options) marker() string {
	if o.CommentMarker == "" {
		return pr.DefaultMarker
	}
	return o.CommentMarker
}

// State flows through the graph. Each step fills in its output.
type State struct {
	RunID     string      `json:"runId"`
	Event     event.Event `json:"event"`
	Config    Options     `json:"-"`
	StartedAt time.Time   `json:"startedAt"`

	Version    string             `json:"version,omitempty"`
	BuildSteps []build.StepResult `json:"buildSteps,omitempty"`
	Wheel      *build.Artifact    `json:"wheel,omitempty"`
	Object     *storage.Object    `json:"object,omitempty"`
	Bundle     *demo.Bundle       `json:"bundle,omitempty"`
	Target     deploy.Target      `json:"target"`
	Deployment *deploy.Deployment `json:"deployment,omitempty"`

	Comment        *pr.Comment `json:"comment,omitempty"`
	CommentCreated bool        `json:"commentCreated,omitempty"`

	// TempStaging is a staging dir the run created; removed when the run ends.
	TempStaging string `json:"-"`

	Recorder *Recorder `json:"-"`
}

// NewState creates the initial state for a run.
func NewState(runID string, ev event.Event, opts Options, now time.Time) State {
	return State{
		RunID:     runID,
		Event:     ev,
		Config:    opts,
		StartedAt: now,
		Recorder:  NewRecorder(),
	}
}

// PreviewURL returns the deployed preview URL, if any.
func (s State) PreviewURL() string {
	if s.Deployment == nil {
		return ""
	}
	return s.Deployment.URL
}

// WheelURL returns the uploaded wheel URL, if any.
func (s State) WheelURL() string {
	if s.Object == nil {
		return ""
	}
	return s.Object.URL
}

// Summary returns a human-readable summary of the run so far.
func (s State) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run: %s\n", s.RunID)
	fmt.Fprintf(&sb, "PR: %s#%d @ %s\n", s.Event.Repository, s.Event.PRNumber, s.Event.ShortSHA())
	if s.Version != "" {
		fmt.Fprintf(&sb, "Version: %s\n", s.Version)
	}
	if s.Object != nil {
		fmt.Fprintf(&sb, "Wheel: %s\n", s.Object.URL)
	}
	if s.Bundle != nil {
		fmt.Fprintf(&sb, "Demos: %d\n", len(s.Bundle.Demos))
	}
	if s.Deployment != nil {
		fmt.Fprintf(&sb, "Preview: %s\n", s.Deployment.URL)
	}
	if s.Comment != nil && s.Comment.URL != "" {
		fmt.Fprintf(&sb, "Comment: %s\n", s.Comment.URL)
	}
	return sb.String()
}
