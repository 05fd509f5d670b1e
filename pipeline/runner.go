package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/prdeploy/artifact"
	"github.com/randalmurphal/prdeploy/event"
	"github.com/randalmurphal/prdeploy/git"
	"github.com/randalmurphal/prdeploy/notify"
)

// Result is the outcome of Runner.Run.
type Result struct {
	RunID  string
	Status string // One of the artifact.Status* values
	State  State
	Skip   *event.SkipError // Set when the event was gated out
	Record *artifact.Record
}

// Runner executes the deployment graph.
type Runner struct {
	svc  *Services
	opts Options
	now  func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(svc *Services, opts Options) *Runner {
	return &Runner{svc: svc, opts: opts, now: time.Now}
}

type graphStep struct {
	name string
	fn   NodeFunc
}

func graphSteps() []graphStep {
	return []graphStep{
		{StepResolveVersion, ResolveVersionNode},
		{StepBuild, BuildNode},
		{StepUpload, UploadNode},
		{StepAssemble, AssembleNode},
		{StepDeploy, DeployNode},
		{StepComment, CommentNode},
	}
}

// Run gates ev and, when it passes, runs every step in order. A gated
// event returns a skipped Result and a nil error. A failed step returns
// a *StepError alongside the partial Result.
func (r *Runner) Run(ctx context.Context, ev event.Event) (*Result, error) {
	ctx = r.svc.InjectAll(ctx)
	start := r.now()
	runID, err := artifact.NewRunID(start)
	if err != nil {
		return nil, err
	}

	logger := r.svc.logger().With("run_id", runID)
	state := NewState(runID, ev, r.opts, start)
	rec := artifact.NewRecord(runID, start)
	rec.DryRun = r.opts.DryRun
	rec.Repository = ev.Repository
	rec.PRNumber = ev.PRNumber
	rec.SHA = ev.HeadSHA

	result := &Result{RunID: runID, State: state, Record: rec}

	if err := ev.Gate(r.opts.GateOptions()); err != nil {
		var skip *event.SkipError
		if !errors.As(err, &skip) {
			return nil, err
		}
		logger.Info("event skipped", "reason", skip.Reason, "detail", skip.Detail)
		rec.SkipReason = string(skip.Reason)
		rec.Finish(artifact.StatusSkipped, nil, r.now())
		result.Status = artifact.StatusSkipped
		result.Skip = skip
		r.save(rec)
		r.notify(ctx, state, notify.EventDeploySkipped, "", skip.Error())
		return result, nil
	}

	inspectCheckout(ctx, rec, logger)
	r.notify(ctx, state, notify.EventDeployStarted, "", fmt.Sprintf("Deploying preview for PR #%d", ev.PRNumber))

	final, runErr := r.execute(ctx, state)
	if runErr != nil {
		if last, ok := state.Recorder.Last(); ok {
			final = last
		} else {
			final = state
		}
	}
	if final.TempStaging != "" {
		if err := os.RemoveAll(final.TempStaging); err != nil {
			logger.Warn("failed to remove staging dir", "dir", final.TempStaging, "error", err)
		}
	}
	result.State = final
	fillRecord(rec, final)

	if runErr != nil {
		step := ""
		var se *StepError
		if failed := state.Recorder.Failed(); failed != nil {
			step = failed.Step
			runErr = failed
		} else if errors.As(runErr, &se) {
			step = se.Step
		}
		rec.FailedStep = step
		rec.Finish(artifact.StatusFailed, runErr, r.now())
		result.Status = artifact.StatusFailed
		r.save(rec)
		logger.Error("deploy failed", "step", step, "error", runErr)
		r.notify(ctx, final, notify.EventDeployFailed, step, runErr.Error())
		return result, runErr
	}

	rec.Finish(artifact.StatusSucceeded, nil, r.now())
	result.Status = artifact.StatusSucceeded
	r.save(rec)
	logger.Info("deploy succeeded", "url", final.PreviewURL(), "duration", rec.EndedAt.Sub(start))
	r.notify(ctx, final, notify.EventDeploySucceeded, "", "Preview deployed at "+final.PreviewURL())
	return result, nil
}

func (r *Runner) execute(ctx context.Context, state State) (State, error) {
	steps := graphSteps()
	graph := flowgraph.NewGraph[State]()
	for i, s := range steps {
		graph = graph.AddNode(s.name, flowgraph.NodeFunc[State](WithTiming(WithRecord(s.name, s.fn))))
		if i > 0 {
			graph = graph.AddEdge(steps[i-1].name, s.name)
		}
	}
	graph = graph.AddEdge(steps[len(steps)-1].name, flowgraph.END).SetEntry(steps[0].name)

	compiled, err := graph.Compile()
	if err != nil {
		return state, fmt.Errorf("compile graph: %w", err)
	}
	return compiled.Run(flowgraph.NewContext(ctx), state)
}

// inspectCheckout records the branch and warns about uncommitted changes
// when a local checkout is available. Errors are logged only.
func inspectCheckout(ctx context.Context, rec *artifact.Record, logger *slog.Logger) {
	g := git.FromContext(ctx)
	if g == nil {
		return
	}
	if branch, err := g.CurrentBranch(ctx); err == nil {
		rec.Branch = branch
	}
	clean, err := g.IsClean(ctx)
	if err != nil {
		logger.Warn("could not read working tree status", "error", err)
		return
	}
	if !clean {
		rec.Dirty = true
		logger.Warn("working tree has uncommitted changes; the build includes them")
	}
}

func fillRecord(rec *artifact.Record, s State) {
	rec.SHA = s.Event.HeadSHA
	rec.Version = s.Version
	rec.WheelURL = s.WheelURL()
	rec.PreviewURL = s.PreviewURL()
	if s.Comment != nil {
		rec.CommentURL = s.Comment.URL
	}
	if s.Recorder != nil {
		rec.Steps = s.Recorder.Steps()
	}
}

func (r *Runner) save(rec *artifact.Record) {
	if r.svc.Artifacts == nil {
		return
	}
	if err := r.svc.Artifacts.SaveRecord(rec); err != nil {
		r.svc.logger().Warn("failed to save run record", "run_id", rec.RunID, "error", err)
	}
}

// notify sends a notification. Failures are logged and never fail the run.
func (r *Runner) notify(ctx context.Context, s State, t notify.EventType, step, msg string) {
	n := notify.NotifierFromContext(ctx)
	if n == nil {
		return
	}
	ev := notify.Event{
		Type:       t,
		RunID:      s.RunID,
		Repository: s.Event.Repository,
		PRNumber:   s.Event.PRNumber,
		SHA:        s.Event.HeadSHA,
		Step:       step,
		URL:        s.PreviewURL(),
		Message:    msg,
		Severity:   notify.SeverityFor(t),
		Timestamp:  r.now(),
	}
	if s.Version != "" {
		ev.Metadata = map[string]any{"version": s.Version}
	}
	if err := n.Notify(ctx, ev); err != nil {
		r.svc.logger().Warn("notification failed", "type", t, "error", err)
	}
}
