package pipeline

import (
	"fmt"
	"os"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/prdeploy/build"
	"github.com/randalmurphal/prdeploy/demo"
	"github.com/randalmurphal/prdeploy/deploy"
	"github.com/randalmurphal/prdeploy/git"
	"github.com/randalmurphal/prdeploy/pr"
	"github.com/randalmurphal/prdeploy/storage"
	"github.com/randalmurphal/prdeploy/version"
)

// ResolveVersionNode looks up the release version with a single request.
func ResolveVersionNode(ctx flowgraph.Context, state State) (State, error) {
	svc, err := servicesFrom(ctx)
	if err != nil {
		return state, err
	}
	if svc.Version == nil {
		return state, fmt.Errorf("version source not configured")
	}

	v, err := version.Resolve(ctx, svc.Version)
	if err != nil {
		return state, fmt.Errorf("resolve version: %w", err)
	}
	state.Version = v
	return state, nil
}

// BuildNode runs the build and locates the wheel for state.Version.
func BuildNode(ctx flowgraph.Context, state State) (State, error) {
	svc, err := servicesFrom(ctx)
	if err != nil {
		return state, err
	}
	if svc.Builder == nil {
		return state, fmt.Errorf("builder not configured")
	}
	if state.Version == "" {
		return state, missing("version")
	}

	results, runErr := svc.Builder.Run(ctx)
	state.BuildSteps = results
	saveBuildLogs(svc, state.RunID, results)
	if runErr != nil {
		return state, runErr
	}

	wheel, err := build.FindWheel(state.Config.DistDir, state.Config.Package, state.Version)
	if err != nil {
		return state, err
	}
	state.Wheel = wheel
	return state, nil
}

func saveBuildLogs(svc *Services, runID string, results []build.StepResult) {
	if svc.Artifacts == nil {
		return
	}
	for _, r := range results {
		if r.Output == "" {
			continue
		}
		if err := svc.Artifacts.SaveLog(runID, r.Name, []byte(r.Output)); err != nil {
			svc.logger().Warn("failed to save build log", "step", r.Name, "error", err)
		}
	}
}

// UploadNode publishes the wheel under the head commit SHA. Without a SHA
// on the event it falls back to the checkout's HEAD.
func UploadNode(ctx flowgraph.Context, state State) (State, error) {
	svc, err := servicesFrom(ctx)
	if err != nil {
		return state, err
	}
	if svc.Store == nil {
		return state, fmt.Errorf("storage not configured")
	}
	if state.Wheel == nil {
		return state, missing("wheel")
	}

	if state.Event.HeadSHA == "" {
		g := git.FromContext(ctx)
		if g == nil {
			return state, missing("head commit SHA")
		}
		sha, err := g.HeadCommit(ctx)
		if err != nil {
			return state, fmt.Errorf("resolve head commit: %w", err)
		}
		state.Event.HeadSHA = sha
	}

	obj, err := storage.Publish(ctx, svc.Store, state.Event.HeadSHA, state.Wheel)
	if err != nil {
		return state, err
	}
	state.Object = obj
	return state, nil
}

// AssembleNode stages the demo bundle pinned to the uploaded wheel.
func AssembleNode(ctx flowgraph.Context, state State) (State, error) {
	svc, err := servicesFrom(ctx)
	if err != nil {
		return state, err
	}
	if svc.Assembler == nil {
		return state, fmt.Errorf("demo assembler not configured")
	}
	if state.Object == nil {
		return state, missing("wheel URL")
	}

	dir := state.Config.StagingDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "prdeploy-"+state.RunID+"-")
		if err != nil {
			return state, fmt.Errorf("create staging dir: %w", err)
		}
		state.TempStaging = dir
	}

	bundle, err := svc.Assembler.Assemble(ctx, dir, demo.Options{
		Package:  state.Config.Package,
		Version:  state.Version,
		WheelURL: state.Object.URL,
		SHA:      state.Event.HeadSHA,
		PRNumber: state.Event.PRNumber,
		SDK:      state.Config.SpaceSDK,
	})
	if err != nil {
		if state.TempStaging != "" {
			_ = os.RemoveAll(state.TempStaging)
		}
		return state, err
	}
	state.Bundle = bundle
	return state, nil
}

// DeployNode pushes the bundle to the preview keyed by the PR number.
func DeployNode(ctx flowgraph.Context, state State) (State, error) {
	svc, err := servicesFrom(ctx)
	if err != nil {
		return state, err
	}
	if svc.Deployer == nil {
		return state, fmt.Errorf("deployer not configured")
	}
	if state.Bundle == nil {
		return state, missing("bundle")
	}

	name, err := deploy.SpaceName(state.Config.SpaceName, deploy.NameData{
		PRNumber: state.Event.PRNumber,
		SHA:      state.Event.HeadSHA,
		Repo:     state.Event.Repo(),
	})
	if err != nil {
		return state, err
	}
	state.Target = deploy.Target{Org: state.Config.SpaceOrg, Name: name}

	d, err := svc.Deployer.Deploy(ctx, state.Target, state.Bundle.Dir)
	if err != nil {
		return state, err
	}
	state.Deployment = d
	return state, nil
}

// CommentNode creates or updates the single preview comment on the PR.
// Dry runs skip it.
func CommentNode(ctx flowgraph.Context, state State) (State, error) {
	if state.Config.DryRun {
		ServicesFromContext(ctx).logger().Info("dry run: skipping PR comment", "run_id", state.RunID)
		return state, nil
	}
	if state.Deployment == nil {
		return state, missing("deployment")
	}

	provider := pr.ProviderFromContext(ctx)
	if provider == nil {
		return state, pr.ErrNoProvider
	}

	marker := state.Config.marker()
	c, created, err := pr.UpsertComment(ctx, provider, state.Event.PRNumber, CommentBody(marker, state.Deployment.URL), marker)
	if err != nil {
		return state, err
	}
	state.Comment = c
	state.CommentCreated = created
	return state, nil
}

// CommentBody returns the preview comment text for url.
func CommentBody(marker, url string) string {
	if marker == "" || marker == pr.DefaultMarker {
		return pr.PreviewComment(url)
	}
	return marker + " " + url
}
