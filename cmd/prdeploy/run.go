package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/artifact"
	"github.com/randalmurphal/prdeploy/config"
	clierrors "github.com/randalmurphal/prdeploy/errors"
	"github.com/randalmurphal/prdeploy/event"
	"github.com/randalmurphal/prdeploy/git"
	"github.com/randalmurphal/prdeploy/pipeline"
	"github.com/randalmurphal/prdeploy/pr"
)

// localEvent describes a run outside CI.
type localEvent struct {
	pr   int
	sha  string
	repo string
}

func (l *localEvent) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&l.pr, "pr", 0, "Pull request number (outside CI)")
	cmd.Flags().StringVar(&l.sha, "sha", "", "Head commit (outside CI, default HEAD)")
	cmd.Flags().StringVar(&l.repo, "repo", "", "Repository owner/name (outside CI, default from origin)")
}

// event reads the CI environment, or builds a pull request event from
// flags and the local checkout when GITHUB_EVENT_NAME is unset.
func (a *app) event(ctx context.Context, s *config.Settings, l localEvent) (*event.Event, error) {
	if a.getenv("GITHUB_EVENT_NAME") != "" {
		return event.FromEnv(a.getenv)
	}
	if l.pr <= 0 {
		return nil, usagef("not running in CI: --pr is required")
	}

	ev := &event.Event{
		Name:     event.PullRequest,
		PRNumber: l.pr,
		BaseRef:  s.BaseBranch,
		HeadSHA:  l.sha,
		Ref:      fmt.Sprintf("refs/pull/%d/head", l.pr),
	}

	if ev.HeadSHA == "" || l.repo == "" {
		g, err := git.NewContext(ctx, s.Root, git.WithRunner(a.runner))
		if err != nil {
			return nil, clierrors.NewNotInGitRepoError()
		}
		if ev.HeadSHA == "" {
			if ev.HeadSHA, err = g.HeadCommit(ctx); err != nil {
				return nil, err
			}
		}
		if l.repo == "" {
			remote, err := g.GetRemoteURL(ctx, "origin")
			if err != nil {
				return nil, err
			}
			owner, repo, err := pr.ParseRepoFromURL(remote)
			if err != nil {
				return nil, err
			}
			l.repo = owner + "/" + repo
		}
	}
	ev.Repository = l.repo
	ev.HeadRepository = l.repo
	return ev, nil
}

func pipelineOptions(s *config.Settings, dryRun bool) pipeline.Options {
	return pipeline.Options{
		Package:       s.Package,
		BaseBranch:    s.BaseBranch,
		Actions:       s.Actions,
		AllowForks:    s.AllowForks,
		DistDir:       s.Path(s.DistDir),
		SpaceOrg:      s.SpaceOrg,
		SpaceName:     s.SpaceName,
		SpaceSDK:      s.SpaceSDK,
		CommentMarker: s.CommentMarker,
		DryRun:        dryRun,
	}
}

func newRunCommand(a *app) *cobra.Command {
	var (
		dryRun  bool
		jsonOut bool
		local   localEvent
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and deploy the preview for a pull request",
		Long: `Run resolves the release version, builds the wheel, uploads it,
assembles the demos, deploys the preview and comments on the pull request.

Steps run in order and the first failure stops the run. Pull requests from
forks, against another base branch or with other actions are skipped and
exit successfully.

With --dry-run the wheel is copied to the local artifact directory, the
deploy is only logged and no comment is posted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.settings()
			if err != nil {
				return err
			}
			ev, err := a.event(ctx, s, local)
			if err != nil {
				return err
			}

			// Gated events never need credentials.
			skip := ev.Gate(pipelineOptions(s, dryRun).GateOptions())
			svcDryRun := dryRun || skip != nil

			svc, err := a.services(ctx, s, ev.Repository, svcDryRun)
			if err != nil {
				return err
			}

			result, runErr := pipeline.NewRunner(svc, pipelineOptions(s, dryRun)).Run(ctx, *ev)
			if result != nil {
				if err := a.printResult(result, jsonOut); err != nil {
					return err
				}
			}
			if runErr != nil {
				return explainStep(runErr, s)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Upload to the local artifact directory and skip deploy and comment")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run record as JSON")
	local.addFlags(cmd)
	return cmd
}

func (a *app) printResult(r *pipeline.Result, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Record)
	}
	switch r.Status {
	case artifact.StatusSkipped:
		fmt.Fprintf(a.stdout, "Skipped: %s\n", r.Skip.Detail)
	default:
		fmt.Fprint(a.stdout, r.State.Summary())
		fmt.Fprintf(a.stdout, "Status: %s\n", r.Status)
	}
	return nil
}

// explainStep adds guidance for failures against remote services.
func explainStep(err error, s *config.Settings) error {
	var se *pipeline.StepError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Step {
	case pipeline.StepResolveVersion:
		return explain(err, "package registry", s.RegistryURL)
	case pipeline.StepUpload:
		return explain(err, "S3", s.S3Endpoint)
	case pipeline.StepDeploy:
		return explain(err, "Hugging Face", s.HubURL)
	case pipeline.StepComment:
		return explain(err, "GitHub", "")
	default:
		return err
	}
}
