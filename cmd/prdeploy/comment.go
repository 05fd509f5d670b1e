package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/pipeline"
	"github.com/randalmurphal/prdeploy/pr"
)

func newCommentCommand(a *app) *cobra.Command {
	var local localEvent

	cmd := &cobra.Command{
		Use:   "comment <url>",
		Short: "Create or update the preview comment on a pull request",
		Long: `Post the preview link on the pull request. An existing comment
containing the configured marker is updated in place, so the pull request
carries a single preview comment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.settings()
			if err != nil {
				return err
			}
			ev, err := a.event(ctx, s, local)
			if err != nil {
				return err
			}
			if ev.PRNumber <= 0 {
				return usagef("no pull request number in %s event", ev.Name)
			}

			provider, err := a.provider(ctx, s, ev.Repository)
			if err != nil {
				return err
			}

			body := pipeline.CommentBody(s.CommentMarker, args[0])
			c, created, err := pr.UpsertComment(ctx, provider, ev.PRNumber, body, s.CommentMarker)
			if err != nil {
				return explain(err, "GitHub", "")
			}

			verb := "Updated"
			if created {
				verb = "Created"
			}
			fmt.Fprintf(a.stdout, "%s comment on #%d: %s\n", verb, ev.PRNumber, c.URL)
			return nil
		},
	}

	local.addFlags(cmd)
	return cmd
}
