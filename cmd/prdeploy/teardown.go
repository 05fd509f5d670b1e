package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/deploy"
)

func newTeardownCommand(a *app) *cobra.Command {
	var (
		prNumber int
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Delete the preview for a pull request",
		Long: `Delete the preview Space of a closed pull request. The name is
rendered from the space_name template, so the template must not depend on
the commit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if prNumber <= 0 {
				return usagef("--pr is required")
			}
			s, err := a.settings()
			if err != nil {
				return err
			}

			name, err := deploy.SpaceName(s.SpaceName, deploy.NameData{PRNumber: prNumber})
			if err != nil {
				return &usageError{err: err}
			}
			target := deploy.Target{Org: s.SpaceOrg, Name: name}

			var d deploy.Deployer = &deploy.DryRunDeployer{BaseURL: s.HubURL, Logger: a.logger}
			if !dryRun {
				if d, err = a.deployer(s); err != nil {
					return err
				}
			}
			if err := d.Teardown(cmd.Context(), target); err != nil {
				return explain(err, "Hugging Face", s.HubURL)
			}
			fmt.Fprintf(a.stdout, "Deleted %s\n", target.ID())
			return nil
		},
	}

	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only log what would be deleted")
	return cmd
}
