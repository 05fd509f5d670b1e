package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/actions"
)

func newWorkflowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Render and lint the GitHub Actions workflow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newWorkflowRenderCommand(a), newWorkflowLintCommand(a))
	return cmd
}

func newWorkflowRenderCommand(a *app) *cobra.Command {
	var (
		output string
		args   []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the workflow that runs prdeploy on pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			content, err := actions.Render(actions.Options{
				BaseBranch: s.BaseBranch,
				Actions:    s.Actions,
				AllowForks: s.AllowForks,
				Region:     s.Region,
				Args:       args,
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err := a.stdout.Write(content)
				return err
			}
			path := s.Path(output)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file (e.g. "+actions.DefaultPath+")")
	cmd.Flags().StringArrayVar(&args, "arg", nil, "Extra argument for prdeploy run (repeatable)")
	return cmd
}

func newWorkflowLintCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [file...]",
		Short: "Lint workflow files with actionlint",
		Long:  "Lint workflow files. Defaults to " + actions.DefaultPath + " in the repository root.",
		RunE: func(cmd *cobra.Command, files []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				files = []string{actions.DefaultPath}
			}

			total := 0
			for _, f := range files {
				path := s.Path(f)
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				findings, err := actions.Lint(f, content)
				if err != nil {
					return err
				}
				for _, finding := range findings {
					fmt.Fprintln(a.stdout, finding)
				}
				total += len(findings)
			}

			if total > 0 {
				return fmt.Errorf("%d lint finding(s)", total)
			}
			fmt.Fprintf(a.stdout, "%d file(s) OK\n", len(files))
			return nil
		},
	}
}
