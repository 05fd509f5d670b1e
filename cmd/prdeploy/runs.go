package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/artifact"
)

func newRunsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and clean up local run records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newRunsListCommand(a), newRunsShowCommand(a), newRunsCleanupCommand(a))
	return cmd
}

func newRunsListCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			records, err := a.artifacts(s).List()
			if err != nil {
				return err
			}
			if jsonOut {
				return a.writeJSON(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(a.stdout, "No runs")
				return nil
			}
			for _, r := range records {
				fmt.Fprintln(a.stdout, r.Summary())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func newRunsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			rec, err := a.artifacts(s).LoadRecord(args[0])
			if err != nil {
				return err
			}
			return a.writeJSON(rec)
		},
	}
}

func newRunsCleanupCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old run records",
		Long: `Delete finished runs older than retention_days. The keep_runs newest
runs and every failed run are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			policy := artifact.DefaultRetentionConfig()
			policy.RetentionDays = s.RetentionDays
			policy.KeepMinRuns = s.KeepRuns

			result, err := artifact.NewLifecycleManager(s.Path(s.ArtifactDir), policy).Cleanup(dryRun)
			if err != nil {
				return err
			}

			verb := "Deleted"
			if dryRun {
				verb = "Would delete"
			}
			for _, id := range result.Deleted {
				fmt.Fprintf(a.stdout, "%s %s\n", verb, id)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(a.stderr, "cleanup: %s\n", e)
			}
			fmt.Fprintf(a.stdout, "%s %d run(s), kept %d, %d bytes\n", verb, len(result.Deleted), len(result.Kept), result.SpaceSaved)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be deleted")
	return cmd
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
