package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/version"
)

func newVersionCommand(a *app) *cobra.Command {
	var (
		resolve bool
		check   string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the prdeploy version or the package release version",
		Long: `Without flags, print the prdeploy version.

--resolve performs the version lookup the pipeline uses and prints the
result. --check compares a local version against it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !resolve && check == "" {
				fmt.Fprintf(a.stdout, "prdeploy %s\n", buildVersion)
				return nil
			}

			s, err := a.settings()
			if err != nil {
				return err
			}
			latest, err := version.Resolve(cmd.Context(), a.versionSource(s))
			if err != nil {
				return explain(err, "package registry", s.RegistryURL)
			}
			if check == "" {
				fmt.Fprintln(a.stdout, latest)
				return nil
			}

			st, err := version.Check(check, latest)
			if err != nil {
				return &usageError{err: err}
			}
			if st.UpdateAvailable {
				fmt.Fprintf(a.stdout, "%s %s is behind the latest release %s\n", s.Package, st.Current, st.Latest)
			} else {
				fmt.Fprintf(a.stdout, "%s %s is up to date (latest %s)\n", s.Package, st.Current, st.Latest)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolve, "resolve", false, "Print the resolved release version")
	cmd.Flags().StringVar(&check, "check", "", "Compare this version against the latest release")
	return cmd
}
