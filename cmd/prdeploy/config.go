package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/prdeploy/config"
	clierrors "github.com/randalmurphal/prdeploy/errors"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigGetCommand(a), newConfigListCommand(a), newConfigSetCommand(a))
	return cmd
}

func (a *app) resolved() (*config.Resolved, error) {
	flags, err := a.flagOverrides()
	if err != nil {
		return nil, err
	}
	r := a.newResolver(a.getenv)
	if err := r.CheckFlags(flags); err != nil {
		return nil, &usageError{err: err}
	}
	return r.ResolveWithFlags(flags), nil
}

func newConfigGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the resolved value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(config.Keys(), args[0]) {
				return usagef("unknown config key %q", args[0])
			}
			c, err := a.resolved()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, c.Get(args[0]))
			return nil
		},
	}
}

func newConfigListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every key with its value and source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.resolved()
			if err != nil {
				return err
			}
			for _, key := range config.Keys() {
				value, source := c.GetWithSource(key)
				fmt.Fprintf(a.stdout, "%s=%s (%s)\n", key, value, source)
			}
			return nil
		},
	}
}

func newConfigSetCommand(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a key to the local or global config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			save := config.AppSaveConfig()
			if global {
				if err := save.SaveGlobal(args[0], args[1]); err != nil {
					return &usageError{err: err}
				}
				path, _ := save.GlobalPath()
				fmt.Fprintf(a.stdout, "Set %s in %s\n", args[0], path)
				return nil
			}

			root := a.newResolver(a.getenv).GitRoot()
			if root == "" {
				return clierrors.NewNotInGitRepoError()
			}
			if err := save.SaveLocal(root, args[0], args[1]); err != nil {
				return &usageError{err: err}
			}
			fmt.Fprintf(a.stdout, "Set %s in %s\n", args[0], config.LocalConfigName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Write to ~/.config/prdeploy/config.yaml")
	return cmd
}
