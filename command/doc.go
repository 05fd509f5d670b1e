// Package command runs external processes for build steps and git queries.
//
// Core types:
//   - Runner: Interface for executing a command
//   - ExecRunner: Runner backed by os/exec
//   - MockRunner: Runner that returns canned output keyed by command line
//   - SequentialMockRunner: Runner that returns canned output in call order
//
// Example usage:
//
//	runner := command.NewExecRunner()
//	res, err := runner.Run(ctx, command.Command{
//	    Dir:  "ui",
//	    Name: "pnpm",
//	    Args: []string{"build"},
//	})
package command
