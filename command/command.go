package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single command when Command.Timeout is zero.
const DefaultTimeout = 30 * time.Minute

// Command describes a process invocation.
type Command struct {
	Dir     string            // Working directory (empty = current)
	Name    string            // Executable name or path
	Args    []string          // Arguments
	Env     map[string]string // Extra environment, merged over os.Environ
	Timeout time.Duration     // Zero uses DefaultTimeout
}

// Shell returns a Command that runs script with /bin/sh -c.
func Shell(dir, script string) Command {
	return Command{Dir: dir, Name: "/bin/sh", Args: []string{"-c", script}}
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result captures the outcome of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Output returns trimmed stdout, falling back to stderr when stdout is empty.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	if out := strings.TrimSpace(r.Stdout); out != "" {
		return out
	}
	return strings.TrimSpace(r.Stderr)
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s: exit status %d", e.Cmd, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Cmd, e.ExitCode, lastLines(stderr, 20))
}

// ErrTimeout indicates the command exceeded its timeout.
var ErrTimeout = errors.New("command timed out")

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	defaultTimeout time.Duration
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{defaultTimeout: DefaultTimeout}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: commands come from operator configuration
	cmd := exec.CommandContext(execCtx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		env := os.Environ()
		for k, v := range c.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			res.ExitCode = -1
			return res, fmt.Errorf("%s: %w after %s", c.String(), ErrTimeout, timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, &ExitError{Cmd: c.String(), ExitCode: res.ExitCode, Stderr: res.Stderr}
		}
		return res, fmt.Errorf("run %s: %w", c.String(), err)
	}
	return res, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
