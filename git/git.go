package git

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/randalmurphal/prdeploy/command"
)

var shaPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Context runs read-only git queries against a repository.
type Context struct {
	repoPath string
	runner   command.Runner
}

// Option configures Context.
type Option func(*Context)

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner command.Runner) Option {
	return func(g *Context) {
		g.runner = runner
	}
}

// NewContext creates a git context for the repository at repoPath.
// It verifies the path is inside a work tree.
func NewContext(ctx context.Context, repoPath string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	g := &Context{
		repoPath: absPath,
		runner:   command.NewExecRunner(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if _, err := g.runGit(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, ErrNotGitRepo
	}
	return g, nil
}

// RepoPath returns the repository path.
func (g *Context) RepoPath() string {
	return g.repoPath
}

// TopLevel returns the absolute path of the work tree root.
func (g *Context) TopLevel(ctx context.Context) (string, error) {
	dir, err := g.runGit(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", &Error{Op: "get top level", Err: err}
	}
	return dir, nil
}

// HeadCommit returns the full HEAD commit SHA.
func (g *Context) HeadCommit(ctx context.Context) (string, error) {
	sha, err := g.runGit(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Err: err}
	}
	if !shaPattern.MatchString(sha) {
		return "", &Error{Op: "get HEAD commit", Output: sha, Err: fmt.Errorf("unexpected rev-parse output")}
	}
	return sha, nil
}

// CurrentBranch returns the current branch name.
// Returns ErrDetachedHead when HEAD is not on a branch.
func (g *Context) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := g.runGit(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Err: err}
	}
	if branch == "HEAD" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// GetRemoteURL returns the URL of the specified remote.
func (g *Context) GetRemoteURL(ctx context.Context, remote string) (string, error) {
	url, err := g.runGit(ctx, "remote", "get-url", remote)
	if err != nil {
		if strings.Contains(err.Error(), "No such remote") {
			return "", fmt.Errorf("%w: %s", ErrNoRemote, remote)
		}
		return "", &Error{Op: "get remote URL", Err: err}
	}
	return url, nil
}

// Status returns the working tree status in short format.
func (g *Context) Status(ctx context.Context) (string, error) {
	status, err := g.runGit(ctx, "status", "--short")
	if err != nil {
		return "", &Error{Op: "status", Err: err}
	}
	return status, nil
}

// IsClean returns true if the working tree has no uncommitted changes.
func (g *Context) IsClean(ctx context.Context) (bool, error) {
	status, err := g.Status(ctx)
	if err != nil {
		return false, err
	}
	return status == "", nil
}

// runGit executes a git command in the repository and returns trimmed stdout.
func (g *Context) runGit(ctx context.Context, args ...string) (string, error) {
	res, err := g.runner.Run(ctx, command.Command{
		Dir:  g.repoPath,
		Name: "git",
		Args: args,
	})
	if err != nil {
		return res.Output(), err
	}
	return strings.TrimSpace(res.Stdout), nil
}
