// Package git reads repository facts needed by a preview run when CI
// environment variables are absent: HEAD commit, branch, remote URL and
// working tree cleanliness.
//
// Core types:
//   - Context: Repository handle backed by a command.Runner
//   - Error: Wraps a failed git invocation with its operation name
//
// Example usage:
//
//	gitCtx, err := git.NewContext(ctx, ".")
//	sha, err := gitCtx.HeadCommit(ctx)
package git
