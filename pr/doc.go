// Package pr reads pull requests and manages their comments on GitHub and
// GitLab.
//
// Core types:
//   - Provider: Interface over the forge's pull request and comment APIs
//   - PullRequest: A pull request (merge request on GitLab)
//   - Comment: A top-level conversation comment (note on GitLab)
//
// Implementations:
//   - GitHubProvider: GitHub provider using go-github
//   - GitLabProvider: GitLab provider using go-gitlab
//   - MockProvider: In-memory provider for tests
//
// UpsertComment keeps a single bot comment per pull request by locating a
// previous comment through a marker substring:
//
//	provider, _ := pr.NewGitHubProvider(token, "owner", "repo")
//	body := pr.PreviewComment(deployURL)
//	c, created, err := pr.UpsertComment(ctx, provider, 42, body, pr.DefaultMarker)
package pr
