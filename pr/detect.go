package pr

import (
	"fmt"
	"net/url"
	"os"
)

// ProviderFromEnv creates a provider based on remote URL and environment.
// Automatically detects GitHub vs GitLab and uses appropriate token env var.
//
// Environment variables checked:
//   - GITHUB_TOKEN for GitHub
//   - GITLAB_TOKEN for GitLab
//   - GIT_TOKEN as fallback for either
//
// Example:
//
//	remoteURL, _ := gitCtx.GetRemoteURL(ctx, "origin")
//	provider, err := pr.ProviderFromEnv(remoteURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, _, err = pr.UpsertComment(ctx, provider, 42, body, pr.DefaultMarker)
func ProviderFromEnv(remoteURL string) (Provider, error) {
	platform, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}

	token, err := TokenFromEnv(platform, os.Getenv)
	if err != nil {
		return nil, err
	}
	return ProviderFromEnvWithToken(remoteURL, token)
}

// TokenFromEnv returns the forge token for platform.
func TokenFromEnv(platform string, getenv func(string) string) (string, error) {
	var primary string
	switch platform {
	case "github":
		primary = "GITHUB_TOKEN"
	case "gitlab":
		primary = "GITLAB_TOKEN"
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, platform)
	}

	token := getenv(primary)
	if token == "" {
		token = getenv("GIT_TOKEN")
	}
	if token == "" {
		return "", fmt.Errorf("%s or GIT_TOKEN not set; set one of these environment variables with a valid access token", primary)
	}
	return token, nil
}

// ProviderFromEnvWithToken creates a provider with an explicit token.
// Use this when you have the token from configuration rather than environment.
func ProviderFromEnvWithToken(remoteURL, token string) (Provider, error) {
	platform, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}

	switch platform {
	case "github":
		return NewGitHubProviderFromURL(token, remoteURL)
	case "gitlab":
		return NewGitLabProviderFromURL(token, remoteURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, platform)
	}
}

// ProviderForRepository creates a provider for "owner/repo" on platform.
// apiURL selects a self-hosted instance; empty or the public API host uses
// the public service.
func ProviderForRepository(platform, token, repository, apiURL string) (Provider, error) {
	switch platform {
	case "github", "":
		owner, repo, err := SplitRepository(repository)
		if err != nil {
			return nil, err
		}
		if apiURL == "" {
			return NewGitHubProvider(token, owner, repo)
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parse GitHub API URL: %w", err)
		}
		if IsGitHubHost(u.Host) {
			return NewGitHubProvider(token, owner, repo)
		}
		return NewGitHubEnterpriseProvider(token, apiURL, owner, repo)
	case "gitlab":
		return NewGitLabProvider(token, apiURL, repository)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, platform)
	}
}
