package pr

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// State represents the state of a pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// Provider is the interface for reading pull requests and managing their
// comments. Implementations exist for GitHub and GitLab.
type Provider interface {
	// GetPR retrieves a pull request by number.
	GetPR(ctx context.Context, id int) (*PullRequest, error)

	// AddComment adds a comment to a pull request.
	AddComment(ctx context.Context, id int, body string) (*Comment, error)

	// ListComments returns every comment on a pull request, oldest first.
	ListComments(ctx context.Context, id int) ([]*Comment, error)

	// UpdateComment replaces the body of an existing comment.
	UpdateComment(ctx context.Context, id int, commentID int64, body string) (*Comment, error)
}

// CommentFinder is implemented by providers that can stop paging once a
// matching comment is found.
type CommentFinder interface {
	FindComment(ctx context.Context, id int, match func(*Comment) bool) (*Comment, error)
}

// PullRequest represents a pull request.
type PullRequest struct {
	ID        int        // PR number/ID
	URL       string     // API URL
	HTMLURL   string     // Web URL
	Title     string     // PR title
	State     State      // Current state
	Draft     bool       // Whether it's a draft
	Head      string     // Source branch
	Base      string     // Target branch
	HeadSHA   string     // Head commit
	HeadRepo  string     // "owner/repo" the head branch lives in
	CreatedAt time.Time  // Creation time
	UpdatedAt time.Time  // Last update time
	MergedAt  *time.Time // Merge time (nil if not merged)
	Labels    []string   // Applied labels
}

// Comment is a top-level pull request comment.
type Comment struct {
	ID        int64
	Body      string
	Author    string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DetectProvider attempts to detect the PR provider from a remote URL.
func DetectProvider(remoteURL string) (string, error) {
	remoteURL = strings.ToLower(remoteURL)

	if strings.Contains(remoteURL, "github") {
		return "github", nil
	}
	if strings.Contains(remoteURL, "gitlab") {
		return "gitlab", nil
	}
	if strings.Contains(remoteURL, "bitbucket") {
		return "bitbucket", nil
	}

	return "", ErrUnknownProvider
}

// ParseRepoFromURL extracts owner and repo from a git remote URL.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	// Handle SSH URLs: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(remoteURL, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		pathParts := strings.Split(path, "/")
		if len(pathParts) != 2 {
			return "", "", fmt.Errorf("invalid repository path")
		}
		return pathParts[0], pathParts[1], nil
	}

	// Handle HTTPS URLs: https://github.com/owner/repo.git
	remoteURL = strings.TrimPrefix(remoteURL, "https://")
	remoteURL = strings.TrimPrefix(remoteURL, "http://")
	remoteURL = strings.TrimSuffix(remoteURL, "/")
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	parts := strings.Split(remoteURL, "/")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid URL format")
	}

	// Last two parts are owner/repo
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// SplitRepository splits "owner/repo".
func SplitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: want owner/repo", repository)
	}
	return owner, repo, nil
}
