package pr

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	prhttp "github.com/randalmurphal/prdeploy/http"
)

// commentsPerPage is the page size used when scanning comments.
const commentsPerPage = 100

// GitHubProvider implements Provider for GitHub repositories.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubProvider creates a new GitHub provider.
// token is a personal access token, the Actions GITHUB_TOKEN or a GitHub
// App installation token.
// owner and repo identify the repository (e.g., "gradio-app", "gradio").
func NewGitHubProvider(token, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return NewGitHubProviderWithClient(github.NewClient(tc), owner, repo)
}

// NewGitHubEnterpriseProvider creates a provider for a GitHub Enterprise
// API endpoint such as "https://ghe.example.com/api/v3/".
func NewGitHubEnterpriseProvider(token, apiURL, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	client, err := github.NewClient(tc).WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("configure GitHub Enterprise URL: %w", err)
	}
	return NewGitHubProviderWithClient(client, owner, repo)
}

// NewGitHubProviderWithClient wraps an existing go-github client.
func NewGitHubProviderWithClient(client *github.Client, owner, repo string) (*GitHubProvider, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}
	return &GitHubProvider{client: client, owner: owner, repo: repo}, nil
}

// NewGitHubProviderFromURL creates a GitHub provider from a remote URL.
// Example: "https://github.com/gradio-app/gradio.git"
func NewGitHubProviderFromURL(token, remoteURL string) (*GitHubProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubProvider(token, owner, repo)
}

// GetPR retrieves a pull request by number.
func (p *GitHubProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	pull, resp, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, id)
	if err != nil {
		return nil, p.wrapError("get PR", resp, err, ErrNotFound)
	}
	return prFromGitHub(pull), nil
}

// AddComment adds a comment to a pull request.
func (p *GitHubProvider) AddComment(ctx context.Context, id int, body string) (*Comment, error) {
	c, resp, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, id,
		&github.IssueComment{Body: github.String(body)})
	if err != nil {
		return nil, p.wrapError("add comment", resp, err, ErrNotFound)
	}
	return commentFromGitHub(c), nil
}

// UpdateComment replaces a comment body. GitHub addresses comments by ID
// alone, so id is unused.
func (p *GitHubProvider) UpdateComment(ctx context.Context, _ int, commentID int64, body string) (*Comment, error) {
	c, resp, err := p.client.Issues.EditComment(ctx, p.owner, p.repo, commentID,
		&github.IssueComment{Body: github.String(body)})
	if err != nil {
		return nil, p.wrapError("update comment", resp, err, ErrCommentNotFound)
	}
	return commentFromGitHub(c), nil
}

// ListComments returns every comment on the pull request.
func (p *GitHubProvider) ListComments(ctx context.Context, id int) ([]*Comment, error) {
	return p.comments(id).All(ctx)
}

// FindComment pages through comments until match returns true.
// It returns nil when nothing matches.
func (p *GitHubProvider) FindComment(ctx context.Context, id int, match func(*Comment) bool) (*Comment, error) {
	c, ok, err := p.comments(id).Find(ctx, match)
	if err != nil || !ok {
		return nil, err
	}
	return c, nil
}

func (p *GitHubProvider) comments(id int) *prhttp.PageIterator[*Comment] {
	return prhttp.NewPageIterator(func(ctx context.Context, page int) ([]*Comment, int, error) {
		opts := &github.IssueListCommentsOptions{
			ListOptions: github.ListOptions{Page: page, PerPage: commentsPerPage},
		}
		list, resp, err := p.client.Issues.ListComments(ctx, p.owner, p.repo, id, opts)
		if err != nil {
			return nil, 0, p.wrapError("list comments", resp, err, ErrNotFound)
		}
		out := make([]*Comment, len(list))
		for i, c := range list {
			out[i] = commentFromGitHub(c)
		}
		return out, resp.NextPage, nil
	})
}

func (p *GitHubProvider) wrapError(op string, resp *github.Response, err error, notFound error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s %s/%s: %w", op, p.owner, p.repo, notFound)
		case http.StatusForbidden:
			return fmt.Errorf("%s %s/%s: %w: %v", op, p.owner, p.repo, ErrForbidden, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func commentFromGitHub(c *github.IssueComment) *Comment {
	return &Comment{
		ID:        c.GetID(),
		Body:      c.GetBody(),
		Author:    c.GetUser().GetLogin(),
		URL:       c.GetHTMLURL(),
		CreatedAt: c.GetCreatedAt().Time,
		UpdatedAt: c.GetUpdatedAt().Time,
	}
}

// prFromGitHub converts a GitHub PR to our PullRequest type.
func prFromGitHub(pr *github.PullRequest) *PullRequest {
	result := &PullRequest{
		ID:      pr.GetNumber(),
		URL:     pr.GetURL(),
		HTMLURL: pr.GetHTMLURL(),
		Title:   pr.GetTitle(),
		Draft:   pr.GetDraft(),
	}

	switch pr.GetState() {
	case "open":
		result.State = StateOpen
	case "closed":
		if pr.GetMerged() {
			result.State = StateMerged
		} else {
			result.State = StateClosed
		}
	}

	if pr.Head != nil {
		result.Head = pr.Head.GetRef()
		result.HeadSHA = pr.Head.GetSHA()
		result.HeadRepo = pr.Head.GetRepo().GetFullName()
	}
	if pr.Base != nil {
		result.Base = pr.Base.GetRef()
	}

	if pr.CreatedAt != nil {
		result.CreatedAt = pr.CreatedAt.Time
	}
	if pr.UpdatedAt != nil {
		result.UpdatedAt = pr.UpdatedAt.Time
	}
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		result.MergedAt = &t
	}

	for _, label := range pr.Labels {
		result.Labels = append(result.Labels, label.GetName())
	}

	return result
}

// IsGitHubHost reports whether host looks like github.com.
func IsGitHubHost(host string) bool {
	return strings.EqualFold(host, "github.com") || strings.EqualFold(host, "api.github.com")
}
