package pr

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xanzy/go-gitlab"

	prhttp "github.com/randalmurphal/prdeploy/http"
)

// GitLabProvider implements Provider for GitLab repositories.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string // Can be numeric ID or "namespace/project"
}

// NewGitLabProvider creates a new GitLab provider.
// token is a personal access token.
// baseURL is the GitLab instance URL (empty for gitlab.com).
// projectID can be numeric ID or "namespace/project" path.
func NewGitLabProvider(token, baseURL, projectID string) (*GitLabProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var client *gitlab.Client
	var err error

	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}

	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabProvider{
		client:    client,
		projectID: projectID,
	}, nil
}

// NewGitLabProviderFromURL creates a GitLab provider from a remote URL.
// Example: "https://gitlab.com/namespace/project.git"
func NewGitLabProviderFromURL(token, remoteURL string) (*GitLabProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}

	// Extract base URL for self-hosted instances
	var baseURL string
	if !strings.Contains(remoteURL, "gitlab.com") {
		host := strings.TrimPrefix(remoteURL, "https://")
		host = strings.TrimPrefix(host, "http://")
		host = strings.TrimPrefix(host, "git@")
		host, _, _ = strings.Cut(host, "/")
		host, _, _ = strings.Cut(host, ":")
		if host != "" {
			baseURL = "https://" + host
		}
	}

	return NewGitLabProvider(token, baseURL, owner+"/"+repo)
}

// GetPR retrieves a merge request by IID.
func (p *GitLabProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(p.projectID, id, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.wrapError("get MR", resp, err, ErrNotFound)
	}
	return prFromGitLab(mr), nil
}

// AddComment adds a note to a merge request.
func (p *GitLabProvider) AddComment(ctx context.Context, id int, body string) (*Comment, error) {
	note, resp, err := p.client.Notes.CreateMergeRequestNote(p.projectID, id,
		&gitlab.CreateMergeRequestNoteOptions{Body: gitlab.Ptr(body)}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.wrapError("add comment", resp, err, ErrNotFound)
	}
	return commentFromGitLab(note), nil
}

// UpdateComment replaces the body of a merge request note.
func (p *GitLabProvider) UpdateComment(ctx context.Context, id int, commentID int64, body string) (*Comment, error) {
	note, resp, err := p.client.Notes.UpdateMergeRequestNote(p.projectID, id, int(commentID),
		&gitlab.UpdateMergeRequestNoteOptions{Body: gitlab.Ptr(body)}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.wrapError("update comment", resp, err, ErrCommentNotFound)
	}
	return commentFromGitLab(note), nil
}

// ListComments returns every user note on the merge request, oldest first.
// System notes (label changes, pushes) are skipped.
func (p *GitLabProvider) ListComments(ctx context.Context, id int) ([]*Comment, error) {
	return p.notes(id).All(ctx)
}

// FindComment pages through notes until match returns true.
func (p *GitLabProvider) FindComment(ctx context.Context, id int, match func(*Comment) bool) (*Comment, error) {
	c, ok, err := p.notes(id).Find(ctx, match)
	if err != nil || !ok {
		return nil, err
	}
	return c, nil
}

func (p *GitLabProvider) notes(id int) *prhttp.PageIterator[*Comment] {
	return prhttp.NewPageIterator(func(ctx context.Context, page int) ([]*Comment, int, error) {
		opts := &gitlab.ListMergeRequestNotesOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: commentsPerPage},
			OrderBy:     gitlab.Ptr("created_at"),
			Sort:        gitlab.Ptr("asc"),
		}
		notes, resp, err := p.client.Notes.ListMergeRequestNotes(p.projectID, id, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, 0, p.wrapError("list comments", resp, err, ErrNotFound)
		}
		out := make([]*Comment, 0, len(notes))
		for _, n := range notes {
			if n.System {
				continue
			}
			out = append(out, commentFromGitLab(n))
		}
		return out, resp.NextPage, nil
	})
}

func (p *GitLabProvider) wrapError(op string, resp *gitlab.Response, err error, notFound error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", op, p.projectID, notFound)
		case http.StatusForbidden:
			return fmt.Errorf("%s %s: %w: %v", op, p.projectID, ErrForbidden, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func commentFromGitLab(n *gitlab.Note) *Comment {
	c := &Comment{
		ID:     int64(n.ID),
		Body:   n.Body,
		Author: n.Author.Username,
	}
	if n.CreatedAt != nil {
		c.CreatedAt = *n.CreatedAt
	}
	if n.UpdatedAt != nil {
		c.UpdatedAt = *n.UpdatedAt
	}
	return c
}

// prFromGitLab converts a GitLab MR to our PullRequest type.
func prFromGitLab(mr *gitlab.MergeRequest) *PullRequest {
	result := &PullRequest{
		ID:      mr.IID,
		URL:     mr.WebURL,
		HTMLURL: mr.WebURL,
		Title:   mr.Title,
		Head:    mr.SourceBranch,
		Base:    mr.TargetBranch,
		HeadSHA: mr.SHA,
		Labels:  mr.Labels,
	}

	// Draft detection (title starts with "Draft: " or "WIP:")
	result.Draft = mr.Draft || strings.HasPrefix(mr.Title, "Draft:") ||
		strings.HasPrefix(mr.Title, "WIP:")

	switch mr.State {
	case "opened":
		result.State = StateOpen
	case "merged":
		result.State = StateMerged
	case "closed":
		result.State = StateClosed
	}

	if mr.CreatedAt != nil {
		result.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		result.UpdatedAt = *mr.UpdatedAt
	}
	if mr.MergedAt != nil {
		result.MergedAt = mr.MergedAt
	}

	return result
}
