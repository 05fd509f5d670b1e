package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Event names recognized by the gate.
const (
	PullRequest       = "pull_request"
	PullRequestTarget = "pull_request_target"
)

var (
	// ErrNotPullRequestRef indicates a ref that does not name a pull request.
	ErrNotPullRequestRef = errors.New("ref is not a pull request ref")

	// ErrMissingEnv indicates a required CI variable is unset.
	ErrMissingEnv = errors.New("required CI variable not set")
)

// Event is the trigger context of one pipeline execution.
type Event struct {
	Name           string `json:"name"`
	Action         string `json:"action,omitempty"`
	PRNumber       int    `json:"pr_number"`
	BaseRef        string `json:"base_ref,omitempty"`
	HeadSHA        string `json:"head_sha"`
	Repository     string `json:"repository"`
	HeadRepository string `json:"head_repository,omitempty"`
	Ref            string `json:"ref,omitempty"`
}

// payload is the subset of the webhook payload we read.
type payload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest *struct {
		Number int `json:"number"`
		Head   struct {
			SHA  string `json:"sha"`
			Ref  string `json:"ref"`
			Repo *struct {
				FullName string `json:"full_name"`
			} `json:"repo"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
	} `json:"pull_request"`
}

// FromEnv builds an Event from the CI environment.
//
// The payload file named by GITHUB_EVENT_PATH is optional; when present its
// head SHA and PR number take precedence over GITHUB_SHA (the merge commit)
// and the number parsed from GITHUB_REF.
func FromEnv(getenv func(string) string) (*Event, error) {
	ev := &Event{
		Name:       getenv("GITHUB_EVENT_NAME"),
		Ref:        getenv("GITHUB_REF"),
		HeadSHA:    getenv("GITHUB_SHA"),
		Repository: getenv("GITHUB_REPOSITORY"),
		BaseRef:    getenv("GITHUB_BASE_REF"),
	}
	if ev.Name == "" {
		return nil, fmt.Errorf("%w: GITHUB_EVENT_NAME", ErrMissingEnv)
	}
	if ev.Repository == "" {
		return nil, fmt.Errorf("%w: GITHUB_REPOSITORY", ErrMissingEnv)
	}

	if n, err := PRNumberFromRef(ev.Ref); err == nil {
		ev.PRNumber = n
	}

	hasPR := false
	if path := getenv("GITHUB_EVENT_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read event payload: %w", err)
		}
		if hasPR, err = ev.applyPayload(data); err != nil {
			return nil, err
		}
	}

	// Without a pull_request object there is no head repository to compare.
	// A PR whose head.repo is null (deleted fork) keeps it empty.
	if !hasPR && ev.HeadRepository == "" {
		ev.HeadRepository = ev.Repository
	}

	return ev, nil
}

// applyPayload reports whether the payload carried a pull_request object.
func (e *Event) applyPayload(data []byte) (bool, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, fmt.Errorf("parse event payload: %w", err)
	}

	e.Action = p.Action
	if p.Number > 0 {
		e.PRNumber = p.Number
	}
	if pr := p.PullRequest; pr != nil {
		if pr.Number > 0 {
			e.PRNumber = pr.Number
		}
		if pr.Head.SHA != "" {
			e.HeadSHA = pr.Head.SHA
		}
		if pr.Base.Ref != "" {
			e.BaseRef = pr.Base.Ref
		}
		if pr.Head.Repo != nil {
			e.HeadRepository = pr.Head.Repo.FullName
		}
	}
	return p.PullRequest != nil, nil
}

// PRNumberFromRef extracts N from "refs/pull/N/merge" (or ".../head").
func PRNumberFromRef(ref string) (int, error) {
	parts := strings.Split(ref, "/")
	if len(parts) < 4 || parts[0] != "refs" || parts[1] != "pull" {
		return 0, fmt.Errorf("%w: %q", ErrNotPullRequestRef, ref)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotPullRequestRef, ref)
	}
	return n, nil
}

// IsPullRequest reports whether the event was triggered by a pull request.
func (e *Event) IsPullRequest() bool {
	return e.Name == PullRequest || e.Name == PullRequestTarget
}

// IsFork reports whether the PR head lives in a different repository.
// An unknown head repository counts as a fork.
func (e *Event) IsFork() bool {
	if e.HeadRepository == "" {
		return true
	}
	return !strings.EqualFold(e.HeadRepository, e.Repository)
}

// Owner returns the owner part of Repository.
func (e *Event) Owner() string {
	owner, _, _ := strings.Cut(e.Repository, "/")
	return owner
}

// Repo returns the repository name part of Repository.
func (e *Event) Repo() string {
	_, repo, _ := strings.Cut(e.Repository, "/")
	return repo
}

// ShortSHA returns the first seven characters of HeadSHA.
func (e *Event) ShortSHA() string {
	if len(e.HeadSHA) > 7 {
		return e.HeadSHA[:7]
	}
	return e.HeadSHA
}
