package pr

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider is an in-memory Provider for testing.
// Set a Func field to override the default behavior of that method.
type MockProvider struct {
	GetPRFunc         func(ctx context.Context, id int) (*PullRequest, error)
	AddCommentFunc    func(ctx context.Context, id int, body string) (*Comment, error)
	ListCommentsFunc  func(ctx context.Context, id int) ([]*Comment, error)
	UpdateCommentFunc func(ctx context.Context, id int, commentID int64, body string) (*Comment, error)

	mu       sync.Mutex
	comments map[int][]*Comment
	nextID   int64
}

// Seed adds existing comments to a pull request.
func (m *MockProvider) Seed(id int, bodies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range bodies {
		m.addLocked(id, b)
	}
}

// Comments returns a snapshot of the comments on a pull request.
func (m *MockProvider) Comments(id int) []Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Comment, len(m.comments[id]))
	for i, c := range m.comments[id] {
		out[i] = *c
	}
	return out
}

func (m *MockProvider) addLocked(id int, body string) *Comment {
	if m.comments == nil {
		m.comments = make(map[int][]*Comment)
	}
	m.nextID++
	now := time.Now()
	c := &Comment{
		ID:        m.nextID,
		Body:      body,
		Author:    "mock",
		URL:       fmt.Sprintf("https://example.com/pr/%d#comment-%d", id, m.nextID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.comments[id] = append(m.comments[id], c)
	return c
}

// GetPR implements Provider.
func (m *MockProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	if m.GetPRFunc != nil {
		return m.GetPRFunc(ctx, id)
	}
	return &PullRequest{ID: id, State: StateOpen}, nil
}

// AddComment implements Provider.
func (m *MockProvider) AddComment(ctx context.Context, id int, body string) (*Comment, error) {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, id, body)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *m.addLocked(id, body)
	return &c, nil
}

// ListComments implements Provider.
func (m *MockProvider) ListComments(ctx context.Context, id int) ([]*Comment, error) {
	if m.ListCommentsFunc != nil {
		return m.ListCommentsFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Comment, len(m.comments[id]))
	for i, c := range m.comments[id] {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

// UpdateComment implements Provider.
func (m *MockProvider) UpdateComment(ctx context.Context, id int, commentID int64, body string) (*Comment, error) {
	if m.UpdateCommentFunc != nil {
		return m.UpdateCommentFunc(ctx, id, commentID, body)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.comments[id] {
		if c.ID == commentID {
			c.Body = body
			c.UpdatedAt = time.Now()
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCommentNotFound
}
