package pr

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMarker identifies the preview comment. It is the fixed prefix of
// the comment body, so older comments are found even when the URL changes.
const DefaultMarker = "All the demos for this PR have been deployed at"

// PreviewComment returns the default preview comment body for url.
func PreviewComment(url string) string {
	return DefaultMarker + " " + url
}

// UpsertComment updates the first comment containing marker, or creates a
// new comment when none matches. An existing comment whose body already
// equals body is left untouched. The bool result reports creation.
func UpsertComment(ctx context.Context, p Provider, id int, body, marker string) (*Comment, bool, error) {
	if marker == "" {
		return nil, false, fmt.Errorf("upsert comment: marker is required")
	}
	if !strings.Contains(body, marker) {
		// A body without its marker would never be found again.
		return nil, false, fmt.Errorf("upsert comment: body does not contain marker %q", marker)
	}

	existing, err := findComment(ctx, p, id, func(c *Comment) bool {
		return strings.Contains(c.Body, marker)
	})
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		c, err := p.AddComment(ctx, id, body)
		if err != nil {
			return nil, false, err
		}
		return c, true, nil
	}

	if existing.Body == body {
		return existing, false, nil
	}

	c, err := p.UpdateComment(ctx, id, existing.ID, body)
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}

func findComment(ctx context.Context, p Provider, id int, match func(*Comment) bool) (*Comment, error) {
	if f, ok := p.(CommentFinder); ok {
		return f.FindComment(ctx, id, match)
	}
	comments, err := p.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if match(c) {
			return c, nil
		}
	}
	return nil, nil
}
