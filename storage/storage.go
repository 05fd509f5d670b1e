package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/randalmurphal/prdeploy/build"
)

// ErrInvalidKey indicates an empty key component.
var ErrInvalidKey = errors.New("invalid object key")

// Object describes a stored object.
type Object struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	ETag string `json:"etag,omitempty"`
}

// Store persists objects and reports their public URL.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error)
	URL(key string) string
}

// Key returns "<sha>/<name>".
func Key(sha, name string) (string, error) {
	sha = strings.Trim(sha, "/")
	name = strings.Trim(name, "/")
	if sha == "" {
		return "", fmt.Errorf("%w: empty sha", ErrInvalidKey)
	}
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidKey)
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: name %q contains a slash", ErrInvalidKey, name)
	}
	return sha + "/" + name, nil
}

// WheelContentType is the media type used for uploaded wheels.
const WheelContentType = "application/zip"

// Publish uploads art under Key(sha, art.Name) with a single Put.
func Publish(ctx context.Context, store Store, sha string, art *build.Artifact) (*Object, error) {
	key, err := Key(sha, art.Name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(art.Path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	obj, err := store.Put(ctx, key, f, art.Size, WheelContentType)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return obj, nil
}
