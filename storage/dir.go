package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirStore writes objects below a local directory. Used for dry runs.
type DirStore struct {
	root    string
	baseURL string
}

// NewDirStore creates a DirStore. An empty baseURL yields file:// URLs.
func NewDirStore(root, baseURL string) *DirStore {
	return &DirStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Root returns the store directory.
func (s *DirStore) Root() string {
	return s.root
}

// URL returns the URL of key.
func (s *DirStore) URL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	abs, err := filepath.Abs(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		abs = filepath.Join(s.root, filepath.FromSlash(key))
	}
	return "file://" + filepath.ToSlash(abs)
}

// Put copies body to <root>/<key>.
func (s *DirStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (*Object, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(s.root)+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %q escapes store root", ErrInvalidKey, key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create object: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write object: %w", err)
	}

	return &Object{Key: key, URL: s.URL(key), Size: n}, nil
}
