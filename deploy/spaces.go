package deploy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	prhttp "github.com/randalmurphal/prdeploy/http"
)

// DefaultHubURL is the Hugging Face Hub endpoint.
const DefaultHubURL = "https://huggingface.co"

// MaxFileSize is the largest file sent inline in a commit.
const MaxFileSize = 10 << 20

// ErrFileTooLarge indicates a bundle file exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file too large for inline commit")

// keepFiles are never pruned from an existing Space.
var keepFiles = map[string]bool{".gitattributes": true}

// SpacesConfig configures a SpacesDeployer.
type SpacesConfig struct {
	BaseURL  string // Defaults to DefaultHubURL
	Token    string
	SDK      string // Defaults to "gradio"
	Private  bool
	NoPrune  bool // Keep files in the Space that are absent from the bundle
	Client   *http.Client
	Logger   *slog.Logger
	Hardware string // Optional hardware flavor requested at creation
}

// SpacesDeployer deploys bundles to Hugging Face Spaces.
type SpacesDeployer struct {
	client  *prhttp.Client
	baseURL string
	sdk     string
	private bool
	prune   bool
	hw      string
	logger  *slog.Logger
}

// NewSpacesDeployer creates a deployer. A token is required.
func NewSpacesDeployer(cfg SpacesConfig) (*SpacesDeployer, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHubURL
	}
	if cfg.SDK == "" {
		cfg.SDK = "gradio"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := prhttp.NewClient(prhttp.ClientConfig{
		Client:      cfg.Client,
		BaseURL:     cfg.BaseURL,
		ServiceName: "huggingface",
		Token:       cfg.Token,
		Logger:      cfg.Logger,
	})

	return &SpacesDeployer{
		client:  client,
		baseURL: cfg.BaseURL,
		sdk:     cfg.SDK,
		private: cfg.Private,
		prune:   !cfg.NoPrune,
		hw:      cfg.Hardware,
		logger:  cfg.Logger,
	}, nil
}

// URL returns the public page of a Space.
func (d *SpacesDeployer) URL(t Target) string {
	return SpaceURL(d.baseURL, t)
}

// SpaceURL returns the public page of a Space on the Hub at baseURL.
func SpaceURL(baseURL string, t Target) string {
	if baseURL == "" {
		baseURL = DefaultHubURL
	}
	return baseURL + "/spaces/" + t.ID()
}

type createRepoRequest struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Type         string `json:"type"`
	SDK          string `json:"sdk,omitempty"`
	Private      bool   `json:"private"`
	Hardware     string `json:"hardware,omitempty"`
}

type commitResponse struct {
	CommitOID string `json:"commitOid"`
	CommitURL string `json:"commitUrl"`
}

type treeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Deploy creates the Space if needed and commits every bundle file in a
// single commit.
func (d *SpacesDeployer) Deploy(ctx context.Context, target Target, bundleDir string) (*Deployment, error) {
	if err := ValidateName(target.Name); err != nil {
		return nil, err
	}

	created, err := d.ensureSpace(ctx, target)
	if err != nil {
		return nil, err
	}

	files, err := collectFiles(bundleDir)
	if err != nil {
		return nil, err
	}

	var deleted []string
	if d.prune && !created {
		deleted, err = d.staleFiles(ctx, target, files)
		if err != nil {
			return nil, err
		}
	}

	body, err := commitPayload(bundleDir, files, deleted, "Deploy preview")
	if err != nil {
		return nil, err
	}

	var resp commitResponse
	err = d.client.Send(ctx, prhttp.Request{
		Method:      http.MethodPost,
		Path:        "/api/spaces/" + target.ID() + "/commit/main",
		Body:        body,
		ContentType: "application/x-ndjson",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("commit to %s: %w", target.ID(), err)
	}

	d.logger.Info("preview deployed",
		"space", target.ID(),
		"files", len(files),
		"deleted", len(deleted),
		"commit", resp.CommitOID,
	)

	return &Deployment{
		Target:    target,
		URL:       d.URL(target),
		CommitOID: resp.CommitOID,
		CommitURL: resp.CommitURL,
		Created:   created,
		Files:     len(files),
		Deleted:   len(deleted),
	}, nil
}

// ensureSpace creates the Space, reporting whether it was new.
func (d *SpacesDeployer) ensureSpace(ctx context.Context, target Target) (bool, error) {
	req := createRepoRequest{
		Name:         target.Name,
		Organization: target.Org,
		Type:         "space",
		SDK:          d.sdk,
		Private:      d.private,
		Hardware:     d.hw,
	}
	err := d.client.PostJSON(ctx, "/api/repos/create", req, nil)
	switch {
	case err == nil:
		d.logger.Info("space created", "space", target.ID())
		return true, nil
	case prhttp.IsConflict(err):
		return false, nil
	default:
		return false, fmt.Errorf("create space %s: %w", target.ID(), err)
	}
}

// staleFiles lists files present in the Space but absent from the bundle.
func (d *SpacesDeployer) staleFiles(ctx context.Context, target Target, files []string) ([]string, error) {
	var tree []treeEntry
	err := d.client.GetJSON(ctx, "/api/spaces/"+target.ID()+"/tree/main?recursive=true", &tree)
	if err != nil {
		if prhttp.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list files in %s: %w", target.ID(), err)
	}

	want := make(map[string]bool, len(files))
	for _, f := range files {
		want[f] = true
	}

	var stale []string
	for _, e := range tree {
		if e.Type != "file" || want[e.Path] || keepFiles[e.Path] {
			continue
		}
		stale = append(stale, e.Path)
	}
	sort.Strings(stale)
	return stale, nil
}

// Teardown deletes the Space. A missing Space is not an error.
func (d *SpacesDeployer) Teardown(ctx context.Context, target Target) error {
	err := d.client.DeleteJSON(ctx, "/api/repos/delete", map[string]string{
		"name":         target.Name,
		"organization": target.Org,
		"type":         "space",
	})
	if err != nil && !prhttp.IsNotFound(err) {
		return fmt.Errorf("delete space %s: %w", target.ID(), err)
	}
	d.logger.Info("space deleted", "space", target.ID())
	return nil
}

type ndjsonLine struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type commitHeader struct {
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
}

type commitFile struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
}

type deletedFile struct {
	Path string `json:"path"`
}

// commitPayload builds the NDJSON body for the commit endpoint.
func commitPayload(dir string, files, deleted []string, summary string) ([]byte, error) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	enc := json.NewEncoder(w)

	if err := enc.Encode(ndjsonLine{Key: "header", Value: commitHeader{Summary: summary}}); err != nil {
		return nil, err
	}

	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		if len(data) > MaxFileSize {
			return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, rel, len(data))
		}
		line := ndjsonLine{Key: "file", Value: commitFile{
			Content:  base64.StdEncoding.EncodeToString(data),
			Path:     rel,
			Encoding: "base64",
		}}
		if err := enc.Encode(line); err != nil {
			return nil, err
		}
	}

	for _, rel := range deleted {
		if err := enc.Encode(ndjsonLine{Key: "deletedFile", Value: deletedFile{Path: rel}}); err != nil {
			return nil, err
		}
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			if path != root && e.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk bundle: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("bundle %s is empty", root)
	}
	sort.Strings(files)
	return files, nil
}
