// Package testutil provides fixtures shared by prdeploy tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/prdeploy/build"
	"github.com/randalmurphal/prdeploy/event"
)

// Fixed values used by Project and PullRequestEvent.
const (
	Package    = "gradio"
	Version    = "4.2.0"
	SHA        = "3f1c2a9b7d5e4f60718293a4b5c6d7e8f9012345"
	Repository = "gradio-app/gradio"
	PRNumber   = 42
)

// WriteFiles writes files (slash-separated paths) under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// Project is a checkout laid out the way the pipeline expects.
type Project struct {
	Root        string
	VersionFile string
	DistDir     string
	DemoDir     string
}

// Wheel returns the path of the prebuilt wheel.
func (p *Project) Wheel() string {
	return filepath.Join(p.DistDir, build.WheelName(Package, Version))
}

// SetupProject creates a checkout with a version file, a prebuilt wheel
// in dist/ and two demos.
func SetupProject(t *testing.T) *Project {
	t.Helper()

	root := t.TempDir()
	WriteFiles(t, root, map[string]string{
		"gradio/version.txt":                        Version + "\n",
		"dist/" + build.WheelName(Package, Version): "wheel-bytes",
		"demo/hello_world/run.py":                   "import gradio as gr\n",
		"demo/sentiment/run.py":                     "demo = None\n",
		"demo/sentiment/requirements.txt":           "transformers\n",
	})

	return &Project{
		Root:        root,
		VersionFile: filepath.Join(root, "gradio", "version.txt"),
		DistDir:     filepath.Join(root, "dist"),
		DemoDir:     filepath.Join(root, "demo"),
	}
}

// PullRequestEvent returns a same-repository synchronize event for main.
func PullRequestEvent() event.Event {
	return event.Event{
		Name:           event.PullRequest,
		Action:         "synchronize",
		PRNumber:       PRNumber,
		BaseRef:        "main",
		HeadSHA:        SHA,
		Repository:     Repository,
		HeadRepository: Repository,
		Ref:            "refs/pull/42/merge",
	}
}
