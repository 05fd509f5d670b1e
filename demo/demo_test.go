package demo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeDemo(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, name, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeDemo(t, root, "hello_world", map[string]string{
		"run.py": "import gradio as gr\ndemo = gr.Interface(lambda x: x, 'text', 'text')\n",
	})
	writeDemo(t, root, "image_classifier", map[string]string{
		"run.py":            "demo = None\n",
		"requirements.txt":  "torch\n# comment\ngradio==3.0\nnumpy  # pinned elsewhere\n",
		"files/cat.jpg":     "jpg",
		"__pycache__/x.pyc": "junk",
	})
	writeDemo(t, root, "sentiment", map[string]string{
		"run.py":           "demo = None\n",
		"requirements.txt": "numpy\ntransformers\n",
	})
	writeDemo(t, root, "no_entry", map[string]string{"README.md": "not a demo"})
	writeDemo(t, root, "_internal", map[string]string{"run.py": ""})
	writeDemo(t, root, ".hidden", map[string]string{"run.py": ""})
	return root
}

func names(demos []Demo) []string {
	out := make([]string, len(demos))
	for i, d := range demos {
		out[i] = d.Name
	}
	return out
}

func TestDiscover(t *testing.T) {
	root := fixture(t)

	tests := []struct {
		name string
		opts []AssemblerOption
		want []string
	}{
		{"all", nil, []string{"hello_world", "image_classifier", "sentiment"}},
		{"include", []AssemblerOption{WithInclude("sentiment", "no_entry")}, []string{"sentiment"}},
		{"exclude", []AssemblerOption{WithExclude("image_classifier")}, []string{"hello_world", "sentiment"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			demos, err := NewAssembler(root, tt.opts...).Discover()
			if err != nil {
				t.Fatalf("Discover: %v", err)
			}
			if got := names(demos); !slices.Equal(got, tt.want) {
				t.Errorf("Discover() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"hello_world":        "Hello World",
		"image-classifier":   "Image Classifier",
		"blocks__kinematics": "Blocks Kinematics",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeRequirements(t *testing.T) {
	root := fixture(t)
	demos, err := NewAssembler(root).Discover()
	if err != nil {
		t.Fatal(err)
	}

	wheel := "https://gradio-builds.s3.amazonaws.com/sha/gradio-4.36.1-py3-none-any.whl"
	got, err := MergeRequirements("gradio", wheel, demos)
	if err != nil {
		t.Fatalf("MergeRequirements: %v", err)
	}
	want := []string{wheel, "torch", "numpy", "transformers"}
	if !slices.Equal(got, want) {
		t.Errorf("MergeRequirements() = %v, want %v", got, want)
	}
}

func TestAssemble(t *testing.T) {
	root := fixture(t)
	staging := t.TempDir()
	wheel := "https://gradio-builds.s3.amazonaws.com/abc/gradio-4.36.1-py3-none-any.whl"

	a := NewAssembler(root, WithWorkers(2))
	bundle, err := a.Assemble(context.Background(), staging, Options{
		Package:  "gradio",
		Version:  "4.36.1",
		WheelURL: wheel,
		SHA:      "abc",
		PRNumber: 42,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(bundle.Demos) != 3 {
		t.Errorf("got %d demos, want 3", len(bundle.Demos))
	}

	reqs, err := os.ReadFile(filepath.Join(staging, "requirements.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if first, _, _ := strings.Cut(string(reqs), "\n"); first != wheel {
		t.Errorf("first requirement = %q, want wheel URL", first)
	}

	app, err := os.ReadFile(filepath.Join(staging, "app.py"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(app), `("image_classifier", "Image Classifier")`) {
		t.Errorf("app.py missing demo entry:\n%s", app)
	}

	readme, err := os.ReadFile(filepath.Join(staging, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"sdk: gradio", "sdk_version: 4.36.1", "title: PR 42 All Demos", "app_file: app.py"} {
		if !strings.Contains(string(readme), want) {
			t.Errorf("README.md missing %q", want)
		}
	}

	if !slices.Contains(bundle.Files, "demos/image_classifier/files/cat.jpg") {
		t.Errorf("nested demo file not copied: %v", bundle.Files)
	}
	if slices.Contains(bundle.Files, "demos/image_classifier/__pycache__/x.pyc") {
		t.Error("__pycache__ should be skipped")
	}
}

func TestAssembleNoDemos(t *testing.T) {
	root := t.TempDir()
	_, err := NewAssembler(root).Assemble(context.Background(), t.TempDir(), Options{WheelURL: "https://x/w.whl"})
	if !errors.Is(err, ErrNoDemos) {
		t.Errorf("error = %v, want ErrNoDemos", err)
	}
}

func TestLoaderOverride(t *testing.T) {
	project := t.TempDir()
	dir := filepath.Join(project, ".prdeploy", "templates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.py.tmpl"), []byte("custom {{ len .Demos }}"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(project)
	got, err := l.Render("app.py", templateData{Demos: []Demo{{Name: "a"}}})
	if err != nil {
		t.Fatal(err)
	}
	if got != "custom 1" {
		t.Errorf("Render = %q", got)
	}
	if !l.Exists("README.md") {
		t.Error("embedded README.md template should exist")
	}
	if l.Exists("missing") {
		t.Error("missing template should not exist")
	}
}

func TestAssembleSpaceSDK(t *testing.T) {
	staging := t.TempDir()
	_, err := NewAssembler(fixture(t)).Assemble(context.Background(), staging, Options{
		Package:  "gradio",
		Version:  "4.36.1",
		WheelURL: "https://example.com/gradio-4.36.1-py3-none-any.whl",
		PRNumber: 7,
		SDK:      "docker",
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	readme, err := os.ReadFile(filepath.Join(staging, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(readme), "sdk: docker\n") {
		t.Errorf("README.md should use the configured SDK:\n%s", readme)
	}
}
