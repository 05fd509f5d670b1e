package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/prdeploy/command"
)

func TestWheelName(t *testing.T) {
	tests := []struct {
		pkg, version, want string
	}{
		{"gradio", "4.36.1", "gradio-4.36.1-py3-none-any.whl"},
		{"gradio-client", "1.0.0", "gradio_client-1.0.0-py3-none-any.whl"},
		{"Some.Pkg", "0.1.0", "some_pkg-0.1.0-py3-none-any.whl"},
	}
	for _, tt := range tests {
		if got := WheelName(tt.pkg, tt.version); got != tt.want {
			t.Errorf("WheelName(%q, %q) = %q, want %q", tt.pkg, tt.version, got, tt.want)
		}
	}
}

func TestFindWheel(t *testing.T) {
	dir := t.TempDir()
	name := WheelName("gradio", "4.36.1")
	if err := os.WriteFile(filepath.Join(dir, name), []byte("wheel"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A neighbour with another version must not match.
	_ = os.WriteFile(filepath.Join(dir, WheelName("gradio", "4.36.0")), []byte("old"), 0o644)

	art, err := FindWheel(dir, "gradio", "4.36.1")
	if err != nil {
		t.Fatalf("FindWheel: %v", err)
	}
	if art.Name != name || art.Size != 5 {
		t.Errorf("artifact = %+v", art)
	}
	sum := sha256.Sum256([]byte("wheel"))
	if art.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("SHA256 = %q", art.SHA256)
	}

	if _, err := FindWheel(dir, "gradio", "9.9.9"); !errors.Is(err, ErrWheelNotFound) {
		t.Errorf("missing wheel error = %v", err)
	}
}

func TestBuilderRun(t *testing.T) {
	root := "/repo"

	t.Run("runs steps in order", func(t *testing.T) {
		runner := command.NewMockRunner()
		b := NewBuilder(runner, root)

		results, err := b.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("got %d results, want 3", len(results))
		}
		if len(runner.Calls) != 3 {
			t.Fatalf("got %d calls, want 3", len(runner.Calls))
		}
		if runner.Calls[0].Dir != filepath.Join(root, "ui") {
			t.Errorf("first step dir = %q", runner.Calls[0].Dir)
		}
		if runner.Calls[2].Dir != root {
			t.Errorf("wheel step dir = %q", runner.Calls[2].Dir)
		}
		if runner.Calls[1].Timeout != DefaultStepTimeout {
			t.Errorf("timeout = %v", runner.Calls[1].Timeout)
		}
	})

	t.Run("stops at first failure", func(t *testing.T) {
		runner := command.NewSequentialMockRunner()
		runner.AddOutput("installed", nil)
		runner.AddOutput("", &command.ExitError{Cmd: "pnpm build", ExitCode: 1})

		b := NewBuilder(runner, root)
		results, err := b.Run(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		var exitErr *command.ExitError
		if !errors.As(err, &exitErr) {
			t.Errorf("error should wrap ExitError: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("got %d results, want 2", len(results))
		}
	})

	t.Run("custom steps", func(t *testing.T) {
		runner := command.NewMockRunner()
		b := NewBuilder(runner, root, WithSteps([]Step{{Name: "only", Command: "make wheel"}}))
		if _, err := b.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(runner.Calls) != 1 {
			t.Errorf("got %d calls", len(runner.Calls))
		}
	})
}
