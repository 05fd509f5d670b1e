package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/randalmurphal/prdeploy/command"
)

// ErrWheelNotFound indicates the expected wheel was not produced.
var ErrWheelNotFound = errors.New("wheel not found")

// DefaultStepTimeout bounds a single build step.
const DefaultStepTimeout = 20 * time.Minute

// Step is one shell command in the build.
type Step struct {
	Name    string `yaml:"name" json:"name"`
	Dir     string `yaml:"dir,omitempty" json:"dir,omitempty"` // Relative to the repo root
	Command string `yaml:"command" json:"command"`
}

// DefaultSteps builds the frontend then the wheel.
func DefaultSteps() []Step {
	return []Step{
		{Name: "install-ui", Dir: "ui", Command: "pnpm i --frozen-lockfile"},
		{Name: "build-ui", Dir: "ui", Command: "pnpm build"},
		{Name: "build-wheel", Command: "python3 -m build -w"},
	}
}

// StepResult records one executed step.
type StepResult struct {
	Name     string        `json:"name"`
	Command  string        `json:"command"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
}

// Builder executes build steps in order, stopping at the first failure.
type Builder struct {
	runner  command.Runner
	root    string
	steps   []Step
	timeout time.Duration
	env     map[string]string
	logger  *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithSteps replaces DefaultSteps.
func WithSteps(steps []Step) Option {
	return func(b *Builder) { b.steps = steps }
}

// WithStepTimeout sets the per-step timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(b *Builder) { b.timeout = d }
}

// WithEnv adds environment variables to every step.
func WithEnv(env map[string]string) Option {
	return func(b *Builder) { b.env = env }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder rooted at the repository root.
func NewBuilder(runner command.Runner, root string, opts ...Option) *Builder {
	b := &Builder{
		runner:  runner,
		root:    root,
		steps:   DefaultSteps(),
		timeout: DefaultStepTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Steps returns the configured steps.
func (b *Builder) Steps() []Step {
	return b.steps
}

// Run executes every step. Results for completed steps are returned even
// on failure.
func (b *Builder) Run(ctx context.Context) ([]StepResult, error) {
	results := make([]StepResult, 0, len(b.steps))
	for _, step := range b.steps {
		dir := b.root
		if step.Dir != "" {
			dir = filepath.Join(b.root, step.Dir)
		}

		b.logger.Info("build step started", "step", step.Name, "dir", dir, "command", step.Command)

		cmd := command.Shell(dir, step.Command)
		cmd.Timeout = b.timeout
		cmd.Env = b.env

		res, err := b.runner.Run(ctx, cmd)
		sr := StepResult{Name: step.Name, Command: step.Command}
		if res != nil {
			sr.Duration = res.Duration
			sr.Output = res.Output()
		}
		results = append(results, sr)

		if err != nil {
			b.logger.Error("build step failed", "step", step.Name, "error", err)
			return results, fmt.Errorf("build step %s: %w", step.Name, err)
		}
		b.logger.Info("build step finished", "step", step.Name, "duration", sr.Duration)
	}
	return results, nil
}

// Artifact is a built file ready for upload.
type Artifact struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

var nonAlnum = regexp.MustCompile(`[-_.]+`)

// WheelName returns the pure-Python wheel filename for pkg at version.
// Runs of "-", "_" and "." in the distribution name collapse to "_".
func WheelName(pkg, version string) string {
	dist := nonAlnum.ReplaceAllString(strings.ToLower(pkg), "_")
	return fmt.Sprintf("%s-%s-py3-none-any.whl", dist, version)
}

// FindWheel locates exactly WheelName(pkg, version) in distDir.
func FindWheel(distDir, pkg, version string) (*Artifact, error) {
	name := WheelName(pkg, version)
	path := filepath.Join(distDir, name)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWheelNotFound, path)
		}
		return nil, fmt.Errorf("stat wheel: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrWheelNotFound, path)
	}

	sum, err := fileSHA256(path)
	if err != nil {
		return nil, err
	}

	return &Artifact{Path: path, Name: name, Size: info.Size(), SHA256: sum}, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open wheel: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash wheel: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
