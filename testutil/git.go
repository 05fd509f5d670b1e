package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetupTestRepo creates a temporary git repository on branch main with
// one commit and an origin remote. Skips the test when git is missing.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	RunGit(t, dir, "init", "-b", "main")
	RunGit(t, dir, "config", "user.email", "test@test.com")
	RunGit(t, dir, "config", "user.name", "Test User")
	CommitFile(t, dir, "README.md", "# Test\n", "Initial commit")
	RunGit(t, dir, "remote", "add", "origin", "git@github.com:acme/widgets.git")

	return dir
}

// CommitFile writes a file and commits it.
func CommitFile(t *testing.T, repoDir, path, content, message string) {
	t.Helper()

	WriteFiles(t, repoDir, map[string]string{path: content})
	RunGit(t, repoDir, "add", filepath.FromSlash(path))
	RunGit(t, repoDir, "commit", "-m", message)
}

// HeadSHA returns the full SHA of HEAD.
func HeadSHA(t *testing.T, repoDir string) string {
	t.Helper()
	return RunGit(t, repoDir, "rev-parse", "HEAD")
}

// RunGit runs git in dir and returns trimmed output, failing the test on error.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}
