package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/prdeploy/artifact"
	"github.com/randalmurphal/prdeploy/command"
	"github.com/randalmurphal/prdeploy/config"
	"github.com/randalmurphal/prdeploy/testutil"
)

type cli struct {
	t       *testing.T
	project *testutil.Project
	env     map[string]string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &cli{
		t:       t,
		project: testutil.SetupProject(t),
		env: map[string]string{
			"PRDEPLOY_VERSION_FILE": "gradio/version.txt",
		},
	}
}

// ciEnv sets the variables GitHub Actions provides for a same-repo PR.
func (c *cli) ciEnv() {
	c.env["GITHUB_EVENT_NAME"] = "pull_request"
	c.env["GITHUB_REPOSITORY"] = testutil.Repository
	c.env["GITHUB_REF"] = "refs/pull/42/merge"
	c.env["GITHUB_SHA"] = testutil.SHA
	c.env["GITHUB_BASE_REF"] = "main"
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr, func(k string) string { return c.env[k] })
	a.runner = command.NewMockRunner()
	root := c.project.Root
	a.newResolver = func(getenv func(string) string) *config.Resolver {
		return config.NewResolver(config.ResolverConfig{
			EnvPrefix:       config.EnvPrefix,
			Getenv:          getenv,
			LocalConfigName: config.LocalConfigName,
			Defaults:        config.Defaults(),
			ValidLocalKeys:  config.Keys(),
			GitRootFinder:   func(string) (string, error) { return root, nil },
			ErrWriter:       io.Discard,
		})
	}
	code := execute(args, a)
	return code, stdout.String(), stderr.String()
}

func TestRunDryRun(t *testing.T) {
	c := newCLI(t)
	c.ciEnv()

	code, out, errOut := c.run("run", "--dry-run")
	require.Equal(t, exitOK, code, errOut)

	assert.Contains(t, out, "Preview: https://huggingface.co/spaces/gradio-pr-deploys/pr-42-all-demos")
	assert.Contains(t, out, "Status: succeeded")
	assert.FileExists(t, filepath.Join(c.project.Root, ".prdeploy", "bucket", testutil.SHA, "gradio-4.2.0-py3-none-any.whl"))

	code, out, _ = c.run("runs", "list")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "#42")
}

func TestRunJSON(t *testing.T) {
	c := newCLI(t)
	c.ciEnv()

	code, out, errOut := c.run("run", "--dry-run", "--json")
	require.Equal(t, exitOK, code, errOut)

	var rec artifact.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, artifact.StatusSucceeded, rec.Status)
	assert.True(t, rec.DryRun)
	assert.Equal(t, testutil.Version, rec.Version)
}

func TestRunSkipsForkWithoutSecrets(t *testing.T) {
	c := newCLI(t)
	c.ciEnv()

	payload := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{
		"action": "opened",
		"number": 42,
		"pull_request": {
			"number": 42,
			"head": {"sha": "`+testutil.SHA+`", "repo": {"full_name": "someone/gradio"}},
			"base": {"ref": "main"}
		}
	}`), 0o644))
	c.env["GITHUB_EVENT_PATH"] = payload

	code, out, errOut := c.run("run")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Skipped")
}

func TestRunMissingDeployToken(t *testing.T) {
	c := newCLI(t)
	c.ciEnv()
	c.env["AWS_ACCESS_KEY_ID"] = "AKIDEXAMPLE"
	c.env["AWS_SECRET_ACCESS_KEY"] = "secret"

	code, _, errOut := c.run("run")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "HF_TOKEN")
}

func TestRunOutsideCIRequiresPR(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("run", "--dry-run")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "--pr")
}

func TestRunLocalFlags(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("run", "--dry-run", "--pr", "7", "--sha", testutil.SHA, "--repo", testutil.Repository)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "pr-7-all-demos")
}

func TestWorkflowRenderAndLint(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("workflow", "render")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "prdeploy run")
	assert.Contains(t, out, "head.repo.full_name")

	code, _, errOut = c.run("workflow", "render", "-o", ".github/workflows/deploy-pr-to-spaces.yml")
	require.Equal(t, exitOK, code, errOut)
	assert.FileExists(t, filepath.Join(c.project.Root, ".github", "workflows", "deploy-pr-to-spaces.yml"))

	code, out, errOut = c.run("workflow", "lint")
	require.Equal(t, exitOK, code, out+errOut)
	assert.Contains(t, out, "1 file(s) OK")
}

func TestWorkflowLintReportsFindings(t *testing.T) {
	c := newCLI(t)
	testutil.WriteFiles(t, c.project.Root, map[string]string{
		"bad.yml": "on: pull_request\njobs:\n  x:\n    steps:\n      - run: echo\n",
	})

	code, out, _ := c.run("workflow", "lint", "bad.yml")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "bad.yml:")
}

func TestConfigCommands(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("config", "set", config.KeySpaceOrg, "my-previews")
	require.Equal(t, exitOK, code, errOut)

	code, out, _ := c.run("config", "get", config.KeySpaceOrg)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "my-previews\n", out)

	code, out, _ = c.run("config", "get", config.KeySpaceOrg, "--set", "space_org=override")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "override\n", out)

	code, out, _ = c.run("config", "list")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "space_org=my-previews (local)")

	code, _, _ = c.run("config", "get", "nope")
	assert.Equal(t, exitUsage, code)

	code, _, _ = c.run("config", "set", "nope", "x")
	assert.Equal(t, exitUsage, code)
}

func TestVersionCommand(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("version")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "prdeploy dev\n", out)

	code, out, errOut := c.run("version", "--resolve")
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, testutil.Version+"\n", out)

	code, out, _ = c.run("version", "--check", "4.1.0")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "behind the latest release 4.2.0")

	code, _, _ = c.run("version", "--check", "not-a-version")
	assert.Equal(t, exitUsage, code)
}

func TestTeardownDryRun(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("teardown", "--pr", "7", "--dry-run")
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, "Deleted gradio-pr-deploys/pr-7-all-demos\n", out)

	code, _, _ = c.run("teardown")
	assert.Equal(t, exitUsage, code)
}

func TestRunsCleanup(t *testing.T) {
	c := newCLI(t)
	c.ciEnv()
	code, _, errOut := c.run("run", "--dry-run")
	require.Equal(t, exitOK, code, errOut)

	code, out, _ := c.run("runs", "cleanup", "--dry-run")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Would delete 0 run(s), kept 1")
}

func TestUsageErrors(t *testing.T) {
	c := newCLI(t)

	tests := [][]string{
		{"deploy-everything"},
		{"run", "--no-such-flag"},
		{"comment"},
		{"run", "--set", "novalue"},
		{"run", "--set", "spaceorg=typo"},
		{"run", "--log-format", "xml"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			code, _, _ := c.run(args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "debug", "json")
	require.NoError(t, err)
	logger.Debug("hello", "pr", 42)
	assert.Contains(t, buf.String(), `"pr":42`)

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
}
