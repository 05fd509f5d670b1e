package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultPath is where the workflow is written in a repository.
const DefaultPath = ".github/workflows/deploy-pr-to-spaces.yml"

// ForkGate limits the job to pull requests whose head lives in the base
// repository, so fork code never sees the deploy secrets.
const ForkGate = "github.event.pull_request.head.repo.full_name == github.repository"

// DefaultSecrets maps job environment variables to repository secrets.
func DefaultSecrets() map[string]string {
	return map[string]string{
		"AWS_ACCESS_KEY_ID":     "AWSACCESSKEYID",
		"AWS_SECRET_ACCESS_KEY": "AWSSECRETKEY",
		"HF_TOKEN":              "SPACES_DEPLOY_TOKEN",
		"GITHUB_TOKEN":          "GITHUB_TOKEN",
	}
}

// Options configures Render. Zero values take the defaults below.
type Options struct {
	Name          string            // "Deploy PR to Spaces"
	BaseBranch    string            // "main"
	Actions       []string          // opened, synchronize, reopened
	AllowForks    bool              // Drops the fork gate
	Region        string            // "us-east-1"
	PythonVersion string            // "3.9"
	NodeVersion   string            // "18"
	PNPMVersion   string            // "9"
	Install       string            // Command that installs prdeploy
	Args          []string          // Extra arguments for "prdeploy run"
	Secrets       map[string]string // Env var to secret name, DefaultSecrets when nil
}

func (o *Options) applyDefaults() {
	if o.Name == "" {
		o.Name = "Deploy PR to Spaces"
	}
	if o.BaseBranch == "" {
		o.BaseBranch = "main"
	}
	if len(o.Actions) == 0 {
		o.Actions = []string{"opened", "synchronize", "reopened"}
	}
	if o.Region == "" {
		o.Region = "us-east-1"
	}
	if o.PythonVersion == "" {
		o.PythonVersion = "3.9"
	}
	if o.NodeVersion == "" {
		o.NodeVersion = "18"
	}
	if o.PNPMVersion == "" {
		o.PNPMVersion = "9"
	}
	if o.Install == "" {
		o.Install = "go install github.com/randalmurphal/prdeploy/cmd/prdeploy@latest"
	}
	if o.Secrets == nil {
		o.Secrets = DefaultSecrets()
	}
}

type item = yaml.MapItem

func step(items ...item) yaml.MapSlice {
	return yaml.MapSlice(items)
}

// Render returns the workflow YAML.
func Render(opts Options) ([]byte, error) {
	opts.applyDefaults()

	env := yaml.MapSlice{{Key: "AWS_DEFAULT_REGION", Value: opts.Region}}
	names := make([]string, 0, len(opts.Secrets))
	for name := range opts.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		secret := opts.Secrets[name]
		if strings.TrimSpace(secret) == "" {
			return nil, fmt.Errorf("render workflow: empty secret for %s", name)
		}
		env = append(env, item{Key: name, Value: fmt.Sprintf("${{ secrets.%s }}", secret)})
	}

	run := "prdeploy run"
	if len(opts.Args) > 0 {
		run += " " + strings.Join(opts.Args, " ")
	}

	steps := []yaml.MapSlice{
		step(item{Key: "uses", Value: "actions/checkout@v4"}),
		step(
			item{Key: "uses", Value: "actions/setup-python@v5"},
			item{Key: "with", Value: yaml.MapSlice{{Key: "python-version", Value: opts.PythonVersion}}},
		),
		step(
			item{Key: "uses", Value: "pnpm/action-setup@v4"},
			item{Key: "with", Value: yaml.MapSlice{{Key: "version", Value: opts.PNPMVersion}}},
		),
		step(
			item{Key: "uses", Value: "actions/setup-node@v4"},
			item{Key: "with", Value: yaml.MapSlice{{Key: "node-version", Value: opts.NodeVersion}}},
		),
		step(
			item{Key: "uses", Value: "actions/setup-go@v5"},
			item{Key: "with", Value: yaml.MapSlice{{Key: "go-version", Value: "stable"}}},
		),
		step(
			item{Key: "name", Value: "Install build tools"},
			item{Key: "run", Value: "python -m pip install build"},
		),
		step(
			item{Key: "name", Value: "Install prdeploy"},
			item{Key: "run", Value: opts.Install},
		),
		step(
			item{Key: "name", Value: "Deploy preview"},
			item{Key: "run", Value: run},
		),
	}

	job := yaml.MapSlice{}
	if !opts.AllowForks {
		job = append(job, item{Key: "if", Value: ForkGate})
	}
	job = append(job,
		item{Key: "runs-on", Value: "ubuntu-latest"},
		item{Key: "env", Value: env},
		item{Key: "steps", Value: steps},
	)

	doc := yaml.MapSlice{
		{Key: "name", Value: opts.Name},
		{Key: "on", Value: yaml.MapSlice{
			{Key: "pull_request", Value: yaml.MapSlice{
				{Key: "branches", Value: []string{opts.BaseBranch}},
				{Key: "types", Value: opts.Actions},
			}},
		}},
		{Key: "permissions", Value: yaml.MapSlice{
			{Key: "contents", Value: "read"},
			{Key: "pull-requests", Value: "write"},
		}},
		{Key: "concurrency", Value: yaml.MapSlice{
			{Key: "group", Value: "deploy-pr-${{ github.event.pull_request.number }}"},
			{Key: "cancel-in-progress", Value: false},
		}},
		{Key: "jobs", Value: yaml.MapSlice{
			{Key: "deploy", Value: job},
		}},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render workflow: %w", err)
	}
	return out, nil
}
