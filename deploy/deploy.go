package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

var (
	// ErrMissingToken indicates no hosting-platform token was configured.
	ErrMissingToken = errors.New("deploy token not configured")

	// ErrInvalidName indicates a preview name the platform would reject.
	ErrInvalidName = errors.New("invalid preview name")
)

// DefaultNameTemplate names the preview for a pull request.
const DefaultNameTemplate = "pr-{{.PRNumber}}-all-demos"

// Target identifies a preview.
type Target struct {
	Org  string `json:"org"`
	Name string `json:"name"`
}

// ID returns "org/name".
func (t Target) ID() string {
	return t.Org + "/" + t.Name
}

// Deployment is the result of a successful deploy.
type Deployment struct {
	Target    Target `json:"target"`
	URL       string `json:"url"`
	CommitOID string `json:"commit_oid,omitempty"`
	CommitURL string `json:"commit_url,omitempty"`
	Created   bool   `json:"created"`
	Files     int    `json:"files"`
	Deleted   int    `json:"deleted,omitempty"`
}

// Deployer publishes and removes previews.
type Deployer interface {
	Deploy(ctx context.Context, target Target, bundleDir string) (*Deployment, error)
	Teardown(ctx context.Context, target Target) error
}

// NameData is passed to the name template.
type NameData struct {
	PRNumber int
	SHA      string
	Repo     string
}

// SpaceName renders tmpl (DefaultNameTemplate when empty) and validates it.
func SpaceName(tmpl string, data NameData) (string, error) {
	if tmpl == "" {
		tmpl = DefaultNameTemplate
	}
	t, err := template.New("name").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse name template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render name template: %w", err)
	}
	name := strings.TrimSpace(buf.String())
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9_]$|^[A-Za-z0-9]$`)

// MaxNameLength is the longest repository name the Hub accepts.
const MaxNameLength = 96

// ValidateName applies the Hub repository naming rules.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: %q longer than %d", ErrInvalidName, name, MaxNameLength)
	case strings.Contains(name, "--"), strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains '--' or '..'", ErrInvalidName, name)
	case !validName.MatchString(name):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
