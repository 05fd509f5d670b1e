package version

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	prhttp "github.com/randalmurphal/prdeploy/http"
)

var (
	// ErrFieldMissing indicates the response lacks the configured field.
	ErrFieldMissing = errors.New("version field missing from response")

	// ErrInvalidVersion indicates a value that is not strict X.Y.Z.
	ErrInvalidVersion = errors.New("invalid version")
)

// DefaultField is the dotted path of the version in a PyPI JSON document.
const DefaultField = "info.version"

// Source produces a version string.
type Source interface {
	Version(ctx context.Context) (string, error)
}

// RegistrySource reads the version from one JSON endpoint.
type RegistrySource struct {
	client *prhttp.Client
	url    string
	field  string
}

// NewRegistrySource creates a source that GETs url and reads field.
// An empty field means DefaultField.
func NewRegistrySource(client *prhttp.Client, url, field string) *RegistrySource {
	if field == "" {
		field = DefaultField
	}
	return &RegistrySource{client: client, url: url, field: field}
}

// PyPIURL returns the JSON API URL for a PyPI project.
func PyPIURL(pkg string) string {
	return "https://pypi.org/pypi/" + pkg + "/json"
}

// Version performs the lookup.
func (s *RegistrySource) Version(ctx context.Context) (string, error) {
	var doc map[string]any
	if err := s.client.GetJSON(ctx, s.url, &doc); err != nil {
		return "", fmt.Errorf("fetch version: %w", err)
	}
	return lookup(doc, s.field)
}

// lookup walks a dotted path through decoded JSON.
func lookup(doc map[string]any, field string) (string, error) {
	var cur any = doc
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrFieldMissing, field)
		}
		cur, ok = m[part]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrFieldMissing, field)
		}
	}
	s, ok := cur.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s is not a string", ErrFieldMissing, field)
	}
	return s, nil
}

// FileSource reads the version from a local file such as version.txt.
type FileSource struct {
	Path string
}

// Version reads and trims the file.
func (s FileSource) Version(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("read version file: %w", err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrFieldMissing, s.Path)
	}
	return v, nil
}

// Parse validates s as strict MAJOR.MINOR.PATCH.
func Parse(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return nil, fmt.Errorf("%w %q: pre-release and build metadata are not allowed", ErrInvalidVersion, s)
	}
	return v, nil
}

// Resolve fetches from src and validates the result.
func Resolve(ctx context.Context, src Source) (string, error) {
	raw, err := src.Version(ctx)
	if err != nil {
		return "", err
	}
	v, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Status is the result of comparing a local version to the latest release.
type Status struct {
	Current         string `json:"current"`
	Latest          string `json:"latest"`
	UpdateAvailable bool   `json:"update_available"`
}

// Check compares current against latest. Both must be strict versions.
func Check(current, latest string) (*Status, error) {
	cv, err := Parse(current)
	if err != nil {
		return nil, err
	}
	lv, err := Parse(latest)
	if err != nil {
		return nil, err
	}
	return &Status{
		Current:         cv.String(),
		Latest:          lv.String(),
		UpdateAvailable: lv.GreaterThan(cv),
	}, nil
}
