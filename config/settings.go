package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// App-level names for the resolver.
const (
	EnvPrefix       = "PRDEPLOY_"
	GlobalConfigDir = "prdeploy"
	LocalConfigName = ".prdeploy.yaml"
)

// Configuration keys.
const (
	KeyBaseBranch    = "base_branch"
	KeyActions       = "actions"
	KeyAllowForks    = "allow_forks"
	KeyPackage       = "package"
	KeyRegistryURL   = "registry_url"
	KeyVersionField  = "version_field"
	KeyVersionFile   = "version_file"
	KeyDistDir       = "dist_dir"
	KeyBuildTimeout  = "build_timeout"
	KeyBucket        = "bucket"
	KeyRegion        = "region"
	KeyS3Endpoint    = "s3_endpoint"
	KeyPublicURL     = "public_url"
	KeyDemoDir       = "demo_dir"
	KeyDemoInclude   = "demo_include"
	KeyDemoExclude   = "demo_exclude"
	KeyWorkers       = "workers"
	KeyHubURL        = "hub_url"
	KeySpaceOrg      = "space_org"
	KeySpaceName     = "space_name"
	KeySpaceSDK      = "space_sdk"
	KeySpacePrivate  = "space_private"
	KeyCommentMarker = "comment_marker"
	KeyPlatform      = "platform"
	KeyArtifactDir   = "artifact_dir"
	KeyKeepRuns      = "keep_runs"
	KeyRetentionDays = "retention_days"
	KeySlackWebhook  = "slack_webhook"
	KeySlackChannel  = "slack_channel"
	KeyWebhookURL    = "webhook_url"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
)

// Defaults returns the built-in default for every key.
func Defaults() map[string]string {
	return map[string]string{
		KeyBaseBranch:    "main",
		KeyActions:       "opened,synchronize,reopened",
		KeyAllowForks:    "false",
		KeyPackage:       "gradio",
		KeyRegistryURL:   "",
		KeyVersionField:  "info.version",
		KeyVersionFile:   "",
		KeyDistDir:       "dist",
		KeyBuildTimeout:  "20m",
		KeyBucket:        "gradio-builds",
		KeyRegion:        "us-east-1",
		KeyS3Endpoint:    "",
		KeyPublicURL:     "",
		KeyDemoDir:       "demo",
		KeyDemoInclude:   "",
		KeyDemoExclude:   "",
		KeyWorkers:       "8",
		KeyHubURL:        "https://huggingface.co",
		KeySpaceOrg:      "gradio-pr-deploys",
		KeySpaceName:     "pr-{{.PRNumber}}-all-demos",
		KeySpaceSDK:      "gradio",
		KeySpacePrivate:  "false",
		KeyCommentMarker: "All the demos for this PR have been deployed at",
		KeyPlatform:      "",
		KeyArtifactDir:   ".prdeploy",
		KeyKeepRuns:      "20",
		KeyRetentionDays: "14",
		KeySlackWebhook:  "",
		KeySlackChannel:  "",
		KeyWebhookURL:    "",
		KeyLogLevel:      "info",
		KeyLogFormat:     "text",
	}
}

// Keys returns every known configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(Defaults()))
	for k := range Defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Settings is the typed view of a resolved configuration.
type Settings struct {
	BaseBranch string
	Actions    []string
	AllowForks bool

	Package      string
	RegistryURL  string
	VersionField string
	VersionFile  string

	DistDir      string
	BuildTimeout time.Duration

	Bucket     string
	Region     string
	S3Endpoint string
	PublicURL  string

	DemoDir     string
	DemoInclude []string
	DemoExclude []string
	Workers     int

	HubURL       string
	SpaceOrg     string
	SpaceName    string
	SpaceSDK     string
	SpacePrivate bool

	CommentMarker string
	Platform      string

	ArtifactDir   string
	KeepRuns      int
	RetentionDays int

	SlackWebhook string
	SlackChannel string
	WebhookURL   string

	LogLevel  string
	LogFormat string

	// Root is the repository root the relative paths resolve against.
	Root string
}

// NewAppResolver returns the resolver for prdeploy's own config files.
func NewAppResolver(getenv func(string) string) *Resolver {
	return NewResolver(ResolverConfig{
		EnvPrefix:       EnvPrefix,
		Getenv:          getenv,
		GlobalConfigDir: GlobalConfigDir,
		LocalConfigName: LocalConfigName,
		Defaults:        Defaults(),
		ValidGlobalKeys: Keys(),
		ValidLocalKeys:  Keys(),
	})
}

// Load resolves configuration from every source and applies flag overrides.
func Load(r *Resolver, flags map[string]string) (*Settings, error) {
	resolved := r.ResolveWithFlags(flags)
	s, err := FromResolved(resolved)
	if err != nil {
		return nil, err
	}
	s.Root = r.GitRoot()
	if s.Root == "" {
		s.Root = "."
	}
	return s, nil
}

// FromResolved converts resolved values into Settings.
func FromResolved(c *Resolved) (*Settings, error) {
	p := &parser{c: c}
	s := &Settings{
		BaseBranch:    c.Get(KeyBaseBranch),
		Actions:       splitList(c.Get(KeyActions)),
		AllowForks:    p.bool(KeyAllowForks),
		Package:       c.Get(KeyPackage),
		RegistryURL:   c.Get(KeyRegistryURL),
		VersionField:  c.Get(KeyVersionField),
		VersionFile:   c.Get(KeyVersionFile),
		DistDir:       c.Get(KeyDistDir),
		BuildTimeout:  p.duration(KeyBuildTimeout),
		Bucket:        c.Get(KeyBucket),
		Region:        c.Get(KeyRegion),
		S3Endpoint:    c.Get(KeyS3Endpoint),
		PublicURL:     c.Get(KeyPublicURL),
		DemoDir:       c.Get(KeyDemoDir),
		DemoInclude:   splitList(c.Get(KeyDemoInclude)),
		DemoExclude:   splitList(c.Get(KeyDemoExclude)),
		Workers:       p.int(KeyWorkers),
		HubURL:        c.Get(KeyHubURL),
		SpaceOrg:      c.Get(KeySpaceOrg),
		SpaceName:     c.Get(KeySpaceName),
		SpaceSDK:      c.Get(KeySpaceSDK),
		SpacePrivate:  p.bool(KeySpacePrivate),
		CommentMarker: c.Get(KeyCommentMarker),
		Platform:      c.Get(KeyPlatform),
		ArtifactDir:   c.Get(KeyArtifactDir),
		KeepRuns:      p.int(KeyKeepRuns),
		RetentionDays: p.int(KeyRetentionDays),
		SlackWebhook:  c.Get(KeySlackWebhook),
		SlackChannel:  c.Get(KeySlackChannel),
		WebhookURL:    c.Get(KeyWebhookURL),
		LogLevel:      c.Get(KeyLogLevel),
		LogFormat:     c.Get(KeyLogFormat),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks required values.
func (s *Settings) Validate() error {
	required := []struct{ key, value string }{
		{KeyBaseBranch, s.BaseBranch},
		{KeyPackage, s.Package},
		{KeyBucket, s.Bucket},
		{KeySpaceOrg, s.SpaceOrg},
		{KeySpaceName, s.SpaceName},
		{KeyDemoDir, s.DemoDir},
		{KeyCommentMarker, s.CommentMarker},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("config %s: must not be empty", r.key)
		}
	}
	if s.Workers < 1 {
		return fmt.Errorf("config %s: must be at least 1", KeyWorkers)
	}
	return nil
}

// Path resolves a settings path against Root.
func (s *Settings) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Root, p)
}

type parser struct {
	c   *Resolved
	err error
}

func (p *parser) bool(key string) bool {
	v := p.c.Get(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("config %s (%s): %q is not a boolean", key, p.c.Source(key), v)
	}
	return b
}

func (p *parser) int(key string) int {
	v := p.c.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("config %s (%s): %q is not an integer", key, p.c.Source(key), v)
	}
	return n
}

func (p *parser) duration(key string) time.Duration {
	v := p.c.Get(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("config %s (%s): %q is not a duration", key, p.c.Source(key), v)
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
