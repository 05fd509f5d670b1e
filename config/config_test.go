package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolver_Defaults(t *testing.T) {
	resolver := NewResolverWithPaths(ResolverConfig{
		Defaults: map[string]string{
			"space_org": "gradio-pr-deploys",
			"region":    "us-east-1",
		},
	}, "", "")

	cfg := resolver.Resolve()

	if got := cfg.Get("space_org"); got != "gradio-pr-deploys" {
		t.Errorf("space_org = %q, want %q", got, "gradio-pr-deploys")
	}
	if got := cfg.Source("space_org"); got != SourceDefault {
		t.Errorf("source = %q, want %q", got, SourceDefault)
	}
}

func TestResolver_EnvOverridesDefaults(t *testing.T) {
	resolver := NewResolverWithPaths(ResolverConfig{
		EnvPrefix: "PRDEPLOY_",
		Getenv:    envMap(map[string]string{"PRDEPLOY_SPACE_ORG": "my-org"}),
		Defaults: map[string]string{
			"space_org": "gradio-pr-deploys",
		},
	}, "", "")

	value, source := resolver.Resolve().GetWithSource("space_org")
	if value != "my-org" {
		t.Errorf("space_org = %q, want my-org", value)
	}
	if source != SourceEnv {
		t.Errorf("source = %q, want %q", source, SourceEnv)
	}
}

func TestResolver_Priority(t *testing.T) {
	tmpDir := t.TempDir()
	globalPath := filepath.Join(tmpDir, "global", "config.yaml")
	localPath := filepath.Join(tmpDir, "repo", ".prdeploy.yaml")
	writeFile(t, globalPath, "bucket: global-bucket\nregion: eu-west-1\nspace_org: global-org\n")
	writeFile(t, localPath, "bucket: local-bucket\nspace_org: local-org\n")

	resolver := NewResolverWithPaths(ResolverConfig{
		EnvPrefix: "PRDEPLOY_",
		Getenv:    envMap(map[string]string{"PRDEPLOY_SPACE_ORG": "env-org"}),
		Defaults: map[string]string{
			"bucket":    "default-bucket",
			"region":    "us-east-1",
			"space_org": "default-org",
			"package":   "gradio",
		},
	}, globalPath, localPath)

	cfg := resolver.ResolveWithFlags(map[string]string{"package": "gradio-client", "region": ""})

	tests := []struct {
		key    string
		value  string
		source Source
	}{
		{"package", "gradio-client", SourceFlag},
		{"space_org", "env-org", SourceEnv},
		{"bucket", "local-bucket", SourceLocal},
		{"region", "eu-west-1", SourceGlobal},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			value, source := cfg.GetWithSource(tt.key)
			if value != tt.value || source != tt.source {
				t.Errorf("%s = %q (%s), want %q (%s)", tt.key, value, source, tt.value, tt.source)
			}
		})
	}
}

func TestResolver_CheckFlags(t *testing.T) {
	resolver := NewResolverWithPaths(ResolverConfig{Defaults: Defaults()}, "", "")

	if err := resolver.CheckFlags(map[string]string{KeySpaceOrg: "x", KeyLogLevel: ""}); err != nil {
		t.Errorf("CheckFlags(known) = %v", err)
	}
	err := resolver.CheckFlags(map[string]string{"spaceorg": "x"})
	if !errors.Is(err, ErrUnknownKey) || !strings.Contains(err.Error(), "spaceorg") {
		t.Errorf("CheckFlags(unknown) = %v, want ErrUnknownKey", err)
	}

	unrestricted := NewResolverWithPaths(ResolverConfig{}, "", "")
	if err := unrestricted.CheckFlags(map[string]string{"anything": "x"}); err != nil {
		t.Errorf("CheckFlags without defaults = %v", err)
	}
}

func TestSourcePrecedence(t *testing.T) {
	for i := 1; i < len(Precedence); i++ {
		lo, hi := Precedence[i-1], Precedence[i]
		if !hi.Overrides(lo) || lo.Overrides(hi) {
			t.Errorf("%s should override %s and not the reverse", hi, lo)
		}
	}
	if Source("bogus").Rank() != -1 {
		t.Error("unknown source should rank -1")
	}
	if SourceFlag.Rank() != len(Precedence)-1 {
		t.Errorf("flag rank = %d, want highest", SourceFlag.Rank())
	}
}

func TestResolver_ValidKeys(t *testing.T) {
	tmpDir := t.TempDir()
	globalPath := filepath.Join(tmpDir, "config.yaml")
	writeFile(t, globalPath, "bucket: b\nnot_a_key: value\n")

	var warnings bytes.Buffer
	resolver := NewResolverWithPaths(ResolverConfig{
		ValidGlobalKeys: []string{"bucket"},
		ErrWriter:       &warnings,
	}, globalPath, "")

	cfg := resolver.Resolve()
	if got := cfg.Get("bucket"); got != "b" {
		t.Errorf("bucket = %q, want b", got)
	}
	if got := cfg.Get("not_a_key"); got != "" {
		t.Errorf("not_a_key = %q, want empty", got)
	}
	if len(resolver.Warnings) != 1 || !strings.Contains(warnings.String(), "not_a_key") {
		t.Errorf("warnings = %v", resolver.Warnings)
	}
}

func TestResolver_MalformedFileWarns(t *testing.T) {
	tmpDir := t.TempDir()
	localPath := filepath.Join(tmpDir, ".prdeploy.yaml")
	writeFile(t, localPath, "bucket: [unterminated\n")

	var warnings bytes.Buffer
	resolver := NewResolverWithPaths(ResolverConfig{
		Defaults:  map[string]string{"bucket": "default"},
		ErrWriter: &warnings,
	}, "", localPath)

	if got := resolver.Resolve().Get("bucket"); got != "default" {
		t.Errorf("bucket = %q, want default", got)
	}
	if !strings.Contains(warnings.String(), "could not parse") {
		t.Errorf("warnings = %q", warnings.String())
	}
}

func TestResolver_ValueTypes(t *testing.T) {
	tmpDir := t.TempDir()
	localPath := filepath.Join(tmpDir, ".prdeploy.yaml")
	writeFile(t, localPath, "allow_forks: true\nworkers: 4\ndemo_exclude:\n  - blocks_xray\n  - kitchen_sink\n")

	cfg := NewResolverWithPaths(ResolverConfig{ErrWriter: &bytes.Buffer{}}, "", localPath).Resolve()

	if got := cfg.Get("allow_forks"); got != "true" {
		t.Errorf("allow_forks = %q", got)
	}
	if got := cfg.Get("workers"); got != "4" {
		t.Errorf("workers = %q", got)
	}
	if got := cfg.Get("demo_exclude"); got != "blocks_xray,kitchen_sink" {
		t.Errorf("demo_exclude = %q", got)
	}
}

func TestResolved_Keys(t *testing.T) {
	cfg := NewResolverWithPaths(ResolverConfig{
		Defaults: map[string]string{"b": "2", "a": "1"},
	}, "", "").Resolve()

	keys := cfg.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
	if all := cfg.All(); all["a"] != "1" {
		t.Errorf("All()[a] = %q", all["a"])
	}
}

func TestNewResolver_GitRootFinder(t *testing.T) {
	tmpDir := t.TempDir()
	resolver := NewResolver(ResolverConfig{
		LocalConfigName: LocalConfigName,
		GitRootFinder: func(string) (string, error) {
			return tmpDir, nil
		},
	})

	if resolver.GitRoot() != tmpDir {
		t.Errorf("GitRoot() = %q, want %q", resolver.GitRoot(), tmpDir)
	}
	if want := filepath.Join(tmpDir, LocalConfigName); resolver.LocalPath() != want {
		t.Errorf("LocalPath() = %q, want %q", resolver.LocalPath(), want)
	}
}

func TestFindGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "demo", "hello_world")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	root, err := FindGitRoot(nested)
	if err != nil {
		t.Fatalf("FindGitRoot() error = %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindGitRoot() = %q, want %q", root, tmpDir)
	}
}

func TestLoad(t *testing.T) {
	resolver := NewResolverWithPaths(ResolverConfig{
		EnvPrefix: EnvPrefix,
		Getenv: envMap(map[string]string{
			"PRDEPLOY_ALLOW_FORKS":  "true",
			"PRDEPLOY_DEMO_EXCLUDE": "a, b",
		}),
		Defaults: Defaults(),
	}, "", "")
	resolver.gitRoot = "/repo"

	s, err := Load(resolver, map[string]string{KeyBaseBranch: "release"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.BaseBranch != "release" {
		t.Errorf("BaseBranch = %q", s.BaseBranch)
	}
	if !s.AllowForks {
		t.Error("AllowForks should be true")
	}
	if len(s.DemoExclude) != 2 || s.DemoExclude[1] != "b" {
		t.Errorf("DemoExclude = %v", s.DemoExclude)
	}
	if len(s.Actions) != 3 {
		t.Errorf("Actions = %v", s.Actions)
	}
	if s.BuildTimeout != 20*time.Minute {
		t.Errorf("BuildTimeout = %v", s.BuildTimeout)
	}
	if s.Workers != 8 || s.KeepRuns != 20 || s.RetentionDays != 14 {
		t.Errorf("Workers/KeepRuns/RetentionDays = %d/%d/%d", s.Workers, s.KeepRuns, s.RetentionDays)
	}
	if got := s.Path(s.DemoDir); got != filepath.Join("/repo", "demo") {
		t.Errorf("Path(demo) = %q", got)
	}
	if got := s.Path("/abs"); got != "/abs" {
		t.Errorf("Path(/abs) = %q", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string]string
		wantErr string
	}{
		{"bad bool", map[string]string{KeySpacePrivate: "maybe"}, "space_private"},
		{"bad int", map[string]string{KeyWorkers: "many"}, "workers"},
		{"bad duration", map[string]string{KeyBuildTimeout: "soon"}, "build_timeout"},
		{"zero workers", map[string]string{KeyWorkers: "0"}, "at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolverWithPaths(ResolverConfig{Defaults: Defaults()}, "", "")
			_, err := Load(resolver, tt.flags)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RequiredKeys(t *testing.T) {
	resolver := NewResolverWithPaths(ResolverConfig{
		Defaults: Defaults(),
	}, "", "")
	resolved := resolver.Resolve()
	resolved.values[KeyBucket] = " "

	_, err := FromResolved(resolved)
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Errorf("FromResolved() error = %v, want bucket error", err)
	}
}
