package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey indicates a flag override for a key the resolver does not know.
var ErrUnknownKey = errors.New("unknown config key")

// ResolverConfig configures the layered resolver.
type ResolverConfig struct {
	// EnvPrefix turns a key into its environment variable:
	// "PRDEPLOY_" + "space_org" reads PRDEPLOY_SPACE_ORG.
	EnvPrefix string

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// GlobalConfigDir is the directory under ~/.config/ holding the global
	// file, e.g. "prdeploy".
	GlobalConfigDir string

	// GlobalConfigFile defaults to "config.yaml".
	GlobalConfigFile string

	// LocalConfigName is the per-repository file in the git root.
	LocalConfigName string

	// Defaults are the built-in values. Their keys are also the keys the
	// environment and flag layers accept.
	Defaults map[string]string

	// ValidGlobalKeys and ValidLocalKeys restrict what the files may set.
	// Nil accepts any key.
	ValidGlobalKeys []string
	ValidLocalKeys  []string

	// GitRootFinder locates the repository root. Defaults to FindGitRoot.
	GitRootFinder func(startDir string) (string, error)

	// ErrWriter receives warnings. Defaults to os.Stderr.
	ErrWriter io.Writer
}

func (c ResolverConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

func (c ResolverConfig) getenv(key string) string {
	if c.Getenv != nil {
		return c.Getenv(key)
	}
	return os.Getenv(key)
}

// Resolver merges the config layers described by Precedence.
type Resolver struct {
	config     ResolverConfig
	globalPath string
	localPath  string
	gitRoot    string

	// Warnings collects file problems that did not stop resolution.
	Warnings []string
}

// NewResolver creates a resolver that finds the global file under the home
// directory and the local file in the enclosing git root.
func NewResolver(cfg ResolverConfig) *Resolver {
	r := NewResolverWithPaths(cfg, "", "")

	finder := cfg.GitRootFinder
	if finder == nil {
		finder = FindGitRoot
	}
	if root, err := finder("."); err == nil && root != "" {
		r.gitRoot = root
		if cfg.LocalConfigName != "" {
			r.localPath = filepath.Join(root, cfg.LocalConfigName)
		}
	}

	if cfg.GlobalConfigDir != "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.globalPath = filepath.Join(home, ".config", cfg.GlobalConfigDir, cfg.globalConfigFile())
		}
	}
	return r
}

// NewResolverWithPaths creates a resolver reading exactly the given files.
// An empty path skips that layer.
func NewResolverWithPaths(cfg ResolverConfig, globalPath, localPath string) *Resolver {
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	return &Resolver{config: cfg, globalPath: globalPath, localPath: localPath}
}

func (r *Resolver) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	fmt.Fprintf(r.config.ErrWriter, "Warning: %s\n", msg)
}

// Resolved is the merged configuration with the layer of every value.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

func newResolved() *Resolved {
	return &Resolved{values: make(map[string]string), sources: make(map[string]Source)}
}

// set stores value unless a higher layer already set key.
func (c *Resolved) set(key, value string, src Source) {
	if cur, ok := c.sources[key]; ok && !src.Overrides(cur) {
		return
	}
	c.values[key] = value
	c.sources[key] = src
}

// Get returns the value for key, or "" when unset.
func (c *Resolved) Get(key string) string {
	return c.values[key]
}

// Source returns the layer key was resolved from.
func (c *Resolved) Source(key string) Source {
	return c.sources[key]
}

// GetWithSource returns the value and its layer.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// All returns a copy of every value.
func (c *Resolved) All() map[string]string {
	return maps.Clone(c.values)
}

// Keys returns every resolved key, sorted.
func (c *Resolved) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// layer is one level of Precedence with the values it contributes.
type layer struct {
	source Source
	values map[string]string
}

func (r *Resolver) layers() []layer {
	return []layer{
		{SourceDefault, r.config.Defaults},
		{SourceGlobal, r.readFile(r.globalPath, r.config.ValidGlobalKeys)},
		{SourceLocal, r.readFile(r.localPath, r.config.ValidLocalKeys)},
		{SourceEnv, r.readEnv()},
	}
}

// Resolve merges defaults, both files and the environment.
func (r *Resolver) Resolve() *Resolved {
	cfg := newResolved()
	for _, l := range r.layers() {
		for key, value := range l.values {
			cfg.set(key, value, l.source)
		}
	}
	return cfg
}

// ResolveWithFlags resolves every layer and then applies flag overrides.
// Empty flag values leave the lower layers in place.
func (r *Resolver) ResolveWithFlags(flags map[string]string) *Resolved {
	cfg := r.Resolve()
	for key, value := range flags {
		if value != "" {
			cfg.set(key, value, SourceFlag)
		}
	}
	return cfg
}

// CheckFlags returns ErrUnknownKey for a flag override naming a key outside
// Defaults. Without Defaults any key is accepted.
func (r *Resolver) CheckFlags(flags map[string]string) error {
	if len(r.config.Defaults) == 0 {
		return nil
	}
	for _, key := range slices.Sorted(maps.Keys(flags)) {
		if _, ok := r.config.Defaults[key]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownKey, key)
		}
	}
	return nil
}

// readFile returns the scalar values of a YAML config file. A missing file
// contributes nothing; a malformed one or an unknown key is a warning.
func (r *Resolver) readFile(path string, valid []string) map[string]string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn("could not parse %s: %v", path, err)
		return nil
	}

	out := make(map[string]string, len(parsed))
	for _, key := range slices.Sorted(maps.Keys(parsed)) {
		if len(valid) > 0 && !slices.Contains(valid, key) {
			r.warn("%s: ignoring unknown key %q", path, key)
			continue
		}
		if s := scalar(parsed[key]); s != "" {
			out[key] = s
		}
	}
	return out
}

// readEnv reads EnvPrefix + KEY for every key in Defaults.
func (r *Resolver) readEnv() map[string]string {
	if r.config.EnvPrefix == "" {
		return nil
	}
	out := make(map[string]string)
	for key := range r.config.Defaults {
		name := r.config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if value := r.config.getenv(name); value != "" {
			out[key] = value
		}
	}
	return out
}

// GitRoot returns the detected repository root, or "".
func (r *Resolver) GitRoot() string {
	return r.gitRoot
}

// GlobalPath returns the global config file path.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// LocalPath returns the local config file path.
func (r *Resolver) LocalPath() string {
	return r.localPath
}

// scalar flattens a YAML value into the string form Settings parses.
// Lists such as demo_exclude join with commas.
func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalar(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// FindGitRoot walks up from startDir to the first directory holding a .git
// entry. Worktrees use a .git file, so any entry counts.
func FindGitRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no git repository above %s", startDir)
		}
		dir = parent
	}
}
