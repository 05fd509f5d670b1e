package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveConfig writes configuration values back to the global or local file.
type SaveConfig struct {
	// GlobalConfigDir is the directory under ~/.config/ for global config.
	GlobalConfigDir string

	// GlobalConfigFile is the filename. Defaults to "config.yaml".
	GlobalConfigFile string

	// LocalConfigName is the filename for local config in git root.
	LocalConfigName string

	// ValidGlobalKeys lists keys that can be set in global config.
	ValidGlobalKeys []string

	// ValidLocalKeys lists keys that can be set in local config.
	ValidLocalKeys []string
}

// AppSaveConfig returns the SaveConfig for prdeploy's own files.
func AppSaveConfig() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: GlobalConfigDir,
		LocalConfigName: LocalConfigName,
		ValidGlobalKeys: Keys(),
		ValidLocalKeys:  Keys(),
	}
}

func (c SaveConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

// GlobalPath returns the global config file path.
func (c SaveConfig) GlobalPath() (string, error) {
	if c.GlobalConfigDir == "" {
		return "", fmt.Errorf("global config directory not configured")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", c.GlobalConfigDir, c.globalConfigFile()), nil
}

// SaveGlobal saves a key-value pair to the global config file.
func (c SaveConfig) SaveGlobal(key, value string) error {
	if err := validateKey("global", c.ValidGlobalKeys, key); err != nil {
		return err
	}
	configPath, err := c.GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return err
	}
	return updateFile(configPath, 0o600, func(m map[string]interface{}) {
		m[key] = parseValue(value)
	})
}

// SaveLocal saves a key-value pair to the local config file in the git root.
func (c SaveConfig) SaveLocal(gitRoot, key, value string) error {
	if gitRoot == "" {
		return fmt.Errorf("git root not found")
	}
	if c.LocalConfigName == "" {
		return fmt.Errorf("local config name not configured")
	}
	if err := validateKey("local", c.ValidLocalKeys, key); err != nil {
		return err
	}

	// Local config is committed alongside the workflow, so it stays readable.
	return updateFile(filepath.Join(gitRoot, c.LocalConfigName), 0o644, func(m map[string]interface{}) {
		m[key] = parseValue(value)
	})
}

// DeleteGlobalKey removes a key from the global config.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	configPath, err := c.GlobalPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil // Nothing to delete
	}
	return updateFile(configPath, 0o600, func(m map[string]interface{}) {
		delete(m, key)
	})
}

func validateKey(scope string, valid []string, key string) error {
	if len(valid) > 0 && !slices.Contains(valid, key) {
		return fmt.Errorf("unknown %s config key: %s\n\nValid keys: %s",
			scope, key, strings.Join(valid, ", "))
	}
	return nil
}

func updateFile(path string, perm os.FileMode, mutate func(map[string]interface{})) error {
	var existing map[string]interface{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if existing == nil {
		existing = make(map[string]interface{})
	}

	mutate(existing)

	data, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm) //nolint:gosec
}

// parseValue converts string values to appropriate types for YAML.
func parseValue(value string) interface{} {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
