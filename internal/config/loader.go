package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".wantedanchors"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Wikis == nil {
		cf.Wikis = make(map[string]WikiConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .wantedanchors in the current directory
// 3. Look for .wantedanchors in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// LoadInto finds the configuration file for configPath and applies it to
// c. It returns the path used, or "" when no file was found. A missing
// file is only an error when configPath names it explicitly.
func LoadInto(configPath string, c *Config) (string, error) {
	path := FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return "", nil
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := cf.Apply(c); err != nil {
		return "", fmt.Errorf("failed to apply %s: %w", path, err)
	}
	return path, nil
}
