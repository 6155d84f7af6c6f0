// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides engine configuration loading for Conveyor.
//
// Configuration is loaded from a single YAML file specified by:
//   - CONVEYOR_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The file configures
// the engine (directories, cache compression, API endpoint) — the
// pipeline definition stays in the project's own conveyor.jsonc and is
// never merged in from here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/conveyor-ci/conveyor/lib/depcache"
)

// TokenEnv is the environment variable the release token is read
// from. The token itself never appears in the config file.
const TokenEnv = "CONVEYOR_GITHUB_TOKEN"

// Config is the engine configuration for Conveyor.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Cache configures the dependency cache store.
	Cache CacheConfig `yaml:"cache"`

	// GitHub configures the release API client.
	GitHub GitHubConfig `yaml:"github"`

	// ResultLog is the JSONL result log path. Empty disables it.
	ResultLog string `yaml:"result_log"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Conveyor data.
	Root string `yaml:"root"`

	// Cache is where dependency cache entries are stored.
	Cache string `yaml:"cache"`

	// Artifacts is where published bundles are stored.
	Artifacts string `yaml:"artifacts"`

	// Work is the working directory pipeline commands run in. Empty
	// means the process's current directory.
	Work string `yaml:"work"`
}

// CacheConfig configures the dependency cache store.
type CacheConfig struct {
	// Compression selects the archive compression: "zstd", "lz4", or
	// "none". Default: zstd.
	Compression string `yaml:"compression"`
}

// GitHubConfig configures the release API client.
type GitHubConfig struct {
	// BaseURL is the API root. Defaults to the public GitHub API.
	// Must use HTTPS.
	BaseURL string `yaml:"base_url"`
}

// Default returns the default configuration. These defaults make a
// bare `conveyor run` work without a config file: everything lands
// under ~/.cache/conveyor and commands run in the current directory.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "conveyor")

	return &Config{
		Paths: PathsConfig{
			Root:      defaultRoot,
			Cache:     filepath.Join(defaultRoot, "cache"),
			Artifacts: filepath.Join(defaultRoot, "artifacts"),
		},
		Cache: CacheConfig{
			Compression: "zstd",
		},
	}
}

// Load loads configuration from the CONVEYOR_CONFIG environment
// variable, or returns the defaults when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("CONVEYOR_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults. The only expansion performed is ${VAR}-style
// path variables (${HOME}, ${CONVEYOR_ROOT}) for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Cache == "" {
		errs = append(errs, fmt.Errorf("paths.cache is required"))
	}
	if c.Paths.Artifacts == "" {
		errs = append(errs, fmt.Errorf("paths.artifacts is required"))
	}
	if _, err := depcache.ParseCompressionTag(c.Cache.Compression); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Compression returns the cache compression tag the config selects.
// Call Validate first; an invalid name falls back to zstd here.
func (c *Config) Compression() depcache.CompressionTag {
	tag, err := depcache.ParseCompressionTag(c.Cache.Compression)
	if err != nil {
		return depcache.CompressionZstd
	}
	return tag
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.Cache, c.Paths.Artifacts} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"CONVEYOR_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["CONVEYOR_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Cache = expandVars(c.Paths.Cache, vars)
	c.Paths.Artifacts = expandVars(c.Paths.Artifacts, vars)
	c.Paths.Work = expandVars(c.Paths.Work, vars)
	c.ResultLog = expandVars(c.ResultLog, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}
