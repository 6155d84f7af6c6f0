// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"fmt"
	"strings"
	"time"
)

// ConfigError reports structural problems in a pipeline definition.
// It is produced before any job starts and blocks the whole run.
type ConfigError struct {
	Issues []string
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("pipeline definition has %d issue(s):\n  %s",
		len(err.Issues), strings.Join(err.Issues, "\n  "))
}

// Validate checks a Config for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the
// definition is valid.
//
// Structural checks include:
//   - Project, Lockfile, test and build commands, and output dir are required
//   - At least one matrix entry is required
//   - Each entry must have os, target, and platform (ext may be empty)
//   - Duplicate (os, target) pairs are rejected
//   - Release section (when present) must have owner, repo, tag, and name
//   - Timeouts (when present) must be parseable by time.ParseDuration
func Validate(config *Config) []string {
	var issues []string

	if config.Project == "" {
		issues = append(issues, "project is required")
	}
	if config.Lockfile == "" {
		issues = append(issues, "lockfile is required")
	}
	if config.Commands.Test == "" {
		issues = append(issues, "commands.test is required")
	}
	if config.Commands.Build == "" {
		issues = append(issues, "commands.build is required")
	}
	if config.Commands.OutputDir == "" {
		issues = append(issues, "commands.output_dir is required")
	}

	if len(config.Matrix) == 0 {
		issues = append(issues, "matrix has no entries (at least one is required)")
	}

	seen := make(map[string]int, len(config.Matrix))
	for index, entry := range config.Matrix {
		prefix := fmt.Sprintf("matrix[%d]", index)
		if entry.Target != "" {
			prefix = fmt.Sprintf("matrix[%d] %q", index, entry.Target)
		}

		if entry.OS == "" {
			issues = append(issues, fmt.Sprintf("%s: os is required", prefix))
		}
		if entry.Target == "" {
			issues = append(issues, fmt.Sprintf("%s: target is required", prefix))
		}
		if entry.Platform == "" {
			issues = append(issues, fmt.Sprintf("%s: platform is required", prefix))
		}

		if entry.OS != "" && entry.Target != "" {
			key := entry.OS + "\x00" + entry.Target
			if previous, duplicate := seen[key]; duplicate {
				issues = append(issues, fmt.Sprintf("%s: duplicates matrix[%d] (same os and target)", prefix, previous))
			} else {
				seen[key] = index
			}
		}
	}

	if config.Release != nil {
		if config.Release.Owner == "" {
			issues = append(issues, "release.owner is required")
		}
		if config.Release.Repo == "" {
			issues = append(issues, "release.repo is required")
		}
		if config.Release.Tag == "" {
			issues = append(issues, "release.tag is required")
		}
		if config.Release.Name == "" {
			issues = append(issues, "release.name is required")
		}
	}

	if config.Toolchain.Timeout != "" {
		if _, err := time.ParseDuration(config.Toolchain.Timeout); err != nil {
			issues = append(issues, fmt.Sprintf("toolchain.timeout: invalid duration %q: %v", config.Toolchain.Timeout, err))
		}
	}
	if config.Commands.Timeout != "" {
		if _, err := time.ParseDuration(config.Commands.Timeout); err != nil {
			issues = append(issues, fmt.Sprintf("commands.timeout: invalid duration %q: %v", config.Commands.Timeout, err))
		}
	}

	return issues
}
