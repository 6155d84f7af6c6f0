// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"strings"
	"testing"
)

// validConfig returns a minimal definition that passes validation.
// Tests mutate the returned value to introduce specific defects.
func validConfig() *Config {
	return &Config{
		Project:  "crunchy-cli",
		Lockfile: "Cargo.lock",
		Commands: CommandsConfig{
			Test:      "cargo test --all-features --target ${TARGET}",
			Build:     "cargo build --release --all-features --target ${TARGET}",
			OutputDir: "target",
		},
		Matrix: []Entry{
			{OS: "ubuntu-latest", Target: "x86_64-unknown-linux-gnu", Platform: "linux"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		mutate         func(*Config)
		expectedIssues int
		wantSubstrings []string
	}{
		{
			name:           "valid minimal definition",
			mutate:         func(c *Config) {},
			expectedIssues: 0,
		},
		{
			name: "valid multi-entry definition with release",
			mutate: func(c *Config) {
				c.Matrix = append(c.Matrix,
					Entry{OS: "ubuntu-latest", Target: "x86_64-unknown-linux-musl", Platform: "linux-musl"},
					Entry{OS: "windows-latest", Target: "x86_64-pc-windows-msvc", Platform: "windows", Ext: ".exe"},
				)
				c.Release = &ReleaseConfig{Owner: "crunchy-labs", Repo: "crunchy-cli", Tag: "v1", Name: "Nightly", Draft: true}
				c.Toolchain.Timeout = "10m"
				c.Commands.Timeout = "45m"
			},
			expectedIssues: 0,
		},
		{
			name:           "missing project",
			mutate:         func(c *Config) { c.Project = "" },
			expectedIssues: 1,
			wantSubstrings: []string{"project is required"},
		},
		{
			name:           "missing lockfile",
			mutate:         func(c *Config) { c.Lockfile = "" },
			expectedIssues: 1,
			wantSubstrings: []string{"lockfile is required"},
		},
		{
			name:           "empty matrix",
			mutate:         func(c *Config) { c.Matrix = nil },
			expectedIssues: 1,
			wantSubstrings: []string{"matrix has no entries"},
		},
		{
			name: "entry missing a dimension",
			mutate: func(c *Config) {
				c.Matrix = []Entry{{OS: "ubuntu-latest", Target: "x86_64-unknown-linux-gnu"}}
			},
			expectedIssues: 1,
			wantSubstrings: []string{"matrix[0]", "platform is required"},
		},
		{
			name: "duplicate os and target",
			mutate: func(c *Config) {
				c.Matrix = append(c.Matrix, c.Matrix[0])
			},
			expectedIssues: 1,
			wantSubstrings: []string{"duplicates matrix[0]"},
		},
		{
			name: "release section missing tag",
			mutate: func(c *Config) {
				c.Release = &ReleaseConfig{Owner: "crunchy-labs", Repo: "crunchy-cli", Name: "Nightly"}
			},
			expectedIssues: 1,
			wantSubstrings: []string{"release.tag is required"},
		},
		{
			name:           "unparseable timeout",
			mutate:         func(c *Config) { c.Commands.Timeout = "soon" },
			expectedIssues: 1,
			wantSubstrings: []string{"commands.timeout", "soon"},
		},
		{
			name: "multiple issues reported together",
			mutate: func(c *Config) {
				c.Project = ""
				c.Commands.Test = ""
				c.Matrix = nil
			},
			expectedIssues: 3,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			config := validConfig()
			test.mutate(config)

			issues := Validate(config)
			if len(issues) != test.expectedIssues {
				t.Errorf("got %d issues, want %d:\n  %s",
					len(issues), test.expectedIssues, strings.Join(issues, "\n  "))
			}

			joined := strings.Join(issues, "\n")
			for _, want := range test.wantSubstrings {
				if !strings.Contains(joined, want) {
					t.Errorf("issues missing substring %q:\n%s", want, joined)
				}
			}
		})
	}
}
