// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the conveyor CLI command tree.
package commands

import (
	"fmt"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/version"
)

// Root builds and returns the complete conveyor CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "conveyor",
		Description: `Conveyor: a matrix build and release pipeline runner.

Resolve a build matrix into per-platform jobs, run each job's cache,
toolchain, test, build, and publication stages, and converge the
results onto a draft release.`,
		Subcommands: []*cli.Command{
			runCommand(),
			validateCommand(),
			cacheCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("conveyor %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Run the pipeline for a manual dispatch",
				Command:     "conveyor run",
			},
			{
				Description: "Run for a platform-delivered trigger event",
				Command:     "conveyor run --trigger event.json",
			},
			{
				Description: "Check a definition without running anything",
				Command:     "conveyor validate --definition conveyor.jsonc",
			},
			{
				Description: "Show the dependency cache key a job would use",
				Command:     "conveyor cache key --os ubuntu-latest Cargo.lock",
			},
		},
	}
}
