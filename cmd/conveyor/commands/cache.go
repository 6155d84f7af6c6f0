// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/depcache"
)

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:    "cache",
		Summary: "Inspect the dependency cache",
		Usage:   "conveyor cache <subcommand>",
		Subcommands: []*cli.Command{
			cacheKeyCommand(),
		},
	}
}

func cacheKeyCommand() *cli.Command {
	var osID string

	return &cli.Command{
		Name:    "key",
		Summary: "Print the cache key for a lockfile",
		Description: `Compute the dependency cache key a job would use: the keyed digest
of the lockfile, scoped to the runner OS. Useful for checking whether
two runs would share a cache entry.`,
		Usage: "conveyor cache key --os <os> <lockfile>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("key", pflag.ContinueOnError)
			flagSet.StringVar(&osID, "os", "", "runner OS the key is scoped to (required)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: conveyor cache key --os <os> <lockfile>")
			}
			if osID == "" {
				return fmt.Errorf("--os is required: cache entries never cross operating systems")
			}
			lockfile, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading lockfile: %w", err)
			}
			fmt.Println(depcache.Compute(osID, lockfile))
			return nil
		},
	}
}
