// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/conveyor-ci/conveyor/cmd/conveyor/cli"
	"github.com/conveyor-ci/conveyor/lib/matrix"
)

func validateCommand() *cli.Command {
	var definitionPath string

	return &cli.Command{
		Name:    "validate",
		Summary: "Check a pipeline definition",
		Description: `Parse a pipeline definition and report every problem it contains
without running anything. Exits non-zero when the definition has
issues.`,
		Usage: "conveyor validate [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.StringVarP(&definitionPath, "definition", "d", "conveyor.jsonc", "pipeline definition file")
			return flagSet
		},
		Run: func(args []string) error {
			definition, err := matrix.ReadFile(definitionPath)
			if err != nil {
				return err
			}
			issues := matrix.Validate(definition)
			for _, issue := range issues {
				fmt.Printf("[validate] %s: %s\n", definitionPath, issue)
			}
			if len(issues) > 0 {
				return &cli.ExitError{Code: 1}
			}
			fmt.Printf("[validate] %s: ok (%s, %d matrix entr%s)\n",
				definitionPath, definition.Project, len(definition.Matrix),
				plural(len(definition.Matrix), "y", "ies"))
			return nil
		},
	}
}

func plural(count int, one, many string) string {
	if count == 1 {
		return one
	}
	return many
}
