// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree framework for the conveyor
// binary: declarative Command structs with pflag flag sets, nested
// subcommand dispatch, structured help output, and typo suggestions
// for unknown commands and flags.
package cli
