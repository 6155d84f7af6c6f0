// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package matrix provides parsing, validation, and resolution of
// Conveyor pipeline definitions. A definition declares the build
// matrix (one entry per OS/target/platform tuple), the commands run
// for every job, the toolchain provisioning rules, the dependency
// lockfile, and the optional release section.
//
// Definitions are authored on disk as JSONC files (JSON extended with
// comments and trailing commas). The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Config
//  2. Validate: structural checks (required dimensions, duplicate
//     entries, parseable timeouts)
//  3. Resolve: Config → one immutable JobSpec per matrix entry, with
//     all variables resolved up front
//
// Validation failures are configuration errors: they are reported
// before any job starts and block the whole run, never a single job.
package matrix
