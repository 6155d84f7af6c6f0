// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolchain provisions the compiler toolchain a job needs
// before its build runs.
//
// Provisioning is declared in the pipeline definition as shell
// commands with ${TARGET} references: an optional probe whose zero
// exit means the toolchain is already present, the ordered install
// commands, and per-platform extra commands for system packages that
// only some matrix entries need (a musl static-linking toolset, for
// example). The probe makes Install idempotent — re-running a job on
// a warm runner skips the installs entirely.
package toolchain
