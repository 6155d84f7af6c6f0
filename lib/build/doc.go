// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package build runs a job's test and build commands and reports where
// the build put its outputs.
//
// The executor enforces the pipeline's one hard ordering rule: the
// test command runs first, and a failing test means the build command
// is never invoked. There is no "build anyway" mode — a job either
// proves its tests pass and produces a binary, or it produces nothing.
//
// The dependency fetch step is the only cache-aware command: a job
// that restored a dependency cache hit skips it, since the fetch
// exists solely to populate what the cache already provided.
package build
