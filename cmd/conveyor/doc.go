// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Conveyor is a matrix build and release pipeline runner. It resolves
// a pipeline definition into per-platform jobs, provisions toolchains,
// restores and saves dependency caches, runs tests and builds, stores
// build artifacts, and publishes binaries to a GitHub release.
package main
