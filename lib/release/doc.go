// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package release publishes job binaries to a draft GitHub release.
//
// The release is identified by its fixed tag, not by the triggering
// commit: every run looks the tag up and either updates the release
// it finds or creates it, so repeated runs converge on one release
// entry instead of accumulating new ones. Assets replace any existing
// asset of the same name, which makes concurrent jobs and re-runs
// last-writer-wins per asset name.
package release
