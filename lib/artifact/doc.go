// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact collects a job's build products into named bundles
// and publishes them to an artifact store.
//
// Each job publishes three bundles: the release binary (under its
// platform-qualified name), the generated manual pages, and the
// generated shell completions. A required bundle that collects zero
// files is a hard error — a build that "succeeded" without producing
// its outputs is a broken build, and publishing nothing would hide
// that.
//
// The included DirStore writes bundles to a local directory tree and
// records a CBOR index of BLAKE3 file digests alongside each bundle,
// so consumers can verify what they download against what the job
// produced.
package artifact
