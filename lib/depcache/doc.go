// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package depcache caches a job's dependency directory between
// pipeline runs, keyed by the content digest of the dependency
// lockfile and the job's operating system.
//
// The key is deterministic: the same lockfile bytes on the same OS
// always produce the same key, and any lockfile change produces a new
// key — cache invalidation is purely content-driven. The OS is both
// mixed into the digest and kept as a readable key prefix, so a cache
// built on one OS can never be restored into a job running a
// different toolchain ABI, even in the (overwhelmingly unlikely)
// event of a digest collision.
//
// Entries are tar archives compressed with zstd (lz4 and uncompressed
// entries are also readable), stored alongside a deterministic CBOR
// manifest. Saves replace the entry atomically, so an entry is
// refreshed on every run and a reader never observes a partial write.
// Eviction is the storage backend's concern; nothing here deletes.
package depcache
