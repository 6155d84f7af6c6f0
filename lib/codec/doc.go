// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides deterministic CBOR encoding for Conveyor's
// on-disk metadata (cache manifests, artifact indexes). Deterministic
// encoding means the same logical data always produces identical
// bytes, so metadata files can be compared and digested byte-for-byte.
package codec
