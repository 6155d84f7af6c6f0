// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package depcache

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest of lockfile content.
type Digest [32]byte

// lockfileDomainKey is the 32-byte key for BLAKE3 keyed hashing of
// lockfile content. Domain separation ensures lockfile digests can
// never collide with hashes computed in other Conveyor contexts.
// The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes — readable in hex dumps without
// sacrificing any cryptographic property.
var lockfileDomainKey = [32]byte{
	'c', 'o', 'n', 'v', 'e', 'y', 'o', 'r', '.', 'c', 'a', 'c', 'h', 'e', '.',
	'l', 'o', 'c', 'k', 'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Key addresses one cache entry. The OS identifier is part of the key
// precisely so that entries never cross OS dimensions.
type Key struct {
	// OS is the job's operating-system identifier.
	OS string

	// Digest is the keyed BLAKE3 digest of (OS, lockfile content).
	Digest Digest
}

// Compute derives the cache key for a lockfile on the given OS. The
// OS identifier is written into the keyed hash, length-prefixed by a
// NUL separator, before the lockfile bytes — concatenation ambiguity
// between OS and content cannot produce equal digests.
func Compute(osID string, lockfile []byte) Key {
	hasher, err := blake3.NewKeyed(lockfileDomainKey[:])
	if err != nil {
		panic("depcache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(osID))
	hasher.Write([]byte{0})
	hasher.Write(lockfile)

	var key Key
	key.OS = osID
	copy(key.Digest[:], hasher.Sum(nil))
	return key
}

// String returns the entry name: "<os>-<hex digest>". It is safe for
// use as a filename component.
func (key Key) String() string {
	return sanitizeOS(key.OS) + "-" + hex.EncodeToString(key.Digest[:])
}

// Short returns an abbreviated form for log lines.
func (key Key) Short() string {
	return fmt.Sprintf("%s-%s", sanitizeOS(key.OS), hex.EncodeToString(key.Digest[:6]))
}

// sanitizeOS maps an OS identifier to a filename-safe token.
func sanitizeOS(osID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, osID)
}
