// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of a bundle file's contents.
type Hash [32]byte

// fileDomainKey is the 32-byte key for BLAKE3 keyed hashing of bundle
// files. It is a fixed constant — changing it invalidates every
// recorded digest. The byte values are the ASCII encoding of the
// domain name, zero-padded to 32 bytes, so the key is inspectable in
// hex dumps without sacrificing any cryptographic property.
var fileDomainKey = [32]byte{
	'c', 'o', 'n', 'v', 'e', 'y', 'o', 'r', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c',
	't', '.', 'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashBytes computes the file-domain BLAKE3 keyed hash of data.
func HashBytes(data []byte) Hash {
	hasher := newFileHasher()
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// HashFile computes the file-domain BLAKE3 keyed hash of the file at
// path, streaming its contents.
func HashFile(path string) (Hash, error) {
	var hash Hash
	file, err := os.Open(path)
	if err != nil {
		return hash, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := newFileHasher()
	if _, err := io.Copy(hasher, file); err != nil {
		return hash, fmt.Errorf("hashing %s: %w", path, err)
	}
	copy(hash[:], hasher.Sum(nil))
	return hash, nil
}

// FormatHash returns the hex-encoded string representation of a hash,
// the canonical format used in indexes and logs.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

func newFileHasher() *blake3.Hasher {
	// NewKeyed requires exactly 32 bytes, which the fixed-size key
	// guarantees, so the error cannot occur.
	hasher, err := blake3.NewKeyed(fileDomainKey[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}
