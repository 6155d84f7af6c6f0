// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import "golang.org/x/sys/unix"

// madviseDontdump excludes the mapping from core dumps.
func madviseDontdump(data []byte) error {
	return unix.Madvise(data, unix.MADV_DONTDUMP)
}
