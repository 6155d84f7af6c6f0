// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package secret

// madviseDontdump is a no-op on darwin, which has no MADV_DONTDUMP.
// The buffer is still mlock'd against swap.
func madviseDontdump(data []byte) error {
	return nil
}
