//go:build debug

// SPDX-License-Identifier: MIT
package assert

// Enabled is true when faults panic.
const Enabled = true

func fault(msg string) {
	panic("invariant violated: " + msg)
}
