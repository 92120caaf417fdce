//go:build !debug

// SPDX-License-Identifier: MIT
package assert

import (
	"sync"

	"fftplot/internal/log"
)

// Enabled is true when faults panic.
const Enabled = false

var reported sync.Map

func fault(msg string) {
	if _, seen := reported.LoadOrStore(msg, struct{}{}); seen {
		return
	}
	log.Warnf("Assert: invariant violated, clamping: %s", msg)
}
