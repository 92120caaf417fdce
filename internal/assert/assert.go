// SPDX-License-Identifier: MIT
//
// Package assert reports broken invariants: values that can only be wrong
// because of a logic defect, never because of input from the host.
//
// Builds with the `debug` tag panic on the first fault. Release builds log the
// fault once per message and return, and the caller clamps to a safe value.
package assert

import "fmt"

// That reports a fault when cond is false.
func That(cond bool, format string, args ...any) bool {
	if !cond {
		Fault(format, args...)
	}
	return cond
}

// InRange reports a fault when v is NaN or outside [lo, hi].
func InRange(name string, v, lo, hi float64) bool {
	return That(v >= lo && v <= hi, "%s = %v outside [%v, %v]", name, v, lo, hi)
}

// Fault reports a broken invariant.
func Fault(format string, args ...any) {
	fault(fmt.Sprintf(format, args...))
}
