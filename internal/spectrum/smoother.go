// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"

	"fftplot/internal/assert"
)

// MinSmoothingTimeMs is the smoothing time below which smoothing is off.
// Anything shorter maps to a leak of exactly zero rather than a vanishing
// exponent.
const MinSmoothingTimeMs = 0.1

// LeakCoefficient derives the per-window smoothing factor from a smoothing
// time in milliseconds:
//
//	leak = exp(-N / (T * 0.001 * fs))
//
// It is the decay a single window of N samples contributes to a one-pole
// filter with time constant T. The result is always in [0, 1]; anything else
// is reported through assert and clamped.
func LeakCoefficient(smoothingTimeMs, sampleRate float64, fftSize int) float64 {
	if !(smoothingTimeMs >= MinSmoothingTimeMs) {
		return 0
	}

	leak := math.Exp(-float64(fftSize) / (smoothingTimeMs * 0.001 * sampleRate))
	if !assert.InRange("leak coefficient", leak, 0, 1) {
		return clampUnit(leak)
	}
	return leak
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Smooth blends instant into state: state[k] = leak*state[k] + (1-leak)*instant[k].
// leak 0 copies instant; leak close to 1 barely moves state.
func Smooth(state, instant []float64, leak float64) {
	n := min(len(state), len(instant))
	gain := 1 - leak
	for k := 0; k < n; k++ {
		state[k] = leak*state[k] + gain*instant[k]
	}
}

// Hold updates a max-hold envelope: each bin takes the larger of the current
// level and the previous hold value decayed by decay.
func Hold(hold, level []float64, decay float64) {
	n := min(len(hold), len(level))
	for k := 0; k < n; k++ {
		held := hold[k] * decay
		if level[k] > held {
			held = level[k]
		}
		hold[k] = held
	}
}
