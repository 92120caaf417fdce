// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"math/rand"
	"testing"

	"fftplot/internal/assert"
)

func TestLeakCoefficientBelowThresholdIsExactlyZero(t *testing.T) {
	for _, ms := range []float64{0.05, 0, 0.0999, -10, math.NaN()} {
		if got := LeakCoefficient(ms, 44100, 2048); got != 0 {
			t.Errorf("LeakCoefficient(%v) = %v, want exactly 0", ms, got)
		}
	}
}

func TestLeakCoefficientFormula(t *testing.T) {
	tests := []struct {
		ms float64
		fs float64
		n  int
	}{
		{250, 44100, 2048},
		{0.1, 48000, 2048},
		{500, 96000, 4096},
		{10, 8000, 256},
	}

	for _, tt := range tests {
		want := math.Exp(-float64(tt.n) / (tt.ms * 0.001 * tt.fs))
		got := LeakCoefficient(tt.ms, tt.fs, tt.n)
		if math.Abs(got-want) > 1e-15 {
			t.Errorf("LeakCoefficient(%v, %v, %d) = %v, want %v", tt.ms, tt.fs, tt.n, got, want)
		}
		if got < 0 || got > 1 {
			t.Errorf("LeakCoefficient(%v, %v, %d) = %v outside [0,1]", tt.ms, tt.fs, tt.n, got)
		}
	}
}

func TestLeakCoefficientMonotonicTowardsOne(t *testing.T) {
	prev := 0.0
	for ms := 0.1; ms < 1e9; ms *= 1.5 {
		leak := LeakCoefficient(ms, 48000, 2048)
		if leak < prev {
			t.Fatalf("leak decreased from %v to %v at %v ms", prev, leak, ms)
		}
		prev = leak
	}
	if prev < 0.9999 {
		t.Errorf("leak for very long smoothing = %v, want close to 1", prev)
	}
}

func TestLeakCoefficientClampsInvalidRate(t *testing.T) {
	if assert.Enabled {
		t.Skip("faults panic in debug builds")
	}
	if got := LeakCoefficient(250, -44100, 2048); got != 1 {
		t.Errorf("negative sample rate leak = %v, want clamp to 1", got)
	}
	if got := LeakCoefficient(250, 0, 2048); got != 0 {
		t.Errorf("zero sample rate leak = %v, want 0", got)
	}
}

func TestSmoothIsConvex(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const bins = 64

	for trial := 0; trial < 200; trial++ {
		leak := rng.Float64()
		if trial%10 == 0 {
			leak = float64(trial / 10 % 2)
		}
		prev := make([]float64, bins)
		instant := make([]float64, bins)
		for k := range prev {
			prev[k] = rng.Float64() * 1000
			instant[k] = rng.Float64() * 1000
		}
		state := append([]float64(nil), prev...)

		Smooth(state, instant, leak)

		for k := range state {
			lo := math.Min(prev[k], instant[k])
			hi := math.Max(prev[k], instant[k])
			eps := 1e-9 * hi
			if state[k] < lo-eps || state[k] > hi+eps {
				t.Fatalf("leak %v bin %d: %v not between %v and %v", leak, k, state[k], prev[k], instant[k])
			}
		}
	}
}

func TestSmoothEndpoints(t *testing.T) {
	instant := []float64{1, 2, 3}

	state := []float64{9, 9, 9}
	Smooth(state, instant, 0)
	for k := range state {
		if state[k] != instant[k] {
			t.Errorf("leak 0: state[%d] = %v, want %v", k, state[k], instant[k])
		}
	}

	state = []float64{9, 9, 9}
	Smooth(state, instant, 1)
	for k := range state {
		if state[k] != 9 {
			t.Errorf("leak 1: state[%d] = %v, want unchanged", k, state[k])
		}
	}
}

func TestHold(t *testing.T) {
	hold := []float64{0, 10, 10}
	Hold(hold, []float64{5, 2, 20}, 0.5)

	want := []float64{5, 5, 20}
	for k := range want {
		if hold[k] != want[k] {
			t.Errorf("hold[%d] = %v, want %v", k, hold[k], want[k])
		}
	}
}
