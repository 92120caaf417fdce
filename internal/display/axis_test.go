// SPDX-License-Identifier: MIT
package display

import (
	"math"
	"testing"

	"fftplot/internal/assert"
)

func TestFrequencyToXEndpoints(t *testing.T) {
	tests := []struct {
		minFreq, nyquist, width float64
	}{
		{20, 24000, 800},
		{20, 22050, 1},
		{1, 2, 100},
		{0.5, 96000, 1920},
	}

	for _, tt := range tests {
		if x := FrequencyToX(tt.minFreq, tt.minFreq, tt.nyquist, tt.width); x != 0 {
			t.Errorf("FrequencyToX(min) = %v, want 0 for %+v", x, tt)
		}
		if x := FrequencyToX(tt.nyquist, tt.minFreq, tt.nyquist, tt.width); x != tt.width {
			t.Errorf("FrequencyToX(nyquist) = %v, want %v for %+v", x, tt.width, tt)
		}
	}
}

func TestFrequencyToXClampsAndIsLogarithmic(t *testing.T) {
	const (
		minFreq = 20.0
		nyquist = 20480.0
		width   = 100.0
	)

	if x := FrequencyToX(5, minFreq, nyquist, width); x != 0 {
		t.Errorf("below range = %v, want 0", x)
	}
	if x := FrequencyToX(0, minFreq, nyquist, width); x != 0 {
		t.Errorf("DC = %v, want 0", x)
	}
	if x := FrequencyToX(30000, minFreq, nyquist, width); x != width {
		t.Errorf("above Nyquist = %v, want %v", x, width)
	}

	// 20..20480 is ten octaves, each one a tenth of the width.
	for octave := 0; octave <= 10; octave++ {
		freq := minFreq * math.Pow(2, float64(octave))
		want := width * float64(octave) / 10
		if x := FrequencyToX(freq, minFreq, nyquist, width); math.Abs(x-want) > 1e-9 {
			t.Errorf("FrequencyToX(%v) = %v, want %v", freq, x, want)
		}
	}
}

func TestXToFrequencyInvertsFrequencyToX(t *testing.T) {
	for _, freq := range []float64{20, 55, 440, 1000, 9999, 24000} {
		x := FrequencyToX(freq, 20, 24000, 640)
		if got := XToFrequency(x, 20, 24000, 640); math.Abs(got-freq) > 1e-6*freq {
			t.Errorf("round trip %v Hz -> x %v -> %v Hz", freq, x, got)
		}
	}
	if got := XToFrequency(-3, 20, 24000, 640); got != 20 {
		t.Errorf("x below 0 = %v, want 20", got)
	}
	if got := XToFrequency(700, 20, 24000, 640); got != 24000 {
		t.Errorf("x beyond width = %v, want 24000", got)
	}
}

func TestFrequencyToXFaults(t *testing.T) {
	if assert.Enabled {
		t.Skip("faults panic in debug builds")
	}
	tests := []struct {
		name                          string
		freq, minFreq, nyquist, width float64
	}{
		{"negative frequency", -1, 20, 24000, 100},
		{"zero min", 100, 0, 24000, 100},
		{"nyquist below min", 100, 20, 10, 100},
		{"NaN nyquist", 100, 20, math.NaN(), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if x := FrequencyToX(tt.freq, tt.minFreq, tt.nyquist, tt.width); x != 0 {
				t.Errorf("FrequencyToX = %v, want 0", x)
			}
		})
	}
}

func TestLevelToY(t *testing.T) {
	tests := []struct {
		name string
		db   float64
		want float64
	}{
		{"top", 0, 0},
		{"bottom", -80, 200},
		{"middle", -40, 100},
		{"above range", 12, 0},
		{"below range", -200, 200},
		{"silence", math.Inf(-1), 200},
		{"NaN", math.NaN(), 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelToY(tt.db, -80, 0, 200); got != tt.want {
				t.Errorf("LevelToY(%v) = %v, want %v", tt.db, got, tt.want)
			}
		})
	}
}

func TestSilenceMapsToBottom(t *testing.T) {
	for _, n := range []int{256, 2048, 65536} {
		db := MagnitudeToDb(0, n)
		if !math.IsInf(db, -1) {
			t.Fatalf("MagnitudeToDb(0, %d) = %v, want -Inf", n, db)
		}
		for _, height := range []float64{1, 37, 480} {
			if y := LevelToY(db, -80, 0, height); y != height {
				t.Errorf("LevelToY(-Inf, height %v) = %v, want bottom", height, y)
			}
		}
	}
}

func TestMagnitudeToDb(t *testing.T) {
	if db := MagnitudeToDb(2048, 2048); db != 0 {
		t.Errorf("MagnitudeToDb(N, N) = %v, want 0", db)
	}
	if db := MagnitudeToDb(204.8, 2048); math.Abs(db+20) > 1e-9 {
		t.Errorf("MagnitudeToDb(N/10, N) = %v, want -20", db)
	}
	if db := MagnitudeToDb(-1, 2048); !math.IsInf(db, -1) {
		t.Errorf("negative magnitude = %v, want -Inf", db)
	}
}
