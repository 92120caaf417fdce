// SPDX-License-Identifier: MIT
/*
Package display maps a published spectrum onto a drawing surface.

The mapping functions are pure and safe to call from any goroutine:

  - FrequencyToX places a frequency on a logarithmic horizontal axis
  - LevelToY places a dB level on an inverted vertical axis
  - MagnitudeToDb converts raw transform magnitudes to dB full scale

Axis combines them into a lazy curve over one Frame. Nothing in this package
ever yields an infinite or NaN coordinate.
*/
package display

import (
	"math"

	"fftplot/internal/assert"
)

// FrequencyToX maps freq onto [0, width] logarithmically between minFreq and
// nyquist. Frequencies below minFreq map to 0 and above nyquist to width.
// A negative frequency or an empty range is a fault and maps to 0.
func FrequencyToX(freq, minFreq, nyquist, width float64) float64 {
	if !assert.That(minFreq > 0 && nyquist > minFreq, "frequency axis [%v, %v] is empty", minFreq, nyquist) {
		return 0
	}
	if !assert.That(freq >= 0, "negative frequency %v on the frequency axis", freq) {
		return 0
	}

	switch {
	case freq <= minFreq:
		return 0
	case freq >= nyquist:
		return width
	}
	return width * (math.Log(freq) - math.Log(minFreq)) / (math.Log(nyquist) - math.Log(minFreq))
}

// XToFrequency is the inverse of FrequencyToX. x is clamped to [0, width].
func XToFrequency(x, minFreq, nyquist, width float64) float64 {
	if !assert.That(minFreq > 0 && nyquist > minFreq, "frequency axis [%v, %v] is empty", minFreq, nyquist) {
		return 0
	}
	if !(width > 0) || !(x > 0) {
		return minFreq
	}
	if x >= width {
		return nyquist
	}
	return minFreq * math.Exp(x/width*(math.Log(nyquist)-math.Log(minFreq)))
}

// LevelToY maps a dB level onto [0, height], maxDb at the top (0) and minDb
// at the bottom (height). Levels are clamped first; NaN counts as minDb.
func LevelToY(db, minDb, maxDb, height float64) float64 {
	if !assert.That(maxDb > minDb, "level axis [%v, %v] is empty", minDb, maxDb) {
		return height
	}
	db = ClampDb(db, minDb, maxDb)
	return (maxDb - db) / (maxDb - minDb) * height
}

// ClampDb limits db to [minDb, maxDb]. NaN and -Inf become minDb.
func ClampDb(db, minDb, maxDb float64) float64 {
	switch {
	case math.IsNaN(db), db < minDb:
		return minDb
	case db > maxDb:
		return maxDb
	}
	return db
}

// MagnitudeToDb converts a transform magnitude to dB relative to the
// transform size. A magnitude of 0 is -Inf and must be clamped before use.
func MagnitudeToDb(magnitude float64, fftSize int) float64 {
	if magnitude <= 0 {
		return math.Inf(-1)
	}
	return 20*math.Log10(magnitude) - 20*math.Log10(float64(fftSize))
}
