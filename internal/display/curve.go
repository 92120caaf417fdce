// SPDX-License-Identifier: MIT
package display

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"fftplot/internal/spectrum"
)

// Mode selects how spectrum bins are spread along the x axis.
type Mode int

const (
	// ModeLog samples Points positions evenly in x and interpolates the
	// spectrum at the frequency under each one.
	ModeLog Mode = iota
	// ModeBins yields one point per bin.
	ModeBins
	// ModeSkewed spreads Points linearly in x over a skewed bin index,
	// the classic scope look: low bins get most of the width.
	ModeSkewed
)

// skew is the exponent of the skewed bin mapping.
const skew = 0.2

func (m Mode) String() string {
	switch m {
	case ModeLog:
		return "log"
	case ModeBins:
		return "bins"
	case ModeSkewed:
		return "skewed"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a name to a Mode. Unknown names return ModeLog and an error.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "log", "":
		return ModeLog, nil
	case "bins":
		return ModeBins, nil
	case "skewed":
		return ModeSkewed, nil
	}
	return ModeLog, fmt.Errorf("unknown display mode: '%s'", name)
}

// Point is one vertex of a display curve.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Frequency float64 `json:"hz"`
	Db        float64 `json:"db"` // clamped to the axis range
}

// Axis describes the drawing surface.
type Axis struct {
	MinFrequency float64 // left edge in Hz
	MinDb        float64 // bottom edge
	MaxDb        float64 // top edge
	Width        float64
	Height       float64
	Points       int // resolution for ModeLog and ModeSkewed
	Mode         Mode
}

// Display defaults.
const (
	DefaultMinFrequency = 20.0
	DefaultMinDb        = -100.0
	DefaultMaxDb        = 0.0
	DefaultPoints       = 512
)

// DefaultAxis returns a unit-sized log axis spanning 20 Hz to Nyquist and
// -100 to 0 dB.
func DefaultAxis() Axis {
	return Axis{
		MinFrequency: DefaultMinFrequency,
		MinDb:        DefaultMinDb,
		MaxDb:        DefaultMaxDb,
		Width:        1,
		Height:       1,
		Points:       DefaultPoints,
		Mode:         ModeLog,
	}
}

// Curve yields the smoothed spectrum of f as display points. The sequence is
// computed lazily from f each time it is ranged over, so callers must not
// mutate f while iterating. An unusable frame or axis yields nothing.
func (a Axis) Curve(f *spectrum.Frame) iter.Seq[Point] {
	return a.curve(f, f.Magnitudes)
}

// HoldCurve yields the max-hold envelope of f.
func (a Axis) HoldCurve(f *spectrum.Frame) iter.Seq[Point] {
	return a.curve(f, f.MaxHold)
}

func (a Axis) usable(f *spectrum.Frame, mags []float64) bool {
	return len(mags) > 0 && f.FFTSize > 0 &&
		a.MinFrequency > 0 && f.Nyquist() > a.MinFrequency &&
		a.MaxDb > a.MinDb && a.Width > 0 && a.Height >= 0
}

func (a Axis) curve(f *spectrum.Frame, mags []float64) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		if !a.usable(f, mags) {
			return
		}
		switch a.Mode {
		case ModeBins:
			a.bins(f, mags, yield)
		case ModeSkewed:
			a.skewed(f, mags, yield)
		default:
			a.logScale(f, mags, yield)
		}
	}
}

func (a Axis) point(x, freq, mag float64, fftSize int) Point {
	db := ClampDb(MagnitudeToDb(mag, fftSize), a.MinDb, a.MaxDb)
	return Point{
		X:         x,
		Y:         LevelToY(db, a.MinDb, a.MaxDb, a.Height),
		Frequency: freq,
		Db:        db,
	}
}

func (a Axis) points() int {
	if a.Points >= 2 {
		return a.Points
	}
	return max(2, int(a.Width))
}

func (a Axis) bins(f *spectrum.Frame, mags []float64, yield func(Point) bool) {
	nyquist := f.Nyquist()
	for k, mag := range mags {
		freq := f.BinFrequency(k)
		x := FrequencyToX(freq, a.MinFrequency, nyquist, a.Width)
		if !yield(a.point(x, freq, mag, f.FFTSize)) {
			return
		}
	}
}

func (a Axis) logScale(f *spectrum.Frame, mags []float64, yield func(Point) bool) {
	nyquist := f.Nyquist()
	n := a.points()
	binHz := f.SampleRate / float64(f.FFTSize)

	for i := 0; i < n; i++ {
		x := a.Width * float64(i) / float64(n-1)
		freq := XToFrequency(x, a.MinFrequency, nyquist, a.Width)
		if !yield(a.point(x, freq, interpolate(mags, freq/binHz), f.FFTSize)) {
			return
		}
	}
}

func (a Axis) skewed(f *spectrum.Frame, mags []float64, yield func(Point) bool) {
	n := a.points()
	last := len(mags) - 1

	for i := 0; i < n; i++ {
		proportion := 1 - math.Exp(math.Log(1-float64(i)/float64(n))*skew)
		k := min(max(int(proportion*float64(len(mags))), 0), last)
		x := a.Width * float64(i) / float64(n-1)
		if !yield(a.point(x, f.BinFrequency(k), mags[k], f.FFTSize)) {
			return
		}
	}
}

// interpolate reads mags at a fractional bin position.
func interpolate(mags []float64, pos float64) float64 {
	last := len(mags) - 1
	switch {
	case !(pos > 0):
		return mags[0]
	case pos >= float64(last):
		return mags[last]
	}
	k := int(pos)
	frac := pos - float64(k)
	return mags[k]*(1-frac) + mags[k+1]*frac
}
