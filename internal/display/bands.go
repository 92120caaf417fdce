// SPDX-License-Identifier: MIT
package display

import (
	"math"

	"fftplot/internal/spectrum"
)

// Band is the level of one frequency band in a frame.
type Band struct {
	Name   string  `json:"name"`
	LowHz  float64 `json:"low_hz"`
	HighHz float64 `json:"high_hz"`
	Db     float64 `json:"db"`
}

// bandEdges are the named bands reported by Bands. The last band runs up to
// Nyquist.
var bandEdges = []Band{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: math.Inf(1)},
}

// Bands returns the RMS level of the smoothed spectrum in each named band,
// clamped to the axis dB range. Bands with no bins read MinDb.
func (a Axis) Bands(f *spectrum.Frame) []Band {
	bands := make([]Band, len(bandEdges))
	copy(bands, bandEdges)

	energy := make([]float64, len(bands))
	count := make([]int, len(bands))
	for k, mag := range f.Magnitudes {
		freq := f.BinFrequency(k)
		for i := range bands {
			if freq >= bands[i].LowHz && freq < bands[i].HighHz {
				energy[i] += mag * mag
				count[i]++
				break
			}
		}
	}

	for i := range bands {
		if bands[i].HighHz > f.Nyquist() {
			bands[i].HighHz = f.Nyquist()
		}
		bands[i].Db = a.MinDb
		if count[i] > 0 {
			rms := math.Sqrt(energy[i] / float64(count[i]))
			bands[i].Db = ClampDb(MagnitudeToDb(rms, f.FFTSize), a.MinDb, a.MaxDb)
		}
	}
	return bands
}

// Peak returns the bin with the largest smoothed magnitude at or above
// minFreq, with its frequency and level. ok is false for an empty or silent
// frame, which has no peak to show.
func Peak(f *spectrum.Frame, minFreq float64) (bin int, freq, db float64, ok bool) {
	bin = -1
	best := 0.0
	for k, mag := range f.Magnitudes {
		if f.BinFrequency(k) < minFreq {
			continue
		}
		if mag > best {
			best, bin = mag, k
		}
	}
	if bin < 0 {
		return 0, 0, math.Inf(-1), false
	}
	return bin, f.BinFrequency(bin), MagnitudeToDb(best, f.FFTSize), true
}
