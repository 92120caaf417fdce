// Package utils holds signal generators and spectrum helpers shared by the
// tests and the `analyze` command.
package utils

import "math"

// GenerateComplexWave returns a 440 Hz tone with its second and third
// harmonics, peaking at 0.9 full scale.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns size samples of a sine at frequency Hz with the
// given peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
	return buffer
}

// Interleave packs per-channel buffers into one frame-interleaved buffer the
// way an audio callback delivers them. All channels must have equal length.
func Interleave(channels ...[]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]float32, frames*len(channels))
	for f := 0; f < frames; f++ {
		for c, ch := range channels {
			out[f*len(channels)+c] = ch[f]
		}
	}
	return out
}

// Chunk splits samples into consecutive blocks whose sizes cycle through
// sizes. The final block holds whatever is left.
func Chunk(samples []float32, sizes ...int) [][]float32 {
	if len(sizes) == 0 {
		return [][]float32{samples}
	}
	var blocks [][]float32
	for i, pos := 0, 0; pos < len(samples); i++ {
		n := sizes[i%len(sizes)]
		if n <= 0 {
			n = 1
		}
		end := min(pos+n, len(samples))
		blocks = append(blocks, samples[pos:end])
		pos = end
	}
	return blocks
}

// FindPeakBin returns the index of the largest magnitude in the inclusive
// range [startBin, endBin], clamped to the slice bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// ExpectedBin is the bin a pure tone at frequency lands in for an fftSize
// point transform at sampleRate.
func ExpectedBin(frequency, sampleRate float64, fftSize int) int {
	return int(math.Round(frequency * float64(fftSize) / sampleRate))
}
