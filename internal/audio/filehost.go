// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"os"
	"time"

	"fftplot/internal/log"
	"fftplot/internal/spectrum"

	"github.com/go-audio/wav"
)

// FileHost stands in for the audio device: it holds a decoded WAV file and
// delivers it to the analyzer in host-sized blocks.
type FileHost struct {
	Path       string
	SampleRate float64
	Channels   int
	BitDepth   int
	samples    []float32 // interleaved, full scale at ±1
}

// LoadWAV decodes a PCM WAV file.
func LoadWAV(path string) (*FileHost, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%s has no usable format", path)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%s has unsupported bit depth %d", path, bitDepth)
	}

	scale := 1 / math.Exp2(float64(bitDepth-1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			v -= 128 // 8-bit PCM is unsigned
		}
		samples[i] = float32(float64(v) * scale)
	}

	h := &FileHost{
		Path:       path,
		SampleRate: float64(buf.Format.SampleRate),
		Channels:   buf.Format.NumChannels,
		BitDepth:   bitDepth,
		samples:    samples,
	}
	log.Infof("FileHost: Loaded %s (%d ch @ %.0f Hz, %d bit, %s)", path, h.Channels, h.SampleRate, bitDepth, h.Duration())
	return h, nil
}

// Frames returns the number of sample frames in the file.
func (h *FileHost) Frames() int {
	return len(h.samples) / h.Channels
}

// Duration returns the play time of the file.
func (h *FileHost) Duration() time.Duration {
	return time.Duration(float64(h.Frames()) / h.SampleRate * float64(time.Second))
}

// Blocks yields the file as interleaved blocks of framesPerBuffer frames. The
// last block may be shorter. Blocks share the decoded buffer.
func (h *FileHost) Blocks(framesPerBuffer int) iter.Seq[[]float32] {
	return func(yield func([]float32) bool) {
		step := max(framesPerBuffer, 1) * h.Channels
		for pos := 0; pos < len(h.samples); pos += step {
			if !yield(h.samples[pos:min(pos+step, len(h.samples))]) {
				return
			}
		}
	}
}

// Analyze prepares a at the file's rate, feeds every block and calls fn for
// each frame published along the way. Blocks longer than the FFT size are
// fed in window-sized pieces with the consumer drained after each, so every
// window is published. A cancelled ctx stops early with ctx.Err().
func (h *FileHost) Analyze(ctx context.Context, a *spectrum.Analyzer, framesPerBuffer int, fn func(*spectrum.Frame)) error {
	if a == nil {
		return errors.New("analyze requires an analyzer")
	}
	if err := a.Prepare(h.SampleRate); err != nil {
		return err
	}
	defer a.Release()

	// At most one window completes per piece.
	step := a.FFTSize() * h.Channels
	var frame spectrum.Frame
	for block := range h.Blocks(framesPerBuffer) {
		if err := ctx.Err(); err != nil {
			return err
		}
		for len(block) > 0 {
			n := min(len(block), step)
			a.ProcessBlock(block[:n], h.Channels)
			if a.TryConsume(&frame) {
				fn(&frame)
			}
			block = block[n:]
		}
	}
	return nil
}

// Play delivers blocks at the file's real-time rate, the way a device
// callback would, until the file ends or ctx is cancelled. rec may be nil.
func (h *FileHost) Play(ctx context.Context, a *spectrum.Analyzer, framesPerBuffer int, rec *Recorder) error {
	if err := a.Prepare(h.SampleRate); err != nil {
		return err
	}
	defer a.Release()

	period := time.Duration(float64(max(framesPerBuffer, 1)) / h.SampleRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for block := range h.Blocks(framesPerBuffer) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		a.ProcessBlock(block, h.Channels)
		if rec != nil {
			rec.Write(block)
		}
	}
	return nil
}
