// SPDX-License-Identifier: MIT
/*
Package spectrum is the real-time core of the analyzer:

  - Accumulator collects host samples into a fixed window
  - Transform windows a copy and computes N/2 bin magnitudes (gonum FFT)
  - Smooth blends each transform into a running spectrum using a leak
    coefficient derived from the smoothing time
  - FrameGate hands the smoothed spectrum to one periodic consumer

Thread Safety:
  - ProcessBlock runs on the audio thread: no locks, no allocation, bounded
  - TryConsume runs on the consumer: never waits on the producer
  - SetSmoothingTime may be called from any goroutine; the coefficient is
    replaced with a single atomic store
  - Prepare and Release follow the host's session lifecycle and must not
    overlap a ProcessBlock call
*/
package spectrum

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"fftplot/pkg/bitint"
)

// Defaults taken from the analyzer's parameter layout.
const (
	DefaultFFTOrder        = 11
	DefaultFFTSize         = 1 << DefaultFFTOrder // 2048
	DefaultSmoothingTimeMs = 250.0
	MaxSmoothingTimeMs     = 500.0
	DefaultHoldReleaseMs   = 1500.0
	MinFFTSize             = 16
	MaxFFTSize             = 1 << 16
)

// AnalyzerConfig fixes the shape of an analysis session.
type AnalyzerConfig struct {
	FFTSize         int        // window length N, power of two
	Window          WindowFunc // tapering function
	SmoothingTimeMs float64    // initial smoothing time
	HoldReleaseMs   float64    // max-hold fall time constant, 0 disables holding
	Channel         int        // channel analysed within interleaved blocks
}

// DefaultAnalyzerConfig returns a 2048 point Hann analyzer with 250 ms smoothing.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		FFTSize:         DefaultFFTSize,
		Window:          Hann,
		SmoothingTimeMs: DefaultSmoothingTimeMs,
		HoldReleaseMs:   DefaultHoldReleaseMs,
	}
}

// Frame is a consumer-side snapshot of one completed smoothing pass.
type Frame struct {
	Magnitudes []float64 // smoothed spectrum, N/2 bins
	MaxHold    []float64 // max-hold envelope, N/2 bins
	SampleRate float64
	FFTSize    int
	Sequence   uint64 // number of frames published in this session
	Window     uint64 // windows completed in this session, dropped ones included
}

// Bins returns the number of magnitude bins.
func (f *Frame) Bins() int {
	return len(f.Magnitudes)
}

// Nyquist returns half the sample rate.
func (f *Frame) Nyquist() float64 {
	return f.SampleRate / 2
}

// BinFrequency returns the centre frequency of bin k in Hz.
func (f *Frame) BinFrequency(k int) float64 {
	if f.FFTSize == 0 {
		return 0
	}
	return float64(k) * f.SampleRate / float64(f.FFTSize)
}

// Elapsed returns the stream time at the end of the frame's window.
func (f *Frame) Elapsed() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(f.Window) * float64(f.FFTSize) / f.SampleRate * float64(time.Second))
}

// Clone returns a deep copy, for sinks that keep a frame past Send.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Magnitudes = append([]float64(nil), f.Magnitudes...)
	c.MaxHold = append([]float64(nil), f.MaxHold...)
	return &c
}

// Stats counts producer activity since the analyzer was created.
type Stats struct {
	Windows   uint64 // full windows accumulated
	Published uint64 // windows transformed and published
	Dropped   uint64 // windows skipped because the consumer had not drained
}

// session is everything that is rebuilt when the host prepares a stream.
type session struct {
	sampleRate float64
	acc        *Accumulator
	xform      *Transform
	instant    []float64
	smoothed   []float64
	hold       []float64
	holdDecay  float64
	leak       atomic.Uint64 // float64 bits
	gate       FrameGate
	windows    uint64 // producer only
	sequence   uint64 // guarded by gate
	window     uint64 // guarded by gate
}

// compute runs transform, smoothing and hold for the window that just filled.
// The caller owns the gate.
func (s *session) compute() {
	s.xform.Magnitudes(s.instant, s.acc.Window())
	Smooth(s.smoothed, s.instant, math.Float64frombits(s.leak.Load()))
	Hold(s.hold, s.smoothed, s.holdDecay)
	s.sequence++
	s.window = s.windows
}

// Analyzer owns the producer/consumer handoff for one analysis stream.
type Analyzer struct {
	cfg         AnalyzerConfig
	session     atomic.Pointer[session]
	smoothingMs atomic.Uint64 // float64 bits

	windows   atomic.Uint64
	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewAnalyzer validates cfg. The analyzer does nothing until Prepare.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(cfg.FFTSize) || cfg.FFTSize < MinFFTSize || cfg.FFTSize > MaxFFTSize {
		return nil, fmt.Errorf("fft size must be a power of 2 in [%d, %d], got %d", MinFFTSize, MaxFFTSize, cfg.FFTSize)
	}
	if cfg.Channel < 0 {
		return nil, fmt.Errorf("analyzed channel must be non-negative, got %d", cfg.Channel)
	}
	if cfg.HoldReleaseMs < 0 || math.IsNaN(cfg.HoldReleaseMs) {
		return nil, fmt.Errorf("hold release must be non-negative, got %v", cfg.HoldReleaseMs)
	}

	a := &Analyzer{cfg: cfg}
	a.smoothingMs.Store(math.Float64bits(cfg.SmoothingTimeMs))
	return a, nil
}

// Prepare starts a new session at sampleRate: the window, the smoothed
// spectrum and the hold envelope start from zero and the leak coefficient is
// derived for the new rate. It allocates and must not run concurrently with
// ProcessBlock.
func (a *Analyzer) Prepare(sampleRate float64) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}

	xform, err := NewTransform(a.cfg.FFTSize, a.cfg.Window)
	if err != nil {
		return err
	}

	bins := xform.Bins()
	s := &session{
		sampleRate: sampleRate,
		acc:        NewAccumulator(a.cfg.FFTSize),
		xform:      xform,
		instant:    make([]float64, bins),
		smoothed:   make([]float64, bins),
		hold:       make([]float64, bins),
		holdDecay:  LeakCoefficient(a.cfg.HoldReleaseMs, sampleRate, a.cfg.FFTSize),
	}
	a.session.Store(s)

	// A SetSmoothingTime racing the store may have updated the old session
	// only; derive again until the smoothing time read is stable.
	for {
		ms := a.smoothingMs.Load()
		s.leak.Store(math.Float64bits(LeakCoefficient(math.Float64frombits(ms), sampleRate, a.cfg.FFTSize)))
		if a.smoothingMs.Load() == ms {
			break
		}
	}
	return nil
}

// Release ends the session. ProcessBlock becomes a no-op until the next
// Prepare, and TryConsume reports no frames.
func (a *Analyzer) Release() {
	a.session.Store(nil)
}

// Prepared reports whether a session is active.
func (a *Analyzer) Prepared() bool {
	return a.session.Load() != nil
}

// SampleRate returns the active session's sample rate, or 0.
func (a *Analyzer) SampleRate() float64 {
	if s := a.session.Load(); s != nil {
		return s.sampleRate
	}
	return 0
}

// FFTSize returns N.
func (a *Analyzer) FFTSize() int {
	return a.cfg.FFTSize
}

// Bins returns N/2.
func (a *Analyzer) Bins() int {
	return a.cfg.FFTSize / 2
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() AnalyzerConfig {
	return a.cfg
}

// SetSmoothingTime applies a new smoothing time in milliseconds. The leak
// coefficient of the live session is replaced atomically and is picked up by
// the next window.
func (a *Analyzer) SetSmoothingTime(ms float64) {
	a.smoothingMs.Store(math.Float64bits(ms))
	if s := a.session.Load(); s != nil {
		s.leak.Store(math.Float64bits(LeakCoefficient(ms, s.sampleRate, a.cfg.FFTSize)))
	}
}

// SmoothingTime returns the last applied smoothing time in milliseconds.
func (a *Analyzer) SmoothingTime() float64 {
	return math.Float64frombits(a.smoothingMs.Load())
}

// Leak returns the live session's leak coefficient, or 0 when unprepared.
func (a *Analyzer) Leak() float64 {
	if s := a.session.Load(); s != nil {
		return math.Float64frombits(s.leak.Load())
	}
	return 0
}

// ProcessBlock consumes one host block of interleaved samples with the given
// channel count. Only the configured channel is analysed.
//
// Performance Critical (Hot Path):
//   - No allocations, no locks, one pass over the block
//   - A full window is always consumed; if the consumer still holds the last
//     frame the transform is skipped and counted as dropped
func (a *Analyzer) ProcessBlock(in []float32, channels int) {
	s := a.session.Load()
	if s == nil {
		return
	}
	if channels < 1 {
		channels = 1
	}
	ch := a.cfg.Channel
	if ch >= channels {
		ch = 0
	}

	for i := ch; i < len(in); i += channels {
		if !s.acc.Push(float64(in[i])) {
			continue
		}

		a.windows.Add(1)
		s.windows++
		if s.gate.TryBeginFrame() {
			s.compute()
			s.gate.Publish()
			a.published.Add(1)
		} else {
			a.dropped.Add(1)
		}
		s.acc.Reset()
	}
}

// TryConsume copies the published frame into dst and hands the buffers back
// to the producer. It returns false, leaving dst untouched, when no new frame
// is ready. dst's slices are reused when large enough.
func (a *Analyzer) TryConsume(dst *Frame) bool {
	s := a.session.Load()
	if s == nil || !s.gate.TryConsumeFrame() {
		return false
	}

	dst.Magnitudes = append(dst.Magnitudes[:0], s.smoothed...)
	dst.MaxHold = append(dst.MaxHold[:0], s.hold...)
	dst.SampleRate = s.sampleRate
	dst.FFTSize = s.xform.Size()
	dst.Sequence = s.sequence
	dst.Window = s.window

	s.gate.Release()
	return true
}

// Stats returns the producer counters.
func (a *Analyzer) Stats() Stats {
	return Stats{
		Windows:   a.windows.Load(),
		Published: a.published.Load(),
		Dropped:   a.dropped.Load(),
	}
}
