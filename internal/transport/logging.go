// SPDX-License-Identifier: MIT
package transport

import (
	"fftplot/internal/display"
	"fftplot/internal/log"
	"fftplot/internal/spectrum"
)

// LoggingSink writes a one-line summary of every Nth frame at debug level.
// It is the sink used in headless mode when nothing else is configured.
type LoggingSink struct {
	every  uint64
	minHz  float64
	frames uint64
}

// NewLoggingSink logs one frame in every. every < 1 logs all frames.
func NewLoggingSink(every int, minFrequency float64) *LoggingSink {
	if every < 1 {
		every = 1
	}
	log.Info("Transport: Using LoggingSink")
	return &LoggingSink{every: uint64(every), minHz: minFrequency}
}

// Send logs the dominant frequency of f.
func (s *LoggingSink) Send(f *spectrum.Frame) error {
	s.frames++
	if s.frames%s.every != 0 || !log.Enabled(log.LevelDebug) {
		return nil
	}

	_, hz, db, ok := display.Peak(f, s.minHz)
	if !ok {
		return nil
	}
	log.Debugf("Spectrum: frame %d peak %.1f Hz at %.1f dB", f.Sequence, hz, db)
	return nil
}

// Frames returns the number of frames received.
func (s *LoggingSink) Frames() uint64 {
	return s.frames
}

// Close is a no-op.
func (s *LoggingSink) Close() error {
	log.Debug("Transport: LoggingSink closed")
	return nil
}

var _ Sink = (*LoggingSink)(nil)
