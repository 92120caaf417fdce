// SPDX-License-Identifier: MIT

// Package transport delivers published spectrum frames to the outside world.
package transport

import "fftplot/internal/spectrum"

// Sink receives every frame the consumer loop takes from the analyzer.
// Send runs on the consumer goroutine; f is only valid until Send returns, so
// sinks that keep it must Clone it. Implementations should not block for long.
type Sink interface {
	Send(f *spectrum.Frame) error
	Close() error
}

// SinkFunc adapts a function to a Sink with a no-op Close.
type SinkFunc func(f *spectrum.Frame) error

func (fn SinkFunc) Send(f *spectrum.Frame) error { return fn(f) }

func (fn SinkFunc) Close() error { return nil }

var _ Sink = SinkFunc(nil)
