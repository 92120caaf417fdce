// SPDX-License-Identifier: MIT
package tui

import (
	"fftplot/internal/spectrum"

	tea "github.com/charmbracelet/bubbletea"
)

// Sink forwards frames to a running program. The frame is cloned because
// the consumer reuses its buffers on the next tick.
type Sink struct {
	send func(tea.Msg)
}

// NewSink returns a sink that feeds p.
func NewSink(p *tea.Program) *Sink {
	return newSink(p.Send)
}

func newSink(send func(tea.Msg)) *Sink {
	return &Sink{send: send}
}

func (s *Sink) Send(f *spectrum.Frame) error {
	s.send(FrameMsg{Frame: f.Clone()})
	return nil
}

func (s *Sink) Close() error {
	return nil
}
