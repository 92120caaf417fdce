// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"io"
	"time"

	"fftplot/internal/log"
	"fftplot/internal/spectrum"
	"fftplot/internal/transport"
)

// Publisher packs each frame's smoothed magnitudes into a Packet and writes
// it to a datagram writer. Buffers are reused across frames.
type Publisher struct {
	w        io.WriteCloser
	now      func() time.Time
	sequence uint32
	packet   Packet
	buf      bytes.Buffer
}

// NewPublisher sends to targetAddress over UDP.
func NewPublisher(targetAddress string) (*Publisher, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return newPublisher(sender), nil
}

func newPublisher(w io.WriteCloser) *Publisher {
	return &Publisher{w: w, now: time.Now}
}

// Send encodes f and writes one datagram.
func (p *Publisher) Send(f *spectrum.Frame) error {
	p.sequence++
	p.packet.Sequence = p.sequence
	p.packet.Timestamp = p.now().UnixNano()
	p.packet.SampleRate = float32(f.SampleRate)
	p.packet.Magnitudes = p.packet.Magnitudes[:0]
	for _, m := range f.Magnitudes {
		p.packet.Magnitudes = append(p.packet.Magnitudes, float32(m))
	}

	p.buf.Reset()
	if err := p.packet.Encode(&p.buf); err != nil {
		return err
	}
	if _, err := p.w.Write(p.buf.Bytes()); err != nil {
		return err
	}
	log.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequence, p.buf.Len())
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

var _ transport.Sink = (*Publisher)(nil)
