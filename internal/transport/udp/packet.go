// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

/*
Spectrum packet (BigEndian)

|<- 4 Bytes ->|<---- 8 Bytes ---->|<- 4 Bytes ->|<- 2 Bytes ->|<- N * 4 Bytes ->|
+-------------+-------------------+-------------+-------------+------------------+
|  Sequence   |     Timestamp     | Sample Rate |    Count    |    Magnitudes    |
|  (uint32)   |  (int64, unix ns) |  (float32)  |  (uint16)   |  (N * float32)   |
+-------------+-------------------+-------------+-------------+------------------+
*/

const (
	// HeaderSize is the number of bytes before the magnitudes.
	HeaderSize = 4 + 8 + 4 + 2
	// MaxPayload is the largest datagram a single UDP packet can carry.
	MaxPayload = 65507
	// MaxMagnitudes is the largest bin count that fits one packet.
	MaxMagnitudes = (MaxPayload - HeaderSize) / 4
)

// Packet is one decoded spectrum datagram.
type Packet struct {
	Sequence   uint32
	Timestamp  int64
	SampleRate float32
	Magnitudes []float32
}

// Encode appends the packet to buf.
func (p *Packet) Encode(buf *bytes.Buffer) error {
	if len(p.Magnitudes) > MaxMagnitudes {
		return fmt.Errorf("packet has %d magnitudes, at most %d fit a datagram", len(p.Magnitudes), MaxMagnitudes)
	}

	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], p.Sequence)
	binary.BigEndian.PutUint64(header[4:12], uint64(p.Timestamp))
	binary.BigEndian.PutUint32(header[12:16], math.Float32bits(p.SampleRate))
	binary.BigEndian.PutUint16(header[16:18], uint16(len(p.Magnitudes)))
	buf.Write(header[:])

	var word [4]byte
	for _, m := range p.Magnitudes {
		binary.BigEndian.PutUint32(word[:], math.Float32bits(m))
		buf.Write(word[:])
	}
	return nil
}

// Decode parses a datagram produced by Encode. Magnitudes reuses p's slice
// when it has room.
func (p *Packet) Decode(b []byte) error {
	if len(b) < HeaderSize {
		return errors.New("packet shorter than header")
	}
	count := int(binary.BigEndian.Uint16(b[16:18]))
	if len(b) != HeaderSize+count*4 {
		return fmt.Errorf("packet length %d does not match %d magnitudes", len(b), count)
	}

	p.Sequence = binary.BigEndian.Uint32(b[0:4])
	p.Timestamp = int64(binary.BigEndian.Uint64(b[4:12]))
	p.SampleRate = math.Float32frombits(binary.BigEndian.Uint32(b[12:16]))
	p.Magnitudes = p.Magnitudes[:0]
	for i := 0; i < count; i++ {
		off := HeaderSize + i*4
		p.Magnitudes = append(p.Magnitudes, math.Float32frombits(binary.BigEndian.Uint32(b[off:off+4])))
	}
	return nil
}
