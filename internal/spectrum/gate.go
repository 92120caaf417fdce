// SPDX-License-Identifier: MIT
package spectrum

import "sync/atomic"

// GateState is the ownership state of the published spectrum.
type GateState int32

const (
	// GateIdle: the previous frame was consumed; the producer may write.
	GateIdle GateState = iota
	// GateWriting: the producer owns the published buffers.
	GateWriting
	// GateReady: a complete frame is waiting for the consumer.
	GateReady
	// GateReading: the consumer owns the published buffers.
	GateReading
)

func (s GateState) String() string {
	switch s {
	case GateIdle:
		return "idle"
	case GateWriting:
		return "writing"
	case GateReady:
		return "ready"
	case GateReading:
		return "reading"
	default:
		return "unknown"
	}
}

// FrameGate hands the published spectrum back and forth between one producer
// and one consumer. Every transition is a single atomic operation, so neither
// side ever waits on the other; at most one unconsumed frame exists.
//
//	producer: TryBeginFrame -> write -> Publish
//	consumer: TryConsumeFrame -> read -> Release
type FrameGate struct {
	state atomic.Int32
}

// TryBeginFrame claims the buffers for writing. It returns false while the
// consumer has not drained the previous frame.
func (g *FrameGate) TryBeginFrame() bool {
	return g.state.CompareAndSwap(int32(GateIdle), int32(GateWriting))
}

// Publish marks the frame claimed by TryBeginFrame as complete.
func (g *FrameGate) Publish() {
	g.state.CompareAndSwap(int32(GateWriting), int32(GateReady))
}

// TryConsumeFrame claims a published frame for reading. It returns false when
// no frame is ready, which is not an error.
func (g *FrameGate) TryConsumeFrame() bool {
	return g.state.CompareAndSwap(int32(GateReady), int32(GateReading))
}

// Release hands the buffers back to the producer.
func (g *FrameGate) Release() {
	g.state.CompareAndSwap(int32(GateReading), int32(GateIdle))
}

// State returns the current state.
func (g *FrameGate) State() GateState {
	return GateState(g.state.Load())
}
