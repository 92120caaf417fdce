// SPDX-License-Identifier: MIT

// Package scope runs the periodic consumer side of the analyzer: on every
// tick it tries to take the latest frame and hands it to the sinks.
package scope

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fftplot/internal/log"
	"fftplot/internal/spectrum"
	"fftplot/internal/transport"
)

// DefaultInterval polls at 30 Hz.
const DefaultInterval = time.Second / 30

// FrameSource is the consumer half of the analyzer handoff.
type FrameSource interface {
	TryConsume(dst *spectrum.Frame) bool
}

// Loop polls a FrameSource at a fixed interval. A tick that finds no new
// frame does nothing, and sinks keep showing what they last received.
type Loop struct {
	src      FrameSource
	sinks    []transport.Sink
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	frame     spectrum.Frame // reused between ticks
	ticks     atomic.Uint64
	delivered atomic.Uint64
}

// New creates a loop polling src every interval. interval <= 0 uses
// DefaultInterval.
func New(interval time.Duration, src FrameSource, sinks ...transport.Sink) (*Loop, error) {
	if src == nil {
		return nil, fmt.Errorf("scope: frame source cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
		log.Warnf("Scope: Invalid interval provided, defaulting to %s", interval)
	}

	return &Loop{
		src:      src,
		sinks:    sinks,
		interval: interval,
	}, nil
}

// Interval returns the polling interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Start launches the polling goroutine. Calling Start on a running loop is
// a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	if l.ticker != nil {
		l.mu.Unlock()
		log.Warn("Scope: Start called but already running")
		return
	}

	l.ticker = time.NewTicker(l.interval)
	l.doneChan = make(chan struct{})
	l.stopOnce = sync.Once{}
	ticker, done := l.ticker, l.doneChan
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		log.Infof("Scope: Consumer started (interval %s, %d sinks)", l.interval, len(l.sinks))
		for {
			select {
			case <-ticker.C:
				l.Tick()
			case <-done:
				log.Debug("Scope: Consumer received stop signal")
				return
			}
		}
	}()
}

// Stop halts the polling goroutine and waits for it. It is safe to call more
// than once and on a loop that was never started.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.ticker == nil {
		l.mu.Unlock()
		return nil
	}
	l.stopOnce.Do(func() {
		close(l.doneChan)
		l.ticker.Stop()
		l.ticker = nil
	})
	l.mu.Unlock()

	l.wg.Wait()
	log.Infof("Scope: Consumer stopped after %d ticks, %d frames", l.ticks.Load(), l.delivered.Load())
	return nil
}

// Close stops the loop and closes every sink.
func (l *Loop) Close() error {
	errs := []error{l.Stop()}
	for _, s := range l.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Tick runs one poll. It reports whether a frame was delivered. Tick must
// not be called concurrently with a started loop.
func (l *Loop) Tick() bool {
	l.ticks.Add(1)
	if !l.src.TryConsume(&l.frame) {
		return false
	}

	l.delivered.Add(1)
	for _, s := range l.sinks {
		if err := s.Send(&l.frame); err != nil {
			log.Warnf("Scope: Sink %T failed on frame %d: %v", s, l.frame.Sequence, err)
		}
	}
	return true
}

// Ticks returns the number of polls so far.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// Delivered returns the number of frames handed to the sinks.
func (l *Loop) Delivered() uint64 {
	return l.delivered.Load()
}
