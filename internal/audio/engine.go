// SPDX-License-Identifier: MIT
/*
Package audio is the host side of the analyzer:

  - Engine opens a PortAudio input stream and feeds each callback block to
    the analyzer and, optionally, the recorder
  - FileHost plays a decoded WAV file through the same path offline
  - Recorder writes the captured stream to WAV without blocking the callback

Thread Safety:
  - The stream callback touches only preallocated state
  - The analyzer session is prepared before the stream starts and released
    after it stops, so the callback never sees an unprepared switch mid-block
*/
package audio

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"fftplot/internal/config"
	"fftplot/internal/log"
	"fftplot/internal/spectrum"

	"github.com/gordonklaus/portaudio"
)

// Engine captures audio from one input device.
type Engine struct {
	cfg      *config.Config
	analyzer *spectrum.Analyzer
	recorder *Recorder

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	sampleRate   float64

	blocks   atomic.Uint64
	overruns atomic.Uint64 // callbacks with an unexpected block length
}

// NewEngine resolves the configured input device. PortAudio must be
// initialized. recorder may be nil.
func NewEngine(cfg *config.Config, analyzer *spectrum.Analyzer, recorder *Recorder) (*Engine, error) {
	if analyzer == nil {
		return nil, errors.New("engine requires an analyzer")
	}

	device, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels < cfg.Audio.InputChannels {
		return nil, fmt.Errorf("device %s has %d input channels, %d requested",
			device.Name, device.MaxInputChannels, cfg.Audio.InputChannels)
	}

	e := &Engine{
		cfg:          cfg,
		analyzer:     analyzer,
		recorder:     recorder,
		inputDevice:  device,
		inputLatency: device.DefaultHighInputLatency,
	}
	if cfg.Audio.LowLatency {
		e.inputLatency = device.DefaultLowInputLatency
	}
	return e, nil
}

// Device returns the input device name.
func (e *Engine) Device() string {
	return e.inputDevice.Name
}

// SampleRate returns the rate the stream was opened at, or 0.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// StartInputStream opens the stream, prepares the analyzer for the actual
// stream rate and starts capturing.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.Audio.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		FramesPerBuffer: e.cfg.Audio.FramesPerBuffer,
		SampleRate:      e.cfg.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}

	e.sampleRate = e.cfg.Audio.SampleRate
	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		e.sampleRate = info.SampleRate
	}
	if err := e.analyzer.Prepare(e.sampleRate); err != nil {
		stream.Close()
		return err
	}

	e.inputStream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		e.inputStream = nil
		e.analyzer.Release()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	log.Infof("Engine: Capturing %s (%d ch @ %.0f Hz, %d frames, %.1f ms latency)",
		e.inputDevice.Name, e.cfg.Audio.InputChannels, e.sampleRate,
		e.cfg.Audio.FramesPerBuffer, e.inputLatency.Seconds()*1000)
	return nil
}

// StopInputStream stops and closes the stream, then releases the analyzer.
func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}

	if err := e.inputStream.Stop(); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := e.inputStream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	e.inputStream = nil
	e.analyzer.Release()

	log.Infof("Engine: Stopped after %d blocks (%d irregular)", e.blocks.Load(), e.overruns.Load())
	return nil
}

// processInputStream is the PortAudio callback.
//
// Performance Critical (Hot Path):
//   - No allocations, no locks, no logging
//   - Block lengths other than frames*channels are processed but counted
func (e *Engine) processInputStream(in []float32) {
	e.blocks.Add(1)
	channels := e.cfg.Audio.InputChannels
	if len(in) != e.cfg.Audio.FramesPerBuffer*channels {
		e.overruns.Add(1)
	}

	e.analyzer.ProcessBlock(in, channels)
	if e.recorder != nil {
		e.recorder.Write(in)
	}
}

// Close stops the stream and finalises any recording.
func (e *Engine) Close() error {
	streamErr := e.StopInputStream()
	var recErr error
	if e.recorder != nil {
		recErr = e.recorder.Close()
	}
	return errors.Join(streamErr, recErr)
}
