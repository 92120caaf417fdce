// SPDX-License-Identifier: MIT
package config

import (
	"fftplot/internal/display"
	"fftplot/internal/spectrum"
)

// Boundaries and defaults of the analyzer configuration.
const (
	// Audio input
	DefaultInputDevice     = MinDeviceID // System default device
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultInputChannels   = 1           // Mono
	DefaultAnalyzedChannel = 0           // Left / first channel

	// Analysis
	DefaultFFTSize         = spectrum.DefaultFFTSize
	DefaultFFTWindow       = "hann"
	DefaultSmoothingTimeMs = spectrum.DefaultSmoothingTimeMs
	DefaultHoldReleaseMs   = spectrum.DefaultHoldReleaseMs
	SmoothingStepMs        = 10.0 // TUI control step

	// Display
	DefaultMinFrequency = display.DefaultMinFrequency
	DefaultMinDb        = display.DefaultMinDb
	DefaultMaxDb        = display.DefaultMaxDb
	DefaultRefreshRate  = 30.0 // Hz
	DefaultDisplayMode  = "log"
	DefaultPoints       = display.DefaultPoints
	DefaultShowHold     = true

	// Recording
	DefaultOutputDir = "./recordings"
	DefaultBitDepth  = 16

	// Transport
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultLogEvery         = 30 // one debug line per second at 30 Hz

	DefaultLogLevel = "info"

	// Hardware and processing limits
	MinDeviceID        = -1     // -1 represents the system default device
	MinSampleRate      = 8000   // Hz
	MaxSampleRate      = 192000 // Hz
	MaxBufferFrames    = 8192
	MinInputChannels   = 1
	MaxInputChannels   = 2 // mono or stereo buses only
	MinSmoothingTimeMs = 0.0
	MaxSmoothingTimeMs = spectrum.MaxSmoothingTimeMs
	MinRefreshRate     = 1.0
	MaxRefreshRate     = 240.0
)
