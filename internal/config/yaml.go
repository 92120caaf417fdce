// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"fftplot/internal/display"
	"fftplot/internal/log"
	"fftplot/internal/spectrum"
	"fftplot/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enables debug logging.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn", "error".
	Audio     AudioConfig     `yaml:"audio"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Display   DisplayConfig   `yaml:"display"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds the input stream settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index, -1 for default.
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Host block size.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low latency.
	InputChannels   int     `yaml:"input_channels"`    // 1 or 2.
	AnalyzedChannel int     `yaml:"analyzed_channel"`  // Channel fed to the analyzer.
}

// AnalyzerConfig holds the spectrum settings.
type AnalyzerConfig struct {
	FFTSize         int     `yaml:"fft_size"`          // Power of two.
	FFTOrder        int     `yaml:"fft_order"`         // log2 of fft_size; replaces it when set.
	FFTWindow       string  `yaml:"fft_window"`        // "hann", "hamming", "blackman", ...
	SmoothingTimeMs float64 `yaml:"smoothing_time_ms"` // 0-500.
	HoldReleaseMs   float64 `yaml:"hold_release_ms"`   // Max-hold fall time, 0 disables.
}

// DisplayConfig holds the renderer settings.
type DisplayConfig struct {
	MinFrequency float64 `yaml:"min_frequency"` // Left edge in Hz.
	MinDb        float64 `yaml:"min_db"`
	MaxDb        float64 `yaml:"max_db"`
	RefreshRate  float64 `yaml:"refresh_rate"` // Consumer ticks per second.
	Mode         string  `yaml:"mode"`         // "log", "bins", "skewed".
	Points       int     `yaml:"points"`       // Curve resolution for remote sinks.
	ShowHold     bool    `yaml:"show_hold"`
	Headless     bool    `yaml:"headless"` // No TUI.
}

// RecordingConfig holds the WAV capture settings.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputDir  string `yaml:"output_dir"`
	OutputFile string `yaml:"output_file"` // Generated when empty.
	BitDepth   int    `yaml:"bit_depth"`   // 16, 24 or 32.
}

// TransportConfig holds the network sinks.
type TransportConfig struct {
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"` // "host:port".
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"` // "host:port".
	LogEvery         int    `yaml:"log_every"`         // Frames between headless log lines.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultInputDevice,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultInputChannels,
			AnalyzedChannel: DefaultAnalyzedChannel,
		},
		Analyzer: AnalyzerConfig{
			FFTSize:         DefaultFFTSize,
			FFTWindow:       DefaultFFTWindow,
			SmoothingTimeMs: DefaultSmoothingTimeMs,
			HoldReleaseMs:   DefaultHoldReleaseMs,
		},
		Display: DisplayConfig{
			MinFrequency: DefaultMinFrequency,
			MinDb:        DefaultMinDb,
			MaxDb:        DefaultMaxDb,
			RefreshRate:  DefaultRefreshRate,
			Mode:         DefaultDisplayMode,
			Points:       DefaultPoints,
			ShowHold:     DefaultShowHold,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			WebSocketAddress: DefaultWebSocketAddress,
			LogEvery:         DefaultLogEvery,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// looks for "config.yaml" in the working directory and falls back to the
// defaults when there is none. Environment overrides are applied last, then
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("Config: Loaded %s", path)
	}
	cfg.applyFFTOrder()

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every field against its limits and reports all problems.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	_, ok := log.ParseLevel(c.LogLevel)
	check(ok, "log_level '%s' is not a known level", c.LogLevel)

	a := c.Audio
	check(a.InputDevice >= MinDeviceID, "audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice)
	check(a.SampleRate >= MinSampleRate && a.SampleRate <= MaxSampleRate,
		"audio.sample_rate must be in [%d, %d], got %v", MinSampleRate, MaxSampleRate, a.SampleRate)
	check(a.FramesPerBuffer >= 1 && a.FramesPerBuffer <= MaxBufferFrames,
		"audio.frames_per_buffer must be in [1, %d], got %d", MaxBufferFrames, a.FramesPerBuffer)
	check(a.InputChannels >= MinInputChannels && a.InputChannels <= MaxInputChannels,
		"audio.input_channels must be mono or stereo, got %d", a.InputChannels)
	check(a.AnalyzedChannel >= 0 && a.AnalyzedChannel < max(a.InputChannels, 1),
		"audio.analyzed_channel %d is not an input channel", a.AnalyzedChannel)

	an := c.Analyzer
	check(an.FFTOrder == 0 || (an.FFTOrder >= bitint.Log2(spectrum.MinFFTSize) && an.FFTOrder <= bitint.Log2(spectrum.MaxFFTSize)),
		"analyzer.fft_order must be in [%d, %d], got %d", bitint.Log2(spectrum.MinFFTSize), bitint.Log2(spectrum.MaxFFTSize), an.FFTOrder)
	if !bitint.IsPowerOfTwo(an.FFTSize) {
		errs = append(errs, fmt.Errorf("analyzer.fft_size must be a power of 2, got %d (nearest is %d)",
			an.FFTSize, bitint.NextPowerOfTwo(an.FFTSize)))
	} else {
		check(an.FFTSize >= spectrum.MinFFTSize && an.FFTSize <= spectrum.MaxFFTSize,
			"analyzer.fft_size must be in [%d, %d], got %d", spectrum.MinFFTSize, spectrum.MaxFFTSize, an.FFTSize)
	}
	if _, err := spectrum.ParseWindowFunc(an.FFTWindow); err != nil {
		errs = append(errs, fmt.Errorf("analyzer.fft_window: %w", err))
	}
	check(an.SmoothingTimeMs >= MinSmoothingTimeMs && an.SmoothingTimeMs <= MaxSmoothingTimeMs,
		"analyzer.smoothing_time_ms must be in [%v, %v], got %v", MinSmoothingTimeMs, MaxSmoothingTimeMs, an.SmoothingTimeMs)
	check(an.HoldReleaseMs >= 0, "analyzer.hold_release_ms must be non-negative, got %v", an.HoldReleaseMs)

	d := c.Display
	check(d.MinFrequency > 0 && d.MinFrequency < a.SampleRate/2,
		"display.min_frequency must be between 0 and Nyquist, got %v", d.MinFrequency)
	check(d.MaxDb > d.MinDb, "display.max_db (%v) must be above display.min_db (%v)", d.MaxDb, d.MinDb)
	check(d.RefreshRate >= MinRefreshRate && d.RefreshRate <= MaxRefreshRate,
		"display.refresh_rate must be in [%v, %v], got %v", MinRefreshRate, MaxRefreshRate, d.RefreshRate)
	if _, err := display.ParseMode(d.Mode); err != nil {
		errs = append(errs, fmt.Errorf("display.mode: %w", err))
	}
	check(d.Points >= 2, "display.points must be at least 2, got %d", d.Points)

	r := c.Recording
	check(r.BitDepth == 16 || r.BitDepth == 24 || r.BitDepth == 32,
		"recording.bit_depth must be 16, 24 or 32, got %d", r.BitDepth)
	check(!r.Enabled || r.OutputFile != "" || r.OutputDir != "",
		"recording needs output_file or output_dir when enabled")

	tr := c.Transport
	if tr.UDPEnabled {
		_, _, err := net.SplitHostPort(tr.UDPTargetAddress)
		check(err == nil, "transport.udp_target_address '%s' appears invalid (missing port?)", tr.UDPTargetAddress)
	}
	if tr.WebSocketEnabled {
		_, _, err := net.SplitHostPort(tr.WebSocketAddress)
		check(err == nil, "transport.websocket_address '%s' appears invalid (missing port?)", tr.WebSocketAddress)
	}

	return errors.Join(errs...)
}

// applyFFTOrder derives fft_size from fft_order when the order is set.
func (c *Config) applyFFTOrder() {
	if c.Analyzer.FFTOrder != 0 {
		c.Analyzer.FFTSize = bitint.FromOrder(c.Analyzer.FFTOrder)
	}
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
			log.Infof("Config: Overriding debug from env: %v", b)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = strings.TrimSpace(val)
		log.Infof("Config: Overriding log_level from env: %s", c.LogLevel)
	}
	// ENV_SMOOTHING_TIME_MS
	if val, ok := os.LookupEnv("ENV_SMOOTHING_TIME_MS"); ok {
		if ms, err := strconv.ParseFloat(val, 64); err == nil {
			c.Analyzer.SmoothingTimeMs = ms
			log.Infof("Config: Overriding analyzer.smoothing_time_ms from env: %v", ms)
		}
	}

	// ENV_UDP_{...}

	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
			log.Infof("Config: Overriding transport.udp_enabled from env: %v", b)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		log.Infof("Config: Overriding transport.udp_target_address from env: %s", val)
	}

	// ENV_WS_ADDRESS also switches the websocket sink on.
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
		c.Transport.WebSocketEnabled = val != ""
		log.Infof("Config: Overriding transport.websocket_address from env: %s", val)
	}
}
