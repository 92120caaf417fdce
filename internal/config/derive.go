// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"fftplot/internal/display"
	"fftplot/internal/log"
	"fftplot/internal/spectrum"
)

// Spectrum returns the analyzer settings. Validate must have passed.
func (c *Config) Spectrum() spectrum.AnalyzerConfig {
	window, _ := spectrum.ParseWindowFunc(c.Analyzer.FFTWindow)
	return spectrum.AnalyzerConfig{
		FFTSize:         c.Analyzer.FFTSize,
		Window:          window,
		SmoothingTimeMs: c.Analyzer.SmoothingTimeMs,
		HoldReleaseMs:   c.Analyzer.HoldReleaseMs,
		Channel:         c.Audio.AnalyzedChannel,
	}
}

// Axis returns the display axis for a surface of the given size.
func (c *Config) Axis(width, height float64) display.Axis {
	mode, _ := display.ParseMode(c.Display.Mode)
	return display.Axis{
		MinFrequency: c.Display.MinFrequency,
		MinDb:        c.Display.MinDb,
		MaxDb:        c.Display.MaxDb,
		Width:        width,
		Height:       height,
		Points:       c.Display.Points,
		Mode:         mode,
	}
}

// RefreshInterval is the consumer tick period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Display.RefreshRate)
}

// Level returns the effective log level: debug wins over log_level.
func (c *Config) Level() log.LogLevel {
	if c.Debug {
		return log.LevelDebug
	}
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}
