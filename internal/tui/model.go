// SPDX-License-Identifier: MIT
// Package tui renders the live spectrum in the terminal with Bubble Tea.
package tui

import (
	"fmt"
	"math"
	"strings"

	"fftplot/internal/audio"
	"fftplot/internal/config"
	"fftplot/internal/display"
	"fftplot/internal/spectrum"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/harmonica"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	SpectrumScreen ScreenType = iota
	DeviceScreen
)

const (
	peakFPS     = 30
	chromeRows  = 6 // title, ruler, peak, stats, help, spacing
	minPlotRows = 4
)

// Controller is the part of the analyzer the interface adjusts.
type Controller interface {
	SetSmoothingTime(ms float64)
	SmoothingTime() float64
	Stats() spectrum.Stats
}

// Options configures a Model.
type Options struct {
	Axis         display.Axis
	ShowHold     bool
	Source       string // shown in the title
	Controller   Controller
	ListDevices  func() ([]audio.Device, error)
	SelectDevice func(id int, sampleRate float64) error
}

// FrameMsg delivers a frame to the model. The frame must not be shared.
type FrameMsg struct {
	Frame *spectrum.Frame
}

// Model is the Bubble Tea model of the analyzer.
type Model struct {
	opts     Options
	keys     keyMap
	help     help.Model
	screen   ScreenType
	axis     display.Axis
	showHold bool
	width    int
	height   int

	frame  *spectrum.Frame
	frames uint64

	spring  harmonica.Spring
	peakX   float64
	peakVel float64

	devices deviceList
}

// NewModel returns a model on the spectrum screen.
func NewModel(opts Options) Model {
	keys := defaultKeyMap()
	return Model{
		opts:     opts,
		keys:     keys,
		help:     help.New(),
		axis:     opts.Axis,
		showHold: opts.ShowHold,
		width:    80,
		height:   24,
		spring:   harmonica.NewSpring(harmonica.FPS(peakFPS), 6.0, 0.5),
		devices:  newDeviceList(keys, opts.ListDevices, opts.SelectDevice),
	}
}

// Init fetches the device list in the background.
func (m Model) Init() tea.Cmd {
	return m.devices.fetchDevices
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.devices = m.devices.resize(msg.Width, max(msg.Height-4, 1))
		return m, nil

	case FrameMsg:
		if msg.Frame != nil {
			m.frame = msg.Frame
			m.frames++
			m.trackPeak()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Screen):
			if m.screen == SpectrumScreen {
				m.screen = DeviceScreen
				return m, m.devices.fetchDevices
			}
			m.screen = SpectrumScreen
			return m, nil
		case m.screen == DeviceScreen && m.devices.step == listStep && key.Matches(msg, m.keys.Back):
			m.screen = SpectrumScreen
			return m, nil
		}
		if m.screen == SpectrumScreen {
			return m.updateSpectrum(msg), nil
		}
	}

	if m.screen == DeviceScreen || isDeviceMsg(msg) {
		var cmd tea.Cmd
		m.devices, cmd = m.devices.update(msg)
		return m, cmd
	}
	return m, nil
}

func isDeviceMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case devicesMsg, deviceErrMsg, deviceSelectedMsg:
		return true
	}
	return false
}

func (m Model) updateSpectrum(msg tea.KeyMsg) Model {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.stepSmoothing(config.SmoothingStepMs)
	case key.Matches(msg, m.keys.Down):
		m.stepSmoothing(-config.SmoothingStepMs)
	case key.Matches(msg, m.keys.Hold):
		m.showHold = !m.showHold
	case key.Matches(msg, m.keys.Mode):
		m.axis.Mode = (m.axis.Mode + 1) % (display.ModeSkewed + 1)
	}
	return m
}

func (m Model) stepSmoothing(delta float64) {
	c := m.opts.Controller
	if c == nil {
		return
	}
	ms := math.Round((c.SmoothingTime()+delta)/config.SmoothingStepMs) * config.SmoothingStepMs
	c.SetSmoothingTime(min(max(ms, config.MinSmoothingTimeMs), config.MaxSmoothingTimeMs))
}

// trackPeak moves the marker one spring step towards the peak column.
func (m *Model) trackPeak() {
	_, freq, _, ok := display.Peak(m.frame, m.axis.MinFrequency)
	if !ok || m.axis.Mode == display.ModeSkewed {
		return
	}
	cols := m.plotCols()
	target := display.FrequencyToX(freq, m.axis.MinFrequency, m.frame.Nyquist(), float64(max(cols-1, 1)))
	m.peakX, m.peakVel = m.spring.Update(m.peakX, m.peakVel, target)
}

func (m Model) plotCols() int {
	return max(m.width, 1)
}

func (m Model) plotRows() int {
	return max(m.height-chromeRows, minPlotRows)
}

func (m Model) View() string {
	var sb strings.Builder

	title := "Spectrum"
	if m.screen == DeviceScreen {
		title = m.devices.title()
	}
	sb.WriteString(titleStyle.Render(title))
	if m.opts.Source != "" {
		sb.WriteString(" " + infoStyle.Render(m.opts.Source))
	}
	sb.WriteString("\n\n")

	if m.screen == DeviceScreen {
		sb.WriteString(m.devices.view())
		sb.WriteString("\n")
		sb.WriteString(m.help.View(deviceHelp{m.keys}))
		return sb.String()
	}

	sb.WriteString(m.spectrumView())
	sb.WriteString(m.help.View(spectrumHelp{m.keys}))
	return sb.String()
}

func (m Model) spectrumView() string {
	if m.frame == nil {
		return infoStyle.Render("Waiting for audio...") + "\n\n"
	}

	cols, rows := m.plotCols(), m.plotRows()
	var sb strings.Builder
	for _, line := range plot(m.frame, m.axis, cols, rows, m.showHold) {
		sb.WriteString(barStyle.Render(line))
		sb.WriteString("\n")
	}

	marker := strings.Repeat(" ", min(max(int(math.Round(m.peakX)), 0), cols-1)) + "▲"
	if m.axis.Mode == display.ModeSkewed {
		marker = ""
	}
	sb.WriteString(lipgloss.JoinVertical(lipgloss.Left,
		axisStyle.Render(ruler(m.axis, m.frame.Nyquist(), cols)),
		peakStyle.Render(marker),
	))
	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) statusLine() string {
	parts := []string{fmt.Sprintf("%.0f Hz / %d pt", m.frame.SampleRate, m.frame.FFTSize)}
	if _, freq, db, ok := display.Peak(m.frame, m.axis.MinFrequency); ok {
		db = display.ClampDb(db, m.axis.MinDb, m.axis.MaxDb)
		parts = append(parts, peakStyle.Render(fmt.Sprintf("peak %.1f Hz %.1f dB", freq, db)))
	} else {
		parts = append(parts, "no signal")
	}
	if c := m.opts.Controller; c != nil {
		st := c.Stats()
		parts = append(parts,
			fmt.Sprintf("smoothing %.0f ms", c.SmoothingTime()),
			fmt.Sprintf("dropped %d/%d", st.Dropped, st.Windows))
	}
	hold := "off"
	if m.showHold {
		hold = "on"
	}
	parts = append(parts, "mode "+m.axis.Mode.String(), "hold "+hold)
	return infoStyle.Render(strings.Join(parts, "  "))
}

// Screen returns the active screen.
func (m Model) Screen() ScreenType {
	return m.screen
}

// Axis returns the axis the plot is drawn with.
func (m Model) Axis() display.Axis {
	return m.axis
}

// ShowHold reports whether the max-hold line is drawn.
func (m Model) ShowHold() bool {
	return m.showHold
}

// Frames counts the frames received.
func (m Model) Frames() uint64 {
	return m.frames
}
