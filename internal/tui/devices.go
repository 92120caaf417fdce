package tui

import (
	"fmt"
	"strings"

	"fftplot/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// deviceStep is the page of the device screen that is showing.
type deviceStep int

const (
	listStep deviceStep = iota
	rateStep
)

var sampleRates = []float64{44100, 48000, 88200, 96000}

type devicesMsg struct {
	devices []audio.Device
}

type deviceErrMsg struct {
	err error
}

// deviceSelectedMsg reports the outcome of switching the input.
type deviceSelectedMsg struct {
	device     audio.Device
	sampleRate float64
	err        error
}

// deviceList browses host devices and lets the user switch the analyzed
// input and its sample rate.
type deviceList struct {
	keys       keyMap
	fetch      func() ([]audio.Device, error)
	selectFunc func(id int, sampleRate float64) error

	devices   []audio.Device
	selected  int
	rateIndex int
	step      deviceStep
	viewport  viewport.Model
	ready     bool
	err       error
	status    string
}

func newDeviceList(keys keyMap, fetch func() ([]audio.Device, error), sel func(int, float64) error) deviceList {
	return deviceList{keys: keys, fetch: fetch, selectFunc: sel}
}

func (d deviceList) fetchDevices() tea.Msg {
	if d.fetch == nil {
		return devicesMsg{}
	}
	devices, err := d.fetch()
	if err != nil {
		return deviceErrMsg{err}
	}
	return devicesMsg{devices}
}

func (d deviceList) resize(width, height int) deviceList {
	if !d.ready {
		d.viewport = viewport.New(width, height)
		d.ready = true
	} else {
		d.viewport.Width = width
		d.viewport.Height = height
	}
	d.viewport.SetContent(d.render())
	return d
}

func (d deviceList) update(msg tea.Msg) (deviceList, tea.Cmd) {
	switch msg := msg.(type) {
	case devicesMsg:
		d.devices = msg.devices
		d.selected = min(d.selected, max(len(d.devices)-1, 0))

	case deviceErrMsg:
		d.err = msg.err

	case deviceSelectedMsg:
		if msg.err != nil {
			d.status = errorStyle.Render(fmt.Sprintf("Could not switch to %s: %v", msg.device.Name, msg.err))
		} else {
			d.status = highlightStyle.Render(fmt.Sprintf("Analyzing %s at %.0f Hz", msg.device.Name, msg.sampleRate))
			d.step = listStep
		}

	case tea.KeyMsg:
		switch d.step {
		case listStep:
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if d.selected > 0 {
					d.selected--
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if d.selected < len(d.devices)-1 {
					d.selected++
				}
			case key.Matches(msg, d.keys.Select):
				if len(d.devices) > 0 {
					d.step = rateStep
					d.rateIndex = 0
					for i, rate := range sampleRates {
						if rate == d.devices[d.selected].DefaultSampleRate {
							d.rateIndex = i
						}
					}
				}
			}

		case rateStep:
			switch {
			case key.Matches(msg, d.keys.Back):
				d.step = listStep
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if d.rateIndex > 0 {
					d.rateIndex--
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if d.rateIndex < len(sampleRates)-1 {
					d.rateIndex++
				}
			case key.Matches(msg, d.keys.Select):
				d.viewport.SetContent(d.render())
				return d, d.choose(d.devices[d.selected], sampleRates[d.rateIndex])
			}
		}
	}

	d.viewport.SetContent(d.render())
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// choose runs the switch off the update loop.
func (d deviceList) choose(dev audio.Device, rate float64) tea.Cmd {
	sel := d.selectFunc
	return func() tea.Msg {
		if sel == nil {
			return deviceSelectedMsg{device: dev, sampleRate: rate, err: fmt.Errorf("switching input is not available")}
		}
		if !dev.CanAnalyze(1) {
			return deviceSelectedMsg{device: dev, sampleRate: rate, err: fmt.Errorf("device has no input channels")}
		}
		return deviceSelectedMsg{device: dev, sampleRate: rate, err: sel(dev.ID, rate)}
	}
}

func (d deviceList) title() string {
	if d.step == rateStep {
		return "Device Configuration"
	}
	return "Audio Device List"
}

func (d deviceList) view() string {
	if d.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", d.err))
	}
	out := d.viewport.View()
	if d.status != "" {
		out += "\n" + d.status
	}
	return out
}

func (d deviceList) render() string {
	if d.step == rateStep && len(d.devices) > 0 {
		return d.renderRates()
	}
	if len(d.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, dev := range d.devices {
		marker := ""
		if dev.IsDefaultInput {
			marker = " *"
		}
		info := fmt.Sprintf("[%d] %s (%s)%s\n", dev.ID, dev.Name, dev.Kind(), marker)
		info += fmt.Sprintf("    Input channels: %d, Output channels: %d\n", dev.MaxInputChannels, dev.MaxOutputChannels)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", dev.DefaultSampleRate)

		if i == d.selected {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (d deviceList) renderRates() string {
	var sb strings.Builder
	dev := d.devices[d.selected]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", dev.Name)
	sb.WriteString("Sample Rate:\n")
	for i, rate := range sampleRates {
		cursor := " "
		if i == d.rateIndex {
			cursor = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", cursor, rate)
		if i == d.rateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}
