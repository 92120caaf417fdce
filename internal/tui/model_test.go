package tui

import (
	"errors"
	"strings"
	"testing"

	"fftplot/internal/audio"
	"fftplot/internal/display"
	"fftplot/internal/spectrum"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeController struct {
	ms    float64
	stats spectrum.Stats
}

func (c *fakeController) SetSmoothingTime(ms float64) { c.ms = ms }
func (c *fakeController) SmoothingTime() float64      { return c.ms }
func (c *fakeController) Stats() spectrum.Stats       { return c.stats }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func newTestModel(t *testing.T, c *fakeController) Model {
	t.Helper()
	m := NewModel(Options{
		Axis:       display.DefaultAxis(),
		ShowHold:   true,
		Source:     "test",
		Controller: c,
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestSmoothingKeys(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		key   tea.KeyMsg
		want  float64
	}{
		{"up", 250, tea.KeyMsg{Type: tea.KeyUp}, 260},
		{"plus", 250, runes("+"), 260},
		{"down", 250, tea.KeyMsg{Type: tea.KeyDown}, 240},
		{"minus", 250, runes("-"), 240},
		{"floor", 0, tea.KeyMsg{Type: tea.KeyDown}, 0},
		{"ceiling", 500, tea.KeyMsg{Type: tea.KeyUp}, 500},
		{"snaps to step", 253, tea.KeyMsg{Type: tea.KeyUp}, 260},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeController{ms: tt.start}
			m := newTestModel(t, c)
			update(t, m, tt.key)
			if c.ms != tt.want {
				t.Errorf("smoothing = %v, want %v", c.ms, tt.want)
			}
		})
	}
}

func TestToggles(t *testing.T) {
	m := newTestModel(t, &fakeController{})

	m, _ = update(t, m, runes("h"))
	if m.ShowHold() {
		t.Error("h did not hide the max-hold line")
	}
	m, _ = update(t, m, runes("h"))
	if !m.ShowHold() {
		t.Error("h did not show the max-hold line")
	}

	want := []display.Mode{display.ModeBins, display.ModeSkewed, display.ModeLog}
	for _, mode := range want {
		m, _ = update(t, m, runes("m"))
		if m.Axis().Mode != mode {
			t.Errorf("mode = %v, want %v", m.Axis().Mode, mode)
		}
	}
}

func TestFrames(t *testing.T) {
	c := &fakeController{ms: 250, stats: spectrum.Stats{Windows: 10, Published: 8, Dropped: 2}}
	m := newTestModel(t, c)

	if v := m.View(); !strings.Contains(v, "Waiting for audio") {
		t.Errorf("view before the first frame:\n%s", v)
	}

	m, _ = update(t, m, FrameMsg{Frame: toneFrame()})
	m, _ = update(t, m, FrameMsg{})
	if m.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", m.Frames())
	}

	v := m.View()
	for _, want := range []string{"peak 925.9 Hz -12.0 dB", "smoothing 250 ms", "dropped 2/10", "hold on"} {
		if !strings.Contains(v, want) {
			t.Errorf("view is missing %q:\n%s", want, v)
		}
	}
}

func TestSilentFrame(t *testing.T) {
	m := newTestModel(t, &fakeController{ms: 250})
	m, _ = update(t, m, FrameMsg{Frame: silentFrame()})

	v := m.View()
	if strings.Contains(v, "Inf") || strings.Contains(v, "NaN") {
		t.Errorf("silent frame shows a non-finite level:\n%s", v)
	}
	if !strings.Contains(v, "no signal") {
		t.Errorf("silent frame not reported:\n%s", v)
	}
}

func TestPeakMarkerMovesTowardsPeak(t *testing.T) {
	m := newTestModel(t, &fakeController{})
	f := toneFrame()
	target := display.FrequencyToX(f.BinFrequency(testToneBin), m.axis.MinFrequency, f.Nyquist(), float64(m.plotCols()-1))

	var prev float64
	for range 10 {
		m, _ = update(t, m, FrameMsg{Frame: f})
		if m.peakX < prev-1e-9 && prev < target {
			t.Fatalf("marker moved away from the peak: %v -> %v", prev, m.peakX)
		}
		prev = m.peakX
	}
	if m.peakX <= 0 {
		t.Errorf("marker did not move, at %v", m.peakX)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &fakeController{})
	_, cmd := update(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestDeviceScreen(t *testing.T) {
	devices := []audio.Device{
		{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000, IsDefaultInput: true},
		{ID: 3, Name: "USB Interface", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 44100},
	}
	var gotID int
	var gotRate float64
	m := NewModel(Options{
		Axis:        display.DefaultAxis(),
		Controller:  &fakeController{},
		ListDevices: func() ([]audio.Device, error) { return devices, nil },
		SelectDevice: func(id int, rate float64) error {
			gotID, gotRate = id, rate
			return nil
		},
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Screen() != DeviceScreen {
		t.Fatalf("tab did not open the device screen")
	}
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.View(), "USB Interface") {
		t.Fatalf("device list not shown:\n%s", m.View())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.View(), "Configure Device: USB Interface") {
		t.Fatalf("rate page not shown:\n%s", m.View())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("selecting a rate returned no command")
	}
	m, _ = update(t, m, cmd())
	if gotID != 3 || gotRate != 48000 {
		t.Errorf("SelectDevice(%d, %v), want (3, 48000)", gotID, gotRate)
	}
	if !strings.Contains(m.View(), "Analyzing USB Interface at 48000 Hz") {
		t.Errorf("selection not reported:\n%s", m.View())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Screen() != SpectrumScreen {
		t.Error("esc did not return to the spectrum")
	}
}

func TestDeviceSelectionError(t *testing.T) {
	m := NewModel(Options{
		Axis: display.DefaultAxis(),
		ListDevices: func() ([]audio.Device, error) {
			return []audio.Device{{ID: 1, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 44100}}, nil
		},
		SelectDevice: func(int, float64) error { return errors.New("unexpected") },
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, cmd())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())

	if !strings.Contains(m.View(), "no input channels") {
		t.Errorf("output-only device was accepted:\n%s", m.View())
	}
}

func TestDeviceListError(t *testing.T) {
	m := NewModel(Options{
		ListDevices: func() ([]audio.Device, error) { return nil, errors.New("host gone") },
	})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.View(), "host gone") {
		t.Errorf("error not shown:\n%s", m.View())
	}
}

func TestSinkClonesFrames(t *testing.T) {
	var got []tea.Msg
	s := newSink(func(msg tea.Msg) { got = append(got, msg) })

	f := toneFrame()
	if err := s.Send(f); err != nil {
		t.Fatal(err)
	}
	f.Magnitudes[testToneBin] = 0

	if len(got) != 1 {
		t.Fatalf("sent %d messages, want 1", len(got))
	}
	msg, ok := got[0].(FrameMsg)
	if !ok {
		t.Fatalf("sent %T, want FrameMsg", got[0])
	}
	if msg.Frame.Magnitudes[testToneBin] != testFFTSize/4 {
		t.Error("sink shares the consumer's buffers")
	}
}
