package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"fftplot/internal/display"
	"fftplot/internal/spectrum"
)

const (
	testFFTSize    = 2048
	testSampleRate = 44100
	testToneBin    = 43 // ~926 Hz
)

func silentFrame() *spectrum.Frame {
	return &spectrum.Frame{
		Magnitudes: make([]float64, testFFTSize/2),
		MaxHold:    make([]float64, testFFTSize/2),
		SampleRate: testSampleRate,
		FFTSize:    testFFTSize,
	}
}

// toneFrame has a single bin at -12 dB and its hold one bin higher.
func toneFrame() *spectrum.Frame {
	f := silentFrame()
	f.Magnitudes[testToneBin] = testFFTSize / 4
	f.MaxHold[testToneBin] = testFFTSize / 2
	f.Sequence = 1
	return f
}

func TestPlotSilence(t *testing.T) {
	lines := plot(silentFrame(), display.DefaultAxis(), 60, 10, true)
	if len(lines) != 10 {
		t.Fatalf("got %d lines, want 10", len(lines))
	}
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n != 60 {
			t.Errorf("line %d has %d columns, want 60", i, n)
		}
		if strings.TrimSpace(line) != "" {
			t.Errorf("line %d of a silent plot is not blank: %q", i, line)
		}
	}
}

func TestPlotTone(t *testing.T) {
	axis := display.DefaultAxis()
	axis.Mode = display.ModeBins
	lines := plot(toneFrame(), axis, 120, 20, true)

	bottom := lines[len(lines)-1]
	if !strings.ContainsRune(bottom, '█') {
		t.Errorf("bottom row has no full bar: %q", bottom)
	}
	top := lines[0]
	if strings.ContainsRune(top, '█') {
		t.Errorf("a -12 dB tone reached the top row: %q", top)
	}

	var hold bool
	for _, line := range lines {
		if strings.ContainsRune(line, holdGlyph) {
			hold = true
		}
	}
	if !hold {
		t.Error("max-hold line not drawn")
	}

	for _, line := range plot(toneFrame(), axis, 120, 20, false) {
		if strings.ContainsRune(line, holdGlyph) {
			t.Fatal("max-hold line drawn while hidden")
		}
	}
}

func TestPlotEmptyGrid(t *testing.T) {
	if lines := plot(toneFrame(), display.DefaultAxis(), 0, 10, false); lines != nil {
		t.Errorf("plot with no columns = %v, want nil", lines)
	}
	if lines := plot(toneFrame(), display.DefaultAxis(), 10, 0, false); lines != nil {
		t.Errorf("plot with no rows = %v, want nil", lines)
	}
}

func TestColumnLevels(t *testing.T) {
	points := func(yield func(display.Point) bool) {
		for _, p := range []display.Point{{X: 0, Y: 4}, {X: 0.4, Y: 1}, {X: 3, Y: 10}} {
			if !yield(p) {
				return
			}
		}
	}
	got := columnLevels(points, 4, 10)
	want := []float64{9, -1, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRuler(t *testing.T) {
	axis := display.DefaultAxis()
	r := ruler(axis, testSampleRate/2, 100)
	if utf8.RuneCountInString(r) != 100 {
		t.Fatalf("ruler has %d columns, want 100", utf8.RuneCountInString(r))
	}
	for _, label := range []string{"100", "1k", "10k"} {
		if !strings.Contains(r, label) {
			t.Errorf("ruler %q is missing %s", r, label)
		}
	}

	axis.Mode = display.ModeSkewed
	if r := ruler(axis, testSampleRate/2, 100); r != "" {
		t.Errorf("skewed ruler = %q, want empty", r)
	}
}

func TestFormatHz(t *testing.T) {
	tests := map[float64]string{
		50:    "50",
		500:   "500",
		1000:  "1k",
		2000:  "2k",
		20000: "20k",
	}
	for hz, want := range tests {
		if got := formatHz(hz); got != want {
			t.Errorf("formatHz(%v) = %q, want %q", hz, got, want)
		}
	}
}

func BenchmarkPlot(b *testing.B) {
	f := toneFrame()
	axis := display.DefaultAxis()
	for b.Loop() {
		plot(f, axis, 120, 30, true)
	}
}
