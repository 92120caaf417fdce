// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"fftplot/internal/display"
	"fftplot/internal/spectrum"
)

// partial holds the lower-eighth block glyphs, index = filled eighths.
var partial = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇'}

const holdGlyph = '─'

// labelFrequencies are the tick marks of the frequency ruler.
var labelFrequencies = []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000, 20000}

// plotAxis fits axis to a grid of cols x rows cells: one curve point per
// column, x in [0, cols-1], y in [0, rows].
func plotAxis(axis display.Axis, cols, rows int) display.Axis {
	axis.Width = float64(max(cols-1, 1))
	axis.Height = float64(rows)
	axis.Points = cols
	return axis
}

// columnLevels returns the filled height of each column in rows. Columns
// that no point lands on stay at -1.
func columnLevels(curve iter.Seq[display.Point], cols, rows int) []float64 {
	levels := make([]float64, cols)
	for c := range levels {
		levels[c] = -1
	}
	for p := range curve {
		c := min(max(int(math.Round(p.X)), 0), cols-1)
		levels[c] = max(levels[c], float64(rows)-p.Y)
	}
	return levels
}

// plot draws the smoothed spectrum as bars, and optionally the max-hold
// envelope as a line, on a cols x rows grid.
func plot(f *spectrum.Frame, axis display.Axis, cols, rows int, showHold bool) []string {
	if cols < 1 || rows < 1 {
		return nil
	}
	a := plotAxis(axis, cols, rows)
	levels := columnLevels(a.Curve(f), cols, rows)
	var holds []float64
	if showHold {
		holds = columnLevels(a.HoldCurve(f), cols, rows)
	}

	lines := make([]string, rows)
	line := make([]rune, cols)
	for r := 0; r < rows; r++ {
		bottom := float64(rows - 1 - r)
		for c := 0; c < cols; c++ {
			fill := levels[c] - bottom
			switch {
			case fill >= 1:
				line[c] = '█'
			case fill > 0:
				line[c] = partial[min(int(fill*8), 7)]
			case holds != nil && holds[c] > 0 && int(math.Ceil(holds[c]))-1 == int(bottom):
				line[c] = holdGlyph
			default:
				line[c] = ' '
			}
		}
		lines[r] = string(line)
	}
	return lines
}

// ruler labels frequencies under the plot. Labels that would overlap are
// skipped. Skewed axes are not logarithmic and get no ruler.
func ruler(axis display.Axis, nyquist float64, cols int) string {
	if cols < 1 || axis.Mode == display.ModeSkewed || nyquist <= axis.MinFrequency {
		return ""
	}
	width := float64(max(cols-1, 1))
	line := []rune(strings.Repeat(" ", cols))
	next := 0
	for _, hz := range labelFrequencies {
		if hz <= axis.MinFrequency || hz >= nyquist {
			continue
		}
		label := []rune(formatHz(hz))
		x := int(math.Round(display.FrequencyToX(hz, axis.MinFrequency, nyquist, width)))
		start := x - len(label)/2
		if start < next || start+len(label) > cols {
			continue
		}
		copy(line[start:], label)
		next = start + len(label) + 1
	}
	return string(line)
}

func formatHz(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%gk", hz/1000)
	}
	return fmt.Sprintf("%g", hz)
}
