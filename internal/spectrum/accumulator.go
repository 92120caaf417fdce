// SPDX-License-Identifier: MIT
package spectrum

// Accumulator collects samples into a fixed-size transform window. It is
// owned by the producer and is fed one sample at a time, so the host's block
// size never has to line up with the window size.
type Accumulator struct {
	window []float64
	cursor int
}

// NewAccumulator returns an accumulator for windows of n samples.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{window: make([]float64, n)}
}

// Push stores sample at the cursor and advances it. It returns true when the
// window has just become full; the caller must then consume Window and call
// Reset before pushing again. Pushing into a full window drops the sample.
func (a *Accumulator) Push(sample float64) (full bool) {
	if a.cursor < len(a.window) {
		a.window[a.cursor] = sample
		a.cursor++
	}
	return a.cursor == len(a.window)
}

// Window returns the accumulator's buffer. Its contents are only meaningful
// once Push has reported a full window.
func (a *Accumulator) Window() []float64 {
	return a.window
}

// Reset rewinds the cursor to the start of the window.
func (a *Accumulator) Reset() {
	a.cursor = 0
}

// Cursor returns the number of samples currently held.
func (a *Accumulator) Cursor() int {
	return a.cursor
}

// Size returns the window length N.
func (a *Accumulator) Size() int {
	return len(a.window)
}
