// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math/cmplx"
	"strings"

	"fftplot/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the tapering function applied before the transform.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Nuttall
	Lanczos
)

var windowNames = map[WindowFunc]string{
	Hann:            "hann",
	Hamming:         "hamming",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	BartlettHann:    "bartletthann",
	Nuttall:         "nuttall",
	Lanczos:         "lanczos",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// ParseWindowFunc converts a case-insensitive name to a WindowFunc. Unknown
// names return Hann together with an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "nuttall":
		return Nuttall, nil
	case "lanczos":
		return Lanczos, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// windowTable fills coeffs with the window's coefficients. The gonum window
// functions scale their argument in place, so the table starts at 1.
func windowTable(coeffs []float64, w WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch w {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	default:
		window.Hann(coeffs)
	}
}

// Transform turns a full sample window into N/2 bin magnitudes. All buffers
// are allocated up front so Magnitudes can run on the audio thread.
type Transform struct {
	size   int
	fft    *fourier.FFT
	table  []float64    // window coefficients
	input  []float64    // windowed copy of the source window
	coeffs []complex128 // N/2+1 complex bins
}

// NewTransform prepares a transform of n points using window w.
func NewTransform(n int, w WindowFunc) (*Transform, error) {
	if !bitint.IsPowerOfTwo(n) || n < 2 {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", n)
	}

	table := make([]float64, n)
	windowTable(table, w)

	return &Transform{
		size:   n,
		fft:    fourier.NewFFT(n),
		table:  table,
		input:  make([]float64, n),
		coeffs: make([]complex128, n/2+1),
	}, nil
}

// Size returns N.
func (t *Transform) Size() int {
	return t.size
}

// Bins returns the number of magnitudes Magnitudes writes, N/2.
func (t *Transform) Bins() int {
	return t.size / 2
}

// Magnitudes windows a copy of src and writes |X[k]| for k in [0, N/2) into
// dst. Bin 0 is DC and bin N/2-1 sits one bin below Nyquist. src is never
// modified. The output is unnormalised: a full-scale sine reads about N/4
// with a Hann window.
func (t *Transform) Magnitudes(dst, src []float64) {
	// Copy-before-transform: src belongs to the accumulator.
	n := copy(t.input, src)
	for i := n; i < t.size; i++ {
		t.input[i] = 0
	}
	for i := range t.input {
		t.input[i] *= t.table[i]
	}

	t.fft.Coefficients(t.coeffs, t.input)

	bins := min(len(dst), t.size/2)
	for k := 0; k < bins; k++ {
		dst[k] = cmplx.Abs(t.coeffs[k])
	}
}

// Window returns the window coefficients. The slice is shared; do not modify.
func (t *Transform) Window() []float64 {
	return t.table
}
