// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"testing"

	"fftplot/pkg/utils"
)

// triggerOffsets feeds blocks through an accumulator and returns the absolute
// sample offsets at which a full window was reported.
func triggerOffsets(n int, blocks [][]float32) []int {
	acc := NewAccumulator(n)
	var offsets []int
	pos := 0
	for _, block := range blocks {
		for _, s := range block {
			if acc.Push(float64(s)) {
				offsets = append(offsets, pos)
				acc.Reset()
			}
			pos++
		}
	}
	return offsets
}

func TestAccumulatorChunkingInvariance(t *testing.T) {
	const n = 256
	samples := utils.GenerateComplexWave(n*5+17, 44100)
	want := triggerOffsets(n, utils.Chunk(samples, 1))

	if len(want) != 5 {
		t.Fatalf("one-by-one feed triggered %d windows, want 5", len(want))
	}
	for i, off := range want {
		if off != (i+1)*n-1 {
			t.Fatalf("window %d triggered at %d, want %d", i, off, (i+1)*n-1)
		}
	}

	chunkings := [][]int{
		{7},
		{255, 1, 2},
		{n},
		{n + 1},
		{3 * n},
		{1, 500, 13, 1024},
	}
	for _, sizes := range chunkings {
		t.Run(fmt.Sprint(sizes), func(t *testing.T) {
			got := triggerOffsets(n, utils.Chunk(samples, sizes...))
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("triggers = %v, want %v", got, want)
			}
		})
	}
}

func TestAccumulatorResumesMidWindow(t *testing.T) {
	acc := NewAccumulator(8)
	for i := 0; i < 5; i++ {
		if acc.Push(float64(i)) {
			t.Fatalf("window reported full after %d samples", i+1)
		}
	}
	if acc.Cursor() != 5 {
		t.Fatalf("Cursor() = %d, want 5", acc.Cursor())
	}
	for i := 5; i < 7; i++ {
		acc.Push(float64(i))
	}
	if !acc.Push(7) {
		t.Fatal("eighth sample should fill the window")
	}
	for i, v := range acc.Window() {
		if v != float64(i) {
			t.Errorf("Window()[%d] = %v, want %d", i, v, i)
		}
	}
	acc.Reset()
	if acc.Cursor() != 0 {
		t.Errorf("Cursor() after Reset = %d, want 0", acc.Cursor())
	}
}

func TestAccumulatorFullWindowDropsExtraSamples(t *testing.T) {
	acc := NewAccumulator(4)
	for i := 0; i < 4; i++ {
		acc.Push(1)
	}
	if !acc.Push(99) {
		t.Error("a full window stays full until Reset")
	}
	if acc.Cursor() != acc.Size() {
		t.Errorf("Cursor() = %d, want %d", acc.Cursor(), acc.Size())
	}
	for _, v := range acc.Window() {
		if v == 99 {
			t.Fatal("sample pushed into a full window overwrote the buffer")
		}
	}
}

func TestAccumulatorPushHotPath(t *testing.T) {
	acc := NewAccumulator(DefaultFFTSize)
	allocs := testing.AllocsPerRun(100, func() {
		for i := 0; i < 512; i++ {
			if acc.Push(0.5) {
				acc.Reset()
			}
		}
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Push, got %.1f", allocs)
	}
}
