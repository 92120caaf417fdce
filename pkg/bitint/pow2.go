/*
Package bitint provides the power-of-two helpers the analyzer needs to size
its transform window. Everything here is allocation free and constant time,
so it is safe to call from the audio callback.

Usage:

	// Round a requested window size up to something the FFT accepts
	n := bitint.NextPowerOfTwo(2000) // 2048

	// Check a configured window size
	ok := bitint.IsPowerOfTwo(n)

	// Convert between the window size and the FFT order used in config files
	order := bitint.Log2(2048)    // 11
	size := bitint.FromOrder(11)  // 2048

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two are preserved:

	size=8: bits.Len(7) = 3, 1<<3 = 8
	size=9: bits.Len(8) = 4, 1<<4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
// Non-positive sizes return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
// A power of two has exactly one bit set, so n&(n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of a power of two, or -1 when n is not
// a power of two.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}

// FromOrder returns 1<<order, the window size for an FFT order. Orders
// outside 0-30 return 0.
func FromOrder(order int) int {
	if order < 0 || order > 30 {
		return 0
	}
	return 1 << order
}
