package hcsr04

import "math/bits"

// HighBits returns the number of set bits across rx. The result is always
// within [0, 8*len(rx)].
func HighBits(rx []byte) int {
	var n int
	for _, b := range rx {
		n += bits.OnesCount8(b)
	}
	return n
}

// LastHighBit returns the position of the last set bit in rx, numbering the
// bits of each byte from the least significant one. It returns -1 when no
// bit is set.
func LastHighBit(rx []byte) int {
	for i := len(rx) - 1; i >= 0; i-- {
		if rx[i] != 0 {
			return i*8 + bits.Len8(rx[i]) - 1
		}
	}
	return -1
}
