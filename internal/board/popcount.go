//go:build !purego

package board

import "math/bits"

// PopCount returns the number of set bits in b.
// bits.OnesCount64 compiles to POPCNT where the target has it.
func PopCount(b Bitboard) int {
	return bits.OnesCount64(uint64(b))
}
