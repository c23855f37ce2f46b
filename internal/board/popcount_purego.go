//go:build purego

package board

// PopCount returns the number of set bits in b.
func PopCount(b Bitboard) int {
	return int(popCountSWAR(uint64(b)))
}
