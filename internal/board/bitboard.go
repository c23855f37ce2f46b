package board

import (
	"math/bits"
	"strings"
)

// Bitboard represents a 64-bit board where each bit corresponds to a square.
// Square (x, y) lives at bit (7-y)*8 + (7-x), so a1 is bit 63 and h8 is bit 0.
type Bitboard uint64

// Bit-column masks. "File A" is bit 0 of every row byte, which is the h-file
// in square notation. Shift directions in direction.go use the same
// orientation: east moves toward higher bits within a row.
const (
	FileA Bitboard = 0x0101010101010101
	FileH Bitboard = 0x8080808080808080

	NotFileA Bitboard = ^FileA
	NotFileH Bitboard = ^FileH
)

// Bit-row masks.
const (
	Rank1 Bitboard = 0x00000000000000FF
	Rank8 Bitboard = 0xFF00000000000000
)

// Special masks
const (
	Empty    Bitboard = 0
	Universe Bitboard = 0xFFFFFFFFFFFFFFFF

	Corners Bitboard = 0x8100000000000081
	Border  Bitboard = FileA | FileH | Rank1 | Rank8

	// Squares diagonally adjacent to a corner.
	XSquares Bitboard = 0x0042000000004200
	// Squares orthogonally adjacent to a corner.
	CSquares Bitboard = 0x4281000000008142

	// Standard starting disks.
	StartBlack Bitboard = 0x0000000810000000
	StartWhite Bitboard = 0x0000001008000000
)

// Partial-sum masks for the SWAR population count, spelled out for 64 bits.
const (
	m1  uint64 = 0x5555555555555555 // ^uint64(0) / 3
	m2  uint64 = 0x3333333333333333 // ^uint64(0) / 5
	m4  uint64 = 0x0F0F0F0F0F0F0F0F // ^uint64(0) / 0x11
	m8  uint64 = 0x00FF00FF00FF00FF // ^uint64(0) / 0x101
	h01 uint64 = 0x0101010101010101
)

// PopCount returns the number of set bits (population count).
func (b Bitboard) PopCount() int {
	return PopCount(b)
}

// partialSums returns the 2, 4, 8 and 16-bit group counts of v.
func partialSums(v uint64) (a, b, c, d uint64) {
	a = v - ((v >> 1) & m1)
	b = (a & m2) + ((a >> 2) & m2)
	c = (b + (b >> 4)) & m4
	d = (c + (c >> 8)) & m8
	return
}

// popCountSWAR is the table-free count used by purego builds: pairwise sums
// finished with a multiply-and-shift horizontal add.
func popCountSWAR(v uint64) uint64 {
	_, _, c, _ := partialSums(v)
	return (c * h01) >> 56
}

// ExtractLowestDisk returns a mask holding only the lowest set bit of b,
// or 0 when b is empty.
func ExtractLowestDisk(b Bitboard) Bitboard {
	return b & -b
}

// SelectBit returns the 1-based position (1 = least significant bit) of the
// rank-th set bit of b, counting ranks from the least significant end.
// rank must be in [1, PopCount(b)]; other values return garbage.
func SelectBit(b Bitboard, rank int) int {
	v := uint64(b)
	a, bb, c, d := partialSums(v)

	// The narrowing below picks ranks from the most significant end.
	r := (c*h01)>>56 + 1 - uint64(rank)

	s := uint64(64)
	t := ((d >> 32) + (d >> 48)) & 0xff
	s -= ((t - r) & 256) >> 3
	r -= t & ((t - r) >> 8)
	t = (d >> (s - 16)) & 0xff
	s -= ((t - r) & 256) >> 4
	r -= t & ((t - r) >> 8)
	t = (c >> (s - 8)) & 0xf
	s -= ((t - r) & 256) >> 5
	r -= t & ((t - r) >> 8)
	t = (bb >> (s - 4)) & 0x7
	s -= ((t - r) & 256) >> 6
	r -= t & ((t - r) >> 8)
	t = (a >> (s - 2)) & 0x3
	s -= ((t - r) & 256) >> 7
	r -= t & ((t - r) >> 8)
	t = (v >> (s - 1)) & 0x1
	s -= ((t - r) & 256) >> 8

	return int(s)
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	return b&sq.Bitboard() != 0
}

// LSB returns the square of the lowest set bit.
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

// Empty returns true if no bits are set.
func (b Bitboard) Empty() bool {
	return b == 0
}

// String renders the mask as an 8x8 grid, a1 in the top-left corner.
func (b Bitboard) String() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for y := 0; y < 8; y++ {
		sb.WriteByte(byte('1' + y))
		for x := 0; x < 8; x++ {
			if b.IsSet(NewSquare(x, y)) {
				sb.WriteString(" 1")
			} else {
				sb.WriteString(" .")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
