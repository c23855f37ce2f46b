package board

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
)

// Hash returns a 64-bit key of the position, stable across runs. It keys the
// transposition table, the opening book and the persistent solve cache.
func (p *Position) Hash() uint64 {
	return HashDisks(p.Own(), p.Opp(), p.SideToMove)
}

// HashDisks hashes a (side to move, own, opp) triple.
func HashDisks(own, opp Bitboard, toMove Color) uint64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(own))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(opp))
	buf[16] = byte(toMove)
	return xxhash.Sum64(buf[:])
}
