package board

// StabilityRounds bounds the propagation loop in Stability. Sixteen rounds
// reach from one corner to the opposite one along any chain of neighbours.
const StabilityRounds = 16

// fullLines returns, per axis, the squares whose whole line along that axis is
// occupied. No future move can flip a disk along a full line.
func fullLines(occupied Bitboard) (vertical, horizontal, diagonal, antiDiagonal Bitboard) {
	vertical = North.Occlude(Rank1&occupied, occupied) &
		South.Occlude(Rank8&occupied, occupied)
	horizontal = East.Occlude(FileA&occupied, occupied) &
		West.Occlude(FileH&occupied, occupied)
	diagonal = NorthEast.Occlude((Rank1|FileA)&occupied, occupied) &
		SouthWest.Occlude((Rank8|FileH)&occupied, occupied)
	antiDiagonal = NorthWest.Occlude((Rank1|FileH)&occupied, occupied) &
		SouthEast.Occlude((Rank8|FileA)&occupied, occupied)
	return
}

// Stability returns the disks of own that can never be flipped again.
//
// A disk is stable when, on each of the four axes, its line is full, it sits
// on the board edge for that axis, or a neighbour along the axis is itself a
// stable own disk.
func Stability(own, opp Bitboard) Bitboard {
	vertical, horizontal, diagonal, antiDiagonal := fullLines(own | opp)

	// Squares where an axis cannot be used to outflank: full lines and the
	// edges the axis runs into.
	vertical |= Rank1 | Rank8
	horizontal |= FileA | FileH
	diagonal |= Border
	antiDiagonal |= Border

	stable := (Corners | (vertical & horizontal & diagonal & antiDiagonal)) & own
	for i := 0; i < StabilityRounds; i++ {
		stable = grow(stable, own, vertical, horizontal, diagonal, antiDiagonal)
	}
	return stable
}

func grow(stable, own, vertical, horizontal, diagonal, antiDiagonal Bitboard) Bitboard {
	return stable | own&
		(North.Step(stable)|South.Step(stable)|vertical)&
		(East.Step(stable)|West.Step(stable)|horizontal)&
		(NorthEast.Step(stable)|SouthWest.Step(stable)|diagonal)&
		(NorthWest.Step(stable)|SouthEast.Step(stable)|antiDiagonal)
}
