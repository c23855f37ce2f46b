package board

// FindMoves returns every empty square where own can play and capture at
// least one opponent disk. own and opp must not overlap.
func FindMoves(own, opp Bitboard) Bitboard {
	empty := ^(own | opp)
	var moves Bitboard
	for _, d := range Directions {
		run := d.Occlude(own, opp) & opp
		moves |= d.Step(run) & empty
	}
	return moves
}

// ResolveMove returns the opponent disks flipped when own plays newDisk.
// newDisk must be a single empty square. The caller applies the result:
// own ^= flips | newDisk, opp ^= flips.
func ResolveMove(own, opp, newDisk Bitboard) Bitboard {
	var flips Bitboard
	for _, d := range Directions {
		flips |= d.Occlude(own, opp) & d.Opposite().Occlude(newDisk, opp)
	}
	return flips
}

// Mobility returns the number of legal moves for own.
func Mobility(own, opp Bitboard) int {
	return PopCount(FindMoves(own, opp))
}

// Frontier returns the empty squares adjacent to at least one disk in b.
func Frontier(b, empty Bitboard) Bitboard {
	var f Bitboard
	for _, d := range Directions {
		f |= d.Step(b)
	}
	return f & empty
}
