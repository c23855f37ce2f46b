package board

// Direction is one of the eight compass directions a run of disks can follow.
// Directions are named after the bit layout: north moves toward higher rows
// (<<8) and east toward higher bits within a row (<<1).
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists all eight directions, opposite pairs four apart.
var Directions = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

type step struct {
	shift int      // positive shifts left
	mask  Bitboard // squares a shift may land on without wrapping rows
}

var steps = [8]step{
	North:     {8, Universe},
	NorthEast: {9, NotFileA},
	East:      {1, NotFileA},
	SouthEast: {-7, NotFileA},
	South:     {-8, Universe},
	SouthWest: {-9, NotFileH},
	West:      {-1, NotFileH},
	NorthWest: {7, NotFileH},
}

var directionNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func shift(b Bitboard, n int) Bitboard {
	if n >= 0 {
		return b << uint(n)
	}
	return b >> uint(-n)
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return (d + 4) & 7
}

// Step moves every bit of gen one square in direction d, dropping bits that
// would wrap onto the next row.
func (d Direction) Step(gen Bitboard) Bitboard {
	s := steps[d]
	return shift(gen, s.shift) & s.mask
}

// Occlude extends gen along d through the propagator bits pro (Kogge-Stone
// occluded fill). The result includes gen. Three doubling rounds cover the
// eight squares of any line.
func (d Direction) Occlude(gen, pro Bitboard) Bitboard {
	s := steps[d]
	pro &= s.mask
	gen |= pro & shift(gen, s.shift)
	pro &= shift(pro, s.shift)
	gen |= pro & shift(gen, 2*s.shift)
	pro &= shift(pro, 2*s.shift)
	gen |= pro & shift(gen, 4*s.shift)
	return gen
}

// String returns the short compass name.
func (d Direction) String() string {
	if d > NorthWest {
		return "?"
	}
	return directionNames[d]
}
