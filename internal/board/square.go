// Package board implements Othello board representation using bitboards.
package board

import "fmt"

// Square is the bit index of a board square (0-63).
// Square (x, y) is bit (7-y)*8 + (7-x): a1 = 63, h1 = 56, a8 = 7, h8 = 0.
type Square uint8

// NoSquare doubles as the pass move.
const NoSquare Square = 64

// PassMove is the move a side makes when it has no legal move.
const PassMove = NoSquare

// MakeSingleton returns the mask holding only square (x, y), x and y in [0, 7].
func MakeSingleton(x, y int) Bitboard {
	return 1 << uint((7-y)*8+(7-x))
}

// NewSquare creates a square from column x (0 = a) and row y (0 = 1).
func NewSquare(x, y int) Square {
	return Square((7-y)*8 + (7 - x))
}

// Coords returns the column and row of the square; it inverts NewSquare.
func (sq Square) Coords() (x, y int) {
	return 7 - int(sq)&7, 7 - int(sq)>>3
}

// Bitboard returns the singleton mask of the square.
func (sq Square) Bitboard() Bitboard {
	return 1 << sq
}

// String returns the square name (e.g., "d3"), or "pass" for NoSquare.
func (sq Square) String() string {
	if sq >= NoSquare {
		return "pass"
	}
	x, y := sq.Coords()
	return fmt.Sprintf("%c%c", 'a'+x, '1'+y)
}

// ParseSquare parses a square name (e.g., "d3"), case-insensitive.
// "pass" and "--" parse to PassMove.
func ParseSquare(s string) (Square, error) {
	if s == "pass" || s == "--" || s == "PA" || s == "pa" {
		return PassMove, nil
	}
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: square %q", ErrBadNotation, s)
	}

	c := s[0]
	if c >= 'A' && c <= 'H' {
		c += 'a' - 'A'
	}
	x := int(c) - 'a'
	y := int(s[1]) - '1'

	if x < 0 || x > 7 || y < 0 || y > 7 {
		return NoSquare, fmt.Errorf("%w: square %q", ErrBadNotation, s)
	}

	return NewSquare(x, y), nil
}

// MustParseSquare is ParseSquare for literals known to be valid.
func MustParseSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

// IsValid returns true if the square is on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// IsPass returns true for the pass move.
func (sq Square) IsPass() bool {
	return sq == PassMove
}
