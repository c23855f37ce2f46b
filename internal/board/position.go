package board

import (
	"fmt"
	"strings"
)

// BoardSquares is the number of squares on the board.
const BoardSquares = 64

// Position represents a complete Othello position.
type Position struct {
	Disks      [2]Bitboard // indexed by Color
	SideToMove Color
}

// Undo holds the information needed to take a move back.
type Undo struct {
	Move    Square
	Flipped Bitboard
}

// NewPosition creates the starting position, black to move.
func NewPosition() *Position {
	return &Position{
		Disks:      [2]Bitboard{Black: StartBlack, White: StartWhite},
		SideToMove: Black,
	}
}

// NewPositionFromView builds a position from the side to move's view.
func NewPositionFromView(own, opp Bitboard, toMove Color) *Position {
	p := &Position{SideToMove: toMove}
	p.Disks[toMove] = own
	p.Disks[toMove.Other()] = opp
	return p
}

// Copy creates a copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// Own returns the disks of the side to move.
func (p *Position) Own() Bitboard {
	return p.Disks[p.SideToMove]
}

// Opp returns the disks of the side not to move.
func (p *Position) Opp() Bitboard {
	return p.Disks[p.SideToMove.Other()]
}

// Occupied returns all disks on the board.
func (p *Position) Occupied() Bitboard {
	return p.Disks[Black] | p.Disks[White]
}

// Empties returns the number of empty squares.
func (p *Position) Empties() int {
	return BoardSquares - PopCount(p.Occupied())
}

// DiskCount returns the number of disks of the given color.
func (p *Position) DiskCount(c Color) int {
	return PopCount(p.Disks[c])
}

// ColorAt returns the color of the disk on sq, or NoColor if empty.
func (p *Position) ColorAt(sq Square) Color {
	switch {
	case p.Disks[Black].IsSet(sq):
		return Black
	case p.Disks[White].IsSet(sq):
		return White
	}
	return NoColor
}

// LegalMoves returns the legal moves of the side to move.
func (p *Position) LegalMoves() Bitboard {
	return FindMoves(p.Own(), p.Opp())
}

// HasMoves returns true if color c has at least one legal move.
func (p *Position) HasMoves(c Color) bool {
	return FindMoves(p.Disks[c], p.Disks[c.Other()]) != 0
}

// IsLegal returns true if sq is a legal move for the side to move. A pass is
// legal only when no other move is.
func (p *Position) IsLegal(sq Square) bool {
	moves := p.LegalMoves()
	if sq.IsPass() {
		return moves == 0
	}
	return sq.IsValid() && moves.IsSet(sq)
}

// MustPass returns true if the side to move has no move but the game goes on.
func (p *Position) MustPass() bool {
	return p.LegalMoves() == 0 && p.HasMoves(p.SideToMove.Other())
}

// IsGameOver returns true when neither side can move.
func (p *Position) IsGameOver() bool {
	return !p.HasMoves(Black) && !p.HasMoves(White)
}

// MakeMove plays sq for the side to move without validation and returns the
// information needed to undo it. PassMove only hands the turn over.
func (p *Position) MakeMove(sq Square) Undo {
	undo := Undo{Move: sq}
	if !sq.IsPass() {
		us, them := p.SideToMove, p.SideToMove.Other()
		disk := sq.Bitboard()
		flips := ResolveMove(p.Disks[us], p.Disks[them], disk)
		p.Disks[us] ^= flips | disk
		p.Disks[them] ^= flips
		undo.Flipped = flips
	}
	p.SideToMove = p.SideToMove.Other()
	return undo
}

// UnmakeMove takes back a move made with MakeMove.
func (p *Position) UnmakeMove(u Undo) {
	p.SideToMove = p.SideToMove.Other()
	if u.Move.IsPass() {
		return
	}
	us, them := p.SideToMove, p.SideToMove.Other()
	p.Disks[us] ^= u.Flipped | u.Move.Bitboard()
	p.Disks[them] ^= u.Flipped
}

// Play validates and makes a move.
func (p *Position) Play(sq Square) (Undo, error) {
	if !p.IsLegal(sq) {
		return Undo{}, fmt.Errorf("%w: %s for %s", ErrIllegalMove, sq, p.SideToMove)
	}
	return p.MakeMove(sq), nil
}

// Pass hands the turn to the opponent.
func (p *Position) Pass() {
	p.SideToMove = p.SideToMove.Other()
}

// Outcome returns the result by disk count once the game is over.
func (p *Position) Outcome() Outcome {
	if !p.IsGameOver() {
		return Ongoing
	}
	black, white := p.DiskCount(Black), p.DiskCount(White)
	switch {
	case black > white:
		return BlackWins
	case white > black:
		return WhiteWins
	}
	return Draw
}

// FinalScore returns black's disks minus white's with empty squares awarded
// to the winner.
func (p *Position) FinalScore() int {
	diff := p.DiskCount(Black) - p.DiskCount(White)
	empties := p.Empties()
	switch {
	case diff > 0:
		return diff + empties
	case diff < 0:
		return diff - empties
	}
	return 0
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	moves := p.LegalMoves()
	for y := 0; y < 8; y++ {
		sb.WriteByte(byte('1' + y))
		for x := 0; x < 8; x++ {
			sq := NewSquare(x, y)
			c := p.ColorAt(sq)
			sb.WriteByte(' ')
			switch {
			case c != NoColor:
				sb.WriteByte(c.Symbol())
			case moves.IsSet(sq):
				sb.WriteByte('*')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%s to move (X %d, O %d)\n",
		p.SideToMove, p.DiskCount(Black), p.DiskCount(White))
	return sb.String()
}
