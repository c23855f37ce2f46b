package board

import (
	"fmt"
	"strings"
)

// StartBoard is the board notation of the starting position.
const StartBoard = "---------------------------OX------XO--------------------------- X"

// ParseBoard parses board notation: 64 characters from a1 to h8 row by row
// ('X' black, 'O' white, '-' or '.' empty), a space, then the side to move.
// The side to move defaults to black when omitted.
func ParseBoard(s string) (*Position, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return nil, fmt.Errorf("%w: board needs 1 or 2 fields, got %d", ErrBadNotation, len(parts))
	}
	if len(parts[0]) != BoardSquares {
		return nil, fmt.Errorf("%w: board needs %d squares, got %d", ErrBadNotation, BoardSquares, len(parts[0]))
	}

	pos := &Position{SideToMove: Black}
	for i := 0; i < BoardSquares; i++ {
		sq := NewSquare(i%8, i/8)
		switch parts[0][i] {
		case 'X', 'x', '*', 'B', 'b':
			pos.Disks[Black] |= sq.Bitboard()
		case 'O', 'o', 'W', 'w':
			pos.Disks[White] |= sq.Bitboard()
		case '-', '.':
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %s", ErrBadNotation, parts[0][i], sq)
		}
	}

	if len(parts) == 2 {
		c, ok := ParseColor(parts[1])
		if !ok {
			return nil, fmt.Errorf("%w: side to move %q", ErrBadNotation, parts[1])
		}
		pos.SideToMove = c
	}

	return pos, nil
}

// Notation returns the position in board notation.
func (p *Position) Notation() string {
	var sb strings.Builder
	sb.Grow(BoardSquares + 2)
	for i := 0; i < BoardSquares; i++ {
		sb.WriteByte(p.ColorAt(NewSquare(i%8, i/8)).Symbol())
	}
	sb.WriteByte(' ')
	sb.WriteByte(p.SideToMove.Symbol())
	return sb.String()
}

// ParseTranscript plays a move list such as "f5d6c3" from the starting
// position. Passes are applied automatically and may also be written out
// as "pa" or "--".
func ParseTranscript(s string) (*Position, []Square, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if len(s)%2 != 0 {
		return nil, nil, fmt.Errorf("%w: transcript length %d is odd", ErrBadNotation, len(s))
	}

	pos := NewPosition()
	moves := make([]Square, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		sq, err := ParseSquare(s[i : i+2])
		if err != nil {
			return nil, nil, err
		}
		if sq.IsPass() {
			if !pos.MustPass() {
				return nil, nil, fmt.Errorf("%w: pass at move %d", ErrIllegalMove, i/2+1)
			}
			pos.Pass()
			continue
		}
		if pos.MustPass() {
			pos.Pass()
		}
		if _, err := pos.Play(sq); err != nil {
			return nil, nil, fmt.Errorf("move %d: %w", i/2+1, err)
		}
		moves = append(moves, sq)
	}
	return pos, moves, nil
}

// Transcript formats a move list, skipping passes.
func Transcript(moves []Square) string {
	var sb strings.Builder
	sb.Grow(2 * len(moves))
	for _, m := range moves {
		if m.IsPass() {
			continue
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}
