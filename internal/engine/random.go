package engine

import (
	"lukechampine.com/frand"

	"github.com/hailam/othello/internal/board"
)

// RandomMove picks a uniformly random legal move for the side to move, or
// board.PassMove when there is none.
func RandomMove(pos *board.Position) board.Square {
	return pickMove(pos.LegalMoves(), frand.Intn)
}

// pickMove selects one set bit of moves using intn to draw its rank.
func pickMove(moves board.Bitboard, intn func(int) int) board.Square {
	n := moves.PopCount()
	if n == 0 {
		return board.PassMove
	}
	rank := intn(n) + 1
	return board.Square(board.SelectBit(moves, rank) - 1)
}
