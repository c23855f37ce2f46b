package engine

import "github.com/hailam/othello/internal/board"

// Score bounds. Heuristic scores stay strictly inside ±maxEval; finished
// games score WinScore plus the final disk margin.
const (
	Infinity = 32000
	WinScore = 20000
	maxEval  = WinScore - 1000
	MaxPly   = 64
)

// Evaluation weights.
const (
	mobilityWeight  = 12
	potentialWeight = 4
	stableWeight    = 30
	diskWeight      = 8
	lateGameEmpties = 16
)

// positional is the classic square table indexed by (y, x). It is symmetric
// under every board symmetry, so orientation does not matter.
var positional = [8][8]int{
	{100, -20, 10, 5, 5, 10, -20, 100},
	{-20, -50, -2, -2, -2, -2, -50, -20},
	{10, -2, 1, 1, 1, 1, -2, 10},
	{5, -2, 1, 0, 0, 1, -2, 5},
	{5, -2, 1, 0, 0, 1, -2, 5},
	{10, -2, 1, 1, 1, 1, -2, 10},
	{-20, -50, -2, -2, -2, -2, -50, -20},
	{100, -20, 10, 5, 5, 10, -20, 100},
}

var squareWeight [board.BoardSquares]int

func init() {
	for sq := board.Square(0); sq < board.BoardSquares; sq++ {
		x, y := sq.Coords()
		squareWeight[sq] = positional[y][x]
	}
}

// Evaluate scores the position from the point of view of the player owning
// own. Evaluate(own, opp) == -Evaluate(opp, own) for every position.
func Evaluate(own, opp board.Bitboard) int {
	empty := board.Universe ^ (own | opp)

	score := placement(own) - placement(opp)

	// X and C squares stop hurting once their corner is taken.
	score += cornerRelief(own, opp) - cornerRelief(opp, own)

	score += mobilityWeight * (board.Mobility(own, opp) - board.Mobility(opp, own))

	// Potential mobility: empties next to the opponent are future moves for us.
	score += potentialWeight * (board.Frontier(opp, empty).PopCount() - board.Frontier(own, empty).PopCount())

	score += stableWeight * (board.Stability(own, opp).PopCount() - board.Stability(opp, own).PopCount())

	if empty.PopCount() <= lateGameEmpties {
		score += diskWeight * (own.PopCount() - opp.PopCount())
	}

	return clampEval(score)
}

func placement(b board.Bitboard) int {
	s := 0
	for b != 0 {
		s += squareWeight[b.PopLSB()]
	}
	return s
}

// cornerRelief returns back the penalty paid for X and C squares whose
// corner is already occupied.
func cornerRelief(own, opp board.Bitboard) int {
	relief := 0
	for corners := board.Corners & (own | opp); corners != 0; {
		c := corners.PopLSB().Bitboard()
		row := c | board.East.Step(c) | board.West.Step(c)
		near := (row | board.North.Step(row) | board.South.Step(row)) & (board.XSquares | board.CSquares) & own
		for near != 0 {
			relief -= squareWeight[near.PopLSB()]
		}
	}
	return relief
}

func clampEval(score int) int {
	if score > maxEval {
		return maxEval
	}
	if score < -maxEval {
		return -maxEval
	}
	return score
}

// finalScore is the disk margin of a finished game with the empties awarded
// to the winner.
func finalScore(own, opp board.Bitboard) int {
	o, p := own.PopCount(), opp.PopCount()
	empties := board.BoardSquares - o - p
	switch {
	case o > p:
		return o - p + empties
	case o < p:
		return o - p - empties
	}
	return 0
}

// terminalScore ranks any finished game above every heuristic score.
func terminalScore(own, opp board.Bitboard) int {
	s := finalScore(own, opp)
	switch {
	case s > 0:
		return WinScore + s
	case s < 0:
		return -WinScore + s
	}
	return 0
}

// IsWinScore reports whether score comes from a finished game.
func IsWinScore(score int) bool {
	return score > maxEval || score < -maxEval
}
