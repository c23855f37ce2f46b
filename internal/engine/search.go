package engine

import (
	"context"
	"sync/atomic"

	"github.com/hailam/othello/internal/board"
)

// maxMoves bounds the number of legal moves in any reachable position.
const maxMoves = 40

// checkInterval is how many nodes pass between context checks.
const checkInterval = 1 << 12

// scoredMove is a candidate move with its flips precomputed for ordering.
type scoredMove struct {
	sq    board.Square
	flips board.Bitboard
	score int
}

// moveList is a fixed-size move buffer kept on the stack.
type moveList struct {
	moves [maxMoves]scoredMove
	n     int
}

// Searcher runs a principal variation (negascout) alpha-beta search over
// side-to-move views of the board.
type Searcher struct {
	tt       *TranspositionTable
	ctx      context.Context
	nodes    atomic.Uint64
	stopFlag atomic.Bool
}

// NewSearcher creates a searcher sharing the given transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{tt: tt, ctx: context.Background()}
}

// Reset clears the node counter and stop flag before a new search.
func (s *Searcher) Reset(ctx context.Context) {
	s.ctx = ctx
	s.nodes.Store(0)
	s.stopFlag.Store(false)
}

// Stop asks a running search to return as soon as possible.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Stopped reports whether the last search was interrupted.
func (s *Searcher) Stopped() bool {
	return s.stopFlag.Load()
}

// Nodes returns the number of nodes visited since the last Reset.
func (s *Searcher) Nodes() uint64 {
	return s.nodes.Load()
}

func (s *Searcher) tick() bool {
	if s.nodes.Add(1)%checkInterval == 0 && s.ctx.Err() != nil {
		s.stopFlag.Store(true)
	}
	return s.stopFlag.Load()
}

// Search searches the view (own to move) to the given depth with a full
// window and returns the best move and its score.
func (s *Searcher) Search(own, opp board.Bitboard, depth int) (board.Square, int) {
	return s.SearchWithBounds(own, opp, depth, -Infinity, Infinity)
}

// SearchWithBounds searches the root with an explicit aspiration window.
// It returns board.PassMove when own has no move.
func (s *Searcher) SearchWithBounds(own, opp board.Bitboard, depth, alpha, beta int) (board.Square, int) {
	moves := board.FindMoves(own, opp)
	if moves == 0 {
		return board.PassMove, s.negascout(own, opp, depth, alpha, beta, false)
	}

	key := viewKey(own, opp)
	hashMove := board.NoSquare
	if e, ok := s.tt.Probe(key); ok {
		hashMove = e.BestMove
	}

	var list moveList
	orderMoves(&list, own, opp, moves, hashMove, true)

	alphaOrig := alpha
	bestMove := list.moves[0].sq
	best := -Infinity
	for i := 0; i < list.n; i++ {
		m := &list.moves[i]
		childOwn, childOpp := play(own, opp, m.sq, m.flips)

		var score int
		if i == 0 {
			score = -s.negascout(childOwn, childOpp, depth-1, -beta, -alpha, false)
		} else {
			score = -s.negascout(childOwn, childOpp, depth-1, -alpha-1, -alpha, false)
			if score > alpha && score < beta {
				score = -s.negascout(childOwn, childOpp, depth-1, -beta, -alpha, false)
			}
		}
		if s.stopFlag.Load() {
			break
		}
		if score > best {
			best = score
			bestMove = m.sq
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
	}

	if !s.stopFlag.Load() {
		s.tt.Store(key, depth, best, boundFlag(best, alphaOrig, beta), bestMove)
	}
	return bestMove, best
}

// negascout returns the score of the view for own. passed is set when the
// previous player had to pass.
func (s *Searcher) negascout(own, opp board.Bitboard, depth, alpha, beta int, passed bool) int {
	if s.tick() {
		return 0
	}

	moves := board.FindMoves(own, opp)
	if moves == 0 {
		if passed {
			return terminalScore(own, opp)
		}
		return -s.negascout(opp, own, depth, -beta, -alpha, true)
	}

	if depth <= 0 {
		return Evaluate(own, opp)
	}

	key := viewKey(own, opp)
	hashMove := board.NoSquare
	if e, ok := s.tt.Probe(key); ok {
		hashMove = e.BestMove
		if int(e.Depth) >= depth {
			score := int(e.Score)
			switch e.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	var list moveList
	orderMoves(&list, own, opp, moves, hashMove, depth >= 3)

	alphaOrig := alpha
	best := -Infinity
	bestMove := board.NoSquare
	for i := 0; i < list.n; i++ {
		m := &list.moves[i]
		childOwn, childOpp := play(own, opp, m.sq, m.flips)

		var score int
		if i == 0 {
			score = -s.negascout(childOwn, childOpp, depth-1, -beta, -alpha, false)
		} else {
			score = -s.negascout(childOwn, childOpp, depth-1, -alpha-1, -alpha, false)
			if score > alpha && score < beta {
				score = -s.negascout(childOwn, childOpp, depth-1, -beta, -alpha, false)
			}
		}
		if s.stopFlag.Load() {
			return 0
		}
		if score > best {
			best = score
			bestMove = m.sq
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
	}

	s.tt.Store(key, depth, best, boundFlag(best, alphaOrig, beta), bestMove)
	return best
}

func boundFlag(score, alpha, beta int) TTFlag {
	switch {
	case score <= alpha:
		return TTUpperBound
	case score >= beta:
		return TTLowerBound
	}
	return TTExact
}

// play returns the child view after own plays sq flipping flips.
func play(own, opp board.Bitboard, sq board.Square, flips board.Bitboard) (childOwn, childOpp board.Bitboard) {
	return opp ^ flips, own | flips | sq.Bitboard()
}

// orderMoves fills list with the moves in moves, hash move first. With
// mobility set the rest are sorted by the opponent's reply count (fewest
// first), otherwise by the square table.
func orderMoves(list *moveList, own, opp, moves board.Bitboard, hashMove board.Square, mobility bool) {
	list.n = 0
	for moves != 0 {
		sq := moves.PopLSB()
		flips := board.ResolveMove(own, opp, sq.Bitboard())
		score := squareWeight[sq]
		if mobility {
			childOwn, childOpp := play(own, opp, sq, flips)
			score -= 16 * board.Mobility(childOwn, childOpp)
		}
		if sq == hashMove {
			score = Infinity
		}
		list.moves[list.n] = scoredMove{sq: sq, flips: flips, score: score}
		list.n++
	}

	// Insertion sort, descending. Lists are short.
	for i := 1; i < list.n; i++ {
		m := list.moves[i]
		j := i - 1
		for j >= 0 && list.moves[j].score < m.score {
			list.moves[j+1] = list.moves[j]
			j--
		}
		list.moves[j+1] = m
	}
}
