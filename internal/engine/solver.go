package engine

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/othello/internal/board"
)

// fastestFirstCutoff is the number of empties below which the solver stops
// ordering moves by opponent mobility.
const fastestFirstCutoff = 5

// Windows for the endgame solver. Win/loss/draw only needs to separate the
// sign of the result; an exact solve needs the whole disk range.
const (
	wldBound   = 1
	exactBound = board.BoardSquares + 1
)

// SolveResult is the outcome of an endgame solve from the root view.
type SolveResult struct {
	Move  board.Square // best move, board.PassMove if own must pass
	Score int          // final disk margin for own; only the sign when !Exact
	Exact bool
	Nodes uint64
}

// Solver searches the remaining game tree to the end. Root moves are split
// across goroutines; each subtree is solved with its own counters.
type Solver struct {
	// Threads bounds the number of root moves solved at once.
	Threads int
	// Exact asks for the final margin instead of win/loss/draw.
	Exact bool
}

// NewSolver returns a solver using all CPUs.
func NewSolver() *Solver {
	return &Solver{Threads: runtime.GOMAXPROCS(0)}
}

// solveJob holds per-goroutine solve state.
type solveJob struct {
	ctx     context.Context
	nodes   uint64
	stopped bool
}

func (j *solveJob) tick() bool {
	j.nodes++
	if j.nodes%checkInterval == 0 && j.ctx.Err() != nil {
		j.stopped = true
	}
	return j.stopped
}

// Solve finds the best move and game-theoretic value of the view with own to
// move. It returns ctx.Err() when the context ends before the solve does.
func (s *Solver) Solve(ctx context.Context, own, opp board.Bitboard) (SolveResult, error) {
	if err := ctx.Err(); err != nil {
		return SolveResult{}, err
	}

	bound := wldBound
	if s.Exact {
		bound = exactBound
	}
	empties := board.BoardSquares - (own | opp).PopCount()

	moves := board.FindMoves(own, opp)
	if moves == 0 {
		job := &solveJob{ctx: ctx}
		var score int
		if board.FindMoves(opp, own) == 0 {
			score = finalScore(own, opp)
		} else {
			score = -job.fastestFirst(opp, own, -bound, bound, true, empties)
		}
		if job.stopped {
			return SolveResult{}, ctx.Err()
		}
		return SolveResult{Move: board.PassMove, Score: score, Exact: s.Exact, Nodes: job.nodes}, nil
	}

	var list moveList
	orderMoves(&list, own, opp, moves, board.NoSquare, true)

	scores := make([]int, list.n)
	var nodes atomic.Uint64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Threads, 1))
	for i := 0; i < list.n; i++ {
		m := list.moves[i]
		g.Go(func() error {
			job := &solveJob{ctx: gctx}
			childOwn, childOpp := play(own, opp, m.sq, m.flips)
			scores[i] = -job.fastestFirst(childOwn, childOpp, -bound, bound, false, empties-1)
			nodes.Add(job.nodes)
			if job.stopped {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SolveResult{}, err
	}

	best := 0
	for i := 1; i < list.n; i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return SolveResult{
		Move:  list.moves[best].sq,
		Score: scores[best],
		Exact: s.Exact,
		Nodes: nodes.Load(),
	}, nil
}

// fastestFirst searches moves that leave the opponent the fewest replies
// first, which finds cutoffs early in the wide middle of the endgame.
func (j *solveJob) fastestFirst(own, opp board.Bitboard, alpha, beta int, passed bool, empties int) int {
	if empties < fastestFirstCutoff {
		return j.negamax(own, opp, alpha, beta, passed)
	}
	if j.tick() {
		return 0
	}

	moves := board.FindMoves(own, opp)
	if moves == 0 {
		if passed {
			return finalScore(own, opp)
		}
		return -j.fastestFirst(opp, own, -beta, -alpha, true, empties)
	}

	var list moveList
	orderMoves(&list, own, opp, moves, board.NoSquare, true)

	best := -Infinity
	for i := 0; i < list.n; i++ {
		m := &list.moves[i]
		childOwn, childOpp := play(own, opp, m.sq, m.flips)
		score := -j.fastestFirst(childOwn, childOpp, -beta, -alpha, false, empties-1)
		if score > best {
			best = score
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
	}
	return best
}

// negamax is the plain fail-soft search used for the last few empties.
func (j *solveJob) negamax(own, opp board.Bitboard, alpha, beta int, passed bool) int {
	if j.tick() {
		return 0
	}

	moves := board.FindMoves(own, opp)
	if moves == 0 {
		if passed {
			return finalScore(own, opp)
		}
		return -j.negamax(opp, own, -beta, -alpha, true)
	}

	best := -Infinity
	for moves != 0 {
		bit := board.ExtractLowestDisk(moves)
		moves ^= bit
		flips := board.ResolveMove(own, opp, bit)
		score := -j.negamax(opp^flips, own|flips|bit, -beta, -alpha, false)
		if score > best {
			best = score
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
	}
	return best
}
