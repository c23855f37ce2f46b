// Package engine chooses Othello moves: an opening book probe, an exact
// endgame solver and an iterative deepening negascout search in between.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/storage"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Move     board.Square
	Nodes    uint64
	Time     time.Duration
	HashFull int // Permille of hash table used
	Solved   bool
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth      int           // Maximum midgame depth (0 = no limit)
	MoveTime   time.Duration // Fixed time for this move (0 = use TimeLeft)
	TimeLeft   time.Duration // Remaining clock (0 = no clock)
	SolveDepth int           // Solve exactly at or below this many empties (0 = never)
}

// Source tells where a move came from.
type Source int

const (
	SourceSearch Source = iota
	SourceForced
	SourceBook
	SourceSolver
	SourceCache
)

func (s Source) String() string {
	switch s {
	case SourceForced:
		return "forced"
	case SourceBook:
		return "book"
	case SourceSolver:
		return "solver"
	case SourceCache:
		return "cache"
	}
	return "search"
}

// Result is the engine's answer for one position.
type Result struct {
	Move   board.Square
	Score  int
	Depth  int
	Nodes  uint64
	Exact  bool
	Source Source
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply, no endgame solve
	Medium                   // 6 ply, solves the last 10 empties
	Hard                     // 12 ply, solves the last 16 empties
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2, MoveTime: 250 * time.Millisecond},
	Medium: {Depth: 6, MoveTime: time.Second, SolveDepth: 10},
	Hard:   {Depth: 12, MoveTime: 5 * time.Second, SolveDepth: 16},
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	}
	return "medium"
}

// ParseDifficulty parses "easy", "medium" or "hard".
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium", "":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// BookProber proposes an opening move for a position.
type BookProber interface {
	Probe(pos *board.Position) (board.Square, bool)
}

// SolveCache persists solved endgame positions between runs.
type SolveCache interface {
	LoadSolved(hash uint64) (storage.Solved, error)
	SaveSolved(hash uint64, v storage.Solved) error
}

// aspirationWindow is the half-width of the window around the previous
// iteration's score.
const aspirationWindow = 50

// Engine is the Othello AI engine.
type Engine struct {
	searcher   *Searcher
	solver     *Solver
	tt         *TranspositionTable
	tm         *TimeManager
	difficulty Difficulty
	solveDepth int // overrides the difficulty's SolveDepth when >= 0

	book  BookProber
	cache SolveCache

	mu     sync.Mutex
	cancel context.CancelFunc

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	return &Engine{
		searcher:   NewSearcher(tt),
		solver:     NewSolver(),
		tt:         tt,
		tm:         NewTimeManager(),
		difficulty: Medium,
		solveDepth: -1,
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// SetSolveDepth fixes the endgame solve threshold regardless of difficulty.
// A negative value restores the difficulty default.
func (e *Engine) SetSolveDepth(empties int) {
	e.solveDepth = empties
}

// SetThreads bounds the number of goroutines used by the endgame solver.
func (e *Engine) SetThreads(n int) {
	if n > 0 {
		e.solver.Threads = n
	}
}

// SetExactSolve makes the solver find exact margins instead of win/loss/draw.
func (e *Engine) SetExactSolve(exact bool) {
	e.solver.Exact = exact
}

// SetBook installs an opening book. nil disables it.
func (e *Engine) SetBook(b BookProber) {
	e.book = b
}

// SetSolveCache installs a persistent endgame cache. nil disables it.
func (e *Engine) SetSolveCache(c SolveCache) {
	e.cache = c
}

// Search finds the best move for pos with the difficulty's limits.
func (e *Engine) Search(ctx context.Context, pos *board.Position) board.Square {
	return e.SearchWithLimits(ctx, pos, e.Limits(0)).Move
}

// Limits returns the difficulty's limits with the given clock applied.
func (e *Engine) Limits(timeLeft time.Duration) SearchLimits {
	limits := DifficultySettings[e.difficulty]
	if e.solveDepth >= 0 {
		limits.SolveDepth = e.solveDepth
	}
	if timeLeft > 0 {
		limits.TimeLeft = timeLeft
		limits.MoveTime = 0
	}
	return limits
}

// SearchWithLimits finds the best move with specific search limits. It
// always returns a legal move, board.PassMove when the side to move has none.
func (e *Engine) SearchWithLimits(ctx context.Context, pos *board.Position, limits SearchLimits) Result {
	own, opp := pos.Own(), pos.Opp()
	moves := board.FindMoves(own, opp)
	switch moves.PopCount() {
	case 0:
		return Result{Move: board.PassMove, Source: SourceForced}
	case 1:
		return Result{Move: moves.LSB(), Source: SourceForced}
	}

	if e.book != nil {
		if sq, ok := e.book.Probe(pos); ok && moves.IsSet(sq) {
			log.Debug().Str("move", sq.String()).Msg("book move")
			return Result{Move: sq, Source: SourceBook}
		}
	}

	empties := pos.Empties()
	e.tm.Init(limits.TimeLeft, limits.MoveTime, empties)
	log.Debug().Int("empties", empties).Dur("optimum", e.tm.OptimumTime()).
		Dur("maximum", e.tm.MaximumTime()).Msg("time allotted")

	ctx, cancel := context.WithDeadline(ctx, e.tm.Deadline())
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
		cancel()
	}()

	if empties <= limits.SolveDepth {
		if res, ok := e.solve(ctx, own, opp, moves); ok {
			return res
		}
	}

	return e.iterate(ctx, own, opp, moves, limits)
}

// solve runs the endgame solver within the optimum time. It reports false
// when the solve did not finish.
func (e *Engine) solve(ctx context.Context, own, opp, moves board.Bitboard) (Result, bool) {
	key := viewKey(own, opp)
	if e.cache != nil {
		v, err := e.cache.LoadSolved(key)
		switch {
		case err == nil && moves.IsSet(v.Move) && (v.Exact || !e.solver.Exact):
			log.Debug().Str("move", v.Move.String()).Int("score", v.Score).Msg("solve cache hit")
			return Result{Move: v.Move, Score: v.Score, Exact: v.Exact, Source: SourceCache}, true
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			log.Warn().Err(err).Msg("solve cache lookup failed")
		}
	}

	start := time.Now()
	solveCtx, cancel := context.WithTimeout(ctx, e.tm.OptimumTime())
	defer cancel()

	r, err := e.solver.Solve(solveCtx, own, opp)
	if err != nil {
		log.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("endgame solve abandoned")
		return Result{}, false
	}

	empties := board.BoardSquares - (own | opp).PopCount()
	log.Debug().Str("move", r.Move.String()).Int("score", r.Score).
		Bool("exact", r.Exact).Uint64("nodes", r.Nodes).Int("empties", empties).
		Dur("elapsed", time.Since(start)).Msg("endgame solved")

	if e.OnInfo != nil {
		e.OnInfo(SearchInfo{
			Depth:  empties,
			Score:  r.Score,
			Move:   r.Move,
			Nodes:  r.Nodes,
			Time:   time.Since(start),
			Solved: true,
		})
	}

	if e.cache != nil {
		if err := e.cache.SaveSolved(key, storage.Solved{Move: r.Move, Score: r.Score, Exact: r.Exact}); err != nil {
			log.Warn().Err(err).Msg("solve cache store failed")
		}
	}

	return Result{
		Move:   r.Move,
		Score:  r.Score,
		Depth:  empties,
		Nodes:  r.Nodes,
		Exact:  r.Exact,
		Source: SourceSolver,
	}, true
}

// iterate runs iterative deepening until the depth limit, the optimum time
// or a proven result. Depth 1 always completes.
func (e *Engine) iterate(ctx context.Context, own, opp, moves board.Bitboard, limits SearchLimits) Result {
	e.searcher.Reset(ctx)
	e.tt.NewSearch()

	startTime := time.Now()
	res := Result{Move: board.NoSquare, Source: SourceSearch}

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}
	if empties := board.BoardSquares - (own | opp).PopCount(); maxDepth > empties {
		maxDepth = empties
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && (ctx.Err() != nil || e.tm.PastOptimum()) {
			break
		}

		var move board.Square
		var score int

		if depth >= 5 && !IsWinScore(res.Score) {
			alpha := res.Score - aspirationWindow
			beta := res.Score + aspirationWindow
			for {
				move, score = e.searcher.SearchWithBounds(own, opp, depth, alpha, beta)
				if e.searcher.Stopped() {
					break
				}
				if score <= alpha {
					alpha = -Infinity
				} else if score >= beta {
					beta = Infinity
				} else {
					break
				}
				if alpha == -Infinity && beta == Infinity {
					break
				}
			}
		} else {
			move, score = e.searcher.Search(own, opp, depth)
		}

		if e.searcher.Stopped() {
			break
		}

		res.Move = move
		res.Score = score
		res.Depth = depth
		res.Nodes = e.searcher.Nodes()

		log.Debug().Int("depth", depth).Int("score", score).Str("move", move.String()).
			Uint64("nodes", res.Nodes).Msg("iteration")

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Move:     move,
				Nodes:    res.Nodes,
				Time:     time.Since(startTime),
				HashFull: e.tt.HashFull(),
			})
		}

		if IsWinScore(score) {
			res.Exact = true
			break
		}

		// Another iteration costs several times this one.
		if elapsed := time.Since(startTime); elapsed*2 > e.tm.OptimumTime() {
			break
		}
	}

	if res.Move == board.NoSquare || !moves.IsSet(res.Move) {
		res.Move = moves.LSB()
	}
	return res
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.searcher.Stop()
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()
}

// Clear clears the transposition table.
func (e *Engine) Clear() {
	e.tt.Clear()
}

// Evaluate returns the static evaluation of a position for the side to move.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos.Own(), pos.Opp())
}

// ScoreToString converts a score to a human-readable string. Proven results
// read "win by N" or "loss by N"; heuristic scores print in disks.
func ScoreToString(score int) string {
	if score > maxEval {
		return "win by " + strconv.Itoa(score-WinScore)
	}
	if score < -maxEval {
		return "loss by " + strconv.Itoa(-score-WinScore)
	}

	sign := "+"
	if score < 0 {
		sign = "-"
		score = -score
	}
	return sign + strconv.Itoa(score/100) + "." + pad2(score%100)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
