// Package game runs Othello matches between players under a clock.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/book"
)

// Reason tells how a game ended.
type Reason int

const (
	ReasonFinished Reason = iota // two consecutive passes
	ReasonTimeout
	ReasonIllegalMove
	ReasonPlayerError
)

func (r Reason) String() string {
	switch r {
	case ReasonFinished:
		return "finished"
	case ReasonTimeout:
		return "timeout"
	case ReasonIllegalMove:
		return "illegal move"
	case ReasonPlayerError:
		return "player error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one game.
type Result struct {
	Outcome board.Outcome
	Reason  Reason
	Loser   board.Color // forfeiting side, NoColor when the game finished
	Black   int         // disks on the final board
	White   int
	Moves   []board.Square // passes omitted
	Final   *board.Position
}

// Transcript returns the moves in "f5d6c3" form.
func (r Result) Transcript() string {
	return board.Transcript(r.Moves)
}

// Record converts the game to a WTHOR record.
func (r Result) Record() book.Game {
	return book.NewGame(r.Moves, r.Final)
}

func (r Result) String() string {
	s := fmt.Sprintf("%s %d-%d", r.Outcome, r.Black, r.White)
	if r.Reason != ReasonFinished {
		s += fmt.Sprintf(" (%s %s)", r.Loser, r.Reason)
	}
	return s
}

// Ply is reported after every accepted move or pass.
type Ply struct {
	Color    board.Color
	Move     board.Square
	Elapsed  time.Duration
	TimeLeft time.Duration // zero without a clock
	Position *board.Position
}

// Match holds the settings of a game.
type Match struct {
	Black, White Player
	// Budget is each player's total thinking time; zero means unlimited.
	Budget time.Duration
	// OnPly, if set, is called after every ply with a copy of the board.
	OnPly func(Ply)
}

// Play runs a game from the starting position with budget for each side.
func Play(ctx context.Context, black, white Player, budget time.Duration) (Result, error) {
	m := Match{Black: black, White: white, Budget: budget}
	return m.PlayFrom(ctx, board.NewPosition())
}

// Play runs the match from the starting position.
func (m *Match) Play(ctx context.Context) (Result, error) {
	return m.PlayFrom(ctx, board.NewPosition())
}

// PlayFrom runs the match from pos, which is not modified. The players are
// asked in turn, including when they can only pass, and the game ends after
// two consecutive passes. A player that runs out of time, answers with an
// illegal move or fails loses the game. The error is non-nil only when ctx
// ends or a player cannot be initialized.
func (m *Match) PlayFrom(ctx context.Context, pos *board.Position) (Result, error) {
	pos = pos.Copy()
	players := [2]Player{board.Black: m.Black, board.White: m.White}
	clocks := [2]time.Duration{m.Budget, m.Budget}

	for c, p := range players {
		if err := p.Init(ctx, board.Color(c), m.Budget); err != nil {
			return Result{}, fmt.Errorf("init %s: %w", p.Name(), err)
		}
	}

	var moves []board.Square
	last := board.PassMove
	passes := 0

	for passes < 2 {
		side := pos.SideToMove
		player := players[side]

		moveCtx, cancel := ctx, context.CancelFunc(func() {})
		if m.Budget > 0 {
			moveCtx, cancel = context.WithTimeout(ctx, clocks[side])
		}
		start := time.Now()
		move, err := player.Move(moveCtx, pos.Copy(), last, clocks[side])
		elapsed := time.Since(start)
		cancel()

		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if m.Budget > 0 {
			clocks[side] -= elapsed
			if clocks[side] < 0 || errors.Is(err, context.DeadlineExceeded) {
				log.Debug().Str("player", player.Name()).Dur("over", -clocks[side]).Msg("timeout")
				return forfeit(pos, moves, side, ReasonTimeout), nil
			}
		}
		if err != nil {
			log.Debug().Err(err).Str("player", player.Name()).Msg("player failed")
			return forfeit(pos, moves, side, ReasonPlayerError), nil
		}
		if !pos.IsLegal(move) {
			log.Debug().Str("player", player.Name()).Str("move", move.String()).Msg("illegal move")
			return forfeit(pos, moves, side, ReasonIllegalMove), nil
		}

		pos.MakeMove(move)
		if move.IsPass() {
			passes++
		} else {
			passes = 0
			moves = append(moves, move)
		}
		last = move

		if m.OnPly != nil {
			m.OnPly(Ply{Color: side, Move: move, Elapsed: elapsed, TimeLeft: clocks[side], Position: pos.Copy()})
		}
	}

	res := result(pos, moves)
	res.Outcome = pos.Outcome()
	res.Reason = ReasonFinished
	res.Loser = board.NoColor
	return res, nil
}

func result(pos *board.Position, moves []board.Square) Result {
	return Result{
		Black: pos.DiskCount(board.Black),
		White: pos.DiskCount(board.White),
		Moves: moves,
		Final: pos,
	}
}

func forfeit(pos *board.Position, moves []board.Square, loser board.Color, reason Reason) Result {
	res := result(pos, moves)
	res.Outcome = board.WinFor(loser.Other())
	res.Reason = reason
	res.Loser = loser
	return res
}
