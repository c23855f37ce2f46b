package cs2

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othello/internal/board"
)

// Chooser picks a move for the side to move. pos is a private copy.
type Chooser interface {
	Choose(ctx context.Context, pos *board.Position, last board.Square, timeLeft time.Duration) board.Square
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, pos *board.Position, last board.Square, timeLeft time.Duration) board.Square

// Choose calls f.
func (f ChooserFunc) Choose(ctx context.Context, pos *board.Position, last board.Square, timeLeft time.Duration) board.Square {
	return f(ctx, pos, last, timeLeft)
}

// Server is the player side of the protocol. It tracks the game from the
// opponent moves it is told about and its own replies.
type Server struct {
	name    string
	color   board.Color
	chooser Chooser
	pos     *board.Position
}

// NewServer creates a player named name playing color.
func NewServer(name string, color board.Color, chooser Chooser) *Server {
	return &Server{
		name:    name,
		color:   color,
		chooser: chooser,
		pos:     board.NewPosition(),
	}
}

// Position returns the server's view of the game.
func (s *Server) Position() *board.Position {
	return s.pos
}

// Run prints the ready line and answers turns until r is exhausted or ctx
// ends. Unparsable lines are skipped; an illegal opponent move ends the
// loop with an error wrapping ErrProtocol.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(out, ReadyLine(s.name, s.color)); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		turn, err := ParseTurn(line)
		if err != nil {
			log.Warn().Err(err).Str("line", line).Msg("skipping malformed line")
			continue
		}

		move, err := s.Turn(ctx, turn)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, FormatMove(move))
		if err := out.Flush(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read turns: %w", err)
	}
	return nil
}

// Turn applies the opponent's move and returns the player's reply, which is
// already made on the server's position.
func (s *Server) Turn(ctx context.Context, turn Turn) (board.Square, error) {
	if err := s.applyOpponent(turn.Last); err != nil {
		return board.NoSquare, err
	}

	if s.pos.IsGameOver() {
		log.Debug().Msg("game over, passing")
		return board.PassMove, nil
	}

	move := s.chooser.Choose(ctx, s.pos.Copy(), turn.Last, turn.TimeLeft)
	if !s.pos.IsLegal(move) {
		fallback := s.pos.LegalMoves().LSB()
		log.Error().Str("move", move.String()).Str("fallback", fallback.String()).Msg("chooser returned an illegal move")
		move = fallback
	}
	s.pos.MakeMove(move)

	log.Debug().Str("move", move.String()).Dur("time_left", turn.TimeLeft).Msg("played")
	return move, nil
}

func (s *Server) applyOpponent(last board.Square) error {
	if s.pos.SideToMove == s.color {
		// Black's first turn carries no move.
		if !last.IsPass() {
			return fmt.Errorf("%w: opponent move %s out of turn", ErrProtocol, last)
		}
		return nil
	}

	if _, err := s.pos.Play(last); err != nil {
		if errors.Is(err, board.ErrIllegalMove) {
			return fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		return err
	}
	return nil
}
