package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/othello/internal/board"
)

// NewPlayerFunc creates a fresh player for one game.
type NewPlayerFunc func() Player

// Series plays a number of games between two players, swapping colors
// every game. Player A is black in even-numbered games.
type Series struct {
	A, B     NewPlayerFunc
	Games    int
	Parallel int // concurrent games, at least 1
	Budget   time.Duration
}

// SeriesResult holds the games of a series, in order.
type SeriesResult struct {
	Games []Result
}

// AWins counts the games won by player A.
func (s SeriesResult) AWins() int {
	return lo.CountBy(lo.Range(len(s.Games)), func(i int) bool {
		return s.Games[i].Outcome.Winner() == colorOfA(i)
	})
}

// BWins counts the games won by player B.
func (s SeriesResult) BWins() int {
	return lo.CountBy(lo.Range(len(s.Games)), func(i int) bool {
		return s.Games[i].Outcome.Winner() == colorOfA(i).Other()
	})
}

// Draws counts drawn games.
func (s SeriesResult) Draws() int {
	return lo.CountBy(s.Games, func(r Result) bool { return r.Outcome == board.Draw })
}

func (s SeriesResult) String() string {
	return fmt.Sprintf("A %d, B %d, draws %d", s.AWins(), s.BWins(), s.Draws())
}

func colorOfA(game int) board.Color {
	if game%2 == 0 {
		return board.Black
	}
	return board.White
}

// Run plays the series. It stops at the first error.
func (s *Series) Run(ctx context.Context) (SeriesResult, error) {
	results := make([]Result, s.Games)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Parallel))
	for i := range s.Games {
		g.Go(func() error {
			a, b := s.A(), s.B()
			defer a.Close()
			defer b.Close()

			m := Match{Black: a, White: b, Budget: s.Budget}
			if colorOfA(i) == board.White {
				m.Black, m.White = b, a
			}
			res, err := m.Play(gctx)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			log.Debug().Int("game", i+1).Str("result", res.String()).Msg("game over")
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SeriesResult{}, err
	}
	return SeriesResult{Games: results}, nil
}
