// Command othello-match plays games between two players. A player is either
// a command speaking the CS2 protocol, started with its color as the last
// argument, or one of the built-in players engine, mcts and random.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/samber/lo"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/book"
	"github.com/hailam/othello/internal/config"
	"github.com/hailam/othello/internal/game"
	"github.com/hailam/othello/internal/ui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "othello-match:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.New()
	fs := flag.NewFlagSet("othello-match", flag.ContinueOnError)
	black := fs.String("black", "", "black player: a command, or engine, mcts or random")
	white := fs.String("white", "", "white player: a command, or engine, mcts or random")
	maxTime := fs.Int("max-time", 0, "milliseconds to give each player; 0 means no limit")
	games := fs.Int("games", 1, "games to play, swapping colors after each")
	parallel := fs.Int("parallel", 1, "games to run at once")
	show := fs.Bool("show", false, "print the board after every move (single game only)")
	wthor := fs.String("wthor", "", "WTHOR file to write the games to")
	cfg.RegisterFlags(fs)
	if err := cfg.Load(fs, args); err != nil {
		return err
	}
	logger, err := cfg.SetupLogging(os.Stderr)
	if err != nil {
		return err
	}
	if *black == "" || *white == "" {
		return errors.New("both -black and -white are required")
	}

	newBlack, err := playerFactory(cfg, *black)
	if err != nil {
		return err
	}
	newWhite, err := playerFactory(cfg, *white)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	budget := time.Duration(*maxTime) * time.Millisecond

	var results []game.Result
	if *games <= 1 {
		b, w := newBlack(), newWhite()
		defer b.Close()
		defer w.Close()

		m := game.Match{Black: b, White: w, Budget: budget}
		if *show {
			r := ui.NewRenderer(os.Stdout)
			m.OnPly = func(p game.Ply) {
				fmt.Printf("%s: %s\n%s\n\n", p.Color, p.Move, r.Board(p.Position, ui.View{Last: p.Move, Hint: board.NoSquare}))
			}
		}
		res, err := m.Play(ctx)
		if err != nil {
			return err
		}
		results = append(results, res)
		fmt.Printf("Outcome: %s\n", res)
		fmt.Printf("Moves: %s\n", res.Transcript())
	} else {
		s := game.Series{A: newBlack, B: newWhite, Games: *games, Parallel: *parallel, Budget: budget}
		res, err := s.Run(ctx)
		if err != nil {
			return err
		}
		results = res.Games
		for i, g := range res.Games {
			fmt.Printf("Game %d: %s\n", i+1, g)
		}
		fmt.Printf("%s (A = %s, B = %s)\n", res, *black, *white)
	}

	if *wthor != "" {
		f, err := os.Create(*wthor)
		if err != nil {
			return err
		}
		records := lo.Map(results, func(r game.Result, _ int) book.Game { return r.Record() })
		if err := book.WriteWThor(f, book.Header{BoardSize: 8}, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info().Str("path", *wthor).Int("games", len(records)).Msg("games saved")
	}
	return nil
}

// playerFactory resolves a player flag to a constructor.
func playerFactory(cfg *config.Config, arg string) (game.NewPlayerFunc, error) {
	switch arg {
	case "random":
		return func() game.Player { return game.RandomPlayer{} }, nil
	case "mcts":
		playouts := cfg.GetInt(config.KeyPlayouts)
		return func() game.Player { return game.NewMCTSPlayer(playouts) }, nil
	case "engine":
		if _, err := cfg.NewEngine(); err != nil {
			return nil, err
		}
		return func() game.Player {
			e, _ := cfg.NewEngine()
			return game.NewEnginePlayer(e)
		}, nil
	}
	return func() game.Player { return game.NewExternalPlayer(arg) }, nil
}
