// Command othello-cs2 is an Othello player speaking the CS2 protocol on
// stdin/stdout. It takes its color, Black or White, as the last argument.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/config"
	"github.com/hailam/othello/internal/cs2"
	"github.com/hailam/othello/internal/engine"
	"github.com/hailam/othello/internal/game"
)

const playerName = "othello"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "othello-cs2:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.New()
	fs := flag.NewFlagSet("othello-cs2", flag.ContinueOnError)
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to file")
	cfg.RegisterFlags(fs)
	if err := cfg.Load(fs, args); err != nil {
		return err
	}
	if _, err := cfg.SetupLogging(os.Stderr); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return errors.New("usage: othello-cs2 [flags] Black|White")
	}
	color, ok := board.ParseColor(fs.Arg(fs.NArg() - 1))
	if !ok {
		return fmt.Errorf("unknown color %q", fs.Arg(fs.NArg()-1))
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	chooser, cleanup, err := newChooser(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return cs2.NewServer(playerName, color, chooser).Run(ctx, os.Stdin, os.Stdout)
}

// newChooser builds the configured player.
func newChooser(cfg *config.Config) (cs2.Chooser, func(), error) {
	noop := func() {}

	switch cfg.GetString(config.KeyPlayer) {
	case "random":
		return cs2.ChooserFunc(func(_ context.Context, pos *board.Position, _ board.Square, _ time.Duration) board.Square {
			return engine.RandomMove(pos)
		}), noop, nil

	case "mcts":
		p := game.NewMCTSPlayer(cfg.GetInt(config.KeyPlayouts))
		return cs2.ChooserFunc(func(ctx context.Context, pos *board.Position, last board.Square, timeLeft time.Duration) board.Square {
			move, _ := p.Move(ctx, pos, last, timeLeft)
			return move
		}), noop, nil

	case "engine":
		eng, err := cfg.NewEngine()
		if err != nil {
			return nil, nil, err
		}
		autoLoadBook(cfg, eng)

		cleanup := noop
		store, err := cfg.OpenStorage()
		if err != nil {
			log.Warn().Err(err).Msg("solve cache disabled")
		} else if store != nil {
			eng.SetSolveCache(store)
			cleanup = func() { store.Close() }
		}

		return cs2.ChooserFunc(func(ctx context.Context, pos *board.Position, _ board.Square, timeLeft time.Duration) board.Square {
			res := eng.SearchWithLimits(ctx, pos, eng.Limits(timeLeft))
			log.Debug().
				Str("move", res.Move.String()).
				Str("source", res.Source.String()).
				Int("score", res.Score).
				Int("depth", res.Depth).
				Msg("chose move")
			return res.Move
		}), cleanup, nil
	}
	return nil, nil, fmt.Errorf("unknown player %q", cfg.GetString(config.KeyPlayer))
}

// autoLoadBook loads the opening book from the first location that has
// WTHOR files. Playing without a book is fine.
func autoLoadBook(cfg *config.Config, eng *engine.Engine) {
	b, files, err := cfg.LoadBook()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Err(err).Msg("no opening book")
		} else {
			log.Warn().Err(err).Msg("opening book not loaded")
		}
		return
	}
	eng.SetBook(b)
	log.Info().Strs("files", files).Int("positions", b.Len()).Msg("opening book loaded")
}
