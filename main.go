// Othello - play against the engine in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othello/internal/config"
	"github.com/hailam/othello/internal/ui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "othello:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.New()
	fs := flag.NewFlagSet("othello", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := cfg.Load(fs, args); err != nil {
		return err
	}
	if _, err := cfg.SetupLogging(os.Stderr); err != nil {
		return err
	}

	eng, err := cfg.NewEngine()
	if err != nil {
		return err
	}
	if b, files, err := cfg.LoadBook(); err == nil {
		eng.SetBook(b)
		log.Info().Strs("files", files).Int("positions", b.Len()).Msg("opening book loaded")
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("opening book not loaded")
	}

	store, err := cfg.OpenStorage()
	if err != nil {
		log.Warn().Err(err).Msg("playing without saved preferences and statistics")
		store = nil
	}
	if store != nil {
		defer store.Close()
		eng.SetSolveCache(store)
	}

	rl, err := ui.NewReadline()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	console := ui.NewConsole(rl, rl.Stdout(), ui.NewRenderer(os.Stdout), eng, store)
	return console.Run(ctx)
}
