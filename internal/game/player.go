package game

import (
	"context"
	"path/filepath"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/cs2"
	"github.com/hailam/othello/internal/engine"
)

// Player is one side of a match.
type Player interface {
	Name() string
	// Init is called once before the first move with the player's color
	// and total clock (zero for no clock).
	Init(ctx context.Context, color board.Color, budget time.Duration) error
	// Move returns the player's move for pos, board.PassMove to pass. last
	// is the opponent's previous move and timeLeft the remaining clock.
	Move(ctx context.Context, pos *board.Position, last board.Square, timeLeft time.Duration) (board.Square, error)
	Close() error
}

// EnginePlayer plays with the alpha-beta engine and endgame solver.
type EnginePlayer struct {
	Engine *engine.Engine
	name   string
}

// NewEnginePlayer wraps e.
func NewEnginePlayer(e *engine.Engine) *EnginePlayer {
	return &EnginePlayer{Engine: e, name: "engine-" + e.Difficulty().String()}
}

func (p *EnginePlayer) Name() string { return p.name }

func (p *EnginePlayer) Init(context.Context, board.Color, time.Duration) error {
	p.Engine.Clear()
	return nil
}

func (p *EnginePlayer) Move(ctx context.Context, pos *board.Position, _ board.Square, timeLeft time.Duration) (board.Square, error) {
	res := p.Engine.SearchWithLimits(ctx, pos, p.Engine.Limits(timeLeft))
	return res.Move, nil
}

func (p *EnginePlayer) Close() error { return nil }

// RandomPlayer plays a uniformly random legal move.
type RandomPlayer struct{}

func (RandomPlayer) Name() string { return "random" }

func (RandomPlayer) Init(context.Context, board.Color, time.Duration) error { return nil }

func (RandomPlayer) Move(_ context.Context, pos *board.Position, _ board.Square, _ time.Duration) (board.Square, error) {
	return engine.RandomMove(pos), nil
}

func (RandomPlayer) Close() error { return nil }

// MCTSPlayer plays by Monte Carlo tree search. With a clock it searches for
// the time the engine's time manager allots; otherwise for Playouts
// iterations.
type MCTSPlayer struct {
	MCTS *engine.MCTS
	tm   *engine.TimeManager
}

// NewMCTSPlayer creates a player running playouts iterations per move.
func NewMCTSPlayer(playouts int) *MCTSPlayer {
	return &MCTSPlayer{MCTS: engine.NewMCTS(playouts), tm: engine.NewTimeManager()}
}

func (p *MCTSPlayer) Name() string { return "mcts" }

func (p *MCTSPlayer) Init(context.Context, board.Color, time.Duration) error { return nil }

func (p *MCTSPlayer) Move(ctx context.Context, pos *board.Position, _ board.Square, timeLeft time.Duration) (board.Square, error) {
	if timeLeft > 0 {
		p.tm.Init(timeLeft, 0, pos.Empties())
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.tm.OptimumTime())
		defer cancel()
	}
	return p.MCTS.Search(ctx, pos), nil
}

func (p *MCTSPlayer) Close() error { return nil }

// ExternalPlayer runs a separate program speaking the CS2 protocol.
type ExternalPlayer struct {
	command string
	client  *cs2.Client
}

// NewExternalPlayer prepares command; the process starts in Init.
func NewExternalPlayer(command string) *ExternalPlayer {
	return &ExternalPlayer{command: command}
}

// Name is the base name of the program.
func (p *ExternalPlayer) Name() string {
	fields, err := shellquote.Split(p.command)
	if err != nil || len(fields) == 0 {
		return "external"
	}
	return filepath.Base(fields[0])
}

func (p *ExternalPlayer) Init(ctx context.Context, color board.Color, _ time.Duration) error {
	client, err := cs2.Start(ctx, p.command, color)
	if err != nil {
		return err
	}
	p.client = client
	return nil
}

func (p *ExternalPlayer) Move(ctx context.Context, _ *board.Position, last board.Square, timeLeft time.Duration) (board.Square, error) {
	return p.client.Exchange(ctx, cs2.Turn{Last: last, TimeLeft: timeLeft})
}

func (p *ExternalPlayer) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
