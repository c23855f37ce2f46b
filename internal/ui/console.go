// Package ui implements the interactive terminal game.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/engine"
	"github.com/hailam/othello/internal/storage"
)

// hintLimits bounds the quick search behind the hint command.
var hintLimits = engine.SearchLimits{Depth: 6, MoveTime: 500 * time.Millisecond}

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// LineReader is the console's input, a readline instance in the real game.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// NewReadline creates the interactive line editor with history in the
// data dir.
func NewReadline() (*readline.Instance, error) {
	history := ""
	if dir, err := storage.GetDataDir(); err == nil {
		history = filepath.Join(dir, "history")
	}
	return readline.NewEx(&readline.Config{
		Prompt:          "\033[32mothello>\033[0m ",
		HistoryFile:     history,
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// Console is a human-versus-engine game on the terminal.
type Console struct {
	in       LineReader
	out      io.Writer
	renderer *Renderer
	engine   *engine.Engine
	storage  *storage.Storage // nil when persistence is off
	prefs    *storage.UserPreferences

	// Game state
	pos      *board.Position
	history  []board.Undo
	human    board.Color
	hint     board.Square
	started  time.Time
	gameOver bool
}

// NewConsole creates a console. store may be nil.
func NewConsole(in LineReader, out io.Writer, r *Renderer, e *engine.Engine, store *storage.Storage) *Console {
	c := &Console{
		in:       in,
		out:      out,
		renderer: r,
		engine:   e,
		storage:  store,
	}
	c.loadPreferences()
	c.newGame(c.prefs.HumanColor)
	return c
}

// loadPreferences loads user preferences from storage.
func (c *Console) loadPreferences() {
	c.prefs = storage.DefaultPreferences()
	if c.storage != nil {
		prefs, err := c.storage.LoadPreferences()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load preferences")
		} else {
			c.prefs = prefs
		}
	}
	if c.prefs.HumanColor != board.Black && c.prefs.HumanColor != board.White {
		c.prefs.HumanColor = board.Black
	}
	c.engine.SetDifficulty(engineDifficulty(c.prefs.Difficulty))
}

// savePreferences saves current preferences to storage.
func (c *Console) savePreferences() {
	if c.storage == nil {
		return
	}
	c.prefs.LastPlayed = time.Now()
	if err := c.storage.SavePreferences(c.prefs); err != nil {
		log.Warn().Err(err).Msg("failed to save preferences")
	}
}

func engineDifficulty(d storage.Difficulty) engine.Difficulty {
	switch d {
	case storage.DifficultyEasy:
		return engine.Easy
	case storage.DifficultyHard:
		return engine.Hard
	}
	return engine.Medium
}

func storageDifficulty(d engine.Difficulty) storage.Difficulty {
	switch d {
	case engine.Easy:
		return storage.DifficultyEasy
	case engine.Hard:
		return storage.DifficultyHard
	}
	return storage.DifficultyMedium
}

// Run greets the player and reads commands until quit or end of input.
func (c *Console) Run(ctx context.Context) error {
	defer c.in.Close()

	c.welcome()
	c.advance(ctx)
	c.show()

	for {
		line, err := c.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		if err := c.Exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			c.println("Error: " + err.Error())
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Console) welcome() {
	c.println(c.renderer.Highlight("Othello") + " - type a square such as d3 to play, help for commands")
	if c.storage == nil {
		return
	}
	first, err := c.storage.IsFirstLaunch()
	if err != nil {
		log.Warn().Err(err).Msg("failed to check first launch")
		return
	}
	if first {
		c.println("Welcome! Set your name with: name <your name>")
		if err := c.storage.MarkFirstLaunchComplete(); err != nil {
			log.Warn().Err(err).Msg("failed to mark first launch complete")
		}
	} else {
		c.println("Welcome back, " + c.prefs.Username + ".")
	}
}

const helpText = `Commands:
  <square>           play a move, e.g. d3
  pass               pass when you have no move
  undo               take back your last move
  hint               ask the engine for a move
  hints on|off       show or hide legal move markers
  new [black|white]  start a new game, optionally switching color
  level easy|medium|hard
  name <name>        set your name
  load <moves>       replay a transcript such as f5d6c3
  moves              print the game transcript
  eval               static evaluation of the position
  board              redraw the board
  stats              show your statistics
  quit`

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	args, err := shellquote.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	cmd := strings.ToLower(args[0])
	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		c.println(helpText)
	case "board":
		c.show()
	case "new":
		color := c.human
		if len(args) > 1 {
			var ok bool
			if color, ok = board.ParseColor(args[1]); !ok {
				return fmt.Errorf("unknown color %q", args[1])
			}
		}
		c.prefs.HumanColor = color
		c.savePreferences()
		c.newGame(color)
		c.advance(ctx)
		c.show()
	case "pass":
		return c.humanMove(ctx, board.PassMove)
	case "undo":
		return c.undo()
	case "hint":
		return c.showHint(ctx)
	case "hints":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			return errors.New("usage: hints on|off")
		}
		c.prefs.ShowHints = args[1] == "on"
		c.savePreferences()
		c.show()
	case "level":
		if len(args) != 2 {
			return errors.New("usage: level easy|medium|hard")
		}
		d, err := engine.ParseDifficulty(args[1])
		if err != nil {
			return err
		}
		c.engine.SetDifficulty(d)
		c.prefs.Difficulty = storageDifficulty(d)
		c.savePreferences()
		c.println("Difficulty: " + d.String())
	case "name":
		if len(args) < 2 {
			return errors.New("usage: name <name>")
		}
		c.prefs.Username = strings.Join(args[1:], " ")
		c.savePreferences()
		c.println("Hello, " + c.prefs.Username + ".")
	case "load":
		if len(args) != 2 {
			return errors.New("usage: load <moves>")
		}
		return c.load(ctx, args[1])
	case "moves":
		c.println(c.transcript())
	case "eval":
		c.println("Evaluation: " + engine.ScoreToString(c.engine.Evaluate(c.pos)))
	case "stats":
		return c.showStats()
	default:
		sq, err := board.ParseSquare(cmd)
		if err != nil {
			return fmt.Errorf("unknown command %q (try help)", args[0])
		}
		return c.humanMove(ctx, sq)
	}
	return nil
}

func (c *Console) println(s string) {
	io.WriteString(c.out, s)
	io.WriteString(c.out, "\n")
}

func (c *Console) show() {
	last := board.NoSquare
	if n := len(c.history); n > 0 {
		last = c.history[n-1].Move
	}
	c.println(c.renderer.Board(c.pos, View{Last: last, Hint: c.hint, ShowMoves: c.prefs.ShowHints}))
}

// newGame resets the board with the human playing color.
func (c *Console) newGame(color board.Color) {
	c.pos = board.NewPosition()
	c.history = nil
	c.human = color
	c.hint = board.NoSquare
	c.started = time.Now()
	c.gameOver = false
	c.engine.Clear()
}

func (c *Console) humanMove(ctx context.Context, sq board.Square) error {
	if c.gameOver {
		return errors.New("the game is over, type new to play again")
	}
	if c.pos.SideToMove != c.human {
		return errors.New("not your turn")
	}
	undo, err := c.pos.Play(sq)
	if err != nil {
		return err
	}
	c.history = append(c.history, undo)
	c.hint = board.NoSquare

	c.advance(ctx)
	c.show()
	return nil
}

// advance plays forced passes and the engine's moves until the human is to
// move or the game ends.
func (c *Console) advance(ctx context.Context) {
	for !c.pos.IsGameOver() && ctx.Err() == nil {
		if c.pos.MustPass() {
			if c.pos.SideToMove == c.human {
				c.println(c.renderer.Warn("You have no move and pass."))
			} else {
				c.println("Engine passes.")
			}
			c.history = append(c.history, c.pos.MakeMove(board.PassMove))
			continue
		}
		if c.pos.SideToMove == c.human {
			return
		}

		start := time.Now()
		move := c.engine.Search(ctx, c.pos.Copy())
		if !c.pos.IsLegal(move) {
			log.Error().Str("move", move.String()).Msg("engine returned an illegal move")
			return
		}
		c.history = append(c.history, c.pos.MakeMove(move))
		log.Debug().Str("move", move.String()).Dur("time", time.Since(start)).Msg("engine move")
		c.println("Engine plays " + c.renderer.Highlight(move.String()) + ".")
	}

	if c.pos.IsGameOver() && !c.gameOver {
		c.finish()
	}
}

// finish announces the result and records it in the statistics.
func (c *Console) finish() {
	c.gameOver = true

	margin := c.pos.FinalScore()
	if c.human == board.White {
		margin = -margin
	}
	switch {
	case margin > 0:
		c.println(c.renderer.Highlight(fmt.Sprintf("You win by %d!", margin)))
	case margin < 0:
		c.println(c.renderer.Highlight(fmt.Sprintf("The engine wins by %d.", -margin)))
	default:
		c.println(c.renderer.Highlight("Draw."))
	}

	if c.storage == nil {
		return
	}
	result := storage.GameResult{
		Won:        margin > 0,
		Draw:       margin == 0,
		Difficulty: c.prefs.Difficulty,
		Margin:     margin,
		Duration:   time.Since(c.started),
	}
	if err := c.storage.RecordGame(result); err != nil {
		log.Warn().Err(err).Msg("failed to record game")
	}
}

// undo takes back moves until the human is to move again with at least one
// of their own moves removed.
func (c *Console) undo() error {
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].Move.IsPass() {
			continue
		}
		// The mover of history[i] is the side to move after undoing it.
		mover := c.pos.SideToMove
		if (len(c.history)-i)%2 == 1 {
			mover = mover.Other()
		}
		if mover != c.human {
			continue
		}
		for len(c.history) > i {
			c.pos.UnmakeMove(c.history[len(c.history)-1])
			c.history = c.history[:len(c.history)-1]
		}
		c.gameOver = false
		c.hint = board.NoSquare
		c.show()
		return nil
	}
	return errors.New("nothing to undo")
}

func (c *Console) showHint(ctx context.Context) error {
	if c.gameOver || c.pos.SideToMove != c.human {
		return errors.New("no hint available now")
	}
	res := c.engine.SearchWithLimits(ctx, c.pos.Copy(), hintLimits)
	c.hint = res.Move
	c.println(fmt.Sprintf("Hint: %s (%s)", res.Move, engine.ScoreToString(res.Score)))
	c.show()
	return nil
}

func (c *Console) load(ctx context.Context, transcript string) error {
	_, moves, err := board.ParseTranscript(transcript)
	if err != nil {
		return err
	}
	c.newGame(c.human)
	for _, sq := range moves {
		if c.pos.MustPass() {
			c.history = append(c.history, c.pos.MakeMove(board.PassMove))
		}
		c.history = append(c.history, c.pos.MakeMove(sq))
	}
	c.advance(ctx)
	c.show()
	return nil
}

func (c *Console) transcript() string {
	var moves []board.Square
	for _, u := range c.history {
		if !u.Move.IsPass() {
			moves = append(moves, u.Move)
		}
	}
	if len(moves) == 0 {
		return "(no moves)"
	}
	return board.Transcript(moves)
}

func (c *Console) showStats() error {
	if c.storage == nil {
		return errors.New("statistics need the database (use-db)")
	}
	stats, err := c.storage.LoadStats()
	if err != nil {
		return err
	}
	c.println(c.renderer.Stats(stats))
	return nil
}
