package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/storage"
)

// Theme defines the color scheme for the board.
type Theme struct {
	Board     termenv.Color
	LastMove  termenv.Color
	Black     termenv.Color
	White     termenv.Color
	LegalMove termenv.Color
	Hint      termenv.Color
	Text      termenv.Color
}

// DefaultTheme returns the default color theme for out's profile.
func DefaultTheme(out *termenv.Output) *Theme {
	return &Theme{
		Board:     out.Color("#2e7d32"), // felt green
		LastMove:  out.Color("#558b2f"),
		Black:     out.Color("#000000"),
		White:     out.Color("#ffffff"),
		LegalMove: out.Color("#c5e1a5"),
		Hint:      out.Color("#ffeb3b"),
		Text:      out.Color("#9e9e9e"),
	}
}

// View selects what the renderer marks besides the disks.
type View struct {
	Last      board.Square // highlighted, NoSquare for none
	Hint      board.Square // suggested move, NoSquare for none
	ShowMoves bool         // mark the side to move's legal moves
}

// Renderer draws positions as colored text.
type Renderer struct {
	out   *termenv.Output
	theme *Theme
}

// NewRenderer creates a renderer using the color profile detected for w.
func NewRenderer(w io.Writer, opts ...termenv.OutputOption) *Renderer {
	out := termenv.NewOutput(w, opts...)
	return &Renderer{out: out, theme: DefaultTheme(out)}
}

// NewPlainRenderer creates a renderer that emits no escape sequences.
func NewPlainRenderer(w io.Writer) *Renderer {
	return NewRenderer(w, termenv.WithProfile(termenv.Ascii))
}

// Board renders pos with coordinates and a status line.
func (r *Renderer) Board(pos *board.Position, v View) string {
	var sb strings.Builder
	sb.WriteString(r.out.String("  a b c d e f g h").Foreground(r.theme.Text).String())
	sb.WriteByte('\n')

	var moves board.Bitboard
	if v.ShowMoves {
		moves = pos.LegalMoves()
	}

	for y := 0; y < 8; y++ {
		sb.WriteString(r.out.String(fmt.Sprintf("%d", y+1)).Foreground(r.theme.Text).String())
		for x := 0; x < 8; x++ {
			sq := board.NewSquare(x, y)
			sb.WriteString(r.cell(pos, sq, moves, v))
		}
		sb.WriteByte('\n')
	}

	sb.WriteString(r.Status(pos))
	return sb.String()
}

func (r *Renderer) cell(pos *board.Position, sq board.Square, moves board.Bitboard, v View) string {
	bg := r.theme.Board
	if sq == v.Last {
		bg = r.theme.LastMove
	}

	text, fg, bold := " .", r.theme.Board, false
	switch c := pos.ColorAt(sq); {
	case c == board.Black:
		text, fg, bold = " X", r.theme.Black, true
	case c == board.White:
		text, fg, bold = " O", r.theme.White, true
	case sq == v.Hint:
		text, fg, bold = " +", r.theme.Hint, true
	case moves.IsSet(sq):
		text, fg = " *", r.theme.LegalMove
	}

	style := r.out.String(text).Foreground(fg).Background(bg)
	if bold {
		style = style.Bold()
	}
	return style.String()
}

// Status renders the disk count and whose turn it is.
func (r *Renderer) Status(pos *board.Position) string {
	black, white := pos.DiskCount(board.Black), pos.DiskCount(board.White)
	line := fmt.Sprintf("Black %d  White %d  ", black, white)
	if pos.IsGameOver() {
		return line + r.out.String(pos.Outcome().String()).Bold().String()
	}
	return line + pos.SideToMove.String() + " to move"
}

// Stats renders the game statistics.
func (r *Renderer) Stats(s *storage.GameStats) string {
	var sb strings.Builder
	title := r.out.String("Statistics").Bold().Underline().String()
	fmt.Fprintf(&sb, "%s\n", title)
	fmt.Fprintf(&sb, "Games played:  %d\n", s.GamesPlayed)
	fmt.Fprintf(&sb, "Wins:          %d (%.0f%%)\n", s.Wins, s.GetWinRate())
	fmt.Fprintf(&sb, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(&sb, "Draws:         %d\n", s.Draws)
	fmt.Fprintf(&sb, "Best streak:   %d\n", s.LongestWinStrk)
	fmt.Fprintf(&sb, "Best margin:   %d\n", s.BestMargin)
	for _, d := range []storage.Difficulty{storage.DifficultyEasy, storage.DifficultyMedium, storage.DifficultyHard} {
		fmt.Fprintf(&sb, "Wins on %-6s %d\n", d.String()+":", s.WinsByDiff[d.String()])
	}
	return sb.String()
}

// Highlight renders s in bold.
func (r *Renderer) Highlight(s string) string {
	return r.out.String(s).Bold().String()
}

// Warn renders s in the hint color.
func (r *Renderer) Warn(s string) string {
	return r.out.String(s).Foreground(r.theme.Hint).String()
}
