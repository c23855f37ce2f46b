package board

// Color represents the color of a disk or player. Black moves first.
type Color uint8

const (
	Black Color = iota
	White
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// Symbol returns the disk character used in board notation.
func (c Color) Symbol() byte {
	switch c {
	case Black:
		return 'X'
	case White:
		return 'O'
	default:
		return '-'
	}
}

// ParseColor accepts "black"/"white" in any case, or the board symbols.
func ParseColor(s string) (Color, bool) {
	switch s {
	case "Black", "black", "BLACK", "X", "x", "B", "b":
		return Black, true
	case "White", "white", "WHITE", "O", "o", "W", "w":
		return White, true
	}
	return NoColor, false
}

// Outcome is the result of a finished game.
type Outcome uint8

const (
	Ongoing Outcome = iota
	BlackWins
	WhiteWins
	Draw
)

// String returns a short description of the outcome.
func (o Outcome) String() string {
	switch o {
	case BlackWins:
		return "Black wins"
	case WhiteWins:
		return "White wins"
	case Draw:
		return "Draw"
	default:
		return "Ongoing"
	}
}

// Winner returns the winning color, or NoColor for draws and unfinished games.
func (o Outcome) Winner() Color {
	switch o {
	case BlackWins:
		return Black
	case WhiteWins:
		return White
	}
	return NoColor
}

// WinFor returns the outcome in which c wins.
func WinFor(c Color) Outcome {
	if c == Black {
		return BlackWins
	}
	return WhiteWins
}
