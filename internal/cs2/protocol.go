// Package cs2 speaks the line protocol of the Caltech CS2 Othello framework.
//
// A player process is started with one argument, "Black" or "White", and
// answers with a single ready line. The driver then sends, once per turn,
// the opponent's last move and the player's remaining clock:
//
//	<oppX> <oppY> <msLeft>
//
// where oppX < 0 means the opponent passed or has not moved yet and
// msLeft <= 0 means no clock. The player replies with its own move as
// "<x> <y>", or "-1 -1" to pass.
package cs2

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/othello/internal/board"
)

// ErrProtocol is returned for lines that break the protocol.
var ErrProtocol = errors.New("cs2 protocol error")

// Turn is one driver-to-player message.
type Turn struct {
	Last     board.Square  // opponent's move, board.PassMove if none
	TimeLeft time.Duration // zero when there is no clock
}

// FormatMove renders a move as "x y", a pass as "-1 -1".
func FormatMove(sq board.Square) string {
	if !sq.IsValid() {
		return "-1 -1"
	}
	x, y := sq.Coords()
	return strconv.Itoa(x) + " " + strconv.Itoa(y)
}

// ParseMove parses "x y". Any negative coordinate is a pass.
func ParseMove(line string) (board.Square, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return board.NoSquare, fmt.Errorf("%w: move %q", ErrProtocol, line)
	}
	return parseCoords(fields[0], fields[1])
}

func parseCoords(xs, ys string) (board.Square, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return board.NoSquare, fmt.Errorf("%w: x %q", ErrProtocol, xs)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return board.NoSquare, fmt.Errorf("%w: y %q", ErrProtocol, ys)
	}
	if x < 0 || y < 0 {
		return board.PassMove, nil
	}
	if x > 7 || y > 7 {
		return board.NoSquare, fmt.Errorf("%w: square (%d, %d) off the board", ErrProtocol, x, y)
	}
	return board.NewSquare(x, y), nil
}

// FormatTurn renders a driver message.
func FormatTurn(t Turn) string {
	ms := int64(-1)
	if t.TimeLeft > 0 {
		ms = t.TimeLeft.Milliseconds()
	}
	return FormatMove(t.Last) + " " + strconv.FormatInt(ms, 10)
}

// ParseTurn parses "oppX oppY msLeft".
func ParseTurn(line string) (Turn, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Turn{}, fmt.Errorf("%w: turn %q", ErrProtocol, line)
	}
	last, err := parseCoords(fields[0], fields[1])
	if err != nil {
		return Turn{}, err
	}
	ms, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Turn{}, fmt.Errorf("%w: time %q", ErrProtocol, fields[2])
	}
	t := Turn{Last: last}
	if ms > 0 {
		t.TimeLeft = time.Duration(ms) * time.Millisecond
	}
	return t, nil
}

// ReadyLine is the greeting a player prints once started.
func ReadyLine(name string, color board.Color) string {
	return fmt.Sprintf("Player ready: %s (%s)", name, strings.ToLower(color.String()))
}
