package board

import "errors"

var (
	// ErrBadNotation is returned for unparsable squares, boards and transcripts.
	ErrBadNotation = errors.New("bad notation")
	// ErrIllegalMove is returned when a move is not legal in the position.
	ErrIllegalMove = errors.New("illegal move")
)
