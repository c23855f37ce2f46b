package book

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hailam/othello/internal/board"
)

// WTHOR layout: a 16-byte file header, then fixed 68-byte game records made
// of an 8-byte game header and 60 move bytes.
const (
	headerBytes     = 16
	gameBytes       = 68
	gameHeaderBytes = 8
	movesPerGame    = gameBytes - gameHeaderBytes
)

// ErrTruncated is returned when a WTHOR file ends inside a header or record.
var ErrTruncated = errors.New("truncated wthor data")

// Header is the WTHOR file header.
type Header struct {
	Century, Year, Month, Day uint8 // creation date
	Games                     uint32
	GameYear                  uint16
	BoardSize                 uint8 // 0 or 8 both mean 8x8
	Depth                     uint8 // depth of the theoretical score
}

// Game is one WTHOR game record.
type Game struct {
	Tournament       uint16
	BlackPlayer      uint16
	WhitePlayer      uint16
	RealScore        int // black disks at the end of the game
	TheoreticalScore int // black disks with perfect play from Depth empties
	Moves            []board.Square
}

// decodeMove converts a WTHOR move byte 10*(y+1)+(x+1). Zero ends the game.
func decodeMove(b byte) (board.Square, bool) {
	x, y := int(b%10)-1, int(b/10)-1
	if x < 0 || x > 7 || y < 0 || y > 7 {
		return board.NoSquare, false
	}
	return board.NewSquare(x, y), true
}

func encodeMove(sq board.Square) byte {
	x, y := sq.Coords()
	return byte(10*(y+1) + x + 1)
}

// maxPreallocGames caps the capacity taken from an untrusted header.
const maxPreallocGames = 1 << 16

// LoadWThor reads every game of a WTHOR database file.
func LoadWThor(filename string) (Header, []Game, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Header{}, nil, err
	}
	defer file.Close()

	h, games, err := ReadWThor(bufio.NewReader(file))
	if err != nil {
		return h, games, fmt.Errorf("%s: %w", filename, err)
	}
	return h, games, nil
}

// ReadWThor reads a WTHOR database. The record count comes from the data,
// not the header, which is often stale.
func ReadWThor(r io.Reader) (Header, []Game, error) {
	var raw [headerBytes]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, nil, fmt.Errorf("header: %w", ErrTruncated)
		}
		return Header{}, nil, err
	}
	h := Header{
		Century:   raw[0],
		Year:      raw[1],
		Month:     raw[2],
		Day:       raw[3],
		Games:     binary.LittleEndian.Uint32(raw[4:8]),
		GameYear:  binary.LittleEndian.Uint16(raw[10:12]),
		BoardSize: raw[12],
		Depth:     raw[14],
	}
	if h.BoardSize != 0 && h.BoardSize != 8 {
		return h, nil, fmt.Errorf("unsupported board size %d", h.BoardSize)
	}

	games := make([]Game, 0, min(h.Games, maxPreallocGames))
	var rec [gameBytes]byte
	for i := 0; ; i++ {
		_, err := io.ReadFull(r, rec[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return h, games, fmt.Errorf("game %d: %w", i, ErrTruncated)
		}
		if err != nil {
			return h, games, fmt.Errorf("game %d: %w", i, err)
		}
		games = append(games, parseGame(rec[:]))
	}
	return h, games, nil
}

func parseGame(rec []byte) Game {
	g := Game{
		Tournament:       binary.LittleEndian.Uint16(rec[0:2]),
		BlackPlayer:      binary.LittleEndian.Uint16(rec[2:4]),
		WhitePlayer:      binary.LittleEndian.Uint16(rec[4:6]),
		RealScore:        int(rec[6]),
		TheoreticalScore: int(rec[7]),
	}
	for _, b := range rec[gameHeaderBytes:] {
		sq, ok := decodeMove(b)
		if !ok {
			break
		}
		g.Moves = append(g.Moves, sq)
	}
	return g
}

// WriteWThor writes games as a WTHOR database with the given header. The
// header's game count is set from len(games).
func WriteWThor(w io.Writer, h Header, games []Game) error {
	var raw [headerBytes]byte
	raw[0], raw[1], raw[2], raw[3] = h.Century, h.Year, h.Month, h.Day
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(games)))
	binary.LittleEndian.PutUint16(raw[10:12], h.GameYear)
	raw[12] = h.BoardSize
	raw[14] = h.Depth
	if _, err := w.Write(raw[:]); err != nil {
		return err
	}

	for i, g := range games {
		var rec [gameBytes]byte
		binary.LittleEndian.PutUint16(rec[0:2], g.Tournament)
		binary.LittleEndian.PutUint16(rec[2:4], g.BlackPlayer)
		binary.LittleEndian.PutUint16(rec[4:6], g.WhitePlayer)
		rec[6] = byte(g.RealScore)
		rec[7] = byte(g.TheoreticalScore)
		n := 0
		for _, sq := range g.Moves {
			if sq.IsPass() {
				continue
			}
			if n == movesPerGame {
				return fmt.Errorf("game %d: more than %d moves", i, movesPerGame)
			}
			rec[gameHeaderBytes+n] = encodeMove(sq)
			n++
		}
		if _, err := w.Write(rec[:]); err != nil {
			return err
		}
	}
	return nil
}

// Replay plays the game from the start position, passing automatically
// when the side to move has no move; recorded passes are skipped. After
// each legal move it calls visit with the hash and side to move of the
// position the move was played in. It returns the last position reached.
func (g Game) Replay(visit func(key uint64, mover board.Color, move board.Square)) (*board.Position, error) {
	pos := board.NewPosition()
	for i, sq := range g.Moves {
		if sq.IsPass() {
			continue
		}
		if pos.MustPass() {
			pos.Pass()
		}
		key, mover := pos.Hash(), pos.SideToMove
		if _, err := pos.Play(sq); err != nil {
			return pos, fmt.Errorf("move %d: %w", i+1, err)
		}
		if visit != nil {
			visit(key, mover, sq)
		}
	}
	return pos, nil
}

// Winner returns the color that won the game. Complete games are scored on
// the board; otherwise the recorded black score decides.
func (g Game) Winner(final *board.Position) board.Color {
	if final != nil && final.IsGameOver() {
		return final.Outcome().Winner()
	}
	half := board.BoardSquares / 2
	switch {
	case g.RealScore > half:
		return board.Black
	case g.RealScore < half:
		return board.White
	}
	return board.NoColor
}

// NewGame records a played move sequence with its final score for black.
func NewGame(moves []board.Square, final *board.Position) Game {
	g := Game{Moves: moves}
	if final != nil {
		g.RealScore = final.DiskCount(board.Black)
		if final.IsGameOver() {
			// Empties go to the winner.
			switch final.Outcome() {
			case board.BlackWins:
				g.RealScore += final.Empties()
			case board.Draw:
				g.RealScore += final.Empties() / 2
			}
		}
		g.TheoreticalScore = g.RealScore
	}
	return g
}
