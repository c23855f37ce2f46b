// Package book builds and probes an opening book from WTHOR game databases.
package book

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/othello/internal/board"
)

// DefaultPlies is how deep into each game the book records moves.
const DefaultPlies = 16

// BookEntry represents a single book entry.
type BookEntry struct {
	Move   board.Square
	Weight uint32
}

// Book represents an opening book keyed by position hash.
type Book struct {
	entries map[uint64][]BookEntry
	games   int
	skipped int
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]BookEntry),
	}
}

// Build records the first maxPly moves of every game. Each occurrence of a
// move adds 1 to its weight and 1 more when the side playing it went on to
// win. Games with an illegal move contribute the plies before it.
func Build(games []Game, maxPly int) *Book {
	b := New()
	for i, g := range games {
		type ply struct {
			key   uint64
			mover board.Color
			move  board.Square
		}
		var plies []ply
		final, err := g.Replay(func(key uint64, mover board.Color, move board.Square) {
			if len(plies) < maxPly {
				plies = append(plies, ply{key, mover, move})
			}
		})

		winner := board.NoColor
		if err != nil {
			b.skipped++
			log.Debug().Err(err).Int("game", i).Msg("book: bad game record")
		} else {
			winner = g.Winner(final)
		}
		for _, p := range plies {
			w := uint32(1)
			if p.mover == winner {
				w++
			}
			b.add(p.key, p.move, w)
		}
		b.games++
	}
	log.Debug().Int("games", b.games).Int("skipped", b.skipped).Int("positions", len(b.entries)).Msg("book built")
	return b
}

func (b *Book) add(key uint64, move board.Square, weight uint32) {
	entries := b.entries[key]
	for i := range entries {
		if entries[i].Move == move {
			entries[i].Weight += weight
			return
		}
	}
	b.entries[key] = append(entries, BookEntry{Move: move, Weight: weight})
}

// Load builds a book from a WTHOR database file.
func Load(filename string, maxPly int) (*Book, error) {
	_, games, err := LoadWThor(filename)
	if err != nil {
		return nil, err
	}
	return Build(games, maxPly), nil
}

// Find returns the WTHOR files of the first path that has any. A path is
// either a file or a directory searched for *.wtb files.
func Find(paths []string) ([]string, error) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			return []string{p}, nil
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			continue
		}
		files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
			return filepath.Join(p, e.Name()), !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".wtb")
		})
		if len(files) > 0 {
			return files, nil
		}
	}
	return nil, fmt.Errorf("no WTHOR files in %s: %w", strings.Join(paths, ", "), os.ErrNotExist)
}

// LoadFiles reads the files concurrently and builds one book from all
// their games.
func LoadFiles(files []string, maxPly int) (*Book, error) {
	perFile := make([][]Game, len(files))
	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			_, games, err := LoadWThor(f)
			perFile[i] = games
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Build(lo.Flatten(perFile), maxPly), nil
}

// Len returns the number of positions in the book.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Skipped returns the number of games that had an illegal move.
func (b *Book) Skipped() int {
	return b.skipped
}

// Probe looks up a position in the book and returns a legal move using
// weighted random selection.
func (b *Book) Probe(pos *board.Position) (board.Square, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return board.NoSquare, false
	}

	total := lo.SumBy(entries, func(e BookEntry) uint64 { return uint64(e.Weight) })
	if total == 0 {
		return entries[0].Move, true
	}

	r := frand.Uint64n(total)
	cumulative := uint64(0)
	for _, e := range entries {
		cumulative += uint64(e.Weight)
		if r < cumulative {
			return e.Move, true
		}
	}

	return entries[0].Move, true
}

// ProbeAll returns the book moves legal in pos, heaviest first.
func (b *Book) ProbeAll(pos *board.Position) []BookEntry {
	if b == nil {
		return nil
	}

	entries, ok := b.entries[pos.Hash()]
	if !ok {
		return nil
	}

	result := lo.Filter(entries, func(e BookEntry, _ int) bool {
		return pos.IsLegal(e.Move)
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weight != result[j].Weight {
			return result[i].Weight > result[j].Weight
		}
		return result[i].Move < result[j].Move
	})

	return result
}
