package engine

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/hailam/othello/internal/board"
)

// TTFlag says how a stored score relates to the true value.
type TTFlag uint8

const (
	TTExact      TTFlag = iota
	TTLowerBound        // score >= stored (beta cutoff)
	TTUpperBound        // score <= stored (no move reached alpha)
)

const (
	ttEntryBytes = 16
	ttShards     = 256
)

// TTEntry is one slot of the table. Key holds the full view key so index
// collisions are detected on probe.
type TTEntry struct {
	Key      uint64
	BestMove board.Square
	Score    int16
	Depth    int8 // plies searched below the node; 0 marks an empty slot
	Flag     TTFlag
	Age      uint8
}

// TranspositionTable caches search results keyed by (own, opp) views. It is
// shared by the midgame searcher and the endgame workers, so slots are
// guarded by striped locks.
type TranspositionTable struct {
	entries []TTEntry
	locks   [ttShards]sync.RWMutex
	mask    uint64
	age     atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable allocates a power-of-two table of at most sizeMB
// megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	n := uint64(max(sizeMB, 1)) << 20 / ttEntryBytes
	n = 1 << (bits.Len64(n) - 1)
	return &TranspositionTable{entries: make([]TTEntry, n), mask: n - 1}
}

func (tt *TranspositionTable) lock(idx uint64) *sync.RWMutex {
	return &tt.locks[idx%ttShards]
}

// Probe returns the entry stored for key, if any.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	tt.probes.Add(1)
	idx := key & tt.mask
	l := tt.lock(idx)
	l.RLock()
	e := tt.entries[idx]
	l.RUnlock()

	if e.Depth == 0 || e.Key != key {
		return TTEntry{}, false
	}
	tt.hits.Add(1)
	return e, true
}

// Store records a result. A slot written by an earlier search is always
// taken; within one search only an equal or deeper result replaces it.
func (tt *TranspositionTable) Store(key uint64, depth, score int, flag TTFlag, move board.Square) {
	if depth <= 0 {
		return
	}
	age := uint8(tt.age.Load())
	idx := key & tt.mask
	l := tt.lock(idx)
	l.Lock()
	defer l.Unlock()

	e := &tt.entries[idx]
	if e.Age == age && depth < int(e.Depth) {
		return
	}
	*e = TTEntry{
		Key:      key,
		BestMove: move,
		Score:    int16(score),
		Depth:    int8(min(depth, MaxPly)),
		Flag:     flag,
		Age:      age,
	}
}

// NewSearch starts a new generation; older entries become replaceable.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear empties the table and resets the counters.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull estimates, in permille, how much of the table the current search
// has written, from the first thousand slots.
func (tt *TranspositionTable) HashFull() int {
	sample := tt.entries[:min(len(tt.entries), 1000)]
	age := uint8(tt.age.Load())
	used := 0
	for _, e := range sample {
		if e.Depth > 0 && e.Age == age {
			used++
		}
	}
	return used * 1000 / len(sample)
}

// HitRate is the percentage of probes that found their key.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return 100 * float64(tt.hits.Load()) / float64(probes)
}

// Size is the number of slots.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// viewKey hashes a side-to-move view. Search nodes only know own and opp,
// so the color byte is left out of the key.
func viewKey(own, opp board.Bitboard) uint64 {
	return board.HashDisks(own, opp, board.NoColor)
}
