package engine

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/frand"

	"github.com/hailam/othello/internal/board"
	"github.com/hailam/othello/internal/storage"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testRNG(seed byte) *frand.RNG {
	key := make([]byte, 32)
	key[0] = seed
	return frand.NewCustom(key, 1024, 12)
}

// randomPosition plays random moves from the start until at most empties
// squares remain. Games that end early are retried.
func randomPosition(rng *frand.RNG, empties int) *board.Position {
	for {
		pos := board.NewPosition()
		for pos.Empties() > empties && !pos.IsGameOver() {
			moves := pos.LegalMoves()
			if moves == 0 {
				pos.Pass()
				continue
			}
			pos.MakeMove(pickMove(moves, rng.Intn))
		}
		if pos.Empties() == empties && !pos.IsGameOver() {
			return pos
		}
	}
}

// minimax is an unpruned reference for the endgame solver.
func minimax(own, opp board.Bitboard, passed bool) int {
	moves := board.FindMoves(own, opp)
	if moves == 0 {
		if passed {
			return finalScore(own, opp)
		}
		return -minimax(opp, own, true)
	}
	best := -Infinity
	for moves != 0 {
		bit := board.ExtractLowestDisk(moves)
		moves ^= bit
		flips := board.ResolveMove(own, opp, bit)
		if s := -minimax(opp^flips, own|flips|bit, false); s > best {
			best = s
		}
	}
	return best
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func TestEvaluateAntisymmetric(t *testing.T) {
	rng := testRNG(1)
	for _, empties := range []int{58, 48, 36, 24, 12, 4} {
		pos := randomPosition(rng, empties)
		own, opp := pos.Own(), pos.Opp()
		assert.Equal(t, -Evaluate(opp, own), Evaluate(own, opp), "empties=%d\n%s", empties, pos)
		assert.Less(t, abs(Evaluate(own, opp)), WinScore-1000+1)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestEvaluatePrefersCorner(t *testing.T) {
	// Same disk count, one side holding a1 against one holding b2.
	corner := board.MustParseSquare("a1").Bitboard()
	xsq := board.MustParseSquare("b2").Bitboard()
	own := corner | board.StartBlack
	opp := xsq | board.StartWhite
	assert.Greater(t, Evaluate(own, opp), 0)
}

func TestCornerRelief(t *testing.T) {
	sq := func(names ...string) board.Bitboard {
		var b board.Bitboard
		for _, n := range names {
			b |= board.MustParseSquare(n).Bitboard()
		}
		return b
	}

	// b1, a2 and b2 give back their -20, -20 and -50 once a1 is taken.
	assert.Equal(t, 90, cornerRelief(sq("a1", "b1", "a2", "b2"), 0))
	assert.Equal(t, 90, cornerRelief(sq("b1", "a2", "b2"), sq("a1")))
	assert.Equal(t, 50, cornerRelief(sq("g7"), sq("h8")))
	assert.Equal(t, 0, cornerRelief(sq("b1", "a2", "b2", "c3"), 0))
	// Only the occupied corner's own neighbours count.
	assert.Equal(t, 20, cornerRelief(sq("h2", "g2"), sq("h1", "a8")) - cornerRelief(sq("g2"), sq("h1", "a8")))
}

func TestFinalScore(t *testing.T) {
	tests := []struct {
		name     string
		own, opp board.Bitboard
		want     int
	}{
		{"full board win", board.Universe &^ board.Rank1, board.Rank1, 48},
		{"empties go to winner", board.Rank1, board.Rank8 & board.FileA, 7 + 55},
		{"empties go to winner when losing", board.FileA & board.Rank8, board.Rank1, -62},
		{"draw", board.Rank1, board.Rank8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finalScore(tt.own, tt.opp))
			assert.Equal(t, -tt.want, finalScore(tt.opp, tt.own))
		})
	}
}

func TestSolverMatchesMinimax(t *testing.T) {
	rng := testRNG(2)
	exact := &Solver{Threads: 2, Exact: true}
	wld := &Solver{Threads: 2}

	for i := 0; i < 20; i++ {
		pos := randomPosition(rng, 8)
		own, opp := pos.Own(), pos.Opp()
		want := minimax(own, opp, false)

		got, err := exact.Solve(context.Background(), own, opp)
		require.NoError(t, err)
		assert.Equal(t, want, got.Score, "exact score\n%s", pos)
		assert.True(t, got.Exact)

		// The chosen move must achieve the score.
		if got.Move.IsPass() {
			assert.Zero(t, pos.LegalMoves())
		} else {
			require.True(t, pos.IsLegal(got.Move))
			bit := got.Move.Bitboard()
			flips := board.ResolveMove(own, opp, bit)
			assert.Equal(t, want, -minimax(opp^flips, own|flips|bit, false), "move %s", got.Move)
		}

		w, err := wld.Solve(context.Background(), own, opp)
		require.NoError(t, err)
		assert.Equal(t, sign(want), sign(w.Score), "wld sign\n%s", pos)
		assert.False(t, w.Exact)
	}
}

func TestSolverGameOver(t *testing.T) {
	own := board.Universe &^ board.Rank1
	r, err := NewSolver().Solve(context.Background(), own, board.Rank1)
	require.NoError(t, err)
	assert.Equal(t, board.PassMove, r.Move)
	assert.Equal(t, 48, r.Score)
}

func TestSolverCancelled(t *testing.T) {
	pos := randomPosition(testRNG(3), 24)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSolver().Solve(ctx, pos.Own(), pos.Opp())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolverDeadline(t *testing.T) {
	pos := randomPosition(testRNG(4), 30)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewSolver().Solve(ctx, pos.Own(), pos.Opp())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSearchBasic(t *testing.T) {
	eng := NewEngine(16)
	eng.SetDifficulty(Easy)

	pos := board.NewPosition()
	move := eng.Search(context.Background(), pos)
	assert.True(t, pos.IsLegal(move), "move %s", move)
}

func TestSearchDepthLimit(t *testing.T) {
	eng := NewEngine(16)
	var infos []SearchInfo
	eng.OnInfo = func(info SearchInfo) { infos = append(infos, info) }

	pos, _, err := board.ParseTranscript("f5d6c3d3c4f4f6f3e6e7")
	require.NoError(t, err)

	res := eng.SearchWithLimits(context.Background(), pos, SearchLimits{Depth: 4, MoveTime: 30 * time.Second})
	assert.True(t, pos.IsLegal(res.Move), "move %s", res.Move)
	assert.Equal(t, SourceSearch, res.Source)
	assert.Equal(t, 4, res.Depth)
	require.Len(t, infos, 4)
	for i, info := range infos {
		assert.Equal(t, i+1, info.Depth)
		assert.False(t, info.Solved)
	}
}

func TestSearchForced(t *testing.T) {
	eng := NewEngine(1)

	// Black's only move is c1 once white has passed.
	pos, err := board.ParseBoard("XO" + dashes(62) + " X")
	require.NoError(t, err)
	res := eng.SearchWithLimits(context.Background(), pos, SearchLimits{Depth: 3})
	assert.Equal(t, board.MustParseSquare("c1"), res.Move)
	assert.Equal(t, SourceForced, res.Source)

	pos.SideToMove = board.White
	res = eng.SearchWithLimits(context.Background(), pos, SearchLimits{Depth: 3})
	assert.Equal(t, board.PassMove, res.Move)
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}

type fixedBook struct{ move board.Square }

func (b fixedBook) Probe(*board.Position) (board.Square, bool) { return b.move, true }

func TestSearchUsesBook(t *testing.T) {
	eng := NewEngine(1)
	eng.SetBook(fixedBook{board.MustParseSquare("c4")})

	res := eng.SearchWithLimits(context.Background(), board.NewPosition(), SearchLimits{Depth: 2})
	assert.Equal(t, board.MustParseSquare("c4"), res.Move)
	assert.Equal(t, SourceBook, res.Source)

	// An illegal book move falls through to the search.
	eng.SetBook(fixedBook{board.MustParseSquare("a1")})
	res = eng.SearchWithLimits(context.Background(), board.NewPosition(), SearchLimits{Depth: 2})
	assert.Equal(t, SourceSearch, res.Source)
	assert.True(t, board.NewPosition().IsLegal(res.Move))
}

type memCache struct {
	mu    sync.Mutex
	saved map[uint64]storage.Solved
}

func (c *memCache) LoadSolved(hash uint64) (storage.Solved, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.saved[hash]
	if !ok {
		return storage.Solved{}, storage.ErrNotFound
	}
	return v, nil
}

func (c *memCache) SaveSolved(hash uint64, v storage.Solved) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved[hash] = v
	return nil
}

func TestSearchSolvesAndCaches(t *testing.T) {
	rng := testRNG(5)
	var pos *board.Position
	for pos == nil || pos.LegalMoves().PopCount() < 2 {
		pos = randomPosition(rng, 9)
	}

	cache := &memCache{saved: map[uint64]storage.Solved{}}
	eng := NewEngine(4)
	eng.SetExactSolve(true)
	eng.SetSolveCache(cache)

	limits := SearchLimits{Depth: 4, MoveTime: 30 * time.Second, SolveDepth: 10}
	res := eng.SearchWithLimits(context.Background(), pos, limits)
	require.Equal(t, SourceSolver, res.Source)
	assert.True(t, res.Exact)
	assert.Equal(t, minimax(pos.Own(), pos.Opp(), false), res.Score)
	assert.Len(t, cache.saved, 1)

	again := eng.SearchWithLimits(context.Background(), pos, limits)
	assert.Equal(t, SourceCache, again.Source)
	assert.Equal(t, res.Move, again.Move)
	assert.Equal(t, res.Score, again.Score)
}

func TestSearchFindsWinningEndgame(t *testing.T) {
	rng := testRNG(6)
	eng := NewEngine(4)
	for i := 0; i < 5; i++ {
		pos := randomPosition(rng, 6)
		if pos.LegalMoves().PopCount() < 2 {
			continue
		}
		// A full-depth midgame search reaches every game end.
		res := eng.SearchWithLimits(context.Background(), pos, SearchLimits{Depth: 20, MoveTime: 30 * time.Second})
		want := minimax(pos.Own(), pos.Opp(), false)
		bit := res.Move.Bitboard()
		flips := board.ResolveMove(pos.Own(), pos.Opp(), bit)
		got := -minimax(pos.Opp()^flips, pos.Own()|flips|bit, false)
		assert.Equal(t, sign(want), sign(got), "move %s\n%s", res.Move, pos)
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		got, err := ParseDifficulty(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	got, err := ParseDifficulty(" HARD ")
	require.NoError(t, err)
	assert.Equal(t, Hard, got)

	_, err = ParseDifficulty("impossible")
	assert.Error(t, err)
}

func TestLimits(t *testing.T) {
	eng := NewEngine(1)
	eng.SetDifficulty(Hard)
	assert.Equal(t, DifficultySettings[Hard], eng.Limits(0))

	eng.SetSolveDepth(8)
	l := eng.Limits(time.Minute)
	assert.Equal(t, 8, l.SolveDepth)
	assert.Equal(t, time.Minute, l.TimeLeft)
	assert.Zero(t, l.MoveTime)
}

func TestScoreToString(t *testing.T) {
	assert.Equal(t, "+1.25", ScoreToString(125))
	assert.Equal(t, "-0.07", ScoreToString(-7))
	assert.Equal(t, "win by 12", ScoreToString(WinScore+12))
	assert.Equal(t, "loss by 4", ScoreToString(-WinScore-4))
}

func TestRandomMove(t *testing.T) {
	pos := board.NewPosition()
	seen := map[board.Square]bool{}
	for i := 0; i < 200; i++ {
		sq := RandomMove(pos)
		require.True(t, pos.IsLegal(sq), "move %s", sq)
		seen[sq] = true
	}
	assert.Len(t, seen, 4)

	pos.SideToMove = board.White
	pos.Disks = [2]board.Bitboard{board.Rank1, 0}
	assert.Equal(t, board.PassMove, RandomMove(pos))
}

func TestPickMoveCoversEveryRank(t *testing.T) {
	moves := board.FindMoves(board.StartBlack, board.StartWhite)
	var got board.Bitboard
	for r := 0; r < moves.PopCount(); r++ {
		sq := pickMove(moves, func(int) int { return r })
		got |= sq.Bitboard()
	}
	assert.Equal(t, moves, got)
}

func TestTimeManager(t *testing.T) {
	tm := NewTimeManager()

	tm.Init(0, 0, 40)
	assert.Equal(t, time.Hour, tm.MaximumTime())

	tm.Init(time.Minute, 2*time.Second, 40)
	assert.Equal(t, 2*time.Second, tm.OptimumTime())
	assert.Equal(t, 2*time.Second, tm.MaximumTime())

	tm.Init(60*time.Second, 0, 60)
	assert.Equal(t, 2*time.Second, tm.OptimumTime())
	assert.Equal(t, 6*time.Second, tm.MaximumTime())

	// Never more than the clock minus the reserve.
	tm.Init(100*time.Millisecond, 0, 2)
	assert.Equal(t, 50*time.Millisecond, tm.MaximumTime())
	assert.LessOrEqual(t, tm.OptimumTime(), tm.MaximumTime())
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), tm.Deadline(), 25*time.Millisecond)
}

func TestTranspositionTable(t *testing.T) {
	tt := NewTranspositionTable(1)
	require.Equal(t, uint64(1<<16), tt.Size())

	key := viewKey(board.StartBlack, board.StartWhite)
	_, ok := tt.Probe(key)
	assert.False(t, ok)

	c4 := board.MustParseSquare("c4")
	tt.Store(key, 5, 120, TTExact, c4)
	e, ok := tt.Probe(key)
	require.True(t, ok)
	assert.Equal(t, c4, e.BestMove)
	assert.Equal(t, int16(120), e.Score)
	assert.Equal(t, int8(5), e.Depth)
	assert.Equal(t, TTExact, e.Flag)

	// Shallower results of the same search do not replace deeper ones.
	tt.Store(key, 3, -40, TTLowerBound, board.MustParseSquare("d3"))
	e, _ = tt.Probe(key)
	assert.Equal(t, int8(5), e.Depth)

	// A new search may overwrite anything.
	tt.NewSearch()
	tt.Store(key, 3, -40, TTLowerBound, board.MustParseSquare("d3"))
	e, _ = tt.Probe(key)
	assert.Equal(t, int8(3), e.Depth)
	assert.Greater(t, tt.HitRate(), 0.0)

	tt.Clear()
	_, ok = tt.Probe(key)
	assert.False(t, ok)
	assert.Zero(t, tt.HashFull())
}

func TestViewKeyIgnoresColor(t *testing.T) {
	black := board.NewPosition()
	white := board.NewPositionFromView(black.Own(), black.Opp(), board.White)
	assert.NotEqual(t, black.Hash(), white.Hash())
	assert.Equal(t, viewKey(black.Own(), black.Opp()), viewKey(white.Own(), white.Opp()))
	assert.NotEqual(t, viewKey(board.StartBlack, board.StartWhite), viewKey(board.StartWhite, board.StartBlack))
}

func BenchmarkSolve14(b *testing.B) {
	pos := randomPosition(testRNG(7), 14)
	s := NewSolver()
	for i := 0; i < b.N; i++ {
		if _, err := s.Solve(context.Background(), pos.Own(), pos.Opp()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluate(b *testing.B) {
	pos := randomPosition(testRNG(8), 30)
	own, opp := pos.Own(), pos.Opp()
	for i := 0; i < b.N; i++ {
		Evaluate(own, opp)
	}
}
