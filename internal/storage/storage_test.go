package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/othello/internal/board"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		assert.Equal(t, "Player", prefs.Username)
		assert.Equal(t, DifficultyMedium, prefs.Difficulty)
		assert.Equal(t, board.Black, prefs.HumanColor)
		assert.True(t, prefs.ShowHints)
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		assert.Zero(t, stats.GamesPlayed)
		assert.Zero(t, stats.GetWinRate())
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{GamesPlayed: 10, Wins: 5, Losses: 3, Draws: 2}
		assert.Equal(t, 50.0, stats.GetWinRate())
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTemp(t)

	prefs, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "Player", prefs.Username, "defaults when nothing is stored")

	prefs.Username = "alice"
	prefs.Difficulty = DifficultyHard
	prefs.HumanColor = board.White
	prefs.ShowHints = false
	require.NoError(t, s.SavePreferences(prefs))

	got, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, DifficultyHard, got.Difficulty)
	assert.Equal(t, board.White, got.HumanColor)
	assert.False(t, got.ShowHints)
}

func TestFirstLaunch(t *testing.T) {
	s := openTemp(t)

	first, err := s.IsFirstLaunch()
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, s.MarkFirstLaunchComplete())
	first, err = s.IsFirstLaunch()
	require.NoError(t, err)
	assert.False(t, first)
}

func TestRecordGame(t *testing.T) {
	s := openTemp(t)

	games := []GameResult{
		{Won: true, Difficulty: DifficultyEasy, Margin: 10, Duration: time.Minute},
		{Won: true, Difficulty: DifficultyHard, Margin: 24, Duration: time.Minute},
		{Draw: true, Difficulty: DifficultyHard, Duration: time.Minute},
		{Won: false, Difficulty: DifficultyHard, Margin: -8, Duration: time.Minute},
		{Won: true, Difficulty: DifficultyMedium, Margin: 2, Duration: time.Minute},
	}
	for _, g := range games {
		require.NoError(t, s.RecordGame(g))
	}

	stats, err := s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.GamesPlayed)
	assert.Equal(t, 3, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 2, stats.LongestWinStrk)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 24, stats.BestMargin)
	assert.Equal(t, 5*time.Minute, stats.TotalPlayTime)
	assert.Equal(t, map[string]int{"easy": 1, "hard": 1, "medium": 1}, stats.WinsByDiff)
}

func TestSolveCache(t *testing.T) {
	s := openTemp(t)

	_, err := s.LoadSolved(42)
	assert.ErrorIs(t, err, ErrNotFound)

	want := Solved{Move: board.MustParseSquare("c4"), Score: 6, Exact: true}
	require.NoError(t, s.SaveSolved(42, want))
	require.NoError(t, s.SaveSolved(43, Solved{Move: board.PassMove, Score: -1}))

	got, err := s.LoadSolved(42)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	n, err := s.SolvedCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Preferences live outside the solve prefix and survive a clear.
	prefs := DefaultPreferences()
	prefs.Username = "bob"
	require.NoError(t, s.SavePreferences(prefs))
	require.NoError(t, s.ClearSolved())

	n, err = s.SolvedCount()
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = s.LoadSolved(42)
	assert.ErrorIs(t, err, ErrNotFound)
	prefs, err = s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "bob", prefs.Username)
}

func TestDataPaths(t *testing.T) {
	xdg := ""
	if runtime.GOOS == "linux" {
		xdg = t.TempDir()
		t.Setenv("XDG_DATA_HOME", xdg)
	}

	dataDir, err := GetDataDir()
	require.NoError(t, err)
	require.NotEmpty(t, dataDir)
	if xdg != "" {
		assert.Equal(t, filepath.Join(xdg, "othello"), dataDir)
	}

	_, err = os.Stat(dataDir)
	assert.NoError(t, err, "data directory should be created")

	dbDir, err := GetDatabaseDir()
	require.NoError(t, err)
	assert.DirExists(t, dbDir)

	bookDir, err := GetBookDir()
	require.NoError(t, err)
	assert.DirExists(t, bookDir)
	assert.Equal(t, filepath.Join(dataDir, "book"), bookDir)
	assert.Equal(t, filepath.Join(dataDir, "db"), dbDir)
}
