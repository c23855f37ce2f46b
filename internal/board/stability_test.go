package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stabilityFixpoint reports whether one more propagation round changes s.
func stabilityFixpoint(s, own, opp Bitboard) bool {
	vertical, horizontal, diagonal, antiDiagonal := fullLines(own | opp)
	vertical |= Rank1 | Rank8
	horizontal |= FileA | FileH
	diagonal |= Border
	antiDiagonal |= Border
	return grow(s, own, vertical, horizontal, diagonal, antiDiagonal) == s
}

func TestStability(t *testing.T) {
	checker := Bitboard(0xAA55AA55AA55AA55)

	tests := []struct {
		name     string
		own, opp Bitboard
		want     Bitboard
	}{
		{"full board one side", Universe, Empty, Universe},
		{"full board mixed", checker, ^checker, checker},
		{"corners only", Corners, Empty, Corners},
		{"edge row", Rank1, Empty, Rank1},
		{"edge row and column", Rank1 | FileA, Empty, Rank1 | FileA},
		{"lone centre disk", MustParseSquare("d4").Bitboard(), Empty, Empty},
		{"starting position", StartBlack, StartWhite, Empty},
		{"empty", Empty, Empty, Empty},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Stability(tc.own, tc.opp)
			assert.Equal(t, tc.want, got, "got\n%s", got)
			assert.True(t, stabilityFixpoint(got, tc.own, tc.opp))
		})
	}
}

func TestStabilityCornerRegion(t *testing.T) {
	// A black triangle anchored on a1 is stable; a lone b2 is not.
	own := Empty
	for _, s := range []string{"a1", "b1", "c1", "a2", "b2", "a3"} {
		own |= MustParseSquare(s).Bitboard()
	}
	assert.Equal(t, own, Stability(own, Empty))

	b2 := MustParseSquare("b2").Bitboard()
	assert.Equal(t, Empty, Stability(b2, Empty))
}

// Handing the unstable own disks to the opponent keeps the occupancy and
// leaves the stable set unchanged.
func TestStabilityIdempotent(t *testing.T) {
	check := func(t *testing.T, own, opp Bitboard) {
		t.Helper()
		stable := Stability(own, opp)
		again := Stability(stable, opp|own&^stable)
		require.Equal(t, stable, again, "own\n%sopp\n%s", own, opp)
	}

	own := Rank1 | FileA | MustParseSquare("d4").Bitboard()
	opp := MustParseSquare("e5").Bitboard()
	check(t, own, opp)
	assert.Zero(t, Stability(own, opp)&MustParseSquare("d4").Bitboard())

	rng := testRNG()
	for game := 0; game < 50; game++ {
		pos := NewPosition()
		for !pos.IsGameOver() {
			check(t, pos.Disks[Black], pos.Disks[White])
			check(t, pos.Disks[White], pos.Disks[Black])
			moves := pos.LegalMoves()
			if moves == 0 {
				pos.Pass()
				continue
			}
			pos.MakeMove(Square(SelectBit(moves, rng.Intn(moves.PopCount())+1) - 1))
		}
	}
}

// stabilityFullLinesOnly propagates from corners and full lines alone,
// without treating the board edge as a closed axis.
func stabilityFullLinesOnly(own, opp Bitboard) Bitboard {
	vertical, horizontal, diagonal, antiDiagonal := fullLines(own | opp)
	stable := (Corners | (vertical & horizontal & diagonal & antiDiagonal)) & own
	for i := 0; i < StabilityRounds; i++ {
		stable = grow(stable, own, vertical, horizontal, diagonal, antiDiagonal)
	}
	return stable
}

// The edge closes the axes running into it, so edge disks chained to a corner
// are stable even when their lines are not full.
func TestStabilityEdgeTerm(t *testing.T) {
	assert.Equal(t, Rank1, Stability(Rank1, Empty))
	assert.Equal(t, Rank1&Corners, stabilityFullLinesOnly(Rank1, Empty))

	a1 := MustParseSquare("a1").Bitboard()
	b1 := MustParseSquare("b1").Bitboard()
	assert.Equal(t, a1|b1, Stability(a1|b1, Empty))
	assert.Equal(t, a1, stabilityFullLinesOnly(a1|b1, Empty))

	rng := testRNG()
	for game := 0; game < 50; game++ {
		pos := NewPosition()
		for !pos.IsGameOver() {
			own, opp := pos.Own(), pos.Opp()
			narrow := stabilityFullLinesOnly(own, opp)
			require.Equal(t, narrow, narrow&Stability(own, opp), "\n%s", pos)
			moves := pos.LegalMoves()
			if moves == 0 {
				pos.Pass()
				continue
			}
			pos.MakeMove(Square(SelectBit(moves, rng.Intn(moves.PopCount())+1) - 1))
		}
	}
}

// Disks reported stable must keep their color for the rest of the game.
func TestStabilityHoldsDuringPlay(t *testing.T) {
	rng := testRNG()
	for game := 0; game < 150; game++ {
		pos := NewPosition()
		var snapshots [][2]Bitboard
		for !pos.IsGameOver() {
			black := Stability(pos.Disks[Black], pos.Disks[White])
			white := Stability(pos.Disks[White], pos.Disks[Black])
			require.Equal(t, black, black&pos.Disks[Black])
			require.Equal(t, white, white&pos.Disks[White])
			require.True(t, stabilityFixpoint(black, pos.Disks[Black], pos.Disks[White]))
			snapshots = append(snapshots, [2]Bitboard{black, white})

			moves := pos.LegalMoves()
			if moves == 0 {
				pos.Pass()
				continue
			}
			pos.MakeMove(Square(SelectBit(moves, rng.Intn(moves.PopCount())+1) - 1))

			for _, s := range snapshots {
				require.Equal(t, s[Black], s[Black]&pos.Disks[Black], "black stable disk flipped\n%s", pos)
				require.Equal(t, s[White], s[White]&pos.Disks[White], "white stable disk flipped\n%s", pos)
			}
		}
	}
}

func BenchmarkStability(b *testing.B) {
	pos, _, _ := ParseTranscript("f5d6c3d3c4f4f6f3e6e7")
	own, opp := pos.Own(), pos.Opp()
	for i := 0; i < b.N; i++ {
		Stability(own, opp)
	}
}
