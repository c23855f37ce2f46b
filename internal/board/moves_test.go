package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var compass = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

// naiveFlips walks each line square by square in board coordinates.
func naiveFlips(own, opp Bitboard, x, y int) Bitboard {
	var flips Bitboard
	for _, d := range compass {
		var run Bitboard
		cx, cy := x+d[0], y+d[1]
		for cx >= 0 && cx < 8 && cy >= 0 && cy < 8 && opp&MakeSingleton(cx, cy) != 0 {
			run |= MakeSingleton(cx, cy)
			cx, cy = cx+d[0], cy+d[1]
		}
		if run != 0 && cx >= 0 && cx < 8 && cy >= 0 && cy < 8 && own&MakeSingleton(cx, cy) != 0 {
			flips |= run
		}
	}
	return flips
}

func naiveMoves(own, opp Bitboard) Bitboard {
	var moves Bitboard
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			sq := MakeSingleton(x, y)
			if (own|opp)&sq == 0 && naiveFlips(own, opp, x, y) != 0 {
				moves |= sq
			}
		}
	}
	return moves
}

func TestFindMovesStartingPosition(t *testing.T) {
	moves := FindMoves(StartBlack, StartWhite)
	assert.Equal(t, Bitboard(0x0000102004080000), moves)

	want := Empty
	for _, s := range []string{"d3", "c4", "f5", "e6"} {
		want |= MustParseSquare(s).Bitboard()
	}
	assert.Equal(t, want, moves)
	assert.Equal(t, 4, Mobility(StartBlack, StartWhite))
}

func TestFindMovesNoMoves(t *testing.T) {
	assert.Equal(t, Empty, FindMoves(Empty, Empty))
	assert.Equal(t, Empty, FindMoves(Universe, Empty))
	assert.Equal(t, Empty, FindMoves(StartBlack, Empty))
	assert.Equal(t, Empty, FindMoves(Empty, StartWhite))
}

func TestFindMovesNoWrap(t *testing.T) {
	// h4 black, a5 white: adjacent bits in different rows must not connect.
	own := MustParseSquare("h4").Bitboard()
	opp := MustParseSquare("a5").Bitboard()
	assert.Equal(t, Empty, FindMoves(own, opp))

	own = MustParseSquare("a4").Bitboard()
	opp = MustParseSquare("h3").Bitboard()
	assert.Equal(t, Empty, FindMoves(own, opp))
}

func TestResolveMoveOpening(t *testing.T) {
	d3 := MustParseSquare("d3").Bitboard()
	flips := ResolveMove(StartBlack, StartWhite, d3)
	assert.Equal(t, 1, flips.PopCount())
	assert.Equal(t, MustParseSquare("d4").Bitboard(), flips)

	for _, tc := range []struct{ move, flip string }{
		{"c4", "d4"}, {"f5", "e5"}, {"e6", "e5"},
	} {
		got := ResolveMove(StartBlack, StartWhite, MustParseSquare(tc.move).Bitboard())
		assert.Equal(t, MustParseSquare(tc.flip).Bitboard(), got, tc.move)
	}
}

func TestResolveMoveMultipleLines(t *testing.T) {
	own := MustParseSquare("a1").Bitboard() | MustParseSquare("e5").Bitboard()
	opp := MustParseSquare("b1").Bitboard() | MustParseSquare("c1").Bitboard() |
		MustParseSquare("e2").Bitboard() | MustParseSquare("e3").Bitboard() |
		MustParseSquare("e4").Bitboard() | MustParseSquare("c2").Bitboard()
	move := MustParseSquare("e1").Bitboard()

	// e1 is outflanked toward a1 only through b1, c1 and d1, but d1 is empty.
	flips := ResolveMove(own, opp, move)
	want := MustParseSquare("e2").Bitboard() | MustParseSquare("e3").Bitboard() |
		MustParseSquare("e4").Bitboard()
	assert.Equal(t, want, flips)
	assert.Zero(t, flips&own)
	assert.Equal(t, flips, flips&opp)
}

func TestMovesMatchNaive(t *testing.T) {
	rng := testRNG()
	for game := 0; game < 200; game++ {
		pos := NewPosition()
		for !pos.IsGameOver() {
			own, opp := pos.Own(), pos.Opp()
			moves := FindMoves(own, opp)
			require.Equal(t, naiveMoves(own, opp), moves, "position %s", pos.Notation())

			if moves == 0 {
				pos.Pass()
				continue
			}
			for m := moves; m != 0; {
				sq := m.PopLSB()
				x, y := sq.Coords()
				require.Equal(t, naiveFlips(own, opp, x, y), ResolveMove(own, opp, sq.Bitboard()),
					"move %s in %s", sq, pos.Notation())
			}

			sq := Square(SelectBit(moves, rng.Intn(moves.PopCount())+1) - 1)
			pos.MakeMove(sq)
		}
	}
}

func TestDirectionStep(t *testing.T) {
	assert.Equal(t, Empty, East.Step(FileH))
	assert.Equal(t, Empty, West.Step(FileA))
	assert.Equal(t, Empty, NorthEast.Step(FileH))
	assert.Equal(t, Empty, SouthWest.Step(FileA))
	assert.Equal(t, Empty, North.Step(Rank8))
	assert.Equal(t, Empty, South.Step(Rank1))

	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		assert.NotEqual(t, d, d.Opposite())
		// Stepping out and back lands on the starting square away from edges.
		inner := Bitboard(0x00007E7E7E7E0000) & ^Border
		assert.Equal(t, inner, d.Opposite().Step(d.Step(inner))&inner, d.String())
	}
}

func TestDirectionOcclude(t *testing.T) {
	// A full row of propagators is crossed in one call.
	gen := Bitboard(1)
	assert.Equal(t, Rank1, East.Occlude(gen, Rank1))
	assert.Equal(t, FileA, North.Occlude(gen, FileA))

	// A gap stops the fill.
	pro := Rank1 &^ (1 << 4)
	assert.Equal(t, Bitboard(0x0F), East.Occlude(gen, pro))

	// Fills never cross into the next row.
	assert.Equal(t, Bitboard(1<<7), East.Occlude(1<<7, Universe)&Rank1)
}

func BenchmarkFindMoves(b *testing.B) {
	pos, _, _ := ParseTranscript("f5d6c3d3c4f4f6f3e6e7")
	own, opp := pos.Own(), pos.Opp()
	for i := 0; i < b.N; i++ {
		FindMoves(own, opp)
	}
}

func BenchmarkResolveMove(b *testing.B) {
	d3 := MustParseSquare("d3").Bitboard()
	for i := 0; i < b.N; i++ {
		ResolveMove(StartBlack, StartWhite, d3)
	}
}
