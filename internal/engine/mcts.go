package engine

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/hailam/othello/internal/board"
)

// DefaultExploration is the UCB1 exploration constant.
const DefaultExploration = math.Sqrt2

// mctsNode is a position seen from the side to move. wins is counted for
// the player who moved into the node.
type mctsNode struct {
	own, opp board.Bitboard
	move     board.Square
	parent   *mctsNode
	children []*mctsNode
	untried  board.Bitboard
	mustPass bool

	visits float64
	wins   float64
}

func newNode(own, opp board.Bitboard, move board.Square, parent *mctsNode) *mctsNode {
	n := &mctsNode{own: own, opp: opp, move: move, parent: parent}
	n.untried = board.FindMoves(own, opp)
	n.mustPass = n.untried == 0 && board.FindMoves(opp, own) != 0
	return n
}

func (n *mctsNode) expandable() bool {
	return n.untried != 0 || (n.mustPass && len(n.children) == 0)
}

// ucb1 picks the child maximizing mean reward plus exploration bonus.
func (n *mctsNode) ucb1(c float64) *mctsNode {
	lnParent := math.Log(n.visits)
	var best *mctsNode
	bestValue := math.Inf(-1)
	for _, child := range n.children {
		value := child.wins/child.visits + c*math.Sqrt(lnParent/child.visits)
		if value > bestValue {
			best, bestValue = child, value
		}
	}
	return best
}

// MCTS chooses moves by Monte Carlo tree search with uniformly random
// playouts.
type MCTS struct {
	Exploration float64
	Playouts    int // per move; 0 means until ctx ends

	intn func(int) int
}

// NewMCTS creates a searcher with the default exploration constant.
func NewMCTS(playouts int) *MCTS {
	return &MCTS{Exploration: DefaultExploration, Playouts: playouts, intn: frand.Intn}
}

// Search returns the most visited root move. It stops after Playouts
// iterations or when ctx ends, whichever comes first, and always runs at
// least one iteration per legal move.
func (m *MCTS) Search(ctx context.Context, pos *board.Position) board.Square {
	moves := pos.LegalMoves()
	switch board.PopCount(moves) {
	case 0:
		return board.PassMove
	case 1:
		return moves.LSB()
	}

	root := newNode(pos.Own(), pos.Opp(), board.NoSquare, nil)
	iterations := 0
	for {
		if root.untried == 0 {
			if m.Playouts > 0 && iterations >= m.Playouts {
				break
			}
			if iterations&63 == 0 && ctx.Err() != nil {
				break
			}
		}
		m.iterate(root)
		iterations++
	}

	var best *mctsNode
	for _, child := range root.children {
		if best == nil || child.visits > best.visits {
			best = child
		}
	}
	log.Debug().
		Int("playouts", iterations).
		Str("move", best.move.String()).
		Float64("win_rate", best.wins/best.visits).
		Msg("mcts")
	return best.move
}

func (m *MCTS) iterate(root *mctsNode) {
	n := root
	for !n.expandable() && len(n.children) > 0 {
		n = n.ucb1(m.Exploration)
	}

	switch {
	case n.untried != 0:
		sq := pickMove(n.untried, m.intn)
		n.untried &^= sq.Bitboard()
		flips := board.ResolveMove(n.own, n.opp, sq.Bitboard())
		own, opp := play(n.own, n.opp, sq, flips)
		child := newNode(own, opp, sq, n)
		n.children = append(n.children, child)
		n = child
	case n.mustPass && len(n.children) == 0:
		child := newNode(n.opp, n.own, board.PassMove, n)
		n.children = append(n.children, child)
		n = child
	}

	score := m.playout(n.own, n.opp)
	for ; n != nil; n = n.parent {
		n.visits++
		// The mover into n is the side not to move at n.
		switch {
		case score < 0:
			n.wins++
		case score == 0:
			n.wins += 0.5
		}
		score = -score
	}
}

// playout plays random moves to the end and returns the final score for
// the side to move at the start.
func (m *MCTS) playout(own, opp board.Bitboard) int {
	sign := 1
	passed := false
	for {
		moves := board.FindMoves(own, opp)
		if moves == 0 {
			if passed {
				break
			}
			passed = true
			own, opp = opp, own
		} else {
			passed = false
			sq := pickMove(moves, m.intn)
			own, opp = play(own, opp, sq, board.ResolveMove(own, opp, sq.Bitboard()))
		}
		sign = -sign
	}
	return sign * finalScore(own, opp)
}
