package gametree

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"strings"
	"sync"

	"github.com/lox/bountycfr/internal/deck"
	"github.com/lox/bountycfr/internal/evaluator"
	"github.com/lox/bountycfr/internal/game"
	"github.com/lox/bountycfr/internal/infoset"
	"github.com/lox/bountycfr/internal/solver"
)

var (
	// ErrIllegalAction is returned when an abstract action is not legal at the node.
	ErrIllegalAction = errors.New("illegal abstract action")
	// ErrWrongNodeType is returned when an operation does not apply to the node type.
	ErrWrongNodeType = errors.New("operation not valid for node type")
)

// Node is one position in the abstract game. Nodes are immutable apart from
// the lazily computed payout and must not be shared between goroutines that
// hold different random streams.
type Node struct {
	tree       *Tree
	state      game.State
	parent     *Node
	rng        *rand.Rand
	fixedBoard []deck.Card

	payoutOnce sync.Once
	payout     int
}

var _ solver.Node = (*Node)(nil)

// Parent returns the node this one was derived from, nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// State returns the underlying rules state.
func (n *Node) State() game.State { return n.state }

func (n *Node) round() (*game.RoundState, bool) {
	rs, ok := n.state.(*game.RoundState)
	return rs, ok
}

// Type classifies the node. A round state whose street index is ahead of its
// board is waiting for community cards.
func (n *Node) Type() solver.NodeType {
	rs, ok := n.round()
	if !ok {
		return solver.TerminalNode
	}
	if rs.Street > len(rs.Board) {
		return solver.ChanceNode
	}
	return solver.DecisionNode
}

// ActivePlayer returns the seat to act at a decision node and -1 otherwise.
func (n *Node) ActivePlayer() int {
	if n.Type() != solver.DecisionNode {
		return -1
	}
	rs, _ := n.round()
	return rs.Active()
}

// LegalActions returns the abstract legality mask. A ladder rung is legal
// only strictly inside the raise bounds; all-in is legal whenever any raise
// is.
func (n *Node) LegalActions() []bool {
	out := make([]bool, n.tree.NumActions())
	rs, ok := n.round()
	if !ok || n.Type() != solver.DecisionNode {
		return out
	}
	legal := rs.LegalActions()
	out[Fold] = legal.Has(game.Fold)
	out[Call] = legal.Has(game.Call)
	out[Check] = legal.Has(game.Check)
	if legal.Has(game.Raise) {
		out[AllIn] = true
		lo, hi := rs.RaiseBounds()
		for i, amt := range n.tree.cfg.Raises {
			out[FirstRaise+i] = lo < amt && amt < hi
		}
	}
	return out
}

// ActionOutcome applies an abstract action. Requesting an action that is not
// legal is a caller bug and fails with ErrIllegalAction.
func (n *Node) ActionOutcome(action int) (solver.Node, error) {
	return n.Act(action)
}

// Act is ActionOutcome returning the concrete node type.
func (n *Node) Act(action int) (*Node, error) {
	if n.Type() != solver.DecisionNode {
		return nil, fmt.Errorf("%w: action on %s node", ErrWrongNodeType, n.Type())
	}
	legal := n.LegalActions()
	if action < 0 || action >= len(legal) || !legal[action] {
		return nil, fmt.Errorf("%w: %d", ErrIllegalAction, action)
	}
	rs, _ := n.round()

	if action == Call && rs.Button == 0 {
		return n.child(n.completeBlinds(rs)), nil
	}

	var (
		next game.State
		err  error
	)
	switch action {
	case Fold:
		next, err = rs.Proceed(game.Fold, 0)
	case Call:
		next, err = rs.Proceed(game.Call, 0)
	case Check:
		next, err = rs.Proceed(game.Check, 0)
	case AllIn:
		_, hi := rs.RaiseBounds()
		next, err = rs.Proceed(game.Raise, hi)
	default:
		next, err = rs.Proceed(game.Raise, n.tree.cfg.Raises[action-FirstRaise])
	}
	if err != nil {
		return nil, err
	}
	return n.child(next), nil
}

// completeBlinds skips the big blind's preflop option after a limp: both
// players sit on a big blind and the flop is due.
func (n *Node) completeBlinds(rs *game.RoundState) *game.RoundState {
	e := n.tree.cfg.Engine
	next := *rs
	next.Button = 1
	next.Street = game.Flop
	next.Pips = [2]int{e.BigBlind, e.BigBlind}
	next.Stacks = [2]int{e.StartingStack - e.BigBlind, e.StartingStack - e.BigBlind}
	next.Previous = rs
	return &next
}

// ChanceOutcome samples the community cards for the pending street: three on
// the flop and one afterwards. The big blind acts first on the new node.
func (n *Node) ChanceOutcome() (solver.Node, error) {
	return n.Reveal()
}

// Reveal is ChanceOutcome returning the concrete node type.
func (n *Node) Reveal() (*Node, error) {
	if n.Type() != solver.ChanceNode {
		return nil, fmt.Errorf("%w: chance outcome on %s node", ErrWrongNodeType, n.Type())
	}
	rs, _ := n.round()
	need := rs.Street - len(rs.Board)

	var cards []deck.Card
	if n.fixedBoard != nil {
		cards = n.fixedBoard[len(rs.Board):rs.Street]
	} else {
		known := make([]deck.Card, 0, 4+len(rs.Board))
		known = append(known, rs.Hands[0][0], rs.Hands[0][1], rs.Hands[1][0], rs.Hands[1][1])
		known = append(known, rs.Board...)
		cards = deck.NewDeckWithout(n.rng, known...).DealN(need)
	}
	return n.child(rs.Reveal(cards...)), nil
}

func (n *Node) child(s game.State) *Node {
	return &Node{
		tree:       n.tree,
		state:      s,
		parent:     n,
		rng:        n.rng,
		fixedBoard: n.fixedBoard,
	}
}

// PlayerInfo returns the information set key of player at this node.
func (n *Node) PlayerInfo(player int) (infoset.Key, error) {
	rs, ok := n.round()
	if !ok {
		return infoset.Key{}, fmt.Errorf("%w: info set of terminal node", ErrWrongNodeType)
	}
	if player != 0 && player != 1 {
		return infoset.Key{}, fmt.Errorf("player must be 0 or 1, got %d", player)
	}
	b, err := n.tree.oracle.Bucket(rs.Hands[player][:], rs.Board, rs.Bounties[player])
	if err != nil {
		return infoset.Key{}, fmt.Errorf("bucket player %d: %w", player, err)
	}
	return infoset.New(b, rs.Stacks[player], rs.Stacks[1-player]), nil
}

// InfoSetKey returns the canonical string of PlayerInfo.
func (n *Node) InfoSetKey(player int) (string, error) {
	k, err := n.PlayerInfo(player)
	if err != nil {
		return "", err
	}
	return k.String(), nil
}

// Utility returns player's chip delta at a terminal node, bounty adjustments
// included, and 0 elsewhere.
func (n *Node) Utility(player int) float64 {
	t, ok := n.state.(*game.TerminalState)
	if !ok {
		return 0
	}
	n.payoutOnce.Do(func() {
		n.payout = n.tree.settle(t)
	})
	if player == 0 {
		return float64(n.payout)
	}
	return float64(-n.payout)
}

func (n *Node) String() string {
	var sb strings.Builder
	switch s := n.state.(type) {
	case *game.TerminalState:
		fmt.Fprintf(&sb, "terminal %s", s)
		if s.Showdown() {
			for seat := range 2 {
				if d, err := evaluator.Describe(showdownCards(s.Previous, seat)); err == nil {
					fmt.Fprintf(&sb, " seat %d: %s", seat, d)
				}
			}
		}
	case *game.RoundState:
		fmt.Fprintf(&sb, "%s %s", n.Type(), s)
	}
	return sb.String()
}
