package solver

import (
	rand "math/rand/v2"
)

// NodeType classifies a game tree node.
type NodeType uint8

const (
	DecisionNode NodeType = iota
	ChanceNode
	TerminalNode
)

func (t NodeType) String() string {
	switch t {
	case DecisionNode:
		return "decision"
	case ChanceNode:
		return "chance"
	case TerminalNode:
		return "terminal"
	default:
		return "unknown"
	}
}

// Node is one immutable position in a two player game tree.
//
// Decision nodes expose an info set key for the player to act and a fixed
// width legality mask. Chance nodes sample exactly one outcome per call.
// Terminal nodes report a zero-sum utility.
type Node interface {
	Type() NodeType
	ActivePlayer() int
	InfoSetKey(player int) (string, error)
	LegalActions() []bool
	ActionOutcome(action int) (Node, error)
	ChanceOutcome() (Node, error)
	Utility(player int) float64
}

// Game creates root nodes for self-play traversals.
type Game interface {
	// NumActions is the width of every legality mask and table row.
	NumActions() int
	// InitialNode deals a fresh hand. Randomness for the whole traversal,
	// chance nodes included, comes from rng.
	InitialNode(rng *rand.Rand, startingPlayer int) (Node, error)
}
