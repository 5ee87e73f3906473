package gametree

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/bountycfr/internal/abstraction"
	"github.com/lox/bountycfr/internal/deck"
	"github.com/lox/bountycfr/internal/evaluator"
	"github.com/lox/bountycfr/internal/solver"
)

// Tree is the bounty hold'em game. It is immutable and safe to share across
// traversals running in parallel.
type Tree struct {
	cfg    Config
	eval   evaluator.HandEvaluator
	oracle abstraction.Oracle
}

var _ solver.Game = (*Tree)(nil)

// New validates cfg and returns a tree using eval for showdowns and oracle for
// information set buckets.
func New(cfg Config, eval evaluator.HandEvaluator, oracle abstraction.Oracle) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eval == nil || oracle == nil {
		return nil, fmt.Errorf("gametree: evaluator and oracle are required")
	}
	return &Tree{cfg: cfg, eval: eval, oracle: oracle}, nil
}

// Config returns the game configuration.
func (t *Tree) Config() Config { return t.cfg }

// NumActions returns the width of the abstract action space.
func (t *Tree) NumActions() int { return t.cfg.NumActions() }

// ActionNames labels the abstract actions for exported tables.
func (t *Tree) ActionNames() []string { return t.cfg.ActionNames() }

// InitialNode deals two hole cards to each player and draws a bounty rank per
// player. startingPlayer posts the small blind.
func (t *Tree) InitialNode(rng *rand.Rand, startingPlayer int) (solver.Node, error) {
	return t.Deal(rng, startingPlayer)
}

// Deal is InitialNode returning the concrete node type.
func (t *Tree) Deal(rng *rand.Rand, startingPlayer int) (*Node, error) {
	if startingPlayer != 0 && startingPlayer != 1 {
		return nil, fmt.Errorf("starting player must be 0 or 1, got %d", startingPlayer)
	}
	bounties := [2]deck.Rank{randomRank(rng), randomRank(rng)}
	d := deck.NewDeck(rng)
	d.Shuffle()
	c := d.DealN(4)
	hands := [2][2]deck.Card{{c[0], c[1]}, {c[2], c[3]}}
	return t.root(rng, startingPlayer, hands, bounties, nil), nil
}

// DealFixed starts a hand from known cards. board is empty or holds the five
// cards the streets will reveal in order; an empty board is sampled from rng.
func (t *Tree) DealFixed(rng *rand.Rand, startingPlayer int, hands [2][2]deck.Card, board []deck.Card, bounties [2]deck.Rank) (*Node, error) {
	if startingPlayer != 0 && startingPlayer != 1 {
		return nil, fmt.Errorf("starting player must be 0 or 1, got %d", startingPlayer)
	}
	if len(board) != 0 && len(board) != 5 {
		return nil, fmt.Errorf("fixed board must have 0 or 5 cards, got %d", len(board))
	}
	if rng == nil && len(board) == 0 {
		return nil, errors.New("a sampled board needs an rng")
	}
	var seen [52]bool
	all := append([]deck.Card{hands[0][0], hands[0][1], hands[1][0], hands[1][1]}, board...)
	for _, c := range all {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %v", deck.ErrInvalidCard, c)
		}
		if seen[c.Index()] {
			return nil, fmt.Errorf("card %s dealt twice", c)
		}
		seen[c.Index()] = true
	}
	for i, b := range bounties {
		if b < deck.Two || b > deck.Ace {
			return nil, fmt.Errorf("bounty %d is not a rank", i)
		}
	}
	var fixed []deck.Card
	if len(board) == 5 {
		fixed = append(fixed, board...)
	}
	return t.root(rng, startingPlayer, hands, bounties, fixed), nil
}

func (t *Tree) root(rng *rand.Rand, startingPlayer int, hands [2][2]deck.Card, bounties [2]deck.Rank, board []deck.Card) *Node {
	return &Node{
		tree:       t,
		state:      t.cfg.Engine.NewRound(startingPlayer, hands, bounties),
		rng:        rng,
		fixedBoard: board,
	}
}

func randomRank(rng *rand.Rand) deck.Rank {
	return deck.Two + deck.Rank(rng.IntN(deck.NumRanks))
}
