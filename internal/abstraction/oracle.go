// Package abstraction maps concrete hands to the coarse buckets used as
// information set features.
package abstraction

import (
	"errors"
	"fmt"

	"github.com/lox/bountycfr/internal/deck"
	"github.com/lox/bountycfr/internal/evaluator"
)

// ErrHandSize is returned for a visible card count that is not a street.
var ErrHandSize = errors.New("hand must have 2, 5, 6 or 7 cards")

// NumStrengthBuckets is the number of strength deciles per street. Draw
// buckets sit directly above them.
const NumStrengthBuckets = 10

// Buckets is the per-street abstraction of one player's view. Streets not yet
// reached stay zero.
type Buckets struct {
	Bounty  int
	Preflop int
	Flop    int
	Turn    int
	River   int
}

// Oracle maps visible cards to buckets. Buckets carry no betting history, so
// nodes with different pips and legal actions can share a key; the solver
// restricts each stored profile to the legal actions of the node it visits.
type Oracle interface {
	Bucket(hole, board []deck.Card, bounty deck.Rank) (Buckets, error)
	HoleWinrate(r1, r2 deck.Rank, suited bool) float64
}

// StrengthOracle buckets preflop hands by win-rate decile and postflop hands
// by evaluator score decile, with weak hands holding a straight or flush draw
// split out into their own buckets.
type StrengthOracle struct {
	winrates *WinrateTable
	eval     evaluator.HandEvaluator
}

var _ Oracle = (*StrengthOracle)(nil)

// NewStrengthOracle builds an oracle over a hole card win-rate table.
func NewStrengthOracle(winrates *WinrateTable, eval evaluator.HandEvaluator) *StrengthOracle {
	return &StrengthOracle{winrates: winrates, eval: eval}
}

// HoleWinrate returns the table win rate for a starting hand class.
func (o *StrengthOracle) HoleWinrate(r1, r2 deck.Rank, suited bool) float64 {
	return o.winrates.Lookup(r1, r2, suited)
}

// Bucket computes the buckets for hole plus board.
func (o *StrengthOracle) Bucket(hole, board []deck.Card, bounty deck.Rank) (Buckets, error) {
	if len(hole) != 2 {
		return Buckets{}, fmt.Errorf("%w: %d hole cards", ErrHandSize, len(hole))
	}
	visible := make([]deck.Card, 0, 7)
	visible = append(append(visible, hole...), board...)
	switch len(visible) {
	case 2, 5, 6, 7:
	default:
		return Buckets{}, fmt.Errorf("%w: got %d", ErrHandSize, len(visible))
	}

	var b Buckets
	if deck.ContainsRank(visible, bounty) {
		b.Bounty = 1
	}

	wr := o.HoleWinrate(hole[0].Rank, hole[1].Rank, hole[0].Suit == hole[1].Suit)
	b.Preflop = decile(wr)

	if len(visible) >= 5 {
		b.Flop = o.postflopBucket(visible[:5], true)
	}
	if len(visible) >= 6 {
		b.Turn = o.postflopBucket(visible[:6], true)
	}
	if len(visible) == 7 {
		b.River = o.postflopBucket(visible, false)
	}
	return b, nil
}

func (o *StrengthOracle) postflopBucket(cards []deck.Card, withDraws bool) int {
	if withDraws {
		if p := DrawPotential(cards); p != NoDraw {
			return NumStrengthBuckets + int(p)
		}
	}
	score := float64(o.eval.Evaluate(cards)) / float64(o.eval.MaxScore())
	return decile(score)
}

// decile maps a fraction in [0,1] to 1..10; the upper edge of each tenth is
// inclusive.
func decile(x float64) int {
	for i := 1; i <= NumStrengthBuckets; i++ {
		if x <= float64(i)/NumStrengthBuckets {
			return i
		}
	}
	return NumStrengthBuckets
}
