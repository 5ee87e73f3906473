// Package evaluator scores hold'em hands.
package evaluator

import (
	"fmt"

	poker "github.com/paulhankin/poker"

	"github.com/lox/bountycfr/internal/deck"
)

// HandEvaluator scores 5 to 7 card hands. Larger scores are stronger, equal
// scores tie.
type HandEvaluator interface {
	Evaluate(cards []deck.Card) int
	MaxScore() int
}

// PaulHankin evaluates hands with github.com/paulhankin/poker. The zero value
// is ready to use and safe for concurrent callers.
type PaulHankin struct{}

var _ HandEvaluator = PaulHankin{}

// MaxScore returns the score of the strongest possible hand.
func (PaulHankin) MaxScore() int {
	return int(poker.ScoreMax)
}

// Evaluate returns the score of the best five card hand within cards. It
// panics on fewer than five or more than seven cards, which is always a
// caller bug.
func (PaulHankin) Evaluate(cards []deck.Card) int {
	pcs := make([]poker.Card, len(cards))
	for i, c := range cards {
		pcs[i] = toPH(c)
	}
	switch len(pcs) {
	case 7:
		var a7 [7]poker.Card
		copy(a7[:], pcs)
		return int(poker.Eval7(&a7))
	case 6:
		return bestOfSix(pcs)
	case 5:
		var a5 [5]poker.Card
		copy(a5[:], pcs)
		return int(poker.Eval5(&a5))
	default:
		panic(fmt.Sprintf("evaluator: cannot score %d cards", len(cards)))
	}
}

// bestOfSix drops each card in turn and keeps the strongest remaining five.
func bestOfSix(pcs []poker.Card) int {
	best := -1
	var five [5]poker.Card
	for skip := 0; skip < 6; skip++ {
		j := 0
		for i, c := range pcs {
			if i == skip {
				continue
			}
			five[j] = c
			j++
		}
		if s := int(poker.Eval5(&five)); s > best {
			best = s
		}
	}
	return best
}

// Library ranks run 1..13 with the ace as 1.
func toPH(c deck.Card) poker.Card {
	var s poker.Suit
	switch c.Suit {
	case deck.Clubs:
		s = poker.Club
	case deck.Diamonds:
		s = poker.Diamond
	case deck.Hearts:
		s = poker.Heart
	default:
		s = poker.Spade
	}
	r := poker.Rank(c.Rank)
	if c.Rank == deck.Ace {
		r = poker.Rank(1)
	}
	card, err := poker.MakeCard(s, r)
	if err != nil {
		panic(fmt.Sprintf("evaluator: convert %s: %v", c, err))
	}
	return card
}

// Describe returns a readable name for the best hand in cards.
func Describe(cards []deck.Card) (string, error) {
	pcs := make([]poker.Card, len(cards))
	for i, c := range cards {
		pcs[i] = toPH(c)
	}
	return poker.Describe(pcs)
}
