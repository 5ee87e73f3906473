package abstraction

import (
	"github.com/lox/bountycfr/internal/deck"
	"github.com/lox/bountycfr/internal/evaluator"
)

// Potential classifies a weak made hand that can still improve to a straight
// or flush with one more card.
type Potential int

const (
	NoDraw Potential = iota
	HighCardDraw
	PairDraw
)

// drawProbes is the full deck; cards already in the hand are skipped.
var drawProbes = func() []deck.Card {
	out := make([]deck.Card, 0, deck.NumRanks*4)
	for s := deck.Spades; s <= deck.Clubs; s++ {
		for _, r := range deck.Ranks() {
			out = append(out, deck.NewCard(s, r))
		}
	}
	return out
}()

// DrawPotential reports whether a high card or one pair hand becomes a
// straight or flush with any single unseen card.
func DrawPotential(cards []deck.Card) Potential {
	made := evaluator.Categorize(cards)
	if made != evaluator.HighCard && made != evaluator.OnePair {
		return NoDraw
	}
	var seen [52]bool
	for _, c := range cards {
		seen[c.Index()] = true
	}
	probe := make([]deck.Card, len(cards)+1)
	copy(probe, cards)
	for _, c := range drawProbes {
		if seen[c.Index()] {
			continue
		}
		probe[len(cards)] = c
		switch evaluator.Categorize(probe) {
		case evaluator.Straight, evaluator.Flush, evaluator.StraightFlush:
			if made == evaluator.OnePair {
				return PairDraw
			}
			return HighCardDraw
		}
	}
	return NoDraw
}
