package evaluator

import "github.com/lox/bountycfr/internal/deck"

// Category is the class of a made hand, weakest first.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (c Category) String() string {
	return [...]string{
		"high card", "pair", "two pair", "three of a kind", "straight",
		"flush", "full house", "four of a kind", "straight flush",
	}[c]
}

// Categorize classifies the best hand that can be made from cards.
func Categorize(cards []deck.Card) Category {
	var rankCount [15]int
	var suitCount [4]int
	var suitRanks [4]uint16
	var rankBits uint16
	for _, c := range cards {
		rankCount[c.Rank]++
		suitCount[c.Suit]++
		suitRanks[c.Suit] |= 1 << c.Rank
		rankBits |= 1 << c.Rank
	}

	flushSuit := -1
	for s, n := range suitCount {
		if n >= 5 {
			flushSuit = s
		}
	}
	if flushSuit >= 0 && hasStraight(suitRanks[flushSuit]) {
		return StraightFlush
	}

	var pairs, trips, quads int
	for r := deck.Two; r <= deck.Ace; r++ {
		switch {
		case rankCount[r] >= 4:
			quads++
		case rankCount[r] == 3:
			trips++
		case rankCount[r] == 2:
			pairs++
		}
	}

	switch {
	case quads > 0:
		return FourOfAKind
	case trips > 1 || (trips == 1 && pairs > 0):
		return FullHouse
	case flushSuit >= 0:
		return Flush
	case hasStraight(rankBits):
		return Straight
	case trips == 1:
		return ThreeOfAKind
	case pairs > 1:
		return TwoPair
	case pairs == 1:
		return OnePair
	default:
		return HighCard
	}
}

// hasStraight looks for five consecutive rank bits; the ace also plays low.
func hasStraight(bits uint16) bool {
	if bits&(1<<deck.Ace) != 0 {
		bits |= 1 << 1
	}
	const five = 0x1f
	for low := 1; low <= int(deck.Ten); low++ {
		if (bits>>low)&five == five {
			return true
		}
	}
	return false
}
