package deck

import (
	rand "math/rand/v2"
)

// Deck represents a deck of playing cards
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a full 52 card deck drawing randomness from rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.fill()
	return d
}

// NewDeckWithout returns a shuffled deck holding every card not in known.
func NewDeckWithout(rng *rand.Rand, known ...Card) *Deck {
	d := NewDeck(rng)
	d.Remove(known...)
	d.Shuffle()
	return d
}

func (d *Deck) fill() {
	d.cards = d.cards[:0]
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
}

// Remove drops the given cards from the deck, ignoring cards it does not hold.
func (d *Deck) Remove(cards ...Card) {
	if len(cards) == 0 {
		return
	}
	var drop [52]bool
	for _, c := range cards {
		if c.Valid() {
			drop[c.Index()] = true
		}
	}
	kept := d.cards[:0]
	for _, c := range d.cards {
		if !drop[c.Index()] {
			kept = append(kept, c)
		}
	}
	d.cards = kept
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top card from the deck
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals up to n cards from the deck.
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}
