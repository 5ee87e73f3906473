package deck

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCard is returned when a card string cannot be parsed.
var ErrInvalidCard = errors.New("invalid card")

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const suitSymbols = "shdc"

// String returns the single letter form used in card strings ("s", "h", "d", "c").
func (s Suit) String() string {
	if s < Spades || s > Clubs {
		return "?"
	}
	return string(suitSymbols[s])
}

// Rank represents a card rank. Aces are high.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// RankSymbols lists every rank symbol from deuce to ace.
const RankSymbols = "23456789TJQKA"

// NumRanks is the number of distinct ranks.
const NumRanks = len(RankSymbols)

// Ranks returns all ranks from Two to Ace.
func Ranks() []Rank {
	out := make([]Rank, 0, NumRanks)
	for r := Two; r <= Ace; r++ {
		out = append(out, r)
	}
	return out
}

func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return string(RankSymbols[r-Two])
}

// ParseRank converts a rank symbol ("2".."9", "T", "J", "Q", "K", "A").
func ParseRank(s string) (Rank, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: rank %q", ErrInvalidCard, s)
	}
	idx := strings.IndexByte(RankSymbols, strings.ToUpper(s)[0])
	if idx < 0 {
		return 0, fmt.Errorf("%w: rank %q", ErrInvalidCard, s)
	}
	return Two + Rank(idx), nil
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the two letter form of the card (e.g. "As", "Td").
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Index returns a dense 0-51 index for the card.
func (c Card) Index() int {
	return int(c.Suit)*NumRanks + int(c.Rank-Two)
}

// Valid reports whether the card has a known rank and suit.
func (c Card) Valid() bool {
	return c.Suit >= Spades && c.Suit <= Clubs && c.Rank >= Two && c.Rank <= Ace
}

// ParseCard parses a two letter card such as "As" or "td".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	rank, err := ParseRank(s[:1])
	if err != nil {
		return Card{}, err
	}
	idx := strings.IndexByte(suitSymbols, strings.ToLower(s[1:])[0])
	if idx < 0 {
		return Card{}, fmt.Errorf("%w: suit in %q", ErrInvalidCard, s)
	}
	return NewCard(Suit(idx), rank), nil
}

// ParseCards parses a concatenated card string such as "AsKd7c".
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %q", ErrInvalidCard, s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for fixtures; it panics on bad input.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// ContainsRank reports whether any card has rank r.
func ContainsRank(cards []Card, r Rank) bool {
	for _, c := range cards {
		if c.Rank == r {
			return true
		}
	}
	return false
}
