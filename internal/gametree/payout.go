package gametree

import (
	"math"

	"github.com/lox/bountycfr/internal/deck"
	"github.com/lox/bountycfr/internal/game"
)

const splitPot = 2

// settle returns seat 0's bounty adjusted delta for a finished hand.
func (t *Tree) settle(term *game.TerminalState) int {
	prev := term.Previous
	winner := splitPot
	if term.Showdown() {
		s0 := t.eval.Evaluate(showdownCards(prev, 0))
		s1 := t.eval.Evaluate(showdownCards(prev, 1))
		switch {
		case s0 > s1:
			winner = 0
		case s1 > s0:
			winner = 1
		}
	} else if term.Deltas[0] > 0 {
		winner = 0
	} else {
		winner = 1
	}
	return t.cfg.bountyDelta(winner, prev)
}

func showdownCards(s *game.RoundState, seat int) []deck.Card {
	cards := make([]deck.Card, 0, 7)
	cards = append(cards, s.Hands[seat][0], s.Hands[seat][1])
	return append(cards, s.Board...)
}

// bountyDelta applies the bounty rules to the pot won by winner (0, 1 or
// splitPot) as seen from seat 0. A split only happens with equal stacks.
// Fractional results round toward the button: down on even counts, up on odd.
func (c Config) bountyDelta(winner int, prev *game.RoundState) int {
	start := float64(c.Engine.StartingStack)
	hits := prev.BountyHits()

	var delta float64
	switch winner {
	case splitPot:
		delta = start - float64(prev.Stacks[0])
		bonus := delta*(c.BountyRatio-1)/2 + c.BountyConstant
		switch {
		case hits[0] && !hits[1]:
			delta = bonus
		case hits[1] && !hits[0]:
			delta = -bonus
		default:
			delta = 0
		}
	case 0:
		delta = start - float64(prev.Stacks[1])
		if hits[0] {
			delta = delta*c.BountyRatio + c.BountyConstant
		}
	default:
		delta = float64(prev.Stacks[0]) - start
		if hits[1] {
			delta = delta*c.BountyRatio - c.BountyConstant
		}
	}
	return roundTowardButton(delta, prev.Button)
}

func roundTowardButton(delta float64, button int) int {
	if r := math.Round(delta); math.Abs(delta-r) <= 1e-6 {
		return int(r)
	}
	if button%2 == 0 {
		return int(math.Floor(delta))
	}
	return int(math.Ceil(delta))
}
