// Package game implements the heads-up bounty hold'em betting rules.
//
// A hand is a chain of immutable states. RoundState is a betting position;
// applying an action with Proceed returns the next RoundState or a
// TerminalState once someone folds or the river closes. Every state keeps a
// pointer to the state it came from, so a terminal state can always recover
// the stacks and cards that decide its payout.
//
// # Seats and the button counter
//
// Seats are 0 and 1. SmallBlindSeat names the seat that posted the small
// blind, which is also the button. Within a street Button counts actions:
// preflop the small blind acts at Button 0, and on every later street the big
// blind acts first at Button 1. The seat to act is therefore
// (SmallBlindSeat + Button) % 2.
//
// # Streets
//
// Street holds the number of community cards the street shows: 0, 3, 4 and 5.
// When betting closes the street index advances before the cards exist;
// callers deal them with Reveal.
//
//	e := game.DefaultEngine()
//	s := e.NewRound(0, hands, bounties)
//	next, err := s.Proceed(game.Raise, 20)
package game
