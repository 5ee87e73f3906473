package game

import (
	"fmt"

	"github.com/lox/bountycfr/internal/deck"
)

// State is either a *RoundState or a *TerminalState.
type State interface {
	IsTerminal() bool
}

// RoundState is a betting position inside a hand.
type RoundState struct {
	Engine         Engine
	SmallBlindSeat int
	Button         int
	Street         int
	Pips           [2]int
	Stacks         [2]int
	Hands          [2][2]deck.Card
	Bounties       [2]deck.Rank
	Board          []deck.Card
	Previous       *RoundState
}

// TerminalState ends a hand. BountyHits is nil after a showdown; the payout
// is then decided by comparing hands on Previous.
type TerminalState struct {
	Deltas     [2]int
	BountyHits *[2]bool
	Previous   *RoundState
}

// IsTerminal reports false; a RoundState always has a seat to act.
func (s *RoundState) IsTerminal() bool { return false }

// IsTerminal reports true.
func (t *TerminalState) IsTerminal() bool { return true }

// Showdown reports whether the hand ended without a fold.
func (t *TerminalState) Showdown() bool { return t.BountyHits == nil }

// NewRound posts the blinds with smallBlindSeat on the button.
func (e Engine) NewRound(smallBlindSeat int, hands [2][2]deck.Card, bounties [2]deck.Rank) *RoundState {
	s := &RoundState{
		Engine:         e,
		SmallBlindSeat: smallBlindSeat,
		Street:         Preflop,
		Hands:          hands,
		Bounties:       bounties,
	}
	bb := 1 - smallBlindSeat
	s.Pips[smallBlindSeat] = e.SmallBlind
	s.Pips[bb] = e.BigBlind
	s.Stacks[smallBlindSeat] = e.StartingStack - e.SmallBlind
	s.Stacks[bb] = e.StartingStack - e.BigBlind
	return s
}

// Active returns the seat to act.
func (s *RoundState) Active() int {
	return (s.SmallBlindSeat + s.Button) % 2
}

// ContinueCost returns the chips the active seat needs to call.
func (s *RoundState) ContinueCost() int {
	a := s.Active()
	return s.Pips[1-a] - s.Pips[a]
}

// LegalActions returns the actions available to the active seat.
func (s *RoundState) LegalActions() ActionSet {
	a := s.Active()
	cost := s.ContinueCost()
	if cost == 0 {
		if s.Stacks[0] == 0 || s.Stacks[1] == 0 {
			return NewActionSet(Check)
		}
		return NewActionSet(Check, Raise)
	}
	if cost >= s.Stacks[a] || s.Stacks[1-a] == 0 {
		return NewActionSet(Fold, Call)
	}
	return NewActionSet(Fold, Call, Raise)
}

// RaiseBounds returns the smallest and largest legal raise-to totals.
func (s *RoundState) RaiseBounds() (minRaise, maxRaise int) {
	a := s.Active()
	cost := s.ContinueCost()
	maxContribution := min(s.Stacks[a], s.Stacks[1-a]+cost)
	minContribution := min(maxContribution, cost+max(cost, s.Engine.BigBlind))
	return s.Pips[a] + minContribution, s.Pips[a] + maxContribution
}

// BountyHits reports, per seat, whether the seat's bounty rank appears in its
// hole cards or on the board.
func (s *RoundState) BountyHits() [2]bool {
	var hits [2]bool
	for seat := 0; seat < 2; seat++ {
		hits[seat] = deck.ContainsRank(s.Hands[seat][:], s.Bounties[seat]) ||
			deck.ContainsRank(s.Board, s.Bounties[seat])
	}
	return hits
}

// ProceedStreet closes the current street. After the river it returns the
// showdown terminal state.
func (s *RoundState) ProceedStreet() State {
	if s.Street == River {
		return &TerminalState{Previous: s}
	}
	next := s.child()
	next.Button = 1
	next.Pips = [2]int{}
	if s.Street == Preflop {
		next.Street = Flop
	} else {
		next.Street = s.Street + 1
	}
	return next
}

// Proceed applies action for the active seat. amount is the raise-to total
// and is ignored for other actions.
func (s *RoundState) Proceed(action Action, amount int) (State, error) {
	if !s.LegalActions().Has(action) {
		return nil, fmt.Errorf("%w: %s with legal %s", ErrIllegalAction, action, s.LegalActions())
	}
	a := s.Active()

	switch action {
	case Fold:
		loss := s.Engine.StartingStack - s.Stacks[a]
		var deltas [2]int
		deltas[a] = -loss
		deltas[1-a] = loss
		hits := s.BountyHits()
		return &TerminalState{Deltas: deltas, BountyHits: &hits, Previous: s}, nil

	case Call:
		next := s.child()
		contribution := s.Pips[1-a] - s.Pips[a]
		next.Stacks[a] -= contribution
		next.Pips[a] += contribution
		if s.Button == 0 {
			// small blind completes; the big blind keeps its option
			next.Button = 1
			return next, nil
		}
		next.Button = s.Button + 1
		return next.ProceedStreet(), nil

	case Check:
		if (s.Street == Preflop && s.Button > 0) || s.Button > 1 {
			return s.ProceedStreet(), nil
		}
		next := s.child()
		next.Button = s.Button + 1
		return next, nil

	default:
		lo, hi := s.RaiseBounds()
		if amount < lo || amount > hi {
			return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidRaise, amount, lo, hi)
		}
		next := s.child()
		contribution := amount - s.Pips[a]
		next.Stacks[a] -= contribution
		next.Pips[a] += contribution
		next.Button = s.Button + 1
		return next, nil
	}
}

// Reveal returns the state after community cards are dealt for the current
// street. The big blind acts first.
func (s *RoundState) Reveal(cards ...deck.Card) *RoundState {
	next := s.child()
	next.Button = 1
	next.Board = make([]deck.Card, 0, len(s.Board)+len(cards))
	next.Board = append(append(next.Board, s.Board...), cards...)
	return next
}

// child copies s with Previous pointing back at s.
func (s *RoundState) child() *RoundState {
	next := *s
	next.Previous = s
	return &next
}

// String renders the state for debugging.
func (s *RoundState) String() string {
	return fmt.Sprintf("active=%d button=%d street=%d pips=%v stacks=%v hands=%v bounties=%v board=%v",
		s.Active(), s.Button, s.Street, s.Pips, s.Stacks, s.Hands, s.Bounties, s.Board)
}

func (t *TerminalState) String() string {
	if t.BountyHits == nil {
		return fmt.Sprintf("showdown deltas=%v", t.Deltas)
	}
	return fmt.Sprintf("fold deltas=%v bounty_hits=%v", t.Deltas, *t.BountyHits)
}
