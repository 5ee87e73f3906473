package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bountycfr/internal/deck"
)

func newTestRound(t *testing.T, sbSeat int) *RoundState {
	t.Helper()
	h0 := deck.MustParseCards("AsKs")
	h1 := deck.MustParseCards("7d2c")
	hands := [2][2]deck.Card{{h0[0], h0[1]}, {h1[0], h1[1]}}
	return DefaultEngine().NewRound(sbSeat, hands, [2]deck.Rank{deck.Ace, deck.Three})
}

func proceed(t *testing.T, s *RoundState, a Action, amount int) State {
	t.Helper()
	next, err := s.Proceed(a, amount)
	require.NoError(t, err)
	return next
}

func TestNewRoundPostsBlinds(t *testing.T) {
	for _, sb := range []int{0, 1} {
		s := newTestRound(t, sb)
		assert.Equal(t, 1, s.Pips[sb])
		assert.Equal(t, 2, s.Pips[1-sb])
		assert.Equal(t, 399, s.Stacks[sb])
		assert.Equal(t, 398, s.Stacks[1-sb])
		assert.Equal(t, sb, s.Active(), "small blind acts first preflop")
		assert.Equal(t, NewActionSet(Fold, Call, Raise), s.LegalActions())
	}
}

func TestRaiseBounds(t *testing.T) {
	s := newTestRound(t, 0)
	lo, hi := s.RaiseBounds()
	assert.Equal(t, 4, lo, "min raise-to is big blind plus one more big blind")
	assert.Equal(t, 400, hi)

	next := proceed(t, s, Raise, 20).(*RoundState)
	assert.Equal(t, 1, next.Active())
	lo, hi = next.RaiseBounds()
	assert.Equal(t, 38, lo)
	assert.Equal(t, 400, hi)
}

func TestSmallBlindCallGivesBigBlindOption(t *testing.T) {
	s := newTestRound(t, 0)
	next := proceed(t, s, Call, 0).(*RoundState)
	assert.Equal(t, Preflop, next.Street)
	assert.Equal(t, [2]int{2, 2}, next.Pips)
	assert.Equal(t, [2]int{398, 398}, next.Stacks)
	assert.Equal(t, 1, next.Active())
	assert.Equal(t, NewActionSet(Check, Raise), next.LegalActions())

	flop := proceed(t, next, Check, 0).(*RoundState)
	assert.Equal(t, Flop, flop.Street)
	assert.Equal(t, [2]int{0, 0}, flop.Pips)
	assert.Empty(t, flop.Board)
}

func TestCheckAroundToShowdown(t *testing.T) {
	s := newTestRound(t, 1)
	st := proceed(t, s, Call, 0).(*RoundState)
	st = proceed(t, st, Check, 0).(*RoundState)

	boards := [][]deck.Card{
		deck.MustParseCards("Qh9c4d"),
		deck.MustParseCards("5s"),
		deck.MustParseCards("Jd"),
	}
	for _, cards := range boards {
		st = st.Reveal(cards...)
		assert.Equal(t, 0, st.Active(), "big blind seat acts first after the flop")
		st = proceed(t, st, Check, 0).(*RoundState)
		assert.Equal(t, 1, st.Active())
		next := proceed(t, st, Check, 0)
		if cards[0] == boards[2][0] {
			term, ok := next.(*TerminalState)
			require.True(t, ok)
			assert.True(t, term.Showdown())
			assert.Len(t, term.Previous.Board, 5)
			return
		}
		st = next.(*RoundState)
	}
	t.Fatal("river check did not reach showdown")
}

func TestFoldDeltasAndBountyHits(t *testing.T) {
	s := newTestRound(t, 0)
	s = proceed(t, s, Raise, 20).(*RoundState)
	term := proceed(t, s, Fold, 0).(*TerminalState)

	assert.False(t, term.Showdown())
	assert.Equal(t, [2]int{2, -2}, term.Deltas)
	assert.Equal(t, [2]bool{true, false}, *term.BountyHits)
}

func TestAllInLeavesOnlyFoldCall(t *testing.T) {
	s := newTestRound(t, 0)
	s = proceed(t, s, Raise, 400).(*RoundState)
	assert.Equal(t, NewActionSet(Fold, Call), s.LegalActions())

	after := proceed(t, s, Call, 0).(*RoundState)
	assert.Equal(t, Flop, after.Street)
	assert.Equal(t, [2]int{0, 0}, after.Stacks)
	assert.Equal(t, NewActionSet(Check), after.Reveal(deck.MustParseCards("2h3h4h")...).LegalActions())
}

func TestProceedRejectsIllegal(t *testing.T) {
	s := newTestRound(t, 0)
	_, err := s.Proceed(Check, 0)
	assert.ErrorIs(t, err, ErrIllegalAction)

	_, err = s.Proceed(Raise, 3)
	assert.ErrorIs(t, err, ErrInvalidRaise)

	_, err = s.Proceed(Raise, 401)
	assert.ErrorIs(t, err, ErrInvalidRaise)
}

func TestChipsAreConserved(t *testing.T) {
	s := newTestRound(t, 0)
	s = proceed(t, s, Raise, 40).(*RoundState)
	s = proceed(t, s, Raise, 120).(*RoundState)
	for seat := 0; seat < 2; seat++ {
		assert.LessOrEqual(t, s.Stacks[seat]+s.Pips[seat], 400)
	}
	assert.Equal(t, 400, s.Stacks[0]+s.Pips[0])
	assert.Equal(t, 400, s.Stacks[1]+s.Pips[1])
}

func TestEngineValidate(t *testing.T) {
	assert.NoError(t, DefaultEngine().Validate())
	assert.Error(t, Engine{StartingStack: 1, SmallBlind: 1, BigBlind: 2}.Validate())
	assert.Error(t, Engine{StartingStack: 10, SmallBlind: 2, BigBlind: 1}.Validate())
}
