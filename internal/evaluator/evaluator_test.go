package evaluator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bountycfr/internal/deck"
)

func TestEvaluateOrdersHands(t *testing.T) {
	eval := PaulHankin{}
	tests := []struct {
		name   string
		strong string
		weak   string
	}{
		{"flush beats straight", "AhKh9h4h2h7c8d", "9s8d7c6h5s2d3c"},
		{"pair beats high card", "AsAd7c5h3s9dJc", "AsKd7c5h3s9dJc"},
		{"quads beat full house", "9s9d9c9hKsKd2c", "9s9d9cKhKsKd2c"},
		{"six cards", "AsAdAc7h3s9d", "KsKdKc7h3s9d"},
		{"five cards", "AsKsQsJsTs", "AsKsQsJs9s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strong := eval.Evaluate(deck.MustParseCards(tt.strong))
			weak := eval.Evaluate(deck.MustParseCards(tt.weak))
			assert.Greater(t, strong, weak)
			assert.LessOrEqual(t, strong, eval.MaxScore())
		})
	}
}

func TestEvaluateTieOnSharedBoard(t *testing.T) {
	eval := PaulHankin{}
	board := deck.MustParseCards("AsKdQcJhTs")
	a := append(deck.MustParseCards("2c3d"), board...)
	b := append(deck.MustParseCards("2h4s"), board...)
	assert.Equal(t, eval.Evaluate(a), eval.Evaluate(b))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		cards string
		want  Category
	}{
		{"AsKd7c5h3s", HighCard},
		{"AsAd7c5h3s", OnePair},
		{"AsAd7c7h3s", TwoPair},
		{"AsAdAc7h3s", ThreeOfAKind},
		{"As2d3c4h5s", Straight},
		{"Ts Jd Qc Kh As", Straight},
		{"2h7h9hJhKh", Flush},
		{"AsAdAc7h7s", FullHouse},
		{"AsAdAcAh7s", FourOfAKind},
		{"5h6h7h8h9h2c", StraightFlush},
		{"AsAdAc7h7s7d2c", FullHouse},
		{"9s8d7c6h4s", HighCard},
	}
	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(deck.MustParseCards(tt.cards)))
		})
	}
}

func TestEstimateEquity(t *testing.T) {
	ctx := context.Background()
	eval := PaulHankin{}

	aces, err := EstimateEquity(ctx, eval, deck.MustParseCards("AsAh"), nil, 2000, 4, 1)
	require.NoError(t, err)
	trash, err := EstimateEquity(ctx, eval, deck.MustParseCards("7c2d"), nil, 2000, 4, 1)
	require.NoError(t, err)

	assert.InDelta(t, 0.85, aces, 0.05)
	assert.Less(t, trash, 0.45)

	again, err := EstimateEquity(ctx, eval, deck.MustParseCards("AsAh"), nil, 2000, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, aces, again, "same seed should reproduce the estimate")
}

func TestEstimateEquityRiverNuts(t *testing.T) {
	equity, err := EstimateEquity(context.Background(), PaulHankin{},
		deck.MustParseCards("AsKs"), deck.MustParseCards("QsJsTs2d3c"), 200, 2, 9)
	require.NoError(t, err)
	assert.Equal(t, 1.0, equity)
}

func TestEstimateEquityRejectsBadInput(t *testing.T) {
	_, err := EstimateEquity(context.Background(), PaulHankin{}, deck.MustParseCards("As"), nil, 10, 1, 1)
	assert.Error(t, err)
}
