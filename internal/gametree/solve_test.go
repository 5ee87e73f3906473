package gametree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bountycfr/internal/game"
	"github.com/lox/bountycfr/internal/infoset"
	"github.com/lox/bountycfr/internal/solver"
)

func shortStackConfig() Config {
	cfg := DefaultConfig()
	cfg.Engine = game.Engine{StartingStack: 20, SmallBlind: 1, BigBlind: 2}
	cfg.Raises = []int{6}
	return cfg
}

func TestTrainersSolveShortStackGame(t *testing.T) {
	tree := newTestTree(t, shortStackConfig())
	cfg := solver.DefaultTrainingConfig()
	cfg.Iterations = 20
	cfg.Seed = 5
	cfg.Workers = 4
	cfg.ProgressEvery = 0

	seq, err := solver.NewTrainer(tree, cfg)
	require.NoError(t, err)
	require.NoError(t, seq.Solve(context.Background(), cfg.Iterations, nil))

	par, err := solver.NewParallelTrainer(tree, cfg)
	require.NoError(t, err)
	require.NoError(t, par.Solve(context.Background(), cfg.Iterations, nil))

	seqTables, parTables := seq.Tables(), par.Tables()
	require.NotZero(t, seqTables.Len())
	// deals and chance draws depend only on the seed, and every legal action is
	// expanded, so both engines visit the same info sets
	assert.Equal(t, seqTables.Keys(), parTables.Keys())

	for _, tables := range []*solver.Tables{seqTables, parTables} {
		require.NoError(t, tables.Validate())
		assert.Equal(t, tree.NumActions(), tables.Width)
		for _, key := range tables.Keys() {
			k, err := infoset.Parse(key)
			require.NoError(t, err, key)
			assert.Equal(t, key, k.String())
			assert.LessOrEqual(t, k.MyStack, infoset.MaxStackBucket)
			assert.LessOrEqual(t, k.OppStack, infoset.MaxStackBucket)
			assertRegretMatched(t, key, tables.Regret[key], tables.Profile[key])
		}
	}
}

// assertRegretMatched checks that profile is a distribution and, when its
// support carries positive regret, that it is proportional to that regret.
func assertRegretMatched(t *testing.T, key string, regret, profile []float64) {
	t.Helper()
	total, positive := 0.0, 0.0
	for a, p := range profile {
		assert.GreaterOrEqual(t, p, 0.0, key)
		total += p
		if p > 0 && regret[a] > 0 {
			positive += regret[a]
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9, key)
	if positive == 0 {
		return
	}
	for a, p := range profile {
		if p > 0 {
			assert.InDelta(t, max(regret[a], 0)/positive, p, 1e-9, "%s action %d", key, a)
		}
	}
}
