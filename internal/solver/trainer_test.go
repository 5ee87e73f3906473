package solver_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bountycfr/internal/solver"
)

func kuhnConfig(workers int) solver.TrainingConfig {
	cfg := solver.DefaultTrainingConfig()
	cfg.Seed = 42
	cfg.Workers = workers
	cfg.ProgressEvery = 0
	return cfg
}

func solveSequential(t *testing.T, iterations int, cfg solver.TrainingConfig, opts ...solver.Option) *solver.Trainer {
	t.Helper()
	tr, err := solver.NewTrainer(kuhn{}, cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, tr.Solve(context.Background(), iterations, nil))
	return tr
}

func solveParallel(t *testing.T, iterations int, cfg solver.TrainingConfig, opts ...solver.Option) *solver.ParallelTrainer {
	t.Helper()
	tr, err := solver.NewParallelTrainer(kuhn{}, cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, tr.Solve(context.Background(), iterations, nil))
	return tr
}

// Rows where the equilibrium action is pure regardless of the bluffing
// frequency the first player settles on.
var dominatedRows = map[string]int{
	"Kb":  bet,  // king facing a bet calls
	"Jb":  pass, // jack facing a bet folds
	"Jpb": pass, // jack folds after check then bet
}

func TestSequentialConvergesOnKuhn(t *testing.T) {
	tr := solveSequential(t, 2000, kuhnConfig(1))
	eq := tr.Equilibrium()

	assert.Len(t, eq, 12)
	for key, action := range dominatedRows {
		require.Contains(t, eq, key)
		assert.InDelta(t, 1.0, eq[key][action], 0.05, "info set %s: %v", key, eq[key])
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	const iterations = 2000
	seq := solveSequential(t, iterations, kuhnConfig(4)).Equilibrium()
	par := solveParallel(t, iterations, kuhnConfig(4)).Equilibrium()

	require.Len(t, par, len(seq))
	// Kuhn has a one parameter family of equilibria for the first player, so
	// only the dominated rows are compared row by row. The game value is the
	// same for every equilibrium and covers the remaining rows.
	assert.InDelta(t, -1.0/18, kuhnValue(seq), 0.03)
	assert.InDelta(t, -1.0/18, kuhnValue(par), 0.03)
	assert.InDelta(t, kuhnValue(seq), kuhnValue(par), 0.03)
	for key, action := range dominatedRows {
		assert.InDelta(t, 1.0, par[key][action], 0.05, "info set %s: %v", key, par[key])

		l1 := 0.0
		for a := range seq[key] {
			l1 += math.Abs(seq[key][a] - par[key][a])
		}
		assert.Less(t, l1, 0.02, "info set %s: sequential %v parallel %v", key, seq[key], par[key])
	}
}

func TestSequentialIsDeterministic(t *testing.T) {
	a := solveSequential(t, 300, kuhnConfig(1))
	b := solveSequential(t, 300, kuhnConfig(1))
	assert.Equal(t, a.Tables(), b.Tables())
}

func TestEquilibriumRowsAreDistributions(t *testing.T) {
	for name, eq := range map[string]map[string][]float64{
		"sequential": solveSequential(t, 200, kuhnConfig(1)).Equilibrium(),
		"parallel":   solveParallel(t, 200, kuhnConfig(4)).Equilibrium(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, eq)
			for key, row := range eq {
				sum := 0.0
				for _, p := range row {
					assert.GreaterOrEqual(t, p, 0.0)
					sum += p
				}
				if sum != 0 {
					assert.InDelta(t, 1.0, sum, 1e-9, "info set %s", key)
				}
			}
		})
	}
}

func TestProfileIsRegretMatched(t *testing.T) {
	legal := []bool{true, true}
	for name, tables := range map[string]*solver.Tables{
		"sequential": solveSequential(t, 300, kuhnConfig(1)).Tables(),
		"parallel":   solveParallel(t, 300, kuhnConfig(4)).Tables(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tables.Validate())
			for _, key := range tables.Keys() {
				want := solver.RegretMatch(tables.Regret[key], legal)
				assert.InDeltaSlice(t, want, tables.Profile[key], 1e-12, "info set %s", key)
			}
		})
	}
}

type runner interface {
	Solve(ctx context.Context, iterations int, progress func(solver.Progress)) error
}

func TestSolveReportsProgress(t *testing.T) {
	cfg := kuhnConfig(4)
	cfg.ProgressEvery = 50

	for name, newTrainer := range map[string]func() (runner, error){
		"sequential": func() (runner, error) { return solver.NewTrainer(kuhn{}, cfg) },
		"parallel":   func() (runner, error) { return solver.NewParallelTrainer(kuhn{}, cfg) },
	} {
		t.Run(name, func(t *testing.T) {
			tr, err := newTrainer()
			require.NoError(t, err)

			var seen []solver.Progress
			require.NoError(t, tr.Solve(context.Background(), 200, func(p solver.Progress) {
				seen = append(seen, p)
			}))

			require.Len(t, seen, 4)
			for i, p := range seen {
				assert.Equal(t, (i+1)*50, p.Iteration)
				assert.Positive(t, p.Nodes)
				assert.Positive(t, p.Terminals)
				assert.LessOrEqual(t, p.Terminals, p.Nodes)
			}
			last := seen[len(seen)-1]
			assert.Equal(t, 12, last.InfoSets)
			assert.GreaterOrEqual(t, last.RegretMean, 0.0)
			assert.GreaterOrEqual(t, last.RegretStdDev, 0.0)
		})
	}
}

func TestSolveStopsOnCancel(t *testing.T) {
	tr, err := solver.NewTrainer(kuhn{}, kuhnConfig(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, tr.Solve(ctx, 10, nil), context.Canceled)
	assert.Equal(t, 0, tr.Iteration())
}

func TestRegretTraceRecordsEveryUpdate(t *testing.T) {
	cfg := kuhnConfig(1)
	cfg.TraceRegrets = true
	tr := solveSequential(t, 50, cfg)

	trace := tr.Trace()
	require.NotEmpty(t, trace)
	// two legal actions per update
	assert.Zero(t, len(trace)%2)

	path := filepath.Join(t.TempDir(), solver.TraceFile)
	require.NoError(t, solver.WriteTrace(path, trace))
	got, err := solver.ReadTrace(path)
	require.NoError(t, err)
	assert.Equal(t, trace, got)

	untraced := solveSequential(t, 50, kuhnConfig(1))
	assert.Empty(t, untraced.Trace())
}

func TestParallelTraceMergesWorkers(t *testing.T) {
	cfg := kuhnConfig(4)
	cfg.TraceRegrets = true
	seq := solveSequential(t, 100, cfg)
	par := solveParallel(t, 100, cfg)
	assert.Len(t, par.Trace(), len(seq.Trace()))
}

func TestCheckpointOnClockTick(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	cfg := kuhnConfig(2)
	cfg.ProgressEvery = 10
	cfg.CheckpointDir = t.TempDir()
	cfg.CheckpointInterval = time.Minute

	tr, err := solver.NewParallelTrainer(kuhn{}, cfg, solver.WithClock(mClock))
	require.NoError(t, err)

	ticked := false
	require.NoError(t, tr.Solve(ctx, 30, func(p solver.Progress) {
		if !ticked {
			ticked = true
			mClock.Advance(time.Minute).MustWait(ctx)
		}
	}))

	_, manifest, err := solver.LoadCheckpoint(cfg.CheckpointDir)
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, 10, manifest.Iterations)
	assert.Equal(t, tr.RunID(), manifest.RunID)
	assert.Equal(t, []string{"pass", "bet"}, manifest.Actions)
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tr := solveSequential(t, 200, kuhnConfig(1))
	require.NoError(t, tr.SaveCheckpoint(dir))

	for _, name := range []string{solver.RegretFile, solver.StrategyFile, solver.ProfileFile, solver.ManifestFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	tables, manifest, err := solver.LoadCheckpoint(dir)
	require.NoError(t, err)
	assert.Equal(t, tr.Tables(), tables)
	assert.Equal(t, 200, manifest.Iterations)
	assert.Equal(t, int64(42), manifest.Seed)
	assert.Equal(t, tr.RunID(), manifest.RunID)
}

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	dir := t.TempDir()
	first := solveSequential(t, 150, kuhnConfig(1))
	require.NoError(t, first.SaveCheckpoint(dir))

	resumed, err := solver.NewTrainer(kuhn{}, kuhnConfig(1), solver.FromCheckpoint(dir))
	require.NoError(t, err)
	assert.Equal(t, 150, resumed.Iteration())
	assert.Equal(t, first.RunID(), resumed.RunID())
	require.NoError(t, resumed.Solve(context.Background(), 100, nil))

	straight := solveSequential(t, 250, kuhnConfig(1))
	assert.Equal(t, straight.Tables(), resumed.Tables())
}

func TestPartialCheckpointIsRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, solveSequential(t, 20, kuhnConfig(1)).SaveCheckpoint(dir))
	require.NoError(t, os.Remove(filepath.Join(dir, solver.ProfileFile)))

	_, err := solver.NewTrainer(kuhn{}, kuhnConfig(1), solver.FromCheckpoint(dir))
	assert.ErrorIs(t, err, solver.ErrPartialCheckpoint)
	_, err = solver.NewParallelTrainer(kuhn{}, kuhnConfig(2), solver.FromCheckpoint(dir))
	assert.ErrorIs(t, err, solver.ErrPartialCheckpoint)

	_, err = solver.LoadTables(filepath.Join(dir, solver.RegretFile), filepath.Join(dir, solver.StrategyFile), "")
	assert.ErrorIs(t, err, solver.ErrPartialCheckpoint)

	tables, err := solver.LoadTables("", "", "")
	assert.NoError(t, err)
	assert.Nil(t, tables)

	_, _, err = solver.LoadCheckpoint(t.TempDir())
	assert.ErrorIs(t, err, solver.ErrNoCheckpoint)
}

func TestCheckpointWidthMustMatchGame(t *testing.T) {
	tables := solver.NewTables(3)
	_, err := solver.NewTrainer(kuhn{}, kuhnConfig(1), solver.WithTables(tables, 0))
	assert.Error(t, err)
}

func TestBlueprintRoundTrip(t *testing.T) {
	tr := solveSequential(t, 200, kuhnConfig(1))
	bp := tr.Blueprint()
	assert.Equal(t, 200, bp.Iterations)
	assert.Equal(t, []string{"pass", "bet"}, bp.Actions)

	dir := t.TempDir()
	path := filepath.Join(dir, solver.BlueprintFile)
	require.NoError(t, bp.Save(path))

	loaded, err := solver.LoadBlueprint(path)
	require.NoError(t, err)
	assert.Equal(t, bp.RunID, loaded.RunID)
	assert.Equal(t, bp.Strategies, loaded.Strategies)

	row, ok := loaded.Strategy("Kb")
	require.True(t, ok)
	assert.Len(t, row, 2)
	_, ok = loaded.Strategy("missing")
	assert.False(t, ok)

	csvPath := filepath.Join(dir, solver.EquilibriumFile)
	require.NoError(t, bp.WriteCSV(csvPath))
	rows, width, err := solver.ReadTable(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, width)
	assert.Equal(t, bp.Strategies, rows)
}
