package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/bountycfr/internal/abstraction"
	"github.com/lox/bountycfr/internal/config"
	"github.com/lox/bountycfr/internal/evaluator"
	"github.com/lox/bountycfr/internal/gametree"
	"github.com/lox/bountycfr/internal/solver"
)

type TrainCmd struct {
	Out           string `help:"directory for checkpoint, strategy and blueprint" required:"" env:"SOLVER_OUT"`
	Config        string `help:"HCL config file (missing file uses defaults)" default:"solver.hcl" env:"SOLVER_CONFIG"`
	Iterations    int    `help:"iterations to run (0 keeps config)" default:"0"`
	Parallel      bool   `help:"use the parallel trainer"`
	Workers       int    `help:"parallel workers (0 keeps config)" default:"0" env:"SOLVER_WORKERS"`
	Seed          int64  `help:"random seed (0 keeps config)" default:"0"`
	Resume        string `help:"checkpoint directory to resume from"`
	Trace         bool   `help:"record every regret update to regrets.csv"`
	ProgressEvery int    `help:"report progress every N iterations (0 keeps config)" default:"0"`
	Winrates      string `help:"hole card win rate CSV (overrides config)" type:"path"`
}

// trainer is satisfied by both solver engines.
type trainer interface {
	Solve(ctx context.Context, iterations int, progress func(solver.Progress)) error
	SaveCheckpoint(dir string) error
	Blueprint() *solver.Blueprint
	Trace() []float64
	Iteration() int
	RunID() string
}

func (cmd *TrainCmd) Run(ctx context.Context) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLevel(cfg.LogLevel)
	cmd.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	eval := evaluator.PaulHankin{}
	winrates, err := loadOrBuildWinrates(ctx, cfg, eval)
	if err != nil {
		return err
	}
	tree, err := gametree.New(cfg.Game, eval, abstraction.NewStrengthOracle(winrates, eval))
	if err != nil {
		return err
	}

	opts := []solver.Option{solver.WithLogger(log.Logger)}
	if cmd.Resume != "" {
		opts = append(opts, solver.FromCheckpoint(cmd.Resume))
	}
	var t trainer
	if cfg.Parallel {
		t, err = solver.NewParallelTrainer(tree, cfg.Training, opts...)
	} else {
		t, err = solver.NewTrainer(tree, cfg.Training, opts...)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", t.RunID()).
		Bool("parallel", cfg.Parallel).
		Int("workers", cfg.Training.Workers).
		Int("iterations", cfg.Training.Iterations).
		Int("resume_iteration", t.Iteration()).
		Ints("raises", cfg.Game.Raises).
		Msg("Starting training run")

	start := time.Now()
	solveErr := t.Solve(ctx, cfg.Training.Iterations, nil)
	if solveErr != nil && !errors.Is(solveErr, context.Canceled) {
		return solveErr
	}
	if solveErr != nil {
		log.Warn().Int("iteration", t.Iteration()).Msg("Training interrupted, saving progress")
	}

	if err := writeOutputs(cmd.Out, t, cfg.Training.TraceRegrets); err != nil {
		return err
	}
	log.Info().Dur("duration", time.Since(start)).Int("iteration", t.Iteration()).Str("out", cmd.Out).Msg("Training completed")
	return nil
}

func (cmd *TrainCmd) apply(cfg *config.Config) {
	if cmd.Iterations > 0 {
		cfg.Training.Iterations = cmd.Iterations
	}
	if cmd.Parallel {
		cfg.Parallel = true
	}
	if cmd.Workers > 0 {
		cfg.Training.Workers = cmd.Workers
	}
	if cmd.Seed != 0 {
		cfg.Training.Seed = cmd.Seed
	}
	if cmd.Trace {
		cfg.Training.TraceRegrets = true
	}
	if cmd.ProgressEvery > 0 {
		cfg.Training.ProgressEvery = cmd.ProgressEvery
	}
	if cmd.Winrates != "" {
		cfg.Winrates = cmd.Winrates
	}
}

func loadOrBuildWinrates(ctx context.Context, cfg config.Config, eval evaluator.HandEvaluator) (*abstraction.WinrateTable, error) {
	if cfg.Winrates != "" {
		f, err := os.Open(cfg.Winrates)
		if err != nil {
			return nil, fmt.Errorf("open win rates: %w", err)
		}
		defer f.Close()
		table, err := abstraction.LoadWinrates(f)
		if err != nil {
			return nil, fmt.Errorf("load win rates: %w", err)
		}
		log.Info().Str("path", cfg.Winrates).Int("classes", table.Len()).Msg("Loaded hole card win rates")
		return table, nil
	}

	start := time.Now()
	table, err := abstraction.BuildWinrates(ctx, eval, cfg.WinrateSamples, cfg.Training.Workers, cfg.Training.Seed)
	if err != nil {
		return nil, fmt.Errorf("build win rates: %w", err)
	}
	log.Info().Int("samples", cfg.WinrateSamples).Dur("duration", time.Since(start)).Msg("Estimated hole card win rates")
	return table, nil
}

func writeOutputs(dir string, t trainer, trace bool) error {
	if err := t.SaveCheckpoint(dir); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	bp := t.Blueprint()
	if err := bp.WriteCSV(filepath.Join(dir, solver.EquilibriumFile)); err != nil {
		return fmt.Errorf("write strategy: %w", err)
	}
	if err := bp.Save(filepath.Join(dir, solver.BlueprintFile)); err != nil {
		return fmt.Errorf("save blueprint: %w", err)
	}
	if trace {
		if err := solver.WriteTrace(filepath.Join(dir, solver.TraceFile), t.Trace()); err != nil {
			return fmt.Errorf("write regret trace: %w", err)
		}
	}
	log.Info().Str("dir", dir).Int("info_sets", len(bp.Strategies)).Msg("Outputs written")
	return nil
}
