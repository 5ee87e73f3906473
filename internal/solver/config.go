package solver

import (
	"errors"
	"time"
)

// TrainingConfig aggregates parameters that control a CFR run.
type TrainingConfig struct {
	Iterations int
	// Seed drives every deal. Zero picks a time based seed at construction.
	Seed int64
	// Workers bounds concurrent traversals in the parallel trainer. Each batch
	// covers max(1, Workers/2) timesteps for both players.
	Workers int
	// ProgressEvery reports progress every n iterations; zero reports only at
	// the end of a run.
	ProgressEvery int
	// CheckpointDir receives periodic checkpoints when CheckpointInterval > 0.
	CheckpointDir      string
	CheckpointInterval time.Duration
	// TraceRegrets records every regret increment for offline diagnostics.
	TraceRegrets bool
}

// Validate ensures the training parameters are safe to use.
func (c TrainingConfig) Validate() error {
	if c.Iterations < 0 {
		return errors.New("iterations cannot be negative")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	if c.CheckpointInterval < 0 {
		return errors.New("checkpoint interval cannot be negative")
	}
	if c.CheckpointInterval > 0 && c.CheckpointDir == "" {
		return errors.New("checkpoint interval requires a checkpoint directory")
	}
	return nil
}

// DefaultTrainingConfig returns a minimal configuration for local experimentation.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Iterations:    1000,
		Seed:          1,
		Workers:       4,
		ProgressEvery: 100,
	}
}

// batchSize is the number of timesteps the parallel trainer runs per batch.
func (c TrainingConfig) batchSize() int {
	return max(1, c.Workers/2)
}
