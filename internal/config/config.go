// Package config loads solver settings from HCL files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/lox/bountycfr/internal/gametree"
	"github.com/lox/bountycfr/internal/solver"
)

// Config is the resolved solver configuration.
type Config struct {
	LogLevel string
	Game     gametree.Config
	Training solver.TrainingConfig
	// Parallel selects the parallel trainer.
	Parallel bool
	// Winrates is a hole card win rate CSV. When empty the table is estimated
	// by Monte Carlo with WinrateSamples deals per starting hand.
	Winrates       string
	WinrateSamples int
}

type file struct {
	LogLevel    string          `hcl:"log_level,optional"`
	Game        *gameBlock      `hcl:"game,block"`
	Training    *trainingBlock  `hcl:"training,block"`
	Abstraction *abstractionBlk `hcl:"abstraction,block"`
}

type gameBlock struct {
	StartingStack  int      `hcl:"starting_stack,optional"`
	SmallBlind     int      `hcl:"small_blind,optional"`
	BigBlind       int      `hcl:"big_blind,optional"`
	Raises         []int    `hcl:"raises,optional"`
	BountyRatio    *float64 `hcl:"bounty_ratio,optional"`
	BountyConstant *float64 `hcl:"bounty_constant,optional"`
}

type trainingBlock struct {
	Iterations         int    `hcl:"iterations,optional"`
	Seed               *int64 `hcl:"seed,optional"`
	Workers            int    `hcl:"workers,optional"`
	Parallel           bool   `hcl:"parallel,optional"`
	ProgressEvery      *int   `hcl:"progress_every,optional"`
	CheckpointDir      string `hcl:"checkpoint_dir,optional"`
	CheckpointInterval string `hcl:"checkpoint_interval,optional"`
	TraceRegrets       bool   `hcl:"trace_regrets,optional"`
}

type abstractionBlk struct {
	Winrates       string `hcl:"winrates,optional"`
	WinrateSamples int    `hcl:"winrate_samples,optional"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:       "info",
		Game:           gametree.DefaultConfig(),
		Training:       solver.DefaultTrainingConfig(),
		WinrateSamples: 2000,
	}
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(f)
}

// Parse decodes HCL source; filename is only used in diagnostics.
func Parse(src []byte, filename string) (Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(f)
}

func decode(f *hcl.File) (Config, error) {
	var raw file
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}

	if g := raw.Game; g != nil {
		e := &cfg.Game.Engine
		if g.StartingStack != 0 {
			e.StartingStack = g.StartingStack
		}
		if g.SmallBlind != 0 {
			e.SmallBlind = g.SmallBlind
		}
		if g.BigBlind != 0 {
			e.BigBlind = g.BigBlind
		}
		if g.Raises != nil {
			cfg.Game.Raises = g.Raises
		}
		if g.BountyRatio != nil {
			cfg.Game.BountyRatio = *g.BountyRatio
		}
		if g.BountyConstant != nil {
			cfg.Game.BountyConstant = *g.BountyConstant
		}
	}

	if tr := raw.Training; tr != nil {
		t := &cfg.Training
		if tr.Iterations != 0 {
			t.Iterations = tr.Iterations
		}
		if tr.Seed != nil {
			t.Seed = *tr.Seed
		}
		if tr.Workers != 0 {
			t.Workers = tr.Workers
		}
		if tr.ProgressEvery != nil {
			t.ProgressEvery = *tr.ProgressEvery
		}
		t.CheckpointDir = tr.CheckpointDir
		if tr.CheckpointInterval != "" {
			d, err := time.ParseDuration(tr.CheckpointInterval)
			if err != nil {
				return Config{}, fmt.Errorf("training.checkpoint_interval: %w", err)
			}
			t.CheckpointInterval = d
		}
		t.TraceRegrets = tr.TraceRegrets
		cfg.Parallel = tr.Parallel
	}

	if a := raw.Abstraction; a != nil {
		cfg.Winrates = a.Winrates
		if a.WinrateSamples != 0 {
			cfg.WinrateSamples = a.WinrateSamples
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if c.Winrates == "" && c.WinrateSamples <= 0 {
		return errors.New("abstraction: winrate_samples must be > 0 without a winrates file")
	}
	return nil
}
