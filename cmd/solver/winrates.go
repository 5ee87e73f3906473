package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/bountycfr/internal/abstraction"
	"github.com/lox/bountycfr/internal/evaluator"
	"github.com/lox/bountycfr/internal/fileutil"
)

type WinratesCmd struct {
	Out     string `help:"CSV file to write" default:"winrates.csv"`
	Samples int    `help:"Monte Carlo runouts per starting hand" default:"2000"`
	Workers int    `help:"simulation workers (0 uses every CPU)" default:"0"`
	Seed    int64  `help:"random seed" default:"1"`
}

func (cmd *WinratesCmd) Run(ctx context.Context) error {
	if cmd.Samples <= 0 {
		return fmt.Errorf("--samples must be > 0, got %d", cmd.Samples)
	}
	start := time.Now()
	table, err := abstraction.BuildWinrates(ctx, evaluator.PaulHankin{}, cmd.Samples, cmd.Workers, cmd.Seed)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(cmd.Out, 0o644, func(w io.Writer) error { return table.Write(w) }); err != nil {
		return fmt.Errorf("write win rates: %w", err)
	}
	log.Info().
		Str("out", cmd.Out).
		Int("classes", table.Len()).
		Int("samples", cmd.Samples).
		Dur("duration", time.Since(start)).
		Msg("Win rate table written")
	return nil
}
