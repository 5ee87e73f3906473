package solver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ParallelTrainer runs CFR traversals concurrently over shared tables. Each
// info set has its own lock and new info sets are created by the coordinating
// goroutine only.
type ParallelTrainer struct {
	*core
	reg *registry
}

// NewParallelTrainer constructs a parallel trainer for game. The game must be
// safe for concurrent InitialNode calls.
func NewParallelTrainer(game Game, cfg TrainingConfig, opts ...Option) (*ParallelTrainer, error) {
	c, tables, err := newCore(game, cfg, opts)
	if err != nil {
		return nil, err
	}
	p := &ParallelTrainer{core: c, reg: newRegistry(game.NumActions())}
	if tables != nil {
		p.reg.load(tables)
	}
	c.tables = p.reg.tables
	return p, nil
}

// Solve runs iterations more iterations in batches of max(1, Workers/2)
// timesteps. Every (timestep, player) pair of a batch gets its own goroutine
// and the batch is joined before the next one starts.
func (p *ParallelTrainer) Solve(ctx context.Context, iterations int, progress func(Progress)) error {
	return p.run(ctx, iterations, p.cfg.batchSize(), p.step, progress)
}

func (p *ParallelTrainer) step(_ context.Context, first, n int) error {
	var g errgroup.Group
	traversals := make([]*traversal, 0, 2*n)
	for i := first; i < first+n; i++ {
		for learner := 0; learner < 2; learner++ {
			tr := newTraversal(p.reg, p.cfg.TraceRegrets)
			traversals = append(traversals, tr)
			g.Go(func() error {
				root, err := p.root(i, learner)
				if err != nil {
					return err
				}
				if _, err := tr.cfr(root, learner, [2]float64{1, 1}); err != nil {
					return fmt.Errorf("iteration %d player %d: %w", i, learner, err)
				}
				return nil
			})
		}
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	created := 0
	for {
		select {
		case reg := <-p.reg.pending:
			p.reg.materialise(reg)
			created++
		case err := <-done:
			for _, tr := range traversals {
				p.absorb(tr)
			}
			if created > 0 {
				p.log.Debug().Int("first", first).Int("timesteps", n).Int("new_info_sets", created).Msg("Batch joined")
			}
			return err
		}
	}
}
