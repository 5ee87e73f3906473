package solver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lox/bountycfr/internal/randutil"
)

// Option customises a trainer.
type Option func(*options)

type options struct {
	logger        zerolog.Logger
	clock         quartz.Clock
	checkpointDir string
	tables        *Tables
	iteration     int
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock driving checkpoint ticks and elapsed times.
func WithClock(c quartz.Clock) Option {
	return func(o *options) { o.clock = c }
}

// FromCheckpoint resumes from the checkpoint triple in dir. A directory holding
// only some of the three tables fails construction with ErrPartialCheckpoint.
func FromCheckpoint(dir string) Option {
	return func(o *options) { o.checkpointDir = dir }
}

// WithTables seeds the trainer with tables already trained for iteration
// iterations.
func WithTables(t *Tables, iteration int) Option {
	return func(o *options) {
		o.tables = t
		o.iteration = iteration
	}
}

// core is the bookkeeping shared by the sequential and parallel trainers.
type core struct {
	game      Game
	cfg       TrainingConfig
	log       zerolog.Logger
	clock     quartz.Clock
	runID     string
	iteration int
	nodes     atomic.Int64
	terminals atomic.Int64
	trace     []float64
	tables    func() *Tables
}

func newCore(game Game, cfg TrainingConfig, opts []Option) (*core, *Tables, error) {
	if game == nil {
		return nil, nil, errors.New("solver: game is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	o := options{logger: zerolog.Nop(), clock: quartz.NewReal()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &core{
		game:  game,
		log:   o.logger,
		clock: o.clock,
		runID: uuid.NewString(),
	}
	cfg.Seed = randutil.Seed(cfg.Seed)
	c.cfg = cfg

	tables := o.tables
	c.iteration = o.iteration
	if o.checkpointDir != "" {
		loaded, manifest, err := LoadCheckpoint(o.checkpointDir)
		if err != nil {
			return nil, nil, err
		}
		tables = loaded
		if manifest != nil {
			c.iteration = manifest.Iterations
			c.runID = manifest.RunID
			if cfg.Seed != manifest.Seed {
				c.log.Warn().Int64("checkpoint_seed", manifest.Seed).Int64("seed", cfg.Seed).
					Msg("Resuming with a different seed")
			}
		}
	}
	if tables != nil {
		if tables.Width != game.NumActions() {
			return nil, nil, fmt.Errorf("tables have %d actions, game has %d", tables.Width, game.NumActions())
		}
		if err := tables.Validate(); err != nil {
			return nil, nil, err
		}
	}
	c.log = c.log.With().Str("run_id", c.runID).Logger()
	return c, tables, nil
}

// RunID identifies the run in manifests and blueprints.
func (c *core) RunID() string { return c.runID }

// Iteration returns the number of completed iterations.
func (c *core) Iteration() int { return c.iteration }

// TrainingConfig returns the effective configuration, with the seed resolved.
func (c *core) TrainingConfig() TrainingConfig { return c.cfg }

// Trace returns the regret increments recorded so far when tracing is enabled.
func (c *core) Trace() []float64 { return c.trace }

// Tables returns a copy of the learning tables.
func (c *core) Tables() *Tables { return c.tables() }

// Equilibrium returns the normalised average strategy for every info set.
func (c *core) Equilibrium() map[string][]float64 { return c.tables().Equilibrium() }

// Manifest describes the run for checkpoint directories.
func (c *core) Manifest() Manifest {
	return Manifest{
		RunID:      c.runID,
		Iterations: c.iteration,
		Seed:       c.cfg.Seed,
		Workers:    c.cfg.Workers,
		Actions:    actionNames(c.game),
		SavedAt:    c.clock.Now().UTC(),
	}
}

// SaveCheckpoint writes the checkpoint triple and manifest into dir.
func (c *core) SaveCheckpoint(dir string) error {
	return SaveCheckpoint(dir, c.tables(), c.Manifest())
}

// Blueprint materialises the equilibrium strategy produced so far.
func (c *core) Blueprint() *Blueprint {
	return NewBlueprint(c.runID, c.iteration, actionNames(c.game), c.Equilibrium(), c.clock.Now().UTC())
}

func (c *core) absorb(tr *traversal) {
	c.nodes.Add(tr.nodes)
	c.terminals.Add(tr.terminals)
	if c.cfg.TraceRegrets {
		c.trace = append(c.trace, tr.trace...)
	}
}

// root deals the initial node of timestep t for learner. The starting seat
// alternates with t so each learner trains both positions. Deals depend only
// on the seed, t and learner so both trainers replay identical hands.
func (c *core) root(t, learner int) (Node, error) {
	rng := randutil.New(randutil.Derive(c.cfg.Seed, int64(t), int64(learner)))
	node, err := c.game.InitialNode(rng, (t+learner)%2)
	if err != nil {
		return nil, fmt.Errorf("initial node t=%d player=%d: %w", t, learner, err)
	}
	return node, nil
}

// run drives step over iterations timesteps in chunks of batch, reporting
// progress and writing checkpoints between chunks.
func (c *core) run(ctx context.Context, iterations, batch int, step func(ctx context.Context, first, n int) error, progress func(Progress)) error {
	if iterations < 0 {
		return fmt.Errorf("iterations cannot be negative: %d", iterations)
	}
	start := c.clock.Now()

	var ticks <-chan time.Time
	if c.cfg.CheckpointInterval > 0 {
		ticker := c.clock.NewTicker(c.cfg.CheckpointInterval, "solver", "checkpoint")
		defer ticker.Stop()
		ticks = ticker.C
	}

	target := c.iteration + iterations
	c.log.Info().Int("from", c.iteration).Int("to", target).Int("workers", c.cfg.Workers).Msg("Training started")

	for c.iteration < target {
		if err := ctx.Err(); err != nil {
			return err
		}
		prev := c.iteration
		n := min(batch, target-prev)
		if err := step(ctx, prev, n); err != nil {
			return err
		}
		c.iteration += n

		if every := c.cfg.ProgressEvery; every > 0 && c.iteration < target && c.iteration/every > prev/every {
			c.report(start, progress)
		}
		select {
		case <-ticks:
			if err := c.checkpoint(); err != nil {
				return err
			}
		default:
		}
	}

	c.report(start, progress)
	return nil
}

func (c *core) report(start time.Time, progress func(Progress)) {
	t := c.tables()
	mean, std := regretSummary(t.Regret, c.iteration)
	p := Progress{
		Iteration:    c.iteration,
		InfoSets:     t.Len(),
		Nodes:        c.nodes.Load(),
		Terminals:    c.terminals.Load(),
		Elapsed:      c.clock.Since(start),
		RegretMean:   mean,
		RegretStdDev: std,
	}
	c.log.Info().
		Int("iteration", p.Iteration).
		Int("info_sets", p.InfoSets).
		Int64("nodes", p.Nodes).
		Int64("terminals", p.Terminals).
		Float64("regret_mean", p.RegretMean).
		Float64("regret_stddev", p.RegretStdDev).
		Dur("elapsed", p.Elapsed).
		Msg("Training progress")
	if progress != nil {
		progress(p)
	}
}

func (c *core) checkpoint() error {
	if err := c.SaveCheckpoint(c.cfg.CheckpointDir); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	c.log.Info().Int("iteration", c.iteration).Str("dir", c.cfg.CheckpointDir).Msg("Checkpoint saved")
	return nil
}

// Trainer is the single goroutine CFR engine. It is deterministic for a fixed
// seed.
type Trainer struct {
	*core
	store *localStore
}

// NewTrainer constructs a sequential trainer for game.
func NewTrainer(game Game, cfg TrainingConfig, opts ...Option) (*Trainer, error) {
	c, tables, err := newCore(game, cfg, opts)
	if err != nil {
		return nil, err
	}
	t := &Trainer{core: c, store: newLocalStore(game.NumActions())}
	if tables != nil {
		t.store.load(tables)
	}
	c.tables = t.store.tables
	return t, nil
}

// CFR runs one traversal from node for learner and returns learner's
// expected utility. Regrets and strategy sums are updated at learner's
// decisions.
func (t *Trainer) CFR(node Node, learner int, reach [2]float64) (float64, error) {
	tr := newTraversal(t.store, t.cfg.TraceRegrets)
	ev, err := tr.cfr(node, learner, reach)
	t.absorb(tr)
	return ev, err
}

// Solve runs iterations more iterations. Each iteration traverses a fresh
// deal once per learning player. progress may be nil.
func (t *Trainer) Solve(ctx context.Context, iterations int, progress func(Progress)) error {
	return t.run(ctx, iterations, 1, t.step, progress)
}

func (t *Trainer) step(_ context.Context, first, n int) error {
	for i := first; i < first+n; i++ {
		for learner := 0; learner < 2; learner++ {
			root, err := t.root(i, learner)
			if err != nil {
				return err
			}
			if _, err := t.CFR(root, learner, [2]float64{1, 1}); err != nil {
				return fmt.Errorf("iteration %d player %d: %w", i, learner, err)
			}
		}
	}
	return nil
}

// ActionNamer is implemented by games that label their abstract actions.
type ActionNamer interface {
	ActionNames() []string
}

func actionNames(g Game) []string {
	if n, ok := g.(ActionNamer); ok {
		return n.ActionNames()
	}
	names := make([]string, g.NumActions())
	for i := range names {
		names[i] = fmt.Sprintf("action %d", i)
	}
	return names
}
