package evaluator

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lox/bountycfr/internal/deck"
	"github.com/lox/bountycfr/internal/randutil"
)

// workerResult holds the results from a Monte Carlo worker
type workerResult struct {
	wins    int
	ties    int
	samples int
}

// EstimateEquity returns the probability that hole beats a uniformly random
// opponent hand once board is completed to five cards. Ties count as half a
// win. Samples are split across workers, each with its own seeded stream.
func EstimateEquity(ctx context.Context, eval HandEvaluator, hole, board []deck.Card, samples, workers int, seed int64) (float64, error) {
	if len(hole) != 2 {
		return 0, fmt.Errorf("equity needs 2 hole cards, got %d", len(hole))
	}
	if len(board) > 5 {
		return 0, fmt.Errorf("board has %d cards", len(board))
	}
	if samples <= 0 {
		return 0, fmt.Errorf("samples must be > 0")
	}
	if workers <= 0 {
		workers = min(runtime.NumCPU(), 8)
	}
	workers = min(workers, samples)

	perWorker := samples / workers
	remainder := samples % workers

	g, ctx := errgroup.WithContext(ctx)
	results := make(chan workerResult, workers)

	for w := 0; w < workers; w++ {
		n := perWorker
		if w < remainder {
			n++
		}
		workerSeed := randutil.Derive(seed, int64(w))
		g.Go(func() error {
			res, err := runEquityWorker(ctx, eval, hole, board, n, workerSeed)
			if err != nil {
				return err
			}
			results <- res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(results)

	var total workerResult
	for r := range results {
		total.wins += r.wins
		total.ties += r.ties
		total.samples += r.samples
	}
	if total.samples == 0 {
		return 0, nil
	}
	return (float64(total.wins) + float64(total.ties)/2) / float64(total.samples), nil
}

func runEquityWorker(ctx context.Context, eval HandEvaluator, hole, board []deck.Card, samples int, seed int64) (workerResult, error) {
	rng := randutil.New(seed)
	known := append(append([]deck.Card(nil), hole...), board...)
	missing := 5 - len(board)

	hero := make([]deck.Card, 0, 7)
	villain := make([]deck.Card, 0, 7)
	var res workerResult

	for i := 0; i < samples; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		d := deck.NewDeckWithout(rng, known...)
		opp := d.DealN(2)
		runout := d.DealN(missing)

		hero = append(append(append(hero[:0], hole...), board...), runout...)
		villain = append(append(append(villain[:0], opp...), board...), runout...)

		h, v := eval.Evaluate(hero), eval.Evaluate(villain)
		switch {
		case h > v:
			res.wins++
		case h == v:
			res.ties++
		}
		res.samples++
	}
	return res, nil
}
