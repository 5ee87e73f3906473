package abstraction

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lox/bountycfr/internal/deck"
	"github.com/lox/bountycfr/internal/evaluator"
	"github.com/lox/bountycfr/internal/randutil"
)

var winrateHeader = []string{"rank 1", "rank 2", "suited", "winrate"}

// HoleClass is a starting hand up to suit isomorphism. High >= Low and pairs
// are never suited.
type HoleClass struct {
	High   deck.Rank
	Low    deck.Rank
	Suited bool
}

// NewHoleClass orders the ranks and drops the suited flag for pairs.
func NewHoleClass(r1, r2 deck.Rank, suited bool) HoleClass {
	if r2 > r1 {
		r1, r2 = r2, r1
	}
	return HoleClass{High: r1, Low: r2, Suited: suited && r1 != r2}
}

// Cards returns one concrete hand of the class.
func (c HoleClass) Cards() []deck.Card {
	second := deck.Hearts
	if c.Suited {
		second = deck.Spades
	}
	return []deck.Card{deck.NewCard(deck.Spades, c.High), deck.NewCard(second, c.Low)}
}

func (c HoleClass) String() string {
	s := c.High.String() + c.Low.String()
	switch {
	case c.High == c.Low:
	case c.Suited:
		s += "s"
	default:
		s += "o"
	}
	return s
}

// AllHoleClasses returns the 169 starting hand classes.
func AllHoleClasses() []HoleClass {
	var out []HoleClass
	for _, hi := range deck.Ranks() {
		for _, lo := range deck.Ranks() {
			if lo > hi {
				continue
			}
			out = append(out, HoleClass{High: hi, Low: lo})
			if lo != hi {
				out = append(out, HoleClass{High: hi, Low: lo, Suited: true})
			}
		}
	}
	return out
}

// WinrateTable holds the heads-up win rate of each starting hand class against
// a random hand. Reads are safe once the table is built.
type WinrateTable struct {
	rates map[HoleClass]float64
}

// NewWinrateTable returns an empty table.
func NewWinrateTable() *WinrateTable {
	return &WinrateTable{rates: make(map[HoleClass]float64)}
}

// Set stores a win rate for the class of r1, r2.
func (t *WinrateTable) Set(r1, r2 deck.Rank, suited bool, winrate float64) {
	t.rates[NewHoleClass(r1, r2, suited)] = winrate
}

// Lookup returns the stored win rate. Classes missing from a partial table
// score 0.5.
func (t *WinrateTable) Lookup(r1, r2 deck.Rank, suited bool) float64 {
	if wr, ok := t.rates[NewHoleClass(r1, r2, suited)]; ok {
		return wr
	}
	return 0.5
}

// Len returns the number of classes in the table.
func (t *WinrateTable) Len() int {
	return len(t.rates)
}

// LoadWinrates reads a table in the "rank 1,rank 2,suited,winrate" CSV layout.
func LoadWinrates(r io.Reader) (*WinrateTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(winrateHeader)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read winrate header: %w", err)
	}
	for i, want := range winrateHeader {
		if header[i] != want {
			return nil, fmt.Errorf("winrate header column %d is %q, want %q", i, header[i], want)
		}
	}

	t := NewWinrateTable()
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read winrates: %w", err)
		}
		r1, err := deck.ParseRank(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		r2, err := deck.ParseRank(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		wr, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: winrate: %w", line, err)
		}
		t.Set(r1, r2, rec[2] == "1", wr)
	}
	return t, nil
}

// Write emits the table in the layout read by LoadWinrates, strongest first.
func (t *WinrateTable) Write(w io.Writer) error {
	classes := make([]HoleClass, 0, len(t.rates))
	for c := range t.rates {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool {
		a, b := classes[i], classes[j]
		if a.High != b.High {
			return a.High > b.High
		}
		if a.Low != b.Low {
			return a.Low > b.Low
		}
		return a.Suited && !b.Suited
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(winrateHeader); err != nil {
		return err
	}
	for _, c := range classes {
		suited := "0"
		if c.Suited {
			suited = "1"
		}
		rec := []string{c.High.String(), c.Low.String(), suited, strconv.FormatFloat(t.rates[c], 'f', 6, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BuildWinrates simulates every starting hand class with samples Monte Carlo
// runouts. Classes are spread over workers goroutines.
func BuildWinrates(ctx context.Context, eval evaluator.HandEvaluator, samples, workers int, seed int64) (*WinrateTable, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	t := NewWinrateTable()
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, class := range AllHoleClasses() {
		classSeed := randutil.Derive(seed, int64(i))
		g.Go(func() error {
			wr, err := evaluator.EstimateEquity(ctx, eval, class.Cards(), nil, samples, 1, classSeed)
			if err != nil {
				return fmt.Errorf("simulate %s: %w", class, err)
			}
			mu.Lock()
			t.rates[class] = wr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}
