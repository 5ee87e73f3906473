package solver

import (
	"fmt"
	"maps"
	"slices"
)

// Tables holds the three learning tables of a run, keyed by info set string.
// Every row has Width entries indexed by abstract action.
type Tables struct {
	Width    int
	Regret   map[string][]float64
	Strategy map[string][]float64
	Profile  map[string][]float64
}

// NewTables returns empty tables for an action space of the given width.
func NewTables(width int) *Tables {
	return &Tables{
		Width:    width,
		Regret:   make(map[string][]float64),
		Strategy: make(map[string][]float64),
		Profile:  make(map[string][]float64),
	}
}

// Len returns the number of info sets.
func (t *Tables) Len() int { return len(t.Profile) }

// Keys returns the info set keys in sorted order.
func (t *Tables) Keys() []string {
	return slices.Sorted(maps.Keys(t.Profile))
}

// Validate checks that the three tables cover the same keys with rows of the
// configured width.
func (t *Tables) Validate() error {
	if len(t.Regret) != len(t.Profile) || len(t.Strategy) != len(t.Profile) {
		return fmt.Errorf("table sizes differ: regret %d, strategy %d, profile %d",
			len(t.Regret), len(t.Strategy), len(t.Profile))
	}
	for key, p := range t.Profile {
		r, ok := t.Regret[key]
		if !ok {
			return fmt.Errorf("info set %q missing from regret table", key)
		}
		s, ok := t.Strategy[key]
		if !ok {
			return fmt.Errorf("info set %q missing from strategy table", key)
		}
		if len(p) != t.Width || len(r) != t.Width || len(s) != t.Width {
			return fmt.Errorf("info set %q: rows must have %d actions", key, t.Width)
		}
	}
	return nil
}

// Equilibrium normalises every strategy row to sum to 1. Rows without any
// accumulated mass stay all zero.
func (t *Tables) Equilibrium() map[string][]float64 {
	out := make(map[string][]float64, len(t.Strategy))
	for key, row := range t.Strategy {
		out[key] = Normalize(row)
	}
	return out
}

// Normalize returns row scaled to sum to 1, or a zero row when it sums to 0.
func Normalize(row []float64) []float64 {
	out := make([]float64, len(row))
	total := 0.0
	for _, v := range row {
		total += v
	}
	if total <= 0 {
		return out
	}
	for i, v := range row {
		out[i] = v / total
	}
	return out
}

// Mask zeroes the illegal actions of profile and renormalises the rest,
// falling back to Uniform when no legal action keeps any mass.
func Mask(profile []float64, legal []bool) []float64 {
	out := make([]float64, len(legal))
	total := 0.0
	for i, ok := range legal {
		if ok && profile[i] > 0 {
			out[i] = profile[i]
			total += profile[i]
		}
	}
	if total <= 0 {
		return Uniform(legal)
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// Uniform spreads probability evenly over the legal actions.
func Uniform(legal []bool) []float64 {
	out := make([]float64, len(legal))
	n := 0
	for _, ok := range legal {
		if ok {
			n++
		}
	}
	if n == 0 {
		return out
	}
	p := 1 / float64(n)
	for i, ok := range legal {
		if ok {
			out[i] = p
		}
	}
	return out
}

// RegretMatch returns the strategy proportional to positive regret over the
// legal actions, falling back to Uniform when no legal action has positive
// regret.
func RegretMatch(regret []float64, legal []bool) []float64 {
	out := make([]float64, len(regret))
	total := 0.0
	for i, r := range regret {
		if legal[i] && r > 0 {
			out[i] = r
			total += r
		}
	}
	if total <= 0 {
		return Uniform(legal)
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
