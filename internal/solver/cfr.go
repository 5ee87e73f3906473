package solver

import (
	"fmt"
	"slices"
	"sync"
)

// entry holds the three rows of one info set. mu guards every read-modify-write
// of the rows; it is never held across a recursive call.
type entry struct {
	mu       sync.Mutex
	regret   []float64
	strategy []float64
	profile  []float64
}

func newEntry(width int, profile []float64) *entry {
	return &entry{
		regret:   make([]float64, width),
		strategy: make([]float64, width),
		profile:  slices.Clone(profile),
	}
}

// currentProfile copies the profile out under the lock, restricted to legal.
// A key can be shared by nodes whose masks differ, so the stored row may carry
// mass on actions that are illegal here.
func (e *entry) currentProfile(legal []bool) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Mask(e.profile, legal)
}

// update accumulates one visit by the learning player and re-runs regret
// matching. weights is the profile the visit traversed with. The regret
// increments are returned in action order when trace is set.
func (e *entry) update(legal []bool, utils, weights []float64, ev, myReach, oppReach float64, trace []float64) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	for a, ok := range legal {
		if !ok {
			continue
		}
		d := oppReach * (utils[a] - ev)
		e.regret[a] += d
		e.strategy[a] += myReach * weights[a]
		if trace != nil {
			trace = append(trace, d)
		}
	}
	e.profile = RegretMatch(e.regret, legal)
	return trace
}

func (e *entry) rows() (regret, strategy, profile []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.regret), slices.Clone(e.strategy), slices.Clone(e.profile)
}

// store resolves info set keys to their entries, creating them on first visit
// with a uniform profile over legal.
type store interface {
	lookup(key string, legal []bool) *entry
}

// localStore is the single goroutine store used by the sequential trainer.
type localStore struct {
	width   int
	entries map[string]*entry
}

func newLocalStore(width int) *localStore {
	return &localStore{width: width, entries: make(map[string]*entry)}
}

func (s *localStore) lookup(key string, legal []bool) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = newEntry(s.width, Uniform(legal))
		s.entries[key] = e
	}
	return e
}

func (s *localStore) load(t *Tables) {
	for key, p := range t.Profile {
		s.entries[key] = &entry{
			regret:   slices.Clone(t.Regret[key]),
			strategy: slices.Clone(t.Strategy[key]),
			profile:  slices.Clone(p),
		}
	}
}

func (s *localStore) tables() *Tables {
	out := NewTables(s.width)
	for key, e := range s.entries {
		out.Regret[key], out.Strategy[key], out.Profile[key] = e.rows()
	}
	return out
}

// traversal runs chance-sampled CFR for one (iteration, player) pair. It is
// owned by a single goroutine; only the store is shared.
type traversal struct {
	store     store
	nodes     int64
	terminals int64
	trace     []float64
}

func newTraversal(s store, traceRegrets bool) *traversal {
	tr := &traversal{store: s}
	if traceRegrets {
		tr.trace = make([]float64, 0, 256)
	}
	return tr
}

// cfr returns the expected utility of node for learner when both players
// follow the current profile. reach holds each player's contribution to the
// probability of reaching node.
func (tr *traversal) cfr(node Node, learner int, reach [2]float64) (float64, error) {
	tr.nodes++
	switch node.Type() {
	case TerminalNode:
		tr.terminals++
		return node.Utility(learner), nil
	case ChanceNode:
		next, err := node.ChanceOutcome()
		if err != nil {
			return 0, fmt.Errorf("chance outcome: %w", err)
		}
		return tr.cfr(next, learner, reach)
	}

	active := node.ActivePlayer()
	key, err := node.InfoSetKey(active)
	if err != nil {
		return 0, fmt.Errorf("info set key: %w", err)
	}
	legal := node.LegalActions()
	e := tr.store.lookup(key, legal)
	weights := e.currentProfile(legal)

	utils := make([]float64, len(legal))
	ev := 0.0
	for a, ok := range legal {
		if !ok {
			continue
		}
		child, err := node.ActionOutcome(a)
		if err != nil {
			return 0, fmt.Errorf("action %d at %s: %w", a, key, err)
		}
		next := reach
		next[active] *= weights[a]
		u, err := tr.cfr(child, learner, next)
		if err != nil {
			return 0, err
		}
		utils[a] = u
		ev += weights[a] * u
	}

	if active == learner {
		tr.trace = e.update(legal, utils, weights, ev, reach[learner], reach[1-learner], tr.trace)
	}
	return ev, nil
}
