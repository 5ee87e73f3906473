package solver

import (
	"slices"
	"sync"
)

// registration asks the coordinator to create the entry for key. The worker
// that published it blocks on ready.
type registration struct {
	key     string
	profile []float64
	ready   chan struct{}
}

// registry is the info set store shared by parallel workers. Workers only
// read the entry map; the coordinator goroutine is the single writer and
// creates entries as it drains the registration slot.
type registry struct {
	width   int
	entries sync.Map // string -> *entry
	pending chan registration
}

func newRegistry(width int) *registry {
	return &registry{
		width:   width,
		pending: make(chan registration, 1),
	}
}

// lookup returns the entry for key, waiting for the coordinator to create it
// on first visit.
func (r *registry) lookup(key string, legal []bool) *entry {
	if e, ok := r.entries.Load(key); ok {
		return e.(*entry)
	}
	<-r.publish(key, Uniform(legal))
	e, _ := r.entries.Load(key)
	return e.(*entry)
}

// publish hands key to the coordinator. The slot holds one registration, so a
// second publisher blocks until the coordinator takes the first.
func (r *registry) publish(key string, profile []float64) <-chan struct{} {
	ready := make(chan struct{})
	r.pending <- registration{key: key, profile: profile, ready: ready}
	return ready
}

// materialise creates the entry for reg unless an earlier registration of the
// same key already did, then releases the waiting worker.
func (r *registry) materialise(reg registration) {
	if _, ok := r.entries.Load(reg.key); !ok {
		r.entries.Store(reg.key, newEntry(r.width, reg.profile))
	}
	close(reg.ready)
}

// load seeds the registry from tables. Only call it while no worker runs.
func (r *registry) load(t *Tables) {
	for key, p := range t.Profile {
		r.entries.Store(key, &entry{
			regret:   slices.Clone(t.Regret[key]),
			strategy: slices.Clone(t.Strategy[key]),
			profile:  slices.Clone(p),
		})
	}
}

// tables copies every entry out, each table from its own row.
func (r *registry) tables() *Tables {
	out := NewTables(r.width)
	r.entries.Range(func(k, v any) bool {
		key := k.(string)
		out.Regret[key], out.Strategy[key], out.Profile[key] = v.(*entry).rows()
		return true
	})
	return out
}
