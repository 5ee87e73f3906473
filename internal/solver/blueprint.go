package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lox/bountycfr/internal/fileutil"
)

const blueprintFileVersion = 1

// Blueprint captures the equilibrium strategy of a run so that consumers can
// sample actions without rerunning CFR.
type Blueprint struct {
	Version     int                  `json:"version"`
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Iterations  int                  `json:"iterations"`
	Actions     []string             `json:"actions"`
	Strategies  map[string][]float64 `json:"strategies"`
}

// NewBlueprint wraps an equilibrium strategy.
func NewBlueprint(runID string, iterations int, actions []string, strategies map[string][]float64, at time.Time) *Blueprint {
	return &Blueprint{
		Version:     blueprintFileVersion,
		RunID:       runID,
		GeneratedAt: at,
		Iterations:  iterations,
		Actions:     actions,
		Strategies:  strategies,
	}
}

// Save writes the blueprint to disk in JSON format.
func (b *Blueprint) Save(path string) error {
	if b == nil {
		return errors.New("nil blueprint")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	})
}

// WriteCSV writes the strategies in the checkpoint table layout.
func (b *Blueprint) WriteCSV(path string) error {
	return WriteTable(path, b.Strategies, len(b.Actions))
}

// LoadBlueprint reads a blueprint from disk and checks that every strategy
// row matches the action labels.
func LoadBlueprint(path string) (*Blueprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bp Blueprint
	if err := json.NewDecoder(f).Decode(&bp); err != nil {
		return nil, err
	}
	if bp.Version != blueprintFileVersion {
		return nil, errors.New("unsupported blueprint version")
	}
	for key, row := range bp.Strategies {
		if len(row) != len(bp.Actions) {
			return nil, fmt.Errorf("blueprint info set %q has %d actions, expected %d", key, len(row), len(bp.Actions))
		}
	}
	return &bp, nil
}

// Strategy returns the stored strategy for an info set key.
func (b *Blueprint) Strategy(key string) ([]float64, bool) {
	if b == nil {
		return nil, false
	}
	strat, ok := b.Strategies[key]
	return strat, ok
}
