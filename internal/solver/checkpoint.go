package solver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lox/bountycfr/internal/fileutil"
)

// File names inside a checkpoint directory.
const (
	RegretFile      = "cumulative_regret.csv"
	StrategyFile    = "cumulative_strategy.csv"
	ProfileFile     = "current_profile.csv"
	ManifestFile    = "manifest.toml"
	EquilibriumFile = "strategy.csv"
	TraceFile       = "regrets.csv"
	BlueprintFile   = "blueprint.json"
)

const keyColumn = "information set"

var (
	// ErrPartialCheckpoint is returned when only some of the three tables of a
	// checkpoint are supplied.
	ErrPartialCheckpoint = errors.New("checkpoint requires regret, strategy and profile tables together")
	// ErrNoCheckpoint is returned when a directory holds none of the tables.
	ErrNoCheckpoint = errors.New("no checkpoint found")
)

// Manifest records what produced a checkpoint directory.
type Manifest struct {
	RunID      string    `toml:"run_id"`
	Iterations int       `toml:"iterations"`
	Seed       int64     `toml:"seed"`
	Workers    int       `toml:"workers"`
	Actions    []string  `toml:"actions"`
	SavedAt    time.Time `toml:"saved_at"`
}

// SaveCheckpoint writes the three tables and the manifest into dir. Each file
// is replaced atomically.
func SaveCheckpoint(dir string, t *Tables, m Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	for _, f := range []struct {
		name string
		rows map[string][]float64
	}{
		{RegretFile, t.Regret},
		{StrategyFile, t.Strategy},
		{ProfileFile, t.Profile},
	} {
		if err := WriteTable(filepath.Join(dir, f.name), f.rows, t.Width); err != nil {
			return err
		}
	}
	return fileutil.WriteAtomic(filepath.Join(dir, ManifestFile), 0o644, func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(m)
	})
}

// LoadCheckpoint reads the checkpoint triple from dir. The manifest is optional
// and nil when absent.
func LoadCheckpoint(dir string) (*Tables, *Manifest, error) {
	paths := [3]string{
		filepath.Join(dir, RegretFile),
		filepath.Join(dir, StrategyFile),
		filepath.Join(dir, ProfileFile),
	}
	var present [3]string
	found := 0
	for i, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present[i] = p
			found++
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
	}
	if found == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoCheckpoint, dir)
	}

	tables, err := LoadTables(present[0], present[1], present[2])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", dir, err)
	}

	var m Manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, ManifestFile), &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tables, nil, nil
		}
		return nil, nil, fmt.Errorf("decode manifest: %w", err)
	}
	return tables, &m, nil
}

// LoadTables reads a checkpoint triple. All three paths empty yields nil
// tables; any other mix of empty and set paths is ErrPartialCheckpoint.
func LoadTables(regretPath, strategyPath, profilePath string) (*Tables, error) {
	paths := []string{regretPath, strategyPath, profilePath}
	set := 0
	for _, p := range paths {
		if p != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case len(paths):
	default:
		return nil, fmt.Errorf("%w: got %d of 3", ErrPartialCheckpoint, set)
	}

	var (
		rows  [3]map[string][]float64
		width = -1
	)
	for i, p := range paths {
		r, w, err := ReadTable(p)
		if err != nil {
			return nil, err
		}
		if width >= 0 && w != width {
			return nil, fmt.Errorf("%s has %d actions, expected %d", p, w, width)
		}
		width = w
		rows[i] = r
	}

	t := &Tables{Width: width, Regret: rows[0], Strategy: rows[1], Profile: rows[2]}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteTable writes rows as CSV with a header of "information set" followed by
// one column per action. Keys are written in sorted order.
func WriteTable(path string, rows map[string][]float64, width int) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		header := make([]string, 0, width+1)
		header = append(header, keyColumn)
		for i := 0; i < width; i++ {
			header = append(header, fmt.Sprintf("action %d", i))
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		record := make([]string, width+1)
		for _, key := range slices.Sorted(maps.Keys(rows)) {
			row := rows[key]
			if len(row) != width {
				return fmt.Errorf("info set %q has %d actions, expected %d", key, len(row), width)
			}
			record[0] = key
			for i, v := range row {
				record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// ReadTable parses a table written by WriteTable and returns its rows and width.
func ReadTable(path string) (map[string][]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: read header: %w", path, err)
	}
	if len(header) < 2 || header[0] != keyColumn {
		return nil, 0, fmt.Errorf("%s: unexpected header %v", path, header)
	}
	width := len(header) - 1

	rows := make(map[string][]float64)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		row := make([]float64, width)
		for i := range row {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, 0, fmt.Errorf("%s: info set %q action %d: %w", path, record[0], i, err)
			}
			row[i] = v
		}
		if _, dup := rows[record[0]]; dup {
			return nil, 0, fmt.Errorf("%s: duplicate info set %q", path, record[0])
		}
		rows[record[0]] = row
	}
	return rows, width, nil
}

// WriteTrace writes the regret trace as a single CSV row.
func WriteTrace(path string, values []float64) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(record); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	})
}

// ReadTrace parses a trace written by WriteTrace.
func ReadTrace(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := make([]float64, len(record))
	for i, s := range record {
		if out[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("%s: value %d: %w", path, i, err)
		}
	}
	return out, nil
}
