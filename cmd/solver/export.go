package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/bountycfr/internal/gametree"
	"github.com/lox/bountycfr/internal/infoset"
	"github.com/lox/bountycfr/internal/solver"
)

type ExportCmd struct {
	From string `help:"checkpoint directory" required:"" type:"existingdir"`
	Out  string `help:"strategy CSV to write (defaults to strategy.csv in --from)"`
	JSON string `help:"also write a JSON blueprint to this path"`
}

func (cmd *ExportCmd) Run() error {
	tables, manifest, err := solver.LoadCheckpoint(cmd.From)
	if err != nil {
		return err
	}

	out := cmd.Out
	if out == "" {
		out = filepath.Join(cmd.From, solver.EquilibriumFile)
	}
	bp := solver.NewBlueprint(manifestRunID(manifest), manifestIterations(manifest), exportActions(manifest, tables.Width), tables.Equilibrium(), time.Now().UTC())
	if err := bp.WriteCSV(out); err != nil {
		return fmt.Errorf("write strategy: %w", err)
	}
	if cmd.JSON != "" {
		if err := bp.Save(cmd.JSON); err != nil {
			return fmt.Errorf("save blueprint: %w", err)
		}
	}
	log.Info().Str("from", cmd.From).Str("out", out).Int("info_sets", tables.Len()).Msg("Exported equilibrium strategy")
	return nil
}

func manifestRunID(m *solver.Manifest) string {
	if m == nil {
		return ""
	}
	return m.RunID
}

func manifestIterations(m *solver.Manifest) int {
	if m == nil {
		return 0
	}
	return m.Iterations
}

// exportActions prefers the manifest labels, then the default game labels
// when the width matches, then plain indices.
func exportActions(m *solver.Manifest, width int) []string {
	if m != nil && len(m.Actions) == width {
		return m.Actions
	}
	if names := gametree.DefaultConfig().ActionNames(); len(names) == width {
		return names
	}
	names := make([]string, width)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

type InspectCmd struct {
	From string `help:"checkpoint directory" required:"" type:"existingdir"`
	Key  string `help:"information set key, e.g. 0|5|0|0|0|9|9" required:""`
}

func (cmd *InspectCmd) Run(w io.Writer) error {
	key, err := infoset.Parse(cmd.Key)
	if err != nil {
		return err
	}
	tables, manifest, err := solver.LoadCheckpoint(cmd.From)
	if err != nil {
		return err
	}
	name := key.String()
	if _, ok := tables.Profile[name]; !ok {
		return fmt.Errorf("information set %s not found in %s", name, cmd.From)
	}

	actions := exportActions(manifest, tables.Width)
	eq := tables.Equilibrium()[name]
	fmt.Fprintf(w, "information set %s\n", name)
	fmt.Fprintf(w, "%-12s %12s %12s %12s %12s\n", "action", "regret", "strategy", "profile", "average")
	for i, a := range actions {
		fmt.Fprintf(w, "%-12s %12.4f %12.4f %12.4f %12.4f\n", a,
			tables.Regret[name][i], tables.Strategy[name][i], tables.Profile[name][i], eq[i])
	}
	fmt.Fprintln(w, strings.Repeat("-", 64))
	return nil
}
