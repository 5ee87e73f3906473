// Package gametree wraps the betting rules in the abstract game the solver
// traverses: a fixed-width action space, sampled chance outcomes, bounty
// adjusted payouts and information set keys.
package gametree

import (
	"errors"
	"fmt"

	"github.com/lox/bountycfr/internal/game"
)

// Abstract action indices. Raise rungs follow AllIn in ladder order.
const (
	Fold = iota
	Call
	Check
	AllIn
	FirstRaise
)

// Config describes the abstract game.
type Config struct {
	Engine game.Engine
	// Raises is the ladder of raise-to totals offered besides all-in.
	Raises []int
	// BountyRatio scales a winning delta when the winner hit their bounty.
	BountyRatio float64
	// BountyConstant is added on top of the scaled delta.
	BountyConstant float64
}

// DefaultConfig returns the 400 chip game with raises to 20, 40 and 80.
func DefaultConfig() Config {
	return Config{
		Engine:         game.DefaultEngine(),
		Raises:         []int{20, 40, 80},
		BountyRatio:    1.5,
		BountyConstant: 10,
	}
}

// NumActions returns the width of the abstract action space.
func (c Config) NumActions() int {
	return FirstRaise + len(c.Raises)
}

// ActionNames labels every abstract action index.
func (c Config) ActionNames() []string {
	names := []string{"fold", "call", "check", "allin"}
	for _, r := range c.Raises {
		names = append(names, fmt.Sprintf("raise%d", r))
	}
	return names
}

// Validate ensures the configuration describes a playable game.
func (c Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	last := 0
	for i, r := range c.Raises {
		if r <= last {
			return fmt.Errorf("raise[%d] must be > 0 and strictly increasing", i)
		}
		last = r
	}
	if c.BountyRatio < 1 {
		return errors.New("bounty ratio must be >= 1")
	}
	if c.BountyConstant < 0 {
		return errors.New("bounty constant cannot be negative")
	}
	return nil
}
