package game

import (
	"errors"
	"strings"
)

var (
	// ErrIllegalAction is returned when an action is not legal for the seat to act.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvalidRaise is returned when a raise-to amount is outside RaiseBounds.
	ErrInvalidRaise = errors.New("raise amount out of bounds")
)

// Street names the betting rounds by community card count.
const (
	Preflop = 0
	Flop    = 3
	Turn    = 4
	River   = 5
)

// Action represents a concrete player action
type Action int

const (
	Fold Action = iota
	Call
	Check
	Raise
)

func (a Action) String() string {
	return [...]string{"fold", "call", "check", "raise"}[a]
}

// ActionSet is a bitset of legal actions.
type ActionSet uint8

// NewActionSet returns a set holding actions.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s |= 1 << a
	}
	return s
}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	return s&(1<<a) != 0
}

func (s ActionSet) String() string {
	var parts []string
	for a := Fold; a <= Raise; a++ {
		if s.Has(a) {
			parts = append(parts, a.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Engine holds the table stakes shared by every hand.
type Engine struct {
	StartingStack int
	SmallBlind    int
	BigBlind      int
}

// DefaultEngine returns the 400 chip, 1/2 blind configuration.
func DefaultEngine() Engine {
	return Engine{StartingStack: 400, SmallBlind: 1, BigBlind: 2}
}

// Validate ensures the stakes describe a playable hand.
func (e Engine) Validate() error {
	if e.SmallBlind <= 0 {
		return errors.New("small blind must be > 0")
	}
	if e.BigBlind < e.SmallBlind {
		return errors.New("big blind must be >= small blind")
	}
	if e.StartingStack < e.BigBlind {
		return errors.New("starting stack must cover the big blind")
	}
	return nil
}
