// Package infoset defines the information set key shared by the game tree and
// the solver tables.
package infoset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/bountycfr/internal/abstraction"
)

const (
	// StackBucketWidth is the chip width of one stack bucket.
	StackBucketWidth = 40
	// MaxStackBucket caps the stack bucket; deeper stacks share it.
	MaxStackBucket = 9

	numFields = 7
	separator = "|"
)

// Key is the abstract view a player has at a decision. Two nodes with equal
// keys share regrets and strategy.
type Key struct {
	BountyHit int
	Preflop   int
	Flop      int
	Turn      int
	River     int
	MyStack   int
	OppStack  int
}

// StackBucket returns min(9, stack/40).
func StackBucket(stack int) int {
	return min(MaxStackBucket, stack/StackBucketWidth)
}

// New builds a key from oracle buckets and the raw stacks of both players.
func New(b abstraction.Buckets, myStack, oppStack int) Key {
	return Key{
		BountyHit: b.Bounty,
		Preflop:   b.Preflop,
		Flop:      b.Flop,
		Turn:      b.Turn,
		River:     b.River,
		MyStack:   StackBucket(myStack),
		OppStack:  StackBucket(oppStack),
	}
}

// String returns the canonical pipe separated form used as the table key.
func (k Key) String() string {
	var sb strings.Builder
	for i, v := range k.fields() {
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

func (k Key) fields() [numFields]int {
	return [numFields]int{k.BountyHit, k.Preflop, k.Flop, k.Turn, k.River, k.MyStack, k.OppStack}
}

// Parse is the inverse of Key.String.
func Parse(s string) (Key, error) {
	parts := strings.Split(s, separator)
	if len(parts) != numFields {
		return Key{}, fmt.Errorf("info set key %q: want %d fields, got %d", s, numFields, len(parts))
	}
	var vals [numFields]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Key{}, fmt.Errorf("info set key %q field %d: %w", s, i, err)
		}
		vals[i] = v
	}
	return Key{
		BountyHit: vals[0],
		Preflop:   vals[1],
		Flop:      vals[2],
		Turn:      vals[3],
		River:     vals[4],
		MyStack:   vals[5],
		OppStack:  vals[6],
	}, nil
}
