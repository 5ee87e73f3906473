package solver_test

import (
	"errors"
	rand "math/rand/v2"

	"github.com/lox/bountycfr/internal/solver"
)

// kuhn is three card Kuhn poker: one ante each, one bet of size one. The
// deal happens at a chance node below the root.
type kuhn struct{}

const (
	pass = 0
	bet  = 1
)

var errKuhnAction = errors.New("kuhn: illegal action")

func (kuhn) NumActions() int { return 2 }

func (kuhn) ActionNames() []string { return []string{"pass", "bet"} }

func (kuhn) InitialNode(rng *rand.Rand, startingPlayer int) (solver.Node, error) {
	return &kuhnNode{rng: rng, first: startingPlayer}, nil
}

type kuhnNode struct {
	rng     *rand.Rand
	first   int
	dealt   bool
	cards   [2]int
	history string
}

func (n *kuhnNode) Type() solver.NodeType {
	switch {
	case !n.dealt:
		return solver.ChanceNode
	case n.history == "pp", n.history == "bp", n.history == "bb", n.history == "pbp", n.history == "pbb":
		return solver.TerminalNode
	default:
		return solver.DecisionNode
	}
}

func (n *kuhnNode) ActivePlayer() int {
	if n.Type() != solver.DecisionNode {
		return -1
	}
	if len(n.history)%2 == 0 {
		return n.first
	}
	return 1 - n.first
}

func (n *kuhnNode) InfoSetKey(player int) (string, error) {
	return string("JQK"[n.cards[player]]) + n.history, nil
}

func (n *kuhnNode) LegalActions() []bool { return []bool{true, true} }

func (n *kuhnNode) ActionOutcome(action int) (solver.Node, error) {
	if n.Type() != solver.DecisionNode || action < pass || action > bet {
		return nil, errKuhnAction
	}
	next := *n
	next.history += string("pb"[action])
	return &next, nil
}

func (n *kuhnNode) ChanceOutcome() (solver.Node, error) {
	perm := n.rng.Perm(3)
	next := *n
	next.dealt = true
	next.cards = [2]int{perm[0], perm[1]}
	return &next, nil
}

func (n *kuhnNode) Utility(player int) float64 {
	if n.Type() != solver.TerminalNode {
		return 0
	}
	second := 1 - n.first
	var first float64 // utility of the seat that acted first
	showdown := func(stake float64) float64 {
		if n.cards[n.first] > n.cards[second] {
			return stake
		}
		return -stake
	}
	switch n.history {
	case "bp":
		first = 1
	case "pbp":
		first = -1
	case "pp":
		first = showdown(1)
	default:
		first = showdown(2)
	}
	if player == n.first {
		return first
	}
	return -first
}

// kuhnValue is the first player's expected payoff when both seats follow
// strategy, averaged over the six deals. Unknown rows play uniformly.
func kuhnValue(strategy map[string][]float64) float64 {
	var walk func(n *kuhnNode) float64
	walk = func(n *kuhnNode) float64 {
		if n.Type() == solver.TerminalNode {
			return n.Utility(0)
		}
		key, _ := n.InfoSetKey(n.ActivePlayer())
		probs, ok := strategy[key]
		if !ok || probs[pass]+probs[bet] == 0 {
			probs = []float64{0.5, 0.5}
		}
		v := 0.0
		for a := pass; a <= bet; a++ {
			child, _ := n.ActionOutcome(a)
			v += probs[a] * walk(child.(*kuhnNode))
		}
		return v
	}

	total := 0.0
	for c0 := range 3 {
		for c1 := range 3 {
			if c0 != c1 {
				total += walk(&kuhnNode{dealt: true, cards: [2]int{c0, c1}})
			}
		}
	}
	return total / 6
}
