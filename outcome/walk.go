package outcome

import (
	"github.com/golang-collections/collections/stack"

	"offercube/offer"
)

type frame struct {
	depth int
	node  *Outcome
}

// Walk visits o and its descendants in pre-order: a node, then each child
// subtree in insertion order. Returning false from fn skips the node's
// children.
func Walk(o *Outcome, fn func(depth int, o *Outcome) bool) {
	if o == nil {
		return
	}
	s := stack.New()
	s.Push(frame{node: o})
	for s.Len() > 0 {
		f := s.Pop().(frame)
		if !fn(f.depth, f.node) {
			continue
		}
		for i := len(f.node.children) - 1; i >= 0; i-- {
			s.Push(frame{depth: f.depth + 1, node: f.node.children[i]})
		}
	}
}

// AcceptedRecommendations aggregates like Recommendations but never
// descends into a failing outcome, so only recommendations whose whole
// ancestry passed are returned.
func AcceptedRecommendations(o *Outcome) []offer.Recommendation {
	out := []offer.Recommendation{}
	Walk(o, func(_ int, n *Outcome) bool {
		if !n.Passing() {
			return false
		}
		out = append(out, n.recommendations...)
		return true
	})
	return out
}

// Failures returns every failing outcome in the tree, in pre-order.
func Failures(o *Outcome) []*Outcome {
	var out []*Outcome
	Walk(o, func(_ int, n *Outcome) bool {
		if !n.Passing() {
			out = append(out, n)
		}
		return true
	})
	return out
}
