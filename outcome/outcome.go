// Package outcome records the decisions made while evaluating an offer.
//
// An Outcome is an immutable pass or fail verdict with a reason, the
// stage that produced it, optionally the resource it decided about, the
// recommendations it produced, and the sub-decisions that led to it.
// Outcomes are built bottom-up through a Builder:
//
//	child := outcome.Must(outcome.Fail(SourcePorts, "port %d unavailable", 8080)).Build()
//	o := outcome.Must(outcome.Pass(SourceCPU, "offer satisfies cpu request of %d", 2)).
//		AddChild(child).
//		Build()
//
// Verdicts never combine automatically: a passing outcome with failing
// children is still passing. Recommendations do combine, see Recommendations.
package outcome

import (
	"fmt"

	"offercube/offer"
)

// Verdict is the pass or fail value of an outcome.
type Verdict int

const (
	VerdictFail Verdict = iota
	VerdictPass
)

func (v Verdict) String() string {
	if v == VerdictPass {
		return "PASS"
	}
	return "FAIL"
}

// Source names the stage that produced an outcome. It is an audit label
// only and must never drive behavior.
type Source string

// Outcome is a frozen decision record. The zero value is not useful;
// build outcomes with Pass, PassWith or Fail.
type Outcome struct {
	verdict         Verdict
	source          Source
	reason          string
	resource        *offer.Resource
	recommendations []offer.Recommendation
	children        []*Outcome
}

// Passing reports this outcome's own verdict. Children are not consulted.
func (o *Outcome) Passing() bool {
	return o.verdict == VerdictPass
}

func (o *Outcome) Verdict() Verdict {
	return o.verdict
}

func (o *Outcome) Source() Source {
	return o.source
}

func (o *Outcome) Reason() string {
	return o.reason
}

// Children returns the sub-decisions in the order they were added.
func (o *Outcome) Children() []*Outcome {
	out := make([]*Outcome, len(o.children))
	copy(out, o.children)
	return out
}

// Resource returns the resource this outcome decided about, if any.
func (o *Outcome) Resource() (offer.Resource, bool) {
	if o.resource == nil {
		return offer.Resource{}, false
	}
	r := *o.resource
	r.Ranges = append([]offer.Range(nil), r.Ranges...)
	return r, true
}

// OwnRecommendations returns only the recommendations this node produced.
func (o *Outcome) OwnRecommendations() []offer.Recommendation {
	out := make([]offer.Recommendation, len(o.recommendations))
	copy(out, o.recommendations)
	return out
}

// Recommendations returns this outcome's recommendations followed by the
// recommendations of every child, depth first, in child order. Children
// contribute whatever their verdict: the tree records what was computed,
// not what was accepted. Use AcceptedRecommendations to skip failing
// branches. The returned slice is never shared with the outcome.
func (o *Outcome) Recommendations() []offer.Recommendation {
	var out []offer.Recommendation
	Walk(o, func(_ int, n *Outcome) bool {
		out = append(out, n.recommendations...)
		return true
	})
	if out == nil {
		out = []offer.Recommendation{}
	}
	return out
}

// String renders the one-line form "PASS(source): reason". Children are
// not included.
func (o *Outcome) String() string {
	return fmt.Sprintf("%s(%s): %s", o.verdict, o.source, o.reason)
}
