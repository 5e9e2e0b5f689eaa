package outcome

import (
	"offercube/offer"
)

// Builder stages an Outcome. Verdict, source, reason and own
// recommendations are fixed when the builder is created; children and the
// resource can be set until Build.
type Builder struct {
	verdict         Verdict
	source          Source
	reason          string
	recommendations []offer.Recommendation
	resource        *offer.Resource
	children        []*Outcome
}

// Pass starts a passing outcome with no recommendations of its own.
func Pass(source Source, format string, args ...any) (*Builder, error) {
	return newBuilder(VerdictPass, source, nil, format, args)
}

// PassWith starts a passing outcome that produced the given recommendations.
func PassWith(source Source, recs []offer.Recommendation, format string, args ...any) (*Builder, error) {
	return newBuilder(VerdictPass, source, recs, format, args)
}

// Fail starts a failing outcome. Failing outcomes never carry
// recommendations of their own; only their children may.
func Fail(source Source, format string, args ...any) (*Builder, error) {
	return newBuilder(VerdictFail, source, nil, format, args)
}

// Must panics if err is non-nil. It is meant for reason templates that are
// constants in the calling stage.
func Must(b *Builder, err error) *Builder {
	if err != nil {
		panic(err)
	}
	return b
}

func newBuilder(v Verdict, source Source, recs []offer.Recommendation, format string, args []any) (*Builder, error) {
	reason, err := formatReason(format, args)
	if err != nil {
		return nil, err
	}
	own := make([]offer.Recommendation, len(recs))
	copy(own, recs)
	return &Builder{
		verdict:         v,
		source:          source,
		reason:          reason,
		recommendations: own,
	}, nil
}

// WithResource sets the resource the outcome decided about. A second call
// replaces the first.
func (b *Builder) WithResource(r offer.Resource) *Builder {
	b.resource = &r
	return b
}

// AddChild appends a sub-decision. Nil children are ignored.
func (b *Builder) AddChild(child *Outcome) *Builder {
	if child != nil {
		b.children = append(b.children, child)
	}
	return b
}

// AddChildren appends sub-decisions in order.
func (b *Builder) AddChildren(children []*Outcome) *Builder {
	for _, c := range children {
		b.AddChild(c)
	}
	return b
}

// Build snapshots the builder into a new Outcome. Build may be called
// again after further changes; each call yields an independent Outcome.
func (b *Builder) Build() *Outcome {
	o := &Outcome{
		verdict: b.verdict,
		source:  b.source,
		reason:  b.reason,
	}
	if b.resource != nil {
		r := *b.resource
		r.Ranges = append([]offer.Range(nil), r.Ranges...)
		o.resource = &r
	}
	o.recommendations = make([]offer.Recommendation, len(b.recommendations))
	copy(o.recommendations, b.recommendations)
	o.children = make([]*Outcome, len(b.children))
	copy(o.children, b.children)
	return o
}
