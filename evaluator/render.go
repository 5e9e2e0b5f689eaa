package evaluator

import (
	"strings"

	"offercube/offer"
	"offercube/outcome"
)

// Lines renders each outcome in the tree on its own line, indented two
// spaces per level.
func Lines(o *outcome.Outcome) []string {
	var lines []string
	outcome.Walk(o, func(depth int, n *outcome.Outcome) bool {
		lines = append(lines, strings.Repeat("  ", depth)+n.String())
		return true
	})
	return lines
}

// Tree renders the whole outcome tree as text:
//
//	PASS(OfferEvaluator): all 7 stages passed
//	  PASS(PlacementStage): no placement constraints
//	  PASS(ResourceStage): offer satisfies cpus request of 1.00 (offered 4.00)
func Tree(o *outcome.Outcome) string {
	return strings.Join(Lines(o), "\n")
}

// Report is a JSON view of an outcome tree.
type Report struct {
	Verdict         string          `json:"verdict"`
	Source          string          `json:"source"`
	Reason          string          `json:"reason"`
	Resource        *offer.Resource `json:"resource,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Children        []*Report       `json:"children,omitempty"`
}

func NewReport(o *outcome.Outcome) *Report {
	if o == nil {
		return nil
	}
	r := &Report{
		Verdict:         o.Verdict().String(),
		Source:          string(o.Source()),
		Reason:          o.Reason(),
		Recommendations: offer.Strings(o.OwnRecommendations()),
	}
	if res, ok := o.Resource(); ok {
		r.Resource = &res
	}
	for _, c := range o.Children() {
		r.Children = append(r.Children, NewReport(c))
	}
	return r
}
