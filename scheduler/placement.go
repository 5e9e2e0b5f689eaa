package scheduler

import (
	"slices"
	"sort"

	"offercube/offer"
	"offercube/outcome"
	"offercube/task"
)

const (
	SourcePlacement outcome.Source = "PlacementStage"
	SourceHostname  outcome.Source = "HostnameRule"
	SourceAttribute outcome.Source = "AttributeRule"
)

// PlacementStage checks the task's placement constraints against the
// offering agent: an allow-list of hostnames and required attribute
// values. Every rule becomes a child and all of them must pass.
type PlacementStage struct{}

func (s *PlacementStage) Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error) {
	var rules []*outcome.Outcome

	if len(t.Placement.Hostnames) > 0 {
		var (
			b   *outcome.Builder
			err error
		)
		if slices.Contains(t.Placement.Hostnames, o.Hostname) {
			b, err = outcome.Pass(SourceHostname, "hostname %s is allowed", o.Hostname)
		} else {
			b, err = outcome.Fail(SourceHostname, "hostname %s not in %v", o.Hostname, t.Placement.Hostnames)
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, b.Build())
	}

	keys := make([]string, 0, len(t.Placement.Attributes))
	for k := range t.Placement.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		want := t.Placement.Attributes[k]
		got, ok := o.Attributes[k]

		var (
			b   *outcome.Builder
			err error
		)
		switch {
		case !ok:
			b, err = outcome.Fail(SourceAttribute, "attribute %s missing, want %q", k, want)
		case got != want:
			b, err = outcome.Fail(SourceAttribute, "attribute %s is %q, want %q", k, got, want)
		default:
			b, err = outcome.Pass(SourceAttribute, "attribute %s=%s matches", k, got)
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, b.Build())
	}

	failed := 0
	for _, r := range rules {
		if !r.Passing() {
			failed++
		}
	}

	var (
		b   *outcome.Builder
		err error
	)
	switch {
	case len(rules) == 0:
		b, err = outcome.Pass(SourcePlacement, "no placement constraints")
	case failed == 0:
		b, err = outcome.Pass(SourcePlacement, "agent %s satisfies %d placement rules", o.AgentID, len(rules))
	default:
		b, err = outcome.Fail(SourcePlacement, "agent %s violates %d of %d placement rules", o.AgentID, failed, len(rules))
	}
	if err != nil {
		return nil, err
	}
	return b.AddChildren(rules).Build(), nil
}
