package cluster

import (
	"math/rand"

	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/topology"
)

// SelectionCriteria narrows the candidate set for one operation.
type SelectionCriteria struct {
	ForWrite     bool
	Pref         ReadPreference
	Tags         []map[string]string // ordered alternatives, first matching set wins
	TagStrictAND bool                // Open Question: AND semantics within one tag set vs any-key match
}

// Select implements spec §4.5's selection algorithm:
//  1. direct mode always returns the sole configured node;
//  2. a write (or ReadPrimary) requires the primary, erring if none is up;
//  3. otherwise gather nodes matching the read preference's role filter;
//  4. narrow by tag sets in priority order, falling back to the unfiltered
//     set if no tag set matches any node (spec §4.5's tag-set fallback);
//  5. narrow further to nodes within sec_latency_ms of the fastest candidate
//     (unmeasured nodes are treated as farthest, never selected ahead of a
//     measured one — the Open Question's resolution, see DESIGN.md);
//  6. break ties uniformly at random across the surviving set.
func Select(nodes []*topology.Node, mode Mode, secLatencyMS int, crit SelectionCriteria) (*topology.Node, error) {
	if len(nodes) == 0 {
		return nil, cos.NewErrClientNotReady()
	}
	if mode == ModeDirect {
		return nodes[0], nil
	}

	if crit.ForWrite || crit.Pref == ReadPrimary {
		for _, n := range nodes {
			if n.Primary {
				return n, nil
			}
		}
		return nil, cos.NewErrClientNotReady()
	}

	candidates := filterByRole(nodes, crit.Pref)
	if len(candidates) == 0 {
		return nil, cos.NewErrClientNotReady()
	}

	if len(crit.Tags) > 0 {
		if tagged := filterByTags(candidates, crit.Tags, crit.TagStrictAND); len(tagged) > 0 {
			candidates = tagged
		}
	}

	nearest := filterByLatency(candidates, secLatencyMS)
	return nearest[rand.Intn(len(nearest))], nil
}

func filterByRole(nodes []*topology.Node, pref ReadPreference) []*topology.Node {
	var out []*topology.Node
	for _, n := range nodes {
		switch pref {
		case ReadSecondary:
			if n.Secondary && !n.Hidden {
				out = append(out, n)
			}
		case ReadPrimaryPreferred:
			if n.Primary {
				return []*topology.Node{n}
			}
			if n.Secondary && !n.Hidden {
				out = append(out, n)
			}
		case ReadSecondaryPreferred:
			if n.Secondary && !n.Hidden {
				out = append(out, n)
			}
			if len(out) == 0 && n.Primary {
				out = append(out, n)
			}
		case ReadNearest:
			if (n.Primary || n.Secondary) && !n.Hidden {
				out = append(out, n)
			}
		default:
			if n.Primary {
				out = append(out, n)
			}
		}
	}
	return out
}

func filterByTags(nodes []*topology.Node, tagSets []map[string]string, strictAND bool) []*topology.Node {
	for _, set := range tagSets {
		var matched []*topology.Node
		for _, n := range nodes {
			if tagsMatch(n.Tags, set, strictAND) {
				matched = append(matched, n)
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	return nil
}

func tagsMatch(nodeTags, want map[string]string, strictAND bool) bool {
	if len(want) == 0 {
		return true
	}
	matchedAny := false
	for k, v := range want {
		if nodeTags[k] == v {
			matchedAny = true
		} else if strictAND {
			return false
		}
	}
	if strictAND {
		return true
	}
	return matchedAny
}

// filterByLatency keeps nodes within secLatencyMS of the fastest measured
// node. An unmeasured node (no ismaster round-trip yet) is never closer
// than any measured node, so it only survives when nothing has been
// measured at all.
func filterByLatency(nodes []*topology.Node, secLatencyMS int) []*topology.Node {
	minPing := -1.0
	for _, n := range nodes {
		if !n.Measured {
			continue
		}
		if minPing < 0 || n.PingMS < minPing {
			minPing = n.PingMS
		}
	}
	if minPing < 0 {
		return nodes // nothing measured yet: every candidate is equally unknown
	}
	var out []*topology.Node
	threshold := minPing + float64(secLatencyMS)
	for _, n := range nodes {
		if n.Measured && n.PingMS <= threshold {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nodes
	}
	return out
}
