package cluster

import (
	"testing"

	"github.com/nereusdb/ndbc/topology"
)

func node(host string, primary, secondary bool, ping float64, measured bool, tags map[string]string) *topology.Node {
	return &topology.Node{Host: host, Primary: primary, Secondary: secondary, PingMS: ping, Measured: measured, Tags: tags}
}

func TestSelectDirectModeReturnsSoleNode(t *testing.T) {
	n := node("a", false, false, 0, false, nil)
	got, err := Select([]*topology.Node{n}, ModeDirect, 15, SelectionCriteria{})
	if err != nil || got != n {
		t.Fatalf("Select direct: got=%v err=%v", got, err)
	}
}

func TestSelectWriteRequiresPrimary(t *testing.T) {
	sec := node("s", false, true, 1, true, nil)
	_, err := Select([]*topology.Node{sec}, ModeReplicaSet, 15, SelectionCriteria{ForWrite: true})
	if err == nil {
		t.Fatal("expected error: no primary available for write")
	}

	pri := node("p", true, false, 1, true, nil)
	got, err := Select([]*topology.Node{sec, pri}, ModeReplicaSet, 15, SelectionCriteria{ForWrite: true})
	if err != nil || got != pri {
		t.Fatalf("expected primary selected for write, got %v err=%v", got, err)
	}
}

func TestSelectNearestFiltersByLatencyThreshold(t *testing.T) {
	near := node("near", false, true, 5, true, nil)
	far := node("far", false, true, 50, true, nil)
	nodes := []*topology.Node{near, far}
	for i := 0; i < 20; i++ {
		got, err := Select(nodes, ModeReplicaSet, 15, SelectionCriteria{Pref: ReadNearest})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if got != near {
			t.Fatalf("expected only the near node to survive the latency filter, got %s", got.Host)
		}
	}
}

func TestSelectUnmeasuredNodeNeverBeatsMeasured(t *testing.T) {
	measured := node("m", false, true, 5, true, nil)
	unmeasured := node("u", false, true, 0, false, nil)
	nodes := []*topology.Node{measured, unmeasured}
	for i := 0; i < 20; i++ {
		got, err := Select(nodes, ModeReplicaSet, 15, SelectionCriteria{Pref: ReadSecondary})
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if got != measured {
			t.Fatalf("unmeasured node must never be selected over a measured one, got %s", got.Host)
		}
	}
}

func TestSelectTagSetFallsBackWhenNoneMatch(t *testing.T) {
	a := node("a", false, true, 1, true, map[string]string{"dc": "east"})
	b := node("b", false, true, 1, true, map[string]string{"dc": "west"})
	nodes := []*topology.Node{a, b}
	got, err := Select(nodes, ModeReplicaSet, 15, SelectionCriteria{
		Pref: ReadSecondary,
		Tags: []map[string]string{{"dc": "nonexistent"}},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != a && got != b {
		t.Fatalf("expected fallback to unfiltered candidates, got %v", got)
	}
}

func TestSelectErrorsWhenNoCandidates(t *testing.T) {
	hidden := node("h", false, true, 1, true, nil)
	hidden.Hidden = true
	_, err := Select([]*topology.Node{hidden}, ModeReplicaSet, 15, SelectionCriteria{Pref: ReadSecondary})
	if err == nil {
		t.Fatal("expected error when every candidate is hidden")
	}
}
