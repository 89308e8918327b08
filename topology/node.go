// Package topology models a resolved cluster's node list: the host set, the
// per-node connection state, and a persistent seed/topology cache keyed by
// URI shape, per spec §3/§4.5.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package topology

import (
	"time"

	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/netio"
)

// Node is one member of a cluster: its address, connection, and the
// ismaster-derived metadata the selection algorithm filters on.
type Node struct {
	Host string
	Port int

	Stream netio.Stream

	Primary      bool
	Secondary    bool
	Hidden       bool
	Tags         map[string]string
	PingMS       float64
	Measured     bool // false until at least one ismaster round-trip completed
	Stamp        int64
	NeedsAuth    bool
	MaxMsgSize   int32
	MaxBSONSize  int32
	WireVersion  int32
	LastSeen     time.Time
}

// Key identifies a node uniquely within a cluster for map/selection bookkeeping.
func (n *Node) Key() string { return n.Host + ":" + itoa(n.Port) }

// TouchStamp bumps the node's monotonic stamp, the mechanism the cursor
// engine uses to detect that a cursor's pinned connection was torn down and
// reconnected underneath it (spec §4.7's staleness check).
func (n *Node) TouchStamp() { n.Stamp++ }

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// List is the resolved host list for a cluster, bounded by
// config.MaxNodesPerCluster per spec §3 ("no heap allocation on the hot
// send/receive path" becomes, in Go, "no unbounded slice growth").
type List struct {
	Nodes []*Node
	Max   int
}

func NewList(max int) *List { return &List{Max: max} }

func (l *List) Add(n *Node) error {
	if len(l.Nodes) >= l.Max {
		return cos.NewErr(cos.DomainClient, cos.CodeClientTooBig, "cluster already has max %d nodes", l.Max)
	}
	l.Nodes = append(l.Nodes, n)
	return nil
}

func (l *List) Find(host string, port int) *Node {
	for _, n := range l.Nodes {
		if n.Host == host && n.Port == port {
			return n
		}
	}
	return nil
}

func (l *List) Remove(n *Node) {
	for i, x := range l.Nodes {
		if x == n {
			l.Nodes = append(l.Nodes[:i], l.Nodes[i+1:]...)
			return
		}
	}
}
