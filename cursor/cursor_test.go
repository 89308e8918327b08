package cursor

import (
	"testing"

	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/topology"
	"github.com/nereusdb/ndbc/wire"
)

// fakeSender scripts a fixed sequence of replies, one per SendRPC call, and
// records which opcodes it was asked to send.
type fakeSender struct {
	replies []*wire.RPC
	calls   []wire.Opcode
	i       int
}

func (f *fakeSender) SendRPC(n *topology.Node, rpc *wire.RPC) (*wire.RPC, error) {
	f.calls = append(f.calls, rpc.Header.Opcode)
	r := f.replies[f.i]
	f.i++
	return r, nil
}

func replyWith(cursorID int64, docs ...bsondoc.Doc) *wire.RPC {
	return &wire.RPC{
		Header: wire.Header{Opcode: wire.OpReply},
		Reply: &wire.ReplyBody{
			CursorID:       cursorID,
			NumberReturned: int32(len(docs)),
			Documents:      bsondoc.StreamOf(docs...),
		},
	}
}

func doc(n int32) bsondoc.Doc {
	return bsondoc.NewBuilder().AppendInt32("n", n).Finish()
}

func TestCursorDrainsAcrossGetMore(t *testing.T) {
	sender := &fakeSender{
		replies: []*wire.RPC{
			replyWith(42, doc(1), doc(2)),
			replyWith(0, doc(3)), // cursorID 0 signals exhaustion
		},
	}
	node := &topology.Node{Host: "n"}

	c, err := Open(sender, node, "db.coll", 0, 0, 2, bsondoc.NewBuilder().Finish(), bsondoc.Doc{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var got []int32
	for c.Next() {
		v, _ := c.Current().Lookup("n")
		got = append(got, v.I32)
	}
	if err := c.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
	if len(sender.calls) != 2 || sender.calls[1] != wire.OpGetMore {
		t.Fatalf("expected one GET_MORE call, got %v", sender.calls)
	}
}

func TestCursorStaleConnectionIsDetected(t *testing.T) {
	sender := &fakeSender{replies: []*wire.RPC{replyWith(7, doc(1))}}
	node := &topology.Node{Host: "n"}

	c, err := Open(sender, node, "db.coll", 0, 0, 1, bsondoc.NewBuilder().Finish(), bsondoc.Doc{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.Next() // consume the first (and only) batched doc

	node.TouchStamp() // simulate a reconnect swapping the underlying stream
	if c.Next() {
		t.Fatal("expected Next to fail once the pinned connection is stale")
	}
	if c.Err() == nil {
		t.Fatal("expected a staleness error")
	}
}

func TestFromArrayResultExhaustsImmediately(t *testing.T) {
	reply := bsondoc.NewBuilder().AppendArray("result", []bsondoc.Doc{doc(1), doc(2)}).Finish()
	c, err := FromArrayResult(reply, "result")
	if err != nil {
		t.Fatalf("FromArrayResult: %v", err)
	}
	count := 0
	for c.Next() {
		count++
	}
	if count != 2 {
		t.Fatalf("got %d docs, want 2", count)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on array-result cursor should be a no-op: %v", err)
	}
}
