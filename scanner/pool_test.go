package scanner

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/netio"
	"github.com/nereusdb/ndbc/topology"
	"github.com/nereusdb/ndbc/wire"
)

// serveOneReply reads a gathered OP_QUERY off conn and writes back a
// minimal OP_REPLY correlated to the request_id it observed.
func serveOneReply(t *testing.T, conn net.Conn) {
	t.Helper()
	hdr := make([]byte, wire.HeaderSize)
	if _, err := readFull(conn, hdr); err != nil {
		t.Errorf("serveOneReply: read header: %v", err)
		return
	}
	n := wire.PeekMessageLength(hdr)
	body := make([]byte, n-wire.HeaderSize)
	if _, err := readFull(conn, body); err != nil {
		t.Errorf("serveOneReply: read body: %v", err)
		return
	}
	full := append(hdr, body...)
	reqRPC, err := wire.Scatter(full)
	if err != nil {
		t.Errorf("serveOneReply: scatter request: %v", err)
		return
	}

	doc := bsondoc.NewBuilder().AppendInt32("ok", 1).Finish()
	reply := &wire.RPC{
		Header: wire.Header{ResponseTo: reqRPC.Header.RequestID, Opcode: wire.OpReply},
		Reply:  &wire.ReplyBody{NumberReturned: 1, Documents: bsondoc.StreamOf(doc)},
	}
	bufs, _, err := wire.Gather(reply)
	if err != nil {
		t.Errorf("serveOneReply: gather reply: %v", err)
		return
	}
	if _, err := bufs.WriteTo(conn); err != nil {
		t.Errorf("serveOneReply: write reply: %v", err)
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestPoolSubmitRunsThroughToDone(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		serveOneReply(t, server)
	}()

	node := &topology.Node{Host: "x", Stream: netio.NewBufferedStream(netio.NewRawStream(client))}
	rpc := &wire.RPC{
		Header: wire.Header{RequestID: 1, Opcode: wire.OpQuery},
		Query: &wire.QueryBody{
			FullCollectionName: "db.$cmd",
			NumberToReturn:     -1,
			Query:              bsondoc.NewBuilder().AppendInt32("ping", 1).Finish(),
		},
	}

	pool := NewPool(4)
	done := make(chan struct{})
	var gotReply *wire.RPC
	var gotErr error
	pool.Submit(context.Background(), node, rpc, 2*time.Second, func(reply *wire.RPC, err error) {
		gotReply, gotErr = reply, err
		close(done)
	})

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("command did not complete in time")
	}
	pool.Wait()

	if gotErr != nil {
		t.Fatalf("command failed: %v", gotErr)
	}
	if gotReply == nil || gotReply.Reply == nil {
		t.Fatal("expected a REPLY rpc")
	}
	if gotReply.Header.ResponseTo != 1 {
		t.Fatalf("response_to = %d, want 1", gotReply.Header.ResponseTo)
	}
}
