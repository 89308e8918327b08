package wire

import (
	"testing"

	"github.com/nereusdb/ndbc/bsondoc"
)

func gatherToBytes(t *testing.T, rpc *RPC) []byte {
	t.Helper()
	bufs, total, err := Gather(rpc)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var out []byte
	for _, b := range bufs {
		out = append(out, b...)
	}
	if int32(len(out)) != total {
		t.Fatalf("gathered %d bytes, header says %d", len(out), total)
	}
	return out
}

func TestRoundTripQuery(t *testing.T) {
	q := bsondoc.NewBuilder().AppendString("find", "coll").Finish()
	rpc := &RPC{
		Header: Header{RequestID: 7, Opcode: OpQuery},
		Query: &QueryBody{
			Flags:              QueryFlagSlaveOK,
			FullCollectionName: "test.coll",
			NumberToReturn:     100,
			Query:              q,
		},
	}
	buf := gatherToBytes(t, rpc)

	got, err := Scatter(buf)
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	if got.Header.Opcode != OpQuery {
		t.Fatalf("opcode = %v, want QUERY", got.Header.Opcode)
	}
	if got.Header.RequestID != 7 {
		t.Fatalf("request_id = %d, want 7", got.Header.RequestID)
	}
	if got.Query.FullCollectionName != "test.coll" {
		t.Fatalf("collection = %q", got.Query.FullCollectionName)
	}
	if got.Query.NumberToReturn != 100 {
		t.Fatalf("numberToReturn = %d", got.Query.NumberToReturn)
	}
	if got.Query.Flags != QueryFlagSlaveOK {
		t.Fatalf("flags = %d", got.Query.Flags)
	}
}

func TestRoundTripInsertStream(t *testing.T) {
	d1 := bsondoc.NewBuilder().AppendInt32("n", 1).Finish()
	d2 := bsondoc.NewBuilder().AppendInt32("n", 2).Finish()
	stream := bsondoc.StreamOf(d1, d2)

	rpc := &RPC{
		Header: Header{RequestID: 1, Opcode: OpInsert},
		Insert: &InsertBody{FullCollectionName: "db.coll", Documents: stream},
	}
	buf := gatherToBytes(t, rpc)

	got, err := Scatter(buf)
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	docs, err := got.Insert.Documents.All()
	if err != nil {
		t.Fatalf("Documents.All: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if v, _ := docs[0].Lookup("n"); v.I32 != 1 {
		t.Errorf("docs[0].n = %d, want 1", v.I32)
	}
	if v, _ := docs[1].Lookup("n"); v.I32 != 2 {
		t.Errorf("docs[1].n = %d, want 2", v.I32)
	}
}

func TestRoundTripReply(t *testing.T) {
	d := bsondoc.NewBuilder().AppendString("ok", "1").Finish()
	rpc := &RPC{
		Header: Header{RequestID: 9, ResponseTo: 7, Opcode: OpReply},
		Reply: &ReplyBody{
			CursorID:       42,
			NumberReturned: 1,
			Documents:      bsondoc.StreamOf(d),
		},
	}
	buf := gatherToBytes(t, rpc)

	got, err := Scatter(buf)
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	if got.Reply.CursorID != 42 {
		t.Fatalf("cursorID = %d, want 42", got.Reply.CursorID)
	}
	docs, err := got.Reply.Documents.All()
	if err != nil || len(docs) != 1 {
		t.Fatalf("Documents.All: %v, %d docs", err, len(docs))
	}
}

func TestRoundTripGetMoreAndKillCursors(t *testing.T) {
	gm := &RPC{
		Header:  Header{Opcode: OpGetMore},
		GetMore: &GetMoreBody{FullCollectionName: "db.coll", NumberToReturn: 0, CursorID: 99},
	}
	buf := gatherToBytes(t, gm)
	got, err := Scatter(buf)
	if err != nil {
		t.Fatalf("Scatter GET_MORE: %v", err)
	}
	if got.GetMore.CursorID != 99 {
		t.Fatalf("cursorID = %d, want 99", got.GetMore.CursorID)
	}

	kc := &RPC{
		Header:      Header{Opcode: OpKillCursors},
		KillCursors: &KillCursorsBody{CursorIDs: []int64{1, 2, 3}},
	}
	buf = gatherToBytes(t, kc)
	got, err = Scatter(buf)
	if err != nil {
		t.Fatalf("Scatter KILL_CURSORS: %v", err)
	}
	if len(got.KillCursors.CursorIDs) != 3 || got.KillCursors.CursorIDs[1] != 2 {
		t.Fatalf("cursorIDs = %v", got.KillCursors.CursorIDs)
	}
}

func TestScatterRejectsShortHeaderAndOversizedLength(t *testing.T) {
	if _, err := Scatter([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for buffer shorter than header")
	}
	oversized := make([]byte, HeaderSize)
	putInt32(oversized[0:4], MaxMessageSize+1)
	if _, err := Scatter(oversized); err == nil {
		t.Fatal("expected error for message_length exceeding MaxMessageSize")
	}
}
