package cursor

import (
	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/topology"
)

// FromCommandReply adapts a single command reply's embedded
// {cursor: {id, ns, firstBatch}} shape (the aggregate/listCollections-style
// cursor envelope) into a Cursor that fetches subsequent batches the same
// way a query cursor does, per spec §4.7's command-cursor variant.
func FromCommandReply(sender Sender, node *topology.Node, reply bsondoc.Doc, batchSize int32) (*Cursor, error) {
	cv, ok := reply.Lookup("cursor")
	if !ok || cv.Type != bsondoc.TypeDocument {
		return nil, cos.NewErrCursorInvalid("command reply has no cursor field")
	}
	cur := cv.Doc

	var ns string
	if v, ok := cur.Lookup("ns"); ok {
		ns = v.Str
	}
	var id int64
	if v, ok := cur.Lookup("id"); ok {
		id = v.I64
	}
	var batch []bsondoc.Doc
	if v, ok := cur.Lookup("firstBatch"); ok && v.Type == bsondoc.TypeArray {
		it := v.Doc.Iterator()
		for it.Next() {
			if it.Value().Type == bsondoc.TypeDocument {
				batch = append(batch, it.Value().Doc)
			}
		}
		if err := it.Err(); err != nil {
			return nil, err
		}
	}

	c := &Cursor{
		sender:    sender,
		node:      node,
		stamp:     node.Stamp,
		ns:        ns,
		cursorID:  id,
		batch:     batch,
		batchSize: batchSize,
	}
	if id == 0 {
		c.exhausted = true
	}
	return c, nil
}

// FromArrayResult adapts a command reply whose entire result set is a single
// inline {result: [...]} array (no server-side cursor at all) into the same
// Cursor interface, per spec §4.7's array-result variant: Next/Current/Err
// work identically, but Close is a no-op since there's no cursor to kill.
func FromArrayResult(reply bsondoc.Doc, field string) (*Cursor, error) {
	v, ok := reply.Lookup(field)
	if !ok || v.Type != bsondoc.TypeArray {
		return nil, cos.NewErrCursorInvalid("command reply has no %q array field", field)
	}
	var batch []bsondoc.Doc
	it := v.Doc.Iterator()
	for it.Next() {
		if it.Value().Type == bsondoc.TypeDocument {
			batch = append(batch, it.Value().Doc)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return &Cursor{batch: batch, exhausted: true}, nil
}
