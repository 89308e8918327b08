// Package cursor implements lazy result iteration over OP_QUERY/OP_GET_MORE,
// per spec §4.7: a cursor fetches its first batch eagerly on construction,
// then issues GET_MORE only when the caller has exhausted the current
// batch, and kills its server-side cursor on Close if one remains open.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package cursor

import (
	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/topology"
	"github.com/nereusdb/ndbc/wire"
)

// Sender is the subset of *cluster.Cluster a Cursor needs: one RPC
// round-trip against a pinned node. Depending on cluster rather than a
// concrete type keeps this package free of an import cycle (cluster
// doesn't need to know cursor exists).
type Sender interface {
	SendRPC(n *topology.Node, rpc *wire.RPC) (*wire.RPC, error)
}

// Cursor iterates a query's results, batch by batch.
type Cursor struct {
	sender Sender
	node   *topology.Node
	stamp  int64 // node.Stamp at the time this cursor was pinned

	ns       string
	cursorID int64
	batch    []bsondoc.Doc
	pos      int
	exhausted bool
	err       error

	batchSize int32
}

// Open sends the initial OP_QUERY and returns a positioned Cursor.
func Open(sender Sender, node *topology.Node, fullCollectionName string, flags uint32, skip, batchSize int32, query, projection bsondoc.Doc) (*Cursor, error) {
	rpc := &wire.RPC{
		Header: wire.Header{Opcode: wire.OpQuery},
		Query: &wire.QueryBody{
			Flags:                flags,
			FullCollectionName:   fullCollectionName,
			NumberToSkip:         skip,
			NumberToReturn:       batchSize,
			Query:                query,
			ReturnFieldsSelector: projection,
		},
	}
	reply, err := sender.SendRPC(node, rpc)
	if err != nil {
		return nil, err
	}
	c := &Cursor{
		sender:    sender,
		node:      node,
		stamp:     node.Stamp,
		ns:        fullCollectionName,
		batchSize: batchSize,
	}
	if err := c.consumeReply(reply); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor) consumeReply(reply *wire.RPC) error {
	if reply.Reply == nil {
		return cos.NewErrProtocolInvalidReply("expected REPLY opcode")
	}
	if reply.Reply.ResponseFlags&wire.ReplyFlagQueryFailure != 0 {
		docs, _ := reply.Reply.Documents.All()
		errmsg := "query failure"
		var code int32
		if len(docs) > 0 {
			if v, ok := docs[0].Lookup("$err"); ok {
				errmsg = v.Str
			}
			if v, ok := docs[0].Lookup("code"); ok {
				code = v.I32
			}
		}
		return cos.NewErrQueryFailure(code, errmsg)
	}
	if reply.Reply.ResponseFlags&wire.ReplyFlagCursorNotFound != 0 {
		return cos.NewErrCursorInvalid("cursor not found on server")
	}
	docs, err := reply.Reply.Documents.All()
	if err != nil {
		return err
	}
	c.batch = docs
	c.pos = 0
	c.cursorID = reply.Reply.CursorID
	if c.cursorID == 0 {
		c.exhausted = true
	}
	return nil
}

// stale reports whether the pinned node's connection has been torn down and
// re-established since this cursor was opened (spec §4.7's staleness check).
func (c *Cursor) stale() bool { return c.node.Stamp != c.stamp }

// Next advances to the next document, fetching a new batch via GET_MORE if
// the current one is exhausted. Returns false at end of results or on error
// (check Err to distinguish the two).
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if c.pos < len(c.batch) {
		c.pos++
		return true
	}
	if c.exhausted {
		return false
	}
	if c.stale() {
		c.err = cos.NewErrCursorInvalid("cursor's pinned connection to %s was replaced", c.node.Key())
		return false
	}
	if err := c.fetchMore(); err != nil {
		c.err = err
		return false
	}
	if len(c.batch) == 0 {
		return false
	}
	c.pos = 1
	return true
}

func (c *Cursor) fetchMore() error {
	rpc := &wire.RPC{
		Header: wire.Header{Opcode: wire.OpGetMore},
		GetMore: &wire.GetMoreBody{
			FullCollectionName: c.ns,
			NumberToReturn:     c.batchSize,
			CursorID:           c.cursorID,
		},
	}
	reply, err := c.sender.SendRPC(c.node, rpc)
	if err != nil {
		return err
	}
	return c.consumeReply(reply)
}

// Current returns the document Next last positioned on.
func (c *Cursor) Current() bsondoc.Doc {
	if c.pos == 0 || c.pos > len(c.batch) {
		return bsondoc.Doc{}
	}
	return c.batch[c.pos-1]
}

func (c *Cursor) Err() error { return c.err }

// Close kills the server-side cursor if one remains open, per spec §4.7/§8's
// "kill-cursor-on-destroy" property.
func (c *Cursor) Close() error {
	if c.cursorID == 0 || c.stale() {
		return nil
	}
	rpc := &wire.RPC{
		Header:      wire.Header{Opcode: wire.OpKillCursors},
		KillCursors: &wire.KillCursorsBody{CursorIDs: []int64{c.cursorID}},
	}
	bufs, _, err := wire.Gather(rpc)
	if err != nil {
		return err
	}
	_, err = c.node.Stream.Writev(bufs)
	c.cursorID = 0
	return err
}
