// Package collection is the façade spec §4.8 describes: one type per
// namespace offering insert/update/delete/find/count/aggregate/index
// management, each built out of the wire/cluster/cursor layers underneath.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package collection

import (
	"strings"

	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cluster"
	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/cursor"
	"github.com/nereusdb/ndbc/topology"
	"github.com/nereusdb/ndbc/wire"
)

// Collection is a handle to one namespace ("database.collection") against
// a connected Cluster.
type Collection struct {
	cl       *cluster.Cluster
	db, name string
}

func New(cl *cluster.Cluster, db, name string) *Collection {
	return &Collection{cl: cl, db: db, name: name}
}

func (c *Collection) fullName() string { return c.db + "." + c.name }

// DefaultWriteConcern returns the write concern the owning Cluster was
// configured with from the connection URI's w/journal/wtimeoutMS options
// (spec §6), for callers that want to acknowledge writes at the URI's
// configured level rather than picking one themselves.
func (c *Collection) DefaultWriteConcern() cluster.WriteConcern { return c.cl.DefaultWriteConcern }

// validateKey rejects keys containing '.' or a leading '$', per spec §4.8,
// except the handful of known positional/update operators that legitimately
// start with '$' ($set, $inc, $push, ...), which validateTopLevelKeys lets
// through when called for an update document.
func validateKey(key string) error {
	if strings.Contains(key, ".") {
		return cos.NewErr(cos.DomainCommand, cos.CodeCommandInvalidArg, "key %q must not contain '.'", key)
	}
	if strings.HasPrefix(key, "$") {
		return cos.NewErr(cos.DomainCommand, cos.CodeCommandInvalidArg, "key %q must not start with '$'", key)
	}
	return nil
}

var knownUpdateOperators = map[string]bool{
	"$set": true, "$unset": true, "$inc": true, "$push": true, "$pull": true,
	"$addToSet": true, "$pop": true, "$rename": true, "$currentDate": true,
}

func validateTopLevelKeys(doc bsondoc.Doc, allowOperators bool) error {
	it := doc.Iterator()
	for it.Next() {
		k := it.Key()
		if allowOperators && strings.HasPrefix(k, "$") {
			if !knownUpdateOperators[k] {
				return cos.NewErr(cos.DomainCommand, cos.CodeCommandInvalidArg, "unknown update operator %q", k)
			}
			continue
		}
		if err := validateKey(k); err != nil {
			return err
		}
	}
	return it.Err()
}

// Insert writes a single document. wc controls whether (and how) the write
// is acknowledged via a follow-up getLastError, per spec §4.8/§2.
func (c *Collection) Insert(doc bsondoc.Doc, wc cluster.WriteConcern) error {
	if err := validateTopLevelKeys(doc, false); err != nil {
		return err
	}
	return c.insertStream(bsondoc.StreamOf(doc), 0, wc)
}

// InsertBulk writes many documents in one OP_INSERT, optionally continuing
// past individual failures when continueOnError is set. A client-side
// cuckoo filter flags any repeated "_id" within the batch before it ever
// reaches the wire.
func (c *Collection) InsertBulk(docs []bsondoc.Doc, continueOnError bool, wc cluster.WriteConcern) error {
	guard := newDupGuard(len(docs))
	for _, d := range docs {
		if err := validateTopLevelKeys(d, false); err != nil {
			return err
		}
		if id := idBytes(d); id != nil && guard.seen(id) {
			return cos.NewErr(cos.DomainInsert, cos.CodeInsertFailure, "duplicate _id within batch")
		}
	}
	var flags uint32
	if continueOnError {
		flags = wire.InsertFlagContinueOnError
	}
	return c.insertStream(bsondoc.StreamOf(docs...), flags, wc)
}

func (c *Collection) insertStream(docs bsondoc.Stream, flags uint32, wc cluster.WriteConcern) error {
	crit := cluster.SelectionCriteria{ForWrite: true}
	n, err := c.cl.Select(crit)
	if err != nil {
		return err
	}
	rpc := &wire.RPC{
		Header: wire.Header{Opcode: wire.OpInsert},
		Insert: &wire.InsertBody{Flags: flags, FullCollectionName: c.fullName(), Documents: docs},
	}
	if _, err := c.cl.SendRPC(n, rpc); err != nil {
		return cos.Wrap(err, "insert into %s", c.fullName())
	}
	if !wc.Acknowledged() {
		return nil
	}
	return c.getLastError(n, wc)
}

// getLastError runs the legacy write-acknowledgement command against the
// same primary the preceding write went to, the GLE flow spec §4.8/§6
// requires only when wc demands acknowledgement — callers check
// wc.Acknowledged() before calling this.
func (c *Collection) getLastError(n *topology.Node, wc cluster.WriteConcern) error {
	cmd := wc.GetLastErrorCommand()
	rpc := &wire.RPC{
		Header: wire.Header{Opcode: wire.OpQuery},
		Query: &wire.QueryBody{
			FullCollectionName: c.db + ".$cmd",
			NumberToReturn:     -1,
			Query:              cmd,
		},
	}
	reply, err := c.cl.SendRPC(n, rpc)
	if err != nil {
		return cos.Wrap(err, "getLastError on %s", c.fullName())
	}
	docs, err := reply.Reply.Documents.All()
	if err != nil || len(docs) == 0 {
		return cos.NewErrProtocolInvalidReply("getLastError reply carried no document")
	}
	if v, ok := docs[0].Lookup("err"); ok && v.Type == bsondoc.TypeString && v.Str != "" {
		return cos.NewErrWriteFailure(cos.DomainInsert, 0, v.Str)
	}
	return nil
}

// Update runs a single-document or multi-document update.
func (c *Collection) Update(selector, update bsondoc.Doc, upsert, multi bool, wc cluster.WriteConcern) error {
	if err := validateTopLevelKeys(update, true); err != nil {
		return err
	}
	var flags uint32
	if upsert {
		flags |= wire.UpdateFlagUpsert
	}
	if multi {
		flags |= wire.UpdateFlagMultiUpdate
	}
	n, err := c.cl.Select(cluster.SelectionCriteria{ForWrite: true})
	if err != nil {
		return err
	}
	rpc := &wire.RPC{
		Header: wire.Header{Opcode: wire.OpUpdate},
		Update: &wire.UpdateBody{FullCollectionName: c.fullName(), Flags: flags, Selector: selector, Update: update},
	}
	if _, err := c.cl.SendRPC(n, rpc); err != nil {
		return cos.Wrap(err, "update %s", c.fullName())
	}
	if !wc.Acknowledged() {
		return nil
	}
	return c.getLastError(n, wc)
}

// Delete removes documents matching selector.
func (c *Collection) Delete(selector bsondoc.Doc, singleRemove bool, wc cluster.WriteConcern) error {
	var flags uint32
	if singleRemove {
		flags = wire.DeleteFlagSingleRemove
	}
	n, err := c.cl.Select(cluster.SelectionCriteria{ForWrite: true})
	if err != nil {
		return err
	}
	rpc := &wire.RPC{
		Header: wire.Header{Opcode: wire.OpDelete},
		Delete: &wire.DeleteBody{FullCollectionName: c.fullName(), Flags: flags, Selector: selector},
	}
	if _, err := c.cl.SendRPC(n, rpc); err != nil {
		return cos.Wrap(err, "delete from %s", c.fullName())
	}
	if !wc.Acknowledged() {
		return nil
	}
	return c.getLastError(n, wc)
}

// Find opens a query cursor, per spec §4.7/§4.8.
func (c *Collection) Find(query, projection bsondoc.Doc, skip, batchSize int32, slaveOK bool) (*cursor.Cursor, error) {
	var flags uint32
	if slaveOK {
		flags = wire.QueryFlagSlaveOK
	}
	crit := cluster.SelectionCriteria{Pref: cluster.ReadPrimary}
	if slaveOK {
		crit.Pref = cluster.ReadSecondaryPreferred
	}
	n, err := c.cl.Select(crit)
	if err != nil {
		return nil, err
	}
	return cursor.Open(c.cl, n, c.fullName(), flags, skip, batchSize, query, projection)
}

// Count runs the legacy count command.
func (c *Collection) Count(query bsondoc.Doc) (int64, error) {
	cmd := bsondoc.NewBuilder().AppendString("count", c.name).AppendDocument("query", query).Finish()
	reply, err := c.cl.Send(c.db, cmd, cluster.SelectionCriteria{})
	if err != nil {
		return 0, err
	}
	if v, ok := reply.Lookup("n"); ok {
		return int64(v.F64), nil
	}
	return 0, cos.NewErrProtocolInvalidReply("count reply missing 'n'")
}

// Drop drops the collection.
func (c *Collection) Drop() error {
	cmd := bsondoc.NewBuilder().AppendString("drop", c.name).Finish()
	_, err := c.cl.Send(c.db, cmd, cluster.SelectionCriteria{ForWrite: true})
	return err
}

// DropIndex drops a named index.
func (c *Collection) DropIndex(indexName string) error {
	cmd := bsondoc.NewBuilder().AppendString("dropIndexes", c.name).AppendString("index", indexName).Finish()
	_, err := c.cl.Send(c.db, cmd, cluster.SelectionCriteria{ForWrite: true})
	return err
}

// EnsureIndex creates an index described by keys (field -> 1/-1) if it
// doesn't already exist.
func (c *Collection) EnsureIndex(keys bsondoc.Doc, name string, unique bool) error {
	idx := bsondoc.NewBuilder().
		AppendDocument("key", keys).
		AppendString("name", name).
		AppendString("ns", c.fullName()).
		AppendBool("unique", unique).
		Finish()
	cmd := bsondoc.NewBuilder().
		AppendString("createIndexes", c.name).
		AppendArray("indexes", []bsondoc.Doc{idx}).
		Finish()
	_, err := c.cl.Send(c.db, cmd, cluster.SelectionCriteria{ForWrite: true})
	return err
}

// Validate runs the server-side collection validation command.
func (c *Collection) Validate() (bsondoc.Doc, error) {
	cmd := bsondoc.NewBuilder().AppendString("validate", c.name).Finish()
	return c.cl.Send(c.db, cmd, cluster.SelectionCriteria{})
}

// Aggregate runs an aggregation pipeline and returns a Cursor over its
// result, whether the server replies with a command-cursor or an inline
// array (spec §4.7's two cursor variants).
func (c *Collection) Aggregate(pipeline []bsondoc.Doc) (*cursor.Cursor, error) {
	cmd := bsondoc.NewBuilder().
		AppendString("aggregate", c.name).
		AppendArray("pipeline", pipeline).
		Finish()
	n, err := c.cl.Select(cluster.SelectionCriteria{})
	if err != nil {
		return nil, err
	}
	reply, err := c.cl.Send(c.db, cmd, cluster.SelectionCriteria{})
	if err != nil {
		return nil, err
	}
	if _, ok := reply.Lookup("cursor"); ok {
		return cursor.FromCommandReply(c.cl, n, reply, 0)
	}
	return cursor.FromArrayResult(reply, "result")
}
