// Package ndbc is a native client library for a document-oriented database
// server speaking the binary wire protocol in spec.md §3/§6: Client is the
// lifetime root, owning a parsed URI and a connected Cluster, and handing
// out Database/Collection/GridFS handles that borrow it, per spec §4.9.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package ndbc

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cluster"
	"github.com/nereusdb/ndbc/collection"
	"github.com/nereusdb/ndbc/config"
	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/gridfs"
	"github.com/nereusdb/ndbc/nlog"
)

// ClientMetadata is cluster.ClientMetadata under the name callers of this
// package see: the driverName/driverVersion/os/platform shape the original
// driver folds into its ismaster handshake (mongoc-metadata.c). Building
// its contents is out of this module's scope (spec §1); a caller sets
// Client.Metadata before Connect and it is forwarded to the Cluster, which
// folds it into every ismaster command it builds.
type ClientMetadata = cluster.ClientMetadata

// Client is the root object an application constructs: it parses a
// connection URI, lazily connects its Cluster on first use, and is the
// factory for every Database/Collection/GridFS handle built on top of it.
type Client struct {
	ID       string
	URI      *config.URI
	Cfg      config.Config
	Metadata ClientMetadata

	cl        *cluster.Cluster
	connected bool
}

// New parses rawURI and returns a Client that has not yet dialed anything;
// the cluster connects lazily on the first call to Connect (or implicitly
// the first time a caller needs it, via ensureConnected).
func New(rawURI string, opts ...config.Option) (*Client, error) {
	u, err := config.ParseURI(rawURI)
	if err != nil {
		return nil, err
	}
	cfg := config.New(opts...)
	mode := deduceMode(u)
	c := &Client{
		ID:  uuid.New().String(),
		URI: u,
		Cfg: cfg,
		cl:  cluster.New(mode, cfg.MaxNodesPerCluster, u.SecondaryAcceptableLatencyMS, cfg.MaxRetryCount, u.ConnectTimeoutMS),
	}
	return c, nil
}

// writeConcernFromURI builds the cluster-wide default WriteConcern out of
// the w/journal/wtimeoutMS options spec §6 has ParseURI parse: "w" is an
// integer acknowledgement count when it parses as one, otherwise a named
// concern ("majority", a tag-set name) passed through verbatim. A URI with
// none of the three options set yields cluster.Unacknowledged, matching
// ParseURI's own zero-value defaults.
func writeConcernFromURI(u *config.URI) cluster.WriteConcern {
	if u.W == "" && !u.Journal && u.WTimeoutMS == 0 {
		return cluster.Unacknowledged
	}
	var w interface{}
	if u.W != "" {
		if n, err := strconv.Atoi(u.W); err == nil {
			w = n
		} else {
			w = u.W
		}
	}
	return cluster.WriteConcern{W: w, Journal: u.Journal, WTimeoutMS: u.WTimeoutMS}
}

// deduceMode implements spec §4.5's init rule: a replicaSet option forces
// replica-set mode; otherwise more than one seed host means sharded;
// otherwise direct.
func deduceMode(u *config.URI) cluster.Mode {
	switch {
	case u.ReplicaSet != "":
		return cluster.ModeReplicaSet
	case len(u.Hosts) > 1:
		return cluster.ModeSharded
	default:
		return cluster.ModeDirect
	}
}

// Connect dials every seed host, probes each with ismaster, and — if the
// URI carries credentials — authenticates. Safe to call more than once;
// subsequent calls are a no-op once connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.connected {
		return nil
	}
	c.cl.Metadata = c.Metadata
	c.cl.DefaultWriteConcern = writeConcernFromURI(c.URI)
	timeout := time.Duration(c.URI.ConnectTimeoutMS) * time.Millisecond
	if err := c.cl.Connect(ctx, c.URI.Addresses(), timeout); err != nil {
		return err
	}
	if err := c.cl.Discover(ctx); err != nil {
		nlog.Warningf("client %s: discover: %v", c.ID, err)
	}
	if c.URI.Username != "" {
		if err := c.cl.Authenticate(c.URI.Username, c.URI.Password, c.URI.AuthSource); err != nil {
			return err
		}
	}
	c.connected = true
	return nil
}

// ensureConnected connects with a background context the first time any
// collection/database/gridfs operation needs a live cluster, matching the
// "lazily connects on first operation" contract from spec §4.9.
func (c *Client) ensureConnected() error {
	if c.connected {
		return nil
	}
	return c.Connect(context.Background())
}

// Cluster exposes the underlying Cluster for callers (the scanner package,
// diagnostics) that need it directly.
func (c *Client) Cluster() *cluster.Cluster { return c.cl }

// Database is a thin namespace handle; it exists so Collection/GridFS names
// read as "db.Collection(name)" rather than threading a db string through
// every call.
type Database struct {
	client *Client
	name   string
}

// GetDatabase returns a handle scoped to name. If name is empty, the URI's
// default database (the path component) is used.
func (c *Client) GetDatabase(name string) *Database {
	if name == "" {
		name = c.URI.Database
	}
	return &Database{client: c, name: name}
}

func (db *Database) Name() string { return db.name }

// Collection returns a façade over db.name, lazily connecting the client if
// this is the first operation issued against it.
func (db *Database) Collection(name string) (*collection.Collection, error) {
	if err := db.client.ensureConnected(); err != nil {
		return nil, err
	}
	return collection.New(db.client.cl, db.name, name), nil
}

// GridFS returns a bucket rooted at prefix ("fs" if empty) within db.
func (db *Database) GridFS(prefix string) (*gridfs.FS, error) {
	if err := db.client.ensureConnected(); err != nil {
		return nil, err
	}
	return gridfs.Open(db.client.cl, db.name, prefix), nil
}

// GetCollection is a convenience shortcut for GetDatabase(db).Collection(name).
func (c *Client) GetCollection(db, name string) (*collection.Collection, error) {
	return c.GetDatabase(db).Collection(name)
}

// GetGridFS is a convenience shortcut for GetDatabase(db).GridFS(prefix).
func (c *Client) GetGridFS(db, prefix string) (*gridfs.FS, error) {
	return c.GetDatabase(db).GridFS(prefix)
}

// Command runs an arbitrary command document against db and returns the raw
// reply, for the command helpers (count/drop/...) collection doesn't cover
// and for diagnostics/tests that need a direct escape hatch.
func (c *Client) Command(db string, cmd bsondoc.Doc) (bsondoc.Doc, error) {
	if err := c.ensureConnected(); err != nil {
		return bsondoc.Doc{}, err
	}
	return c.cl.Send(db, cmd, cluster.SelectionCriteria{})
}

// Close disconnects every node in the cluster. It is safe to call on a
// client that never connected.
func (c *Client) Close() error {
	if c.cl == nil {
		return nil
	}
	var errs cos.Errs
	for _, n := range c.cl.Nodes.Nodes {
		if n.Stream != nil {
			errs.Add(n.Stream.Close())
		}
	}
	c.connected = false
	return errs.JoinErr()
}
