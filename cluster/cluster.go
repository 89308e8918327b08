package cluster

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/netio"
	"github.com/nereusdb/ndbc/nlog"
	"github.com/nereusdb/ndbc/topology"
	"github.com/nereusdb/ndbc/wire"
)

// Cluster owns the node list behind one connection URI and drives
// connect/authenticate/select/send/receive for every operation the
// collection/cursor layers issue, per spec §4.5.
type Cluster struct {
	mu sync.RWMutex

	Mode             Mode
	Nodes            *topology.List
	SecLatencyMS     int
	MaxMsgSize       int32
	MaxBSONSize      int32
	MaxRetryCount    int
	ConnectTimeoutMS int
	RequiresAuth     bool
	Username         string
	password         string
	AuthSource       string

	// Metadata is folded into the ismaster command probeIsMaster builds,
	// per SPEC_FULL.md §12. The zero value omits the "client" subdocument
	// entirely.
	Metadata ClientMetadata

	// DefaultWriteConcern is the write concern collection/gridfs writes fall
	// back to when a caller doesn't pass one explicitly, populated from the
	// connection URI's w/journal/wtimeoutMS options (spec §6) at Connect.
	DefaultWriteConcern WriteConcern

	requestID cos.Int64
	rec       *Recorder
}

// New builds an empty cluster ready to accept discovered nodes.
func New(mode Mode, maxNodes int, secLatencyMS int, maxRetry int, connectTimeoutMS int) *Cluster {
	c := &Cluster{
		Mode:             mode,
		Nodes:            topology.NewList(maxNodes),
		SecLatencyMS:     secLatencyMS,
		MaxRetryCount:    maxRetry,
		ConnectTimeoutMS: connectTimeoutMS,
		rec:              NewRecorder(),
	}
	// seed the request-id space with a UUID-derived value so two client
	// processes started back to back don't correlate replies across
	// processes sharing a connection-pooling proxy.
	seed := uuid.New()
	c.requestID.Store(int64(binary.LittleEndian.Uint64(seed[:8])) &^ (1 << 63))
	return c
}

func (c *Cluster) nextRequestID() int32 {
	return int32(c.requestID.Inc())
}

// Connect dials every seed host, synchronously, and records each as a node;
// discovery (ismaster probing, primary/secondary classification) happens in
// Discover so Connect itself stays a thin dial loop the scanner package can
// also drive asynchronously.
func (c *Cluster) Connect(ctx context.Context, addrs []string, connectTimeout time.Duration) error {
	var errs cos.Errs
	for _, addr := range addrs {
		host, port, err := splitHostPort(addr)
		if err != nil {
			errs.Add(err)
			continue
		}
		d := net.Dialer{Timeout: connectTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			errs.Add(cos.Wrap(err, "dial %s", addr))
			continue
		}
		stream := netio.NewBufferedStream(netio.NewRawStream(conn))
		n := &topology.Node{Host: host, Port: port, Stream: stream, LastSeen: time.Now()}
		if err := c.Nodes.Add(n); err != nil {
			errs.Add(err)
			continue
		}
		nlog.Infof("cluster: connected %s", addr)
	}
	if len(c.Nodes.Nodes) == 0 {
		return errs.JoinErr()
	}
	return nil
}

// Discover runs ismaster against every connected node and classifies it as
// primary/secondary, recording ping_ms and wire_version.
func (c *Cluster) Discover(ctx context.Context) error {
	var errs cos.Errs
	for _, n := range c.Nodes.Nodes {
		if err := c.probeIsMaster(n); err != nil {
			errs.Add(cos.Wrap(err, "ismaster %s", n.Key()))
			continue
		}
	}
	return errs.JoinErr()
}

// ClientMetadata is the driverName/driverVersion/os/platform shape the
// original driver folds into its ismaster handshake (mongoc-metadata.c).
// Building its contents is out of this module's scope (spec §1); a caller
// supplies one via Client.Metadata and Cluster folds it into the ismaster
// command it already has to build.
type ClientMetadata struct {
	DriverName    string
	DriverVersion string
	OS            string
	Platform      string
}

func (m ClientMetadata) isZero() bool { return m == (ClientMetadata{}) }

// isMasterCommand builds the ismaster command, folding in c.Metadata's
// "client" subdocument when one has been set.
func (c *Cluster) isMasterCommand() bsondoc.Doc {
	b := bsondoc.NewBuilder().AppendInt32("ismaster", 1)
	if !c.Metadata.isZero() {
		client := bsondoc.NewBuilder().
			AppendDocument("driver", bsondoc.NewBuilder().
				AppendString("name", c.Metadata.DriverName).
				AppendString("version", c.Metadata.DriverVersion).
				Finish()).
			AppendDocument("os", bsondoc.NewBuilder().
				AppendString("type", c.Metadata.OS).
				Finish()).
			AppendString("platform", c.Metadata.Platform).
			Finish()
		b.AppendDocument("client", client)
	}
	return b.Finish()
}

func (c *Cluster) probeIsMaster(n *topology.Node) error {
	cmd := c.isMasterCommand()
	start := time.Now()
	reply, err := c.sendCommand(n, "admin", cmd)
	if err != nil {
		return err
	}
	n.PingMS = float64(time.Since(start).Microseconds()) / 1000.0
	n.Measured = true
	n.LastSeen = time.Now()
	n.TouchStamp()
	c.rec.ObservePing(n.Key(), n.PingMS)

	if v, ok := reply.Lookup("ismaster"); ok {
		n.Primary = v.Bool
	}
	if v, ok := reply.Lookup("secondary"); ok {
		n.Secondary = v.Bool
	}
	if v, ok := reply.Lookup("hidden"); ok {
		n.Hidden = v.Bool
	}
	if v, ok := reply.Lookup("maxMessageSizeBytes"); ok {
		n.MaxMsgSize = v.I32
	}
	if v, ok := reply.Lookup("maxBsonObjectSize"); ok {
		n.MaxBSONSize = v.I32
	}
	if v, ok := reply.Lookup("maxWireVersion"); ok {
		n.WireVersion = v.I32
	}
	c.rec.SetNodeState(n.Key(), (n.Primary || n.Secondary) && !n.Hidden)
	return nil
}

// Authenticate runs the MONGODB-CR getnonce/authenticate exchange against
// every node in the cluster.
func (c *Cluster) Authenticate(username, password, source string) error {
	c.Username, c.password, c.AuthSource = username, password, source
	if source == "" {
		c.AuthSource = "admin"
	}
	var errs cos.Errs
	for _, n := range c.Nodes.Nodes {
		if err := c.authenticateNode(n); err != nil {
			errs.Add(cos.Wrap(err, "authenticate %s", n.Key()))
		}
	}
	return errs.JoinErr()
}

func (c *Cluster) authenticateNode(n *topology.Node) error {
	nonceReply, err := c.sendCommand(n, c.AuthSource, GetNonceCommand())
	if err != nil {
		return err
	}
	nonce, err := ExtractNonce(nonceReply)
	if err != nil {
		return err
	}
	authReply, err := c.sendCommand(n, c.AuthSource, AuthenticateCommand(c.Username, c.password, nonce))
	if err != nil {
		return err
	}
	if err := CheckAuthenticateReply(authReply); err != nil {
		return err
	}
	n.NeedsAuth = false
	return nil
}

// sendCommand runs one OP_QUERY/$cmd round-trip against n and returns the
// first reply document.
func (c *Cluster) sendCommand(n *topology.Node, db string, cmd bsondoc.Doc) (bsondoc.Doc, error) {
	rpc := &wire.RPC{
		Header: wire.Header{RequestID: c.nextRequestID(), Opcode: wire.OpQuery},
		Query: &wire.QueryBody{
			FullCollectionName: db + ".$cmd",
			NumberToReturn:     -1,
			Query:              cmd,
		},
	}
	reply, err := c.roundTrip(n, rpc)
	if err != nil {
		return bsondoc.Doc{}, err
	}
	docs, err := reply.Reply.Documents.All()
	if err != nil {
		return bsondoc.Doc{}, err
	}
	if len(docs) == 0 {
		return bsondoc.Doc{}, cos.NewErrProtocolInvalidReply("command reply carried zero documents")
	}
	return docs[0], nil
}

// disconnectNode closes n's stream and bumps its stamp, per spec §4.5's "A
// write or read failure disconnects the node" — this is what lets a cursor
// pinned to n detect staleness via topology.Node.Stamp after the fact.
func (c *Cluster) disconnectNode(n *topology.Node) {
	if n.Stream != nil {
		_ = n.Stream.Close()
	}
	n.TouchStamp()
}

// roundTrip gathers and writes rpc, then reads and scatters exactly one
// reply correlated by response_to == rpc.Header.RequestID. Every framing or
// I/O failure here is fatal to the connection per spec §4.5/§7, so each one
// disconnects n before returning.
func (c *Cluster) roundTrip(n *topology.Node, rpc *wire.RPC) (*wire.RPC, error) {
	bufs, _, err := wire.Gather(rpc)
	if err != nil {
		return nil, err
	}
	if _, err := n.Stream.Writev(bufs); err != nil {
		c.rec.IngressError()
		c.disconnectNode(n)
		return nil, cos.Wrap(err, "write to %s", n.Key())
	}

	hdr := make([]byte, wire.HeaderSize)
	if err := n.Stream.Readv(hdr); err != nil {
		c.rec.IngressError()
		c.disconnectNode(n)
		return nil, cos.Wrap(err, "read header from %s", n.Key())
	}
	msgLen := wire.PeekMessageLength(hdr)
	if msgLen < wire.HeaderSize || msgLen > wire.MaxMessageSize {
		c.rec.IngressError()
		c.disconnectNode(n)
		return nil, cos.NewErrProtocolInvalidReply("message_length %d out of range", msgLen)
	}
	rest := make([]byte, msgLen-wire.HeaderSize)
	if len(rest) > 0 {
		if err := n.Stream.Readv(rest); err != nil {
			c.rec.IngressError()
			c.disconnectNode(n)
			return nil, cos.Wrap(err, "read body from %s", n.Key())
		}
	}
	full := append(hdr, rest...)
	reply, err := wire.Scatter(full)
	if err != nil {
		c.rec.IngressError()
		c.disconnectNode(n)
		return nil, err
	}
	if reply.Header.ResponseTo != rpc.Header.RequestID {
		c.disconnectNode(n)
		return nil, cos.NewErrProtocolInvalidReply("response_to %d does not correlate with request_id %d", reply.Header.ResponseTo, rpc.Header.RequestID)
	}
	if reply.Reply == nil {
		c.disconnectNode(n)
		return nil, cos.NewErrProtocolInvalidReply("expected REPLY opcode, got %s", reply.Header.Opcode)
	}
	return reply, nil
}

// selectOnce is the pure, single-attempt selection spec §4.5 describes as
// the "try" variant: no retry, no reconnect.
func (c *Cluster) selectOnce(crit SelectionCriteria) (*topology.Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Select(c.Nodes.Nodes, c.Mode, c.SecLatencyMS, crit)
}

// firstDownNode returns the first node whose stream is missing or closed,
// the candidate Select's retry loop reconnects between attempts.
func (c *Cluster) firstDownNode() *topology.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.Nodes.Nodes {
		if n.Stream == nil || n.Stream.CheckClosed() {
			return n
		}
	}
	return nil
}

// Select is the "blocking" variant from spec §4.5: it retries selection up
// to MaxRetryCount times and, on a failed attempt, reconnects the first
// down node it finds before trying again (e.g. a primary stepdown mid-
// election, or a node roundTrip disconnected on a prior I/O error).
func (c *Cluster) Select(crit SelectionCriteria) (*topology.Node, error) {
	var lastErr error
	timeout := time.Duration(c.ConnectTimeoutMS) * time.Millisecond
	for attempt := 0; ; attempt++ {
		n, err := c.selectOnce(crit)
		if err == nil {
			return n, nil
		}
		lastErr = err
		if attempt >= c.MaxRetryCount {
			return nil, lastErr
		}
		down := c.firstDownNode()
		if down == nil {
			return nil, lastErr
		}
		if rerr := c.Reconnect(context.Background(), down, timeout); rerr != nil {
			nlog.Warningf("cluster: reconnect %s during select retry: %v", down.Key(), rerr)
		}
	}
}

// Send performs one command round-trip against the node selected for crit.
func (c *Cluster) Send(db string, cmd bsondoc.Doc, crit SelectionCriteria) (bsondoc.Doc, error) {
	n, err := c.Select(crit)
	if err != nil {
		return bsondoc.Doc{}, err
	}
	return c.sendCommand(n, db, cmd)
}

// SendRPC is the lower-level entry the cursor/collection packages use when
// they need the full reply (cursor id, batch), not just a command reply.
func (c *Cluster) SendRPC(n *topology.Node, rpc *wire.RPC) (*wire.RPC, error) {
	return c.roundTrip(n, rpc)
}

// Reconnect tears down and re-dials one node in place, bumping its stamp so
// any cursor pinned to the old connection detects staleness.
func (c *Cluster) Reconnect(ctx context.Context, n *topology.Node, connectTimeout time.Duration) error {
	if n.Stream != nil {
		_ = n.Stream.Close()
	}
	d := net.Dialer{Timeout: connectTimeout}
	conn, err := d.DialContext(ctx, "tcp", n.Key())
	if err != nil {
		return cos.Wrap(err, "reconnect %s", n.Key())
	}
	n.Stream = netio.NewBufferedStream(netio.NewRawStream(conn))
	n.TouchStamp()
	return c.probeIsMaster(n)
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, cos.Wrap(err, "split host:port %s", addr)
	}
	port := 0
	for _, ch := range portStr {
		if ch < '0' || ch > '9' {
			return "", 0, cos.NewErr(cos.DomainClient, cos.CodeClientNotReady, "invalid port in %s", addr)
		}
		port = port*10 + int(ch-'0')
	}
	return host, port, nil
}
