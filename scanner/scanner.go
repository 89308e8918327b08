// Package scanner implements the command state machine from spec §4.6: it
// advances in-flight commands through Initiate -> TlsHandshake -> Send ->
// RecvLen -> RecvRpc, grounded on the teacher's heap-based stream collector
// (transport/collect.go) adapted from "tick an idle timer" to "tick an
// in-flight command's state". There is no poll loop: Pool runs each command
// on its own goroutine, and the Send, RecvLen and RecvRpc steps block on the
// node's Stream. Initiate and TlsHandshake neither connect nor handshake;
// both move straight to Send, which writes to the node's existing Stream.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package scanner

import (
	"context"
	"time"

	"github.com/teris-io/shortid"

	"github.com/nereusdb/ndbc/cos"
	"github.com/nereusdb/ndbc/topology"
	"github.com/nereusdb/ndbc/wire"
)

// State is one step of a Command's lifecycle.
type State int

const (
	StateInitiate State = iota
	StateTLSHandshake
	StateSend
	StateRecvLen
	StateRecvRPC
	StateDone
	StateError
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInitiate:
		return "initiate"
	case StateTLSHandshake:
		return "tls-handshake"
	case StateSend:
		return "send"
	case StateRecvLen:
		return "recv-len"
	case StateRecvRPC:
		return "recv-rpc"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Command is one asynchronous request in flight against a node.
type Command struct {
	ID        string // short correlation id for logging/tracing a sweep
	Node      *topology.Node
	State     State
	StartTime time.Time
	ExpireAt  time.Time
	RPC       *wire.RPC
	Reply     *wire.RPC
	Err       error
	Callback  func(*wire.RPC, error)
	lenBuf    []byte
	bodyBuf   []byte
	heapIndex int
}

func newCommand(n *topology.Node, rpc *wire.RPC, timeout time.Duration, cb func(*wire.RPC, error)) *Command {
	now := time.Now()
	id, _ := shortid.Generate()
	return &Command{
		ID:        id,
		Node:      n,
		State:     StateInitiate,
		StartTime: now,
		ExpireAt:  now.Add(timeout),
		RPC:       rpc,
		Callback:  cb,
	}
}

// advance runs one step of the command's state machine (the Send and Recv
// steps block on the node's Stream), returning true if the command is still in flight (should stay on the
// heap) or false once it has reached Done/Error/Cancelled.
func (c *Command) advance(ctx context.Context) bool {
	if ctx.Err() != nil {
		c.State = StateCancelled
		c.Err = ctx.Err()
		return c.finish()
	}
	if time.Now().After(c.ExpireAt) {
		c.State = StateError
		c.Err = cos.NewErr(cos.DomainClient, cos.CodeClientNotReady, "command to %s timed out", c.Node.Key())
		return c.finish()
	}

	switch c.State {
	case StateInitiate:
		c.State = StateSend
		return true
	case StateTLSHandshake:
		c.State = StateSend
		return true
	case StateSend:
		bufs, _, err := wire.Gather(c.RPC)
		if err != nil {
			c.State = StateError
			c.Err = err
			return c.finish()
		}
		if _, err := c.Node.Stream.Writev(bufs); err != nil {
			c.State = StateError
			c.Err = cos.Wrap(err, "send to %s", c.Node.Key())
			return c.finish()
		}
		c.State = StateRecvLen
		c.lenBuf = make([]byte, wire.HeaderSize)
		return true
	case StateRecvLen:
		if err := c.Node.Stream.Readv(c.lenBuf); err != nil {
			c.State = StateError
			c.Err = cos.Wrap(err, "recv header from %s", c.Node.Key())
			return c.finish()
		}
		n := wire.PeekMessageLength(c.lenBuf)
		if n < wire.HeaderSize || n > wire.MaxMessageSize {
			c.State = StateError
			c.Err = cos.NewErrProtocolInvalidReply("message_length %d out of range", n)
			return c.finish()
		}
		c.bodyBuf = make([]byte, n-wire.HeaderSize)
		c.State = StateRecvRPC
		return true
	case StateRecvRPC:
		if len(c.bodyBuf) > 0 {
			if err := c.Node.Stream.Readv(c.bodyBuf); err != nil {
				c.State = StateError
				c.Err = cos.Wrap(err, "recv body from %s", c.Node.Key())
				return c.finish()
			}
		}
		full := append(append([]byte(nil), c.lenBuf...), c.bodyBuf...)
		reply, err := wire.Scatter(full)
		if err != nil {
			c.State = StateError
			c.Err = err
			return c.finish()
		}
		c.Reply = reply
		c.State = StateDone
		return c.finish()
	default:
		return c.finish()
	}
}

func (c *Command) finish() bool {
	if c.Callback != nil {
		c.Callback(c.Reply, c.Err)
	}
	return false
}
