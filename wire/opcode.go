// Package wire implements the binary request/response protocol from spec
// §3/§4.4: eight opcode messages with fixed little-endian framing, gathered
// into I/O vectors for outbound writes and scattered out of a contiguous
// receive buffer for inbound reads.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package wire

// Opcode identifies an RPC variant. Values match the wire protocol exactly;
// do not renumber.
type Opcode int32

const (
	OpReply       Opcode = 1
	OpMsg         Opcode = 1000
	OpUpdate      Opcode = 2001
	OpInsert      Opcode = 2002
	OpQuery       Opcode = 2004
	OpGetMore     Opcode = 2005
	OpDelete      Opcode = 2006
	OpKillCursors Opcode = 2007
)

func (o Opcode) String() string {
	switch o {
	case OpReply:
		return "REPLY"
	case OpMsg:
		return "MSG"
	case OpUpdate:
		return "UPDATE"
	case OpInsert:
		return "INSERT"
	case OpQuery:
		return "QUERY"
	case OpGetMore:
		return "GET_MORE"
	case OpDelete:
		return "DELETE"
	case OpKillCursors:
		return "KILL_CURSORS"
	default:
		return "UNKNOWN"
	}
}

// HeaderSize is the fixed 16-byte header every RPC begins with.
const HeaderSize = 16

// MaxMessageSize is the hard framing limit from spec §3/§6 (48 MiB).
const MaxMessageSize = 48 * 1024 * 1024

// query/update/delete flag bits, named where the cluster/cursor/collection
// layers need to test them.
const (
	QueryFlagTailableCursor uint32 = 1 << 1
	QueryFlagSlaveOK        uint32 = 1 << 2
	QueryFlagNoCursorTimeout uint32 = 1 << 4
	QueryFlagAwaitData      uint32 = 1 << 5
	QueryFlagExhaust        uint32 = 1 << 6

	ReplyFlagCursorNotFound  uint32 = 1 << 0
	ReplyFlagQueryFailure    uint32 = 1 << 1
	ReplyFlagAwaitCapable    uint32 = 1 << 3

	InsertFlagContinueOnError uint32 = 1 << 0

	UpdateFlagUpsert      uint32 = 1 << 0
	UpdateFlagMultiUpdate uint32 = 1 << 1

	DeleteFlagSingleRemove uint32 = 1 << 0
)
