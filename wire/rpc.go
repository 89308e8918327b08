package wire

import "github.com/nereusdb/ndbc/bsondoc"

// RPC is the tagged union from spec §3: exactly one of the body pointers
// below is non-nil, selected by Header.Opcode. Go has no union storage, so
// the tag lives in the struct shape itself rather than in a runtime
// discriminant byte — callers switch on Header.Opcode and dereference the
// matching field.
type RPC struct {
	Header      Header
	Reply       *ReplyBody
	Msg         *MsgBody
	Update      *UpdateBody
	Insert      *InsertBody
	Query       *QueryBody
	GetMore     *GetMoreBody
	Delete      *DeleteBody
	KillCursors *KillCursorsBody
}

// ReplyBody is OP_REPLY: a server response to OP_QUERY/OP_GET_MORE.
type ReplyBody struct {
	ResponseFlags  uint32
	CursorID       int64
	StartingFrom   int32
	NumberReturned int32
	Documents      bsondoc.Stream
}

// MsgBody is the legacy free-text OP_MSG (not the modern op_msg section
// framing; this protocol predates it), kept for wire completeness.
type MsgBody struct {
	Message string
}

// UpdateBody is OP_UPDATE.
type UpdateBody struct {
	_          int32 // reserved, always zero
	FullCollectionName string
	Flags      uint32
	Selector   bsondoc.Doc
	Update     bsondoc.Doc
}

// InsertBody is OP_INSERT.
type InsertBody struct {
	Flags              uint32
	FullCollectionName string
	Documents          bsondoc.Stream
}

// QueryBody is OP_QUERY.
type QueryBody struct {
	Flags                uint32
	FullCollectionName   string
	NumberToSkip         int32
	NumberToReturn       int32
	Query                bsondoc.Doc
	ReturnFieldsSelector bsondoc.Doc // zero value means absent
}

// GetMoreBody is OP_GET_MORE.
type GetMoreBody struct {
	_                  int32 // reserved, always zero
	FullCollectionName string
	NumberToReturn     int32
	CursorID           int64
}

// DeleteBody is OP_DELETE.
type DeleteBody struct {
	_                  int32 // reserved, always zero
	FullCollectionName string
	Flags              uint32
	Selector           bsondoc.Doc
}

// KillCursorsBody is OP_KILL_CURSORS.
type KillCursorsBody struct {
	_                int32 // reserved, always zero
	NumberOfCursorIDs int32
	CursorIDs        []int64
}
