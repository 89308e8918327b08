package wire

import (
	"net"

	"github.com/nereusdb/ndbc/cos"
)

// Gather assembles an RPC into the I/O vector list a writev-capable stream
// wants, per spec §4.4's "gather" contract: every fixed-size field is
// encoded into scratch buffers and every variable-length field (document,
// string, document stream) contributes its own slice, so the wire codec
// never has to copy a BSON document just to frame it. net.Buffers is the
// idiomatic stdlib analog of the teacher's iovec slice: Stream's Gather
// path in transport/sendmsg.go builds exactly this kind of accumulated
// []byte list before handing it to a writev-backed net.Conn.
//
// The returned int32 is the total message_length that has already been
// stamped into the header bytes (the first element of the returned
// net.Buffers), matching the RPC's Header.MessageLength on return.
func Gather(rpc *RPC) (net.Buffers, int32, error) {
	var bufs net.Buffers
	body, err := gatherBody(rpc, &bufs)
	if err != nil {
		return nil, 0, err
	}
	total := int32(HeaderSize) + body
	rpc.Header.MessageLength = total
	hdr := rpc.Header.encode()
	out := make(net.Buffers, 0, len(bufs)+1)
	out = append(out, hdr)
	out = append(out, bufs...)
	return out, total, nil
}

func gatherBody(rpc *RPC, bufs *net.Buffers) (int32, error) {
	switch rpc.Header.Opcode {
	case OpReply:
		return gatherReply(rpc.Reply, bufs)
	case OpMsg:
		return gatherMsg(rpc.Msg, bufs)
	case OpUpdate:
		return gatherUpdate(rpc.Update, bufs)
	case OpInsert:
		return gatherInsert(rpc.Insert, bufs)
	case OpQuery:
		return gatherQuery(rpc.Query, bufs)
	case OpGetMore:
		return gatherGetMore(rpc.GetMore, bufs)
	case OpDelete:
		return gatherDelete(rpc.Delete, bufs)
	case OpKillCursors:
		return gatherKillCursors(rpc.KillCursors, bufs)
	default:
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: unknown opcode %d", rpc.Header.Opcode)
	}
}

func push(bufs *net.Buffers, b []byte) int32 {
	*bufs = append(*bufs, b)
	return int32(len(b))
}

func gatherReply(b *ReplyBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil REPLY body")
	}
	fixed := make([]byte, 20)
	putInt32(fixed[0:4], int32(b.ResponseFlags))
	putInt64(fixed[4:12], b.CursorID)
	putInt32(fixed[12:16], b.StartingFrom)
	putInt32(fixed[16:20], b.NumberReturned)
	n := push(bufs, fixed)
	if b.Documents.Len() > 0 {
		n += push(bufs, b.Documents.Bytes())
	}
	return n, nil
}

func gatherMsg(b *MsgBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil MSG body")
	}
	return push(bufs, cstring(b.Message)), nil
}

func gatherUpdate(b *UpdateBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil UPDATE body")
	}
	head := make([]byte, 4)
	n := push(bufs, head)
	n += push(bufs, cstring(b.FullCollectionName))
	flags := make([]byte, 4)
	putInt32(flags, int32(b.Flags))
	n += push(bufs, flags)
	n += push(bufs, b.Selector.Bytes())
	n += push(bufs, b.Update.Bytes())
	return n, nil
}

func gatherInsert(b *InsertBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil INSERT body")
	}
	flags := make([]byte, 4)
	putInt32(flags, int32(b.Flags))
	n := push(bufs, flags)
	n += push(bufs, cstring(b.FullCollectionName))
	if b.Documents.Len() > 0 {
		n += push(bufs, b.Documents.Bytes())
	}
	return n, nil
}

func gatherQuery(b *QueryBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil QUERY body")
	}
	flags := make([]byte, 4)
	putInt32(flags, int32(b.Flags))
	n := push(bufs, flags)
	n += push(bufs, cstring(b.FullCollectionName))
	skipReturn := make([]byte, 8)
	putInt32(skipReturn[0:4], b.NumberToSkip)
	putInt32(skipReturn[4:8], b.NumberToReturn)
	n += push(bufs, skipReturn)
	n += push(bufs, b.Query.Bytes())
	if !b.ReturnFieldsSelector.IsZero() {
		n += push(bufs, b.ReturnFieldsSelector.Bytes())
	}
	return n, nil
}

func gatherGetMore(b *GetMoreBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil GET_MORE body")
	}
	head := make([]byte, 4)
	n := push(bufs, head)
	n += push(bufs, cstring(b.FullCollectionName))
	rest := make([]byte, 12)
	putInt32(rest[0:4], b.NumberToReturn)
	putInt64(rest[4:12], b.CursorID)
	n += push(bufs, rest)
	return n, nil
}

func gatherDelete(b *DeleteBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil DELETE body")
	}
	head := make([]byte, 4)
	n := push(bufs, head)
	n += push(bufs, cstring(b.FullCollectionName))
	flags := make([]byte, 4)
	putInt32(flags, int32(b.Flags))
	n += push(bufs, flags)
	n += push(bufs, b.Selector.Bytes())
	return n, nil
}

func gatherKillCursors(b *KillCursorsBody, bufs *net.Buffers) (int32, error) {
	if b == nil {
		return 0, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "gather: nil KILL_CURSORS body")
	}
	head := make([]byte, 8)
	putInt32(head[4:8], int32(len(b.CursorIDs)))
	n := push(bufs, head)
	ids := make([]byte, 8*len(b.CursorIDs))
	for i, id := range b.CursorIDs {
		putInt64(ids[i*8:i*8+8], id)
	}
	if len(ids) > 0 {
		n += push(bufs, ids)
	}
	return n, nil
}
