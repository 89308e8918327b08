package wire

import (
	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cos"
)

// Scatter parses a single contiguous inbound message (header already
// stripped of its length prefix's ambiguity by the caller, per spec §4.2's
// "read exactly message_length bytes, then scatter") into an RPC view that
// borrows slices of buf rather than copying them. The header is read first
// to recover the opcode tag, then only the matching body decoder runs.
func Scatter(buf []byte) (*RPC, error) {
	if len(buf) < HeaderSize {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "message shorter than header (%d bytes)", len(buf))
	}
	hdr := decodeHeader(buf[:HeaderSize])
	if hdr.MessageLength < HeaderSize || hdr.MessageLength > MaxMessageSize {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "message_length %d out of range [%d,%d]", hdr.MessageLength, HeaderSize, MaxMessageSize)
	}
	if int(hdr.MessageLength) > len(buf) {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "message_length %d exceeds buffer (%d bytes)", hdr.MessageLength, len(buf))
	}
	body := buf[HeaderSize:hdr.MessageLength]
	rpc := &RPC{Header: hdr}
	var err error
	switch hdr.Opcode {
	case OpReply:
		rpc.Reply, err = scatterReply(body)
	case OpMsg:
		rpc.Msg, err = scatterMsg(body)
	case OpUpdate:
		rpc.Update, err = scatterUpdate(body)
	case OpInsert:
		rpc.Insert, err = scatterInsert(body)
	case OpQuery:
		rpc.Query, err = scatterQuery(body)
	case OpGetMore:
		rpc.GetMore, err = scatterGetMore(body)
	case OpDelete:
		rpc.Delete, err = scatterDelete(body)
	case OpKillCursors:
		rpc.KillCursors, err = scatterKillCursors(body)
	default:
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "unknown opcode %d", hdr.Opcode)
	}
	if err != nil {
		return nil, err
	}
	return rpc, nil
}

func needLen(b []byte, n int, what string) error {
	if len(b) < n {
		return cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "truncated %s (need %d, have %d)", what, n, len(b))
	}
	return nil
}

func scatterReply(b []byte) (*ReplyBody, error) {
	if err := needLen(b, 20, "REPLY"); err != nil {
		return nil, err
	}
	r := &ReplyBody{
		ResponseFlags:  uint32(getInt32(b[0:4])),
		CursorID:       getInt64(b[4:12]),
		StartingFrom:   getInt32(b[12:16]),
		NumberReturned: getInt32(b[16:20]),
	}
	r.Documents = bsondoc.NewStream(b[20:])
	return r, nil
}

func scatterMsg(b []byte) (*MsgBody, error) {
	s, _, ok := readCString(b)
	if !ok {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "MSG missing NUL terminator")
	}
	return &MsgBody{Message: s}, nil
}

func scatterUpdate(b []byte) (*UpdateBody, error) {
	if err := needLen(b, 4, "UPDATE"); err != nil {
		return nil, err
	}
	off := 4
	name, n, ok := readCString(b[off:])
	if !ok {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "UPDATE missing collection name terminator")
	}
	off += n
	if err := needLen(b, off+4, "UPDATE flags"); err != nil {
		return nil, err
	}
	flags := uint32(getInt32(b[off : off+4]))
	off += 4
	sel, err := bsondoc.FromBytes(b[off:])
	if err != nil {
		return nil, err
	}
	off += len(sel.Bytes())
	upd, err := bsondoc.FromBytes(b[off:])
	if err != nil {
		return nil, err
	}
	return &UpdateBody{FullCollectionName: name, Flags: flags, Selector: sel, Update: upd}, nil
}

func scatterInsert(b []byte) (*InsertBody, error) {
	if err := needLen(b, 4, "INSERT"); err != nil {
		return nil, err
	}
	flags := uint32(getInt32(b[0:4]))
	off := 4
	name, n, ok := readCString(b[off:])
	if !ok {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "INSERT missing collection name terminator")
	}
	off += n
	return &InsertBody{Flags: flags, FullCollectionName: name, Documents: bsondoc.NewStream(b[off:])}, nil
}

func scatterQuery(b []byte) (*QueryBody, error) {
	if err := needLen(b, 4, "QUERY"); err != nil {
		return nil, err
	}
	flags := uint32(getInt32(b[0:4]))
	off := 4
	name, n, ok := readCString(b[off:])
	if !ok {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "QUERY missing collection name terminator")
	}
	off += n
	if err := needLen(b, off+8, "QUERY skip/return"); err != nil {
		return nil, err
	}
	skip := getInt32(b[off : off+4])
	toReturn := getInt32(b[off+4 : off+8])
	off += 8
	q, err := bsondoc.FromBytes(b[off:])
	if err != nil {
		return nil, err
	}
	off += len(q.Bytes())
	qb := &QueryBody{Flags: flags, FullCollectionName: name, NumberToSkip: skip, NumberToReturn: toReturn, Query: q}
	if off < len(b) {
		sel, err := bsondoc.FromBytes(b[off:])
		if err == nil {
			qb.ReturnFieldsSelector = sel
		}
	}
	return qb, nil
}

func scatterGetMore(b []byte) (*GetMoreBody, error) {
	if err := needLen(b, 4, "GET_MORE"); err != nil {
		return nil, err
	}
	off := 4
	name, n, ok := readCString(b[off:])
	if !ok {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "GET_MORE missing collection name terminator")
	}
	off += n
	if err := needLen(b, off+12, "GET_MORE tail"); err != nil {
		return nil, err
	}
	return &GetMoreBody{
		FullCollectionName: name,
		NumberToReturn:     getInt32(b[off : off+4]),
		CursorID:           getInt64(b[off+4 : off+12]),
	}, nil
}

func scatterDelete(b []byte) (*DeleteBody, error) {
	if err := needLen(b, 4, "DELETE"); err != nil {
		return nil, err
	}
	off := 4
	name, n, ok := readCString(b[off:])
	if !ok {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "DELETE missing collection name terminator")
	}
	off += n
	if err := needLen(b, off+4, "DELETE flags"); err != nil {
		return nil, err
	}
	flags := uint32(getInt32(b[off : off+4]))
	off += 4
	sel, err := bsondoc.FromBytes(b[off:])
	if err != nil {
		return nil, err
	}
	return &DeleteBody{FullCollectionName: name, Flags: flags, Selector: sel}, nil
}

func scatterKillCursors(b []byte) (*KillCursorsBody, error) {
	if err := needLen(b, 8, "KILL_CURSORS"); err != nil {
		return nil, err
	}
	n := int(getInt32(b[4:8]))
	if n < 0 || needLen(b, 8+n*8, "KILL_CURSORS ids") != nil {
		return nil, cos.NewErr(cos.DomainProtocol, cos.CodeProtocolInvalidReply, "KILL_CURSORS numberOfCursorIDs %d inconsistent with body length %d", n, len(b)-8)
	}
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		ids[i] = getInt64(b[8+i*8 : 16+i*8])
	}
	return &KillCursorsBody{NumberOfCursorIDs: int32(n), CursorIDs: ids}, nil
}
