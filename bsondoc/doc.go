// Package bsondoc is the minimal self-describing document codec this module
// treats as an external collaborator per spec §1: "the self-describing
// document encoder/decoder (consumed as an opaque library: build, read
// fields, serialize, compute size)". The wire codec, cursor engine, and
// collection façade only ever call Build/Bytes/Len/Lookup/Iterator on a Doc;
// none of them know or care about the byte layout below.
//
// The layout is the classic self-describing document framing used by the
// protocol in spec §3 ("documents carry their own length prefix"): a
// little-endian int32 total length (including itself and the trailing NUL),
// then a sequence of type-tagged, NUL-terminated-key elements, then a single
// NUL terminator byte.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package bsondoc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nereusdb/ndbc/cos"
)

// element type tags, the subset this module needs to build and read the
// command/query/selector documents the core protocol exchanges.
const (
	TypeDouble    byte = 0x01
	TypeString    byte = 0x02
	TypeDocument  byte = 0x03
	TypeArray     byte = 0x04
	TypeBinary    byte = 0x05
	TypeObjectID  byte = 0x07
	TypeBool      byte = 0x08
	TypeNull      byte = 0x0A
	TypeInt32     byte = 0x10
	TypeInt64     byte = 0x12
)

// Doc is a parsed or built self-describing document: a borrowed or owned
// byte slice whose first four bytes are its own little-endian length.
type Doc struct {
	data []byte
}

// FromBytes wraps an already-encoded, length-prefixed document without
// copying; used when scattering a REPLY's document stream.
func FromBytes(b []byte) (Doc, error) {
	if len(b) < 5 {
		return Doc{}, cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "document too short (%d bytes)", len(b))
	}
	n := int32(binary.LittleEndian.Uint32(b))
	if int(n) > len(b) || n < 5 {
		return Doc{}, cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "invalid document length %d (have %d bytes)", n, len(b))
	}
	return Doc{data: b[:n]}, nil
}

// Bytes returns the raw encoded document, length-prefixed.
func (d Doc) Bytes() []byte { return d.data }

// Len returns the document's self-declared byte length.
func (d Doc) Len() int32 {
	if len(d.data) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(d.data))
}

func (d Doc) IsZero() bool { return len(d.data) == 0 }

// Lookup scans top-level elements for key and returns its decoded value.
func (d Doc) Lookup(key string) (Value, bool) {
	it := d.Iterator()
	for it.Next() {
		if it.Key() == key {
			return it.Value(), true
		}
	}
	return Value{}, false
}

// Iterator walks the top-level elements of a document in order.
func (d Doc) Iterator() *Iter {
	return &Iter{data: d.data, off: 4}
}

type Iter struct {
	data []byte
	off  int
	typ  byte
	key  string
	val  Value
	err  error
}

func (it *Iter) Err() error { return it.err }

func (it *Iter) Next() bool {
	if it.err != nil || it.off >= len(it.data) {
		return false
	}
	t := it.data[it.off]
	if t == 0x00 { // terminator
		return false
	}
	it.off++
	start := it.off
	for it.off < len(it.data) && it.data[it.off] != 0 {
		it.off++
	}
	if it.off >= len(it.data) {
		it.err = cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "unterminated key")
		return false
	}
	key := string(it.data[start:it.off])
	it.off++ // skip key NUL
	v, n, err := decodeValue(t, it.data[it.off:])
	if err != nil {
		it.err = err
		return false
	}
	it.typ, it.key, it.val = t, key, v
	it.off += n
	return true
}

func (it *Iter) Type() byte    { return it.typ }
func (it *Iter) Key() string   { return it.key }
func (it *Iter) Value() Value  { return it.val }

// Value is a decoded element value; exactly one field among these is valid,
// selected by Type.
type Value struct {
	Type   byte
	Str    string
	I32    int32
	I64    int64
	F64    float64
	Bool   bool
	Doc    Doc
	Bin    []byte
	OID    ObjectID
}

func decodeValue(t byte, b []byte) (Value, int, error) {
	switch t {
	case TypeDouble:
		if len(b) < 8 {
			return Value{}, 0, errShort("double")
		}
		bits := binary.LittleEndian.Uint64(b[:8])
		return Value{Type: t, F64: math.Float64frombits(bits)}, 8, nil
	case TypeString:
		if len(b) < 4 {
			return Value{}, 0, errShort("string")
		}
		n := int(int32(binary.LittleEndian.Uint32(b[:4])))
		if n < 1 || 4+n > len(b) {
			return Value{}, 0, errShort("string")
		}
		s := string(b[4 : 4+n-1]) // drop trailing NUL
		return Value{Type: t, Str: s}, 4 + n, nil
	case TypeDocument, TypeArray:
		doc, err := FromBytes(b)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: t, Doc: doc}, int(doc.Len()), nil
	case TypeBinary:
		if len(b) < 5 {
			return Value{}, 0, errShort("binary")
		}
		n := int(int32(binary.LittleEndian.Uint32(b[:4])))
		if 5+n > len(b) {
			return Value{}, 0, errShort("binary")
		}
		bin := append([]byte(nil), b[5:5+n]...)
		return Value{Type: t, Bin: bin}, 5 + n, nil
	case TypeObjectID:
		if len(b) < 12 {
			return Value{}, 0, errShort("objectid")
		}
		var oid ObjectID
		copy(oid[:], b[:12])
		return Value{Type: t, OID: oid}, 12, nil
	case TypeBool:
		if len(b) < 1 {
			return Value{}, 0, errShort("bool")
		}
		return Value{Type: t, Bool: b[0] != 0}, 1, nil
	case TypeNull:
		return Value{Type: t}, 0, nil
	case TypeInt32:
		if len(b) < 4 {
			return Value{}, 0, errShort("int32")
		}
		return Value{Type: t, I32: int32(binary.LittleEndian.Uint32(b[:4]))}, 4, nil
	case TypeInt64:
		if len(b) < 8 {
			return Value{}, 0, errShort("int64")
		}
		return Value{Type: t, I64: int64(binary.LittleEndian.Uint64(b[:8]))}, 8, nil
	default:
		return Value{}, 0, cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "unsupported element type 0x%02x", t)
	}
}

func errShort(what string) error {
	return cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "truncated %s value", what)
}

func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeInt32:
		return fmt.Sprintf("%d", v.I32)
	case TypeInt64:
		return fmt.Sprintf("%d", v.I64)
	case TypeDouble:
		return fmt.Sprintf("%g", v.F64)
	case TypeBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return fmt.Sprintf("<type 0x%02x>", v.Type)
	}
}
