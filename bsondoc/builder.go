package bsondoc

import (
	"encoding/binary"
	"math"
)

// Builder assembles a document one element at a time in key order, the
// "build" half of the opaque document library's contract.
type Builder struct {
	buf []byte
}

func NewBuilder() *Builder {
	b := &Builder{buf: make([]byte, 4, 64)} // reserve length prefix
	return b
}

func (b *Builder) appendKey(t byte, key string) {
	b.buf = append(b.buf, t)
	b.buf = append(b.buf, key...)
	b.buf = append(b.buf, 0)
}

func (b *Builder) AppendString(key, val string) *Builder {
	b.appendKey(TypeString, key)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(val)+1))
	b.buf = append(b.buf, lb[:]...)
	b.buf = append(b.buf, val...)
	b.buf = append(b.buf, 0)
	return b
}

func (b *Builder) AppendInt32(key string, val int32) *Builder {
	b.appendKey(TypeInt32, key)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(val))
	b.buf = append(b.buf, lb[:]...)
	return b
}

func (b *Builder) AppendInt64(key string, val int64) *Builder {
	b.appendKey(TypeInt64, key)
	var lb [8]byte
	binary.LittleEndian.PutUint64(lb[:], uint64(val))
	b.buf = append(b.buf, lb[:]...)
	return b
}

func (b *Builder) AppendDouble(key string, val float64) *Builder {
	b.appendKey(TypeDouble, key)
	var lb [8]byte
	binary.LittleEndian.PutUint64(lb[:], math.Float64bits(val))
	b.buf = append(b.buf, lb[:]...)
	return b
}

func (b *Builder) AppendBool(key string, val bool) *Builder {
	b.appendKey(TypeBool, key)
	if val {
		b.buf = append(b.buf, 1)
	} else {
		b.buf = append(b.buf, 0)
	}
	return b
}

func (b *Builder) AppendNull(key string) *Builder {
	b.appendKey(TypeNull, key)
	return b
}

func (b *Builder) AppendDocument(key string, d Doc) *Builder {
	b.appendKey(TypeDocument, key)
	b.buf = append(b.buf, d.Bytes()...)
	return b
}

func (b *Builder) AppendArray(key string, elems []Doc) *Builder {
	ab := NewBuilder()
	for i, e := range elems {
		ab.AppendDocument(itoa(i), e)
	}
	b.appendKey(TypeArray, key)
	b.buf = append(b.buf, ab.Finish().Bytes()...)
	return b
}

func (b *Builder) AppendStringArray(key string, vals []string) *Builder {
	ab := NewBuilder()
	for i, v := range vals {
		ab.AppendString(itoa(i), v)
	}
	b.appendKey(TypeArray, key)
	b.buf = append(b.buf, ab.Finish().Bytes()...)
	return b
}

func (b *Builder) AppendBinary(key string, data []byte) *Builder {
	b.appendKey(TypeBinary, key)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(data)))
	b.buf = append(b.buf, lb[:]...)
	b.buf = append(b.buf, 0) // subtype 0x00, generic
	b.buf = append(b.buf, data...)
	return b
}

func (b *Builder) AppendObjectID(key string, id ObjectID) *Builder {
	b.appendKey(TypeObjectID, key)
	b.buf = append(b.buf, id[:]...)
	return b
}

// Finish terminates and stamps the total length, producing an immutable Doc.
func (b *Builder) Finish() Doc {
	b.buf = append(b.buf, 0) // terminator
	binary.LittleEndian.PutUint32(b.buf, uint32(len(b.buf)))
	return Doc{data: b.buf}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	n := i
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
