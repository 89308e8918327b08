package bsondoc

import "github.com/nereusdb/ndbc/cos"

// Stream is a sequence of concatenated documents, the shape of the
// `documents(stream)` tail on OP_INSERT and the batch body of OP_REPLY: each
// element is back-to-back length-prefixed BSON with no separator. Stream
// borrows its backing buffer; callers that need to retain a Doc past the
// buffer's lifetime must copy it first.
type Stream struct {
	buf []byte
}

// NewStream wraps a raw byte buffer for iteration without validating it eagerly.
func NewStream(buf []byte) Stream { return Stream{buf: buf} }

// StreamOf concatenates a set of documents into a single Stream, the gather
// side of the `documents(stream)` contract.
func StreamOf(docs ...Doc) Stream {
	n := 0
	for _, d := range docs {
		n += len(d.Bytes())
	}
	buf := make([]byte, 0, n)
	for _, d := range docs {
		buf = append(buf, d.Bytes()...)
	}
	return Stream{buf: buf}
}

func (s Stream) Bytes() []byte { return s.buf }
func (s Stream) Len() int      { return len(s.buf) }

// Count walks the stream counting documents without retaining them.
func (s Stream) Count() (int, error) {
	n := 0
	it := s.Iterator()
	for it.Next() {
		n++
	}
	return n, it.Err()
}

// All decodes every document in the stream eagerly.
func (s Stream) All() ([]Doc, error) {
	var out []Doc
	it := s.Iterator()
	for it.Next() {
		out = append(out, it.Doc())
	}
	return out, it.Err()
}

func (s Stream) Iterator() *StreamIter {
	return &StreamIter{buf: s.buf}
}

// StreamIter walks a Stream one document at a time.
type StreamIter struct {
	buf []byte
	off int
	cur Doc
	err error
}

func (it *StreamIter) Next() bool {
	if it.err != nil || it.off >= len(it.buf) {
		return false
	}
	rest := it.buf[it.off:]
	if len(rest) < 4 {
		it.err = cos.NewErr(cos.DomainBSON, cos.CodeBSONInvalid, "truncated document in stream")
		return false
	}
	d, err := FromBytes(rest)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = d
	it.off += len(d.Bytes())
	return true
}

func (it *StreamIter) Doc() Doc   { return it.cur }
func (it *StreamIter) Err() error { return it.err }
