package netio

import (
	"net"
	"time"

	"github.com/nereusdb/ndbc/cos"
)

// BufferedStream wraps a lower Stream with a read buffer, the
// "dynamic byte array used as a growable read buffer" from spec §4.2. Every
// read first drains what's already buffered; a fill then reads from the
// base stream exactly the bytes still missing, never more, so a read never
// waits on data beyond what the caller asked for.
type BufferedStream struct {
	base    Stream
	buf     cos.DynArray
	readAt  int // offset of unconsumed data within buf.Bytes()
	corked  bool
	pending net.Buffers
}

func NewBufferedStream(base Stream) *BufferedStream {
	bs := &BufferedStream{base: base}
	bs.buf.Init(1)
	return bs
}

// FillTo ensures at least n unconsumed bytes are buffered, issuing reads on
// the base stream until satisfied. This is the direct analog of the
// teacher's "fill_to" buffer primitive the spec names in §4.2.
func (bs *BufferedStream) FillTo(n int) error {
	for bs.available() < n {
		want := n - bs.available()
		chunk := make([]byte, want)
		if err := bs.base.Readv(chunk); err != nil {
			return err
		}
		bs.buf.Append(chunk, len(chunk))
	}
	return nil
}

func (bs *BufferedStream) available() int {
	return bs.buf.Len() - bs.readAt
}

// ReadTyped reads exactly n bytes out of the buffer (filling first if
// necessary) and returns a freshly-copied slice, the "varargs read_typed
// combinator" spec §9 calls out — here specialized to a single fixed-size
// read since Go has no varargs-of-heterogeneous-types equivalent to offer.
func (bs *BufferedStream) ReadTyped(n int) ([]byte, error) {
	if err := bs.FillTo(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, bs.buf.Bytes()[bs.readAt:bs.readAt+n])
	bs.readAt += n
	if bs.readAt == bs.buf.Len() {
		bs.buf.Clear()
		bs.readAt = 0
	}
	return out, nil
}

func (bs *BufferedStream) Writev(bufs net.Buffers) (int64, error) {
	if bs.corked {
		bs.pending = append(bs.pending, bufs...)
		return 0, nil
	}
	return bs.base.Writev(bufs)
}

func (bs *BufferedStream) Readv(buf []byte) error {
	got, err := bs.ReadTyped(len(buf))
	if err != nil {
		return err
	}
	copy(buf, got)
	return nil
}

// Cork defers writes until Uncork flushes them, joined into one buffer, as
// a single write, letting the cluster layer batch a header and a document
// body into one syscall.
func (bs *BufferedStream) Cork() error {
	bs.corked = true
	return nil
}

func (bs *BufferedStream) Uncork() error {
	bs.corked = false
	if len(bs.pending) == 0 {
		return nil
	}
	var joined []byte
	for _, b := range bs.pending {
		joined = append(joined, b...)
	}
	bs.pending = nil
	_, err := bs.base.Writev(net.Buffers{joined})
	return err
}

func (bs *BufferedStream) SetDeadline(t time.Time) error { return bs.base.SetDeadline(t) }
func (bs *BufferedStream) CheckClosed() bool             { return bs.base.CheckClosed() }
func (bs *BufferedStream) GetBaseStream() Stream         { return bs.base.GetBaseStream() }
func (bs *BufferedStream) Close() error {
	bs.buf.Destroy()
	return bs.base.Close()
}
