package netio

import (
	"net"
	"sync"
	"time"

	"github.com/nereusdb/ndbc/cos"
)

// RawStream is the bottom stream layer: a bare TCP or UNIX-domain socket.
// It owns the net.Conn and nothing else; buffering and TLS are layered on
// top of it by BufferedStream and TLSStream respectively.
type RawStream struct {
	conn   net.Conn
	closed cos.Bool
	mu     sync.Mutex
}

// NewRawStream wraps an already-established connection (synchronous dial
// path; the non-blocking connect in connect.go returns a bare fd and does
// not produce a *RawStream).
func NewRawStream(conn net.Conn) *RawStream {
	return &RawStream{conn: conn}
}

func (s *RawStream) Writev(bufs net.Buffers) (int64, error) {
	if s.CheckClosed() {
		return 0, cos.NewErrStreamNotEstablished(s.conn.RemoteAddr().String())
	}
	return bufs.WriteTo(s.conn)
}

func (s *RawStream) Readv(buf []byte) error {
	if s.CheckClosed() {
		return cos.NewErrStreamNotEstablished("")
	}
	total := 0
	for total < len(buf) {
		n, err := s.conn.Read(buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			return cos.Wrap(err, "readv: short read at %d/%d bytes", total, len(buf))
		}
	}
	return nil
}

// Cork/Uncork are no-ops on the raw layer; only the buffered layer actually
// batches small writes before flushing them as one writev call.
func (s *RawStream) Cork() error   { return nil }
func (s *RawStream) Uncork() error { return nil }

func (s *RawStream) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}

func (s *RawStream) CheckClosed() bool { return s.closed.Load() }

func (s *RawStream) GetBaseStream() Stream { return s }

func (s *RawStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed.CAS(false, true) {
		return nil
	}
	return s.conn.Close()
}
