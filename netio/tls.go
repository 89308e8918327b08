package netio

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/nereusdb/ndbc/cos"
)

// TLSConfig mirrors the ssl/sslAllowInvalidCertificates/sslCAFile knobs from
// spec §6's URI schema.
type TLSConfig struct {
	Enabled            bool
	InsecureSkipVerify bool // "weak mode": accept certs without trust-store verification
	ServerName         string
	RootCAFile         string
	MinVersion         uint16
}

// TLSStream layers a TLS handshake over an already-connected base Stream.
// The handshake itself goes through tls.Conn, so this layer's Readv/Writev
// simply delegate to the wrapped *tls.Conn. WrapTLS completes the handshake
// before it returns; the scanner's "TlsHandshake" state does no handshake
// work of its own.
type TLSStream struct {
	base Stream
	conn *tls.Conn
	cfg  TLSConfig
}

// WrapTLS performs a blocking client handshake over conn (extracted from the
// base stream's RawStream) and returns a Stream that layers TLS on top.
func WrapTLS(ctx context.Context, base Stream, rawConn net.Conn, cfg TLSConfig) (*TLSStream, error) {
	tcfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ServerName:         cfg.ServerName,
		MinVersion:         cfg.MinVersion,
	}
	if tcfg.MinVersion == 0 {
		tcfg.MinVersion = tls.VersionTLS12
	}
	tc := tls.Client(rawConn, tcfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, cos.Wrap(err, "tls handshake with %s", cfg.ServerName)
	}
	return &TLSStream{base: base, conn: tc, cfg: cfg}, nil
}

func (s *TLSStream) Writev(bufs net.Buffers) (int64, error) {
	return bufs.WriteTo(s.conn)
}

func (s *TLSStream) Readv(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := s.conn.Read(buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			return cos.Wrap(err, "tls readv: short read at %d/%d", total, len(buf))
		}
	}
	return nil
}

func (s *TLSStream) Cork() error   { return s.base.Cork() }
func (s *TLSStream) Uncork() error { return s.base.Uncork() }

func (s *TLSStream) SetDeadline(t time.Time) error { return s.conn.SetDeadline(t) }
func (s *TLSStream) CheckClosed() bool             { return s.base.CheckClosed() }
func (s *TLSStream) GetBaseStream() Stream         { return s.base.GetBaseStream() }

func (s *TLSStream) Close() error {
	_ = s.conn.Close()
	return s.base.Close()
}
