package wire

import "encoding/binary"

// Header is the 16-byte prefix common to every RPC: message_length,
// request_id, response_to, opcode, all 32-bit signed little-endian.
type Header struct {
	MessageLength int32
	RequestID     int32
	ResponseTo    int32
	Opcode        Opcode
}

// encode serializes the header's four int32 fields as little-endian, the
// module's "swab" step. Go has no notion of host byte order for values that
// live only in explicitly-encoded buffers (unlike the C driver's in-memory
// struct that is byte-swapped in place), so encode/decode are the swap: on
// any host, encoding always produces little-endian bytes, which is why the
// teacher's "on little-endian hosts the swap is a no-op" note degenerates
// here to "always a no-op" — see DESIGN.md.
func (h Header) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(h.MessageLength))
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.RequestID))
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.ResponseTo))
	binary.LittleEndian.PutUint32(b[12:16], uint32(h.Opcode))
	return b
}

// PeekMessageLength reads just the length prefix out of a header buffer,
// letting a caller size its read buffer before decoding the full header.
func PeekMessageLength(b []byte) int32 {
	return getInt32(b[0:4])
}

func decodeHeader(b []byte) Header {
	return Header{
		MessageLength: int32(binary.LittleEndian.Uint32(b[0:4])),
		RequestID:     int32(binary.LittleEndian.Uint32(b[4:8])),
		ResponseTo:    int32(binary.LittleEndian.Uint32(b[8:12])),
		Opcode:        Opcode(int32(binary.LittleEndian.Uint32(b[12:16]))),
	}
}

func putInt32(b []byte, v int32)  { binary.LittleEndian.PutUint32(b, uint32(v)) }
func putInt64(b []byte, v int64)  { binary.LittleEndian.PutUint64(b, uint64(v)) }
func getInt32(b []byte) int32     { return int32(binary.LittleEndian.Uint32(b)) }
func getInt64(b []byte) int64     { return int64(binary.LittleEndian.Uint64(b)) }

func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func readCString(b []byte) (string, int, bool) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), i + 1, true
		}
	}
	return "", 0, false
}
