// Package wire: byte-order normalization ("swab" in the teacher's and the
// original C driver's vocabulary).
//
// The C driver keeps RPC fields in host-order structs and swaps each
// multi-byte field in place immediately before a send and immediately after
// a recv, guarded by an #ifdef on the build's detected endianness — on the
// overwhelmingly common little-endian host that swap is already a no-op at
// compile time.
//
// Go has no equivalent in-memory representation to swap: RPC fields never
// exist as raw host-order bytes, only as typed Go values (int32, int64,
// string) that get explicitly encoded via encoding/binary.LittleEndian in
// Gather/Scatter (see header.go, gather.go, scatter.go). Choosing
// LittleEndian unconditionally, on every host, is what "swab" collapses to
// in a language without type punning: there is no separate swab pass to
// write, because encode and decode already are it.
package wire
