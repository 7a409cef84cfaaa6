// Package wire frames a WrappedValue envelope (absolute expiry + optional
// dependency metadata blob + value payload) onto bytes, for tiers whose
// backend only stores []byte (e.g. Redis, BigCache). In-process tiers that
// can hold a Go value directly still round-trip through this framing, so
// that every tier persists the same wire format described in spec §6 and
// a payload written without it is unambiguously a "legacy raw value"
// (spec §9).
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	kind    byte = 1
)

var (
	// ErrCorrupt is returned by Decode when b is too short, has a bad
	// magic/version/kind, or has an internal length that doesn't fit —
	// the caller's prescribed response is to treat this as a legacy raw
	// value (non-strict) or a breaker failure (strict), per spec §9.
	ErrCorrupt = errors.New("tiercache: corrupt wire entry")

	magic4 = [...]byte{'T', 'I', 'E', 'R'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Envelope is the decoded form of a framed entry.
type Envelope struct {
	ExpiresAtUnix int64  // 0 => no façade-enforced expiry
	DepBytes      []byte // nil => no dependency metadata
	Payload       []byte
}

// Encode frames an envelope as:
//
//	magic(4) | ver(1) | kind(1) | expiresAt(i64 be) | depLen(u32 be) | dep(depLen) | vlen(u32 be) | payload(vlen)
func Encode(e Envelope) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 8 + 4 + len(e.DepBytes) + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(e.ExpiresAtUnix))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.DepBytes)))
	buf.Write(u4[:])
	buf.Write(e.DepBytes)

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)

	return buf.Bytes()
}

// Decode parses an envelope previously produced by Encode. It returns
// ErrCorrupt for anything that isn't recognizably our own framing
// (including a foreign/legacy value that happens to start with arbitrary
// bytes), never for a merely-expired entry — expiry is a semantic check
// the caller performs on the decoded ExpiresAtUnix.
func Decode(b []byte) (Envelope, error) {
	const hdr = 4 + 1 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kind {
		return Envelope{}, ErrCorrupt
	}

	off := 6

	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	if off+4 > len(b) {
		return Envelope{}, ErrCorrupt
	}
	depLen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if depLen < 0 || depLen > len(b)-off {
		return Envelope{}, ErrCorrupt
	}
	var dep []byte
	if depLen > 0 {
		dep = b[off : off+depLen]
	}
	off += depLen

	if off+4 > len(b) {
		return Envelope{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off {
		return Envelope{}, ErrCorrupt
	}
	payload := b[off : off+vlen]
	off += vlen

	if off != len(b) {
		return Envelope{}, ErrCorrupt // trailing bytes: not ours
	}

	return Envelope{ExpiresAtUnix: exp, DepBytes: dep, Payload: payload}, nil
}

// LooksFramed is a cheap pre-check used by callers that want to
// distinguish "not ours, don't bother decoding" from a real decode
// failure, without duplicating the full header validation.
func LooksFramed(b []byte) bool {
	return hasMagic(b) && len(b) >= 6 && b[4] == version && b[5] == kind
}
