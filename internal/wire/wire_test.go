package wire

import (
	"bytes"
	"math"
	"testing"
)

func mustDecode(t *testing.T, b []byte) Envelope {
	t.Helper()
	e, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return e
}

func TestRoundTripNoDepNoExpiry(t *testing.T) {
	enc := Encode(Envelope{Payload: []byte("hello")})
	e := mustDecode(t, enc)
	if e.ExpiresAtUnix != 0 {
		t.Fatalf("expiresAt = %d, want 0", e.ExpiresAtUnix)
	}
	if e.DepBytes != nil {
		t.Fatalf("depBytes = %v, want nil", e.DepBytes)
	}
	if !bytes.Equal(e.Payload, []byte("hello")) {
		t.Fatalf("payload mismatch: got %q", e.Payload)
	}
}

func TestRoundTripWithExpiryAndDep(t *testing.T) {
	dep := []byte{1, 2, 3, 4}
	enc := Encode(Envelope{ExpiresAtUnix: math.MaxInt32, DepBytes: dep, Payload: []byte("v")})
	e := mustDecode(t, enc)
	if e.ExpiresAtUnix != math.MaxInt32 {
		t.Fatalf("expiresAt mismatch: got %d", e.ExpiresAtUnix)
	}
	if !bytes.Equal(e.DepBytes, dep) {
		t.Fatalf("depBytes mismatch: got %v", e.DepBytes)
	}
	if !bytes.Equal(e.Payload, []byte("v")) {
		t.Fatalf("payload mismatch: got %q", e.Payload)
	}
}

func TestEmptyPayloadRoundTrips(t *testing.T) {
	enc := Encode(Envelope{})
	e := mustDecode(t, enc)
	if len(e.Payload) != 0 {
		t.Fatalf("payload = %v, want empty", e.Payload)
	}
}

func TestDecodeRejectsForeignBytes(t *testing.T) {
	foreign := []byte(`{"id":"1","name":"Ada"}`)
	if _, err := Decode(foreign); err != ErrCorrupt {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
	if LooksFramed(foreign) {
		t.Fatalf("LooksFramed = true for foreign bytes")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := Encode(Envelope{Payload: []byte("x")})
	enc = append(enc, 0xDE, 0xAD)
	if _, err := Decode(enc); err != ErrCorrupt {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestDecodeRejectsTruncatedLengths(t *testing.T) {
	enc := Encode(Envelope{DepBytes: []byte{9, 9}, Payload: []byte("abcdef")})
	for n := 0; n < len(enc); n++ {
		trunc := enc[:n]
		if _, err := Decode(trunc); err == nil && n != len(enc) {
			t.Fatalf("truncation at %d unexpectedly decoded", n)
		}
	}
}

func TestLooksFramedMatchesDecodeSuccess(t *testing.T) {
	enc := Encode(Envelope{Payload: []byte("p")})
	if !LooksFramed(enc) {
		t.Fatalf("LooksFramed = false for a value we just encoded")
	}
	if _, err := Decode(enc); err != nil {
		t.Fatalf("Decode error on well-framed value: %v", err)
	}
}
