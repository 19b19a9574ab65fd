package mpack

import "testing"

func TestStringRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	w := NewWriter(buf)
	w.Array(2).Str("string").Str("hello core")
	if err := w.Err(); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := NewReader(buf[:w.Len()])
	n, ok := r.EnterArray()
	if !ok || n != 2 {
		t.Fatalf("expected array of 2, got %d (ok=%v)", n, ok)
	}
	typ, ok := r.ReadString()
	if !ok || typ != "string" {
		t.Fatalf("expected type %q, got %q", "string", typ)
	}
	msg, ok := r.ReadString()
	if !ok || msg != "hello core" {
		t.Fatalf("expected %q, got %q", "hello core", msg)
	}
}

func TestIntRoundTripAcrossRanges(t *testing.T) {
	values := []int64{0, 1, 127, 128, 255, 256, 65535, 65536, -1, -32, -33, -129, -40000, -3000000000}
	buf := make([]byte, 256)
	w := NewWriter(buf)
	for _, v := range values {
		w.Int(v)
	}
	if err := w.Err(); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := NewReader(buf[:w.Len()])
	for _, want := range values {
		got, ok := r.ReadInt()
		if !ok {
			t.Fatalf("read failed for expected %d: %v", want, r.Err())
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestNilAndBool(t *testing.T) {
	buf := make([]byte, 16)
	w := NewWriter(buf)
	w.Nil().Bool(true).Bool(false)

	r := NewReader(buf[:w.Len()])
	if !r.ReadNil() {
		t.Fatal("expected nil to read back")
	}
	if v, ok := r.ReadBool(); !ok || !v {
		t.Fatal("expected true")
	}
	if v, ok := r.ReadBool(); !ok || v {
		t.Fatal("expected false")
	}
}

func TestBinRoundTrip(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	buf := make([]byte, 512)
	w := NewWriter(buf)
	w.Bin(data)
	if err := w.Err(); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := NewReader(buf[:w.Len()])
	got, ok := r.ReadBin()
	if !ok || len(got) != len(data) {
		t.Fatalf("expected %d bytes back, got %d (ok=%v)", len(data), len(got), ok)
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d mismatch: want %d got %d", i, data[i], got[i])
		}
	}
}

func TestShortBufferErrors(t *testing.T) {
	buf := make([]byte, 1)
	w := NewWriter(buf)
	w.Str("too long for one byte")
	if w.Err() != ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", w.Err())
	}
}

func TestUnexpectedTypeErrors(t *testing.T) {
	buf := make([]byte, 8)
	w := NewWriter(buf)
	w.Str("hi")
	r := NewReader(buf[:w.Len()])
	if _, ok := r.EnterArray(); ok {
		t.Fatal("expected EnterArray on a str token to fail")
	}
	if r.Err() != ErrUnexpectedType {
		t.Fatalf("expected ErrUnexpectedType, got %v", r.Err())
	}
}
