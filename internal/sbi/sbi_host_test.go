//go:build !riscv

package sbi

import (
	"bytes"
	"testing"
)

func TestHostPutCharWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	h := NewHost(&buf, 8)
	h.PutChar('x')
	if buf.String() != "x" {
		t.Fatalf("expected %q, got %q", "x", buf.String())
	}
}

func TestHostGetCharReadsFedBytes(t *testing.T) {
	h := NewHost(&bytes.Buffer{}, 8)
	h.Feed('q')
	b, ok := h.GetChar()
	if !ok || b != 'q' {
		t.Fatalf("expected 'q', got %q (ok=%v)", b, ok)
	}
	if _, ok := h.GetChar(); ok {
		t.Fatal("expected empty ring to report no input")
	}
}

func TestHostShutdownCallsOnExit(t *testing.T) {
	called := false
	h := NewHost(&bytes.Buffer{}, 1)
	h.OnExit = func() { called = true }
	h.Shutdown()
	if !called || !h.Exited() {
		t.Fatal("expected Shutdown to invoke OnExit and mark Exited")
	}
}
