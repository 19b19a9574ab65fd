package console

import "testing"

func TestRingPutGetOrder(t *testing.T) {
	r := NewRing(4)
	for _, b := range []byte("ab") {
		if !r.PutByte(b) {
			t.Fatalf("expected PutByte(%q) to succeed", b)
		}
	}
	for _, want := range []byte("ab") {
		got, ok := r.GetByte()
		if !ok || got != want {
			t.Fatalf("expected %q, got %q (ok=%v)", want, got, ok)
		}
	}
	if !r.Empty() {
		t.Fatal("expected ring to be empty after draining")
	}
}

func TestRingFullDropsExcess(t *testing.T) {
	r := NewRing(2)
	if !r.PutByte('x') || !r.PutByte('y') {
		t.Fatal("expected first two puts to succeed")
	}
	if r.PutByte('z') {
		t.Fatal("expected put into full ring to fail")
	}
	if !r.Full() {
		t.Fatal("expected ring to report full")
	}
}

func TestRingGetFromEmpty(t *testing.T) {
	r := NewRing(1)
	if _, ok := r.GetByte(); ok {
		t.Fatal("expected GetByte on empty ring to fail")
	}
}

func TestRingWrapsAroundCapacity(t *testing.T) {
	r := NewRing(2)
	r.PutByte('a')
	r.GetByte()
	r.PutByte('b')
	r.PutByte('c')
	got1, _ := r.GetByte()
	got2, _ := r.GetByte()
	if got1 != 'b' || got2 != 'c' {
		t.Fatalf("expected b,c got %q,%q", got1, got2)
	}
}
