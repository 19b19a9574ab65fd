package userland

import (
	"testing"

	"github.com/upvalue/otium-sub000/internal/mempage"
	"github.com/upvalue/otium-sub000/internal/physaddr"
)

func testPage(t *testing.T) physaddr.Addr {
	t.Helper()
	physaddr.InitRAM(16 * physaddr.PageSize)
	alloc := mempage.New(physaddr.Null, 16)
	addr, ok := alloc.Allocate(1, 1)
	if !ok {
		t.Fatal("allocate failed")
	}
	return addr
}

func TestCommStringRoundTrip(t *testing.T) {
	page := testPage(t)
	if err := WriteCommString(page, "hello"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ReadCommString(page)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestArgsRoundTrip(t *testing.T) {
	page := testPage(t)
	want := []int64{1, -2, 300, 0}
	if err := WriteArgs(page, want); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ReadArgs(page)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d args, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestReadCommStringRejectsWrongTag(t *testing.T) {
	page := testPage(t)
	buf := physaddr.As[[physaddr.PageSize]byte](page)
	if err := WriteArgs(page, []int64{1, 2}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_ = buf
	if _, err := ReadCommString(page); err == nil {
		t.Fatal("expected error decoding an args array as a comm string")
	}
}
