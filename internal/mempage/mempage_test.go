package mempage

import (
	"testing"

	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/procid"
)

func TestAllocateContiguous(t *testing.T) {
	a := New(0, 8)
	base, ok := a.Allocate(1, 3)
	if !ok {
		t.Fatal("expected allocation to succeed")
	}
	if base != 0 {
		t.Fatalf("expected first-fit base 0, got %v", base)
	}
	owner, ok := a.Owner(physaddr.Addr(2 * physaddr.PageSize))
	if !ok || owner != 1 {
		t.Fatalf("expected frame 2 owned by 1, got %v %v", owner, ok)
	}
	if a.FreeCount() != 5 {
		t.Fatalf("expected 5 free frames, got %d", a.FreeCount())
	}
}

func TestAllocateExhaustion(t *testing.T) {
	a := New(0, 4)
	if _, ok := a.Allocate(1, 4); !ok {
		t.Fatal("expected full allocation to succeed")
	}
	if _, ok := a.Allocate(2, 1); ok {
		t.Fatal("expected allocation to fail when no frames remain")
	}
}

func TestAllocateNoSufficientRun(t *testing.T) {
	a := New(0, 4)
	// pid 1 takes frames 0 and 1 and frees both; pid 2 then takes frame 0
	if _, ok := a.Allocate(1, 1); !ok {
		t.Fatal("setup alloc 1 failed")
	}
	if _, ok := a.Allocate(1, 1); !ok {
		t.Fatal("setup alloc 2 failed")
	}
	a.FreeProcess(1)
	if _, ok := a.Allocate(2, 1); !ok {
		t.Fatal("alloc after free should succeed")
	}
	// now frame 0 is owned by 2, frames 1-3 free: a run of 4 should fail,
	// but a run of 3 should succeed starting at frame 1.
	if _, ok := a.Allocate(3, 4); ok {
		t.Fatal("expected run of 4 to fail")
	}
	base, ok := a.Allocate(3, 3)
	if !ok {
		t.Fatal("expected run of 3 to succeed")
	}
	if base != physaddr.Addr(1*physaddr.PageSize) {
		t.Fatalf("expected base at frame 1, got %v", base)
	}
}

func TestFreeProcessReleasesOnlyOwnedFrames(t *testing.T) {
	a := New(0, 4)
	a.Allocate(1, 2)
	a.Allocate(2, 2)
	n := a.FreeProcess(1)
	if n != 2 {
		t.Fatalf("expected 2 frames released, got %d", n)
	}
	owner, _ := a.Owner(0)
	if owner != procid.PidxInvalid {
		t.Fatalf("expected frame 0 to be free, got owner %v", owner)
	}
	owner, _ = a.Owner(physaddr.Addr(2 * physaddr.PageSize))
	if owner != 2 {
		t.Fatalf("expected process 2 to retain its frames, got %v", owner)
	}
}

func TestOwnerOutOfRange(t *testing.T) {
	a := New(0, 2)
	if _, ok := a.Owner(physaddr.Addr(100 * physaddr.PageSize)); ok {
		t.Fatal("expected out-of-range lookup to fail")
	}
}

// TestPageRecycling mirrors spec.md §8 scenario S2: frames released by a
// terminated process are available for reuse and a subsequent same-sized
// allocation draws from exactly that freed set.
func TestPageRecycling(t *testing.T) {
	a := New(0, 16)
	f1 := mustAlloc(t, a, 1, 4)
	mustAlloc(t, a, 2, 2) // unrelated process
	a.FreeProcess(1)
	f3 := mustAlloc(t, a, 3, 4)

	if len(f3) != len(f1) {
		t.Fatalf("expected %d frames, got %d", len(f1), len(f3))
	}
	set := make(map[physaddr.Addr]bool)
	for _, f := range f1 {
		set[f] = true
	}
	for _, f := range f3 {
		if !set[f] {
			t.Fatalf("frame %v not in original set", f)
		}
	}
}

func mustAlloc(t *testing.T, a *Allocator, owner procid.Pidx, n int) []physaddr.Addr {
	t.Helper()
	if _, ok := a.Allocate(owner, n); !ok {
		t.Fatalf("allocation of %d frames for owner %v failed", n, owner)
	}
	return a.OwnedFrames(owner)
}
