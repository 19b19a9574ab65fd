// Package mempage implements the CORE's page frame allocator (spec.md
// §4.1): a fixed-size-page, first-fit-ascending, contiguous allocator over
// [RAM_BASE, RAM_END), with an owner-pidx metadata array parallel to the
// frame array.
//
// Grounded on biscuit's src/mem/mem.go (Physmem_t manages all physical
// memory as an array of Physpg_t metadata parallel to the frames). Unlike
// biscuit's allocator this one does not refcount pages or maintain per-CPU
// free lists: spec.md's non-goals exclude SMP, and spec.md §3 states a page
// is owned by exactly one process at a time rather than shared and
// refcounted, so there is nothing to count. It also never direct-maps a
// physical address to a separate virtual one (§1 non-goals: no MMU
// translation) — callers already work in the one physical address space.
package mempage

import (
	"fmt"
	"sync"

	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/procid"
)

// frame is the metadata for one physical page. Free iff owner == procid.PidxInvalid.
type frame struct {
	owner procid.Pidx
}

// Allocator manages [base, base+n*PageSize) as an array of fixed-size
// frames. It is safe for concurrent use, though spec.md §5 notes the CORE
// itself never calls it concurrently; cmd/hostsim's multi-instance scenario
// runner is the reason the lock exists.
type Allocator struct {
	mu     sync.Mutex
	base   physaddr.Addr
	frames []frame
}

// New creates an allocator managing n pages starting at base. base must be
// page-aligned.
func New(base physaddr.Addr, n int) *Allocator {
	if !base.Aligned(physaddr.PageSize) {
		panic("mempage: unaligned base")
	}
	if n <= 0 {
		panic("mempage: non-positive frame count")
	}
	a := &Allocator{
		base:   base,
		frames: make([]frame, n),
	}
	for i := range a.frames {
		a.frames[i].owner = procid.PidxInvalid
	}
	return a
}

// NumFrames returns the total number of frames under management.
func (a *Allocator) NumFrames() int {
	return len(a.frames)
}

func (a *Allocator) addrOf(i int) physaddr.Addr {
	return a.base.Add(uintptr(i) * physaddr.PageSize)
}

func (a *Allocator) indexOf(addr physaddr.Addr) (int, bool) {
	if addr < a.base {
		return 0, false
	}
	off := uintptr(addr - a.base)
	if off%physaddr.PageSize != 0 {
		return 0, false
	}
	idx := int(off / physaddr.PageSize)
	if idx >= len(a.frames) {
		return 0, false
	}
	return idx, true
}

// Allocate hands out n contiguous pages owned by owner, or returns
// (physaddr.Null, false) if no such run of free frames exists. Contiguity
// is mandatory (spec.md §4.1): callers rely on it for DMA-visible ranges.
// Tie-break is first-fit ascending.
func (a *Allocator) Allocate(owner procid.Pidx, n int) (physaddr.Addr, bool) {
	if n <= 0 {
		panic("mempage: non-positive allocation size")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	run := 0
	for i := 0; i < len(a.frames); i++ {
		if a.frames[i].owner == procid.PidxInvalid {
			run++
			if run == n {
				start := i - n + 1
				for j := start; j <= i; j++ {
					a.frames[j].owner = owner
				}
				return a.addrOf(start), true
			}
		} else {
			run = 0
		}
	}
	return physaddr.Null, false
}

// FreeProcess releases every frame owned by owner and reports how many
// frames were released (spec.md §4.1's free_process).
func (a *Allocator) FreeProcess(owner procid.Pidx) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for i := range a.frames {
		if a.frames[i].owner == owner {
			a.frames[i].owner = procid.PidxInvalid
			n++
		}
	}
	return n
}

// Owner reports the owner of the frame containing addr, or
// (procid.PidxInvalid, false) if addr does not fall within a managed,
// page-aligned frame.
func (a *Allocator) Owner(addr physaddr.Addr) (procid.Pidx, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx, ok := a.indexOf(addr)
	if !ok {
		return procid.PidxInvalid, false
	}
	return a.frames[idx].owner, true
}

// FreeCount returns the number of currently-unowned frames.
func (a *Allocator) FreeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for i := range a.frames {
		if a.frames[i].owner == procid.PidxInvalid {
			n++
		}
	}
	return n
}

// OwnedFrames returns the base address of every frame currently owned by
// owner, in ascending order. Used by the S2 page-recycling test (spec.md
// §8) to compare a process's frame set across a free/realloc cycle.
func (a *Allocator) OwnedFrames(owner procid.Pidx) []physaddr.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []physaddr.Addr
	for i := range a.frames {
		if a.frames[i].owner == owner {
			out = append(out, a.addrOf(i))
		}
	}
	return out
}

// Report formats a one-line summary of allocator occupancy for diagnostics.
func (a *Allocator) Report() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	free := 0
	for i := range a.frames {
		if a.frames[i].owner == procid.PidxInvalid {
			free++
		}
	}
	return fmt.Sprintf("mempage: %d/%d frames free", free, len(a.frames))
}
