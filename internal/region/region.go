// Package region implements known-memory regions (spec.md §4.2): named,
// contiguous, device-addressable ranges (today: the framebuffer) leased
// exclusively to one process at a time.
package region

import (
	"sync"

	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/procid"
)

// Name identifies a known region.
type Name int

const (
	// Framebuffer is the only known region the CORE currently defines; the
	// graphics server that owns its contents is an external collaborator
	// (spec.md §1).
	Framebuffer Name = iota
)

type entry struct {
	base   physaddr.Addr
	pages  int
	lessee procid.Pidx // procid.PidxInvalid if IDLE
}

// Table is the fixed table of known regions.
type Table struct {
	mu      sync.Mutex
	regions map[Name]*entry
}

// NewTable constructs a region table. Regions are registered with Define
// before they can be leased.
func NewTable() *Table {
	return &Table{regions: make(map[Name]*entry)}
}

// Define registers a region's backing address and size. Intended to be
// called once at boot by the platform layer (e.g. after probing the VirtIO
// GPU device for its framebuffer address), not by user processes.
func (t *Table) Define(name Name, base physaddr.Addr, pages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.regions[name] = &entry{base: base, pages: pages, lessee: procid.PidxInvalid}
}

// Lock leases name to pidx, returning the region's base address, if the
// region is currently IDLE or already leased to pidx, and the caller's
// requested page count does not exceed the region's size. Returns
// (physaddr.Null, false) otherwise (spec.md §4.2).
func (t *Table) Lock(name Name, pages int, pidx procid.Pidx) (physaddr.Addr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.regions[name]
	if !ok {
		return physaddr.Null, false
	}
	if pages > e.pages {
		return physaddr.Null, false
	}
	if e.lessee != procid.PidxInvalid && e.lessee != pidx {
		return physaddr.Null, false
	}
	e.lessee = pidx
	return e.base, true
}

// ReleaseProcess releases every region leased to pidx, making each IDLE
// again. Called on process termination (spec.md §4.2, §4.10).
func (t *Table) ReleaseProcess(pidx procid.Pidx) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.regions {
		if e.lessee == pidx {
			e.lessee = procid.PidxInvalid
		}
	}
}

// Lessee reports the current lessee of name, or procid.PidxInvalid if IDLE
// or undefined.
func (t *Table) Lessee(name Name) procid.Pidx {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.regions[name]
	if !ok {
		return procid.PidxInvalid
	}
	return e.lessee
}
