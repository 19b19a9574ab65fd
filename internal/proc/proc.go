// Package proc implements the process table (spec.md §4.3): a fixed
// capacity array of process control blocks, Pidx<->Pid lookup, creation,
// termination, and the name registry (spec.md §4.9) which is just a scan
// over this same table.
//
// Grounded on the original Process struct (os/ot/kernel/kernel.hpp) for
// field shape, and on biscuit's accnt/limits packages for the "_t" struct,
// explicit-lock style used throughout this package.
package proc

import (
	"sync"

	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/limits"
	"github.com/upvalue/otium-sub000/internal/mempage"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/region"
)

// State is a process's lifecycle state (spec.md §3).
type State int

const (
	Unused State = iota
	Runnable
	IPCWait
	Terminated
)

func (s State) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Runnable:
		return "RUNNABLE"
	case IPCWait:
		return "IPC_WAIT"
	case Terminated:
		return "TERMINATED"
	default:
		return "?"
	}
}

// KernelStackBytes mirrors the original Process::stack[8192] inline kernel
// stack. On the RISC-V target the assembly trampoline uses this array's
// backing memory directly as the call stack; on the goroutine-based
// switcher (internal/switcher) it is inert padding kept only so the PCB's
// memory layout matches the spec's data model.
const KernelStackBytes = 8192

// PCB is one process control block (spec.md §3).
type PCB struct {
	mu sync.Mutex

	Name       string
	Pidx       procid.Pidx
	Pid        procid.Pid
	State      State
	KernelMode bool

	KernelStack [KernelStackBytes]byte
	UserPC      uintptr

	// SwitchHandle is opaque to this package: the active Switcher
	// implementation (internal/switcher) stores whatever per-process state
	// it needs here (a goroutine's channel pair on the hosted/WASM target,
	// or a *uintptr cell holding the saved kernel stack pointer on
	// bare-metal RISC-V).
	SwitchHandle any

	ArgPage     physaddr.Addr
	CommPage    physaddr.Addr
	StoragePage physaddr.Addr
	UserStack   physaddr.Addr

	PendingMessage    ipcwire.Message
	HasPendingMessage bool
	PendingResponse   ipcwire.Response
	BlockedSender     procid.Pidx
}

// Lock/Unlock expose the PCB's mutex to internal/ipc and internal/sched,
// which mutate these fields directly as part of the IPC and scheduling
// state machines; proc.Table does not serialize access to individual PCBs
// beyond this.
func (p *PCB) Lock()   { p.mu.Lock() }
func (p *PCB) Unlock() { p.mu.Unlock() }

// Table is the fixed-capacity process table.
type Table struct {
	mu     sync.Mutex
	cfg    limits.Config
	alloc  *mempage.Allocator
	rgn    *region.Table
	slots  []*PCB
	nextID uint64
}

// NewTable constructs a process table of cfg.ProcsMax slots. Slot 0 is the
// permanently-runnable idle process (spec.md §4.5: "slot 0 is reserved
// idle").
func NewTable(cfg limits.Config, alloc *mempage.Allocator, rgn *region.Table) *Table {
	t := &Table{
		cfg:    cfg,
		alloc:  alloc,
		rgn:    rgn,
		slots:  make([]*PCB, cfg.ProcsMax),
		nextID: 1,
	}
	for i := range t.slots {
		t.slots[i] = &PCB{Pidx: procid.Pidx(i), BlockedSender: procid.PidxInvalid}
	}
	idle := t.slots[0]
	idle.Name = "idle"
	idle.State = Runnable
	idle.KernelMode = true
	idle.Pid = procid.PidNone
	return t
}

// ProcsMax returns the table's fixed capacity.
func (t *Table) ProcsMax() int {
	return len(t.slots)
}

// Idle returns the reserved idle PCB (slot 0).
func (t *Table) Idle() *PCB {
	return t.slots[0]
}

// At returns the PCB at pidx. Panics on an out-of-range index: an
// out-of-range Pidx reaching this far is a kernel-internal bug, not a
// recoverable user error (spec.md §7).
func (t *Table) At(pidx procid.Pidx) *PCB {
	if pidx < 0 || int(pidx) >= len(t.slots) {
		panic("proc: pidx out of range")
	}
	return t.slots[pidx]
}

// Create finds a free slot and initializes a new process, mirroring
// spec.md §4.3's create(name, entry, args, kernel_mode). entryPC is the
// initial user PC (kernel-mode processes ignore it and start directly at
// their Go entry function via the switcher instead). args, if non-nil, is
// a pre-serialized startup-argument payload (pkg/userland encodes it with
// pkg/userland/mpack) copied verbatim into a fresh arg page.
//
// Returns (nil, false) if the table is full — PROCS_MAX+1 creations fail
// cleanly rather than panicking (spec.md §8 boundary behaviour).
func (t *Table) Create(name string, entryPC uintptr, kernelMode bool, args []byte) (*PCB, bool) {
	if len(name) > t.cfg.NameMax {
		name = name[:t.cfg.NameMax]
	}

	t.mu.Lock()
	var p *PCB
	for _, cand := range t.slots {
		if cand.Pidx == 0 {
			continue // slot 0 is the reserved idle slot
		}
		cand.Lock()
		if cand.State == Unused {
			p = cand
			cand.Unlock()
			break
		}
		cand.Unlock()
	}
	if p == nil {
		t.mu.Unlock()
		return nil, false
	}
	pid := procid.Pid(t.nextID)
	t.nextID++
	t.mu.Unlock()

	// The reset replaces the PCB's mutex with a fresh unlocked one, so it
	// happens before the lock is taken rather than under it.
	*p = PCB{
		Name:          name,
		Pidx:          p.Pidx,
		Pid:           pid,
		State:         Runnable,
		KernelMode:    kernelMode,
		UserPC:        entryPC,
		BlockedSender: procid.PidxInvalid,
	}

	p.Lock()
	defer p.Unlock()

	commBase, ok := t.alloc.Allocate(p.Pidx, 1)
	if !ok {
		p.State = Unused
		return nil, false
	}
	p.CommPage = commBase

	storageBase, ok := t.alloc.Allocate(p.Pidx, 1)
	if !ok {
		t.alloc.FreeProcess(p.Pidx)
		p.State = Unused
		return nil, false
	}
	p.StoragePage = storageBase

	if !kernelMode {
		stackBase, ok := t.alloc.Allocate(p.Pidx, 1)
		if !ok {
			t.alloc.FreeProcess(p.Pidx)
			p.State = Unused
			return nil, false
		}
		p.UserStack = stackBase
	}

	if args != nil {
		if len(args) > physaddr.PageSize {
			t.alloc.FreeProcess(p.Pidx)
			p.State = Unused
			return nil, false
		}
		argBase, ok := t.alloc.Allocate(p.Pidx, 1)
		if !ok {
			t.alloc.FreeProcess(p.Pidx)
			p.State = Unused
			return nil, false
		}
		p.ArgPage = argBase
		copy(physaddr.As[[physaddr.PageSize]byte](argBase)[:], args)
	}

	return p, true
}

// Exit marks pidx TERMINATED and releases every page frame and known-region
// lease it owned (spec.md §4.10, testable property 7). The slot remains
// TERMINATED — not yet reusable — until Reap is called, so callers that
// need to notice "this was the last user process" (spec.md §4.5) can
// observe the transition first.
func (t *Table) Exit(pidx procid.Pidx) {
	p := t.At(pidx)
	p.Lock()
	p.State = Terminated
	p.Unlock()
	t.alloc.FreeProcess(pidx)
	t.rgn.ReleaseProcess(pidx)
}

// Reap returns a TERMINATED slot to UNUSED so Create may reuse it. The
// process's Pid is never reused (spec.md §3): only the table slot is.
func (t *Table) Reap(pidx procid.Pidx) {
	p := t.At(pidx)
	p.Lock()
	defer p.Unlock()
	if p.State != Terminated {
		panic("proc: reap of non-terminated slot")
	}
	p.State = Unused
}

// LookupPidx resolves a Pid to its table slot, if the process is still
// live. Returns (procid.PidxInvalid, false) for a dead or unknown pid —
// this is what makes IPC to a terminated process fail instead of silently
// reaching a slot's new occupant (spec.md §3).
func (t *Table) LookupPidx(pid procid.Pid) (procid.Pidx, bool) {
	if pid == procid.PidNone {
		return procid.PidxInvalid, false
	}
	for _, p := range t.slots {
		p.Lock()
		if p.State != Unused && p.Pid == pid {
			idx := p.Pidx
			p.Unlock()
			return idx, true
		}
		p.Unlock()
	}
	return procid.PidxInvalid, false
}

// LookupName implements the name registry (spec.md §4.9): scan slots in
// descending pidx order and return the Pid of the first live slot whose
// name exactly matches query. Descending order is an explicit, documented
// choice (resolving the spec's open question): when two live slots share a
// name, the one in the higher pidx wins. Create fills the lowest free slot,
// so that is not necessarily the more recently created process.
func (t *Table) LookupName(query string) (procid.Pid, bool) {
	for i := len(t.slots) - 1; i >= 0; i-- {
		p := t.slots[i]
		p.Lock()
		live := p.State != Unused
		name := p.Name
		pid := p.Pid
		p.Unlock()
		if live && name == query {
			return pid, true
		}
	}
	return procid.PidNone, false
}

// StateOf returns pidx's current state.
func (t *Table) StateOf(pidx procid.Pidx) State {
	p := t.At(pidx)
	p.Lock()
	defer p.Unlock()
	return p.State
}

// CheckInvariants validates the testable properties from spec.md §8 that
// are table-local (1, 2, 5, 7's frame-ownership half is mempage's job).
// Intended for use from tests, not the hot path.
func (t *Table) CheckInvariants() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	seenBlocker := make(map[procid.Pidx]bool)
	for _, p := range t.slots {
		p.Lock()
		if p.Pidx == 0 {
			p.Unlock()
			continue
		}
		if p.State != Unused && p.Pid == procid.PidNone {
			p.Unlock()
			return errInvariant("live process with PidNone")
		}
		if p.BlockedSender != procid.PidxInvalid {
			if seenBlocker[p.BlockedSender] {
				p.Unlock()
				return errInvariant("one sender blocked on multiple receivers")
			}
			seenBlocker[p.BlockedSender] = true
		}
		p.Unlock()
	}
	return nil
}

type invariantError string

func (e invariantError) Error() string { return string(e) }

func errInvariant(msg string) error { return invariantError(msg) }
