//go:build riscv

// This file is the bare-metal RISC-V runtime backend. There is no forked Go
// runtime here to park a process as a goroutine the way the hosted target
// does (internal/switcher/switch_riscv.go's own doc comment already notes
// this); a process is a real saved kernel stack, resumed through
// internal/switcher.SwitchContextRISCV. cmd/kernel is the only caller.
package kernel

import (
	"unsafe"

	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/switcher"
	"github.com/upvalue/otium-sub000/internal/util"
)

// switchFrameBytes and raOffset mirror the fixed save area
// internal/switcher/switch_riscv.s pushes and pops: 12 callee-saved
// registers (s0-s11) plus the return address, with ra landing at the top.
const (
	switchFrameBytes = 104
	raOffset         = 96
)

type riscvRuntime struct {
	hostSP  uintptr
	started map[procid.Pidx]bool
	cur     procid.Pidx
}

func newRuntime(idle procid.Pidx) runtime {
	return &riscvRuntime{started: make(map[procid.Pidx]bool), cur: idle}
}

// spSlot returns the saved-stack-pointer cell for pcb. The cell is kept as
// a *uintptr in SwitchHandle rather than as the last word of KernelStack,
// since the fabricated switch frame PrepareEntry writes already occupies
// those bytes.
func spSlot(pcb *proc.PCB) *uintptr {
	if pcb.SwitchHandle == nil {
		var sp uintptr
		pcb.SwitchHandle = &sp
	}
	return pcb.SwitchHandle.(*uintptr)
}

// firstEntryUserSP backs the cell setFirstEntryUserSP/userEntryTrampoline
// (kernel_riscv.s) share by symbol name; never read or written from Go.
var firstEntryUserSP uintptr

//go:noescape
func userEntryTrampolineAddr() uintptr

// setFirstEntryUserSP records the user stack pointer userEntryTrampoline
// should install before its SRET. Cooperative scheduling on a single CPU
// (spec.md §5) means at most one first-entry is ever pending at a time, so
// a single package-level cell is enough.
//
//go:noescape
func setFirstEntryUserSP(sp uintptr)

// PrepareEntry fabricates a switch frame at the top of pcb's kernel stack
// so the first switch into it lands in userEntryTrampoline rather than
// resuming a context that never existed. Bare-metal processes have no Go
// closure to hand Spawn the way the hosted target's fibers do (spec.md
// §4.3's cooperative model is identical; only the entry mechanism differs).
// cmd/kernel calls this once per process, immediately after
// proc.Table.Create, in place of Spawn.
func PrepareEntry(pcb *proc.PCB) {
	top := len(pcb.KernelStack)
	frame := top - switchFrameBytes
	util.Writen(pcb.KernelStack[:], 4, frame+raOffset, int(userEntryTrampolineAddr()))
	*spSlot(pcb) = uintptr(unsafe.Pointer(&pcb.KernelStack[frame]))
}

func (r *riscvRuntime) switchTo(from, target *proc.PCB) {
	if !r.started[target.Pidx] {
		r.started[target.Pidx] = true
		setFirstEntryUserSP(uintptr(target.UserStack))
	}
	switcher.SwitchContextRISCV(spSlot(from), *spSlot(target), target.UserPC)
}

func (r *riscvRuntime) directSwitch(from, target *proc.PCB) {
	r.switchTo(from, target)
}

func (r *riscvRuntime) yield(from *proc.PCB) {
	switcher.SwitchContextRISCV(spSlot(from), r.hostSP, 0)
}

func (r *riscvRuntime) switchToScheduled(target *proc.PCB) {
	if !r.started[target.Pidx] {
		r.started[target.Pidx] = true
		setFirstEntryUserSP(uintptr(target.UserStack))
	}
	switcher.SwitchContextRISCV(&r.hostSP, *spSlot(target), target.UserPC)
}

func (r *riscvRuntime) current() procid.Pidx    { return r.cur }
func (r *riscvRuntime) setCurrent(p procid.Pidx) { r.cur = p }
