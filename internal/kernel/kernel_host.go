//go:build !riscv

// This file is the hosted/WASM target's runtime backend: every process is a
// goroutine parked on its own internal/switcher.Fiber, and Kernel itself
// runs as the "dedicated scheduler fiber" the design notes call for (see
// kernel.go's package doc comment).
package kernel

import (
	"github.com/upvalue/otium-sub000/internal/accnt"
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/switcher"
)

type hostRuntime struct {
	host   *switcher.Fiber
	fibers map[procid.Pidx]*switcher.Fiber
	cur    procid.Pidx
}

func newRuntime(idle procid.Pidx) runtime {
	return &hostRuntime{
		host:   switcher.NewFiber(),
		fibers: make(map[procid.Pidx]*switcher.Fiber),
		cur:    idle,
	}
}

func (r *hostRuntime) fiberOf(pidx procid.Pidx) *switcher.Fiber {
	f, ok := r.fibers[pidx]
	if !ok {
		panic("kernel: no fiber registered for pidx")
	}
	return f
}

func (r *hostRuntime) directSwitch(from, target *proc.PCB) {
	switcher.SwitchTo(r.fiberOf(from.Pidx), r.fiberOf(target.Pidx))
}

func (r *hostRuntime) yield(from *proc.PCB) {
	switcher.SwitchTo(r.fiberOf(from.Pidx), r.host)
}

func (r *hostRuntime) switchToScheduled(target *proc.PCB) {
	switcher.SwitchTo(r.host, r.fiberOf(target.Pidx))
}

func (r *hostRuntime) current() procid.Pidx     { return r.cur }
func (r *hostRuntime) setCurrent(p procid.Pidx) { r.cur = p }

// Spawn registers fn as pcb's body and parks it until the scheduler first
// switches to it. fn is the hosted-target stand-in for a RISC-V process's
// entry point (spec.md §4.3): it receives k and pcb so it can make syscalls
// by calling Kernel methods directly, the host-simulation equivalent of
// trapping into internal/trap's dispatcher.
func (k *Kernel) Spawn(pcb *proc.PCB, fn func(k *Kernel, self *proc.PCB)) {
	k.accounting[pcb.Pidx] = &accnt.Record{}
	hr := k.rt.(*hostRuntime)
	hr.fibers[pcb.Pidx] = switcher.Spawn(func() { fn(k, pcb) })
}
