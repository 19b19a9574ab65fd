// Package kernel wires together every CORE component — the page allocator,
// known-memory regions, the process table, the IPC core, and the
// scheduler/switcher — into the top-level object that drives one kernel
// instance (spec.md §2's "control flow: firmware → kernel init → scheduler
// picks runnable → context-switch to user → ... → scheduler re-enters").
//
// On the hosted/WASM target (spec.md §4.4, §5) each process is a goroutine
// parked on its own internal/switcher.Fiber, and Kernel's Run loop runs on
// a separate scheduler fiber. Yields and exits switch back to that fiber,
// which picks the next process; an IPC hand-off switches straight from the
// sender's fiber to the target's and does not pass through it.
// internal/trap's dispatcher and cmd/kernel's bare-metal entry point are the
// RISC-V equivalent of the same Run loop, calling the same syscall methods
// defined here.
package kernel

import (
	"fmt"
	"strings"

	"github.com/upvalue/otium-sub000/internal/accnt"
	"github.com/upvalue/otium-sub000/internal/ipc"
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/klog"
	"github.com/upvalue/otium-sub000/internal/limits"
	"github.com/upvalue/otium-sub000/internal/mempage"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/region"
	"github.com/upvalue/otium-sub000/internal/sbi"
	"github.com/upvalue/otium-sub000/internal/sched"
)

// runtime is the part of the CORE control-flow loop that differs between
// targets: on the hosted/WASM target each process is a goroutine parked on
// an internal/switcher.Fiber (kernel_host.go); on bare-metal RISC-V it is a
// real saved kernel stack resumed through internal/switcher's assembly
// context switch (kernel_riscv.go). Everything else — Procs, Alloc, IPC,
// the syscall table below — is identical across both.
type runtime interface {
	directSwitch(from, target *proc.PCB)
	yield(from *proc.PCB)
	switchToScheduled(target *proc.PCB)
	current() procid.Pidx
	setCurrent(procid.Pidx)
}

// SysPageKind selects which per-process page GET_SYS_PAGE returns (spec.md
// §4.6, syscall 6).
type SysPageKind int

const (
	SysPageArg SysPageKind = iota
	SysPageComm
	SysPageStorage
)

// Kernel is one running instance of the CORE: every component spec.md §2
// lists, wired together, plus the fiber bookkeeping the hosted/WASM target
// needs to realise the scheduler and IPC direct hand-off (spec.md §4.4).
type Kernel struct {
	cfg      limits.Config
	Alloc    *mempage.Allocator
	Regions  *region.Table
	Procs    *proc.Table
	IPC      *ipc.Core
	Firmware sbi.Firmware

	rt runtime

	accounting map[procid.Pidx]*accnt.Record
	distinct   *klog.DistinctCaller
}

// New constructs a kernel instance. fw is the firmware boundary (spec.md
// §6); callers pick sbi.RISCV{} on bare metal or an *sbi.Host for the
// hosted/WASM target.
func New(cfg limits.Config, fw sbi.Firmware) *Kernel {
	// Frame 0 is left out of the pool so that no page handed out has the
	// null address, which callers read as "no page".
	alloc := mempage.New(physaddr.PageSize, cfg.FramePages-1)
	rgn := region.NewTable()
	table := proc.NewTable(cfg, alloc, rgn)

	k := &Kernel{
		cfg:        cfg,
		Alloc:      alloc,
		Regions:    rgn,
		Procs:      table,
		Firmware:   fw,
		rt:         newRuntime(table.Idle().Pidx),
		accounting: make(map[procid.Pidx]*accnt.Record),
		distinct:   &klog.DistinctCaller{Enabled: true},
	}
	k.IPC = ipc.New(table, k)
	return k
}

// DirectSwitch implements ipc.Runtime: the IPC hand-off bypasses the
// scheduler entirely (spec.md §4.7).
func (k *Kernel) DirectSwitch(from, target *proc.PCB) {
	k.rt.setCurrent(target.Pidx)
	k.rt.directSwitch(from, target)
}

// Yield implements ipc.Runtime: give up the CPU to the scheduler (this
// Kernel's Run loop), which decides who runs next.
func (k *Kernel) Yield(from *proc.PCB) {
	k.rt.yield(from)
}

// CurrentPidx returns the slot of the process the scheduler last switched
// to. internal/trap's bare-metal entry uses this to recover "the" running
// process when a trap lands, since a real CPU has no goroutine stack to
// read it back from the way the hosted target's Spawn closures do.
func (k *Kernel) CurrentPidx() procid.Pidx {
	return k.rt.current()
}

// Accounting returns pidx's CPU accounting record, registering one if Spawn
// was never called for it (kernel-mode housekeeping "processes" that never
// run on a fiber, e.g. slot 0).
func (k *Kernel) Accounting(pidx procid.Pidx) *accnt.Record {
	r, ok := k.accounting[pidx]
	if !ok {
		r = &accnt.Record{}
		k.accounting[pidx] = r
	}
	return r
}

// Run drives the scheduler loop until ShouldShutdown (spec.md §4.5: "When
// slot 1 ... transitions to TERMINATED, the kernel returns idle and the
// outer loop exits"). It is the hosted equivalent of the bare-metal
// kernel_main loop (spec.md §6).
func (k *Kernel) Run() {
	for {
		if sched.ShouldShutdown(k.Procs) {
			k.shutdownAll()
			return
		}
		next := sched.Next(k.Procs, k.rt.current())
		if next == k.Procs.Idle().Pidx {
			panic("kernel: scheduler idled with nothing runnable and no path to shutdown")
		}
		k.rt.setCurrent(next)
		k.rt.switchToScheduled(k.Procs.At(next))
	}
}

// shutdownAll implements shutdown_all_processes (spec.md §4.10): terminate
// every live process, release its resources, then return to firmware.
func (k *Kernel) shutdownAll() {
	for pidx := procid.Pidx(1); int(pidx) < k.Procs.ProcsMax(); pidx++ {
		if k.Procs.StateOf(pidx) != proc.Terminated && k.Procs.StateOf(pidx) != proc.Unused {
			k.Procs.Exit(pidx)
		}
	}
	klog.Tracef("shutdown: all processes terminated, returning to firmware")
	k.Firmware.Shutdown()
}

// --- Syscall table (spec.md §4.6). Each method is the host-simulation
// counterpart of one syscall number; internal/trap's RISC-V dispatcher
// decodes a real trap frame and calls these same methods. ---

// SysYield implements syscall 1, YIELD.
func (k *Kernel) SysYield(self *proc.PCB) {
	k.Yield(self)
}

// SysPutChar implements syscall 2, PUTCHAR.
func (k *Kernel) SysPutChar(self *proc.PCB, b byte) {
	k.Firmware.PutChar(b)
}

// SysGetChar implements syscall 3, GETCHAR.
func (k *Kernel) SysGetChar(self *proc.PCB) (byte, bool) {
	return k.Firmware.GetChar()
}

// SysExit implements syscall 4, EXIT: mark the caller TERMINATED and yield.
// Per spec.md §4.6, this never returns to the caller.
func (k *Kernel) SysExit(self *proc.PCB) {
	k.Procs.Exit(self.Pidx)
	k.Yield(self)
}

// SysAllocPage implements syscall 5, ALLOC_PAGE.
func (k *Kernel) SysAllocPage(self *proc.PCB) (physaddr.Addr, bool) {
	return k.Alloc.Allocate(self.Pidx, 1)
}

// SysGetSysPage implements syscall 6, GET_SYS_PAGE(kind).
func (k *Kernel) SysGetSysPage(self *proc.PCB, kind SysPageKind) physaddr.Addr {
	switch kind {
	case SysPageArg:
		return self.ArgPage
	case SysPageComm:
		return self.CommPage
	case SysPageStorage:
		return self.StoragePage
	default:
		panic("kernel: unknown sys page kind")
	}
}

// SysIOPuts implements syscall 7, IO_PUTS: print msg, the text of the
// pkg/userland/mpack-encoded ["string", <text>] message in the caller's
// comm page. The decoding happens in the caller (internal/trap's
// readCommString on the RISC-V path); this method only writes msg out.
func (k *Kernel) SysIOPuts(self *proc.PCB, msg string) {
	for i := 0; i < len(msg); i++ {
		k.Firmware.PutChar(msg[i])
	}
}

// SysProcLookup implements syscall 8, PROC_LOOKUP: resolve a name (already
// decoded by the caller from its comm page) to a Pid, or PID_NONE.
func (k *Kernel) SysProcLookup(name string) procid.Pid {
	pid, ok := k.Procs.LookupName(name)
	if !ok {
		return procid.PidNone
	}
	return pid
}

// SysIPCSend implements syscall 9, IPC_SEND.
func (k *Kernel) SysIPCSend(self *proc.PCB, targetPid procid.Pid, methodAndFlags uint32, args [ipcwire.NumArgs]int64) ipcwire.Response {
	return k.IPC.Send(self, targetPid, methodAndFlags, args)
}

// SysIPCRecv implements syscall 10, IPC_RECV.
func (k *Kernel) SysIPCRecv(self *proc.PCB) ipcwire.Message {
	return k.IPC.Recv(self)
}

// SysIPCReply implements syscall 11, IPC_REPLY.
func (k *Kernel) SysIPCReply(self *proc.PCB, origFlags uint8, response ipcwire.Response) {
	k.IPC.Reply(self, origFlags, response)
}

// SysShutdown implements syscall 12, SHUTDOWN: terminate every process and
// return to firmware. Unlike EXIT this never returns control to any
// process; the caller's own termination happens as part of the sweep.
func (k *Kernel) SysShutdown(self *proc.PCB) {
	k.shutdownAll()
}

// SysLockKnownMemory implements syscall 13, LOCK_KNOWN_MEMORY.
func (k *Kernel) SysLockKnownMemory(self *proc.PCB, name region.Name, pages int) (physaddr.Addr, bool) {
	return k.Regions.Lock(name, pages, self.Pidx)
}

// DumpProcs renders a diagnostic table of every live process, column
// aligned with klog.PadDisplay (wired for names containing wide runes;
// SPEC_FULL.md §4.12).
func (k *Kernel) DumpProcs() string {
	var b strings.Builder
	b.WriteString(klog.PadDisplay("PIDX", 6))
	b.WriteString(klog.PadDisplay("PID", 8))
	b.WriteString(klog.PadDisplay("STATE", 12))
	b.WriteString(klog.PadDisplay("NAME", 20))
	b.WriteString("ACCOUNTING\n")
	for pidx := 0; pidx < k.Procs.ProcsMax(); pidx++ {
		p := k.Procs.At(procid.Pidx(pidx))
		if pidx != 0 && k.Procs.StateOf(procid.Pidx(pidx)) == proc.Unused {
			continue
		}
		p.Lock()
		name, pid, state := p.Name, p.Pid, p.State
		p.Unlock()
		b.WriteString(klog.PadDisplay(fmt.Sprintf("%d", pidx), 6))
		b.WriteString(klog.PadDisplay(fmt.Sprintf("%d", pid), 8))
		b.WriteString(klog.PadDisplay(state.String(), 12))
		b.WriteString(klog.PadDisplay(name, 20))
		b.WriteString(k.Accounting(procid.Pidx(pidx)).Report())
		b.WriteString("\n")
	}
	return b.String()
}
