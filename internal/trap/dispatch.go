package trap

import (
	"github.com/upvalue/otium-sub000/internal/errs"
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/kernel"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/region"
	"github.com/upvalue/otium-sub000/internal/syscallnum"
	"github.com/upvalue/otium-sub000/pkg/userland/mpack"
)

// Syscall numbers (spec.md §4.6's syscall table), shared with
// pkg/userland's stubs via internal/syscallnum the way os/ot/common.h's
// OU_* defines are shared by both sides of the original ABI.
const (
	SysYield           = syscallnum.Yield
	SysPutChar         = syscallnum.PutChar
	SysGetChar         = syscallnum.GetChar
	SysExit            = syscallnum.Exit
	SysAllocPage       = syscallnum.AllocPage
	SysGetSysPage      = syscallnum.GetSysPage
	SysIOPuts          = syscallnum.IOPuts
	SysProcLookup      = syscallnum.ProcLookup
	SysIPCSend         = syscallnum.IPCSend
	SysIPCRecv         = syscallnum.IPCRecv
	SysIPCReply        = syscallnum.IPCReply
	SysShutdown        = syscallnum.Shutdown
	SysLockKnownMemory = syscallnum.LockKnownMemory
)

// Dispatch implements handle_trap's syscall half of spec.md §4.6, once
// Classify has already decided a trap is CauseSyscall: decode frame per
// the ABI box in spec.md §6, call the matching Kernel method, and write
// the result back into frame. self is the PCB of the process that
// trapped (the kernel already knows this from current_proc at trap entry
// time; it is passed explicitly here per design notes §9's "encapsulate
// [global state] in a kernel context passed explicitly").
//
// A syscall number outside the table above returns 0 in a0, matching
// spec.md §7's "invalid arguments return a conventional 0/null" rule.
func Dispatch(k *kernel.Kernel, self *proc.PCB, frame *Frame) {
	switch frame.SyscallNumber() {
	case SysYield:
		k.SysYield(self)

	case SysPutChar:
		k.SysPutChar(self, byte(frame.A0()))

	case SysGetChar:
		b, ok := k.SysGetChar(self)
		if ok {
			frame.SetA0(uint32(b))
			frame.SetA1(1)
		} else {
			frame.SetA0(0)
			frame.SetA1(0)
		}

	case SysExit:
		k.SysExit(self) // never returns to this frame

	case SysAllocPage:
		addr, ok := k.SysAllocPage(self)
		if ok {
			frame.SetA0(uint32(addr))
		} else {
			frame.SetA0(0)
		}

	case SysGetSysPage:
		addr := k.SysGetSysPage(self, kernel.SysPageKind(frame.A0()))
		frame.SetA0(uint32(addr))

	case SysIOPuts:
		if msg, ok := readCommString(self); ok {
			k.SysIOPuts(self, msg)
		}

	case SysProcLookup:
		pid := procid.PidNone
		if name, ok := readCommString(self); ok {
			pid = k.SysProcLookup(name)
		}
		frame.SetA0(uint32(pid))

	case SysIPCSend:
		// a0=target pid, a1=methodAndFlags, a2/a4/a5=Args[0..2] on the way
		// in; a0=ErrorCode, a1/a2/a4=Values[0..2] on the way back (only
		// four response words needed: error code plus three values).
		args := [ipcwire.NumArgs]int64{int64(frame.A2()), int64(frame.A4()), int64(frame.A5())}
		resp := k.SysIPCSend(self, procid.Pid(frame.A0()), frame.A1(), args)
		frame.SetA0(uint32(resp.ErrorCode))
		frame.SetA1(uint32(resp.Values[0]))
		frame.SetA2(uint32(resp.Values[1]))
		frame.SetA4(uint32(resp.Values[2]))

	case SysIPCRecv:
		// a0=SenderPid, a1=MethodAndFlags, a2/a4/a5=Args[0..2].
		msg := k.SysIPCRecv(self)
		frame.SetA0(uint32(msg.SenderPid))
		frame.SetA1(msg.MethodAndFlags)
		frame.SetA2(uint32(msg.Args[0]))
		frame.SetA4(uint32(msg.Args[1]))
		frame.SetA5(uint32(msg.Args[2]))

	case SysIPCReply:
		// a0=origFlags, a1=ErrorCode, a2/a4/a5=Values[0..2], matching
		// pkg/userland's IPCReply encode (spec.md §6's five-register box).
		resp := ipcwire.Response{
			ErrorCode: errs.Err_t(frame.A1()),
			Values:    [ipcwire.NumArgs]int64{int64(frame.A2()), int64(frame.A4()), int64(frame.A5())},
		}
		k.SysIPCReply(self, uint8(frame.A0()), resp)

	case SysShutdown:
		k.SysShutdown(self) // never returns to this frame

	case SysLockKnownMemory:
		addr, ok := k.SysLockKnownMemory(self, region.Name(frame.A0()), int(frame.A1()))
		if ok {
			frame.SetA0(uint32(addr))
		} else {
			frame.SetA0(0)
		}

	default:
		frame.SetA0(0)
	}
}

// readCommString decodes a pkg/userland/mpack ["string", text] message
// from self's comm page (spec.md §4.6, syscalls 7/8). IO_PUTS and
// PROC_LOOKUP are the only two syscalls the kernel itself decodes a
// payload for; every other comm-page convention belongs to user-space
// stubs (spec.md §4.8).
func readCommString(self *proc.PCB) (string, bool) {
	if self.CommPage.IsNull() {
		return "", false
	}
	page := physaddr.As[[physaddr.PageSize]byte](self.CommPage)
	r := mpack.NewReader(page[:])
	n, ok := r.EnterArray()
	if !ok || n != 2 {
		return "", false
	}
	tag, ok := r.ReadString()
	if !ok || tag != "string" {
		return "", false
	}
	return r.ReadString()
}
