//go:build riscv

// Package userland collects the pieces a user-mode process links against
// on the real RISC-V target: the raw ecall trampoline and the typed
// wrappers around it, plus pkg/userland/mpack for payloads too large for
// the register ABI. Adapted from os/ot/core/platform/user-riscv.cpp's
// syscall()/ou_* functions — same five-register-in, five-register-out
// shape (spec.md §6), same naming for the per-call wrappers, reimplemented
// as Go functions over a small asm trampoline instead of inline GCC asm.
package userland

import (
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/syscallnum"
)

// syscallResult mirrors user-riscv.cpp's SyscallResult, extended with a5
// to carry IPC's third argument/value word (spec.md §6: "results in a0
// ... plus a1/a2/a4/a5").
type syscallResult struct {
	a0, a1, a2, a4, a5 uint32
}

// rawSyscall is implemented in syscall_riscv.s: it places sysno in a3 and
// arg0..arg4 in a0/a1/a2/a4/a5, executes ecall, and returns a0/a1/a2/a4/a5.
//
//go:noescape
func rawSyscall(sysno, arg0, arg1, arg2, arg3, arg4 uint32) syscallResult

// Exit implements ou_exit: terminate the calling process. Never returns.
func Exit() {
	rawSyscall(syscallnum.Exit, 0, 0, 0, 0, 0)
}

// Yield implements ou_yield: give up the CPU to the scheduler.
func Yield() {
	rawSyscall(syscallnum.Yield, 0, 0, 0, 0, 0)
}

// PutChar implements ou_putchar.
func PutChar(b byte) {
	rawSyscall(syscallnum.PutChar, uint32(b), 0, 0, 0, 0)
}

// GetChar implements ou_getchar: ok is false if no input was pending.
func GetChar() (b byte, ok bool) {
	r := rawSyscall(syscallnum.GetChar, 0, 0, 0, 0, 0)
	return byte(r.a0), r.a1 != 0
}

// AllocPage implements ou_alloc_page.
func AllocPage() physaddr.Addr {
	return physaddr.Addr(rawSyscall(syscallnum.AllocPage, 0, 0, 0, 0, 0).a0)
}

// sysPage implements ou_get_sys_page.
func sysPage(kind int) physaddr.Addr {
	return physaddr.Addr(rawSyscall(syscallnum.GetSysPage, uint32(kind), 0, 0, 0, 0).a0)
}

// ArgPage implements ou_get_arg_page.
func ArgPage() physaddr.Addr { return sysPage(syscallnum.SysPageArg) }

// CommPage implements ou_get_comm_page.
func CommPage() physaddr.Addr { return sysPage(syscallnum.SysPageComm) }

// StoragePage implements ou_get_storage.
func StoragePage() physaddr.Addr { return sysPage(syscallnum.SysPageStorage) }

// IOPuts implements ou_io_puts: writes msg into the comm page as a
// pkg/userland/mpack ["string", msg] message, then asks the kernel to
// print it. Returns false if there is no comm page.
func IOPuts(msg string) bool {
	page := CommPage()
	if page.IsNull() {
		return false
	}
	WriteCommString(page, msg)
	rawSyscall(syscallnum.IOPuts, 0, 0, 0, 0, 0)
	return true
}

// ProcLookup implements ou_proc_lookup: resolve name to a Pid, or
// procid.PidNone.
func ProcLookup(name string) procid.Pid {
	page := CommPage()
	if page.IsNull() {
		return procid.PidNone
	}
	WriteCommString(page, name)
	return procid.Pid(rawSyscall(syscallnum.ProcLookup, 0, 0, 0, 0, 0).a0)
}

// IPCSend implements ou_ipc_send, extended from the original's two-word
// payload to the full three-argument Message shape internal/ipcwire
// defines. Word packing lives in ipcwords.go so the register mapping can
// be tested without real hardware.
func IPCSend(pid procid.Pid, methodAndFlags uint32, args [ipcwire.NumArgs]int64) ipcwire.Response {
	a0, a1, a2, a4, a5 := packIPCSend(pid, methodAndFlags, args)
	r := rawSyscall(syscallnum.IPCSend, a0, a1, a2, a4, a5)
	return unpackIPCSendResult(r.a0, r.a1, r.a2, r.a4)
}

// IPCRecv implements ou_ipc_recv: blocks until a message arrives.
func IPCRecv() ipcwire.Message {
	r := rawSyscall(syscallnum.IPCRecv, 0, 0, 0, 0, 0)
	return unpackIPCRecv(r.a0, r.a1, r.a2, r.a4, r.a5)
}

// IPCReply implements ou_ipc_reply.
func IPCReply(origFlags uint8, resp ipcwire.Response) {
	a0, a1, a2, a4, a5 := packIPCReply(origFlags, resp)
	rawSyscall(syscallnum.IPCReply, a0, a1, a2, a4, a5)
}

// Shutdown implements the SHUTDOWN syscall: terminate every process and
// return to firmware. Never returns.
func Shutdown() {
	rawSyscall(syscallnum.Shutdown, 0, 0, 0, 0, 0)
}

// LockKnownMemory implements LOCK_KNOWN_MEMORY: name identifies the region
// the way internal/region.Name does on the kernel side.
func LockKnownMemory(name, pages int) (physaddr.Addr, bool) {
	r := rawSyscall(syscallnum.LockKnownMemory, uint32(name), uint32(pages), 0, 0, 0)
	return physaddr.Addr(r.a0), r.a0 != 0
}
