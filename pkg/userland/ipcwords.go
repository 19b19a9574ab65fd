// This file isolates the register-word packing/unpacking arithmetic for
// the three IPC syscalls (spec.md §6's five-register ABI box: "Integer
// arguments in a0, a1, a2, a4, a5") from the asm trampoline that carries
// it in syscall_riscv.s. The mapping itself is portable arithmetic, not
// RISC-V-specific, so it is tested directly without needing real
// hardware or the riscv build tag.
package userland

import (
	"github.com/upvalue/otium-sub000/internal/errs"
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/procid"
)

// packIPCSend builds the five request words IPC_SEND places in
// a0/a1/a2/a4/a5: target pid, methodAndFlags, then the three message
// arguments (mirrors internal/trap.Dispatch's SysIPCSend decode).
func packIPCSend(pid procid.Pid, methodAndFlags uint32, args [ipcwire.NumArgs]int64) (a0, a1, a2, a4, a5 uint32) {
	return uint32(pid), methodAndFlags, uint32(args[0]), uint32(args[1]), uint32(args[2])
}

// unpackIPCSendResult reverses the four response words a0/a1/a2/a4 the
// kernel's SysIPCSend case writes back: error code plus three values.
func unpackIPCSendResult(a0, a1, a2, a4 uint32) ipcwire.Response {
	return ipcwire.Response{
		ErrorCode: errs.Err_t(a0),
		Values:    [ipcwire.NumArgs]int64{int64(int32(a1)), int64(int32(a2)), int64(int32(a4))},
	}
}

// unpackIPCRecv reverses the five response words a0/a1/a2/a4/a5 the
// kernel's SysIPCRecv case writes back: sender pid, methodAndFlags, then
// the three message arguments.
func unpackIPCRecv(a0, a1, a2, a4, a5 uint32) ipcwire.Message {
	return ipcwire.Message{
		SenderPid:      procid.Pid(a0),
		MethodAndFlags: a1,
		Args:           [ipcwire.NumArgs]int64{int64(int32(a2)), int64(int32(a4)), int64(int32(a5))},
	}
}

// packIPCReply builds the five request words IPC_REPLY places in
// a0/a1/a2/a4/a5: the original message's flag byte, the error code, then
// the three response values (mirrors internal/trap.Dispatch's
// SysIPCReply decode).
func packIPCReply(origFlags uint8, resp ipcwire.Response) (a0, a1, a2, a4, a5 uint32) {
	return uint32(origFlags), uint32(resp.ErrorCode), uint32(resp.Values[0]), uint32(resp.Values[1]), uint32(resp.Values[2])
}
