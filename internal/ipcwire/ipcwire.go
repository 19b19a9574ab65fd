// Package ipcwire defines the wire-level shapes of IPC (spec.md §3:
// Message, Response, flag byte, method-id space) as a leaf package with no
// logic of its own, so both internal/proc (which stores pending
// messages/responses in the PCB) and internal/ipc (which implements the
// send/recv/reply state machine over the PCB) can depend on the same
// types without an import cycle.
package ipcwire

import "github.com/upvalue/otium-sub000/internal/procid"
import "github.com/upvalue/otium-sub000/internal/errs"

// NumArgs is the number of fixed integer argument/value slots a Message or
// Response carries directly (spec.md §3: "args[3]"/"values[3]").
const NumArgs = 3

// Flag bits, packed into the low 8 bits of a MethodAndFlags word.
const (
	// SendCommData requests the kernel copy one page from the sender's
	// comm page into the target's comm page before delivery.
	SendCommData uint8 = 1 << 0
	// RecvCommData requests the kernel copy one page from the replier's
	// comm page back to the sender's comm page at reply time.
	RecvCommData uint8 = 1 << 1
)

// MethodShift is where the method id begins within MethodAndFlags; the low
// MethodShift bits are the flag byte.
const MethodShift = 8

// Shutdown is the reserved method id every service is expected to
// recognise: reply success, then EXIT (spec.md §3, §4.7).
const Shutdown uint32 = 0x0100

// ServiceMethodBase is the first method id user services may define; ids
// below it are reserved for the kernel (spec.md §6).
const ServiceMethodBase uint32 = 0x1000

// Pack combines a method id and flag byte into a MethodAndFlags word.
func Pack(method uint32, flags uint8) uint32 {
	return method<<MethodShift | uint32(flags)
}

// Method extracts the method id from a MethodAndFlags word.
func Method(methodAndFlags uint32) uint32 {
	return methodAndFlags >> MethodShift
}

// Flags extracts the flag byte from a MethodAndFlags word.
func Flags(methodAndFlags uint32) uint8 {
	return uint8(methodAndFlags)
}

// Message is the fixed-shape request tuple (spec.md §3).
type Message struct {
	SenderPid      procid.Pid
	MethodAndFlags uint32
	Args           [NumArgs]int64
}

// Response is the fixed-shape reply tuple (spec.md §3). ErrorCode == NONE
// means success.
type Response struct {
	ErrorCode errs.Err_t
	Values    [NumArgs]int64
}
