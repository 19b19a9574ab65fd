// Package ipc implements the CORE's synchronous request/reply mechanism
// with direct hand-off (spec.md §4.7) and the comm-page transfer that
// rides on it (spec.md §4.8). This is the heart of the CORE (spec.md §2:
// ~25% of the implementation budget).
//
// Grounded on the original kernel/ipc.cpp (the pid-not-found check) and
// kernel.hpp's Process.msg_* fields, generalized to the Pidx/Pid split and
// blocked_sender bookkeeping spec.md §3/§4.7 add on top of that original
// design.
package ipc

import (
	"github.com/upvalue/otium-sub000/internal/errs"
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/klog"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
)

// Runtime is the scheduling half of a context switch that the IPC state
// machine needs but does not own itself (design notes §9: the "cyclic"
// sender/receiver relationship becomes two Pidx values resolved through
// the process table, and the coroutine-like suspension becomes an
// explicit state transition plus this same switch primitive the scheduler
// uses). internal/kernel implements this by driving internal/switcher.
type Runtime interface {
	// DirectSwitch switches from the calling fiber straight to target's,
	// bypassing the scheduler (spec.md §4.7's direct hand-off). It returns
	// once something switches back to `from`.
	DirectSwitch(from, target *proc.PCB)
	// Yield gives up the CPU to the scheduler, which picks the next
	// RUNNABLE process (or idle) and eventually resumes `from`.
	Yield(from *proc.PCB)
}

// Core implements ipc_send/ipc_recv/ipc_reply over a process table.
type Core struct {
	table *proc.Table
	rt    Runtime
}

// New constructs an IPC core bound to table, using rt to perform the
// actual control transfers its state transitions call for.
func New(table *proc.Table, rt Runtime) *Core {
	return &Core{table: table, rt: rt}
}

// copyCommPage copies one whole page from src's comm page to dst's comm
// page (spec.md §4.8: whole-page copy, not mapped shared).
func copyCommPage(src, dst *proc.PCB) {
	if src.CommPage.IsNull() || dst.CommPage.IsNull() {
		return
	}
	s := physaddr.As[[physaddr.PageSize]byte](src.CommPage)
	d := physaddr.As[[physaddr.PageSize]byte](dst.CommPage)
	*d = *s
}

// Send implements ipc_send(target_pid, method, flags, args) (spec.md
// §4.7). sender is the PCB of the calling process; it must not be locked
// by the caller.
func (c *Core) Send(sender *proc.PCB, targetPid procid.Pid, methodAndFlags uint32, args [ipcwire.NumArgs]int64) ipcwire.Response {
	// Sending to one's own pid is refused the same way as an unknown pid.
	targetPidx, ok := c.table.LookupPidx(targetPid)
	if !ok || targetPidx == sender.Pidx {
		return ipcwire.Response{ErrorCode: errs.IPCPidNotFound}
	}
	target := c.table.At(targetPidx)

	if ipcwire.Flags(methodAndFlags)&ipcwire.SendCommData != 0 {
		copyCommPage(sender, target)
	}

	target.Lock()
	target.PendingMessage = ipcwire.Message{
		SenderPid:      sender.Pid,
		MethodAndFlags: methodAndFlags,
		Args:           args,
	}
	target.HasPendingMessage = true
	target.BlockedSender = sender.Pidx
	wasWaiting := target.State == proc.IPCWait
	if wasWaiting {
		target.State = proc.Runnable
	}
	target.Unlock()

	// Either branch resumes this goroutine only once the matching
	// ipc_reply has run and populated sender.PendingResponse (spec.md §5:
	// "A sender's ipc_send observes the receiver's ipc_reply before
	// returning").
	if wasWaiting {
		c.rt.DirectSwitch(sender, target)
	} else {
		c.rt.Yield(sender)
	}

	sender.Lock()
	resp := sender.PendingResponse
	sender.Unlock()
	return resp
}

// Recv implements ipc_recv() (spec.md §4.7).
func (c *Core) Recv(receiver *proc.PCB) ipcwire.Message {
	receiver.Lock()
	if receiver.HasPendingMessage {
		msg := receiver.PendingMessage
		receiver.HasPendingMessage = false
		receiver.Unlock()
		return msg
	}
	receiver.State = proc.IPCWait
	receiver.Unlock()

	c.rt.Yield(receiver)

	receiver.Lock()
	msg := receiver.PendingMessage
	receiver.HasPendingMessage = false
	receiver.Unlock()
	return msg
}

// Reply implements ipc_reply(response) (spec.md §4.7). origFlags is the
// flag byte of the message being replied to (ipcwire.Flags of the
// MethodAndFlags word Recv returned) — the kernel does not remember it
// for the caller, mirroring spec.md §4.8's note that payload handling is a
// convention of the stubs, not the kernel's own state.
//
// Reply without a blocked sender (no matching ipc_send pending) is logged
// and ignored, per spec.md §4.7's documented edge case.
func (c *Core) Reply(replier *proc.PCB, origFlags uint8, response ipcwire.Response) {
	replier.Lock()
	senderPidx := replier.BlockedSender
	replier.Unlock()

	if senderPidx == procid.PidxInvalid {
		klog.TraceIPC("reply from pidx %d with no blocked sender, ignored", replier.Pidx)
		return
	}
	sender := c.table.At(senderPidx)

	sender.Lock()
	sender.PendingResponse = response
	sender.Unlock()

	if origFlags&ipcwire.RecvCommData != 0 {
		copyCommPage(replier, sender)
	}

	replier.Lock()
	replier.BlockedSender = procid.PidxInvalid
	replier.Unlock()

	// Direct-switch back to the sender; the replier itself is already
	// RUNNABLE and simply gets parked here until the scheduler (not this
	// call) picks it up again (spec.md §4.7).
	c.rt.DirectSwitch(replier, sender)
}
