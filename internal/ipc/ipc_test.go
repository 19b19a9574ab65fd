package ipc

import (
	"testing"

	"github.com/upvalue/otium-sub000/internal/errs"
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/limits"
	"github.com/upvalue/otium-sub000/internal/mempage"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/region"
	"github.com/upvalue/otium-sub000/internal/switcher"
)

// fiberRuntime is a minimal Runtime for testing: each PCB gets its own
// fiber, and Yield always hands control back to a shared "host" fiber that
// the test itself drives by explicit SwitchTo calls — standing in for a
// real scheduler, which internal/kernel provides.
type fiberRuntime struct {
	host   *switcher.Fiber
	fibers map[procid.Pidx]*switcher.Fiber
}

func newFiberRuntime() *fiberRuntime {
	return &fiberRuntime{host: switcher.NewFiber(), fibers: make(map[procid.Pidx]*switcher.Fiber)}
}

func (r *fiberRuntime) spawn(p *proc.PCB, fn func()) {
	r.fibers[p.Pidx] = switcher.Spawn(fn)
}

func (r *fiberRuntime) DirectSwitch(from, to *proc.PCB) {
	switcher.SwitchTo(r.fibers[from.Pidx], r.fibers[to.Pidx])
}

func (r *fiberRuntime) Yield(from *proc.PCB) {
	switcher.SwitchTo(r.fibers[from.Pidx], r.host)
}

func (r *fiberRuntime) run(to *proc.PCB) {
	switcher.SwitchTo(r.host, r.fibers[to.Pidx])
}

func setup(t *testing.T, procsMax int) (*proc.Table, *fiberRuntime, *Core) {
	t.Helper()
	physaddr.InitRAM(1024 * physaddr.PageSize)
	cfg := limits.Default()
	cfg.ProcsMax = procsMax
	alloc := mempage.New(physaddr.PageSize, 1023)
	rgn := region.NewTable()
	table := proc.NewTable(cfg, alloc, rgn)
	rt := newFiberRuntime()
	return table, rt, New(table, rt)
}

// TestIPCRoundTrip mirrors spec.md §8 scenario S3: a client sends a method
// to a known service and gets back a computed response.
func TestIPCRoundTrip(t *testing.T) {
	table, rt, core := setup(t, 4)

	server, _ := table.Create("fib", 0, true, nil)
	client, _ := table.Create("client", 0, true, nil)

	const calcFib = 0x1001

	rt.spawn(server, func() {
		msg := core.Recv(server)
		if ipcwire.Method(msg.MethodAndFlags) != calcFib {
			t.Errorf("server: unexpected method %x", ipcwire.Method(msg.MethodAndFlags))
		}
		n := msg.Args[0]
		a, b := int64(0), int64(1)
		for i := int64(0); i < n; i++ {
			a, b = b, a+b
		}
		core.Reply(server, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{Values: [3]int64{a}})
		rt.Yield(server)
	})

	var resp ipcwire.Response
	rt.spawn(client, func() {
		resp = core.Send(client, server.Pid, ipcwire.Pack(calcFib, 0), [3]int64{10})
		rt.Yield(client)
	})

	// Run server first so it parks in Recv (IPC_WAIT) before the client sends.
	rt.run(server)
	rt.run(client)

	if resp.ErrorCode != errs.NONE {
		t.Fatalf("expected success, got %v", resp.ErrorCode)
	}
	if resp.Values[0] != 55 {
		t.Fatalf("expected fib(10)=55, got %d", resp.Values[0])
	}
}

// TestIPCUnknownMethod mirrors spec.md §8 scenario S4.
func TestIPCUnknownMethod(t *testing.T) {
	table, rt, core := setup(t, 4)
	server, _ := table.Create("svc", 0, true, nil)
	client, _ := table.Create("client", 0, true, nil)

	rt.spawn(server, func() {
		msg := core.Recv(server)
		known := map[uint32]bool{0x1001: true}
		if !known[ipcwire.Method(msg.MethodAndFlags)] {
			core.Reply(server, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{ErrorCode: errs.IPCMethodNotKnown})
		}
		rt.Yield(server)
	})

	var resp ipcwire.Response
	rt.spawn(client, func() {
		resp = core.Send(client, server.Pid, ipcwire.Pack(0xABCDE, 0), [3]int64{})
		rt.Yield(client)
	})

	rt.run(server)
	rt.run(client)

	if resp.ErrorCode != errs.IPCMethodNotKnown {
		t.Fatalf("expected IPC__METHOD_NOT_KNOWN, got %v", resp.ErrorCode)
	}
	if resp.Values != [3]int64{} {
		t.Fatalf("expected zeroed values, got %v", resp.Values)
	}
}

// TestIPCSendToUnknownPid covers the PID_NOT_FOUND boundary case (spec.md §8).
func TestIPCSendToUnknownPid(t *testing.T) {
	table, _, core := setup(t, 4)
	client, _ := table.Create("client", 0, true, nil)

	resp := core.Send(client, procid.Pid(9999), ipcwire.Pack(1, 0), [3]int64{})
	if resp.ErrorCode != errs.IPCPidNotFound {
		t.Fatalf("expected IPC__PID_NOT_FOUND, got %v", resp.ErrorCode)
	}
	if resp.Values != [3]int64{} {
		t.Fatalf("expected zeroed values, got %v", resp.Values)
	}
}

// TestIPCSendToPidNone covers spec.md §8's PID_NONE boundary case.
func TestIPCSendToPidNone(t *testing.T) {
	table, _, core := setup(t, 4)
	client, _ := table.Create("client", 0, true, nil)

	resp := core.Send(client, procid.PidNone, ipcwire.Pack(1, 0), [3]int64{})
	if resp.ErrorCode != errs.IPCPidNotFound {
		t.Fatalf("expected IPC__PID_NOT_FOUND for PID_NONE, got %v", resp.ErrorCode)
	}
}

// TestRecvConsumesPendingMessageWithoutYielding exercises the idempotence
// law from spec.md §8: recv when HasPendingMessage does not yield (it
// returns immediately without going through the Runtime at all).
func TestRecvConsumesPendingMessageWithoutYielding(t *testing.T) {
	table, rt, core := setup(t, 4)
	server, _ := table.Create("svc", 0, true, nil)
	client, _ := table.Create("client", 0, true, nil)
	_ = rt

	server.Lock()
	server.PendingMessage = ipcwire.Message{SenderPid: client.Pid, MethodAndFlags: ipcwire.Pack(0x1001, 0)}
	server.HasPendingMessage = true
	server.Unlock()

	msg := core.Recv(server) // must not block: rt.Yield is never wired for this path
	if ipcwire.Method(msg.MethodAndFlags) != 0x1001 {
		t.Fatalf("expected pending message to be returned directly, got %v", msg)
	}
}

// TestCommPageTransfer mirrors spec.md §8 scenario S5.
func TestCommPageTransfer(t *testing.T) {
	table, rt, core := setup(t, 4)
	server, _ := table.Create("xform", 0, true, nil)
	client, _ := table.Create("client", 0, true, nil)

	payload := make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	writeCommPage(client, payload)

	rt.spawn(server, func() {
		msg := core.Recv(server)
		buf := readCommPage(server, len(payload))
		out := make([]byte, len(buf))
		for i, b := range buf {
			out[i] = b + 1
		}
		writeCommPage(server, out)
		core.Reply(server, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{})
		rt.Yield(server)
	})

	rt.spawn(client, func() {
		core.Send(client, server.Pid, ipcwire.Pack(0x1002, ipcwire.SendCommData|ipcwire.RecvCommData), [3]int64{})
		rt.Yield(client)
	})

	rt.run(server)
	rt.run(client)

	got := readCommPage(client, len(payload))
	for i := range payload {
		if got[i] != payload[i]+1 {
			t.Fatalf("byte %d: expected %d, got %d", i, payload[i]+1, got[i])
		}
	}
}

func commPageBytes(p *proc.PCB) *[physaddr.PageSize]byte {
	return physaddr.As[[physaddr.PageSize]byte](p.CommPage)
}

func writeCommPage(p *proc.PCB, data []byte) {
	buf := commPageBytes(p)
	copy(buf[:], data)
}

func readCommPage(p *proc.PCB, n int) []byte {
	buf := commPageBytes(p)
	out := make([]byte, n)
	copy(out, buf[:n])
	return out
}
