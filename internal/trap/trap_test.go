package trap

import (
	"bytes"
	"testing"

	"github.com/upvalue/otium-sub000/internal/errs"
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/kernel"
	"github.com/upvalue/otium-sub000/internal/limits"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/proc"
	"github.com/upvalue/otium-sub000/internal/procid"
	"github.com/upvalue/otium-sub000/internal/sbi"
	"github.com/upvalue/otium-sub000/pkg/userland/mpack"
)

func TestClassifySBICallVersusSyscall(t *testing.T) {
	var f Frame
	f.Regs[RegA7] = 0x01 // non-zero extension id
	if got := Classify(true, true, &f); got != CauseSBICall {
		t.Fatalf("expected CauseSBICall, got %v", got)
	}

	f.Regs[RegA7] = 0
	if got := Classify(true, true, &f); got != CauseSyscall {
		t.Fatalf("expected CauseSyscall, got %v", got)
	}
}

func TestClassifyFaults(t *testing.T) {
	var f Frame
	if got := Classify(false, true, &f); got != CauseUserFault {
		t.Fatalf("expected CauseUserFault, got %v", got)
	}
	if got := Classify(false, false, &f); got != CauseKernelFault {
		t.Fatalf("expected CauseKernelFault, got %v", got)
	}
}

func newTestKernelAndProc(t *testing.T, procsMax int) (*kernel.Kernel, *proc.PCB, *bytes.Buffer) {
	t.Helper()
	physaddr.InitRAM(4096 * physaddr.PageSize)
	cfg := limits.Default()
	cfg.ProcsMax = procsMax
	var out bytes.Buffer
	k := kernel.New(cfg, sbi.NewHost(&out, 64))
	p, ok := k.Procs.Create("caller", 0, true, nil)
	if !ok {
		t.Fatal("create failed")
	}
	return k, p, &out
}

func TestDispatchPutCharWritesConsole(t *testing.T) {
	k, p, out := newTestKernelAndProc(t, 4)
	var f Frame
	f.Regs[RegA3] = SysPutChar
	f.Regs[RegA0] = uint32('z')
	Dispatch(k, p, &f)
	if out.String() != "z" {
		t.Fatalf("expected %q, got %q", "z", out.String())
	}
}

func TestDispatchAllocPageReturnsDistinctAddresses(t *testing.T) {
	k, p, _ := newTestKernelAndProc(t, 4)
	var f1, f2 Frame
	f1.Regs[RegA3] = SysAllocPage
	f2.Regs[RegA3] = SysAllocPage
	Dispatch(k, p, &f1)
	Dispatch(k, p, &f2)
	if f1.A0() == 0 || f2.A0() == 0 {
		t.Fatal("expected non-zero page addresses")
	}
	if f1.A0() == f2.A0() {
		t.Fatal("expected two distinct allocations")
	}
}

func TestDispatchGetSysPageReturnsCommPage(t *testing.T) {
	k, p, _ := newTestKernelAndProc(t, 4)
	var f Frame
	f.Regs[RegA3] = SysGetSysPage
	f.Regs[RegA0] = uint32(kernel.SysPageComm)
	Dispatch(k, p, &f)
	if physaddr.Addr(f.A0()) != p.CommPage {
		t.Fatalf("expected comm page %v, got %v", p.CommPage, f.A0())
	}
}

func TestDispatchIOPutsDecodesCommPageString(t *testing.T) {
	k, p, out := newTestKernelAndProc(t, 4)
	page := physaddr.As[[physaddr.PageSize]byte](p.CommPage)
	w := mpack.NewWriter(page[:])
	w.Array(2).Str("string").Str("hi")
	if err := w.Err(); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var f Frame
	f.Regs[RegA3] = SysIOPuts
	Dispatch(k, p, &f)

	if out.String() != "hi" {
		t.Fatalf("expected %q, got %q", "hi", out.String())
	}
}

func TestDispatchProcLookupResolvesName(t *testing.T) {
	k, p, _ := newTestKernelAndProc(t, 4)
	server, ok := k.Procs.Create("registry", 0, true, nil)
	if !ok {
		t.Fatal("create server failed")
	}

	page := physaddr.As[[physaddr.PageSize]byte](p.CommPage)
	w := mpack.NewWriter(page[:])
	w.Array(2).Str("string").Str("registry")

	var f Frame
	f.Regs[RegA3] = SysProcLookup
	Dispatch(k, p, &f)

	if procid.Pid(f.A0()) != server.Pid {
		t.Fatalf("expected pid %d, got %d", server.Pid, f.A0())
	}
}

// TestDispatchIPCRoundTripThroughFrames drives all three IPC syscalls
// through Dispatch's Frame boundary end to end (mirroring
// kernel_test.go's TestIPCRoundTripByName, but at the register level
// rather than calling Kernel's Sys* methods directly), to pin down the
// a0/a1/a2/a4/a5 mapping spec.md §6 specifies for IPC_SEND/IPC_RECV/
// IPC_REPLY -- including the third argument/value that rides on a5.
func TestDispatchIPCRoundTripThroughFrames(t *testing.T) {
	var out bytes.Buffer
	physaddr.InitRAM(4096 * physaddr.PageSize)
	cfg := limits.Default()
	cfg.ProcsMax = 4
	k := kernel.New(cfg, sbi.NewHost(&out, 64))

	server, ok := k.Procs.Create("adder", 0, true, nil)
	if !ok {
		t.Fatal("create server failed")
	}
	client, ok := k.Procs.Create("client", 0, true, nil)
	if !ok {
		t.Fatal("create client failed")
	}

	const method = 0x1001

	k.Spawn(server, func(k *kernel.Kernel, self *proc.PCB) {
		var rf Frame
		rf.Regs[RegA3] = SysIPCRecv
		Dispatch(k, self, &rf)

		if procid.Pid(rf.A0()) != client.Pid {
			t.Errorf("server: expected sender pid %d, got %d", client.Pid, rf.A0())
		}
		if ipcwire.Method(rf.A1()) != method {
			t.Errorf("server: expected method %#x, got %#x", method, rf.A1())
		}
		if rf.A2() != 10 || rf.A4() != 20 || rf.A5() != 30 {
			t.Errorf("server: expected args 10/20/30, got %d/%d/%d", rf.A2(), rf.A4(), rf.A5())
		}

		var wf Frame
		wf.Regs[RegA3] = SysIPCReply
		wf.SetA0(rf.A1()) // origFlags is the flag byte of the message just received
		wf.SetA1(uint32(errs.NONE))
		wf.SetA2(rf.A2() + 1)
		wf.SetA4(rf.A4() + 1)
		wf.SetA5(rf.A5() + 1)
		Dispatch(k, self, &wf)
		k.SysYield(self)
	})

	var resultFrame Frame
	done := make(chan struct{})
	k.Spawn(client, func(k *kernel.Kernel, self *proc.PCB) {
		pid := k.SysProcLookup("adder")

		var f Frame
		f.Regs[RegA3] = SysIPCSend
		f.SetA0(uint32(pid))
		f.SetA1(ipcwire.Pack(method, 0))
		f.SetA2(10)
		f.SetA4(20)
		f.SetA5(30)
		Dispatch(k, self, &f)
		resultFrame = f
		close(done)

		k.SysYield(self)
		k.SysExit(self)
	})

	go k.Run()
	<-done

	if errs.Err_t(resultFrame.A0()) != errs.NONE {
		t.Fatalf("expected success, got %v", errs.Err_t(resultFrame.A0()))
	}
	if resultFrame.A1() != 11 || resultFrame.A2() != 21 || resultFrame.A4() != 31 {
		t.Fatalf("expected values 11/21/31, got %d/%d/%d", resultFrame.A1(), resultFrame.A2(), resultFrame.A4())
	}
}

func TestDispatchUnknownSyscallReturnsZero(t *testing.T) {
	k, p, _ := newTestKernelAndProc(t, 4)
	var f Frame
	f.Regs[RegA3] = 0xFF
	f.Regs[RegA0] = 42
	Dispatch(k, p, &f)
	if f.A0() != 0 {
		t.Fatalf("expected a0 reset to 0, got %d", f.A0())
	}
}
