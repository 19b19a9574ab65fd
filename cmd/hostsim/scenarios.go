// Scenario implementations for the S1-S6 end-to-end properties spec.md §8
// names, each driving its own Kernel instance the way internal/kernel's own
// integration tests do, but reporting failures as errors instead of
// t.Fatal so cmd/hostsim can run all six and print a summary rather than
// stopping at the first one.
package main

import (
	"bytes"
	"fmt"

	"github.com/upvalue/otium-sub000/internal/errs"
	"github.com/upvalue/otium-sub000/internal/ipcwire"
	"github.com/upvalue/otium-sub000/internal/kernel"
	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/internal/proc"
)

// scenarioS1 is spec.md §8's "Cooperative alternation".
func scenarioS1(k *kernel.Kernel, out *bytes.Buffer) error {
	a, ok := k.Procs.Create("a", 0, true, nil)
	if !ok {
		return fmt.Errorf("create a failed")
	}
	b, ok := k.Procs.Create("b", 0, true, nil)
	if !ok {
		return fmt.Errorf("create b failed")
	}

	k.Spawn(a, func(k *kernel.Kernel, self *proc.PCB) {
		k.SysPutChar(self, '1')
		k.SysYield(self)
		k.SysPutChar(self, '3')
		k.SysYield(self)
		k.SysExit(self)
	})
	k.Spawn(b, func(k *kernel.Kernel, self *proc.PCB) {
		k.SysPutChar(self, '2')
		k.SysYield(self)
		k.SysPutChar(self, '4')
		k.SysYield(self)
		k.SysExit(self)
	})

	k.Run()

	if !bytes.Contains(out.Bytes(), []byte("1234")) {
		return fmt.Errorf("expected console output to contain %q, got %q", "1234", out.String())
	}
	return nil
}

// scenarioS2 is spec.md §8's "Page recycling".
func scenarioS2(k *kernel.Kernel, out *bytes.Buffer) error {
	p1, ok := k.Procs.Create("p1", 0, true, nil)
	if !ok {
		return fmt.Errorf("create p1 failed")
	}
	f1 := k.Alloc.OwnedFrames(p1.Pidx)

	if _, ok := k.Procs.Create("p2", 0, true, nil); !ok {
		return fmt.Errorf("create p2 failed")
	}

	k.Procs.Exit(p1.Pidx)

	p3, ok := k.Procs.Create("p3", 0, true, nil)
	if !ok {
		return fmt.Errorf("create p3 failed")
	}
	f3 := k.Alloc.OwnedFrames(p3.Pidx)

	if len(f3) != len(f1) {
		return fmt.Errorf("expected %d recycled frames, got %d", len(f1), len(f3))
	}
	orig := make(map[physaddr.Addr]bool, len(f1))
	for _, f := range f1 {
		orig[f] = true
	}
	for _, f := range f3 {
		if !orig[f] {
			return fmt.Errorf("frame %v was not in p1's original set", f)
		}
	}
	return nil
}

const calcFib = 0x1001

// scenarioS3 is spec.md §8's "IPC round-trip".
func scenarioS3(k *kernel.Kernel, out *bytes.Buffer) error {
	server, ok := k.Procs.Create("fib", 0, true, nil)
	if !ok {
		return fmt.Errorf("create fib failed")
	}
	client, ok := k.Procs.Create("client", 0, true, nil)
	if !ok {
		return fmt.Errorf("create client failed")
	}

	k.Spawn(server, func(k *kernel.Kernel, self *proc.PCB) {
		msg := k.SysIPCRecv(self)
		n := msg.Args[0]
		x, y := int64(0), int64(1)
		for i := int64(0); i < n; i++ {
			x, y = y, x+y
		}
		k.SysIPCReply(self, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{Values: [ipcwire.NumArgs]int64{x}})
		k.SysYield(self)
	})

	var resp ipcwire.Response
	done := make(chan struct{})
	k.Spawn(client, func(k *kernel.Kernel, self *proc.PCB) {
		pid := k.SysProcLookup("fib")
		resp = k.SysIPCSend(self, pid, ipcwire.Pack(calcFib, 0), [ipcwire.NumArgs]int64{10})
		close(done)
		k.SysYield(self)
		k.SysExit(self)
	})

	go k.Run()
	<-done

	if resp.ErrorCode != errs.NONE {
		return fmt.Errorf("expected success, got %v", resp.ErrorCode)
	}
	if resp.Values[0] != 55 {
		return fmt.Errorf("expected fib(10)=55, got %d", resp.Values[0])
	}
	return nil
}

// scenarioS4 is spec.md §8's "Unknown method": the server's dispatch only
// recognizes calcFib, so a request for an unrelated id comes back
// IPC__METHOD_NOT_KNOWN with every value word zero.
func scenarioS4(k *kernel.Kernel, out *bytes.Buffer) error {
	const unknownMethod = 0xABCDE

	server, ok := k.Procs.Create("fib", 0, true, nil)
	if !ok {
		return fmt.Errorf("create fib failed")
	}
	client, ok := k.Procs.Create("client", 0, true, nil)
	if !ok {
		return fmt.Errorf("create client failed")
	}

	k.Spawn(server, func(k *kernel.Kernel, self *proc.PCB) {
		msg := k.SysIPCRecv(self)
		if ipcwire.Method(msg.MethodAndFlags) != calcFib {
			k.SysIPCReply(self, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{ErrorCode: errs.IPCMethodNotKnown})
		} else {
			k.SysIPCReply(self, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{})
		}
		k.SysYield(self)
	})

	var resp ipcwire.Response
	done := make(chan struct{})
	k.Spawn(client, func(k *kernel.Kernel, self *proc.PCB) {
		pid := k.SysProcLookup("fib")
		resp = k.SysIPCSend(self, pid, ipcwire.Pack(unknownMethod, 0), [ipcwire.NumArgs]int64{})
		close(done)
		k.SysYield(self)
		k.SysExit(self)
	})

	go k.Run()
	<-done

	if resp.ErrorCode != errs.IPCMethodNotKnown {
		return fmt.Errorf("expected IPC__METHOD_NOT_KNOWN, got %v", resp.ErrorCode)
	}
	for i, v := range resp.Values {
		if v != 0 {
			return fmt.Errorf("expected zeroed values, got values[%d]=%d", i, v)
		}
	}
	return nil
}

// scenarioS5 is spec.md §8's "Comm-page transfer": the client's 1 KiB
// payload rides SEND_COMM_DATA into the server's comm page, the server
// transforms it in place, and RECV_COMM_DATA carries the result back.
func scenarioS5(k *kernel.Kernel, out *bytes.Buffer) error {
	const xform = 0xFF
	const payloadMethod = 0x1002

	server, ok := k.Procs.Create("xform", 0, true, nil)
	if !ok {
		return fmt.Errorf("create xform failed")
	}
	client, ok := k.Procs.Create("client", 0, true, nil)
	if !ok {
		return fmt.Errorf("create client failed")
	}

	k.Spawn(server, func(k *kernel.Kernel, self *proc.PCB) {
		msg := k.SysIPCRecv(self)
		page := physaddr.As[[physaddr.PageSize]byte](self.CommPage)
		for i := range page {
			page[i] ^= xform
		}
		k.SysIPCReply(self, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{})
		k.SysYield(self)
	})

	var sent [1024]byte
	for i := range sent {
		sent[i] = byte(i)
	}

	errCh := make(chan error, 1)
	done := make(chan struct{})
	k.Spawn(client, func(k *kernel.Kernel, self *proc.PCB) {
		commAddr := k.SysGetSysPage(self, kernel.SysPageComm)
		page := physaddr.As[[physaddr.PageSize]byte](commAddr)
		copy(page[:], sent[:])

		pid := k.SysProcLookup("xform")
		flags := ipcwire.SendCommData | ipcwire.RecvCommData
		resp := k.SysIPCSend(self, pid, ipcwire.Pack(payloadMethod, flags), [ipcwire.NumArgs]int64{})
		if resp.ErrorCode != errs.NONE {
			errCh <- fmt.Errorf("expected success, got %v", resp.ErrorCode)
		} else {
			var mismatch error
			for i := range sent {
				if page[i] != sent[i]^xform {
					mismatch = fmt.Errorf("byte %d: expected %#x, got %#x", i, sent[i]^xform, page[i])
					break
				}
			}
			errCh <- mismatch
		}
		close(done)
		k.SysYield(self)
		k.SysExit(self)
	})

	go k.Run()
	<-done
	return <-errCh
}

// scenarioS6 is spec.md §8's "Graceful shutdown".
func scenarioS6(k *kernel.Kernel, out *bytes.Buffer) error {
	service, ok := k.Procs.Create("svc", 0, true, nil)
	if !ok {
		return fmt.Errorf("create svc failed")
	}
	client, ok := k.Procs.Create("client", 0, true, nil)
	if !ok {
		return fmt.Errorf("create client failed")
	}

	svcErr := make(chan error, 1)
	k.Spawn(service, func(k *kernel.Kernel, self *proc.PCB) {
		msg := k.SysIPCRecv(self)
		if ipcwire.Method(msg.MethodAndFlags) != ipcwire.Shutdown {
			svcErr <- fmt.Errorf("service: expected SHUTDOWN method, got %#x", msg.MethodAndFlags)
		} else {
			svcErr <- nil
		}
		k.SysIPCReply(self, ipcwire.Flags(msg.MethodAndFlags), ipcwire.Response{})
		k.SysExit(self)
	})

	cliErr := make(chan error, 1)
	k.Spawn(client, func(k *kernel.Kernel, self *proc.PCB) {
		pid := k.SysProcLookup("svc")
		resp := k.SysIPCSend(self, pid, ipcwire.Pack(ipcwire.Shutdown, 0), [ipcwire.NumArgs]int64{})
		if resp.ErrorCode != errs.NONE {
			cliErr <- fmt.Errorf("client: expected success reply, got %v", resp.ErrorCode)
		} else {
			cliErr <- nil
		}
		k.SysExit(self)
	})

	k.Run()

	if err := <-svcErr; err != nil {
		return err
	}
	if err := <-cliErr; err != nil {
		return err
	}
	if got := k.Alloc.FreeCount(); got != k.Alloc.NumFrames() {
		return fmt.Errorf("expected every frame free after shutdown, got %d/%d", got, k.Alloc.NumFrames())
	}
	return nil
}
