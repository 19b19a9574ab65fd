//go:build riscv

// This file is the bare-metal RISC-V trap entry: entry_riscv.s spills the
// full user register set into a Frame-shaped area on the kernel stack and
// calls trapDispatchGo with its address (spec.md §9: "keep the tiny
// assembly trampoline; everything else ... in plain code"). No such file
// survived into the retrieval pack for this repository (see frame.go's
// doc comment), so this trampoline is written fresh against spec.md §6's
// ABI box and §9's boot contract rather than adapted from a teacher file.
package trap

import "github.com/upvalue/otium-sub000/internal/kernel"

// currentKernelRef is the bare-metal target's only global mutable state:
// there is exactly one kernel instance on this single-CPU, cooperative
// target (spec.md §5). SetCurrentKernel sets it once at boot;
// trapDispatchGo reads it back when a trap lands and asks the kernel for
// the running process (Kernel.CurrentPidx).
var currentKernelRef *kernel.Kernel

// SetCurrentKernel records the one running Kernel instance so trapEntry's
// assembly trampoline has something to call back into. It must be called
// once during kernel_main, before InstallVector.
func SetCurrentKernel(k *kernel.Kernel) {
	currentKernelRef = k
}

//go:noescape
func installVector(entry uintptr)

// InstallVector points stvec at the trap entry trampoline (spec.md §9:
// "kernel_main installs the trap vector (stvec) and calls kernel_start").
func InstallVector() {
	installVector(trapEntryAddr())
}

//go:noescape
func trapEntryAddr() uintptr

//go:noescape
func readSCause() uintptr

//go:noescape
func readSStatus() uintptr

// scauseEnvironmentCallU is the RISC-V scause value for "environment call
// from U-mode", the only ecall cause this single-privilege-level kernel
// (no S-mode-to-S-mode calls in scope) ever sees.
const scauseEnvironmentCallU = 8

// sstatusSPP is the previous-privilege bit in sstatus: set means the
// trapped context was running in S-mode, clear means U-mode.
const sstatusSPP = 1 << 8

// trapDispatchGo is called by entry_riscv.s with the freshly spilled
// Frame. It reads scause/sstatus itself to feed Classify, the same two
// facts the trampoline would otherwise have needed bespoke register
// plumbing to pass across the call.
func trapDispatchGo(frame *Frame) {
	k := currentKernelRef
	if k == nil {
		panic("trap: no current kernel set")
	}
	self := k.Procs.At(k.CurrentPidx())

	ecall := readSCause() == scauseEnvironmentCallU
	fromUser := readSStatus()&sstatusSPP == 0

	switch Classify(ecall, fromUser, frame) {
	case CauseSBICall:
		// Forwarded to firmware unchanged by the trampoline itself before
		// trapDispatchGo is even called in the real entry sequence; kept
		// here only so Classify's four-way decode has one Go-level home.
	case CauseSyscall:
		Dispatch(k, self, frame)
	case CauseUserFault:
		k.Procs.Exit(self.Pidx)
		k.Yield(self)
	case CauseKernelFault:
		panic("trap: kernel-mode trap with no handler")
	}
}
