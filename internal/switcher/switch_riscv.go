//go:build riscv

// This file is the bare-metal RISC-V backend for the context switch:
// switch_riscv.s saves the 12 callee-saved registers and return address
// onto the outgoing kernel stack, stores the resulting stack pointer, loads
// the incoming PCB's saved stack pointer, and pops its callee-saved state
// (spec.md §4.4). It is not exercised by this repository's tests (there is
// no forked Go runtime here to run freestanding, unlike biscuit) but is
// kept as the real target backend per design notes §9: "keep the tiny
// assembly trampoline; no portable substitute exists on RISC-V."
package switcher

// switchContext is implemented in switch_riscv.s. prevSP receives the
// outgoing stack pointer; nextSP is the incoming one to resume.
//
//go:noescape
func switchContext(prevSP *uintptr, nextSP uintptr)

// SwitchContextRISCV performs a bare-metal context switch between two
// kernel stacks, additionally writing sscratch/sepc so that trap entry and
// sret resume the incoming process correctly (spec.md §4.4).
func SwitchContextRISCV(prevSPSlot *uintptr, nextSP uintptr, nextUserPC uintptr) {
	setSscratch(nextSP)
	setSepc(nextUserPC)
	switchContext(prevSPSlot, nextSP)
}

//go:noescape
func setSscratch(top uintptr)

//go:noescape
func setSepc(pc uintptr)
