//go:build riscv

// Command kernel is the bare-metal RISC-V entry point: .text.boot jumps to
// kernel_main (this package's main, per Go's usual entry convention),
// which installs the trap vector and brings up the CORE (spec.md §9's
// boot contract: "Linker places a .text.boot entry that sets the stack
// pointer to __stack_top and jumps to kernel_main. kernel_main installs
// the trap vector (stvec) and calls kernel_start.").
package main

import (
	"github.com/upvalue/otium-sub000/internal/kernel"
	"github.com/upvalue/otium-sub000/internal/limits"
	"github.com/upvalue/otium-sub000/internal/sbi"
	"github.com/upvalue/otium-sub000/internal/trap"
)

// firstProcessEntry is the entry point of the first user process the
// kernel starts, standing in for whatever program the boot image embeds
// (spec.md §4.3: "kernel init ... first user processes"). A real image
// supplies this address from its own linked-in program. This repository
// has no boot image builder and nothing in it assigns this variable, so it
// stays 0.
var firstProcessEntry uintptr

func main() {
	kernel_main()
}

// kernel_main matches the boot contract's naming (spec.md §9) rather than
// Go's usual main-only entry, since the linker script's .text.boot jumps
// to a symbol by that name.
func kernel_main() {
	cfg := limits.Default()
	k := kernel.New(cfg, sbi.RISCV{})

	trap.SetCurrentKernel(k)
	trap.InstallVector()

	kernel_start(k)
}

// kernel_start creates the first user process and hands control to the
// scheduler loop (spec.md §2: "scheduler picks runnable → context-switch
// to user → ... → scheduler re-enters"), never returning on success; it
// only returns via shutdownAll's call into firmware, which itself never
// returns.
//
// Unlike the hosted target there is no Go closure to give the scheduler: a
// bare-metal process is real machine code entered at firstProcessEntry, so
// kernel_start fabricates its initial context with kernel.PrepareEntry
// instead of calling Spawn.
func kernel_start(k *kernel.Kernel) {
	init, ok := k.Procs.Create("init", firstProcessEntry, false, nil)
	if !ok {
		panic("kernel: failed to create first process")
	}
	kernel.PrepareEntry(init)
	k.Run()
}
