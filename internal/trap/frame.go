// Package trap implements the trap-cause decode and syscall dispatch half
// of spec.md §4.6 ("Trap entry saves the full user register set onto the
// kernel stack. The dispatcher inspects the trap cause ..."). The actual
// register-save trampoline is the bare-metal assembly spec.md §9 calls
// out as having "no portable substitute on RISC-V" (see
// internal/switcher's switch_riscv.s for the sibling case); no such file
// survived into the retrieval pack for this repository (biscuit's own
// trap.go/entry assembly live in its forked runtime, out of pack scope),
// so Frame's layout and Classify/Dispatch below are written fresh against
// spec.md §6's ABI box rather than adapted from a specific teacher file.
package trap

// NumGPRegs is the number of general-purpose registers a trap frame saves:
// x1 (ra) through x31 in register-file order. x0 is hardwired to zero and
// is never saved (spec.md §6: "31 x 4-byte word-aligned slots ... followed
// by the saved user stack pointer").
const NumGPRegs = 31

// Register indices into Frame.Regs for the subset the syscall ABI and SBI
// convention touch (spec.md §6's "Syscall ABI" box). Index N holds x(N+1).
const (
	RegRA = 0  // x1, return address
	RegA0 = 9  // x10
	RegA1 = 10 // x11
	RegA2 = 11 // x12
	RegA3 = 12 // x13 -- syscall number
	RegA4 = 13 // x14
	RegA5 = 14 // x15
	RegA6 = 15 // x16
	RegA7 = 16 // x17 -- SBI extension id
)

// Frame is the fixed-layout register save area the (bare-metal-only)
// assembly trap entry builds: NumGPRegs word slots plus the interrupted
// user stack pointer. handle_trap reads and writes it through the
// accessors below; the exact slot order is an ABI contract between that
// assembly and this package, not something Go code can check at compile
// time.
type Frame struct {
	Regs   [NumGPRegs]uint32
	UserSP uint32
}

func (f *Frame) A0() uint32 { return f.Regs[RegA0] }
func (f *Frame) A1() uint32 { return f.Regs[RegA1] }
func (f *Frame) A2() uint32 { return f.Regs[RegA2] }
func (f *Frame) A4() uint32 { return f.Regs[RegA4] }
func (f *Frame) A5() uint32 { return f.Regs[RegA5] }

func (f *Frame) SetA0(v uint32) { f.Regs[RegA0] = v }
func (f *Frame) SetA1(v uint32) { f.Regs[RegA1] = v }
func (f *Frame) SetA2(v uint32) { f.Regs[RegA2] = v }
func (f *Frame) SetA4(v uint32) { f.Regs[RegA4] = v }
func (f *Frame) SetA5(v uint32) { f.Regs[RegA5] = v }

// SyscallNumber returns a3, the fixed syscall-number register (spec.md
// §6: "Syscall number in a3").
func (f *Frame) SyscallNumber() uint32 { return f.Regs[RegA3] }

// SBIExtension returns a7, the SBI extension-id register used to tell an
// SBI firmware call apart from a kernel syscall (spec.md §4.6, §6).
func (f *Frame) SBIExtension() uint32 { return f.Regs[RegA7] }

// AdvancePC is called once a trap has been fully serviced so the
// interrupted instruction is not re-executed on return (spec.md §4.6:
// "advance sepc by the instruction width"). RISC-V ecall is always 4
// bytes (no compressed-instruction ecall form), so this is a constant.
const ECallWidth = 4
