package trap

// Cause classifies a trap per spec.md §4.6's four-way decode.
type Cause int

const (
	// CauseSBICall is an ecall with a non-zero extension id (a7):
	// forwarded to firmware unchanged.
	CauseSBICall Cause = iota
	// CauseSyscall is an ecall with a7 == 0: a kernel syscall, dispatched
	// through the syscall table.
	CauseSyscall
	// CauseUserFault is any other trap taken from user mode: the
	// offending process is marked TERMINATED and the kernel yields.
	CauseUserFault
	// CauseKernelFault is any other trap taken from kernel mode: a
	// kernel-internal inconsistency, which panics (spec.md §7).
	CauseKernelFault
)

// Classify implements spec.md §4.6's trap-cause decode. ecall reports
// whether the trap is an ECALL exception as opposed to some other fault
// (illegal instruction, misaligned/invalid access, ...); fromUser reports
// whether the trapped context was running in user mode. Both are derived
// from the RISC-V scause/sstatus CSRs by the (bare-metal-only) trap entry
// before Classify is called; this function itself is pure decision logic
// so it can be exercised without real hardware.
func Classify(ecall, fromUser bool, frame *Frame) Cause {
	if ecall {
		if frame.SBIExtension() != 0 {
			return CauseSBICall
		}
		return CauseSyscall
	}
	if fromUser {
		return CauseUserFault
	}
	return CauseKernelFault
}
