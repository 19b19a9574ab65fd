// Package syscallnum holds the syscall numbers shared by the kernel's trap
// dispatcher and user-space's syscall stubs (spec.md §4.6), the Go
// equivalent of os/ot/common.h's OU_* defines: one constant block both
// sides of the ABI compile against, rather than each guessing the other's
// numbering.
package syscallnum

const (
	Yield           = 1
	PutChar         = 2
	GetChar         = 3
	Exit            = 4
	AllocPage       = 5
	GetSysPage      = 6
	IOPuts          = 7
	ProcLookup      = 8
	IPCSend         = 9
	IPCRecv         = 10
	IPCReply        = 11
	Shutdown        = 12
	LockKnownMemory = 13
)

// SysPage selects which per-process page GET_SYS_PAGE returns.
const (
	SysPageArg = iota
	SysPageComm
	SysPageStorage
)
