// Package accnt accumulates per-process CPU accounting. Adapted from
// biscuit's accnt.Accnt_t: same userns/sysns split, without POSIX
// wait4/rusage, since this kernel has no POSIX layer to report rusage
// through. internal/kernel keeps one Record per process and prints it in
// DumpProcs; nothing in this repository calls Utadd or Systadd, so the
// recorded times stay zero.
package accnt

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Record accumulates one process's accrued time, in nanoseconds. Userns is
// time spent running with the process's own code on the CPU; Sysns is time
// the kernel spent servicing that process's syscalls (measured as the
// interval between trap entry and the matching yield/return).
type Record struct {
	Userns int64
	Sysns  int64
	sync.Mutex
}

// Utadd adds delta nanoseconds to the user-time counter.
func (a *Record) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

// Systadd adds delta nanoseconds to the system-time counter.
func (a *Record) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

// Now returns the current time in nanoseconds, the same clock Utadd/Systadd
// deltas are computed against.
func (a *Record) Now() int64 {
	return time.Now().UnixNano()
}

// Add merges another record into this one.
func (a *Record) Add(n *Record) {
	a.Lock()
	defer a.Unlock()
	a.Userns += atomic.LoadInt64(&n.Userns)
	a.Sysns += atomic.LoadInt64(&n.Sysns)
}

// Snapshot returns a consistent (userns, sysns) pair.
func (a *Record) Snapshot() (int64, int64) {
	a.Lock()
	defer a.Unlock()
	return a.Userns, a.Sysns
}

// Report formats a one-line usage summary for diagnostics.
func (a *Record) Report() string {
	u, s := a.Snapshot()
	return fmt.Sprintf("user=%s sys=%s", time.Duration(u), time.Duration(s))
}
