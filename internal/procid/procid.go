// Package procid defines the two process identifiers spec.md §3 requires
// kept distinct: Pidx (a cheap, bounded process-table slot) and Pid (a
// stable, never-reused, user-visible handle). Splitting them into their own
// leaf package lets every other package (mempage, proc, ipc, region) depend
// on the identifiers without depending on the process table itself.
package procid

// Pidx is a process-table slot index in [0, ProcsMax).
type Pidx int32

// PidxInvalid is the sentinel for "no slot".
const PidxInvalid Pidx = -1

// Pid is a globally unique, monotonically increasing, never-reused process
// identifier. PidNone is the sentinel for "no process" / an unset field.
type Pid uint64

// PidNone is the sentinel value meaning "no process".
const PidNone Pid = 0
