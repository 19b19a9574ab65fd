// Package switcher implements the context-switch primitive the scheduler
// and IPC direct hand-off both ride on (spec.md §4.4, §5's WASM variant).
//
// spec.md's design notes (§9) ask for the context switch to be isolated
// behind a small interface so the IPC/scheduler logic above it does not
// care whether a "process" is a bare-metal kernel stack or a WASM host
// fiber. In idiomatic Go, a goroutine parked on an unbuffered channel
// receive *is* a parked fiber, and a channel send that wakes it while the
// waker blocks on its own channel *is* the direct hand-off. SwitchTo goes
// from any fiber straight to any other; it sets no next-process hint and
// does not route the switch through a scheduler fiber. The same backend
// serves as this repository's host/test backend for the RISC-V target
// (see switch_riscv.go for the bare-metal backend this replaces on real
// hardware).
package switcher

// Fiber is one parked or running execution context: a process, or the
// outer "firmware"/scheduler context that exists before any process runs
// and after the last one exits.
type Fiber struct {
	resume chan struct{}
}

// NewFiber allocates a fiber with no goroutine behind it yet (used for the
// bootstrap/firmware context, which has no process code to run — it only
// ever participates in SwitchTo as the very first `from` and the final
// `to`).
func NewFiber() *Fiber {
	return &Fiber{resume: make(chan struct{})}
}

// Spawn launches fn on a new goroutine parked on its own fiber until the
// first SwitchTo targets it. fn is expected to run until the process
// exits; it gives up control earlier only by itself calling SwitchTo
// (e.g. via the scheduler's Yield or the IPC core's send/recv).
func Spawn(fn func()) *Fiber {
	f := NewFiber()
	go func() {
		<-f.resume
		fn()
	}()
	return f
}

// SwitchTo transfers control from the calling fiber to to, then blocks
// until some later SwitchTo call names from as its target again. This is
// the single primitive both the scheduler (picking the next RUNNABLE
// process) and the IPC core (direct hand-off on send/reply, spec.md §4.7)
// use; they differ only in how they pick `to`, never in how the switch
// itself happens.
func SwitchTo(from, to *Fiber) {
	to.resume <- struct{}{}
	<-from.resume
}
