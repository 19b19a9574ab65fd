package klog

import (
	"fmt"
	"runtime"
	"sync"
)

// DistinctCaller records whether the current call chain has been seen
// before, so a hot path (spec.md §4.6's "any other trap from user mode"
// diagnostic print, in particular) can log the first occurrence of each
// distinct caller path in full and stay quiet on repeats. Adapted from
// biscuit's caller.go Distinct_caller_t.
type DistinctCaller struct {
	mu      sync.Mutex
	Enabled bool
	seen    map[uintptr]bool
	// Whitelist suppresses reporting for call chains rooted at one of
	// these function names (used to silence expected, repeated fault
	// sites during fuzzing/scenario tests).
	Whitelist map[string]bool
}

func pathHash(pcs []uintptr) uintptr {
	if len(pcs) == 0 {
		panic("klog: empty caller path")
	}
	var h uintptr
	for _, pc := range pcs {
		pc = pc*1103515245 + 12345
		h ^= pc
	}
	return h
}

// Len reports how many distinct call paths have been recorded.
func (dc *DistinctCaller) Len() int {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return len(dc.seen)
}

// Distinct reports whether the caller's current call chain (starting three
// frames up, i.e. the caller of the function that called Distinct) is new,
// returning a formatted stack trace the first time each distinct path is
// observed.
func (dc *DistinctCaller) Distinct() (bool, string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if !dc.Enabled {
		return false, ""
	}
	if dc.seen == nil {
		dc.seen = make(map[uintptr]bool)
	}

	var pcs []uintptr
	for sz, got := 30, 30; got >= sz; sz *= 2 {
		pcs = make([]uintptr, sz)
		got = runtime.Callers(3, pcs)
		if got == 0 {
			panic("klog: runtime.Callers returned nothing")
		}
	}
	h := pathHash(pcs)
	if dc.seen[h] {
		return false, ""
	}
	dc.seen[h] = true

	frames := runtime.CallersFrames(pcs)
	var trace string
	for {
		fr, more := frames.Next()
		if dc.Whitelist[fr.Function] {
			return false, ""
		}
		if trace == "" {
			trace = fmt.Sprintf("%s (%s:%d)\n", fr.Function, fr.File, fr.Line)
		} else {
			trace += fmt.Sprintf("\t%s (%s:%d)\n", fr.Function, fr.File, fr.Line)
		}
		if !more || fr.Function == "runtime.goexit" {
			break
		}
	}
	return true, trace
}
