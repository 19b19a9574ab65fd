// Package klog is the CORE's diagnostic logging, modelled on the original
// kernel.hpp's level-gated TRACE/TRACE_MEM/TRACE_PROC/TRACE_IPC macros and
// on biscuit's habit of diagnostic fmt.Printf calls directly in kernel code
// (mem.go's Phys_init, e.g.). There is no structured-logging library in
// the example pack suited to a freestanding kernel target (one with no
// filesystem to rotate a log file on, no stdout but a single UART/console
// device) — see DESIGN.md for why this stays on fmt/log rather than
// reaching for a third-party logging library.
package klog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/text/width"
)

// Level gates which TRACE_* calls actually print, mirroring the
// LOG_GENERAL/LOG_MEM/LOG_PROC/LOG_IPC compile-time knobs in the original
// kernel.hpp.
type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelInfo
	LevelDebug
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stderr
	levels           = map[string]Level{
		"general": LevelInfo,
		"mem":     LevelInfo,
		"proc":    LevelInfo,
		"ipc":     LevelInfo,
	}
)

// SetOutput redirects all klog output; tests point it at a bytes.Buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetLevel adjusts the gate for one of "general", "mem", "proc", "ipc".
func SetLevel(facility string, lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	levels[facility] = lvl
}

func trace(facility string, lvl Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if levels[facility] < lvl {
		return
	}
	fmt.Fprintf(out, "[%s] "+format+"\n", append([]any{facility}, args...)...)
}

// Tracef logs at LevelInfo under the "general" facility.
func Tracef(format string, args ...any) { trace("general", LevelInfo, format, args...) }

// TraceMem logs at LevelDebug under the "mem" facility (page allocator
// traffic: spec.md §4.1).
func TraceMem(format string, args ...any) { trace("mem", LevelDebug, format, args...) }

// TraceProc logs at LevelDebug under the "proc" facility (process
// creation/termination/scheduling: spec.md §4.3, §4.5).
func TraceProc(format string, args ...any) { trace("proc", LevelDebug, format, args...) }

// TraceIPC logs at LevelDebug under the "ipc" facility (spec.md §4.7).
func TraceIPC(format string, args ...any) { trace("ipc", LevelDebug, format, args...) }

// Errorf always logs, regardless of level (kernel faults, panics caught at
// a boundary: spec.md §7).
func Errorf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "[error] "+format+"\n", args...)
}

// PadDisplay right-pads s with spaces to at least width display columns,
// counting double-width (e.g. CJK) runes as two columns via
// golang.org/x/text/width — used by DumpProcs to keep the process-table
// diagnostic dump aligned even when a process name contains wide runes.
func PadDisplay(s string, cols int) string {
	w := 0
	for _, r := range s {
		if width.LookupRune(r).Kind() == width.EastAsianWide || width.LookupRune(r).Kind() == width.EastAsianFullwidth {
			w += 2
		} else {
			w++
		}
	}
	for w < cols {
		s += " "
		w++
	}
	return s
}
