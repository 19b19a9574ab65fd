// This file holds the comm-page marshalling conventions shared by both
// targets: writing/reading the single-string ["string", text] message
// IO_PUTS and PROC_LOOKUP expect (spec.md §4.6, syscalls 7/8), and a
// general ReadArgs/WriteArgs pair for services that need more than the
// three-register argument budget (spec.md §3). Grounded on
// os/ot/core/platform/user-riscv.cpp's ou_io_puts/ou_proc_lookup, which
// serialize into the comm page the same way before trapping.
package userland

import (
	"fmt"

	"github.com/upvalue/otium-sub000/internal/physaddr"
	"github.com/upvalue/otium-sub000/pkg/userland/mpack"
)

// WriteCommString packs s into page as a two-element ["string", s]
// message, the convention IO_PUTS and PROC_LOOKUP both decode on the
// kernel side (internal/trap.readCommString).
func WriteCommString(page physaddr.Addr, s string) error {
	buf := physaddr.As[[physaddr.PageSize]byte](page)
	w := mpack.NewWriter(buf[:])
	w.Array(2).Str("string").Str(s)
	return w.Err()
}

// ReadCommString reverses WriteCommString, for a process reading a string
// another process placed in a comm page it owns (e.g. after an
// ipcwire.SendCommData hand-off copied it in).
func ReadCommString(page physaddr.Addr) (string, error) {
	buf := physaddr.As[[physaddr.PageSize]byte](page)
	r := mpack.NewReader(buf[:])
	n, ok := r.EnterArray()
	if !ok || n != 2 {
		return "", fmt.Errorf("userland: malformed comm string message")
	}
	tag, ok := r.ReadString()
	if !ok || tag != "string" {
		return "", fmt.Errorf("userland: unexpected comm string tag %q", tag)
	}
	s, ok := r.ReadString()
	if !ok {
		return "", fmt.Errorf("userland: truncated comm string payload")
	}
	return s, nil
}

// WriteArgs packs args as an mpack array into page, for services whose
// request shape doesn't fit the three fixed integer registers (spec.md
// §3's args[3] is the fast path; this is the comm-page escape hatch the
// same way os/ot/shared/messages.hpp's larger message types use it).
func WriteArgs(page physaddr.Addr, args []int64) error {
	buf := physaddr.As[[physaddr.PageSize]byte](page)
	w := mpack.NewWriter(buf[:])
	w.Array(len(args))
	for _, a := range args {
		w.Int(a)
	}
	return w.Err()
}

// ReadArgs reverses WriteArgs.
func ReadArgs(page physaddr.Addr) ([]int64, error) {
	buf := physaddr.As[[physaddr.PageSize]byte](page)
	r := mpack.NewReader(buf[:])
	n, ok := r.EnterArray()
	if !ok {
		return nil, fmt.Errorf("userland: malformed args array")
	}
	out := make([]int64, n)
	for i := range out {
		v, ok := r.ReadInt()
		if !ok {
			return nil, fmt.Errorf("userland: truncated args array at index %d", i)
		}
		out[i] = v
	}
	return out, nil
}
