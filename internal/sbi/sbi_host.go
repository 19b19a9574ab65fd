//go:build !riscv

package sbi

import (
	"io"

	"github.com/upvalue/otium-sub000/internal/console"
)

// Host implements Firmware for the hosted/WASM target (spec.md §6): an
// output sink in place of the UART, an input ring fed by whatever queues
// host keyboard events (spec.md §6's "input-event queue populated by the
// host"), and a callback standing in for the host exit() import.
type Host struct {
	Out    io.Writer
	In     *console.Ring
	OnExit func()
	exited bool
}

// NewHost constructs a Host backend with an input ring of the given
// capacity.
func NewHost(out io.Writer, inputCapacity int) *Host {
	return &Host{Out: out, In: console.NewRing(inputCapacity)}
}

func (h *Host) PutChar(b byte) {
	h.Out.Write([]byte{b})
}

func (h *Host) GetChar() (byte, bool) {
	return h.In.GetByte()
}

// Feed queues a byte as though the host delivered a keypress — the
// "input-event queue" side of the contract, driven by whatever embeds this
// kernel (cmd/hostsim's scripted scenarios, in this repo).
func (h *Host) Feed(b byte) bool {
	return h.In.PutByte(b)
}

func (h *Host) Shutdown() {
	h.exited = true
	if h.OnExit != nil {
		h.OnExit()
	}
}

// Exited reports whether Shutdown has been called.
func (h *Host) Exited() bool {
	return h.exited
}
