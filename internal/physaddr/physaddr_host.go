//go:build !riscv

package physaddr

import (
	"sync"
	"unsafe"
)

// On the hosted/WASM target (spec.md §4.4, §5) there is no physical address
// space the Go runtime can dereference directly — "physical memory" is
// really just a slice this process allocated. ram is that slice; InitRAM
// sizes it once at boot (cmd/hostsim) or per-test, and As[T] indexes into it
// instead of treating a as a raw pointer value, which the !riscv backend
// here replaces entirely.
var (
	ramMu sync.RWMutex
	ram   []byte
)

// InitRAM (re)allocates the hosted backing store to n bytes, zeroed. Every
// physaddr.Addr used afterwards must fall within [0, n).
func InitRAM(n int) {
	ramMu.Lock()
	defer ramMu.Unlock()
	ram = make([]byte, n)
}

// As reinterprets the hosted RAM arena at offset a as *T. Panics if a is
// misaligned or the resulting range would run past the arena — the hosted
// backend can check bounds even though the bare-metal one (physaddr_riscv.go)
// cannot, since here "physical memory" is an ordinary Go slice.
func As[T any](a Addr) *T {
	var zero T
	size := unsafe.Sizeof(zero)
	if !a.Aligned(unsafe.Alignof(zero)) {
		panic("physaddr: misaligned As[T]")
	}
	ramMu.RLock()
	defer ramMu.RUnlock()
	if ram == nil {
		panic("physaddr: RAM arena not initialized (call InitRAM first)")
	}
	if uintptr(a)+size > uintptr(len(ram)) {
		panic("physaddr: As[T] out of bounds")
	}
	return (*T)(unsafe.Pointer(&ram[a]))
}
