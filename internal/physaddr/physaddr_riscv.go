//go:build riscv

package physaddr

import "unsafe"

// As reinterprets the memory at a as *T. On bare-metal RISC-V the kernel
// runs in physical-address mode (spec.md §1 non-goal: no MMU translation),
// so a physical address and a Go pointer value are the same number — this
// is the direct equivalent of Address<Tag>::as<T>() in the original C++.
// Callers must ensure a points at memory actually backing a page of at
// least unsafe.Sizeof(T); this only checks alignment, not bounds, mirroring
// the original (the kernel never had bounds information to check either).
func As[T any](a Addr) *T {
	var zero T
	if !a.Aligned(unsafe.Alignof(zero)) {
		panic("physaddr: misaligned As[T]")
	}
	return (*T)(unsafe.Pointer(uintptr(a)))
}
