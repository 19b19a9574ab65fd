// Package console implements the byte ring buffer backing PUTCHAR/GETCHAR
// (spec.md §4.6 syscalls 2/3) and the WASM host's input-event queue (spec.md
// §6: "An input-event queue populated by the host for keyboard delivery to
// the input driver"). Adapted from biscuit's circbuf.go: same head/tail
// modulo-indexed ring, stripped of the page-backed/refcounted storage and
// fdops.Userio_i plumbing biscuit used for POSIX pipe/tty buffers, neither
// of which this kernel has (no POSIX fs, spec.md §1 non-goals) — a plain
// fixed-capacity []byte is the whole console needs.
package console

// Ring is a fixed-capacity byte ring buffer. Not safe for concurrent use;
// the kernel only ever touches it from the single running process's
// context (spec.md §5: no concurrent mutation within the kernel).
type Ring struct {
	buf  []byte
	head int
	tail int
}

// NewRing allocates a ring of the given capacity in bytes.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("console: non-positive ring capacity")
	}
	return &Ring{buf: make([]byte, capacity)}
}

// Full reports whether the ring cannot accept more bytes.
func (r *Ring) Full() bool {
	return r.head-r.tail == len(r.buf)
}

// Empty reports whether the ring holds no bytes.
func (r *Ring) Empty() bool {
	return r.head == r.tail
}

// Used returns the number of bytes currently buffered.
func (r *Ring) Used() int {
	return r.head - r.tail
}

// PutByte appends one byte, returning false if the ring is full (the
// caller — the console driver's interrupt/poll path — drops the byte on
// overflow rather than blocking, matching a UART FIFO's behaviour).
func (r *Ring) PutByte(b byte) bool {
	if r.Full() {
		return false
	}
	r.buf[r.head%len(r.buf)] = b
	r.head++
	return true
}

// GetByte consumes and returns the oldest buffered byte, or (0, false) if
// the ring is empty. The GETCHAR syscall reports that empty case to user
// space as a1 == 0 (internal/trap's dispatcher).
func (r *Ring) GetByte() (byte, bool) {
	if r.Empty() {
		return 0, false
	}
	b := r.buf[r.tail%len(r.buf)]
	r.tail++
	return b, true
}
