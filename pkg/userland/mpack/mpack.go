// Package mpack implements the msgpack-compatible tag-length stream the
// comm page carries (spec.md §4.8, §6: "A serialised tag-length stream
// (msgpack-compatible: nil, bool, signed/unsigned int, str, bin, array,
// map, fixed-size chunks). The kernel never interprets payloads except to
// copy pages."). Adapted from the original os/ot/shared/mpack-writer.hpp /
// mpack-reader.cpp's MPackWriter/MPackReader wrappers around libmpack,
// reimplemented directly over the standard msgpack tag bytes instead of
// wrapping a C library. This is a convention of the user-space stubs, not
// kernel state (spec.md §4.8) — pkg/userland is where programs marshal
// arguments too large for three registers, and where the kernel's own
// IO_PUTS/PROC_LOOKUP syscall handlers borrow ReadString to pull a name out
// of a caller's comm page (spec.md §4.6, syscalls 7 and 8).
package mpack

import (
	"encoding/binary"
	"errors"
)

// Standard msgpack format family tags (github.com/msgpack/msgpack/blob/master/spec.md).
const (
	tagNil       = 0xc0
	tagFalse     = 0xc2
	tagTrue      = 0xc3
	tagUint8     = 0xcc
	tagUint16    = 0xcd
	tagUint32    = 0xce
	tagUint64    = 0xcf
	tagInt8      = 0xd0
	tagInt16     = 0xd1
	tagInt32     = 0xd2
	tagInt64     = 0xd3
	tagStr8      = 0xd9
	tagStr16     = 0xda
	tagStr32     = 0xdb
	tagBin8      = 0xc4
	tagBin16     = 0xc5
	tagBin32     = 0xc6
	tagArray16   = 0xdc
	tagArray32   = 0xdd
	tagMap16     = 0xde
	tagMap32     = 0xdf
	fixstrMask   = 0xa0 // 0xa0-0xbf: fixstr, low 5 bits = length
	fixarrayMask = 0x90 // 0x90-0x9f: fixarray, low 4 bits = count
	fixmapMask   = 0x80 // 0x80-0x8f: fixmap, low 4 bits = count
	fixintMaxPos = 0x7f // 0x00-0x7f: positive fixint
	fixintMinNeg = 0xe0 // 0xe0-0xff: negative fixint (-32..-1)
)

// ErrShortBuffer is returned by Writer methods when the backing buffer is
// too small for the value being packed.
var ErrShortBuffer = errors.New("mpack: short buffer")

// ErrUnexpectedType is returned by Reader methods when the next token's tag
// does not match the type being read.
var ErrUnexpectedType = errors.New("mpack: unexpected type")

// ErrEOF is returned by Reader methods when the buffer is exhausted.
var ErrEOF = errors.New("mpack: unexpected end of buffer")

// Writer packs values into a fixed, caller-supplied buffer (ordinarily a
// process's comm page), matching MPackWriter's "write into a page-sized
// arena, track an error sticky bit" behaviour.
type Writer struct {
	buf []byte
	pos int
	err error
}

// NewWriter wraps buf for writing from its start.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.pos }

func (w *Writer) put(b ...byte) {
	if w.err != nil {
		return
	}
	if w.pos+len(b) > len(w.buf) {
		w.err = ErrShortBuffer
		return
	}
	copy(w.buf[w.pos:], b)
	w.pos += len(b)
}

// Nil packs a nil token.
func (w *Writer) Nil() *Writer {
	w.put(tagNil)
	return w
}

// Bool packs a boolean token.
func (w *Writer) Bool(v bool) *Writer {
	if v {
		w.put(tagTrue)
	} else {
		w.put(tagFalse)
	}
	return w
}

// Int packs a signed integer, choosing the smallest representation that
// preserves value (negative fixint, int8/16/32/64, or a non-negative
// fixint/uint* form when v >= 0 — matching libmpack's mpack_pack_sint
// behaviour of picking the tightest encoding).
func (w *Writer) Int(v int64) *Writer {
	switch {
	case v >= 0:
		return w.Uint(uint64(v))
	case v >= -32:
		w.put(byte(int8(v)))
	case v >= -128:
		w.put(tagInt8, byte(int8(v)))
	case v >= -32768:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(int16(v)))
		w.put(tagInt16, b[0], b[1])
	case v >= -2147483648:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
		w.put(tagInt32, b[0], b[1], b[2], b[3])
	default:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v))
		w.put(tagInt64, b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7])
	}
	return w
}

// Uint packs an unsigned integer in the smallest representation.
func (w *Writer) Uint(v uint64) *Writer {
	switch {
	case v <= fixintMaxPos:
		w.put(byte(v))
	case v <= 0xff:
		w.put(tagUint8, byte(v))
	case v <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v))
		w.put(tagUint16, b[0], b[1])
	case v <= 0xffffffff:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		w.put(tagUint32, b[0], b[1], b[2], b[3])
	default:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		w.put(tagUint64, b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7])
	}
	return w
}

// Str packs a UTF-8 string.
func (w *Writer) Str(s string) *Writer {
	n := len(s)
	switch {
	case n <= 31:
		w.put(byte(fixstrMask | n))
	case n <= 0xff:
		w.put(tagStr8, byte(n))
	case n <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		w.put(tagStr16, b[0], b[1])
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		w.put(tagStr32, b[0], b[1], b[2], b[3])
	}
	w.put([]byte(s)...)
	return w
}

// Bin packs a raw byte string.
func (w *Writer) Bin(b []byte) *Writer {
	n := len(b)
	switch {
	case n <= 0xff:
		w.put(tagBin8, byte(n))
	case n <= 0xffff:
		var h [2]byte
		binary.BigEndian.PutUint16(h[:], uint16(n))
		w.put(tagBin16, h[0], h[1])
	default:
		var h [4]byte
		binary.BigEndian.PutUint32(h[:], uint32(n))
		w.put(tagBin32, h[0], h[1], h[2], h[3])
	}
	w.put(b...)
	return w
}

// Array opens an array header of n elements; the caller packs each element
// with subsequent calls.
func (w *Writer) Array(n int) *Writer {
	switch {
	case n <= 15:
		w.put(byte(fixarrayMask | n))
	case n <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		w.put(tagArray16, b[0], b[1])
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		w.put(tagArray32, b[0], b[1], b[2], b[3])
	}
	return w
}

// Map opens a map header of n key/value pairs.
func (w *Writer) Map(n int) *Writer {
	switch {
	case n <= 15:
		w.put(byte(fixmapMask | n))
	case n <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		w.put(tagMap16, b[0], b[1])
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		w.put(tagMap32, b[0], b[1], b[2], b[3])
	}
	return w
}

// Reader unpacks values from a fixed buffer (ordinarily a process's comm
// page), sticky-erroring like MPackReader once any read fails.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader wraps buf for reading from its start.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.buf) {
		r.fail(ErrEOF)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) byte() (byte, bool) {
	b := r.take(1)
	if b == nil {
		return 0, false
	}
	return b[0], true
}

// ReadNil consumes a nil token.
func (r *Reader) ReadNil() bool {
	b, ok := r.byte()
	if !ok {
		return false
	}
	if b != tagNil {
		r.fail(ErrUnexpectedType)
		return false
	}
	return true
}

// ReadBool consumes a boolean token.
func (r *Reader) ReadBool() (bool, bool) {
	b, ok := r.byte()
	if !ok {
		return false, false
	}
	switch b {
	case tagTrue:
		return true, true
	case tagFalse:
		return false, true
	default:
		r.fail(ErrUnexpectedType)
		return false, false
	}
}

// ReadInt consumes a signed or unsigned integer token, returning it widened
// to int64 (mirroring the original read_int's "accept both SINT and UINT"
// leniency for positive values packed as uint).
func (r *Reader) ReadInt() (int64, bool) {
	b, ok := r.byte()
	if !ok {
		return 0, false
	}
	switch {
	case b <= fixintMaxPos:
		return int64(b), true
	case b >= fixintMinNeg:
		return int64(int8(b)), true
	}
	switch b {
	case tagUint8:
		v, ok := r.byte()
		return int64(v), ok
	case tagUint16:
		h := r.take(2)
		if h == nil {
			return 0, false
		}
		return int64(binary.BigEndian.Uint16(h)), true
	case tagUint32:
		h := r.take(4)
		if h == nil {
			return 0, false
		}
		return int64(binary.BigEndian.Uint32(h)), true
	case tagUint64:
		h := r.take(8)
		if h == nil {
			return 0, false
		}
		return int64(binary.BigEndian.Uint64(h)), true
	case tagInt8:
		v, ok := r.byte()
		return int64(int8(v)), ok
	case tagInt16:
		h := r.take(2)
		if h == nil {
			return 0, false
		}
		return int64(int16(binary.BigEndian.Uint16(h))), true
	case tagInt32:
		h := r.take(4)
		if h == nil {
			return 0, false
		}
		return int64(int32(binary.BigEndian.Uint32(h))), true
	case tagInt64:
		h := r.take(8)
		if h == nil {
			return 0, false
		}
		return int64(binary.BigEndian.Uint64(h)), true
	default:
		r.fail(ErrUnexpectedType)
		return 0, false
	}
}

// ReadString consumes a str token and returns its contents.
func (r *Reader) ReadString() (string, bool) {
	b, ok := r.byte()
	if !ok {
		return "", false
	}
	var n int
	switch {
	case b&0xe0 == fixstrMask:
		n = int(b & 0x1f)
	case b == tagStr8:
		v, ok := r.byte()
		if !ok {
			return "", false
		}
		n = int(v)
	case b == tagStr16:
		h := r.take(2)
		if h == nil {
			return "", false
		}
		n = int(binary.BigEndian.Uint16(h))
	case b == tagStr32:
		h := r.take(4)
		if h == nil {
			return "", false
		}
		n = int(binary.BigEndian.Uint32(h))
	default:
		r.fail(ErrUnexpectedType)
		return "", false
	}
	data := r.take(n)
	if data == nil {
		return "", false
	}
	return string(data), true
}

// ReadBin consumes a bin token and returns its contents.
func (r *Reader) ReadBin() ([]byte, bool) {
	b, ok := r.byte()
	if !ok {
		return nil, false
	}
	var n int
	switch b {
	case tagBin8:
		v, ok := r.byte()
		if !ok {
			return nil, false
		}
		n = int(v)
	case tagBin16:
		h := r.take(2)
		if h == nil {
			return nil, false
		}
		n = int(binary.BigEndian.Uint16(h))
	case tagBin32:
		h := r.take(4)
		if h == nil {
			return nil, false
		}
		n = int(binary.BigEndian.Uint32(h))
	default:
		r.fail(ErrUnexpectedType)
		return nil, false
	}
	data := r.take(n)
	if data == nil {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, data)
	return out, true
}

// EnterArray consumes an array header and returns its element count.
func (r *Reader) EnterArray() (int, bool) {
	b, ok := r.byte()
	if !ok {
		return 0, false
	}
	switch {
	case b&0xf0 == fixarrayMask:
		return int(b & 0x0f), true
	case b == tagArray16:
		h := r.take(2)
		if h == nil {
			return 0, false
		}
		return int(binary.BigEndian.Uint16(h)), true
	case b == tagArray32:
		h := r.take(4)
		if h == nil {
			return 0, false
		}
		return int(binary.BigEndian.Uint32(h)), true
	default:
		r.fail(ErrUnexpectedType)
		return 0, false
	}
}

// EnterMap consumes a map header and returns its pair count.
func (r *Reader) EnterMap() (int, bool) {
	b, ok := r.byte()
	if !ok {
		return 0, false
	}
	switch {
	case b&0xf0 == fixmapMask:
		return int(b & 0x0f), true
	case b == tagMap16:
		h := r.take(2)
		if h == nil {
			return 0, false
		}
		return int(binary.BigEndian.Uint16(h)), true
	case b == tagMap32:
		h := r.take(4)
		if h == nil {
			return 0, false
		}
		return int(binary.BigEndian.Uint32(h)), true
	default:
		r.fail(ErrUnexpectedType)
		return 0, false
	}
}
