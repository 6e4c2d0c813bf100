package xcf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

var be = binary.BigEndian

// pointerBits returns the on-disk pointer width for a format version.
func pointerBits(version int) int {
	if version >= 11 {
		return 64
	}
	return 32
}

// reader is a bounds-checked big-endian cursor over a byte slice.
type reader struct {
	data []byte
	pos  int
	bits int
}

func newReader(data []byte, ptrBits int) *reader {
	return &reader{data: data, bits: ptrBits}
}

// at returns a reader over the same data positioned at off.
func (r *reader) at(off uint64) (*reader, error) {
	if off > uint64(len(r.data)) {
		return nil, fmt.Errorf("%w: offset %d beyond %d bytes", ErrTruncatedData, off, len(r.data))
	}
	return &reader{data: r.data, pos: int(off), bits: r.bits}, nil
}

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedData, n, r.pos, r.remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return be.Uint32(b), nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return be.Uint64(b), nil
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

// boolean reads a 32-bit flag.
func (r *reader) boolean() (bool, error) {
	v, err := r.u32()
	return v != 0, err
}

// pointer reads a 32- or 64-bit file offset depending on the version width.
func (r *reader) pointer() (uint64, error) {
	if r.bits == 64 {
		return r.u64()
	}
	v, err := r.u32()
	return uint64(v), err
}

// str reads an sz754 string: a u32 length counting the trailing NUL, then the bytes.
func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if uint64(n) > uint64(r.remaining()) {
		return "", fmt.Errorf("%w: string of %d bytes at offset %d", ErrTruncatedData, n, r.pos)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(b, []byte{0})), nil
}

// cstring reads bytes up to and including a NUL terminator.
func (r *reader) cstring() (string, error) {
	i := bytes.IndexByte(r.data[r.pos:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrTruncatedData, r.pos)
	}
	s := string(r.data[r.pos : r.pos+i])
	r.pos += i + 1
	return s, nil
}

// pointerList reads pointers until the 0 sentinel.
func (r *reader) pointerList() ([]uint64, error) {
	var ptrs []uint64
	for {
		p, err := r.pointer()
		if err != nil {
			return nil, err
		}
		if p == 0 {
			return ptrs, nil
		}
		ptrs = append(ptrs, p)
	}
}

// writer mirrors reader; positions it reports are absolute offsets in the output.
type writer struct {
	buf  bytes.Buffer
	bits int
}

func newWriter(ptrBits int) *writer {
	return &writer{bits: ptrBits}
}

func (w *writer) Bytes() []byte { return w.buf.Bytes() }

func (w *writer) len() int { return w.buf.Len() }

func (w *writer) raw(b []byte) { w.buf.Write(b) }

func (w *writer) u8(v uint8) { w.buf.WriteByte(v) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	be.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) u64(v uint64) {
	var b [8]byte
	be.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) boolean(v bool) {
	if v {
		w.u32(1)
		return
	}
	w.u32(0)
}

func (w *writer) pointer(v uint64) {
	if w.bits == 64 {
		w.u64(v)
		return
	}
	w.u32(uint32(v))
}

func (w *writer) str(s string) {
	if s == "" {
		w.u32(0)
		return
	}
	w.u32(uint32(len(s) + 1))
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

func (w *writer) cstring(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// reserve writes a zero pointer and returns its position for patchPointer.
func (w *writer) reserve() int {
	at := w.len()
	w.pointer(0)
	return at
}

// patchPointer overwrites the pointer slot at position at.
func (w *writer) patchPointer(at int, v uint64) {
	b := w.buf.Bytes()[at:]
	if w.bits == 64 {
		be.PutUint64(b, v)
		return
	}
	be.PutUint32(b, uint32(v))
}

// record writes a (type, length, payload) record.
func (w *writer) record(id uint32, payload []byte) {
	w.u32(id)
	w.u32(uint32(len(payload)))
	w.buf.Write(payload)
}
