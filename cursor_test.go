package xcf

import (
	"errors"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{32, 64} {
		w := newWriter(bits)
		w.u8(0xab)
		w.u32(0xdeadbeef)
		w.i32(-42)
		w.u64(1 << 40)
		w.f32(0.25)
		w.boolean(true)
		w.pointer(0x1234)
		w.str("layer")
		w.str("")
		w.cstring("v011")

		r := newReader(w.Bytes(), bits)
		if v, err := r.u8(); err != nil || v != 0xab {
			t.Fatalf("u8 = %#x, %v", v, err)
		}
		if v, err := r.u32(); err != nil || v != 0xdeadbeef {
			t.Fatalf("u32 = %#x, %v", v, err)
		}
		if v, err := r.i32(); err != nil || v != -42 {
			t.Fatalf("i32 = %d, %v", v, err)
		}
		if v, err := r.u64(); err != nil || v != 1<<40 {
			t.Fatalf("u64 = %d, %v", v, err)
		}
		if v, err := r.f32(); err != nil || v != 0.25 {
			t.Fatalf("f32 = %v, %v", v, err)
		}
		if v, err := r.boolean(); err != nil || !v {
			t.Fatalf("boolean = %v, %v", v, err)
		}
		if v, err := r.pointer(); err != nil || v != 0x1234 {
			t.Fatalf("pointer(%d) = %#x, %v", bits, v, err)
		}
		if v, err := r.str(); err != nil || v != "layer" {
			t.Fatalf("str = %q, %v", v, err)
		}
		if v, err := r.str(); err != nil || v != "" {
			t.Fatalf("empty str = %q, %v", v, err)
		}
		if v, err := r.cstring(); err != nil || v != "v011" {
			t.Fatalf("cstring = %q, %v", v, err)
		}
		if r.remaining() != 0 {
			t.Fatalf("%d bytes left", r.remaining())
		}
	}
}

func TestCursorPointerWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version int
		bits    int
		size    int
	}{
		{0, 32, 4},
		{10, 32, 4},
		{11, 64, 8},
		{20, 64, 8},
	}
	for _, tt := range tests {
		if got := pointerBits(tt.version); got != tt.bits {
			t.Fatalf("pointerBits(%d) = %d, want %d", tt.version, got, tt.bits)
		}
		w := newWriter(tt.bits)
		w.pointer(7)
		if w.len() != tt.size {
			t.Fatalf("version %d pointer is %d bytes, want %d", tt.version, w.len(), tt.size)
		}
	}
}

func TestCursorTruncated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		read func(*reader) error
	}{
		{"u32", []byte{1, 2, 3}, func(r *reader) error { _, err := r.u32(); return err }},
		{"u64", []byte{1, 2, 3, 4}, func(r *reader) error { _, err := r.u64(); return err }},
		{"string body", []byte{0, 0, 0, 9, 'a', 0}, func(r *reader) error { _, err := r.str(); return err }},
		{"cstring", []byte("file"), func(r *reader) error { _, err := r.cstring(); return err }},
		{"pointer list without sentinel", []byte{0, 0, 0, 8, 0, 0, 0, 9}, func(r *reader) error { _, err := r.pointerList(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.read(newReader(tt.data, 32)); !errors.Is(err, ErrTruncatedData) {
				t.Fatalf("err = %v, want ErrTruncatedData", err)
			}
		})
	}
}

func TestCursorPointerListAndPatch(t *testing.T) {
	t.Parallel()

	w := newWriter(64)
	a := w.reserve()
	b := w.reserve()
	w.pointer(0)
	w.patchPointer(a, 100)
	w.patchPointer(b, 1<<33)

	ptrs, err := newReader(w.Bytes(), 64).pointerList()
	if err != nil {
		t.Fatalf("pointerList: %v", err)
	}
	if len(ptrs) != 2 || ptrs[0] != 100 || ptrs[1] != 1<<33 {
		t.Fatalf("pointers = %v", ptrs)
	}

	if _, err := newReader(w.Bytes(), 64).at(uint64(w.len()) + 1); !errors.Is(err, ErrTruncatedData) {
		t.Fatalf("at past end: %v", err)
	}
}
