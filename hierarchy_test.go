package xcf

import (
	"bytes"
	"errors"
	"testing"
)

func TestTileGridCoverage(t *testing.T) {
	t.Parallel()

	for _, size := range [][2]int{{1, 1}, {64, 64}, {65, 64}, {130, 70}, {200, 1}} {
		w, h := size[0], size[1]
		grid := tileGrid(w, h)
		cols, rows := (w+63)/64, (h+63)/64
		if len(grid) != cols*rows {
			t.Fatalf("%dx%d: %d tiles, want %d", w, h, len(grid), cols*rows)
		}
		area := 0
		for i, r := range grid {
			wantW := min(64, w-r.Min.X)
			wantH := min(64, h-r.Min.Y)
			if r.Dx() != wantW || r.Dy() != wantH {
				t.Fatalf("%dx%d tile %d is %v", w, h, i, r)
			}
			if i > 0 && r.Min.Y == grid[i-1].Min.Y && r.Min.X <= grid[i-1].Min.X {
				t.Fatalf("%dx%d tile %d out of row-major order", w, h, i)
			}
			area += r.Dx() * r.Dy()
		}
		if area != w*h {
			t.Fatalf("%dx%d: tiles cover %d pixels", w, h, area)
		}
	}
}

func TestHierarchyRoundTrip(t *testing.T) {
	t.Parallel()

	const width, height = 130, 70
	for _, mode := range []Compression{CompressionNone, CompressionRLE, CompressionZlib} {
		for bpp := 1; bpp <= 4; bpp++ {
			pix := make([]byte, width*height*bpp)
			for i := range pix {
				pix[i] = byte(i/7 + i%bpp)
			}
			w := newWriter(32)
			if err := encodeHierarchy(w, pix, width, height, bpp, mode); err != nil {
				t.Fatalf("%s bpp %d encode: %v", mode, bpp, err)
			}
			h, got, err := decodeHierarchy(newReader(w.Bytes(), 32), mode, width, height)
			if err != nil {
				t.Fatalf("%s bpp %d decode: %v", mode, bpp, err)
			}
			if !bytes.Equal(got, pix) {
				t.Fatalf("%s bpp %d: pixel mismatch", mode, bpp)
			}
			if h.BytesPerPixel != bpp || len(h.Level.Tiles) != 6 {
				t.Fatalf("%s bpp %d: hierarchy %+v", mode, bpp, h)
			}
		}
	}
}

func TestHierarchyAllZeroRLE(t *testing.T) {
	t.Parallel()

	w := newWriter(32)
	if err := encodeHierarchy(w, make([]byte, 40*30), 40, 30, 1, CompressionRLE); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, pix, err := decodeHierarchy(newReader(w.Bytes(), 32), CompressionRLE, 40, 30)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pix) != 40*30 || !bytes.Equal(pix, make([]byte, 40*30)) {
		t.Fatalf("decoded %d non-zero bytes", len(pix))
	}
}

func TestHierarchyErrors(t *testing.T) {
	t.Parallel()

	header := func(w, h, bpp uint32) *writer {
		out := newWriter(32)
		out.u32(w)
		out.u32(h)
		out.u32(bpp)
		return out
	}

	badBPP := header(4, 4, 5)

	noLevels := header(4, 4, 1)
	noLevels.pointer(0)

	levelMismatch := header(4, 4, 1)
	slot := levelMismatch.reserve()
	levelMismatch.pointer(0)
	levelMismatch.patchPointer(slot, uint64(levelMismatch.len()))
	levelMismatch.u32(5)
	levelMismatch.u32(4)

	noSentinel := header(4, 4, 1)
	slot = noSentinel.reserve()
	noSentinel.pointer(0)
	noSentinel.patchPointer(slot, uint64(noSentinel.len()))
	noSentinel.u32(4)
	noSentinel.u32(4)
	noSentinel.pointer(100)

	tooFew := header(100, 4, 1)
	slot = tooFew.reserve()
	tooFew.pointer(0)
	tooFew.patchPointer(slot, uint64(tooFew.len()))
	tooFew.u32(100)
	tooFew.u32(4)
	tooFew.pointer(4)
	tooFew.pointer(0)

	tests := []struct {
		name string
		data []byte
		w, h int
		want error
	}{
		{"bpp", badBPP.Bytes(), 4, 4, ErrCorruptImageData},
		{"owner size", header(4, 4, 1).Bytes(), 8, 4, ErrSizeMismatch},
		{"no levels", noLevels.Bytes(), 4, 4, ErrCorruptImageData},
		{"level size", levelMismatch.Bytes(), 4, 4, ErrSizeMismatch},
		{"tile list without sentinel", noSentinel.Bytes(), 4, 4, ErrTruncatedData},
		{"missing tiles", tooFew.Bytes(), 100, 4, ErrCorruptImageData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := decodeHierarchy(newReader(tt.data, 32), CompressionNone, tt.w, tt.h)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
