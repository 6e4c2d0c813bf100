package xcf

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
)

func rlePatterns(n int) map[string][]byte {
	rng := rand.New(rand.NewPCG(1, 2))
	noise := make([]byte, n)
	for i := range noise {
		noise[i] = byte(rng.UintN(256))
	}
	runs := make([]byte, n)
	for i := range runs {
		runs[i] = byte(i / 300)
	}
	mixed := make([]byte, n)
	for i := range mixed {
		if (i/50)%2 == 0 {
			mixed[i] = 7
		} else {
			mixed[i] = byte(i * 13)
		}
	}
	return map[string][]byte{
		"zeros": make([]byte, n),
		"noise": noise,
		"runs":  runs,
		"mixed": mixed,
	}
}

func TestRLERoundTrip(t *testing.T) {
	t.Parallel()

	for bpp := 1; bpp <= 4; bpp++ {
		for name, pix := range rlePatterns(64 * 64 * bpp) {
			enc := rleEncode(pix, bpp)
			dec, err := rleDecode(enc, len(pix)/bpp, bpp)
			if err != nil {
				t.Fatalf("bpp %d %s: %v", bpp, name, err)
			}
			if !bytes.Equal(dec, pix) {
				t.Fatalf("bpp %d %s: round trip mismatch", bpp, name)
			}
		}
	}
}

func TestRLELongCounts(t *testing.T) {
	t.Parallel()

	// longer than a u16 count so runs and literals must split
	for name, pix := range rlePatterns(70000) {
		dec, err := rleDecode(rleEncode(pix, 1), len(pix), 1)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(dec, pix) {
			t.Fatalf("%s: round trip mismatch", name)
		}
	}
}

func TestRLEOpcodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   []byte
		count int
		want  []byte
	}{
		{"short run", []byte{2, 9}, 3, []byte{9, 9, 9}},
		{"long run", []byte{127, 0, 4, 5}, 4, []byte{5, 5, 5, 5}},
		{"long literal", []byte{128, 0, 3, 1, 2, 3}, 3, []byte{1, 2, 3}},
		{"short literal", []byte{254, 4, 5}, 2, []byte{4, 5}},
		{"trailing slack", []byte{0, 1, 0xff, 0xff}, 1, []byte{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := rleDecode(tt.src, tt.count, 1)
			if err != nil {
				t.Fatalf("rleDecode: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRLEErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  []byte
		want error
	}{
		{"run overflows tile", []byte{9, 1}, ErrInvalidEncoding},
		{"long literal overflows tile", []byte{128, 1, 0}, ErrInvalidEncoding},
		{"missing run byte", []byte{3}, ErrTruncatedData},
		{"missing literal bytes", []byte{252, 1}, ErrTruncatedData},
		{"empty stream", nil, ErrTruncatedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := rleDecode(tt.src, 4, 1); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
