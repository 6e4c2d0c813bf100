package xcf

import (
	"errors"
	"testing"
)

func TestPrecisionRoundTrip(t *testing.T) {
	t.Parallel()

	for _, version := range []int{4, 7, 11, 12} {
		for _, c := range precisionTable(version) {
			w := newWriter(pointerBits(version))
			if err := encodePrecision(w, c.p, version); err != nil {
				t.Fatalf("v%d encode %s: %v", version, c.p, err)
			}
			got, err := decodePrecision(newReader(w.Bytes(), 32), version)
			if err != nil {
				t.Fatalf("v%d decode %s: %v", version, c.p, err)
			}
			if got != c.p {
				t.Fatalf("v%d round trip %s -> %s", version, c.p, got)
			}
		}
	}
}

func TestPrecisionBeforeVersion4(t *testing.T) {
	t.Parallel()

	w := newWriter(32)
	if err := encodePrecision(w, DefaultPrecision, 3); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if w.len() != 0 {
		t.Fatalf("wrote %d bytes for version 3", w.len())
	}
	got, err := decodePrecision(newReader(nil, 32), 0)
	if err != nil || got != DefaultPrecision {
		t.Fatalf("decode = %s, %v", got, err)
	}

	err = encodePrecision(newWriter(32), Precision{Bits: 16, Gamma: true}, 2)
	if !errors.Is(err, ErrIllegalPrecision) {
		t.Fatalf("16-bit in version 2: %v", err)
	}
}

func TestPrecisionDevelopmentVersions(t *testing.T) {
	t.Parallel()

	w := newWriter(32)
	w.u32(450)
	got, err := decodePrecision(newReader(w.Bytes(), 32), 5)
	if err != nil {
		t.Fatalf("decode v5: %v", err)
	}
	if want := (Precision{Bits: 16, Gamma: true, Format: FloatFormat}); got != want {
		t.Fatalf("v5 code 450 = %s, want %s", got, want)
	}

	if err := encodePrecision(newWriter(32), got, 6); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("encode v6: %v", err)
	}
}

func TestPrecisionIllegal(t *testing.T) {
	t.Parallel()

	w := newWriter(32)
	w.u32(700)
	if _, err := decodePrecision(newReader(w.Bytes(), 32), 4); !errors.Is(err, ErrIllegalPrecision) {
		t.Fatalf("code 700 in v4: %v", err)
	}

	double := Precision{Bits: 64, Format: FloatFormat}
	if err := encodePrecision(newWriter(32), double, 4); !errors.Is(err, ErrIllegalPrecision) {
		t.Fatalf("64-bit float in v4: %v", err)
	}
	if double.RequiredVersion() != 7 {
		t.Fatalf("RequiredVersion = %d", double.RequiredVersion())
	}
}
