package xcf

import (
	"math"
	"testing"
)

func TestBlendModeNames(t *testing.T) {
	t.Parallel()

	if len(blendModeNames) != 62 {
		t.Fatalf("%d mode names", len(blendModeNames))
	}
	tests := map[BlendMode]string{
		ModeNormalLegacy: "normal-legacy",
		ModeOverlay:      "overlay",
		ModeNormal:       "normal",
		ModeLinearBurn:   "linear-burn",
		ModePassThrough:  "pass-through",
		BlendMode(62):    "mode(62)",
	}
	for m, want := range tests {
		if got := m.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", uint32(m), got, want)
		}
	}
}

func TestBlendFunctions(t *testing.T) {
	t.Parallel()

	near := func(a, b [3]float64) bool {
		for i := range a {
			if math.Abs(a[i]-b[i]) > 1e-9 {
				return false
			}
		}
		return true
	}
	gray := [3]float64{0.5, 0.5, 0.5}
	red := [3]float64{1, 0, 0}

	tests := []struct {
		name string
		fn   blendFunc
		b, f [3]float64
		want [3]float64
	}{
		{"overlay dark backdrop", blendOverlay, [3]float64{0.25, 0.25, 0.25}, gray, [3]float64{0.25, 0.25, 0.25}},
		{"dodge", blendDodge, gray, gray, [3]float64{1, 1, 1}},
		{"burn", blendBurn, gray, gray, [3]float64{0, 0, 0}},
		{"grain extract", blendGrainExtr, gray, gray, gray},
		{"grain merge", blendGrainMerge, gray, gray, gray},
		{"hard mix", blendHardMix, gray, gray, [3]float64{1, 1, 1}},
		{"divide by zero", blendDivide, gray, [3]float64{}, [3]float64{1, 1, 1}},
		{"color keeps backdrop luminance", blendColor, gray, red, setLum(red, 0.5)},
		{"luminosity of gray source", blendLuminosity, red, gray, setLum(red, 0.5)},
		{"saturation of gray source", blendSaturation, red, gray, [3]float64{0.3, 0.3, 0.3}},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.b, tt.f); !near(got, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	if got := lum(setLum(red, 0.5)); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("setLum keeps luminance: %v", got)
	}
}

func TestBlendTableCoversLookup(t *testing.T) {
	t.Parallel()

	for _, id := range []BlendMode{0, 3, 23, 28, 41, 48, 53, 61} {
		if _, ok := blendTable[id]; !ok {
			t.Fatalf("mode %s missing", id)
		}
	}
	for _, id := range []BlendMode{1, 2, 22, 29, 54, 60, 99} {
		if _, ok := blendTable[id]; ok {
			t.Fatalf("mode %s should fall back", id)
		}
	}
}
