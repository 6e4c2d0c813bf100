package xcf

import (
	"fmt"
	"math"
)

// BlendMode is a GIMP layer mode id as stored in PROP_MODE.
type BlendMode uint32

// Layer modes with a dedicated blend function. Ids 0..22 are the legacy
// modes, 23 and up the modes introduced with GIMP 2.10.
const (
	ModeNormalLegacy       BlendMode = 0
	ModeDissolve           BlendMode = 1
	ModeMultiplyLegacy     BlendMode = 3
	ModeScreenLegacy       BlendMode = 4
	ModeOverlayLegacy      BlendMode = 5
	ModeDifferenceLegacy   BlendMode = 6
	ModeAdditionLegacy     BlendMode = 7
	ModeSubtractLegacy     BlendMode = 8
	ModeDarkenOnlyLegacy   BlendMode = 9
	ModeLightenOnlyLegacy  BlendMode = 10
	ModeHueLegacy          BlendMode = 11
	ModeSaturationLegacy   BlendMode = 12
	ModeColorLegacy        BlendMode = 13
	ModeValueLegacy        BlendMode = 14
	ModeDivideLegacy       BlendMode = 15
	ModeDodgeLegacy        BlendMode = 16
	ModeBurnLegacy         BlendMode = 17
	ModeHardlightLegacy    BlendMode = 18
	ModeSoftlightLegacy    BlendMode = 19
	ModeGrainExtractLegacy BlendMode = 20
	ModeGrainMergeLegacy   BlendMode = 21
	ModeOverlay            BlendMode = 23
	ModeNormal             BlendMode = 28
	ModeMultiply           BlendMode = 30
	ModeScreen             BlendMode = 31
	ModeDifference         BlendMode = 32
	ModeAddition           BlendMode = 33
	ModeDarkenOnly         BlendMode = 35
	ModeLightenOnly        BlendMode = 36
	ModeGrainExtract       BlendMode = 46
	ModeGrainMerge         BlendMode = 47
	ModeVividLight         BlendMode = 48
	ModePinLight           BlendMode = 49
	ModeLinearLight        BlendMode = 50
	ModeHardMix            BlendMode = 51
	ModeExclusion          BlendMode = 52
	ModeLinearBurn         BlendMode = 53
	ModePassThrough        BlendMode = 61
)

var blendModeNames = [...]string{
	"normal-legacy", "dissolve", "behind-legacy", "multiply-legacy", "screen-legacy",
	"overlay-legacy", "difference-legacy", "addition-legacy", "subtract-legacy", "darken-only-legacy",
	"lighten-only-legacy", "hsv-hue-legacy", "hsv-saturation-legacy", "hsl-color-legacy", "hsv-value-legacy",
	"divide-legacy", "dodge-legacy", "burn-legacy", "hardlight-legacy", "softlight-legacy",
	"grain-extract-legacy", "grain-merge-legacy", "color-erase-legacy", "overlay", "lch-hue",
	"lch-chroma", "lch-color", "lch-lightness", "normal", "behind",
	"multiply", "screen", "difference", "addition", "subtract",
	"darken-only", "lighten-only", "hsv-hue", "hsv-saturation", "hsl-color",
	"hsv-value", "divide", "dodge", "burn", "hardlight",
	"softlight", "grain-extract", "grain-merge", "vivid-light", "pin-light",
	"linear-light", "hard-mix", "exclusion", "linear-burn", "luma-darken-only",
	"luma-lighten-only", "luminance", "color-erase", "erase", "merge",
	"split", "pass-through",
}

func (m BlendMode) String() string {
	if int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// blendFunc mixes a backdrop and a source color, channels in [0,1].
type blendFunc func(b, f [3]float64) [3]float64

func separable(fn func(b, f float64) float64) blendFunc {
	return func(b, f [3]float64) [3]float64 {
		return [3]float64{fn(b[0], f[0]), fn(b[1], f[1]), fn(b[2], f[2])}
	}
}

var (
	blendNormal     = separable(func(_, f float64) float64 { return f })
	blendMultiply   = separable(func(b, f float64) float64 { return b * f })
	blendScreen     = separable(screen)
	blendOverlay    = separable(func(b, f float64) float64 { return hardLight(f, b) })
	blendDifference = separable(func(b, f float64) float64 { return math.Abs(b - f) })
	blendAddition   = separable(func(b, f float64) float64 { return clamp01(b + f) })
	blendNegation   = separable(func(b, f float64) float64 { return 1 - math.Abs(1-b-f) })
	blendDarken     = separable(math.Min)
	blendLighten    = separable(math.Max)
	blendDivide     = separable(divide)
	blendDodge      = separable(dodge)
	blendBurn       = separable(burn)
	blendHardLight  = separable(hardLight)
	blendSoftLight  = separable(softLight)
	blendGrainExtr  = separable(func(b, f float64) float64 { return clamp01(b - f + 0.5) })
	blendGrainMerge = separable(func(b, f float64) float64 { return clamp01(b + f - 0.5) })
	blendVivid      = separable(vividLight)
	blendPin        = separable(pinLight)
	blendLinear     = separable(func(b, f float64) float64 { return clamp01(b + 2*f - 1) })
	blendHardMix    = separable(hardMix)
	blendExclusion  = separable(func(b, f float64) float64 { return b + f - 2*b*f })
	blendLinearBurn = separable(func(b, f float64) float64 { return clamp01(b + f - 1) })

	blendHue        blendFunc = func(b, f [3]float64) [3]float64 { return setLum(setSat(f, sat(b)), lum(b)) }
	blendSaturation blendFunc = func(b, f [3]float64) [3]float64 { return setLum(setSat(b, sat(f)), lum(b)) }
	blendColor      blendFunc = func(b, f [3]float64) [3]float64 { return setLum(f, lum(b)) }
	blendLuminosity blendFunc = func(b, f [3]float64) [3]float64 { return setLum(b, lum(f)) }
)

var blendTable = map[BlendMode]blendFunc{
	0: blendNormal, 28: blendNormal, 61: blendNormal,
	3: blendMultiply, 30: blendMultiply,
	4: blendScreen, 31: blendScreen,
	5: blendOverlay, 23: blendOverlay,
	6: blendDifference, 32: blendDifference,
	7: blendAddition, 33: blendAddition,
	8: blendNegation, 34: blendNegation,
	9: blendDarken, 35: blendDarken,
	10: blendLighten, 36: blendLighten,
	11: blendHue, 24: blendHue, 37: blendHue,
	12: blendSaturation, 25: blendSaturation, 38: blendSaturation,
	13: blendColor, 26: blendColor, 39: blendColor,
	14: blendLuminosity, 27: blendLuminosity, 40: blendLuminosity,
	15: blendDivide, 41: blendDivide,
	16: blendDodge, 42: blendDodge,
	17: blendBurn, 43: blendBurn,
	18: blendHardLight, 44: blendHardLight,
	19: blendSoftLight, 45: blendSoftLight,
	20: blendGrainExtr, 46: blendGrainExtr,
	21: blendGrainMerge, 47: blendGrainMerge,
	48: blendVivid,
	49: blendPin,
	50: blendLinear,
	51: blendHardMix,
	52: blendExclusion,
	53: blendLinearBurn,
}

// lookupBlend returns the blend function of m. Unsupported modes blend as
// normal and log a warning.
func lookupBlend(m BlendMode, layer string) blendFunc {
	if fn, ok := blendTable[m]; ok {
		return fn
	}
	logger().Warn("unsupported blend mode, using normal", "layer", layer, "mode", m.String(), "id", uint32(m))
	return blendNormal
}

func screen(b, f float64) float64 { return b + f - b*f }

func hardLight(b, f float64) float64 {
	if f <= 0.5 {
		return b * 2 * f
	}
	return screen(b, 2*f-1)
}

func softLight(b, f float64) float64 {
	if f <= 0.5 {
		return b - (1-2*f)*b*(1-b)
	}
	var d float64
	if b <= 0.25 {
		d = ((16*b-12)*b + 4) * b
	} else {
		d = math.Sqrt(b)
	}
	return b + (2*f-1)*(d-b)
}

func divide(b, f float64) float64 {
	if f == 0 {
		if b == 0 {
			return 0
		}
		return 1
	}
	return clamp01(b / f)
}

func dodge(b, f float64) float64 {
	switch {
	case b == 0:
		return 0
	case f >= 1:
		return 1
	default:
		return math.Min(1, b/(1-f))
	}
}

func burn(b, f float64) float64 {
	switch {
	case b >= 1:
		return 1
	case f <= 0:
		return 0
	default:
		return 1 - math.Min(1, (1-b)/f)
	}
}

func vividLight(b, f float64) float64 {
	if f <= 0.5 {
		return burn(b, 2*f)
	}
	return dodge(b, 2*(f-0.5))
}

func pinLight(b, f float64) float64 {
	if f <= 0.5 {
		return math.Min(b, 2*f)
	}
	return math.Max(b, 2*f-1)
}

func hardMix(b, f float64) float64 {
	if b+f >= 1 {
		return 1
	}
	return 0
}

func lum(c [3]float64) float64 { return 0.3*c[0] + 0.59*c[1] + 0.11*c[2] }

func clipColor(c [3]float64) [3]float64 {
	l := lum(c)
	n := math.Min(c[0], math.Min(c[1], c[2]))
	x := math.Max(c[0], math.Max(c[1], c[2]))
	for i := range c {
		if n < 0 {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
		if x > 1 {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

func setLum(c [3]float64, l float64) [3]float64 {
	d := l - lum(c)
	return clipColor([3]float64{c[0] + d, c[1] + d, c[2] + d})
}

func sat(c [3]float64) float64 {
	return math.Max(c[0], math.Max(c[1], c[2])) - math.Min(c[0], math.Min(c[1], c[2]))
}

func setSat(c [3]float64, s float64) [3]float64 {
	hi, mid, lo := 0, 1, 2
	if c[mid] > c[hi] {
		hi, mid = mid, hi
	}
	if c[lo] > c[mid] {
		mid, lo = lo, mid
	}
	if c[mid] > c[hi] {
		hi, mid = mid, hi
	}
	var out [3]float64
	if c[hi] > c[lo] {
		out[mid] = (c[mid] - c[lo]) * s / (c[hi] - c[lo])
		out[hi] = s
	}
	return out
}
