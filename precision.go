package xcf

import "fmt"

// NumberFormat is the sample encoding of a precision.
type NumberFormat int

const (
	// IntegerFormat stores unsigned integer samples.
	IntegerFormat NumberFormat = iota
	// FloatFormat stores IEEE floating point samples.
	FloatFormat
)

// Precision describes how pixel samples are stored.
type Precision struct {
	Bits   int
	Gamma  bool
	Format NumberFormat
}

// DefaultPrecision is the only precision of documents older than version 4.
var DefaultPrecision = Precision{Bits: 8, Gamma: true, Format: IntegerFormat}

func (p Precision) String() string {
	curve := "linear"
	if p.Gamma {
		curve = "gamma"
	}
	format := "integer"
	if p.Format == FloatFormat {
		format = "float"
	}
	return fmt.Sprintf("%d-bit %s %s", p.Bits, curve, format)
}

// RequiredVersion returns the lowest format version able to store p.
func (p Precision) RequiredVersion() int {
	switch {
	case p == DefaultPrecision:
		return 0
	case p.Bits == 64:
		return 7
	default:
		return 4
	}
}

type precisionCode struct {
	code uint32
	p    Precision
}

// Version 4 stored a bare enum index.
var precisionV4 = []precisionCode{
	{0, Precision{8, true, IntegerFormat}},
	{1, Precision{16, true, IntegerFormat}},
	{2, Precision{32, false, IntegerFormat}},
	{3, Precision{16, false, FloatFormat}},
	{4, Precision{32, false, FloatFormat}},
}

// Versions 5 and 6 are development formats; decode only.
var precisionV5 = []precisionCode{
	{100, Precision{8, false, IntegerFormat}},
	{150, Precision{8, true, IntegerFormat}},
	{200, Precision{16, false, IntegerFormat}},
	{250, Precision{16, true, IntegerFormat}},
	{300, Precision{32, false, IntegerFormat}},
	{350, Precision{32, true, IntegerFormat}},
	{400, Precision{16, false, FloatFormat}},
	{450, Precision{16, true, FloatFormat}},
	{500, Precision{32, false, FloatFormat}},
	{550, Precision{32, true, FloatFormat}},
}

var precisionV7 = []precisionCode{
	{100, Precision{8, false, IntegerFormat}},
	{150, Precision{8, true, IntegerFormat}},
	{200, Precision{16, false, IntegerFormat}},
	{250, Precision{16, true, IntegerFormat}},
	{300, Precision{32, false, IntegerFormat}},
	{350, Precision{32, true, IntegerFormat}},
	{500, Precision{16, false, FloatFormat}},
	{550, Precision{16, true, FloatFormat}},
	{600, Precision{32, false, FloatFormat}},
	{650, Precision{32, true, FloatFormat}},
	{700, Precision{64, false, FloatFormat}},
	{750, Precision{64, true, FloatFormat}},
}

func precisionTable(version int) []precisionCode {
	switch {
	case version == 4:
		return precisionV4
	case version == 5 || version == 6:
		return precisionV5
	default:
		return precisionV7
	}
}

// decodePrecision reads the precision field; versions below 4 have none.
func decodePrecision(r *reader, version int) (Precision, error) {
	if version < 4 {
		return DefaultPrecision, nil
	}
	code, err := r.u32()
	if err != nil {
		return Precision{}, err
	}
	for _, c := range precisionTable(version) {
		if c.code == code {
			return c.p, nil
		}
	}
	return Precision{}, fmt.Errorf("%w: code %d for version %d", ErrIllegalPrecision, code, version)
}

// encodePrecision writes p for version, failing when the version cannot represent it.
func encodePrecision(w *writer, p Precision, version int) error {
	if version < 4 {
		if p != DefaultPrecision {
			return fmt.Errorf("%w: %s for version %d", ErrIllegalPrecision, p, version)
		}
		return nil
	}
	if version == 5 || version == 6 {
		return fmt.Errorf("%w: cannot encode precision for development version %d", ErrUnsupportedVersion, version)
	}
	for _, c := range precisionTable(version) {
		if c.p == p {
			w.u32(c.code)
			return nil
		}
	}
	return fmt.Errorf("%w: %s for version %d", ErrIllegalPrecision, p, version)
}
