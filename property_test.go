package xcf

import (
	"errors"
	"image/color"
	"reflect"
	"testing"
)

func TestPropertiesRoundTrip(t *testing.T) {
	t.Parallel()

	want := defaultProperties()
	want.ColorMap = []color.RGBA{{R: 1, G: 2, B: 3, A: 0xff}, {R: 250, G: 251, B: 252, A: 0xff}}
	want.ActiveLayer = true
	want.ActiveChannel = true
	want.Selection = true
	want.FloatingSelection = 0x400
	want.Opacity = 0.5
	want.Mode = ModeMultiply
	want.Visible = true
	want.Linked = true
	want.LockAlpha = true
	want.ApplyMask = true
	want.EditMask = true
	want.ShowMask = true
	want.ShowMasked = true
	want.XOffset, want.YOffset = -12, 34
	want.Color = &[3]uint8{9, 8, 7}
	want.Compression = CompressionZlib
	want.Guides = []Guide{{Position: 10, Orientation: GuideHorizontal}, {Position: 20, Orientation: GuideVertical}}
	want.Resolution = &Resolution{X: 72, Y: 300}
	want.Tattoo = 77
	want.Parasites = []Parasite{{Name: ParasiteComment, Flags: 1, Data: []byte("hello\x00")}}
	want.Unit = UnitMillimeters
	want.LegacyPaths = []byte{0, 0, 0, 1, 2, 3}
	want.UserUnit = &UserUnit{Factor: 2.5, Digits: 2, ID: "cubit", Symbol: "cb", Abbrev: "cb", Singular: "cubit", Plural: "cubits"}
	want.Vectors = &Vectors{Version: 1, Active: 0, Paths: []Path{{
		Name: "outline", Tattoo: 3, Visible: true,
		Strokes: []Stroke{{Type: StrokeBezier, Closed: true, FloatsPerPoint: 2, Points: []Point{
			{Type: PointAnchor, X: 1, Y: 2, Pressure: 1, XTilt: 0.5, YTilt: 0.5, Wheel: 0.5},
			{Type: PointControl, X: 3, Y: 4, Pressure: 1, XTilt: 0.5, YTilt: 0.5, Wheel: 0.5},
		}}},
	}}}
	want.TextLayerFlags = 2
	want.LockContent = true
	want.IsGroup = true
	want.ItemPath = []uint32{1, 0, 2}
	want.GroupItemFlags = 1
	want.LockPosition = true
	want.ColorTag = TagViolet
	want.CompositeMode = -1
	want.CompositeSpace = 2
	want.BlendSpace = 1
	want.FloatColor = &[3]float32{0.25, 0.5, 1}
	want.SamplePoints = []SamplePoint{{X: 5, Y: 6, PickMode: 1}}

	for _, bits := range []int{32, 64} {
		w := newWriter(bits)
		encodeProperties(w, &want)

		got := defaultProperties()
		r := newReader(w.Bytes(), bits)
		if err := decodeProperties(r, &got); err != nil {
			t.Fatalf("decodeProperties(%d): %v", bits, err)
		}
		if r.remaining() != 0 {
			t.Fatalf("%d bytes after PROP_END", r.remaining())
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch\n got %+v\nwant %+v", got, want)
		}
	}
}

func TestPropertiesDefaults(t *testing.T) {
	t.Parallel()

	w := newWriter(32)
	p := defaultProperties()
	encodeProperties(w, &p)
	if w.len() != 8 {
		t.Fatalf("default table is %d bytes, want only PROP_END", w.len())
	}

	got := defaultProperties()
	if err := decodeProperties(newReader(w.Bytes(), 32), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Visible || got.Opacity != 1 || got.Mode != 0 {
		t.Fatalf("defaults: visible=%t opacity=%v mode=%d", got.Visible, got.Opacity, got.Mode)
	}
}

func TestPropertiesLegacyEncodings(t *testing.T) {
	t.Parallel()

	w := newWriter(32)
	body := newWriter(32)
	body.u32(128)
	w.record(uint32(PropOpacity), body.Bytes())

	body = newWriter(32)
	for _, v := range []int32{1, 2, 3, 4} {
		body.i32(v)
	}
	w.record(uint32(PropOldSamplePoints), body.Bytes())
	w.record(uint32(PropEnd), nil)

	p := defaultProperties()
	if err := decodeProperties(newReader(w.Bytes(), 32), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Opacity != 128.0/255 {
		t.Fatalf("opacity = %v", p.Opacity)
	}
	want := []SamplePoint{{X: 1, Y: 2}, {X: 3, Y: 4}}
	if !reflect.DeepEqual(p.SamplePoints, want) {
		t.Fatalf("sample points = %v", p.SamplePoints)
	}
}

func TestPropertiesErrors(t *testing.T) {
	t.Parallel()

	unknown := newWriter(32)
	unknown.record(40, nil)
	unknown.record(uint32(PropEnd), nil)

	short := newWriter(32)
	short.u32(uint32(PropTattoo))
	short.u32(4)
	short.raw([]byte{0, 1})

	noEnd := newWriter(32)
	noEnd.record(uint32(PropVisible), []byte{0, 0, 0, 1})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"unknown id", unknown.Bytes(), ErrUnknownProperty},
		{"short payload", short.Bytes(), ErrTruncatedData},
		{"missing end", noEnd.Bytes(), ErrTruncatedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := defaultProperties()
			if err := decodeProperties(newReader(tt.data, 32), &p); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPropertiesHelpers(t *testing.T) {
	t.Parallel()

	p := defaultProperties()
	p.Parasites = []Parasite{{Name: ParasiteTextLayer, Data: []byte("(text)")}}
	p.ActiveChannel = true
	p.GroupItemFlags = 1

	if par, ok := p.Parasite(ParasiteTextLayer); !ok || string(par.Data) != "(text)" {
		t.Fatalf("Parasite = %v, %t", par, ok)
	}
	if _, ok := p.Parasite(ParasiteICCProfile); ok {
		t.Fatalf("unexpected icc parasite")
	}
	if !p.Selected() || !p.Expanded() {
		t.Fatalf("Selected=%t Expanded=%t", p.Selected(), p.Expanded())
	}
	if PropFloatOpacity.String() != "float-opacity" || PropertyType(99).String() != "property(99)" {
		t.Fatalf("names: %s %s", PropFloatOpacity, PropertyType(99))
	}
}
