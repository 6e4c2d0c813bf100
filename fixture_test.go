package xcf

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 5), B: uint8(x ^ y), A: 0xff})
		}
	}
	return img
}

func mustLayer(t testing.TB, name string, img image.Image) *Layer {
	t.Helper()
	l, err := NewLayer(name, img)
	if err != nil {
		t.Fatalf("NewLayer(%q): %v", name, err)
	}
	return l
}

// newDocument builds an in-memory document of the given canvas.
func newDocument(version, w, h int, mode Compression, layers ...*Layer) *Document {
	d := &Document{
		Version:    version,
		Width:      w,
		Height:     h,
		BaseType:   ColorRGB,
		Precision:  DefaultPrecision,
		Properties: defaultProperties(),
		layers:     layers,
	}
	d.Compression = mode
	return d
}

// encodeDocument serializes layers into XCF bytes.
func encodeDocument(t testing.TB, d *Document) []byte {
	t.Helper()
	data, err := d.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

// roundTrip encodes d and decodes it again.
func roundTrip(t testing.TB, d *Document) *Document {
	t.Helper()
	out, err := Decode(encodeDocument(t, d))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return out
}

func mustImage(t testing.TB, l *Layer) image.Image {
	t.Helper()
	img, err := l.Image()
	if err != nil {
		t.Fatalf("Image(%q): %v", l.Name, err)
	}
	return img
}

func mustFlatten(t testing.TB, d *Document, opts *FlattenOptions) *image.NRGBA {
	t.Helper()
	img, err := d.Flatten(opts)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	return img
}

func assertUniform(t testing.TB, img *image.NRGBA, want color.NRGBA) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if got := img.NRGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}
