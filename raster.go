package xcf

import (
	"fmt"
	"image"
	"image/color"
)

// LayerType is the pixel layout of a layer.
type LayerType uint32

// Layer pixel layouts.
const (
	RGBImage LayerType = iota
	RGBAImage
	GrayImage
	GrayAImage
	IndexedImage
	IndexedAImage
)

var layerTypeNames = [...]string{"RGB", "RGBA", "Gray", "GrayA", "Indexed", "IndexedA"}

func (t LayerType) String() string {
	if int(t) < len(layerTypeNames) {
		return layerTypeNames[t]
	}
	return fmt.Sprintf("LayerType(%d)", uint32(t))
}

// BytesPerPixel returns the stored sample bytes of one 8-bit pixel.
func (t LayerType) BytesPerPixel() int {
	switch t {
	case RGBImage:
		return 3
	case RGBAImage:
		return 4
	case GrayAImage, IndexedAImage:
		return 2
	default:
		return 1
	}
}

// HasAlpha reports whether the layout carries an alpha channel.
func (t LayerType) HasAlpha() bool {
	return t == RGBAImage || t == GrayAImage || t == IndexedAImage
}

func (t LayerType) valid() bool { return t <= IndexedAImage }

// ColorMode is the base color mode of a document.
type ColorMode uint32

// Base color modes.
const (
	ColorRGB ColorMode = iota
	ColorGrayscale
	ColorIndexed
)

func (m ColorMode) String() string {
	switch m {
	case ColorRGB:
		return "RGB"
	case ColorGrayscale:
		return "Grayscale"
	case ColorIndexed:
		return "Indexed"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint32(m))
	}
}

// layerImage wraps decoded pixels in the image type matching t.
func layerImage(pix []byte, w, h int, t LayerType, colormap []color.RGBA) (image.Image, error) {
	if len(pix) != w*h*t.BytesPerPixel() {
		return nil, corruptf("%s layer %dx%d with %d bytes", t, w, h, len(pix))
	}
	rect := image.Rect(0, 0, w, h)
	switch t {
	case GrayImage:
		return &image.Gray{Pix: pix, Stride: w, Rect: rect}, nil
	case IndexedImage:
		return &image.Paletted{Pix: pix, Stride: w, Rect: rect, Palette: paletteFor(colormap, pix)}, nil
	}

	img := image.NewNRGBA(rect)
	bpp := t.BytesPerPixel()
	for i, o := 0, 0; i < len(pix); i, o = i+bpp, o+4 {
		px := pix[i : i+bpp]
		d := img.Pix[o : o+4 : o+4]
		switch t {
		case RGBImage:
			d[0], d[1], d[2], d[3] = px[0], px[1], px[2], 0xff
		case RGBAImage:
			copy(d, px)
		case GrayAImage:
			d[0], d[1], d[2], d[3] = px[0], px[0], px[0], px[1]
		case IndexedAImage:
			c := colormapAt(colormap, px[0])
			d[0], d[1], d[2], d[3] = c.R, c.G, c.B, px[1]
		default:
			return nil, fmt.Errorf("%w: layer type %d", ErrInvalidColorMode, uint32(t))
		}
	}
	return img, nil
}

// blankImage returns a transparent or black raster for a layer without pixel data.
func blankImage(w, h int, t LayerType, colormap []color.RGBA) image.Image {
	img, err := layerImage(make([]byte, w*h*t.BytesPerPixel()), w, h, t, colormap)
	if err != nil {
		return image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	return img
}

func colormapAt(colormap []color.RGBA, i uint8) color.RGBA {
	if int(i) < len(colormap) {
		return colormap[i]
	}
	return color.RGBA{A: 0xff}
}

// paletteFor builds a palette covering every index used in pix.
func paletteFor(colormap []color.RGBA, pix []byte) color.Palette {
	n := len(colormap)
	for _, v := range pix {
		n = max(n, int(v)+1)
	}
	p := make(color.Palette, max(n, 1))
	for i := range p {
		p[i] = colormapAt(colormap, uint8(i))
	}
	return p
}

// layerPixels is the inverse of layerImage.
func layerPixels(img image.Image, t LayerType, colormap []color.RGBA) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}
	bpp := t.BytesPerPixel()
	out := make([]byte, 0, w*h*bpp)

	if t == GrayImage {
		g := toGray(img)
		for y := 0; y < h; y++ {
			out = append(out, g.Pix[y*g.Stride:y*g.Stride+w]...)
		}
		return out, nil
	}
	if t == IndexedImage || t == IndexedAImage {
		palette := make(color.Palette, len(colormap))
		for i, c := range colormap {
			palette[i] = c
		}
		if len(palette) == 0 {
			return nil, fmt.Errorf("%w: indexed layer without colormap", ErrInvalidColorMode)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				var idx uint8
				if p, ok := img.(*image.Paletted); ok {
					idx = p.ColorIndexAt(x, y)
				} else {
					idx = uint8(palette.Index(color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}))
				}
				out = append(out, idx)
				if t == IndexedAImage {
					out = append(out, c.A)
				}
			}
		}
		return out, nil
	}

	n := toNRGBA(img)
	for i := 0; i < len(n.Pix); i += 4 {
		px := n.Pix[i : i+4]
		switch t {
		case RGBImage:
			out = append(out, px[0], px[1], px[2])
		case RGBAImage:
			out = append(out, px...)
		case GrayAImage:
			g := color.GrayModel.Convert(color.NRGBA{R: px[0], G: px[1], B: px[2], A: 0xff}).(color.Gray)
			out = append(out, g.Y, px[3])
		default:
			return nil, fmt.Errorf("%w: layer type %d", ErrInvalidColorMode, uint32(t))
		}
	}
	return out, nil
}

// toNRGBA returns img as an origin-based *image.NRGBA, copying when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			o := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[o], out.Pix[o+1], out.Pix[o+2], out.Pix[o+3] = c.R, c.G, c.B, c.A
		}
	}
	return out
}

// toGray returns img as an origin-based *image.Gray, copying when needed.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return out
}
