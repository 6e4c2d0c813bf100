package xcf

import (
	"fmt"
	"image"
	"image/color"
)

// Layer is one entry of the document layer stack. Group layers carry no
// pixels of their own; their children follow them in storage order.
type Layer struct {
	Width  int
	Height int
	Type   LayerType
	Name   string
	Properties

	// Mask is the layer mask, nil when the layer has none.
	Mask *Channel

	colormap []color.RGBA
	pixels   pixels
}

// NewLayer builds a visible, fully opaque layer from img. Gray images give a
// gray layer, anything else an RGBA layer. The image bounds origin becomes
// the layer offset.
func NewLayer(name string, img image.Image) (*Layer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}

	l := &Layer{Width: b.Dx(), Height: b.Dy(), Name: name, Properties: defaultProperties()}
	l.Visible = true
	l.XOffset, l.YOffset = int32(b.Min.X), int32(b.Min.Y)
	if _, ok := img.(*image.Gray); ok {
		l.Type = GrayImage
		l.pixels = resolvedPixels(toGray(img))
	} else {
		l.Type = RGBAImage
		l.pixels = resolvedPixels(toNRGBA(img))
	}
	return l, nil
}

func decodeLayer(r *reader, src *source) (*Layer, error) {
	w32, err := r.u32()
	if err != nil {
		return nil, err
	}
	h32, err := r.u32()
	if err != nil {
		return nil, err
	}
	typ, err := r.u32()
	if err != nil {
		return nil, err
	}
	l := &Layer{Type: LayerType(typ), Properties: defaultProperties(), colormap: src.colormap}
	if !l.Type.valid() {
		return nil, fmt.Errorf("%w: layer type %d", ErrInvalidColorMode, typ)
	}
	if l.Width, err = dimension(w32, "layer width"); err != nil {
		return nil, err
	}
	if l.Height, err = dimension(h32, "layer height"); err != nil {
		return nil, err
	}
	if err := area(l.Width, l.Height, "layer"); err != nil {
		return nil, err
	}
	if l.Name, err = r.str(); err != nil {
		return nil, err
	}
	if err := decodeProperties(r, &l.Properties); err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.Name, err)
	}
	hptr, err := r.pointer()
	if err != nil {
		return nil, err
	}
	mptr, err := r.pointer()
	if err != nil {
		return nil, err
	}
	l.pixels = pixels{src: src, ptr: hptr}

	if mptr != 0 {
		mr, err := r.at(mptr)
		if err != nil {
			return nil, err
		}
		if l.Mask, err = decodeChannel(mr, src); err != nil {
			return nil, fmt.Errorf("layer %q mask: %w", l.Name, err)
		}
		if l.Mask.Width != l.Width || l.Mask.Height != l.Height {
			return nil, fmt.Errorf("%w: layer %q is %dx%d, mask %dx%d",
				ErrSizeMismatch, l.Name, l.Width, l.Height, l.Mask.Width, l.Mask.Height)
		}
	}
	return l, nil
}

// Image returns the layer raster, decoding it on first use: *image.NRGBA
// for RGB, RGBA, GrayA and IndexedA layers, *image.Gray for Gray layers and
// *image.Paletted for Indexed layers. A layer without pixel data yields a
// blank raster of its size.
func (l *Layer) Image() (image.Image, error) {
	img, err := l.pixels.resolve(func() (int, int) { return l.Width, l.Height },
		func(pix []byte, bpp int) (image.Image, error) {
			if bpp != l.Type.BytesPerPixel() {
				return nil, corruptf("%s layer with %d bytes per pixel", l.Type, bpp)
			}
			return layerImage(pix, l.Width, l.Height, l.Type, l.colormap)
		},
		func() image.Image { return blankImage(l.Width, l.Height, l.Type, l.colormap) },
	)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.Name, err)
	}
	return img, nil
}

// SetImage replaces the layer pixels. The layer size follows img; the mask,
// if any, must still match it. Size, type and pixels change together with
// respect to Image; other readers of Width, Height and Type must not run
// concurrently with SetImage.
func (l *Layer) SetImage(img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}
	if l.Mask != nil && (l.Mask.Width != b.Dx() || l.Mask.Height != b.Dy()) {
		return fmt.Errorf("%w: image %dx%d, mask %dx%d", ErrSizeMismatch, b.Dx(), b.Dy(), l.Mask.Width, l.Mask.Height)
	}
	typ := RGBAImage
	var converted image.Image
	if _, ok := img.(*image.Gray); ok {
		typ, converted = GrayImage, toGray(img)
	} else {
		converted = toNRGBA(img)
	}
	l.pixels.replace(converted, func() {
		l.Width, l.Height, l.Type = b.Dx(), b.Dy(), typ
	})
	return nil
}

// Hierarchy returns the decoded pixel hierarchy, or nil before Image is
// called or for layers built in memory.
func (l *Layer) Hierarchy() *Hierarchy { return l.pixels.decodedHierarchy() }

// Offset returns the layer position on the canvas.
func (l *Layer) Offset() image.Point { return image.Pt(int(l.XOffset), int(l.YOffset)) }

// materialize decodes the layer and its mask.
func (l *Layer) materialize() error {
	if _, err := l.Image(); err != nil {
		return err
	}
	if l.Mask != nil {
		if _, err := l.Mask.Image(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Layer) String() string {
	kind := l.Type.String()
	if l.IsGroup {
		kind = "group"
	}
	return fmt.Sprintf("Layer %q %s %dx%d+%d+%d opacity=%.2f mode=%s visible=%t mask=%t",
		l.Name, kind, l.Width, l.Height, l.XOffset, l.YOffset, l.Opacity, l.Mode, l.Visible, l.Mask != nil)
}

// encodeLayer writes the layer header, its hierarchy and its mask.
func encodeLayer(w *writer, l *Layer, mode Compression) error {
	img, err := l.Image()
	if err != nil {
		return err
	}
	pix, err := layerPixels(img, l.Type, l.colormap)
	if err != nil {
		return fmt.Errorf("layer %q: %w", l.Name, err)
	}

	w.u32(u32FromInt(l.Width))
	w.u32(u32FromInt(l.Height))
	w.u32(uint32(l.Type))
	w.str(l.Name)
	encodeProperties(w, &l.Properties)
	hslot := w.reserve()
	mslot := w.reserve()

	w.patchPointer(hslot, uint64(w.len()))
	if err := encodeHierarchy(w, pix, l.Width, l.Height, l.Type.BytesPerPixel(), mode); err != nil {
		return fmt.Errorf("layer %q: %w", l.Name, err)
	}
	if l.Mask != nil {
		w.patchPointer(mslot, uint64(w.len()))
		if err := encodeChannel(w, l.Mask, mode); err != nil {
			return fmt.Errorf("layer %q mask: %w", l.Name, err)
		}
	}
	return nil
}
