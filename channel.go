package xcf

import (
	"fmt"
	"image"
)

// Channel is a single-component raster: a document channel, a selection or
// a layer mask.
type Channel struct {
	Width  int
	Height int
	Name   string
	Properties

	pixels pixels
}

// NewChannel builds a materialized channel from img, converted to gray.
func NewChannel(name string, img image.Image) (*Channel, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}
	c := &Channel{Width: b.Dx(), Height: b.Dy(), Name: name, Properties: defaultProperties()}
	c.Visible = true
	c.pixels = resolvedPixels(toGray(img))
	return c, nil
}

func decodeChannel(r *reader, src *source) (*Channel, error) {
	w32, err := r.u32()
	if err != nil {
		return nil, err
	}
	h32, err := r.u32()
	if err != nil {
		return nil, err
	}
	c := &Channel{Properties: defaultProperties()}
	if c.Width, err = dimension(w32, "channel width"); err != nil {
		return nil, err
	}
	if c.Height, err = dimension(h32, "channel height"); err != nil {
		return nil, err
	}
	if err := area(c.Width, c.Height, "channel"); err != nil {
		return nil, err
	}
	if c.Name, err = r.str(); err != nil {
		return nil, err
	}
	if err := decodeProperties(r, &c.Properties); err != nil {
		return nil, fmt.Errorf("channel %q: %w", c.Name, err)
	}
	ptr, err := r.pointer()
	if err != nil {
		return nil, err
	}
	c.pixels = pixels{src: src, ptr: ptr}
	return c, nil
}

// Image returns the channel raster, decoding it on first use.
func (c *Channel) Image() (*image.Gray, error) {
	img, err := c.pixels.resolve(func() (int, int) { return c.Width, c.Height },
		func(pix []byte, bpp int) (image.Image, error) {
			if bpp != 1 {
				return nil, corruptf("channel %q with %d bytes per pixel", c.Name, bpp)
			}
			return &image.Gray{Pix: pix, Stride: c.Width, Rect: image.Rect(0, 0, c.Width, c.Height)}, nil
		},
		func() image.Image { return image.NewGray(image.Rect(0, 0, c.Width, c.Height)) },
	)
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", c.Name, err)
	}
	return img.(*image.Gray), nil
}

// Hierarchy returns the decoded pixel hierarchy, or nil before Image is
// called or for channels built in memory.
func (c *Channel) Hierarchy() *Hierarchy { return c.pixels.decodedHierarchy() }

func (c *Channel) String() string {
	return fmt.Sprintf("Channel %q %dx%d opacity=%.2f visible=%t", c.Name, c.Width, c.Height, c.Opacity, c.Visible)
}

// encodeChannel writes the channel header and its hierarchy.
func encodeChannel(w *writer, c *Channel, mode Compression) error {
	img, err := c.Image()
	if err != nil {
		return err
	}
	w.u32(u32FromInt(c.Width))
	w.u32(u32FromInt(c.Height))
	w.str(c.Name)
	encodeProperties(w, &c.Properties)
	slot := w.reserve()
	w.patchPointer(slot, uint64(w.len()))
	return encodeHierarchy(w, toGray(img).Pix, c.Width, c.Height, 1, mode)
}
