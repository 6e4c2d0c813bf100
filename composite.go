package xcf

import (
	"fmt"
	"image"
	"math"
)

// FlattenOptions controls Flatten.
type FlattenOptions struct {
	// IncludeHidden renders every layer regardless of its visible flag.
	IncludeHidden bool
	// Visible, when set, decides layer visibility instead of the stored
	// flag. The document is not modified.
	Visible func(*Layer) bool
	// RespectApplyMask skips owned masks whose layer has ApplyMask unset,
	// as GIMP does. By default every owned mask is applied.
	RespectApplyMask bool
}

// Flatten composites tree onto a transparent canvas of size, skipping hidden
// layers and groups.
func Flatten(tree *Node, size image.Point) (*image.NRGBA, error) {
	return FlattenWithOptions(tree, size, nil)
}

// FlattenWithOptions composites tree bottom-up: the last child of a group is
// painted first. Groups are flattened on their own canvas, masked, then
// blended onto their parent with their own mode and opacity.
func FlattenWithOptions(tree *Node, size image.Point, opts *FlattenOptions) (*image.NRGBA, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: nil tree", ErrInvalidImage)
	}
	if size.X <= 0 || size.Y <= 0 || int64(size.X)*int64(size.Y) > maxPixels {
		return nil, fmt.Errorf("%w: canvas %v", ErrInvalidImage, size)
	}
	if opts == nil {
		opts = &FlattenOptions{}
	}
	c := &compositor{opts: opts, bounds: image.Rectangle{Max: size}}
	return c.flattenChildren(tree.Children)
}

type compositor struct {
	opts   *FlattenOptions
	bounds image.Rectangle
}

func (c *compositor) visible(l *Layer) bool {
	switch {
	case c.opts.IncludeHidden:
		return true
	case c.opts.Visible != nil:
		return c.opts.Visible(l)
	default:
		return l.Visible
	}
}

func (c *compositor) flattenChildren(children []*Node) (*image.NRGBA, error) {
	acc := image.NewNRGBA(c.bounds)
	for i := len(children) - 1; i >= 0; i-- {
		n := children[i]
		fg, err := c.render(n)
		if err != nil {
			return nil, err
		}
		switch {
		case fg == nil:
			// hidden: a transparent contribution
		case i == len(children)-1:
			// The bottom contribution becomes the accumulator as is.
			acc = fg
		default:
			blendOnto(acc, fg, lookupBlend(n.Layer.Mode, n.Layer.Name), n.Layer.Opacity)
		}
	}
	return acc, nil
}

// render returns the canvas-sized contribution of n, or nil when hidden.
func (c *compositor) render(n *Node) (*image.NRGBA, error) {
	l := n.Layer
	if !c.visible(l) {
		return nil, nil
	}

	var fg *image.NRGBA
	if n.IsGroup() {
		var err error
		if fg, err = c.flattenChildren(n.Children); err != nil {
			return nil, fmt.Errorf("group %q: %w", l.Name, err)
		}
	} else {
		img, err := l.Image()
		if err != nil {
			return nil, err
		}
		fg = image.NewNRGBA(c.bounds)
		paste(fg, toNRGBA(img), l.Offset())
	}

	if l.Mask != nil && (l.ApplyMask || !c.opts.RespectApplyMask) {
		mask, err := l.Mask.Image()
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}
		applyMask(fg, mask, l.Offset())
	}
	return fg, nil
}

// paste copies src into dst with its origin at off, clipped to dst.
func paste(dst, src *image.NRGBA, off image.Point) {
	r := src.Bounds().Add(off).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	n := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := dst.PixOffset(r.Min.X, y)
		s := src.PixOffset(r.Min.X-off.X, y-off.Y)
		copy(dst.Pix[d:d+n], src.Pix[s:s+n])
	}
}

// applyMask multiplies the alpha of img by mask placed at off. Pixels the
// mask does not cover become transparent.
func applyMask(img *image.NRGBA, mask *image.Gray, off image.Point) {
	b := img.Bounds()
	mr := mask.Bounds().Add(off)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := img.PixOffset(x, y) + 3
			if !(image.Point{X: x, Y: y}).In(mr) {
				img.Pix[a] = 0
				continue
			}
			m := uint32(mask.Pix[mask.PixOffset(x-off.X, y-off.Y)])
			img.Pix[a] = uint8((uint32(img.Pix[a])*m + 127) / 255)
		}
	}
}

// blendOnto composites fg over acc in place with source-over alpha and the
// blend function applied where both are opaque.
func blendOnto(acc, fg *image.NRGBA, fn blendFunc, opacity float64) {
	opacity = clamp01(opacity)
	for i := 0; i < len(acc.Pix); i += 4 {
		af := float64(fg.Pix[i+3]) / 255 * opacity
		if af == 0 {
			continue
		}
		bp := acc.Pix[i : i+4 : i+4]
		fp := fg.Pix[i : i+4 : i+4]
		ab := float64(bp[3]) / 255

		aout := af + ab - af*ab
		cb := [3]float64{float64(bp[0]) / 255, float64(bp[1]) / 255, float64(bp[2]) / 255}
		cf := [3]float64{float64(fp[0]) / 255, float64(fp[1]) / 255, float64(fp[2]) / 255}
		mix := fn(cb, cf)
		for k := 0; k < 3; k++ {
			v := ((af-af*ab)*cf[k] + (ab-af*ab)*cb[k] + af*ab*mix[k]) / aout
			bp[k] = to8(v)
		}
		bp[3] = to8(aout)
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
