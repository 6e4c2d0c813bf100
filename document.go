package xcf

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
)

// magic is the fixed prefix of every XCF file.
const magic = "gimp xcf "

// Document is a decoded XCF file. Layer and channel headers are decoded by
// Open; pixel data is decoded lazily from the retained file bytes.
type Document struct {
	Version   int
	Width     int
	Height    int
	BaseType  ColorMode
	Precision Precision
	Properties

	layers   []*Layer
	channels []*Channel

	// pointer tables of the source file, dropped by structural mutation
	layerPtrs   []uint64
	channelPtrs []uint64

	src *source
}

// Open reads and decodes the XCF file at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFile, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode decodes an XCF file held in memory. data is retained until
// ForceFullyLoaded is called and must not be modified.
func Decode(data []byte) (*Document, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return nil, ErrNotGimpFile
	}
	r := newReader(data, 32)
	r.pos = len(magic)
	token, err := r.cstring()
	if err != nil {
		return nil, err
	}
	version, err := parseVersion(token)
	if err != nil {
		return nil, err
	}
	r.bits = pointerBits(version)

	d := &Document{Version: version, Properties: defaultProperties()}
	w32, err := r.u32()
	if err != nil {
		return nil, err
	}
	h32, err := r.u32()
	if err != nil {
		return nil, err
	}
	if d.Width, err = dimension(w32, "canvas width"); err != nil {
		return nil, err
	}
	if d.Height, err = dimension(h32, "canvas height"); err != nil {
		return nil, err
	}
	if err := area(d.Width, d.Height, "canvas"); err != nil {
		return nil, err
	}
	mode, err := r.u32()
	if err != nil {
		return nil, err
	}
	d.BaseType = ColorMode(mode)
	if d.BaseType > ColorIndexed {
		return nil, fmt.Errorf("%w: base type %d", ErrInvalidColorMode, mode)
	}
	if d.Precision, err = decodePrecision(r, version); err != nil {
		return nil, err
	}
	if err := decodeProperties(r, &d.Properties); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	if d.layerPtrs, err = r.pointerList(); err != nil {
		return nil, fmt.Errorf("layer pointers: %w", err)
	}
	if d.channelPtrs, err = r.pointerList(); err != nil {
		return nil, fmt.Errorf("channel pointers: %w", err)
	}

	d.src = &source{data: data, bits: r.bits, compression: d.Compression, colormap: d.ColorMap}
	for i, ptr := range d.layerPtrs {
		lr, err := r.at(ptr)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		l, err := decodeLayer(lr, d.src)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		d.layers = append(d.layers, l)
	}
	for i, ptr := range d.channelPtrs {
		cr, err := r.at(ptr)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		c, err := decodeChannel(cr, d.src)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		if c.Width != d.Width || c.Height != d.Height {
			return nil, fmt.Errorf("%w: channel %q is %dx%d, canvas %dx%d",
				ErrSizeMismatch, c.Name, c.Width, c.Height, d.Width, d.Height)
		}
		d.channels = append(d.channels, c)
	}

	logger().Debug("decoded document", "version", version, "width", d.Width, "height", d.Height,
		"layers", len(d.layers), "channels", len(d.channels), "compression", d.Compression)
	return d, nil
}

// parseVersion maps the header token to a version: "file" is 0, "vNNN" is NNN.
func parseVersion(token string) (int, error) {
	if token == "file" {
		return 0, nil
	}
	digits, ok := strings.CutPrefix(token, "v")
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, token)
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, token)
	}
	return v, nil
}

func versionToken(version int) string {
	if version == 0 {
		return "file"
	}
	return fmt.Sprintf("v%03d", version)
}

// LayerCount returns the number of layers, groups included.
func (d *Document) LayerCount() int { return len(d.layers) }

// Layers returns the layers in storage order, topmost first.
func (d *Document) Layers() []*Layer { return append([]*Layer(nil), d.layers...) }

// Layer returns the layer at index i in storage order.
func (d *Document) Layer(i int) (*Layer, error) {
	if i < 0 || i >= len(d.layers) {
		return nil, fmt.Errorf("%w: %d of %d", ErrLayerIndex, i, len(d.layers))
	}
	return d.layers[i], nil
}

// LayerByName returns the first layer named name.
func (d *Document) LayerByName(name string) (*Layer, bool) {
	for _, l := range d.layers {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// Channels returns the document channels.
func (d *Document) Channels() []*Channel { return append([]*Channel(nil), d.channels...) }

// ForceFullyLoaded decodes every layer, mask and channel and releases the
// file bytes. Pointer tables are dropped.
func (d *Document) ForceFullyLoaded() error {
	for _, l := range d.layers {
		if err := l.materialize(); err != nil {
			return err
		}
	}
	for _, c := range d.channels {
		if _, err := c.Image(); err != nil {
			return err
		}
	}
	d.layerPtrs, d.channelPtrs = nil, nil
	if d.src != nil {
		d.src.release()
	}
	return nil
}

// Loaded reports whether every layer and channel is materialized.
func (d *Document) Loaded() bool {
	for _, l := range d.layers {
		if !l.pixels.isLoaded() || (l.Mask != nil && !l.Mask.pixels.isLoaded()) {
			return false
		}
	}
	for _, c := range d.channels {
		if !c.pixels.isLoaded() {
			return false
		}
	}
	return true
}

// InsertLayer inserts l before the layer at index i; i == LayerCount appends.
func (d *Document) InsertLayer(l *Layer, i int) error {
	if l == nil {
		return fmt.Errorf("%w: nil layer", ErrInvalidImage)
	}
	if i < 0 || i > len(d.layers) {
		return fmt.Errorf("%w: insert at %d of %d", ErrLayerIndex, i, len(d.layers))
	}
	if err := d.ForceFullyLoaded(); err != nil {
		return err
	}
	d.layers = append(d.layers, nil)
	copy(d.layers[i+1:], d.layers[i:])
	d.layers[i] = l
	return nil
}

// DeleteLayer removes the layer at index i.
func (d *Document) DeleteLayer(i int) error {
	if i < 0 || i >= len(d.layers) {
		return fmt.Errorf("%w: delete %d of %d", ErrLayerIndex, i, len(d.layers))
	}
	if err := d.ForceFullyLoaded(); err != nil {
		return err
	}
	d.layers = append(d.layers[:i], d.layers[i+1:]...)
	return nil
}

// ReplaceLayer swaps the layer at index i for l.
func (d *Document) ReplaceLayer(i int, l *Layer) error {
	if l == nil {
		return fmt.Errorf("%w: nil layer", ErrInvalidImage)
	}
	if i < 0 || i >= len(d.layers) {
		return fmt.Errorf("%w: replace %d of %d", ErrLayerIndex, i, len(d.layers))
	}
	if err := d.ForceFullyLoaded(); err != nil {
		return err
	}
	d.layers[i] = l
	return nil
}

// NewLayer builds a layer from img and inserts it at index i.
func (d *Document) NewLayer(name string, img image.Image, i int) (*Layer, error) {
	l, err := NewLayer(name, img)
	if err != nil {
		return nil, err
	}
	if err := d.InsertLayer(l, i); err != nil {
		return nil, err
	}
	return l, nil
}

// Tree rebuilds the layer group tree.
func (d *Document) Tree() (*Node, error) { return BuildTree(d.layers) }

// Flatten composites the whole document onto a canvas of its size.
func (d *Document) Flatten(opts *FlattenOptions) (*image.NRGBA, error) {
	tree, err := d.Tree()
	if err != nil {
		return nil, err
	}
	return FlattenWithOptions(tree, image.Pt(d.Width, d.Height), opts)
}

// Save is not supported; it always returns ErrSaveUnsupported.
func (d *Document) Save(path string) error {
	return fmt.Errorf("%w: %s", ErrSaveUnsupported, path)
}

func (d *Document) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "XCF %s %dx%d %s %s compression=%s layers=%d channels=%d",
		versionToken(d.Version), d.Width, d.Height, d.BaseType, d.Precision, d.Compression,
		len(d.layers), len(d.channels))
	for _, l := range d.layers {
		fmt.Fprintf(&b, "\n  %s", l)
	}
	for _, c := range d.channels {
		fmt.Fprintf(&b, "\n  %s", c)
	}
	return b.String()
}

// encode serializes the document. It is the inverse of Decode for the
// structures Decode reads and backs the package tests.
func (d *Document) encode() ([]byte, error) {
	w := newWriter(pointerBits(d.Version))
	w.raw([]byte(magic))
	w.cstring(versionToken(d.Version))
	w.u32(u32FromInt(d.Width))
	w.u32(u32FromInt(d.Height))
	w.u32(uint32(d.BaseType))
	if err := encodePrecision(w, d.Precision, d.Version); err != nil {
		return nil, err
	}
	encodeProperties(w, &d.Properties)

	lslots := make([]int, len(d.layers))
	for i := range lslots {
		lslots[i] = w.reserve()
	}
	w.pointer(0)
	cslots := make([]int, len(d.channels))
	for i := range cslots {
		cslots[i] = w.reserve()
	}
	w.pointer(0)

	for i, l := range d.layers {
		w.patchPointer(lslots[i], uint64(w.len()))
		if l.colormap == nil {
			l.colormap = d.ColorMap
		}
		if err := encodeLayer(w, l, d.Compression); err != nil {
			return nil, err
		}
	}
	for i, c := range d.channels {
		w.patchPointer(cslots[i], uint64(w.len()))
		if err := encodeChannel(w, c, d.Compression); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
