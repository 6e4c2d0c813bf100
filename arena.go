package xcf

import (
	"image"
	"image/color"
	"sync"
)

// source is the byte arena of a decoded file shared by a document and
// every layer and channel it owns.
type source struct {
	mu          sync.RWMutex
	data        []byte
	bits        int
	compression Compression
	colormap    []color.RGBA
}

func (s *source) reader(off uint64) (*reader, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data == nil {
		return nil, ErrReleased
	}
	return newReader(data, s.bits).at(off)
}

func (s *source) release() {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
}

// pixels is the two-state holder of a layer or channel raster: either a
// hierarchy pointer into the arena or the decoded image.
type pixels struct {
	mu        sync.Mutex
	src       *source
	ptr       uint64
	hierarchy *Hierarchy
	img       image.Image
	loaded    bool
}

// resolvedPixels returns a holder that is already materialized.
func resolvedPixels(img image.Image) pixels {
	return pixels{img: img, loaded: true}
}

// resolve decodes the hierarchy on first use. size, build and blank run
// under the holder lock: size reports the raster dimensions, build turns the
// interleaved pixels into an image and blank is used when there is no
// hierarchy.
func (p *pixels) resolve(size func() (int, int), build func(pix []byte, bpp int) (image.Image, error), blank func() image.Image) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.img, nil
	}
	if p.ptr == 0 {
		p.img, p.loaded = blank(), true
		return p.img, nil
	}

	width, height := size()
	r, err := p.src.reader(p.ptr)
	if err != nil {
		return nil, err
	}
	h, pix, err := decodeHierarchy(r, p.src.compression, width, height)
	if err != nil {
		return nil, err
	}
	img, err := build(pix, h.BytesPerPixel)
	if err != nil {
		return nil, err
	}
	logger().Debug("decoded hierarchy", "width", width, "height", height, "bpp", h.BytesPerPixel, "tiles", len(h.Level.Tiles))
	p.hierarchy, p.img, p.loaded = h, img, true
	p.src = nil
	return img, nil
}

func (p *pixels) set(img image.Image) {
	p.replace(img, func() {})
}

// replace runs update and installs img in one critical section, so resolve
// never pairs the owner's new size with the old raster.
func (p *pixels) replace(img image.Image, update func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update()
	p.img, p.loaded, p.hierarchy, p.src, p.ptr = img, true, nil, nil, 0
}

func (p *pixels) decodedHierarchy() *Hierarchy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hierarchy
}

func (p *pixels) isLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}
