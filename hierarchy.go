package xcf

import (
	"fmt"
	"image"
)

// Hierarchy is the pixel storage of a layer or channel. Only the first and
// finest level is kept.
type Hierarchy struct {
	Width         int
	Height        int
	BytesPerPixel int
	Level         Level
}

// Level is one resolution of a hierarchy, stored as a grid of tiles.
type Level struct {
	Width  int
	Height int
	Tiles  []Tile
}

// Tile locates one compressed tile of a level.
type Tile struct {
	Bounds image.Rectangle
	Offset uint64
}

// tileGrid returns the row-major tile rectangles covering a w x h image.
// Edge tiles are clipped to the image.
func tileGrid(w, h int) []image.Rectangle {
	cols := (w + TileSize - 1) / TileSize
	rows := (h + TileSize - 1) / TileSize
	grid := make([]image.Rectangle, 0, cols*rows)
	for y := 0; y < h; y += TileSize {
		for x := 0; x < w; x += TileSize {
			grid = append(grid, image.Rect(x, y, min(x+TileSize, w), min(y+TileSize, h)))
		}
	}
	return grid
}

// decodeHierarchy reads a hierarchy at r and returns it with the
// interleaved pixels of its first level.
func decodeHierarchy(r *reader, mode Compression, width, height int) (*Hierarchy, []byte, error) {
	w32, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	h32, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	bpp, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	if bpp < 1 || bpp > 4 {
		return nil, nil, corruptf("%d bytes per pixel", bpp)
	}

	h := &Hierarchy{BytesPerPixel: int(bpp)}
	if h.Width, err = dimension(w32, "hierarchy width"); err != nil {
		return nil, nil, err
	}
	if h.Height, err = dimension(h32, "hierarchy height"); err != nil {
		return nil, nil, err
	}
	if err := area(h.Width, h.Height, "hierarchy"); err != nil {
		return nil, nil, err
	}
	if h.Width != width || h.Height != height {
		return nil, nil, fmt.Errorf("%w: hierarchy %dx%d, owner %dx%d", ErrSizeMismatch, h.Width, h.Height, width, height)
	}

	levels, err := r.pointerList()
	if err != nil {
		return nil, nil, fmt.Errorf("level pointers: %w", err)
	}
	if len(levels) == 0 {
		return nil, nil, corruptf("hierarchy without levels")
	}
	lr, err := r.at(levels[0])
	if err != nil {
		return nil, nil, err
	}
	pix, err := h.decodeLevel(lr, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("level: %w", err)
	}
	return h, pix, nil
}

func (h *Hierarchy) decodeLevel(r *reader, mode Compression) ([]byte, error) {
	w32, err := r.u32()
	if err != nil {
		return nil, err
	}
	h32, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int64(w32) != int64(h.Width) || int64(h32) != int64(h.Height) {
		return nil, fmt.Errorf("%w: level %dx%d, hierarchy %dx%d", ErrSizeMismatch, w32, h32, h.Width, h.Height)
	}
	h.Level = Level{Width: h.Width, Height: h.Height}

	ptrs, err := r.pointerList()
	if err != nil {
		return nil, fmt.Errorf("tile pointers: %w", err)
	}
	cols := (h.Width + TileSize - 1) / TileSize
	rows := (h.Height + TileSize - 1) / TileSize
	if len(ptrs) != cols*rows {
		return nil, corruptf("%d tile pointers for %d tiles", len(ptrs), cols*rows)
	}

	bpp := h.BytesPerPixel
	stride := h.Width * bpp
	pix := make([]byte, stride*h.Height)
	for i, rect := range tileGrid(h.Width, h.Height) {
		off := ptrs[i]
		if off > uint64(len(r.data)) {
			return nil, fmt.Errorf("%w: tile %d at offset %d", ErrTruncatedData, i, off)
		}
		tile, err := decodeTile(mode, r.data[off:], rect.Dx()*rect.Dy(), bpp)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		row := rect.Dx() * bpp
		for y := 0; y < rect.Dy(); y++ {
			dst := (rect.Min.Y+y)*stride + rect.Min.X*bpp
			copy(pix[dst:dst+row], tile[y*row:(y+1)*row])
		}
		h.Level.Tiles = append(h.Level.Tiles, Tile{Bounds: rect, Offset: off})
	}
	return pix, nil
}

// encodeHierarchy writes a single-level hierarchy whose data regions follow
// its pointer tables.
func encodeHierarchy(w *writer, pix []byte, width, height, bpp int, mode Compression) error {
	if bpp < 1 || bpp > 4 || len(pix) != width*height*bpp {
		return corruptf("%d bytes for %dx%d at %d bytes per pixel", len(pix), width, height, bpp)
	}
	w.u32(u32FromInt(width))
	w.u32(u32FromInt(height))
	w.u32(u32FromInt(bpp))
	level := w.reserve()
	w.pointer(0)

	w.patchPointer(level, uint64(w.len()))
	w.u32(u32FromInt(width))
	w.u32(u32FromInt(height))
	grid := tileGrid(width, height)
	slots := make([]int, len(grid))
	for i := range grid {
		slots[i] = w.reserve()
	}
	w.pointer(0)

	stride := width * bpp
	for i, rect := range grid {
		row := rect.Dx() * bpp
		tile := make([]byte, 0, row*rect.Dy())
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			start := y*stride + rect.Min.X*bpp
			tile = append(tile, pix[start:start+row]...)
		}
		data, err := encodeTile(mode, tile, bpp)
		if err != nil {
			return err
		}
		w.patchPointer(slots[i], uint64(w.len()))
		w.raw(data)
	}
	return nil
}
