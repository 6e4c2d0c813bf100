package xcf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compression is the document-wide tile compression mode.
type Compression uint8

// Tile compression modes.
const (
	CompressionNone Compression = iota
	CompressionRLE
	CompressionZlib
	CompressionFractal
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionRLE:
		return "rle"
	case CompressionZlib:
		return "zlib"
	case CompressionFractal:
		return "fractal"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// TileSize is the edge length of a full tile.
const TileSize = 64

// decodeTile returns pixelCount*bpp interleaved bytes. src may extend past the
// end of the tile; RLE and zlib stop at their own end marker.
func decodeTile(mode Compression, src []byte, pixelCount, bpp int) ([]byte, error) {
	n := pixelCount * bpp
	switch mode {
	case CompressionNone:
		if len(src) < n {
			return nil, fmt.Errorf("%w: tile needs %d bytes, have %d", ErrTruncatedData, n, len(src))
		}
		return append([]byte(nil), src[:n]...), nil
	case CompressionRLE:
		return rleDecode(src, pixelCount, bpp)
	case CompressionZlib:
		return zlibDecode(src, n)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, mode)
	}
}

func encodeTile(mode Compression, pix []byte, bpp int) ([]byte, error) {
	switch mode {
	case CompressionNone:
		return pix, nil
	case CompressionRLE:
		return rleEncode(pix, bpp), nil
	case CompressionZlib:
		return zlibEncode(pix)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, mode)
	}
}

func zlibDecode(src []byte, size int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, corruptf("zlib tile: %v", err)
	}
	defer func() { _ = zr.Close() }()

	dst := make([]byte, size)
	if _, err := io.ReadFull(zr, dst); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fmt.Errorf("%w: zlib tile shorter than %d bytes", ErrTruncatedData, size)
		}
		return nil, corruptf("zlib tile: %v", err)
	}
	return dst, nil
}

func zlibEncode(pix []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(pix); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
