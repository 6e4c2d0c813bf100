package texture

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/woozymasta/bcn"
)

// ReadOptions configures texture decoding.
type ReadOptions struct {
	// DecodeOptions are passed to the BCn decoder.
	DecodeOptions *bcn.DecodeOptions
}

type header struct {
	dds    *bcn.DDSHeader
	format bcn.Format
	mips   int
}

func readHeader(r io.Reader) (*header, error) {
	dds, err := bcn.ReadDDSHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeader, err)
	}
	dx10, err := bcn.ReadDDSHeaderDX10(r, dds)
	if err != nil {
		return nil, fmt.Errorf("%w: DX10: %v", ErrHeader, err)
	}

	format := detectFormat(dds, dx10)
	if format == bcn.FormatUnknown {
		return nil, ErrUnknownFormat
	}

	mips := 1
	if dds.Caps&bcn.DDSCapsMipmap != 0 && dds.MipMapCount > 0 {
		mips = int(dds.MipMapCount)
	}
	return &header{dds: dds, format: format, mips: mips}, nil
}

// DecodeConfig reads the texture dimensions without touching pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		Width:      int(h.dds.Width),
		Height:     int(h.dds.Height),
		ColorModel: color.NRGBAModel,
	}, nil
}

// Decode reads an EDDS stream and decodes its largest mip level. Nil opts
// uses the decoder defaults.
func Decode(r io.Reader, opts *ReadOptions) (image.Image, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	table, err := readTable(r, h.mips)
	if err != nil {
		return nil, err
	}

	// The largest level is stored last.
	last := len(table) - 1
	for i := range last {
		if _, err := io.CopyN(io.Discard, r, int64(table[i].size)); err != nil {
			return nil, fmt.Errorf("%w: skip mip %d: %v", ErrBlock, last-i, err)
		}
	}

	body := make([]byte, table[last].size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: mip 0: %v", ErrBlock, err)
	}

	width, height := int(h.dds.Width), int(h.dds.Height)
	want := payloadSize(h.format, width, height)
	data, err := unpackBlock(block{magic: table[last].magic, body: body}, want)
	if err != nil {
		return nil, err
	}

	var dec *bcn.DecodeOptions
	if opts != nil {
		dec = opts.DecodeOptions
	}
	img, err := bcn.DecodeImageWithOptions(data, width, height, h.format, dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Read decodes the texture file at path.
func Read(path string) (image.Image, error) {
	return ReadWithOptions(path, nil)
}

// ReadWithOptions decodes the texture file at path with opts.
func ReadWithOptions(path string, opts *ReadOptions) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	return Decode(bufio.NewReader(f), opts)
}
