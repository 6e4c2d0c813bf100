package texture

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/woozymasta/bcn"
)

// WriteOptions configures texture encoding.
type WriteOptions struct {
	// EncodeOptions are passed to the BCn encoder (quality, workers).
	EncodeOptions *bcn.EncodeOptions
	// Format is the pixel format; FormatUnknown selects BGRA8.
	Format bcn.Format
	// MaxMipMaps limits the mip chain; 0 keeps the full chain.
	MaxMipMaps int
	// Compress stores levels as LZ4 chunk streams where that pays off.
	Compress bool
}

// DefaultWriteOptions is lossless BGRA8 with LZ4 and a full mip chain.
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{Format: bcn.FormatBGRA8, Compress: true}
}

// Encode writes img as an EDDS stream. Nil opts uses DefaultWriteOptions.
func Encode(w io.Writer, img image.Image, opts *WriteOptions) error {
	if opts == nil {
		opts = DefaultWriteOptions()
	}
	format := opts.Format
	if format == bcn.FormatUnknown {
		format = bcn.FormatBGRA8
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return ErrEmptyImage
	}

	count := mipCount(width, height)
	if opts.MaxMipMaps > 0 {
		count = min(count, opts.MaxMipMaps)
	}
	mips := bcn.GenerateMipmaps(img, false)
	if len(mips) > count {
		mips = mips[:count]
	}

	hdr, err := makeHeader(width, height, len(mips), format)
	if err != nil {
		return err
	}

	blocks := make([]block, len(mips))
	for level, mip := range mips {
		data, _, _, err := bcn.EncodeImageWithOptions(mip, format, opts.EncodeOptions)
		if err != nil {
			return fmt.Errorf("%w: mip %d: %v", ErrEncode, level, err)
		}
		want := payloadSize(format, mipSize(width, level), mipSize(height, level))
		if len(data) != want {
			return fmt.Errorf("%w: mip %d holds %d bytes, want %d", ErrSizeMismatch, level, len(data), want)
		}
		if blocks[level], err = packBlock(data, opts.Compress); err != nil {
			return fmt.Errorf("mip %d: %w", level, err)
		}
	}

	if err := bcn.WriteDDSMagic(w); err != nil {
		return fmt.Errorf("%w: %v", ErrHeader, err)
	}
	if err := bcn.WriteDDSHeader(w, hdr); err != nil {
		return fmt.Errorf("%w: %v", ErrHeader, err)
	}

	return writeTable(w, blocks)
}

// Write encodes img into the file at path.
func Write(img image.Image, path string, opts *WriteOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrWrite, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Encode(bw, img, opts); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
