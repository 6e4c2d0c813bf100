package xcf

import (
	"errors"
	"fmt"
)

var (
	// ErrNotGimpFile indicates the data does not start with the XCF magic.
	ErrNotGimpFile = errors.New("not a GIMP XCF file")
	// ErrUnsupportedVersion indicates a version token or version-specific
	// encoding that cannot be handled.
	ErrUnsupportedVersion = errors.New("unsupported XCF version")
	// ErrIllegalPrecision indicates a precision code or value not valid for the document version.
	ErrIllegalPrecision = errors.New("illegal precision")
	// ErrTruncatedData indicates a read past the end of the buffer.
	ErrTruncatedData = errors.New("truncated data")
	// ErrCorruptImageData indicates an invariant violation in image structures.
	ErrCorruptImageData = errors.New("corrupt image data")
	// ErrSizeMismatch indicates a nested structure disagrees with its parent's size.
	ErrSizeMismatch = fmt.Errorf("%w: size mismatch", ErrCorruptImageData)
	// ErrUnknownProperty indicates a property id outside the known table.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrInvalidEncoding indicates an RLE stream that cannot be decoded.
	ErrInvalidEncoding = errors.New("invalid RLE encoding")
	// ErrUnsupportedCompression indicates an unknown or unsupported tile compression mode.
	ErrUnsupportedCompression = errors.New("unsupported compression")
	// ErrInvalidColorMode indicates an unknown base or layer color mode.
	ErrInvalidColorMode = errors.New("invalid color mode")
	// ErrInvalidItemPath indicates an item path that does not address a group.
	ErrInvalidItemPath = errors.New("invalid item path")
	// ErrLayerIndex indicates a layer index out of range.
	ErrLayerIndex = errors.New("layer index out of range")
	// ErrInvalidImage indicates an image that cannot be used as layer content.
	ErrInvalidImage = errors.New("invalid image")
	// ErrSaveUnsupported indicates document write-back was requested.
	ErrSaveUnsupported = errors.New("saving XCF documents is not supported")
	// ErrOpenFile indicates the XCF file could not be read.
	ErrOpenFile = errors.New("open file failed")
	// ErrReleased indicates lazy data was requested after the source buffer was released.
	ErrReleased = errors.New("source data released")
)

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorruptImageData}, args...)...)
}
