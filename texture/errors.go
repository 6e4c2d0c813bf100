package texture

import "errors"

var (
	// ErrSizeOverflow indicates a size or dimension exceeds container limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrInvalidFormat indicates a pixel format that cannot be written.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUnknownFormat indicates a header whose pixel format is not recognized.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrEmptyImage indicates an image without pixels.
	ErrEmptyImage = errors.New("empty image")
	// ErrHeader indicates the DDS header could not be read or written.
	ErrHeader = errors.New("DDS header")
	// ErrBlockTable indicates a malformed block table.
	ErrBlockTable = errors.New("invalid block table")
	// ErrBlock indicates a block body that could not be read or unpacked.
	ErrBlock = errors.New("invalid block")
	// ErrLZ4 indicates an LZ4 chunk could not be compressed or decompressed.
	ErrLZ4 = errors.New("LZ4 chunk")
	// ErrSizeMismatch indicates a payload whose size does not match its mip level.
	ErrSizeMismatch = errors.New("payload size mismatch")
	// ErrEncode indicates pixel encoding failed.
	ErrEncode = errors.New("encode image failed")
	// ErrDecode indicates pixel decoding failed.
	ErrDecode = errors.New("decode image failed")
	// ErrOpenFile indicates the texture file could not be opened.
	ErrOpenFile = errors.New("open file failed")
	// ErrCreateFile indicates the texture file could not be created.
	ErrCreateFile = errors.New("create file failed")
	// ErrWrite indicates writing texture data failed.
	ErrWrite = errors.New("write failed")
)
