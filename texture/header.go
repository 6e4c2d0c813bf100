package texture

import (
	"fmt"
	"strings"

	"github.com/woozymasta/bcn"
)

// enfusionMarker tags Reserved1[1] of headers the engine writes ("ENF1").
const enfusionMarker = 0x31464e45

func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

func fourCCString(v uint32) string {
	return string([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

var (
	fourCCFormats = map[string]bcn.Format{
		"DXT1": bcn.FormatDXT1,
		"DXT2": bcn.FormatDXT3,
		"DXT3": bcn.FormatDXT3,
		"DXT4": bcn.FormatDXT5,
		"DXT5": bcn.FormatDXT5,
		"ATI1": bcn.FormatBC4,
		"BC4U": bcn.FormatBC4,
		"BC4S": bcn.FormatBC4,
		"ATI2": bcn.FormatBC5,
		"BC5U": bcn.FormatBC5,
		"BC5S": bcn.FormatBC5,
	}

	dxgiFormats = map[uint32]bcn.Format{
		71: bcn.FormatDXT1,
		74: bcn.FormatDXT3,
		77: bcn.FormatDXT5,
		80: bcn.FormatBC4,
		83: bcn.FormatBC5,
		87: bcn.FormatBGRA8,
		28: bcn.FormatRGBA8,
	}

	// writeFourCC is the code each block format is written with.
	writeFourCC = map[bcn.Format]string{
		bcn.FormatDXT1: "DXT1",
		bcn.FormatDXT3: "DXT3",
		bcn.FormatDXT5: "DXT5",
		bcn.FormatBC4:  "ATI1",
		bcn.FormatBC5:  "ATI2",
	}

	formatNames = map[string]bcn.Format{
		"bgra8": bcn.FormatBGRA8,
		"rgba8": bcn.FormatRGBA8,
		"dxt1":  bcn.FormatDXT1,
		"dxt3":  bcn.FormatDXT3,
		"dxt5":  bcn.FormatDXT5,
		"bc4":   bcn.FormatBC4,
		"bc5":   bcn.FormatBC5,
	}
)

// FormatByName resolves a case-insensitive format name such as "dxt5" or
// "bgra8".
func FormatByName(name string) (bcn.Format, error) {
	f, ok := formatNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return bcn.FormatUnknown, fmt.Errorf("%w: %q", ErrInvalidFormat, name)
	}
	return f, nil
}

// payloadSize is the byte size of a w x h level in format, or -1 when the
// format has no fixed layout.
func payloadSize(format bcn.Format, w, h int) int {
	blocks := ((w + 3) / 4) * ((h + 3) / 4)
	switch format {
	case bcn.FormatDXT1, bcn.FormatBC4:
		return blocks * 8
	case bcn.FormatDXT3, bcn.FormatDXT5, bcn.FormatBC5:
		return blocks * 16
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		return w * h * 4
	}
	return -1
}

// detectFormat maps a DDS header, and its DX10 extension when present, to a
// pixel format.
func detectFormat(h *bcn.DDSHeader, dx10 *bcn.DDSHeaderDX10) bcn.Format {
	if dx10 != nil {
		if f, ok := dxgiFormats[dx10.DXGIFormat]; ok {
			return f
		}
		return bcn.FormatUnknown
	}

	pf := h.PixelFormat
	if pf.Flags&bcn.DDSPFFourCC != 0 {
		if f, ok := fourCCFormats[fourCCString(pf.FourCC)]; ok {
			return f
		}
		return bcn.FormatUnknown
	}

	if pf.Flags&bcn.DDSPFRGB != 0 && pf.Flags&bcn.DDSPFAlphaPixels != 0 &&
		pf.RGBBitCount == 32 && pf.GBitMask == 0x0000ff00 && pf.ABitMask == 0xff000000 {
		switch {
		case pf.RBitMask == 0x000000ff && pf.BBitMask == 0x00ff0000:
			return bcn.FormatRGBA8
		case pf.RBitMask == 0x00ff0000 && pf.BBitMask == 0x000000ff:
			return bcn.FormatBGRA8
		}
	}

	return bcn.FormatUnknown
}

// makeHeader builds the header for a w x h texture with mips levels.
func makeHeader(w, h, mips int, format bcn.Format) (*bcn.DDSHeader, error) {
	w32, err := u32(w)
	if err != nil {
		return nil, err
	}
	h32, err := u32(h)
	if err != nil {
		return nil, err
	}
	m32, err := u32(mips)
	if err != nil {
		return nil, err
	}

	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat,
		Width:       w32,
		Height:      h32,
		Depth:       1,
		MipMapCount: m32,
		Caps:        bcn.DDSCapsTexture,
	}
	hdr.Reserved1[1] = enfusionMarker
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize
	if mips > 1 {
		hdr.Flags |= bcn.DDSFlagMipmapCount
		hdr.Caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}

	if code, ok := writeFourCC[format]; ok {
		hdr.Flags |= bcn.DDSFlagLinearSize
		hdr.PixelFormat.Flags = bcn.DDSPFFourCC
		hdr.PixelFormat.FourCC = fourCC(code)
		return hdr, nil
	}

	pf := &hdr.PixelFormat
	switch format {
	case bcn.FormatRGBA8:
		pf.RBitMask, pf.BBitMask = 0x000000ff, 0x00ff0000
	case bcn.FormatBGRA8:
		pf.RBitMask, pf.BBitMask = 0x00ff0000, 0x000000ff
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
	hdr.Flags |= bcn.DDSFlagPitch
	pf.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
	pf.RGBBitCount = 32
	pf.GBitMask = 0x0000ff00
	pf.ABitMask = 0xff000000
	hdr.PitchOrLinearSize = w32 * 4

	return hdr, nil
}
