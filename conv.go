// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/xcf

package xcf

const (
	maxDimension = 1 << 24
	// maxPixels bounds width*height so an NRGBA raster stays under 1 GiB.
	maxPixels = 1 << 28
)

// dimension converts a decoded u32 size into an int, rejecting sizes no real
// document can have so later allocations stay bounded.
func dimension(v uint32, what string) (int, error) {
	if v == 0 || v > maxDimension {
		return 0, corruptf("%s %d", what, v)
	}
	return int(v), nil
}

// area rejects a w x h raster larger than maxPixels.
func area(w, h int, what string) error {
	if int64(w)*int64(h) > maxPixels {
		return corruptf("%s %dx%d exceeds %d pixels", what, w, h, maxPixels)
	}
	return nil
}

// u32FromInt converts a non-negative int to uint32, clamping at the maximum.
func u32FromInt(n int) uint32 {
	if n < 0 {
		return 0
	}
	if uint64(n) > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	// #nosec G115 -- bounds checked above.
	return uint32(n)
}
