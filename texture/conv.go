// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/xcf

package texture

const maxInt32 = int(^uint32(0) >> 1)

// i32 converts a non-negative int to an int32.
func i32(n int) (int32, error) {
	if n < 0 || n > maxInt32 {
		return 0, ErrSizeOverflow
	}
	// #nosec G115 -- bounds checked above.
	return int32(n), nil
}

// u32 converts a non-negative int to a uint32.
func u32(n int) (uint32, error) {
	if n < 0 || uint64(n) > uint64(^uint32(0)) {
		return 0, ErrSizeOverflow
	}
	// #nosec G115 -- bounds checked above.
	return uint32(n), nil
}

// mipCount returns the length of a full mip chain for a w x h image, capped
// at the 11 levels the engine loads.
func mipCount(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w, h = max(w/2, 1), max(h/2, 1)
		n++
	}
	return min(n, 11)
}

// mipSize returns a dimension at the given mip level.
func mipSize(base, level int) int {
	return max(base>>level, 1)
}
