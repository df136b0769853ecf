// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WARHEAD117
// Source: github.com/warhead117/dds

package dds

const (
	maxInt32  = int(^uint32(0) >> 1)
	maxUint32 = uint64(^uint32(0))
)

// i32FromInt converts an int to an int32.
func i32FromInt(n int) (int32, error) {
	if n < 0 || n > maxInt32 {
		return 0, ErrSizeOverflow
	}

	return int32(n), nil
}

// u32FromInt converts an int to a uint32.
func u32FromInt(n int) (uint32, error) {
	if n < 0 || uint64(n) > maxUint32 {
		return 0, ErrSizeOverflow
	}

	// #nosec G115 -- bounds checked above.
	return uint32(n), nil
}

// convertBitRange rescales a fromBits-wide value to toBits, rounding to
// nearest, so 0 maps to 0 and the source maximum to the target maximum.
func convertBitRange(c, fromBits, toBits int) int {
	srcMax := (1 << fromBits) - 1
	return (c*((1<<toBits)-1) + srcMax/2) / srcMax
}

// rgbFrom565 expands a packed 5:6:5 color to 8 bits per channel.
func rgbFrom565(c uint16) (r, g, b uint8) {
	r = uint8(convertBitRange(int(c>>11)&31, 5, 8)) //nolint:gosec // bounded by conversion
	g = uint8(convertBitRange(int(c>>5)&63, 6, 8))  //nolint:gosec // bounded by conversion
	b = uint8(convertBitRange(int(c)&31, 5, 8))     //nolint:gosec // bounded by conversion
	return r, g, b
}

// mulSize multiplies non-negative sizes and reports overflow past limit.
func mulSize(limit int, factors ...int) (int, error) {
	n := 1
	for _, f := range factors {
		if f < 0 {
			return 0, ErrSizeOverflow
		}
		if f != 0 && n > limit/f {
			return 0, ErrSizeOverflow
		}
		n *= f
	}

	return n, nil
}
