package dds

// Block is one decoded 4x4 tile: 16 RGBA texels in raster order.
type Block [64]byte

// DecodeBlock decodes one encoded block of variant v into dst.
// src holds 8 bytes for DXT1 and 16 bytes (alpha then color) otherwise.
// It panics if src is shorter than v.BlockSize().
func DecodeBlock(dst *Block, src []byte, v Variant) {
	switch {
	case v == VariantDXT1:
		DecodeColorBlock(dst, (*[8]byte)(src[:8]), true)
	case v < VariantDXT4:
		DecodeLinearAlphaBlock(dst, (*[8]byte)(src[:8]))
		DecodeColorBlock(dst, (*[8]byte)(src[8:16]), false)
	default:
		DecodeInterpolatedAlphaBlock(dst, (*[8]byte)(src[:8]))
		DecodeColorBlock(dst, (*[8]byte)(src[8:16]), false)
	}
}

// DecodeColorBlock decodes the 565 color half of a block.
//
// With punchThrough set (DXT1) all four channels are written: when
// color0 <= color1 index 2 holds the midpoint color and indices 2 and 3 are
// transparent, index 3 black. Without it only RGB is written and the alpha
// bytes of dst are left as they are.
func DecodeColorBlock(dst *Block, src *[8]byte, punchThrough bool) {
	c0 := uint16(src[0]) | uint16(src[1])<<8
	c1 := uint16(src[2]) | uint16(src[3])<<8

	var palette [4][4]uint8
	palette[0][0], palette[0][1], palette[0][2] = rgbFrom565(c0)
	palette[1][0], palette[1][1], palette[1][2] = rgbFrom565(c1)
	palette[0][3], palette[1][3] = 255, 255

	if !punchThrough || c0 > c1 {
		for ch := 0; ch < 3; ch++ {
			a, b := int(palette[0][ch]), int(palette[1][ch])
			palette[2][ch] = uint8((2*a + b) / 3) //nolint:gosec // bounded by operands
			palette[3][ch] = uint8((a + 2*b) / 3) //nolint:gosec // bounded by operands
		}
		palette[2][3], palette[3][3] = 255, 255
	} else {
		for ch := 0; ch < 3; ch++ {
			palette[2][ch] = uint8((int(palette[0][ch]) + int(palette[1][ch])) / 2) //nolint:gosec // bounded by operands
		}
		// palette[3] stays transparent black
	}

	width := 3
	if punchThrough {
		width = 4
	}

	bit := 32
	for i := 0; i < 64; i += 4 {
		idx := (src[bit>>3] >> (bit & 7)) & 3
		bit += 2
		copy(dst[i:i+width], palette[idx][:width])
	}
}

// DecodeLinearAlphaBlock decodes an explicit 4-bit alpha block (DXT2/3)
// into the alpha bytes of dst.
func DecodeLinearAlphaBlock(dst *Block, src *[8]byte) {
	bit := 0
	for i := 3; i < 64; i += 4 {
		nibble := int(src[bit>>3]>>(bit&7)) & 15
		dst[i] = uint8(convertBitRange(nibble, 4, 8)) //nolint:gosec // bounded by conversion
		bit += 4
	}
}

// DecodeInterpolatedAlphaBlock decodes an interpolated alpha block
// (DXT4/5) into the alpha bytes of dst.
func DecodeInterpolatedAlphaBlock(dst *Block, src *[8]byte) {
	palette := alphaPalette(src[0], src[1])

	bit := 16
	for i := 3; i < 64; i += 4 {
		idx := 0
		for k := 0; k < 3; k++ {
			idx |= int((src[bit>>3]>>(bit&7))&1) << k
			bit++
		}
		dst[i] = palette[idx&7]
	}
}

// alphaPalette builds the eight alpha values addressed by 3-bit indices.
func alphaPalette(a0, a1 uint8) [8]uint8 {
	var p [8]uint8
	p[0], p[1] = a0, a1
	x, y := int(a0), int(a1)

	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			p[1+i] = uint8(((7-i)*x + i*y) / 7) //nolint:gosec // bounded by operands
		}
		return p
	}

	for i := 1; i <= 4; i++ {
		p[1+i] = uint8(((5-i)*x + i*y) / 5) //nolint:gosec // bounded by operands
	}
	p[6], p[7] = 0, 255

	return p
}
