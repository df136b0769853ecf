package dds

import "fmt"

// layout is the resolved pixel layout of a validated header.
type layout struct {
	width, height int
	faces, mips   int

	// filled counts the leading mips with texels; the rest are empty.
	filled int

	// variant is VariantNone for raw payloads.
	variant Variant

	// channels and bitDepth are the decoded values before channel reduction.
	channels int
	bitDepth int

	// texelBytes is the size of one decoded texel, also the raw stream stride.
	texelBytes int
}

// resolveLayout derives faces, mips, variant, channels and bit depth.
func resolveLayout(h *Header) (layout, error) {
	l := layout{
		width:  int(h.Width),
		height: int(h.Height),
		faces:  h.Faces(),
		mips:   h.MipLevels(),
	}
	l.filled = filledMips(l.width, l.height, l.mips)

	if h.Compressed() {
		v := variantFromFourCC(h.PixelFormat.FourCC)
		switch {
		case v.Valid():
			l.variant = v
			l.channels = 4
			l.bitDepth = 32
			l.texelBytes = 4
			return l, nil
		case v > VariantDXT5:
			return layout{}, fmt.Errorf("%w: %q", ErrUnsupportedVariant, h.FourCC())
		}

		// Non-conformant writers tag raw data with an unusable code;
		// read it as 8-bit RGBA.
		l.channels = 4
		l.bitDepth = 32
		l.texelBytes = 4
		return l, nil
	}

	l.bitDepth = rawBitDepth(h)
	switch {
	case h.HasAlphaFlag():
		l.channels = 4
	case l.bitDepth%24 == 0:
		l.channels = 3
	default:
		// 32-bit texels without an alpha flag keep their fourth byte
		// until the alpha scan decides whether it means anything.
		l.channels = 4
	}
	if l.bitDepth <= 0 || l.bitDepth%(8*l.channels) != 0 {
		return layout{}, fmt.Errorf("%w: %d bits for %d channels", ErrUnsupportedBitDepth, l.bitDepth, l.channels)
	}
	l.texelBytes = l.bitDepth / 8

	return l, nil
}

// rawBitDepth returns bits per pixel of an uncompressed payload: the
// pitch over the width, or the pixel format bit count when that is zero.
func rawBitDepth(h *Header) int {
	if h.Width != 0 {
		if bpp := int(uint64(h.PitchOrLinearSize) * 8 / uint64(h.Width)); bpp > 0 {
			return bpp
		}
	}

	return int(h.PixelFormat.RGBBitCount)
}

// compressed reports whether blocks must be decoded.
func (l layout) compressed() bool {
	return l.variant != VariantNone
}

// bytesPerChannel is 1 for 8-bit channels, more for wide raw formats.
func (l layout) bytesPerChannel() int {
	return l.texelBytes / l.channels
}

// levelSize returns the decoded size in bytes of one mip level.
func (l layout) levelSize(mip int) int {
	return mipDimension(l.width, mip) * mipDimension(l.height, mip) * l.texelBytes
}

// levelStreamSize returns the encoded size in bytes of one mip level.
func (l layout) levelStreamSize(mip int) int {
	w := mipDimension(l.width, mip)
	h := mipDimension(l.height, mip)
	if l.compressed() {
		return blockCount(w) * blockCount(h) * l.variant.BlockSize()
	}

	return w * h * l.texelBytes
}

// faceSize returns the decoded size of one face including all mips.
func (l layout) faceSize() int {
	n := 0
	for m := 0; m < l.filled; m++ {
		n += l.levelSize(m)
	}

	return n
}

// outputSize returns the size of the whole decoded buffer, bounded by limit.
func (l layout) outputSize(limit int) (int, error) {
	total := 0
	for m := 0; m < l.filled; m++ {
		n, err := mulSize(limit, mipDimension(l.width, m), mipDimension(l.height, m), l.texelBytes, l.faces)
		if err != nil {
			return 0, fmt.Errorf("%w: mipmap %d of %dx%d", err, m, l.width, l.height)
		}
		if total > limit-n {
			return 0, fmt.Errorf("%w: %dx%d with %d mipmaps and %d faces", ErrSizeOverflow, l.width, l.height, l.mips, l.faces)
		}
		total += n
	}

	return total, nil
}

// texels returns the number of texels over all faces and mips.
func (l layout) texels() int {
	n := 0
	for m := 0; m < l.filled; m++ {
		n += mipDimension(l.width, m) * mipDimension(l.height, m)
	}

	return n * l.faces
}
