package dds

import "fmt"

// luma returns the 8-bit luminance used when collapsing color to gray.
func luma(r, g, b uint8) uint8 {
	return uint8((int(r)*77 + int(g)*150 + int(b)*29) >> 8) //nolint:gosec // weights sum to 256
}

// convertChannels repacks 8-bit texels from one channel count to another.
func convertChannels(src []byte, from, to, texels int) ([]byte, error) {
	if from == to {
		return src, nil
	}
	if from < 1 || from > 4 || to < 1 || to > 4 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidChannels, from, to)
	}
	if len(src) < texels*from {
		return nil, fmt.Errorf("%w: %d bytes for %d texels of %d channels", ErrSizeOverflow, len(src), texels, from)
	}

	dst := make([]byte, texels*to)
	for i := 0; i < texels; i++ {
		s := src[i*from : i*from+from]
		d := dst[i*to : i*to+to]

		var r, g, b, a uint8
		switch from {
		case 1:
			r, g, b, a = s[0], s[0], s[0], 255
		case 2:
			r, g, b, a = s[0], s[0], s[0], s[1]
		case 3:
			r, g, b, a = s[0], s[1], s[2], 255
		default:
			r, g, b, a = s[0], s[1], s[2], s[3]
		}

		switch to {
		case 1:
			if from <= 2 {
				d[0] = r
			} else {
				d[0] = luma(r, g, b)
			}
		case 2:
			if from <= 2 {
				d[0] = r
			} else {
				d[0] = luma(r, g, b)
			}
			d[1] = a
		case 3:
			d[0], d[1], d[2] = r, g, b
		default:
			d[0], d[1], d[2], d[3] = r, g, b, a
		}
	}

	return dst, nil
}

// hasRealAlpha reports whether any 4-channel texel is not fully opaque.
// Buffers that are not 8 bits per channel are assumed to carry alpha.
func hasRealAlpha(pix []byte, channels, bitDepth int) bool {
	if channels != 4 {
		return false
	}
	if bitDepth != 32 {
		return true
	}

	for i := 3; i < len(pix); i += 4 {
		if pix[i] < 255 {
			return true
		}
	}

	return false
}

// swapRedBlue exchanges the first and third byte of every texel in place.
func swapRedBlue(pix []byte, stride int) {
	if stride < 3 {
		return
	}
	for i := 0; i+stride <= len(pix); i += stride {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
