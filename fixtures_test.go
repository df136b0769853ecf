package dds

import (
	"bytes"
	"image"
	"image/color"

	"github.com/woozymasta/bcn"
)

// baseHeader returns a minimal valid header without a pixel format mode.
func baseHeader(width, height int) Header {
	h := Header{DDSHeader: bcn.DDSHeader{
		Size:   bcn.DDSHeaderSize,
		Flags:  requiredFlags,
		Width:  uint32(width),  //nolint:gosec // test sizes
		Height: uint32(height), //nolint:gosec // test sizes
		Caps:   CapsTexture,
	}}
	h.PixelFormat.Size = bcn.DDSPixelFormatSize

	return h
}

// compressedHeader returns a header for a FOURCC payload.
func compressedHeader(width, height int, fourCC string, mips int) Header {
	h := baseHeader(width, height)
	h.PixelFormat.Flags = PFFourCC
	h.PixelFormat.FourCC = makeFourCC(fourCC[0], fourCC[1], fourCC[2], fourCC[3])
	if mips > 1 {
		h.Flags |= FlagMipmapCount
		h.Caps |= CapsComplex | CapsMipmap
		h.MipMapCount = uint32(mips) //nolint:gosec // test sizes
	}

	return h
}

// rawHeader returns a header for an uncompressed payload with a pitch.
func rawHeader(width, height, bitsPerPixel int, alpha bool) Header {
	h := baseHeader(width, height)
	h.Flags |= FlagPitch
	h.PitchOrLinearSize = uint32(width * bitsPerPixel / 8) //nolint:gosec // test sizes
	h.PixelFormat.Flags = PFRGB
	h.PixelFormat.RGBBitCount = uint32(bitsPerPixel) //nolint:gosec // test sizes
	if alpha {
		h.PixelFormat.Flags |= PFAlphaPixels
	}

	return h
}

// buildDDS assembles magic, header and payload chunks.
func buildDDS(h Header, payload ...[]byte) []byte {
	var buf bytes.Buffer
	if err := bcn.WriteDDSMagic(&buf); err != nil {
		panic(err)
	}
	if err := bcn.WriteDDSHeader(&buf, &h.DDSHeader); err != nil {
		panic(err)
	}
	for _, p := range payload {
		buf.Write(p)
	}

	return buf.Bytes()
}

// dxt1Block packs two 565 endpoints and one 2-bit index per texel.
func dxt1Block(c0, c1 uint16, indices [16]uint8) []byte {
	b := []byte{byte(c0), byte(c0 >> 8), byte(c1), byte(c1 >> 8), 0, 0, 0, 0}
	for i, idx := range indices {
		b[4+i/4] |= (idx & 3) << (2 * (i % 4))
	}

	return b
}

// solidDXT1 returns a block where every texel uses endpoint 0.
func solidDXT1(c uint16) []byte {
	return dxt1Block(c, 0, [16]uint8{})
}

// rowIndices gives every row the indices 0, 1, 2, 3.
func rowIndices() [16]uint8 {
	var idx [16]uint8
	for i := range idx {
		idx[i] = uint8(i % 4) //nolint:gosec // bounded
	}

	return idx
}

// patternImage builds a deterministic NRGBA image with varying alpha.
func patternImage(width, height int, opaque bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a := uint8(255)
			if !opaque {
				a = uint8(128 + (x+y)%100) //nolint:gosec // bounded
			}
			img.Set(x, y, color.NRGBA{
				R: uint8((x * 16) & 0xff), //nolint:gosec // bounded by mask
				G: uint8((y * 16) & 0xff), //nolint:gosec // bounded by mask
				B: 90,
				A: a,
			})
		}
	}

	return img
}

// solidImage builds a single-color NRGBA image.
func solidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}

	return img
}
