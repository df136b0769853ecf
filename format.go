package dds

import (
	"encoding/binary"
	"fmt"

	"github.com/woozymasta/bcn"
)

const (
	// HeaderSize is the size of the magic plus the DDS header record.
	HeaderSize = 4 + headerRecordSize

	headerRecordSize = bcn.DDSHeaderSize
	pixelFormatSize  = bcn.DDSPixelFormatSize

	// Magic is the little-endian "DDS " tag.
	Magic = bcn.DDSMagic
)

// Header flags, pixel format flags and caps used by the decoder.
const (
	FlagCaps        = uint32(bcn.DDSFlagCaps)
	FlagHeight      = uint32(bcn.DDSFlagHeight)
	FlagWidth       = uint32(bcn.DDSFlagWidth)
	FlagPitch       = uint32(bcn.DDSFlagPitch)
	FlagPixelFormat = uint32(bcn.DDSFlagPixelFormat)
	FlagMipmapCount = uint32(bcn.DDSFlagMipmapCount)
	FlagLinearSize  = uint32(bcn.DDSFlagLinearSize)

	PFAlphaPixels = uint32(bcn.DDSPFAlphaPixels)
	PFFourCC      = uint32(bcn.DDSPFFourCC)
	PFRGB         = uint32(bcn.DDSPFRGB)

	CapsComplex = uint32(bcn.DDSCapsComplex)
	CapsTexture = uint32(bcn.DDSCapsTexture)
	CapsMipmap  = uint32(bcn.DDSCapsMipmap)

	Caps2Cubemap = uint32(bcn.DDSCaps2Cubemap)

	// Caps2CubemapAllFaces marks all six faces present.
	Caps2CubemapAllFaces = uint32(0x0000fc00)

	requiredFlags = FlagCaps | FlagHeight | FlagWidth | FlagPixelFormat

	// enfusionMarker is "ENF1" in Reserved1[1] of Enfusion DDS files.
	enfusionMarker = 0x31464e45

	maxMipLevels = 32
)

// Header is the parsed DDS header record that follows the magic.
type Header struct {
	bcn.DDSHeader
}

// parseHeader decodes and validates the 128 bytes of magic and header.
func parseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, ErrHeaderRead
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, buf[0:4])
	}

	h := &Header{}
	if _, err := binary.Decode(buf[4:HeaderSize], binary.LittleEndian, &h.DDSHeader); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderRead, err)
	}

	if err := h.validate(); err != nil {
		return nil, err
	}

	return h, nil
}

// validate checks the structural invariants every DDS header must satisfy.
func (h *Header) validate() error {
	if int(h.Size) != headerRecordSize {
		return fmt.Errorf("%w: %d", ErrBadHeaderSize, h.Size)
	}
	if h.Flags&requiredFlags != requiredFlags {
		return fmt.Errorf("%w: 0x%08x", ErrMissingFlags, h.Flags)
	}
	if int(h.PixelFormat.Size) != pixelFormatSize {
		return fmt.Errorf("%w: %d", ErrBadPixelFormatSize, h.PixelFormat.Size)
	}
	if h.PixelFormat.Flags&(PFFourCC|PFRGB) == 0 {
		return fmt.Errorf("%w: 0x%08x", ErrNoPixelFormat, h.PixelFormat.Flags)
	}
	if h.Caps&CapsTexture == 0 {
		return fmt.Errorf("%w: 0x%08x", ErrNotTexture, h.Caps)
	}

	return nil
}

// Compressed reports whether the pixel format carries a four-character code.
func (h *Header) Compressed() bool {
	return h.PixelFormat.Flags&PFFourCC != 0
}

// HasAlphaFlag reports whether the pixel format declares alpha pixels.
func (h *Header) HasAlphaFlag() bool {
	return h.PixelFormat.Flags&PFAlphaPixels != 0
}

// FourCC returns the four-character code as a string.
func (h *Header) FourCC() string {
	return intToFourCC(h.PixelFormat.FourCC)
}

// Enfusion reports whether the header carries the EDDS "ENF1" marker.
func (h *Header) Enfusion() bool {
	return h.Reserved1[1] == enfusionMarker
}

// Faces returns 6 for square cubemaps and 1 otherwise.
func (h *Header) Faces() int {
	if h.Caps2&Caps2Cubemap != 0 && h.Width == h.Height {
		return 6
	}

	return 1
}

// MipLevels returns the declared mip count, at least 1.
func (h *Header) MipLevels() int {
	if h.MipMapCount == 0 {
		return 1
	}

	return int(h.MipMapCount)
}

// Variant identifies a DXT block compression variant (1..5).
type Variant int

const (
	VariantNone Variant = 0
	VariantDXT1 Variant = 1
	VariantDXT2 Variant = 2
	VariantDXT3 Variant = 3
	VariantDXT4 Variant = 4
	VariantDXT5 Variant = 5
)

// variantFromFourCC derives the variant from the trailing digit of the code.
func variantFromFourCC(fourCC uint32) Variant {
	return Variant(1 + int(fourCC>>24) - '1')
}

// Valid reports whether v is one of the five DXT variants.
func (v Variant) Valid() bool {
	return v >= VariantDXT1 && v <= VariantDXT5
}

// BlockSize returns the encoded size of one 4x4 block.
func (v Variant) BlockSize() int {
	if v == VariantDXT1 {
		return 8
	}

	return 16
}

func (v Variant) String() string {
	if v.Valid() {
		return fmt.Sprintf("DXT%d", int(v))
	}

	return fmt.Sprintf("Variant(%d)", int(v))
}

func intToFourCC(value uint32) string {
	return string([]byte{
		byte(value & 0xff),
		byte((value >> 8) & 0xff),
		byte((value >> 16) & 0xff),
		byte((value >> 24) & 0xff),
	})
}

func makeFourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}
