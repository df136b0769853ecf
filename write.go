package dds

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/woozymasta/bcn"
)

// maxEnfusionMipMaps is the deepest mip chain Enfusion tooling writes.
const maxEnfusionMipMaps = 11

// WriteOptions configures DDS/EDDS writing.
type WriteOptions struct {
	// EncodeOptions are passed to the BCn encoder (e.g. QualityLevel, Workers).
	EncodeOptions *bcn.EncodeOptions

	// Format is DXT1, DXT3, DXT5 or BGRA8. FormatUnknown selects BGRA8.
	Format bcn.Format

	// MaxMipMaps limits the mip chain. Zero writes the full chain.
	MaxMipMaps int

	// EDDS writes an Enfusion block table instead of a plain payload.
	EDDS bool

	// Compress stores EDDS mip blocks as LZ4 chunk streams when smaller.
	Compress bool

	// Wrap compresses the whole file with an LZ4 frame or zstd.
	Wrap Wrapping
}

func (o *WriteOptions) format() bcn.Format {
	if o == nil || o.Format == bcn.FormatUnknown {
		return bcn.FormatBGRA8
	}
	return o.Format
}

// Write encodes one image, or six cubemap faces, into a file.
func Write(path string, faces []image.Image, opts *WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}

	bw := bufio.NewWriter(f)
	if err := Encode(bw, faces, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}

	return f.Close()
}

// Encode encodes one image, or six equally sized square cubemap faces
// (+X, -X, +Y, -Y, +Z, -Z), with a generated mip chain.
func Encode(w io.Writer, faces []image.Image, opts *WriteOptions) error {
	if len(faces) != 1 && len(faces) != 6 {
		return fmt.Errorf("%w: %d", ErrFaceCount, len(faces))
	}

	bounds := faces[0].Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	for i, face := range faces[1:] {
		if face.Bounds().Dx() != width || face.Bounds().Dy() != height {
			return fmt.Errorf("%w: face %d is %dx%d, want %dx%d", ErrFaceSize, i+1, face.Bounds().Dx(), face.Bounds().Dy(), width, height)
		}
	}
	if len(faces) == 6 && width != height {
		return fmt.Errorf("%w: cubemap faces must be square, got %dx%d", ErrFaceSize, width, height)
	}

	mipMapCount, err := calculateMipMapCount(width, height)
	if err != nil {
		return err
	}
	if opts != nil && opts.EDDS && mipMapCount > maxEnfusionMipMaps {
		mipMapCount = maxEnfusionMipMaps
	}
	if opts != nil && opts.MaxMipMaps > 0 && opts.MaxMipMaps < mipMapCount {
		mipMapCount = opts.MaxMipMaps
	}

	format := opts.format()
	var encOpts *bcn.EncodeOptions
	if opts != nil {
		encOpts = opts.EncodeOptions
	}

	levels := make([][][]byte, len(faces))
	for fi, face := range faces {
		mips := bcn.GenerateMipmaps(face, false)
		if len(mips) > mipMapCount {
			mips = mips[:mipMapCount]
		}

		levels[fi] = make([][]byte, len(mips))
		for i, mip := range mips {
			data, _, _, err := bcn.EncodeImageWithOptions(mip, format, encOpts)
			if err != nil {
				return fmt.Errorf("%w: face %d mipmap %d: %v", ErrCompressMipmap, fi, i, err)
			}
			levels[fi][i] = data
		}
	}

	return EncodeLevels(w, format, width, height, levels, opts)
}

// EncodeLevels writes pre-encoded payloads. faces[f][m] is mip m of face f,
// mips ordered from largest to smallest; six faces make a cubemap.
func EncodeLevels(w io.Writer, format bcn.Format, width, height int, faces [][][]byte, opts *WriteOptions) error {
	if len(faces) != 1 && len(faces) != 6 {
		return fmt.Errorf("%w: %d", ErrFaceCount, len(faces))
	}
	if len(faces[0]) == 0 {
		return ErrEmptyMipmaps
	}
	mipMapCount := len(faces[0])

	edds := opts != nil && opts.EDDS
	if edds && len(faces) != 1 {
		return fmt.Errorf("%w: %d faces", ErrEDDSFaces, len(faces))
	}

	for fi, face := range faces {
		if len(face) != mipMapCount {
			return fmt.Errorf("%w: face %d has %d mipmaps, want %d", ErrMipmapSizeMismatch, fi, len(face), mipMapCount)
		}
		for i, mip := range face {
			expected := expectedDataLength(format, mipDimension(width, i), mipDimension(height, i))
			if expected < 0 {
				return fmt.Errorf("%w: %v", ErrInvalidFormat, format)
			}
			if len(mip) != expected {
				return fmt.Errorf("%w: face %d mipmap %d: expected %d, got %d", ErrMipmapSizeMismatch, fi, i, expected, len(mip))
			}
		}
	}

	w32, err := u32FromInt(width)
	if err != nil {
		return err
	}
	h32, err := u32FromInt(height)
	if err != nil {
		return err
	}
	mip32, err := u32FromInt(mipMapCount)
	if err != nil {
		return err
	}

	header, err := makeHeader(w32, h32, mip32, format)
	if err != nil {
		return err
	}
	if len(faces) == 6 {
		header.Caps |= CapsComplex
		header.Caps2 = Caps2Cubemap | Caps2CubemapAllFaces
	}
	if edds {
		header.Reserved1[1] = enfusionMarker
	}

	var wrap Wrapping
	if opts != nil {
		wrap = opts.Wrap
	}
	out, err := wrapWriter(w, wrap)
	if err != nil {
		return err
	}

	if err := bcn.WriteDDSMagic(out); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSMagic, err)
	}
	if err := bcn.WriteDDSHeader(out, &header.DDSHeader); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSHeader, err)
	}

	if edds {
		err = writeEnfusionBlocks(out, faces[0], opts.Compress)
	} else {
		err = writeLevels(out, faces)
	}
	if err != nil {
		return err
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrCompressOutput, err)
	}

	return nil
}

func writeLevels(w io.Writer, faces [][][]byte) error {
	for fi, face := range faces {
		for i, mip := range face {
			if _, err := w.Write(mip); err != nil {
				return fmt.Errorf("%w: face %d mipmap %d: %v", ErrWriteBlockData, fi, i, err)
			}
		}
	}

	return nil
}

// writeEnfusionBlocks writes the block table and bodies, smallest mip first.
func writeEnfusionBlocks(w io.Writer, mipmaps [][]byte, compress bool) error {
	blocks := make([]*mipBlock, len(mipmaps))
	for i, mip := range mipmaps {
		if compress {
			block, err := compressBlock(mip)
			if err != nil {
				return fmt.Errorf("%w: mipmap %d: %v", ErrCompressMipmap, i, err)
			}
			blocks[i] = block
			continue
		}

		size, err := i32FromInt(len(mip))
		if err != nil {
			return err
		}
		blocks[i] = &mipBlock{Magic: BlockMagicCOPY, Size: size, Data: mip}
	}

	var entry [8]byte
	for i := len(blocks) - 1; i >= 0; i-- {
		copy(entry[:4], blocks[i].Magic)
		entry[4] = byte(blocks[i].Size)
		entry[5] = byte(blocks[i].Size >> 8)
		entry[6] = byte(blocks[i].Size >> 16)
		entry[7] = byte(blocks[i].Size >> 24)
		if _, err := w.Write(entry[:]); err != nil {
			return fmt.Errorf("%w: mipmap %d: %v", ErrWriteBlockTable, i, err)
		}
	}

	for i := len(blocks) - 1; i >= 0; i-- {
		if err := writeBlockData(w, blocks[i]); err != nil {
			return fmt.Errorf("mipmap %d: %w", i, err)
		}
	}

	return nil
}

// expectedDataLength returns the encoded size of one level, or -1.
func expectedDataLength(format bcn.Format, width, height int) int {
	blocksW := blockCount(width)
	blocksH := blockCount(height)
	switch format {
	case bcn.FormatDXT1:
		return blocksW * blocksH * 8
	case bcn.FormatDXT3, bcn.FormatDXT5:
		return blocksW * blocksH * 16
	case bcn.FormatBGRA8:
		return width * height * 4
	default:
		return -1
	}
}

func makeHeader(width, height, mipMapCount uint32, format bcn.Format) (*Header, error) {
	flags := requiredFlags
	caps := CapsTexture
	if mipMapCount > 1 {
		flags |= FlagMipmapCount
		caps |= CapsComplex | CapsMipmap
	}

	hdr := &Header{DDSHeader: bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       flags,
		Height:      height,
		Width:       width,
		Depth:       1,
		MipMapCount: mipMapCount,
		Caps:        caps,
	}}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize

	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4

	switch format {
	case bcn.FormatDXT1:
		hdr.Flags |= FlagLinearSize
		hdr.PitchOrLinearSize = blocksW * blocksH * 8
		hdr.PixelFormat.Flags = PFFourCC
		hdr.PixelFormat.FourCC = makeFourCC('D', 'X', 'T', '1')
	case bcn.FormatDXT3:
		hdr.Flags |= FlagLinearSize
		hdr.PitchOrLinearSize = blocksW * blocksH * 16
		hdr.PixelFormat.Flags = PFFourCC
		hdr.PixelFormat.FourCC = makeFourCC('D', 'X', 'T', '3')
	case bcn.FormatDXT5:
		hdr.Flags |= FlagLinearSize
		hdr.PitchOrLinearSize = blocksW * blocksH * 16
		hdr.PixelFormat.Flags = PFFourCC
		hdr.PixelFormat.FourCC = makeFourCC('D', 'X', 'T', '5')
	case bcn.FormatBGRA8:
		hdr.Flags |= FlagPitch
		hdr.PitchOrLinearSize = width * 4
		hdr.PixelFormat.Flags = PFRGB | PFAlphaPixels
		hdr.PixelFormat.RGBBitCount = 32
		hdr.PixelFormat.RBitMask = 0x00ff0000
		hdr.PixelFormat.GBitMask = 0x0000ff00
		hdr.PixelFormat.BBitMask = 0x000000ff
		hdr.PixelFormat.ABitMask = 0xff000000
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, format)
	}

	return hdr, nil
}
