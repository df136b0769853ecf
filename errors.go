package dds

import (
	"errors"
	"fmt"
)

// ErrNotDDS is wrapped by every structural header rejection, so callers can
// fall through to another decoder with errors.Is(err, ErrNotDDS).
var ErrNotDDS = errors.New("not a DDS container")

var (
	// ErrHeaderRead indicates the 128-byte header could not be read.
	ErrHeaderRead = fmt.Errorf("%w: reading header failed", ErrNotDDS)
	// ErrBadMagic indicates the magic is not "DDS ".
	ErrBadMagic = fmt.Errorf("%w: bad magic", ErrNotDDS)
	// ErrBadHeaderSize indicates the declared header size is not 124.
	ErrBadHeaderSize = fmt.Errorf("%w: bad header size", ErrNotDDS)
	// ErrMissingFlags indicates caps, height, width or pixel format flags are missing.
	ErrMissingFlags = fmt.Errorf("%w: missing required header flags", ErrNotDDS)
	// ErrBadPixelFormatSize indicates the pixel format size is not 32.
	ErrBadPixelFormatSize = fmt.Errorf("%w: bad pixel format size", ErrNotDDS)
	// ErrNoPixelFormat indicates neither FOURCC nor RGB pixel format flags are set.
	ErrNoPixelFormat = fmt.Errorf("%w: no FOURCC or RGB pixel format", ErrNotDDS)
	// ErrNotTexture indicates the texture capability is missing.
	ErrNotTexture = fmt.Errorf("%w: missing texture capability", ErrNotDDS)
)

var (
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrTooManyMips indicates an EDDS block table longer than any 32-bit texture needs.
	ErrTooManyMips = errors.New("too many mipmaps")
	// ErrUnsupportedVariant indicates a FOURCC past DXT5.
	ErrUnsupportedVariant = errors.New("unsupported compression variant")
	// ErrUnsupportedBitDepth indicates a raw bit depth that is not whole bytes per channel.
	ErrUnsupportedBitDepth = errors.New("unsupported raw bit depth")
	// ErrInvalidChannels indicates a channel count outside 1..4.
	ErrInvalidChannels = errors.New("invalid channel count")
	// ErrTruncated indicates pixel data ends before the layout does.
	ErrTruncated = errors.New("pixel data truncated")
	// ErrSeek indicates the stream position could not be read or restored.
	ErrSeek = errors.New("seek failed")
	// ErrReadInput indicates the input stream failed before any header check.
	ErrReadInput = errors.New("read input failed")
	// ErrOpenFile indicates file open failed.
	ErrOpenFile = errors.New("open file failed")
	// ErrLevelOutOfRange indicates a face or mip index past the image.
	ErrLevelOutOfRange = errors.New("level out of range")
	// ErrUnsupportedConversion indicates a level cannot be converted to image.Image.
	ErrUnsupportedConversion = errors.New("unsupported image conversion")
)

var (
	// ErrDecompressInput indicates an LZ4 or zstd wrapped input failed to inflate.
	ErrDecompressInput = errors.New("decompress input failed")
	// ErrCompressOutput indicates the output compression layer failed.
	ErrCompressOutput = errors.New("compress output failed")
	// ErrInvalidWrapping indicates an unknown Wrapping value.
	ErrInvalidWrapping = errors.New("invalid wrapping")
)

var (
	// ErrEDDSFaces indicates an EDDS container with more than one face.
	ErrEDDSFaces = errors.New("EDDS supports a single face")
	// ErrReadBlockTable indicates block table read failed.
	ErrReadBlockTable = errors.New("read block table failed")
	// ErrBlockTableRead indicates a block table entry could not be read.
	ErrBlockTableRead = errors.New("reading block table entry failed")
	// ErrBlockTableUnknownMagic indicates unknown block magic in table.
	ErrBlockTableUnknownMagic = errors.New("unknown block magic in table")
	// ErrBlockTableInvalidSize indicates invalid size in block table.
	ErrBlockTableInvalidSize = errors.New("invalid block size in table")
	// ErrReadBlockBody indicates block body read failed.
	ErrReadBlockBody = errors.New("read block body failed")
	// ErrDecompressBlock indicates block decompression failed.
	ErrDecompressBlock = errors.New("decompress block failed")
	// ErrCopySizeMismatch indicates COPY block data size mismatch.
	ErrCopySizeMismatch = errors.New("COPY block size mismatch")
	// ErrInvalidTargetSize indicates invalid decoded target size.
	ErrInvalidTargetSize = errors.New("invalid target size")
	// ErrChunkStreamTruncated indicates LZ4 chunk stream is truncated.
	ErrChunkStreamTruncated = errors.New("LZ4 chunk-stream truncated")
	// ErrUnknownLZ4Flags indicates unknown LZ4 chunk flags.
	ErrUnknownLZ4Flags = errors.New("unknown LZ4 flags")
	// ErrInvalidChunkSize indicates invalid LZ4 chunk size.
	ErrInvalidChunkSize = errors.New("invalid compressed chunk size")
	// ErrDecodeOverrun indicates decoded data overruns target buffer.
	ErrDecodeOverrun = errors.New("decoded LZ4 overruns target buffer")
	// ErrLZ4Decode indicates LZ4 decode failed.
	ErrLZ4Decode = errors.New("LZ4 decode failed")
	// ErrDecodedSizeMismatch indicates decoded size mismatch.
	ErrDecodedSizeMismatch = errors.New("LZ4 decoded size mismatch")
	// ErrBlockLengthMismatch indicates leftover bytes after decode.
	ErrBlockLengthMismatch = errors.New("LZ4 block length mismatch")
	// ErrInputTooLarge indicates input data is too large to encode.
	ErrInputTooLarge = errors.New("input data too large")
	// ErrLZ4Compress indicates LZ4 compression failed.
	ErrLZ4Compress = errors.New("LZ4 compression failed")
	// ErrChunkTooLarge indicates a compressed chunk exceeds allowed size.
	ErrChunkTooLarge = errors.New("compressed chunk too large")
	// ErrCompressedDataTooLarge indicates compressed payload exceeds limits.
	ErrCompressedDataTooLarge = errors.New("compressed data too large")
)

var (
	// ErrInvalidFormat indicates unsupported output format.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrFaceCount indicates neither one face nor six cubemap faces.
	ErrFaceCount = errors.New("invalid face count")
	// ErrFaceSize indicates faces of different sizes or non-square cubemap faces.
	ErrFaceSize = errors.New("invalid face size")
	// ErrEmptyMipmaps indicates missing mipmap data.
	ErrEmptyMipmaps = errors.New("empty mipmaps")
	// ErrMipmapSizeMismatch indicates mipmap payload size mismatch.
	ErrMipmapSizeMismatch = errors.New("mipmap size mismatch")
	// ErrCompressMipmap indicates mipmap encoding failed.
	ErrCompressMipmap = errors.New("compress mipmap failed")
	// ErrCreateFile indicates file creation failed.
	ErrCreateFile = errors.New("create file failed")
	// ErrWriteDDSMagic indicates DDS magic write failed.
	ErrWriteDDSMagic = errors.New("writing DDS magic failed")
	// ErrWriteDDSHeader indicates DDS header write failed.
	ErrWriteDDSHeader = errors.New("writing DDS header failed")
	// ErrWriteBlockTable indicates block table write failed.
	ErrWriteBlockTable = errors.New("writing block table failed")
	// ErrWriteBlockData indicates block data write failed.
	ErrWriteBlockData = errors.New("writing block data failed")
)
