package dds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const (
	// BlockMagicCOPY marks an uncompressed EDDS mip block.
	BlockMagicCOPY = "COPY"
	// BlockMagicLZ4 marks an LZ4 chunk-stream EDDS mip block.
	BlockMagicLZ4 = "LZ4 "

	// ChunkSize is the Enfusion chunk size for LZ4 streams.
	ChunkSize = 64 * 1024

	// chunkLast flags the final chunk of a stream.
	chunkLast = 0x80

	// copyThreshold is the size below which blocks are never compressed.
	copyThreshold = 1024
)

// mipBlock is one EDDS mip level body.
type mipBlock struct {
	Magic            string
	Data             []byte
	Size             int32
	UncompressedSize int32
}

type blockHeader struct {
	Magic string
	Size  int32
}

// enfusionPayload reads the EDDS block table and bodies that follow the
// header and returns the mip levels concatenated largest first, the order
// a plain DDS payload uses.
func enfusionPayload(r io.Reader, l layout, limit int) ([]byte, error) {
	if l.faces != 1 {
		return nil, fmt.Errorf("%w: %d faces", ErrEDDSFaces, l.faces)
	}
	// Every declared mip has a table entry, even the empty ones.
	if l.mips > maxMipLevels {
		return nil, fmt.Errorf("%w: %d", ErrTooManyMips, l.mips)
	}

	table, err := readBlockTable(r, l.mips)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadBlockTable, err)
	}

	levels := make([][]byte, l.mips)
	for i, entry := range table {
		mip := l.mips - i - 1
		if int(entry.Size) > limit {
			return nil, fmt.Errorf("%w: mipmap %d: %d bytes", ErrBlockTableInvalidSize, mip, entry.Size)
		}

		block, err := readBlockBody(r, entry)
		if err != nil {
			return nil, fmt.Errorf("%w: mipmap %d: %v", ErrReadBlockBody, mip, err)
		}

		expected := l.levelStreamSize(mip)
		data, err := decompressBlock(block, expected)
		if err != nil {
			return nil, fmt.Errorf("%w: mipmap %d: %v", ErrDecompressBlock, mip, err)
		}
		if len(data) != expected {
			return nil, fmt.Errorf("%w: mipmap %d: expected %d, got %d", ErrMipmapSizeMismatch, mip, expected, len(data))
		}

		levels[mip] = data
	}

	return bytes.Join(levels, nil), nil
}

func readBlockTable(r io.Reader, count int) ([]blockHeader, error) {
	hdrs := make([]blockHeader, 0, count)
	var entry [8]byte
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return nil, fmt.Errorf("%w: %d: %v", ErrBlockTableRead, i, err)
		}

		magic := string(entry[:4])
		size := int32(binary.LittleEndian.Uint32(entry[4:])) //nolint:gosec // sign checked below
		if magic != BlockMagicCOPY && magic != BlockMagicLZ4 {
			return nil, fmt.Errorf("%w: %d: %q", ErrBlockTableUnknownMagic, i, magic)
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: %d: %d", ErrBlockTableInvalidSize, i, size)
		}

		hdrs = append(hdrs, blockHeader{Magic: magic, Size: size})
	}

	return hdrs, nil
}

func readBlockBody(r io.Reader, h blockHeader) (*mipBlock, error) {
	data := make([]byte, h.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTruncated, h.Magic, err)
	}

	return &mipBlock{Magic: h.Magic, Size: h.Size, Data: data}, nil
}

// decompressBlock inflates an EDDS block into raw level data.
func decompressBlock(block *mipBlock, expected int) ([]byte, error) {
	switch block.Magic {
	case BlockMagicCOPY:
		if len(block.Data) != expected {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrCopySizeMismatch, expected, len(block.Data))
		}
		return block.Data, nil
	case BlockMagicLZ4:
	default:
		return nil, fmt.Errorf("%w: %q", ErrBlockTableUnknownMagic, block.Magic)
	}

	target := expected
	if block.UncompressedSize > 0 {
		target = int(block.UncompressedSize)
	}

	// LZ4 bodies start with the int32 uncompressed size.
	data := block.Data
	if len(data) >= 8 {
		declared := int(binary.LittleEndian.Uint32(data[:4]))
		first := int(data[4]) | int(data[5])<<8 | int(data[6])<<16
		if (declared == expected || declared == target) && first > 0 && first < 1<<20 {
			target = declared
			data = data[4:]
		}
	}
	if target <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTargetSize, target)
	}

	return decodeChunkStream(data, target)
}

// decodeChunkStream decodes Enfusion LZ4 chunks into a buffer of size target.
// Each chunk has a 3-byte little-endian compressed size and a flag byte.
func decodeChunkStream(data []byte, target int) ([]byte, error) {
	out := make([]byte, target)
	pos, n := 0, 0

	for {
		if len(data)-pos < 4 {
			return nil, fmt.Errorf("%w: need 4 bytes header, have %d", ErrChunkStreamTruncated, len(data)-pos)
		}
		cSize := int(data[pos]) | int(data[pos+1])<<8 | int(data[pos+2])<<16
		flags := data[pos+3]
		pos += 4

		if flags&^chunkLast != 0 {
			return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownLZ4Flags, flags)
		}
		if cSize <= 0 || cSize > len(data)-pos {
			return nil, fmt.Errorf("%w: %d (remaining %d)", ErrInvalidChunkSize, cSize, len(data)-pos)
		}
		if n >= target {
			return nil, ErrDecodeOverrun
		}

		// The previous 64 KiB of output is the dictionary for the next chunk.
		dict := out[max(0, n-ChunkSize):n]
		dst := out[n:min(n+ChunkSize, target)]
		m, err := lz4.UncompressBlockWithDict(data[pos:pos+cSize], dst, dict)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Decode, err)
		}
		pos += cSize

		n += m

		if flags&chunkLast != 0 {
			break
		}
	}

	if n != target {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDecodedSizeMismatch, target, n)
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d bytes left after decode", ErrBlockLengthMismatch, len(data)-pos)
	}

	return out, nil
}

// compressBlock compresses raw level data into an LZ4 chunk stream, or
// returns a COPY block when compression does not pay off.
func compressBlock(data []byte) (*mipBlock, error) {
	rawSize, err := i32FromInt(len(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrInputTooLarge, len(data))
	}

	copyBlock := &mipBlock{Magic: BlockMagicCOPY, Size: rawSize, Data: data}
	if len(data) < copyThreshold {
		return copyBlock, nil
	}

	var stream bytes.Buffer
	scratch := make([]byte, lz4.CompressBlockBound(ChunkSize))

	for i := 0; i < len(data); i += ChunkSize {
		end := min(i+ChunkSize, len(data))
		chunk := data[i:end]

		cn, err := lz4.CompressBlockHC(chunk, scratch, 0, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Compress, err)
		}
		if cn == 0 || float64(cn) > float64(len(chunk))*0.85 {
			return copyBlock, nil
		}
		if cn > 0x7FFFFF {
			return nil, fmt.Errorf("%w: %d", ErrChunkTooLarge, cn)
		}

		flags := byte(0)
		if end == len(data) {
			flags = chunkLast
		}
		stream.Write([]byte{byte(cn), byte(cn >> 8), byte(cn >> 16), flags})
		stream.Write(scratch[:cn])
	}

	total := 4 + stream.Len()
	if float64(total) > float64(len(data))*0.85 {
		return copyBlock, nil
	}
	size, err := i32FromInt(total)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrCompressedDataTooLarge, total)
	}

	return &mipBlock{
		Magic:            BlockMagicLZ4,
		Size:             size,
		UncompressedSize: rawSize,
		Data:             stream.Bytes(),
	}, nil
}

// writeBlockData writes the block payload (no table entry).
func writeBlockData(w io.Writer, block *mipBlock) error {
	if block.Magic == BlockMagicLZ4 {
		var prefix [4]byte
		binary.LittleEndian.PutUint32(prefix[:], uint32(block.UncompressedSize)) //nolint:gosec // non-negative by construction
		if _, err := w.Write(prefix[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteBlockData, err)
		}
	}
	if _, err := w.Write(block.Data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteBlockData, err)
	}

	return nil
}
