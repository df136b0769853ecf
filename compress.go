package dds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Wrapping is a whole-file compression layer around a container.
type Wrapping int

const (
	WrapNone Wrapping = iota
	WrapLZ4
	WrapZstd
)

const (
	lz4FrameMagic = 0x184D2204
	zstdMagic     = 0xFD2FB528
)

func (w Wrapping) String() string {
	switch w {
	case WrapLZ4:
		return "lz4"
	case WrapZstd:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file suffix conventionally used for the wrapping.
func (w Wrapping) Extension() string {
	switch w {
	case WrapLZ4:
		return ".lz4"
	case WrapZstd:
		return ".zst"
	default:
		return ""
	}
}

// SniffWrapping identifies an LZ4 frame or zstd stream by its magic.
func SniffWrapping(head []byte) Wrapping {
	if len(head) < 4 {
		return WrapNone
	}

	switch binary.LittleEndian.Uint32(head) {
	case lz4FrameMagic:
		return WrapLZ4
	case zstdMagic:
		return WrapZstd
	default:
		return WrapNone
	}
}

// Unwrap returns r itself for plain containers. LZ4 frame and zstd inputs
// are decompressed into memory and returned as a new reader.
func Unwrap(r io.ReadSeeker) (io.ReadSeeker, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeek, err)
	}

	var head [4]byte
	n, _ := io.ReadFull(r, head[:])
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeek, err)
	}

	var data []byte
	switch SniffWrapping(head[:n]) {
	case WrapLZ4:
		data, err = io.ReadAll(lz4.NewReader(r))
	case WrapZstd:
		var dec *zstd.Decoder
		dec, err = zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrDecompressInput, err)
		}
		defer dec.Close()
		data, err = io.ReadAll(dec)
	default:
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressInput, err)
	}

	return bytes.NewReader(data), nil
}

// nopWriteCloser lets an unwrapped writer share the wrapped code path.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// wrapWriter returns a writer compressing into w. Close flushes the
// compression layer but leaves w open.
func wrapWriter(w io.Writer, wrap Wrapping) (io.WriteCloser, error) {
	switch wrap {
	case WrapNone:
		return nopWriteCloser{w}, nil
	case WrapLZ4:
		return lz4.NewWriter(w), nil
	case WrapZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCompressOutput, err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidWrapping, int(wrap))
	}
}
