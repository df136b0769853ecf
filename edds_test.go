package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/bcn"
)

// noise returns deterministic bytes that LZ4 cannot shrink.
func noise(n int) []byte {
	out := make([]byte, n)
	x := uint32(2463534242)
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = byte(x)
	}

	return out
}

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]byte, 128*1024)
	for i := range data {
		data[i] = byte((i*31 + 7) & 0xff)
	}

	block, err := compressBlock(data)
	if err != nil {
		t.Fatalf("compressBlock: %v", err)
	}
	if block.Magic != BlockMagicLZ4 {
		t.Fatalf("expected LZ4 block, got %q", block.Magic)
	}

	out, err := decompressBlock(block, len(data))
	if err != nil {
		t.Fatalf("decompressBlock: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestCompressBlockBodyRoundTrip(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 20000)

	block, err := compressBlock(data)
	if err != nil {
		t.Fatalf("compressBlock: %v", err)
	}

	var body bytes.Buffer
	if err := writeBlockData(&body, block); err != nil {
		t.Fatalf("writeBlockData: %v", err)
	}
	if got := int(binary.LittleEndian.Uint32(body.Bytes())); got != len(data) {
		t.Fatalf("size prefix = %d, want %d", got, len(data))
	}

	read, err := readBlockBody(bytes.NewReader(body.Bytes()), blockHeader{Magic: block.Magic, Size: int32(body.Len())}) //nolint:gosec // test size
	if err != nil {
		t.Fatalf("readBlockBody: %v", err)
	}

	out, err := decompressBlock(read, len(data))
	if err != nil {
		t.Fatalf("decompressBlock: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestCompressBlockFallsBackToCopy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "small", data: bytes.Repeat([]byte{0}, copyThreshold-1)},
		{name: "incompressible", data: noise(3 * ChunkSize)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			block, err := compressBlock(tc.data)
			if err != nil {
				t.Fatalf("compressBlock: %v", err)
			}
			if block.Magic != BlockMagicCOPY {
				t.Fatalf("expected COPY block, got %q", block.Magic)
			}
			if int(block.Size) != len(tc.data) {
				t.Fatalf("COPY size = %d, want %d", block.Size, len(tc.data))
			}
		})
	}
}

func TestDecompressCopySizeMismatch(t *testing.T) {
	t.Parallel()

	block := &mipBlock{Magic: BlockMagicCOPY, Size: 4, Data: []byte{1, 2, 3, 4}}
	if _, err := decompressBlock(block, 8); !errors.Is(err, ErrCopySizeMismatch) {
		t.Fatalf("expected ErrCopySizeMismatch, got %v", err)
	}
}

func TestDecodeChunkStreamErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		target  int
		wantErr error
	}{
		{name: "empty", data: nil, target: 16, wantErr: ErrChunkStreamTruncated},
		{name: "unknown-flags", data: []byte{1, 0, 0, 0x01, 0}, target: 16, wantErr: ErrUnknownLZ4Flags},
		{name: "zero-size", data: []byte{0, 0, 0, chunkLast}, target: 16, wantErr: ErrInvalidChunkSize},
		{name: "size-past-end", data: []byte{9, 0, 0, chunkLast, 0, 0}, target: 16, wantErr: ErrInvalidChunkSize},
		// a literal-only sequence of four bytes, short of the target
		{name: "short-output", data: []byte{5, 0, 0, chunkLast, 0x40, 'a', 'b', 'c', 'd'}, target: 16, wantErr: ErrDecodedSizeMismatch},
		{name: "trailing-bytes", data: []byte{5, 0, 0, chunkLast, 0x40, 'a', 'b', 'c', 'd', 0xff}, target: 4, wantErr: ErrBlockLengthMismatch},
		{name: "missing-last-chunk", data: []byte{5, 0, 0, 0, 0x40, 'a', 'b', 'c', 'd'}, target: 16, wantErr: ErrChunkStreamTruncated},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeChunkStream(tc.data, tc.target)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("decodeChunkStream() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestDecodeChunkStreamLiteral(t *testing.T) {
	t.Parallel()

	out, err := decodeChunkStream([]byte{5, 0, 0, chunkLast, 0x40, 'a', 'b', 'c', 'd'}, 4)
	if err != nil {
		t.Fatalf("decodeChunkStream: %v", err)
	}
	if string(out) != "abcd" {
		t.Fatalf("decodeChunkStream() = %q, want abcd", out)
	}
}

func TestReadBlockTableErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown-magic", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = buf.WriteString("ABCD")
		_ = binary.Write(&buf, binary.LittleEndian, int32(8))

		_, err := readBlockTable(bytes.NewReader(buf.Bytes()), 1)
		if !errors.Is(err, ErrBlockTableUnknownMagic) {
			t.Fatalf("expected ErrBlockTableUnknownMagic, got %v", err)
		}
	})

	t.Run("negative-size", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = buf.WriteString(BlockMagicCOPY)
		_ = binary.Write(&buf, binary.LittleEndian, int32(-1))

		_, err := readBlockTable(bytes.NewReader(buf.Bytes()), 1)
		if !errors.Is(err, ErrBlockTableInvalidSize) {
			t.Fatalf("expected ErrBlockTableInvalidSize, got %v", err)
		}
	})

	t.Run("short", func(t *testing.T) {
		t.Parallel()

		_, err := readBlockTable(bytes.NewReader([]byte("COPY")), 1)
		if !errors.Is(err, ErrBlockTableRead) {
			t.Fatalf("expected ErrBlockTableRead, got %v", err)
		}
	})
}

// eddsFile builds an EDDS container by hand: table smallest mip first.
func eddsFile(h Header, levels ...[]byte) []byte {
	h.Reserved1[1] = enfusionMarker

	var table, bodies bytes.Buffer
	for i := len(levels) - 1; i >= 0; i-- {
		table.WriteString(BlockMagicCOPY)
		_ = binary.Write(&table, binary.LittleEndian, int32(len(levels[i]))) //nolint:gosec // test size
		bodies.Write(levels[i])
	}

	return buildDDS(h, table.Bytes(), bodies.Bytes())
}

func TestDecodeEnfusionCopyBlocks(t *testing.T) {
	t.Parallel()

	level0 := bytes.Repeat(solidDXT1(0xF800), 4)
	data := eddsFile(compressedHeader(8, 8, "DXT1", 4), level0, solidDXT1(0x07E0), solidDXT1(0x001F), solidDXT1(0xFFFF))

	img, err := DecodeBytes(data, nil)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if !img.Header.Enfusion() {
		t.Fatalf("expected ENF1 marker in header")
	}

	want := [][]byte{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}}
	for mip, rgb := range want {
		pix, _, _, err := img.Level(0, mip)
		if err != nil {
			t.Fatalf("Level(0, %d): %v", mip, err)
		}
		if !bytes.Equal(pix[:3], rgb) {
			t.Fatalf("mip %d first texel = %v, want %v", mip, pix[:3], rgb)
		}
	}
}

func TestDecodeEnfusionErrors(t *testing.T) {
	t.Parallel()

	cube := compressedHeader(4, 4, "DXT1", 1)
	cube.Caps2 = Caps2Cubemap | Caps2CubemapAllFaces

	badMagic := eddsFile(compressedHeader(4, 4, "DXT1", 1), solidDXT1(0xF800))
	copy(badMagic[HeaderSize:], "ABCD")

	badSize := eddsFile(compressedHeader(4, 4, "DXT1", 1), make([]byte, 6))

	longChain := compressedHeader(4, 4, "DXT1", 33)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "cubemap", data: eddsFile(cube, solidDXT1(0xF800)), want: ErrEDDSFaces},
		{name: "unknown-block-magic", data: badMagic, want: ErrReadBlockTable},
		{name: "copy-size-mismatch", data: badSize, want: ErrDecompressBlock},
		{name: "too-many-mips", data: eddsFile(longChain, solidDXT1(0xF800)), want: ErrTooManyMips},
		{name: "truncated-body", data: eddsFile(compressedHeader(4, 4, "DXT1", 1), solidDXT1(0xF800))[:HeaderSize+8+4], want: ErrReadBlockBody},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := DecodeBytes(tc.data, nil); !errors.Is(err, tc.want) {
				t.Fatalf("DecodeBytes() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestWriteReadEDDS(t *testing.T) {
	t.Parallel()

	img := patternImage(8, 8, true)

	tests := []struct {
		name     string
		compress bool
	}{
		{name: "copy", compress: false},
		{name: "lz4", compress: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "test.edds")

			err := Write(path, []image.Image{img}, &WriteOptions{
				Format:   bcn.FormatBGRA8,
				EDDS:     true,
				Compress: tc.compress,
			})
			if err != nil {
				t.Fatalf("Write: %v", err)
			}

			got, err := ReadFile(path, nil)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !got.Header.Enfusion() {
				t.Fatalf("expected ENF1 marker")
			}

			gotImg, err := got.NRGBA(0, 0)
			if err != nil {
				t.Fatalf("NRGBA: %v", err)
			}
			if !bytes.Equal(gotImg.Pix, img.Pix) {
				_ = os.WriteFile(filepath.Join(dir, "got.raw"), gotImg.Pix, 0o644)
				_ = os.WriteFile(filepath.Join(dir, "want.raw"), img.Pix, 0o644)
				t.Fatalf("pixel mismatch")
			}
		})
	}
}

func TestWriteReadEDDSLZ4Blocks(t *testing.T) {
	t.Parallel()

	const size = 64
	want := color.NRGBA{R: 10, G: 20, B: 30, A: 255}

	var buf bytes.Buffer
	err := Encode(&buf, []image.Image{solidImage(size, size, want)}, &WriteOptions{
		Format:   bcn.FormatBGRA8,
		EDDS:     true,
		Compress: true,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// the largest mip is the last table entry
	mips, err := calculateMipMapCount(size, size)
	if err != nil {
		t.Fatalf("calculateMipMapCount: %v", err)
	}
	last := buf.Bytes()[HeaderSize+(mips-1)*8:]
	if magic := string(last[:4]); magic != BlockMagicLZ4 {
		t.Fatalf("largest mip stored as %q, want LZ4", magic)
	}

	got, err := DecodeBytes(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if got.Mips != mips || got.Channels != 3 {
		t.Fatalf("mips=%d channels=%d, want %d/3", got.Mips, got.Channels, mips)
	}
	for i := 0; i < len(got.Pix); i += 3 {
		if got.Pix[i] != want.R || got.Pix[i+1] != want.G || got.Pix[i+2] != want.B {
			t.Fatalf("texel %d = %v", i/3, got.Pix[i:i+3])
		}
	}
}

func TestForcedEDDSWithoutMarker(t *testing.T) {
	t.Parallel()

	data := eddsFile(compressedHeader(4, 4, "DXT1", 1), solidDXT1(0x07E0))
	// clear ENF1
	binary.LittleEndian.PutUint32(data[4+28+4:], 0)

	img, err := DecodeBytes(data, &ReadOptions{EDDS: true})
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if !bytes.Equal(img.Pix[:3], []byte{0, 255, 0}) {
		t.Fatalf("first texel = %v, want green", img.Pix[:3])
	}

	path := filepath.Join(t.TempDir(), "plain-header.edds")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadFile(path, nil); err != nil {
		t.Fatalf("ReadFile with .edds extension: %v", err)
	}
}
