package dds

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes bounds the decoded buffer when ReadOptions.MaxBytes is zero.
const DefaultMaxBytes = 1 << 30

// ReadOptions configures decoding.
type ReadOptions struct {
	// Channels requests the output channel count (1..4) for 8-bit data.
	// Zero keeps the decoded count, dropping alpha when it is fully opaque.
	Channels int

	// EDDS forces Enfusion block-table parsing without the "ENF1" marker.
	EDDS bool

	// MaxBytes bounds the decoded buffer size. Zero means DefaultMaxBytes.
	MaxBytes int
}

func (o *ReadOptions) channels() int {
	if o == nil {
		return 0
	}
	return o.Channels
}

func (o *ReadOptions) edds() bool {
	return o != nil && o.EDDS
}

func (o *ReadOptions) maxBytes() int {
	if o == nil || o.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return o.MaxBytes
}

// Info describes a container without decoding its pixels.
type Info struct {
	Width      int
	Height     int
	Faces      int
	Mips       int
	Channels   int
	Compressed bool
	FourCC     string
}

// Probe reports whether r starts with a DDS magic and header size.
// The read position is restored whatever the outcome.
func Probe(r io.ReadSeeker) bool {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	defer func() { _, _ = r.Seek(start, io.SeekStart) }()

	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return false
	}

	return probeBytes(buf[:])
}

// ProbeBytes reports whether data starts with a DDS magic and header size.
func ProbeBytes(data []byte) bool {
	if len(data) < 8 {
		return false
	}

	return probeBytes(data[:8])
}

func probeBytes(b []byte) bool {
	return binary.LittleEndian.Uint32(b[0:4]) == Magic &&
		int(binary.LittleEndian.Uint32(b[4:8])) == headerRecordSize
}

// ReadHeader reads and validates the magic and header. On failure the read
// position is restored so another decoder can probe the same stream.
func ReadHeader(r io.ReadSeeker) (*Header, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeek, err)
	}

	h, err := readHeader(r)
	if err != nil {
		if _, serr := r.Seek(start, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("%w (restoring position: %v)", err, serr)
		}
		return nil, err
	}

	return h, nil
}

func readHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderRead, err)
	}

	return parseHeader(buf)
}

// ReadInfo reads the header and reports the layout without decoding.
// The read position is restored.
func ReadInfo(r io.ReadSeeker) (Info, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrSeek, err)
	}
	defer func() { _, _ = r.Seek(start, io.SeekStart) }()

	h, err := readHeader(r)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Width:      int(h.Width),
		Height:     int(h.Height),
		Faces:      h.Faces(),
		Mips:       h.MipLevels(),
		Channels:   3,
		Compressed: h.Compressed(),
	}
	if info.Compressed {
		info.FourCC = h.FourCC()
	}
	if info.Compressed || h.HasAlphaFlag() {
		info.Channels = 4
	}

	return info, nil
}

// ReadConfig reads DDS file configuration without decoding image data.
func ReadConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	rs, err := Unwrap(f)
	if err != nil {
		return image.Config{}, err
	}

	info, err := ReadInfo(rs)
	if err != nil {
		return image.Config{}, err
	}

	return image.Config{
		Width:      info.Width,
		Height:     info.Height,
		ColorModel: color.NRGBAModel,
	}, nil
}

// ReadFile reads and decodes a DDS or EDDS file, optionally wrapped in an
// LZ4 frame or a zstd stream. Files with an .edds extension are read as EDDS.
func ReadFile(path string, opts *ReadOptions) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	rs, err := Unwrap(f)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}

	if isEDDSPath(path) && !opts.edds() {
		o := ReadOptions{EDDS: true}
		if opts != nil {
			o = *opts
			o.EDDS = true
		}
		opts = &o
	}

	img, err := Decode(rs, opts)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}

	return img, nil
}

func isEDDSPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(strings.TrimSuffix(path, ".lz4"), ".zst")))
	return ext == ".edds"
}

// DecodeBytes decodes a DDS container held in memory.
func DecodeBytes(data []byte, opts *ReadOptions) (*Image, error) {
	return Decode(bytes.NewReader(data), opts)
}

// Decode decodes a DDS container from r. On success r is left just past
// the container; if decoding fails the read position is restored to where
// it was when Decode was called.
func Decode(r io.ReadSeeker, opts *ReadOptions) (*Image, error) {
	req := opts.channels()
	if req < 0 || req > 4 {
		return nil, fmt.Errorf("%w: requested %d", ErrInvalidChannels, req)
	}

	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeek, err)
	}

	var (
		src io.Reader = r
		br  *bufio.Reader
	)
	if _, ok := r.(*bytes.Reader); !ok {
		br = bufio.NewReaderSize(r, 64*1024)
		src = br
	}

	img, err := decode(src, opts)
	if err != nil {
		if _, serr := r.Seek(start, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("%w (restoring position: %v)", err, serr)
		}
		return nil, err
	}

	// Hand back what bufio read ahead.
	if br != nil && br.Buffered() > 0 {
		if _, err := r.Seek(-int64(br.Buffered()), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSeek, err)
		}
	}

	return img, nil
}

func decode(r io.Reader, opts *ReadOptions) (*Image, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	l, err := resolveLayout(h)
	if err != nil {
		return nil, err
	}

	size, err := l.outputSize(opts.maxBytes())
	if err != nil {
		return nil, err
	}

	if h.Enfusion() || opts.edds() {
		payload, err := enfusionPayload(r, l, opts.maxBytes())
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(payload)
	}

	pix := make([]byte, size)
	if l.compressed() {
		err = decodeBlocks(r, pix, l)
	} else {
		err = readRaw(r, pix, l)
	}
	if err != nil {
		return nil, err
	}

	img := &Image{
		Pix:      pix,
		Width:    l.width,
		Height:   l.height,
		Faces:    l.faces,
		Mips:     l.mips,
		BitDepth: l.bitDepth,
		Channels: l.channels,
		Header:   *h,
	}

	if err := resolveChannels(img, l, opts.channels()); err != nil {
		return nil, err
	}

	return img, nil
}

// decodeBlocks decodes every block of every mip of every face into pix.
func decodeBlocks(r io.Reader, pix []byte, l layout) error {
	var (
		encoded [16]byte
		tile    Block
	)
	bs := l.variant.BlockSize()

	offset := 0
	for face := 0; face < l.faces; face++ {
		for mip := 0; mip < l.filled; mip++ {
			w := mipDimension(l.width, mip)
			h := mipDimension(l.height, mip)
			level := pix[offset : offset+w*h*4]

			bw, bh := blockCount(w), blockCount(h)
			for by := 0; by < bh; by++ {
				for bx := 0; bx < bw; bx++ {
					if _, err := io.ReadFull(r, encoded[:bs]); err != nil {
						return fmt.Errorf("%w: face %d mipmap %d block %d: %v", ErrTruncated, face, mip, by*bw+bx, err)
					}
					DecodeBlock(&tile, encoded[:bs], l.variant)
					writeTile(level, &tile, w, h, bx*4, by*4)
				}
			}

			offset += len(level)
		}
	}

	return nil
}

// writeTile copies the part of a 4x4 tile at (x0, y0) that lies inside a
// w x h RGBA level.
func writeTile(level []byte, tile *Block, w, h, x0, y0 int) {
	cols := min(4, w-x0)
	rows := min(4, h-y0)

	for row := 0; row < rows; row++ {
		dst := ((y0+row)*w + x0) * 4
		copy(level[dst:dst+cols*4], tile[row*16:row*16+cols*4])
	}
}

// readRaw copies uncompressed faces and converts BGR byte order to RGB.
func readRaw(r io.Reader, pix []byte, l layout) error {
	faceSize := l.faceSize()
	for face := 0; face < l.faces; face++ {
		if _, err := io.ReadFull(r, pix[face*faceSize:(face+1)*faceSize]); err != nil {
			return fmt.Errorf("%w: face %d: %v", ErrTruncated, face, err)
		}
	}

	// Wider channel formats are not stored in BGR order.
	if l.bytesPerChannel() == 1 {
		swapRedBlue(pix, l.texelBytes)
	}

	return nil
}

// resolveChannels applies the requested channel count, or drops an alpha
// channel that is opaque everywhere.
func resolveChannels(img *Image, l layout, req int) error {
	alpha := hasRealAlpha(img.Pix, l.channels, l.bitDepth)

	target := l.channels
	switch {
	case req >= 1 && req <= 4 && l.bitDepth == 32:
		target = req
	case !alpha && l.channels == 4:
		target = 3
	}
	if target == l.channels {
		return nil
	}

	pix, err := convertChannels(img.Pix, l.channels, target, l.texels())
	if err != nil {
		return err
	}
	img.Pix = pix
	img.Channels = target

	return nil
}
