package dds

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
)

func init() {
	image.RegisterFormat("dds", "DDS ", decodeImage, decodeImageConfig)
}

// Image is a decoded container: every face with its full mip chain in one
// buffer, faces first, mips from largest to smallest within a face.
type Image struct {
	// Pix holds all texels, Channels bytes per texel for 8-bit data.
	Pix []byte

	Width    int
	Height   int
	Faces    int
	Mips     int
	BitDepth int
	Channels int

	// Header is the parsed container header.
	Header Header
}

// TexelSize returns the number of bytes per texel in Pix.
func (img *Image) TexelSize() int {
	if img.BitDepth == 32 {
		return img.Channels
	}

	return img.BitDepth / 8
}

// LevelOffset returns the byte offset of a mip level of a face in Pix.
func (img *Image) LevelOffset(face, mip int) (int, error) {
	if face < 0 || face >= img.Faces || mip < 0 || mip >= img.Mips {
		return 0, fmt.Errorf("%w: face %d mipmap %d of %dx%d", ErrLevelOutOfRange, face, mip, img.Faces, img.Mips)
	}

	ts := img.TexelSize()
	faceSize := 0
	offset := 0
	for m := 0; m < filledMips(img.Width, img.Height, img.Mips); m++ {
		n := mipDimension(img.Width, m) * mipDimension(img.Height, m) * ts
		if m < mip {
			offset += n
		}
		faceSize += n
	}

	return face*faceSize + offset, nil
}

// Level returns the texels of one mip level of one face and its size.
func (img *Image) Level(face, mip int) ([]byte, int, int, error) {
	offset, err := img.LevelOffset(face, mip)
	if err != nil {
		return nil, 0, 0, err
	}

	w := mipDimension(img.Width, mip)
	h := mipDimension(img.Height, mip)
	end := offset + w*h*img.TexelSize()
	if end > len(img.Pix) {
		return nil, 0, 0, fmt.Errorf("%w: level ends at %d, buffer has %d", ErrLevelOutOfRange, end, len(img.Pix))
	}

	return img.Pix[offset:end], w, h, nil
}

// SubImage converts one level to an image.Image: *image.Gray for one
// channel, *image.NRGBA otherwise. Only 8-bit channels are supported.
func (img *Image) SubImage(face, mip int) (image.Image, error) {
	if img.TexelSize() != img.Channels {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedConversion, img.BitDepth)
	}

	pix, w, h, err := img.Level(face, mip)
	if err != nil {
		return nil, err
	}

	if img.Channels == 1 {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		copy(gray.Pix, pix)
		return gray, nil
	}

	return img.nrgba(pix, w, h)
}

// NRGBA converts one level to *image.NRGBA.
func (img *Image) NRGBA(face, mip int) (*image.NRGBA, error) {
	if img.TexelSize() != img.Channels {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedConversion, img.BitDepth)
	}

	pix, w, h, err := img.Level(face, mip)
	if err != nil {
		return nil, err
	}

	return img.nrgba(pix, w, h)
}

func (img *Image) nrgba(pix []byte, w, h int) (*image.NRGBA, error) {
	rgba, err := convertChannels(pix, img.Channels, 4, w*h)
	if err != nil {
		return nil, err
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, rgba)

	return out, nil
}

// decodeImage backs image.Decode: the base level of the first face.
func decodeImage(r io.Reader) (image.Image, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, err
	}

	img, err := Decode(rs, nil)
	if err != nil {
		return nil, err
	}

	return img.SubImage(0, 0)
}

func decodeImageConfig(r io.Reader) (image.Config, error) {
	rs, err := asReadSeeker(r)
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

func asReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	return bytes.NewReader(data), nil
}
