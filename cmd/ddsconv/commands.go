package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	_ "image/jpeg"

	"github.com/warhead117/dds"
	"github.com/woozymasta/bcn"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"
)

var errUsage = errors.New("invalid arguments")

// textureExts are the suffixes batch mode picks up.
var textureExts = []string{".dds", ".edds", ".dds.lz4", ".dds.zst", ".edds.lz4", ".edds.zst"}

func runInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: ddsconv info <file>", errUsage)
	}
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4)
	if n, _ := io.ReadFull(f, head); n == len(head) {
		if w := dds.SniffWrapping(head); w != dds.WrapNone {
			fmt.Printf("Wrapping: %s\n", w)
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	r, err := dds.Unwrap(f)
	if err != nil {
		return err
	}

	info, err := dds.ReadInfo(r)
	if err != nil {
		return err
	}
	hdr, err := dds.ReadHeader(r)
	if err != nil {
		return err
	}

	format := "raw"
	if info.Compressed {
		format = info.FourCC
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Dimensions: %dx%d\n", info.Width, info.Height)
	fmt.Printf("Faces: %d\n", info.Faces)
	fmt.Printf("Mip levels: %d\n", info.Mips)
	fmt.Printf("Format: %s\n", format)
	if !info.Compressed {
		fmt.Printf("Bits per pixel: %d\n", hdr.PixelFormat.RGBBitCount)
	}
	fmt.Printf("Channels: %d\n", info.Channels)
	fmt.Printf("Enfusion: %t\n", hdr.Enfusion())

	return nil
}

func runProbe(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: ddsconv probe <file>", errUsage)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r, err := dds.Unwrap(f)
	if err != nil {
		return err
	}
	if !dds.Probe(r) {
		return fmt.Errorf("%s: %w", args[0], dds.ErrNotDDS)
	}

	fmt.Printf("%s: DDS\n", args[0])
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	face := fs.Int("face", 0, "cubemap face to export")
	mip := fs.Int("mip", 0, "mip level to export")
	channels := fs.Int("channels", 0, "requested channel count 1..4 (0 keeps the decoded count)")
	edds := fs.Bool("edds", false, "force EDDS block-table parsing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: usage: ddsconv decode [flags] <in> <out>", errUsage)
	}
	in, out := fs.Arg(0), fs.Arg(1)

	img, err := dds.ReadFile(in, &dds.ReadOptions{Channels: *channels, EDDS: *edds})
	if err != nil {
		return err
	}

	if err := exportLevel(img, *face, *mip, out); err != nil {
		return err
	}

	fmt.Printf("Decoded %s → %s\n", in, out)
	return nil
}

// exportLevel writes one level of img to path, picking the encoder by suffix.
func exportLevel(img *dds.Image, face, mip int, path string) error {
	level, err := img.SubImage(face, mip)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		err = bmp.Encode(f, level)
	case ".tif", ".tiff":
		err = tiff.Encode(f, level, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, level)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return f.Close()
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	formatName := fs.String("format", "dxt5", "output format: dxt1|dxt3|dxt5|bgra8")
	mips := fs.Int("mips", 0, "maximum mip levels (0 writes the full chain)")
	edds := fs.Bool("edds", false, "write an Enfusion block table")
	compress := fs.Bool("compress", false, "LZ4-compress EDDS mip blocks")
	useZstd := fs.Bool("zstd", false, "wrap the output in a zstd stream")
	useLZ4 := fs.Bool("lz4", false, "wrap the output in an LZ4 frame")
	fast := fs.Bool("fast", false, "use the fastest BCn encoder quality")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 && fs.NArg() != 7 {
		return fmt.Errorf("%w: usage: ddsconv encode [flags] <in> <out> or six faces then <out>", errUsage)
	}
	if *useZstd && *useLZ4 {
		return fmt.Errorf("%w: -zstd and -lz4 are exclusive", errUsage)
	}

	format, err := parseFormat(*formatName)
	if err != nil {
		return err
	}

	inputs := fs.Args()[:fs.NArg()-1]
	out := fs.Arg(fs.NArg() - 1)

	faces := make([]image.Image, len(inputs))
	for i, in := range inputs {
		if faces[i], err = loadImage(in); err != nil {
			return err
		}
	}

	opts := &dds.WriteOptions{
		Format:     format,
		MaxMipMaps: *mips,
		EDDS:       *edds || strings.EqualFold(filepath.Ext(out), ".edds"),
		Compress:   *compress,
	}
	if *fast {
		opts.EncodeOptions = &bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast}
	}
	switch {
	case *useZstd:
		opts.Wrap = dds.WrapZstd
	case *useLZ4:
		opts.Wrap = dds.WrapLZ4
	}
	if ext := opts.Wrap.Extension(); ext != "" && !strings.HasSuffix(out, ext) {
		out += ext
	}

	if err := dds.Write(out, faces, opts); err != nil {
		return err
	}

	fmt.Printf("Encoded %s → %s\n", strings.Join(inputs, ", "), out)
	return nil
}

func parseFormat(name string) (bcn.Format, error) {
	switch strings.ToLower(name) {
	case "dxt1", "bc1":
		return bcn.FormatDXT1, nil
	case "dxt3", "bc2":
		return bcn.FormatDXT3, nil
	case "dxt5", "bc3":
		return bcn.FormatDXT5, nil
	case "bgra8", "bgra":
		return bcn.FormatBGRA8, nil
	default:
		return bcn.FormatUnknown, fmt.Errorf("%w: %q", dds.ErrInvalidFormat, name)
	}
}

// loadImage decodes any registered image format, DDS included.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return img, nil
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	workers := fs.Int("j", 0, "parallel decodes (0 uses GOMAXPROCS)")
	verbose := fs.Bool("v", false, "print every converted file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: usage: ddsconv batch [-j n] [-v] <dir> <outdir>", errUsage)
	}
	inputDir, outputDir := fs.Arg(0), fs.Arg(1)

	var paths []string
	err := filepath.WalkDir(inputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isTexture(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if *workers <= 0 {
		*workers = runtime.GOMAXPROCS(0)
	}

	reg := dds.NewRegistry(nil)
	var count, failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(*workers)

	for _, path := range paths {
		g.Go(func() error {
			outPath, err := convertOne(reg, inputDir, outputDir, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "convert %s: %v\n", path, err)
				failed.Add(1)
				return nil
			}

			count.Add(1)
			if *verbose {
				fmt.Printf("%s → %s\n", path, outPath)
			}
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("\nCompleted: %d files converted, %d errors\n", count.Load(), failed.Load())
	return nil
}

// convertOne exports the base level of one texture below outputDir,
// keeping its path relative to inputDir.
func convertOne(reg *dds.Registry, inputDir, outputDir, path string) (string, error) {
	img, err := reg.Load(path)
	if err != nil {
		return "", err
	}
	defer reg.Release(path)

	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	outPath := filepath.Join(outputDir, trimTextureExt(rel)+".png")

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", filepath.Dir(outPath), err)
	}
	if err := exportLevel(img, 0, 0, outPath); err != nil {
		return "", err
	}

	return outPath, nil
}

func isTexture(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range textureExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

func trimTextureExt(path string) string {
	lower := strings.ToLower(path)
	longest := ""
	for _, ext := range textureExts {
		if strings.HasSuffix(lower, ext) && len(ext) > len(longest) {
			longest = ext
		}
	}

	return path[:len(path)-len(longest)]
}
