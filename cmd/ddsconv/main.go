// ddsconv inspects and converts DDS / EDDS textures.
//
// Usage:
//
//	ddsconv info <file>                         # header and layout
//	ddsconv probe <file>                        # exit 0 when the file is DDS
//	ddsconv decode [flags] <in> <out.png|.bmp|.tiff>
//	ddsconv encode [flags] <in.png> [more faces] <out.dds|.edds>
//	ddsconv batch [flags] <dir> <outdir>        # every texture in dir to PNG
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "info":
		err = runInfo(args)
	case "probe":
		err = runProbe(args)
	case "decode":
		err = runDecode(args)
	case "encode":
		err = runEncode(args)
	case "batch":
		err = runBatch(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ddsconv - DDS / EDDS texture converter")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ddsconv info <file>                               # Show header and layout")
	fmt.Println("  ddsconv probe <file>                              # Exit 0 if the file is DDS")
	fmt.Println("  ddsconv decode [-face n] [-mip n] [-channels n] <in> <out>")
	fmt.Println("  ddsconv encode [-format f] [-mips n] [-edds] [-compress] [-zstd|-lz4] <in>... <out>")
	fmt.Println("  ddsconv batch [-j n] [-v] <dir> <outdir>")
	fmt.Println()
	fmt.Println("Decode outputs: .png, .bmp, .tiff")
	fmt.Println("Encode formats: dxt1, dxt3, dxt5, bgra8 (six inputs make a cubemap)")
	fmt.Println("Inputs may be wrapped in an LZ4 frame (.lz4) or zstd (.zst).")
}
