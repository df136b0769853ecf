/*
Package dds decodes DirectDraw Surface (DDS) texture containers into linear
8-bit RGBA/RGB pixel buffers.

Supported payloads are raw RGB(A) data and the DXT1..DXT5 block compressed
formats, with full mipmap chains and cubemap faces. All faces and levels are
decoded into one contiguous buffer, faces first, mip levels within a face
from largest to smallest.

The decoder also accepts Enfusion DDS (EDDS) files, whose mip levels are
stored as COPY or LZ4 chunk-stream blocks, and inputs wrapped in an LZ4 frame
or a zstd stream.

Importing the package registers the "dds" format with the image package.
*/
package dds
