/*
Package xcf decodes GIMP XCF layered documents and flattens them into a
single raster.

An XCF file is a pointer-addressed container: a header, a property table,
and NUL-terminated pointer lists of layers and channels. Each layer and
channel points at an image hierarchy whose first level is a grid of 64x64
tiles, every tile independently stored raw, RLE encoded or zlib compressed.
Pointers are 32-bit before format version 11 and 64-bit from then on.

The whole file is kept as one byte arena. Layer and channel headers are
decoded eagerly by Open; pixel data is decoded on first access and cached,
and ForceFullyLoaded materializes everything so the arena can be released.

Flatten rebuilds the group tree from the layers' item paths and composites
it bottom-up with visibility, masks, offsets, opacity and blend modes.
*/
package xcf
