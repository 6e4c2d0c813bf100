/*
Package texture writes flattened document renders as EDDS game textures and
reads them back.

An EDDS file is a DDS header followed by one block per mip level, smallest
first: a table of (magic, size) entries, then the block bodies. A body is
either stored as is (COPY) or as an LZ4 chunk stream (LZ4) whose chunks
decode to at most 64 KiB each and may reference the previous 64 KiB of
output. Pixel payloads are BCn blocks or 32-bit BGRA/RGBA, produced and
consumed by the bcn package.

Only the largest mip level is decoded on read.
*/
package texture
