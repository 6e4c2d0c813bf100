package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const (
	magicCopy = "COPY"
	magicLZ4  = "LZ4 "

	// chunkSize bounds the decoded size of one LZ4 chunk and the window a
	// chunk may reference.
	chunkSize = 64 * 1024

	minPackSize = 1024
	packRatio   = 0.85
	lastChunk   = 0x80
)

// block is one mip level as stored: a table magic and the body that follows
// the table. An LZ4 body carries its u32 decoded size prefix.
type block struct {
	magic string
	body  []byte
}

// packBlock stores data as an LZ4 chunk stream when compress is set and the
// stream is small enough to pay off, and as a COPY block otherwise.
func packBlock(data []byte, compress bool) (block, error) {
	plain := block{magic: magicCopy, body: data}
	if _, err := i32(len(data)); err != nil {
		return block{}, err
	}
	if !compress || len(data) < minPackSize {
		return plain, nil
	}

	n, err := u32(len(data))
	if err != nil {
		return block{}, err
	}

	var stream bytes.Buffer
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], n)
	stream.Write(prefix[:])

	scratch := make([]byte, lz4.CompressBlockBound(chunkSize))
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		cn, err := lz4.CompressBlockHC(data[off:end], scratch, 0, nil, nil)
		if err != nil {
			return block{}, fmt.Errorf("%w: %v", ErrLZ4, err)
		}
		if cn == 0 {
			// incompressible chunk
			return plain, nil
		}

		flag := byte(0)
		if end == len(data) {
			flag = lastChunk
		}
		stream.Write([]byte{byte(cn), byte(cn >> 8), byte(cn >> 16), flag})
		stream.Write(scratch[:cn])
	}

	if float64(stream.Len()) > float64(len(data))*packRatio {
		return plain, nil
	}
	if _, err := i32(stream.Len()); err != nil {
		return block{}, err
	}

	return block{magic: magicLZ4, body: stream.Bytes()}, nil
}

// unpackBlock restores the want bytes a block body encodes.
func unpackBlock(b block, want int) ([]byte, error) {
	switch b.magic {
	case magicCopy:
		if len(b.body) != want {
			return nil, fmt.Errorf("%w: COPY holds %d bytes, want %d", ErrSizeMismatch, len(b.body), want)
		}
		return b.body, nil
	case magicLZ4:
	default:
		return nil, fmt.Errorf("%w: magic %q", ErrBlock, b.magic)
	}

	if len(b.body) < 4 {
		return nil, fmt.Errorf("%w: LZ4 body of %d bytes", ErrBlock, len(b.body))
	}
	if size := int(binary.LittleEndian.Uint32(b.body)); size != want {
		return nil, fmt.Errorf("%w: LZ4 declares %d bytes, want %d", ErrSizeMismatch, size, want)
	}

	out := make([]byte, want)
	pos := 0
	src := b.body[4:]
	for {
		if len(src) < 4 {
			return nil, fmt.Errorf("%w: truncated chunk header at %d", ErrLZ4, pos)
		}
		size := int(src[0]) | int(src[1])<<8 | int(src[2])<<16
		flag := src[3]
		src = src[4:]
		if flag&^lastChunk != 0 {
			return nil, fmt.Errorf("%w: flags 0x%02x", ErrLZ4, flag)
		}
		if size == 0 || size > len(src) {
			return nil, fmt.Errorf("%w: chunk of %d bytes with %d left", ErrLZ4, size, len(src))
		}
		if pos == want {
			return nil, fmt.Errorf("%w: chunk past end of output", ErrLZ4)
		}

		dict := out[max(0, pos-chunkSize):pos]
		dst := out[pos:min(pos+chunkSize, want)]
		n, err := lz4.UncompressBlockWithDict(src[:size], dst, dict)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4, err)
		}
		pos += n
		src = src[size:]

		if flag&lastChunk != 0 {
			break
		}
	}

	if pos != want {
		return nil, fmt.Errorf("%w: LZ4 produced %d bytes, want %d", ErrSizeMismatch, pos, want)
	}
	if len(src) != 0 {
		return nil, fmt.Errorf("%w: %d bytes after last chunk", ErrLZ4, len(src))
	}

	return out, nil
}

// writeTable writes the block table and bodies, smallest mip first. blocks
// is ordered largest first.
func writeTable(w io.Writer, blocks []block) error {
	var entry [8]byte
	for i := len(blocks) - 1; i >= 0; i-- {
		size, err := i32(len(blocks[i].body))
		if err != nil {
			return err
		}
		copy(entry[:4], blocks[i].magic)
		binary.LittleEndian.PutUint32(entry[4:], uint32(size))
		if _, err := w.Write(entry[:]); err != nil {
			return fmt.Errorf("%w: table entry %d: %v", ErrWrite, i, err)
		}
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		if _, err := w.Write(blocks[i].body); err != nil {
			return fmt.Errorf("%w: mip %d: %v", ErrWrite, i, err)
		}
	}
	return nil
}

// tableEntry is one parsed block table row.
type tableEntry struct {
	magic string
	size  int
}

// readTable reads count block table entries.
func readTable(r io.Reader, count int) ([]tableEntry, error) {
	entries := make([]tableEntry, count)
	var raw [8]byte
	for i := range entries {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrBlockTable, i, err)
		}
		magic := string(raw[:4])
		if magic != magicCopy && magic != magicLZ4 {
			return nil, fmt.Errorf("%w: entry %d: magic %q", ErrBlockTable, i, magic)
		}
		size := int32(binary.LittleEndian.Uint32(raw[4:]))
		if size < 0 {
			return nil, fmt.Errorf("%w: entry %d: size %d", ErrBlockTable, i, size)
		}
		entries[i] = tableEntry{magic: magic, size: int(size)}
	}
	return entries, nil
}
