package xcf

import "fmt"

// RLE opcodes. Every channel of a tile is its own opcode stream.
const (
	rleShortRunMax  = 126 // 0..126: op+1 copies of the next byte
	rleLongRun      = 127 // u16 count, then the byte to repeat
	rleLongLiteral  = 128 // u16 count, then count literal bytes
	rleMaxShort     = 127 // longest run or literal with a one byte opcode
	rleMaxLongCount = 0xffff
)

// rleDecode expands bpp channel streams of pixelCount samples each and
// interleaves them into pixel order.
func rleDecode(src []byte, pixelCount, bpp int) ([]byte, error) {
	out := make([]byte, pixelCount*bpp)
	r := newReader(src, 32)
	for c := 0; c < bpp; c++ {
		if err := rleDecodeChannel(r, out[c:], pixelCount, bpp); err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
	}
	return out, nil
}

func rleDecodeChannel(r *reader, dst []byte, pixelCount, stride int) error {
	for n := 0; n < pixelCount; {
		op, err := r.u8()
		if err != nil {
			return err
		}

		var count int
		literal := false
		switch {
		case op <= rleShortRunMax:
			count = int(op) + 1
		case op == rleLongRun, op == rleLongLiteral:
			hi, err := r.u8()
			if err != nil {
				return err
			}
			lo, err := r.u8()
			if err != nil {
				return err
			}
			count = int(hi)<<8 | int(lo)
			literal = op == rleLongLiteral
		default:
			count = 256 - int(op)
			literal = true
		}

		if n+count > pixelCount {
			return fmt.Errorf("%w: run of %d at sample %d overflows %d", ErrInvalidEncoding, count, n, pixelCount)
		}

		if literal {
			b, err := r.take(count)
			if err != nil {
				return err
			}
			for _, v := range b {
				dst[n*stride] = v
				n++
			}
			continue
		}

		v, err := r.u8()
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			dst[n*stride] = v
			n++
		}
	}
	return nil
}

// rleEncode is the inverse of rleDecode for interleaved pixels of bpp bytes.
func rleEncode(pix []byte, bpp int) []byte {
	pixelCount := len(pix) / bpp
	channel := make([]byte, pixelCount)
	out := make([]byte, 0, len(pix)/2)
	for c := 0; c < bpp; c++ {
		for i := range channel {
			channel[i] = pix[i*bpp+c]
		}
		out = rleEncodeChannel(out, channel)
	}
	return out
}

func rleEncodeChannel(dst, src []byte) []byte {
	for i := 0; i < len(src); {
		run := 1
		for i+run < len(src) && run < rleMaxLongCount && src[i+run] == src[i] {
			run++
		}
		if run >= 2 {
			if run <= rleMaxShort {
				dst = append(dst, byte(run-1), src[i])
			} else {
				dst = append(dst, rleLongRun, byte(run>>8), byte(run), src[i])
			}
			i += run
			continue
		}

		// literal span up to the next pair of equal bytes
		j := i + 1
		for j < len(src) && j-i < rleMaxLongCount && (j+1 >= len(src) || src[j] != src[j+1]) {
			j++
		}
		n := j - i
		if n <= rleMaxShort {
			dst = append(dst, byte(256-n))
		} else {
			dst = append(dst, rleLongLiteral, byte(n>>8), byte(n))
		}
		dst = append(dst, src[i:j]...)
		i = j
	}
	return dst
}
