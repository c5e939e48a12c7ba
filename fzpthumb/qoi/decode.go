package qoi

import (
	"bufio"
	"image"
	"io"
)

const (
	opRGB  = 0xfe
	opRGBA = 0xff

	opIndex = 0x00
	opDiff  = 0x40
	opLuma  = 0x80
	opRun   = 0xc0
)

// Decode reads the op stream that follows the header and returns the image.
// The stream's trailing end marker, if present, is left unread. hdr is
// usually the value DecodeHeader returned for the same stream; it is
// validated again so a hand-built header cannot force an oversized
// allocation.
func Decode(r io.Reader, hdr Header) (*image.NRGBA, error) {
	if err := hdr.validate(); err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, int(hdr.Width), int(hdr.Height)))
	if err := decodeInto(bufio.NewReader(r), img.Pix); err != nil {
		return nil, err
	}
	return img, nil
}

func decodeInto(br *bufio.Reader, dst []byte) error {
	var index [64][4]byte
	px := [4]byte{0, 0, 0, 255}
	run := 0

	for off := 0; off < len(dst); off += 4 {
		if run > 0 {
			run--
		} else {
			b0, err := br.ReadByte()
			if err != nil {
				return mapEOF(err)
			}
			switch {
			case b0 == opRGB:
				var rgb [3]byte
				if _, err := io.ReadFull(br, rgb[:]); err != nil {
					return mapEOF(err)
				}
				px[0], px[1], px[2] = rgb[0], rgb[1], rgb[2]
			case b0 == opRGBA:
				if _, err := io.ReadFull(br, px[:]); err != nil {
					return mapEOF(err)
				}
			default:
				switch b0 & 0xc0 {
				case opIndex:
					px = index[b0&0x3f]
				case opDiff:
					px[0] += (b0 >> 4 & 0x03) - 2
					px[1] += (b0 >> 2 & 0x03) - 2
					px[2] += (b0 & 0x03) - 2
				case opLuma:
					b1, err := br.ReadByte()
					if err != nil {
						return mapEOF(err)
					}
					dg := (b0 & 0x3f) - 32
					px[0] += dg - 8 + (b1 >> 4 & 0x0f)
					px[1] += dg
					px[2] += dg - 8 + (b1 & 0x0f)
				case opRun:
					run = int(b0 & 0x3f)
				}
			}
			index[hash(px)] = px
		}
		copy(dst[off:off+4], px[:])
	}
	return nil
}

func hash(px [4]byte) int {
	return (int(px[0])*3 + int(px[1])*5 + int(px[2])*7 + int(px[3])*11) % 64
}
