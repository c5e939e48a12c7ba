// Package qoi decodes images in the QOI format, the "Quite OK Image"
// format for fast lossless compression. Decoding always produces 8-bit
// non-premultiplied RGBA pixels regardless of the channel count the
// stream advertises.
//
// See https://qoiformat.org/qoi-specification.pdf for the format.
package qoi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic opens every QOI stream.
const Magic = "qoif"

const (
	// HeaderSize is the byte length of the QOI stream header.
	HeaderSize = 14

	// MaxPixels is the largest pixel count a header may declare, per the
	// format's reference implementation.
	MaxPixels = 400_000_000
)

// Colorspace records how the pixel values of a stream are to be
// interpreted. It is purely informative and does not change decoding.
type Colorspace uint8

const (
	// ColorspaceSRGB marks sRGB channels with linear alpha.
	ColorspaceSRGB Colorspace = 0
	// ColorspaceLinear marks all channels linear.
	ColorspaceLinear Colorspace = 1
)

var (
	// ErrBadMagic means the stream does not start with the QOI magic.
	ErrBadMagic = errors.New("qoi: bad magic")
	// ErrBadHeader means a header field holds a value the format does
	// not define.
	ErrBadHeader = errors.New("qoi: invalid header field")
	// ErrEmptyImage means the header declares a zero dimension.
	ErrEmptyImage = errors.New("qoi: empty image")
	// ErrTooLarge means the header declares more than MaxPixels pixels.
	ErrTooLarge = errors.New("qoi: image too large")
	// ErrTruncated means the stream ended before the image was complete.
	ErrTruncated = errors.New("qoi: truncated stream")
)

// Header is the decoded QOI stream header.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace Colorspace
}

// DecodeHeader reads and validates the 14-byte stream header, leaving r
// positioned at the first op byte.
func DecodeHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, mapEOF(err)
	}
	if string(buf[0:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Width:      binary.BigEndian.Uint32(buf[4:8]),
		Height:     binary.BigEndian.Uint32(buf[8:12]),
		Channels:   buf[12],
		Colorspace: Colorspace(buf[13]),
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

func (h Header) validate() error {
	if h.Channels != 3 && h.Channels != 4 {
		return fmt.Errorf("%w: channels %d", ErrBadHeader, h.Channels)
	}
	if h.Colorspace != ColorspaceSRGB && h.Colorspace != ColorspaceLinear {
		return fmt.Errorf("%w: colorspace %d", ErrBadHeader, h.Colorspace)
	}
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, h.Width, h.Height)
	}
	if uint64(h.Width)*uint64(h.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, h.Width, h.Height)
	}
	return nil
}

func mapEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}
