// Package pngmeta splices ancillary metadata chunks into an encoded PNG
// stream. The standard library encoder emits only the chunks it needs, so
// tEXt metadata and the sRGB marker are added here by rewriting the chunk
// sequence: everything up to and including IHDR, then the new chunks, then
// the rest of the stream untouched.
package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
)

var (
	// ErrNotPNG means the input does not look like a PNG stream with a
	// leading IHDR chunk.
	ErrNotPNG = errors.New("pngmeta: not a png stream")
	// ErrBadKeyword means a tEXt keyword is empty, too long, or holds a
	// NUL byte.
	ErrBadKeyword = errors.New("pngmeta: invalid text keyword")
	// ErrBadText means a tEXt value holds a NUL byte.
	ErrBadText = errors.New("pngmeta: invalid text value")
	// ErrBadChunkType means a chunk type is not 4 bytes.
	ErrBadChunkType = errors.New("pngmeta: invalid chunk type")
)

var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// chunkOverhead is the per-chunk framing: length, type and CRC.
const chunkOverhead = 12

// maxKeywordLen is the longest tEXt keyword the PNG spec allows.
const maxKeywordLen = 79

// Chunk is one PNG chunk to be spliced into a stream.
type Chunk struct {
	Type string // 4 ASCII characters
	Data []byte
}

// RenderingIntent is the sRGB chunk's rendering intent field.
type RenderingIntent byte

const (
	IntentPerceptual RenderingIntent = 0
	IntentRelative   RenderingIntent = 1
	IntentSaturation RenderingIntent = 2
	IntentAbsolute   RenderingIntent = 3
)

// Text builds a tEXt chunk. The keyword must be 1 to 79 bytes without a
// NUL; the value may be empty but must not hold a NUL either.
func Text(key, value string) (Chunk, error) {
	if len(key) == 0 || len(key) > maxKeywordLen || strings.ContainsRune(key, 0) {
		return Chunk{}, fmt.Errorf("%w: %q", ErrBadKeyword, key)
	}
	if strings.ContainsRune(value, 0) {
		return Chunk{}, fmt.Errorf("%w: NUL byte in value for %q", ErrBadText, key)
	}
	data := make([]byte, 0, len(key)+1+len(value))
	data = append(data, key...)
	data = append(data, 0)
	data = append(data, value...)
	return Chunk{Type: "tEXt", Data: data}, nil
}

// SRGB builds an sRGB chunk carrying the given rendering intent.
func SRGB(intent RenderingIntent) Chunk {
	return Chunk{Type: "sRGB", Data: []byte{byte(intent)}}
}

// Insert writes encoded to w with the given chunks spliced in immediately
// after the IHDR chunk, which the PNG spec requires to come first. With no
// chunks the stream is copied through unchanged.
func Insert(w io.Writer, encoded []byte, chunks ...Chunk) error {
	if len(encoded) < len(signature)+chunkOverhead || !bytes.Equal(encoded[:len(signature)], signature) {
		return ErrNotPNG
	}
	ihdrLen := binary.BigEndian.Uint32(encoded[8:12])
	if string(encoded[12:16]) != "IHDR" {
		return ErrNotPNG
	}
	split := len(signature) + chunkOverhead + int(ihdrLen)
	if split > len(encoded) {
		return ErrNotPNG
	}

	if _, err := w.Write(encoded[:split]); err != nil {
		return err
	}
	for _, c := range chunks {
		if err := writeChunk(w, c); err != nil {
			return err
		}
	}
	_, err := w.Write(encoded[split:])
	return err
}

func writeChunk(w io.Writer, c Chunk) error {
	if len(c.Type) != 4 {
		return fmt.Errorf("%w: %q", ErrBadChunkType, c.Type)
	}
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(c.Data)))
	copy(hdr[4:8], c.Type)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:8])
	crc.Write(c.Data)

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(c.Data); err != nil {
		return err
	}
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], crc.Sum32())
	_, err := w.Write(tail[:])
	return err
}
