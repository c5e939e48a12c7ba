// Package fzputil reads the fzp document container: a RIFF-style layout
// with a fixed 12-byte preamble followed by tagged chunks, each a 4-byte
// tag and a little-endian uint32 payload size. It locates the embedded
// thumbnail chunk and hands back a bounded view of its payload.
package fzputil

import (
	"encoding/binary"
	"io"

	fzperrors "github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/errors"
)

const (
	// Magic opens every fzp container.
	Magic = "RIFF"
	// FormType identifies the container as a fuzzpaint document.
	FormType = "fzp "
	// ThumbTag marks the chunk carrying the embedded thumbnail image.
	ThumbTag = "thmb"

	// ContainerHeaderSize is the byte length of the container preamble.
	ContainerHeaderSize = 12
	// ChunkHeaderSize is the byte length of a chunk tag plus size field.
	ChunkHeaderSize = 8

	// MaxChunksScanned bounds the thumbnail search. Writers place the
	// thumbnail chunk first, or second behind a metadata chunk, so
	// anything deeper is not worth paging in.
	MaxChunksScanned = 2
)

// ContainerHeader is the decoded container preamble.
type ContainerHeader struct {
	// Size is the byte count the container declares for everything that
	// follows the magic and size fields, form type included.
	Size uint32
}

// ChunkHeader is one chunk's tag and declared payload size.
type ChunkHeader struct {
	Tag  string
	Size uint32
}

// ReadContainerHeader consumes and validates the 12-byte container
// preamble.
func ReadContainerHeader(r io.Reader) (ContainerHeader, error) {
	var buf [ContainerHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ContainerHeader{}, fzperrors.NewTruncatedError("container header")
		}
		return ContainerHeader{}, fzperrors.NewIOError("read container header", err)
	}
	if string(buf[0:4]) != Magic {
		return ContainerHeader{}, fzperrors.NewBadFormatError("magic", Magic, string(buf[0:4]))
	}
	if string(buf[8:12]) != FormType {
		return ContainerHeader{}, fzperrors.NewBadFormatError("form type", FormType, string(buf[8:12]))
	}
	return ContainerHeader{Size: binary.LittleEndian.Uint32(buf[4:8])}, nil
}

func readChunkHeader(r io.Reader) (ChunkHeader, error) {
	var buf [ChunkHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ChunkHeader{}, fzperrors.NewTruncatedError("chunk header")
		}
		return ChunkHeader{}, fzperrors.NewIOError("read chunk header", err)
	}
	return ChunkHeader{
		Tag:  string(buf[0:4]),
		Size: binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}

func satSub(a, b uint32) uint32 {
	if a < b {
		return 0
	}
	return a - b
}
