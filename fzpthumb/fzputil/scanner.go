package fzputil

import (
	"encoding/binary"
	"io"

	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/bufseek"
	fzperrors "github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/errors"
)

// maxListChunks bounds ListChunks so a hostile document cannot grow the
// result without bound.
const maxListChunks = 64

// FindThumb scans the document for the thumbnail chunk and returns a window
// over its payload. Only the first MaxChunksScanned chunks are examined.
// The window length is the chunk's declared size clamped to the bytes the
// container itself declares, so a lying chunk header cannot reach past the
// document.
func FindThumb(r bufseek.BufferedReadSeeker) (*bufseek.Window, error) {
	hdr, err := ReadContainerHeader(r)
	if err != nil {
		return nil, err
	}

	remaining := hdr.Size
	lastTag := ""
	for scanned := 0; scanned < MaxChunksScanned; scanned++ {
		ch, err := readChunkHeader(r)
		if err != nil {
			return nil, err
		}
		if ch.Tag == ThumbTag {
			length := ch.Size
			if length > remaining {
				length = remaining
			}
			return bufseek.NewWindow(r, int64(length)), nil
		}
		lastTag = ch.Tag
		if scanned+1 == MaxChunksScanned {
			break
		}
		if _, err := r.Seek(int64(ch.Size), io.SeekCurrent); err != nil {
			return nil, fzperrors.NewIOError("skip chunk", err)
		}
		remaining = satSub(remaining, ch.Size)
		remaining = satSub(remaining, ChunkHeaderSize)
	}
	return nil, fzperrors.NewNoThumbnailError(MaxChunksScanned, lastTag)
}

// ChunkInfo describes one chunk of a document for inspection tooling.
type ChunkInfo struct {
	Tag    string
	Size   uint32
	Offset int64 // byte offset of the chunk header within the document
}

// ListChunks walks every chunk of the document in order. Unlike FindThumb
// it does not stop after the first two chunks; it stops when the declared
// container size is exhausted or the stream ends, whichever comes first.
// Payload sizes are taken at face value for reporting but the walk itself
// never steps past the declared container size.
func ListChunks(r bufseek.BufferedReadSeeker) (ContainerHeader, []ChunkInfo, error) {
	hdr, err := ReadContainerHeader(r)
	if err != nil {
		return ContainerHeader{}, nil, err
	}

	var chunks []ChunkInfo
	offset := int64(ContainerHeaderSize)
	remaining := satSub(hdr.Size, 4) // the form type spends 4 declared bytes
	for len(chunks) < maxListChunks && remaining >= ChunkHeaderSize {
		var buf [ChunkHeaderSize]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return hdr, chunks, fzperrors.NewIOError("read chunk header", err)
		}
		ch := ChunkHeader{
			Tag:  string(buf[0:4]),
			Size: binary.LittleEndian.Uint32(buf[4:8]),
		}
		chunks = append(chunks, ChunkInfo{Tag: ch.Tag, Size: ch.Size, Offset: offset})
		remaining -= ChunkHeaderSize

		skip := ch.Size
		if skip > remaining {
			skip = remaining
		}
		if _, err := r.Seek(int64(skip), io.SeekCurrent); err != nil {
			return hdr, chunks, fzperrors.NewIOError("skip chunk payload", err)
		}
		offset += ChunkHeaderSize + int64(skip)
		remaining -= skip
	}
	return hdr, chunks, nil
}
