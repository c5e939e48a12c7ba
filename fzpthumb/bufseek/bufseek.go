// Package bufseek provides buffered stream adapters for walking binary
// containers: a Reader that keeps an io.ReadSeeker seekable through its
// read-ahead buffer, and a Window that clamps all reads and seeks to a
// fixed-length span of the stream.
package bufseek

import (
	"bufio"
	"io"
)

// BufferedReadSeeker is the contract a Window needs from its underlying
// stream: plain reads, seeks, and visibility into the read-ahead buffer.
// *Reader satisfies it, and so does *Window, so windows compose.
type BufferedReadSeeker interface {
	io.Reader
	io.Seeker
	Peek(n int) ([]byte, error)
	Discard(n int) (int, error)
}

// Reader wraps an io.ReadSeeker with a read-ahead buffer while keeping Seek
// honest: positions are reported in the stream's logical coordinates, which
// trail the underlying stream by however many bytes sit unread in the
// buffer. Short forward seeks are served from the buffer without moving the
// underlying stream.
type Reader struct {
	rs io.ReadSeeker
	br *bufio.Reader
}

var _ BufferedReadSeeker = (*Reader)(nil)

// NewReader returns a buffered seekable reader over rs with the default
// buffer size.
func NewReader(rs io.ReadSeeker) *Reader {
	return &Reader{rs: rs, br: bufio.NewReader(rs)}
}

// NewReaderSize is like NewReader with an explicit buffer size.
func NewReaderSize(rs io.ReadSeeker, size int) *Reader {
	return &Reader{rs: rs, br: bufio.NewReaderSize(rs, size)}
}

// Read reads into p through the buffer.
func (r *Reader) Read(p []byte) (int, error) {
	return r.br.Read(p)
}

// Peek returns the next n bytes without advancing the reader.
func (r *Reader) Peek(n int) ([]byte, error) {
	return r.br.Peek(n)
}

// Discard skips the next n bytes.
func (r *Reader) Discard(n int) (int, error) {
	return r.br.Discard(n)
}

// Buffered returns the number of bytes that can be read from the buffer
// without touching the underlying stream.
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}

// Seek implements io.Seeker in logical coordinates. A relative seek is
// adjusted by the buffer fill before it reaches the underlying stream, and a
// forward seek that lands inside the buffer is satisfied by discarding
// buffered bytes instead of seeking.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		if offset >= 0 && offset <= int64(r.br.Buffered()) {
			if _, err := r.br.Discard(int(offset)); err != nil {
				return 0, err
			}
			pos, err := r.rs.Seek(0, io.SeekCurrent)
			if err != nil {
				return 0, err
			}
			return pos - int64(r.br.Buffered()), nil
		}
		offset -= int64(r.br.Buffered())
	}
	pos, err := r.rs.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	r.br.Reset(r.rs)
	return pos, nil
}
