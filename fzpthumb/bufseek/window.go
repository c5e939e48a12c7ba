package bufseek

import (
	"errors"
	"io"
)

var (
	// ErrSeekBeforeStart is returned by Window.Seek when the requested
	// position lies before the start of the window.
	ErrSeekBeforeStart = errors.New("bufseek: seek before start of window")

	// ErrCursorOverrun is returned by Window.Read when the underlying
	// reader reports more bytes than the window had left, which breaks the
	// cursor accounting and means the stream can no longer be trusted.
	ErrCursorOverrun = errors.New("bufseek: underlying reader overran the window")

	// ErrWhence is returned by Window.Seek for an unknown whence value.
	ErrWhence = errors.New("bufseek: invalid whence")
)

// Window restricts a BufferedReadSeeker to a fixed-length span beginning at
// whatever position the stream held when the window was created. Reads past
// the end return io.EOF, and seeks clamp to the window bounds. The window
// only ever issues relative seeks on the underlying stream, so it works over
// streams whose absolute positions mean nothing to it, including another
// Window.
type Window struct {
	r      BufferedReadSeeker
	cursor int64
	length int64
}

var (
	_ io.ReadSeeker      = (*Window)(nil)
	_ BufferedReadSeeker = (*Window)(nil)
)

// NewWindow takes ownership of r and exposes its next length bytes as an
// isolated stream. A negative length is treated as zero. The caller must not
// touch r afterwards or the cursor accounting becomes wrong.
func NewWindow(r BufferedReadSeeker, length int64) *Window {
	if length < 0 {
		length = 0
	}
	return &Window{r: r, length: length}
}

// Size returns the fixed window length in bytes.
func (w *Window) Size() int64 {
	return w.length
}

// Remaining returns the number of bytes left before the window is exhausted.
func (w *Window) Remaining() int64 {
	return w.length - w.cursor
}

// Read reads up to len(p) bytes, never past the end of the window. At the
// end of the window it returns 0, io.EOF.
func (w *Window) Read(p []byte) (int, error) {
	remaining := w.Remaining()
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := w.r.Read(p)
	if int64(n) > remaining {
		w.cursor = w.length
		return 0, ErrCursorOverrun
	}
	w.cursor += int64(n)
	return n, err
}

// Peek returns the next n bytes without advancing the window. A request past
// the end of the window is truncated to the remaining bytes and returns
// io.EOF alongside whatever data is available.
func (w *Window) Peek(n int) ([]byte, error) {
	remaining := w.Remaining()
	if int64(n) <= remaining {
		return w.r.Peek(n)
	}
	b, err := w.r.Peek(int(remaining))
	if err == nil {
		err = io.EOF
	}
	return b, err
}

// Discard skips the next n bytes, clamped to the window. It returns the
// number of bytes actually discarded, with io.EOF when the window ended
// before n bytes could be skipped.
func (w *Window) Discard(n int) (int, error) {
	clamped := n
	if remaining := w.Remaining(); int64(clamped) > remaining {
		clamped = int(remaining)
	}
	d, err := w.r.Discard(clamped)
	w.cursor += int64(d)
	if err == nil && clamped < n {
		err = io.EOF
	}
	return d, err
}

// Seek repositions the window cursor. Offsets are in the window's own
// coordinate space: position 0 is where the underlying stream stood at
// construction. Motion past the end clamps to the window length; motion
// before the start fails with ErrSeekBeforeStart and leaves the cursor
// unchanged.
func (w *Window) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return w.cursor, ErrSeekBeforeStart
		}
		target = offset
		if target > w.length {
			target = w.length
		}
	case io.SeekCurrent:
		if offset > 0 {
			// Clamp before the addition so a huge delta cannot overflow.
			if remaining := w.Remaining(); offset > remaining {
				offset = remaining
			}
		}
		target = w.cursor + offset
		if target < 0 {
			return w.cursor, ErrSeekBeforeStart
		}
	case io.SeekEnd:
		if offset > 0 {
			offset = 0
		}
		target = w.length + offset
		if target < 0 {
			return w.cursor, ErrSeekBeforeStart
		}
	default:
		return w.cursor, ErrWhence
	}

	if delta := target - w.cursor; delta != 0 {
		if _, err := w.r.Seek(delta, io.SeekCurrent); err != nil {
			return w.cursor, err
		}
	}
	w.cursor = target
	return target, nil
}
