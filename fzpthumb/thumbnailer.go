// Package fzpthumb turns fuzzpaint documents into freedesktop-style PNG
// thumbnails. A document carries its own pre-rendered preview as a QOI
// image inside its container, so generating a thumbnail means locating
// that chunk, decoding it, scaling it to the requested size and writing a
// PNG annotated with the metadata thumbnail managers expect.
package fzpthumb

import (
	"bytes"
	"errors"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"

	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/bufseek"
	fzperrors "github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/errors"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/fzputil"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/logger"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/pngmeta"
	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/qoi"
)

const (
	// MaxTargetSize caps the requested thumbnail edge. Shells ask for
	// 128, 256 or 512 pixels; anything far past that is a misbehaving
	// caller, and honoring it would cost memory for no benefit.
	MaxTargetSize = 2048

	// MaxSourceDimension caps the embedded preview's edge. Documents
	// carry small previews; a huge one means a broken or hostile file.
	MaxSourceDimension = 1024

	// Mimetype is the media type of fuzzpaint documents, recorded in
	// the thumbnail metadata.
	Mimetype = "application/x.fuzzpaint-doc"

	// SoftwareName is the default value of the Software metadata key.
	SoftwareName = "Fuzzpaint"
)

// Options configure a Thumbnailer. The zero value of any field falls back
// to the package default.
type Options struct {
	// MaxTargetSize caps the thumbnail edge callers may request.
	MaxTargetSize int
	// MaxSourceDimension caps the embedded preview's edge.
	MaxSourceDimension int
	// Software is written to the Software metadata key.
	Software string
	// Mimetype is written to the Thumb::Mimetype metadata key.
	Mimetype string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxTargetSize:      MaxTargetSize,
		MaxSourceDimension: MaxSourceDimension,
		Software:           SoftwareName,
		Mimetype:           Mimetype,
	}
}

// Request describes one thumbnail generation.
type Request struct {
	// InputPath is the fuzzpaint document to read.
	InputPath string
	// OutputPath is where the PNG lands. The write is atomic: the data
	// goes to a temporary file in the same directory first and is
	// renamed over OutputPath only once complete.
	OutputPath string
	// Size is the bounding box edge in pixels.
	Size int
	// URI is recorded as the thumbnail's source URI. Empty means derive
	// a file:// URI from InputPath.
	URI string
}

// Result reports what a generation produced.
type Result struct {
	// SourceWidth and SourceHeight are the embedded preview's pixel
	// dimensions before scaling.
	SourceWidth  int
	SourceHeight int
	// Width and Height are the written thumbnail's dimensions.
	Width  int
	Height int
	// MTime is the document modification time recorded in the PNG.
	MTime time.Time
}

// Thumbnailer generates thumbnails from fuzzpaint documents.
type Thumbnailer interface {
	Generate(req Request) (*Result, error)
}

type thumbnailer struct {
	opts Options
}

// New returns a Thumbnailer with the given options.
func New(opts Options) Thumbnailer {
	def := DefaultOptions()
	if opts.MaxTargetSize <= 0 {
		opts.MaxTargetSize = def.MaxTargetSize
	}
	if opts.MaxSourceDimension <= 0 {
		opts.MaxSourceDimension = def.MaxSourceDimension
	}
	if opts.Software == "" {
		opts.Software = def.Software
	}
	if opts.Mimetype == "" {
		opts.Mimetype = def.Mimetype
	}
	return &thumbnailer{opts: opts}
}

func (t *thumbnailer) Generate(req Request) (*Result, error) {
	if req.Size <= 0 || req.Size > t.opts.MaxTargetSize {
		return nil, fzperrors.NewBadSizeError("target size", req.Size, t.opts.MaxTargetSize)
	}

	f, err := os.Open(req.InputPath)
	if err != nil {
		return nil, fzperrors.NewIOError("open document", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fzperrors.NewIOError("stat document", err)
	}
	mtime := st.ModTime()

	logger.Debug("scanning %s for the thumbnail chunk", req.InputPath)
	win, err := fzputil.FindThumb(bufseek.NewReader(f))
	if err != nil {
		return nil, err
	}
	logger.Debug("thumbnail chunk holds %d bytes", win.Size())

	hdr, err := qoi.DecodeHeader(win)
	if err != nil {
		return nil, codecError("decode preview header", err)
	}
	// The dimension cap runs before any pixel buffer is allocated, so a
	// hostile header cannot force a giant allocation.
	if hdr.Width > uint32(t.opts.MaxSourceDimension) {
		return nil, fzperrors.NewBadSizeError("preview width", int(hdr.Width), t.opts.MaxSourceDimension)
	}
	if hdr.Height > uint32(t.opts.MaxSourceDimension) {
		return nil, fzperrors.NewBadSizeError("preview height", int(hdr.Height), t.opts.MaxSourceDimension)
	}

	src, err := qoi.Decode(win, hdr)
	if err != nil {
		return nil, codecError("decode preview", err)
	}

	w, h := scaledDimensions(int(hdr.Width), int(hdr.Height), req.Size)
	thumb := imaging.Resize(src, w, h, imaging.Linear)
	logger.Debug("scaled %dx%d preview to %dx%d", hdr.Width, hdr.Height, w, h)

	uri := req.URI
	if uri == "" {
		u, err := fileURI(req.InputPath)
		if err != nil {
			return nil, err
		}
		uri = u
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, thumb); err != nil {
		return nil, fzperrors.NewCodecError("encode png", err)
	}

	chunks, err := metadataChunks(hdr, uri, mtime, t.opts)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(req.OutputPath, buf.Bytes(), chunks); err != nil {
		return nil, err
	}
	logger.Info("wrote %s (%dx%d)", req.OutputPath, w, h)

	return &Result{
		SourceWidth:  int(hdr.Width),
		SourceHeight: int(hdr.Height),
		Width:        w,
		Height:       h,
		MTime:        mtime,
	}, nil
}

// codecError wraps a decode failure. A cursor overrun reported by the
// stream window means the underlying reader misbehaved, which is an i/o
// problem rather than bad image data.
func codecError(stage string, err error) error {
	if errors.Is(err, bufseek.ErrCursorOverrun) {
		return fzperrors.NewIOError(stage, err)
	}
	return fzperrors.NewCodecError(stage, err)
}

// metadataChunks builds the ancillary PNG chunks for a thumbnail: the sRGB
// marker when the preview declares sRGB, and the freedesktop thumbnail
// text keys.
func metadataChunks(hdr qoi.Header, uri string, mtime time.Time, opts Options) ([]pngmeta.Chunk, error) {
	texts := []struct {
		key, value string
	}{
		{"Software", opts.Software},
		// required by the thumbnail managing standard
		{"Thumb::URI", uri},
		{"Thumb::MTime", strconv.FormatInt(mtime.Unix(), 10)},
		// additional standard keys
		{"Thumb::Mimetype", opts.Mimetype},
		{"Thumb::Image::Width", strconv.FormatUint(uint64(hdr.Width), 10)},
		{"Thumb::Image::Height", strconv.FormatUint(uint64(hdr.Height), 10)},
		// vendor extension
		{"X-Fuzzpaint::Soup", "very good"},
	}

	chunks := make([]pngmeta.Chunk, 0, len(texts)+1)
	if hdr.Colorspace == qoi.ColorspaceSRGB {
		chunks = append(chunks, pngmeta.SRGB(pngmeta.IntentPerceptual))
	}
	for _, kv := range texts {
		c, err := pngmeta.Text(kv.key, kv.value)
		if err != nil {
			return nil, fzperrors.ErrBadFormat.WithMessage("invalid metadata text").WithCause(err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// fileURI derives a file:// URI for a local path, for when the caller does
// not hand over the canonical URI itself.
func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fzperrors.NewIOError("resolve path", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// writeAtomic lands the finished PNG under a temporary name in the target
// directory and renames it into place, so readers never observe a half
// written thumbnail.
func writeAtomic(path string, encoded []byte, chunks []pngmeta.Chunk) error {
	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fzperrors.NewIOError("create temporary output", err)
	}
	tmpName := tmp.Name()

	err = pngmeta.Insert(tmp, encoded, chunks...)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return fzperrors.NewIOError("write thumbnail", err)
	}
	return nil
}
