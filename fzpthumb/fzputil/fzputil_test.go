package fzputil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/bufseek"
	fzperrors "github.com/fuzzpaint/fzp-thumbnailer/fzpthumb/errors"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// chunk assembles a chunk with an explicitly declared size so tests can
// make the header lie about the payload.
func chunk(tag string, declared uint32, payload []byte) []byte {
	c := append([]byte(tag), le32(declared)...)
	return append(c, payload...)
}

func container(declared uint32, chunks ...[]byte) []byte {
	doc := append([]byte(Magic), le32(declared)...)
	doc = append(doc, FormType...)
	for _, c := range chunks {
		doc = append(doc, c...)
	}
	return doc
}

func docReader(doc []byte) *bufseek.Reader {
	return bufseek.NewReader(bytes.NewReader(doc))
}

func TestReadContainerHeader(t *testing.T) {
	tests := []struct {
		name     string
		doc      []byte
		wantSize uint32
		wantErr  error
	}{
		{
			name:     "valid header",
			doc:      container(1234),
			wantSize: 1234,
		},
		{
			name:    "bad magic",
			doc:     append(append([]byte("JUNK"), le32(10)...), FormType...),
			wantErr: fzperrors.ErrBadFormat,
		},
		{
			name:    "bad form type",
			doc:     append(append([]byte(Magic), le32(10)...), "WAVE"...),
			wantErr: fzperrors.ErrBadFormat,
		},
		{
			name:    "truncated header",
			doc:     []byte("RIF"),
			wantErr: fzperrors.ErrBadFormat,
		},
		{
			name:    "empty stream",
			doc:     nil,
			wantErr: fzperrors.ErrBadFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr, err := ReadContainerHeader(bytes.NewReader(tt.doc))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if hdr.Size != tt.wantSize {
				t.Errorf("size = %d, want %d", hdr.Size, tt.wantSize)
			}
		})
	}
}

func TestFindThumb_FirstChunk(t *testing.T) {
	payload := []byte("hello")
	doc := container(uint32(4+ChunkHeaderSize+len(payload)), chunk(ThumbTag, uint32(len(payload)), payload))

	w, err := FindThumb(docReader(doc))
	if err != nil {
		t.Fatalf("find thumb: %v", err)
	}
	if w.Size() != int64(len(payload)) {
		t.Errorf("window size = %d, want %d", w.Size(), len(payload))
	}
	got, err := io.ReadAll(w)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestFindThumb_SecondChunk(t *testing.T) {
	info := []byte("INFOxy")
	payload := []byte("qoif")
	doc := container(
		uint32(4+ChunkHeaderSize+len(info)+ChunkHeaderSize+len(payload)),
		chunk("LIST", uint32(len(info)), info),
		chunk(ThumbTag, uint32(len(payload)), payload),
	)

	w, err := FindThumb(docReader(doc))
	if err != nil {
		t.Fatalf("find thumb: %v", err)
	}
	got, err := io.ReadAll(w)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestFindThumb_ThirdChunkNotScanned(t *testing.T) {
	doc := container(
		33,
		chunk("LIST", 2, []byte("ab")),
		chunk("JUNK", 2, []byte("cd")),
		chunk(ThumbTag, 1, []byte("x")),
	)

	_, err := FindThumb(docReader(doc))
	if !errors.Is(err, fzperrors.ErrNoThumbnail) {
		t.Fatalf("error = %v, want ErrNoThumbnail", err)
	}
}

func TestFindThumb_ClampsToContainerSize(t *testing.T) {
	// The chunk claims 100 bytes but the container only declares 10.
	doc := container(10, chunk(ThumbTag, 100, make([]byte, 20)))

	w, err := FindThumb(docReader(doc))
	if err != nil {
		t.Fatalf("find thumb: %v", err)
	}
	if w.Size() != 10 {
		t.Errorf("window size = %d, want 10", w.Size())
	}
}

func TestFindThumb_WindowEndsBeforeTrailingChunk(t *testing.T) {
	payload := []byte("abc")
	doc := container(
		uint32(4+ChunkHeaderSize+len(payload)+ChunkHeaderSize+4),
		chunk(ThumbTag, uint32(len(payload)), payload),
		chunk("TAIL", 4, []byte("tail")),
	)

	w, err := FindThumb(docReader(doc))
	if err != nil {
		t.Fatalf("find thumb: %v", err)
	}
	got, err := io.ReadAll(w)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("payload = %q, want %q", got, "abc")
	}
}

func TestFindThumb_BadMagic(t *testing.T) {
	doc := append(append([]byte("NOPE"), le32(10)...), FormType...)

	_, err := FindThumb(docReader(doc))
	if !errors.Is(err, fzperrors.ErrBadFormat) {
		t.Fatalf("error = %v, want ErrBadFormat", err)
	}
}

func TestFindThumb_TruncatedAfterSkip(t *testing.T) {
	// The first chunk claims more payload than the stream holds, so the
	// second chunk header read runs off the end.
	doc := container(200, chunk("LIST", 100, []byte("short")))

	_, err := FindThumb(docReader(doc))
	if !errors.Is(err, fzperrors.ErrBadFormat) {
		t.Fatalf("error = %v, want ErrBadFormat", err)
	}
}

func TestListChunks(t *testing.T) {
	doc := container(
		40,
		chunk("LIST", 6, []byte("INFOxy")),
		chunk(ThumbTag, 4, []byte("qoif")),
		chunk("TAIL", 2, []byte("zz")),
	)

	hdr, chunks, err := ListChunks(docReader(doc))
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if hdr.Size != 40 {
		t.Errorf("container size = %d, want 40", hdr.Size)
	}

	want := []ChunkInfo{
		{Tag: "LIST", Size: 6, Offset: 12},
		{Tag: ThumbTag, Size: 4, Offset: 26},
		{Tag: "TAIL", Size: 2, Offset: 38},
	}
	if len(chunks) != len(want) {
		t.Fatalf("listed %d chunks, want %d", len(chunks), len(want))
	}
	for i, c := range chunks {
		if c != want[i] {
			t.Errorf("chunk %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestListChunks_StopsAtDeclaredSize(t *testing.T) {
	// Only the first chunk fits inside the declared container size.
	doc := container(
		4+ChunkHeaderSize+6,
		chunk("LIST", 6, []byte("INFOxy")),
		chunk("TAIL", 2, []byte("zz")),
	)

	_, chunks, err := ListChunks(docReader(doc))
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("listed %d chunks, want 1", len(chunks))
	}
	if chunks[0].Tag != "LIST" {
		t.Errorf("chunk tag = %q, want LIST", chunks[0].Tag)
	}
}

func TestListChunks_TruncatedStream(t *testing.T) {
	doc := container(100, chunk("LIST", 6, []byte("INFOxy")))
	doc = append(doc, "thm"...) // partial trailing chunk header

	_, chunks, err := ListChunks(docReader(doc))
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("listed %d chunks, want 1", len(chunks))
	}
}
