package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestThumbError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *ThumbError
		wantStr string
	}{
		{
			name: "basic error",
			err: &ThumbError{
				Code:    "TEST_ERROR",
				Message: "test message",
			},
			wantStr: "[TEST_ERROR] test message",
		},
		{
			name: "error with cause",
			err: &ThumbError{
				Code:    "TEST_ERROR",
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			wantStr: "[TEST_ERROR] test message: underlying error",
		},
		{
			name: "error with details",
			err: &ThumbError{
				Code:    "TEST_ERROR",
				Message: "test message",
				Details: map[string]interface{}{"key": "value"},
			},
			wantStr: "details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if !strings.Contains(got, tt.wantStr) {
				t.Errorf("Error() = %q, want to contain %q", got, tt.wantStr)
			}
		})
	}
}

func TestThumbError_WithCause(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrBadFormat.WithCause(cause)

	if err.Cause != cause {
		t.Errorf("WithCause() cause = %v, want %v", err.Cause, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("WithCause() should allow errors.Is to find the cause")
	}
}

func TestThumbError_WithDetail(t *testing.T) {
	err := ErrBadSize.WithDetail("dimension", "width")

	if err.Details["dimension"] != "width" {
		t.Errorf("WithDetail() dimension = %v, want width", err.Details["dimension"])
	}

	// The sentinel must stay untouched
	if len(ErrBadSize.Details) != 0 {
		t.Errorf("WithDetail() mutated sentinel details: %v", ErrBadSize.Details)
	}
}

func TestThumbError_WithMessage(t *testing.T) {
	err := ErrNoThumbnail.WithMessage("custom message")

	if err.Message != "custom message" {
		t.Errorf("WithMessage() message = %q, want 'custom message'", err.Message)
	}
	if err.Code != ErrNoThumbnail.Code {
		t.Errorf("WithMessage() code = %q, want %q", err.Code, ErrNoThumbnail.Code)
	}
}

func TestThumbError_Is(t *testing.T) {
	err := NewBadFormatError("magic", "RIFF", "JUNK")

	if !errors.Is(err, ErrBadFormat) {
		t.Error("derived error should match its sentinel via errors.Is")
	}
	if errors.Is(err, ErrNoThumbnail) {
		t.Error("derived error should not match an unrelated sentinel")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad format", NewBadFormatError("form", "fzp ", "wav "), "BAD_FORMAT"},
		{"no thumbnail", NewNoThumbnailError(2, "LIST"), "NO_THUMBNAIL"},
		{"bad size", NewBadSizeError("width", 4096, 1024), "BAD_SIZE"},
		{"io", NewIOError("open", errors.New("boom")), "IO_FAILED"},
		{"codec", NewCodecError("decode", errors.New("boom")), "CODEC_FAILED"},
		{"plain error", errors.New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.want {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsThumbError(t *testing.T) {
	if !IsThumbError(ErrIO.WithCause(errors.New("x"))) {
		t.Error("IsThumbError() = false for a ThumbError")
	}
	if IsThumbError(errors.New("x")) {
		t.Error("IsThumbError() = true for a plain error")
	}
}
