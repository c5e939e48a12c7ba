package errors

import "fmt"

// Error types for fzp thumbnailing operations
var (
	// ErrBadFormat is returned when the container magic, form type or a
	// fixed-size header does not match the fzp format
	ErrBadFormat = &ThumbError{Code: "BAD_FORMAT", Message: "unrecognized file format"}

	// ErrNoThumbnail is returned when none of the scanned chunks carries the
	// thumbnail tag
	ErrNoThumbnail = &ThumbError{Code: "NO_THUMBNAIL", Message: "document does not contain a thumbnail"}

	// ErrBadSize is returned when a declared or computed image dimension is
	// zero or exceeds a configured maximum
	ErrBadSize = &ThumbError{Code: "BAD_SIZE", Message: "image size out of bounds"}

	// ErrIO is returned when a filesystem or stream operation fails
	ErrIO = &ThumbError{Code: "IO_FAILED", Message: "i/o operation failed"}

	// ErrCodec is returned when thumbnail decoding or PNG encoding fails
	ErrCodec = &ThumbError{Code: "CODEC_FAILED", Message: "image codec failed"}
)

// ThumbError represents a structured error in fzp thumbnailing operations
type ThumbError struct {
	Code    string                 // Error code for programmatic handling
	Message string                 // Human-readable error message
	Cause   error                  // Underlying error, if any
	Details map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *ThumbError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ThumbError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ThumbError with the same code, so sentinel
// comparisons via errors.Is survive WithCause/WithDetail copies.
func (e *ThumbError) Is(target error) bool {
	t, ok := target.(*ThumbError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds a cause to the error
func (e *ThumbError) WithCause(cause error) *ThumbError {
	return &ThumbError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *ThumbError) WithDetail(key string, value interface{}) *ThumbError {
	details := make(map[string]interface{})
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &ThumbError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage overrides the error message
func (e *ThumbError) WithMessage(message string) *ThumbError {
	return &ThumbError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// NewBadFormatError creates a format error for a mismatched header field
func NewBadFormatError(field, want, got string) error {
	return ErrBadFormat.
		WithDetail("field", field).
		WithDetail("want", want).
		WithDetail("got", got)
}

// NewTruncatedError creates a format error for a header cut short
func NewTruncatedError(what string) error {
	return ErrBadFormat.
		WithMessage("truncated " + what).
		WithDetail("header", what)
}

// NewNoThumbnailError creates a not-found error after the chunk scan gave up
func NewNoThumbnailError(scanned int, lastTag string) error {
	return ErrNoThumbnail.
		WithDetail("chunksScanned", scanned).
		WithDetail("lastTag", lastTag)
}

// NewBadSizeError creates a size error carrying the violated dimension
func NewBadSizeError(dimension string, value, limit int) error {
	return ErrBadSize.
		WithDetail("dimension", dimension).
		WithDetail("value", value).
		WithDetail("limit", limit)
}

// NewIOError creates an i/o error for a failed operation
func NewIOError(op string, cause error) error {
	return ErrIO.
		WithDetail("op", op).
		WithCause(cause)
}

// NewCodecError creates a codec error for a failed decode or encode stage
func NewCodecError(stage string, cause error) error {
	return ErrCodec.
		WithDetail("stage", stage).
		WithCause(cause)
}

// IsThumbError checks if an error is a ThumbError
func IsThumbError(err error) bool {
	_, ok := err.(*ThumbError)
	return ok
}

// GetErrorCode extracts the error code from a ThumbError
func GetErrorCode(err error) string {
	if thumbErr, ok := err.(*ThumbError); ok {
		return thumbErr.Code
	}
	return ""
}
