package domain

import (
	"errors"
	"fmt"
)

// Conversion errors represent the complete failure taxonomy of the engine.
// Structural oddities inside a readable container are repaired locally and
// reported as warnings; only the conditions below surface to the caller.
var (
	// ErrSourceUnreadable indicates the input is missing, not readable,
	// or its container is corrupt.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrUnsupportedVariant indicates a recognised format family with an
	// internal schema or version the adapter does not handle.
	ErrUnsupportedVariant = errors.New("unsupported format variant")

	// ErrUnsupportedFormat indicates a format tag outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrWriteFailed indicates the destination could not be written.
	ErrWriteFailed = errors.New("write failed")

	// ErrMalformedMarkdown indicates Markdown input the codec could not
	// recover from. The codec repairs everything in practice (unterminated
	// fences auto-close), so this exists only as a documented escape hatch.
	ErrMalformedMarkdown = errors.New("malformed markdown")
)

// ConversionError is the single error type surfaced by the engine. It
// carries enough context for the caller to present one human-readable
// message: the format tag, the direction, and the offending path.
type ConversionError struct {
	Format    Format
	Direction Direction
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Direction, e.Format, e.Path, e.Err)
}

// Unwrap exposes the underlying sentinel for errors.Is checks.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// WrapConversion annotates err with conversion context. A nil err stays nil,
// and an error already carrying context is returned unchanged.
func WrapConversion(format Format, direction Direction, path string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConversionError{Format: format, Direction: direction, Path: path, Err: err}
}
