package odata

import (
	"errors"
	"fmt"
)

// Sentinel errors for session misuse and capability failures. Use errors.Is
// to check for these as they may be wrapped with additional context.
var (
	// ErrUnsupported indicates a payload kind was requested against a
	// format that has no representation for it. This is a stable condition,
	// not a transient failure; there is no point retrying.
	ErrUnsupported = errors.New("odata: payload kind not supported by format")

	// ErrDisposed indicates a context was used after Close. The stream is
	// gone; the caller holds a dead session.
	ErrDisposed = errors.New("odata: context has been closed")

	// ErrAlreadyConsumed indicates a second top-level reader or writer was
	// requested from a context that already produced one.
	ErrAlreadyConsumed = errors.New("odata: context already produced its top-level reader or writer")

	// ErrNilStream indicates a context was constructed without a stream or
	// stream opener.
	ErrNilStream = errors.New("odata: nil stream")

	// ErrNilFormat indicates a context was constructed without a format.
	ErrNilFormat = errors.New("odata: nil format")
)

// UnsupportedError identifies the unsupported operation and the format that
// rejected it. It matches ErrUnsupported under errors.Is.
type UnsupportedError struct {
	Operation Kind
	Format    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("odata: %s payloads are not supported by the %s format", e.Operation, e.Format)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// unsupported builds the capability error for a kind/format pair.
func unsupported(op Kind, f Format) error {
	return &UnsupportedError{Operation: op, Format: f.Name()}
}
