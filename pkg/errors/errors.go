// Package errors provides the error taxonomy for the scan-report ingest
// library. The dispatcher and parsers wrap failures into kinded errors so
// callers can distinguish "format not understood" from "right format but
// broken content" without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Error is the base error type for all ingest errors.
type Error struct {
	// Kind indicates the category of error
	Kind Kind

	// Op is the operation being performed (e.g., "ingest.ParseFile")
	Op string

	// Message is a human-readable description
	Message string

	// Err is the underlying error
	Err error
}

// Kind represents the kind/category of error.
type Kind uint8

const (
	KindUnknown Kind = iota

	// KindUnsupportedFormat - the file's extension or content is not
	// recognized by any extractor. Fatal, no partial result.
	KindUnsupportedFormat

	// KindUnreadableFile - I/O-level failure opening or reading the file.
	KindUnreadableFile

	// KindExtraction - the document's root structure does not match the
	// expected shape for its detected format. Fatal for that file.
	KindExtraction

	// KindInvalidInput - bad arguments from the caller.
	KindInvalidInput

	// KindInternal - bug territory (e.g., no parser registered for a
	// format the detector can return).
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindUnreadableFile:
		return "unreadable_file"
	case KindExtraction:
		return "extraction"
	case KindInvalidInput:
		return "invalid_input"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// E constructs an Error from the given arguments.
// Arguments can be: Kind, string (Op then Message), error.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Message = a
			}
		case error:
			e.Err = a
		}
	}
	return e
}

// New creates a new simple error.
func New(message string) error {
	return &Error{Message: message}
}

// Wrap wraps an error with an operation.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapWithKind wraps an error with an operation and a kind, preserving the
// kind of an already-kinded error so taxonomy survives up the stack.
func WrapWithKind(err error, op string, kind Kind) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		kind = e.Kind
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// GetKind returns the Kind of the error, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsUnsupportedFormat checks if the error indicates an unrecognized file format.
func IsUnsupportedFormat(err error) bool {
	return GetKind(err) == KindUnsupportedFormat
}

// IsUnreadableFile checks if the error indicates an I/O-level read failure.
func IsUnreadableFile(err error) bool {
	return GetKind(err) == KindUnreadableFile
}

// IsExtractionError checks if the error indicates structurally-broken content.
func IsExtractionError(err error) bool {
	return GetKind(err) == KindExtraction
}

var (
	// ErrUnsupportedFormat is returned when no extractor recognizes the file.
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat, Message: "unsupported file format"}

	// ErrUnreadableFile is returned when the file cannot be opened or read.
	ErrUnreadableFile = &Error{Kind: KindUnreadableFile, Message: "file cannot be read"}

	// ErrEmptyDocument is returned for zero-byte input.
	ErrEmptyDocument = &Error{Kind: KindExtraction, Message: "document is empty"}
)
