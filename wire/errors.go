package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Structural errors. All of them are fatal to the decode call that hit them.
var (
	ErrMalformedVarint            = errors.New("wire: malformed varint")
	ErrTruncatedInput             = errors.New("wire: truncated input")
	ErrRecursionLimitExceeded     = errors.New("wire: recursion limit exceeded")
	ErrTruncatedOrOverlongMessage = errors.New("wire: embedded message length mismatch")
	ErrUnknownEnumValue           = errors.New("wire: unknown enum value")
	ErrInvalidWireType            = errors.New("wire: invalid wire type")
	ErrInvalidFieldNumber         = errors.New("wire: invalid field number")
)

// FieldError represents an encoding/decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["order", "items", "price"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at proto path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// WrapWithField prefixes the error path with fieldName. Nested calls build
// the path from the innermost field outwards.
func WrapWithField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}

// newFieldError creates a FieldError without path from a formatted message.
func newFieldError(format string, args ...interface{}) error {
	return &FieldError{Err: fmt.Errorf(format, args...)}
}
