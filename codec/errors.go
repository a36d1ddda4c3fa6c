package codec

import "errors"

var (
	// ErrSizeMismatch means the bytes written differ from the computed size.
	// It indicates a bug, never bad input.
	ErrSizeMismatch = errors.New("codec: encoded size does not match computed size")
	ErrUnknownType  = errors.New("codec: unknown type")
	ErrWrongType    = errors.New("codec: message type does not match adapter")
)
