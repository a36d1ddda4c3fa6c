package codec

import (
	"fmt"
	"strings"
)

// DefaultRecursionLimit is the deepest message nesting Decode accepts. The
// top-level message is depth 0.
const DefaultRecursionLimit = 64

// UnknownFieldPolicy decides what decode does with fields it cannot resolve.
type UnknownFieldPolicy int8

const (
	// PreserveUnknown keeps the raw tag and payload bytes and re-emits them
	// verbatim on encode.
	PreserveUnknown UnknownFieldPolicy = iota
	// DiscardUnknown drops them.
	DiscardUnknown
)

func (p UnknownFieldPolicy) String() string {
	switch p {
	case PreserveUnknown:
		return "preserve"
	case DiscardUnknown:
		return "discard"
	default:
		return fmt.Sprintf("UnknownFieldPolicy(%d)", int8(p))
	}
}

// ParseUnknownFieldPolicy accepts "preserve" or "discard".
func ParseUnknownFieldPolicy(s string) (UnknownFieldPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preserve":
		return PreserveUnknown, nil
	case "discard":
		return DiscardUnknown, nil
	default:
		return 0, fmt.Errorf("codec: unknown field policy %q, want preserve or discard", s)
	}
}

// UnknownEnumPolicy decides what decode does with enum numbers that are not
// declared by the enum type.
type UnknownEnumPolicy int8

const (
	// PreserveUnknownEnums stores the value as an unknown field under the
	// field's tag.
	PreserveUnknownEnums UnknownEnumPolicy = iota
	// RejectUnknownEnums fails the decode with wire.ErrUnknownEnumValue.
	RejectUnknownEnums
)

func (p UnknownEnumPolicy) String() string {
	switch p {
	case PreserveUnknownEnums:
		return "preserve"
	case RejectUnknownEnums:
		return "reject"
	default:
		return fmt.Sprintf("UnknownEnumPolicy(%d)", int8(p))
	}
}

// ParseUnknownEnumPolicy accepts "preserve" or "reject".
func ParseUnknownEnumPolicy(s string) (UnknownEnumPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preserve":
		return PreserveUnknownEnums, nil
	case "reject":
		return RejectUnknownEnums, nil
	default:
		return 0, fmt.Errorf("codec: unknown enum policy %q, want preserve or reject", s)
	}
}

// Options controls decode behaviour. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	// RecursionLimit bounds the depth of embedded messages. Exceeding it
	// fails the decode with wire.ErrRecursionLimitExceeded.
	RecursionLimit int

	// UnknownFields: preserve (default) or discard fields that neither the
	// descriptor table nor the extension registry resolves.
	UnknownFields UnknownFieldPolicy

	// UnknownEnums: preserve (default) or reject undeclared enum numbers.
	UnknownEnums UnknownEnumPolicy
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		RecursionLimit: DefaultRecursionLimit,
		UnknownFields:  PreserveUnknown,
		UnknownEnums:   PreserveUnknownEnums,
	}
}

// Validate reports options that cannot be used.
func (o Options) Validate() error {
	if o.RecursionLimit <= 0 {
		return fmt.Errorf("codec: recursion limit must be positive, got %d", o.RecursionLimit)
	}
	if o.UnknownFields != PreserveUnknown && o.UnknownFields != DiscardUnknown {
		return fmt.Errorf("codec: invalid unknown field policy %s", o.UnknownFields)
	}
	if o.UnknownEnums != PreserveUnknownEnums && o.UnknownEnums != RejectUnknownEnums {
		return fmt.Errorf("codec: invalid unknown enum policy %s", o.UnknownEnums)
	}
	return nil
}
