package schema

import (
	"errors"
	"fmt"

	"github.com/anirudhraja/wirekit/wire"
)

// ErrInvalidDescriptor is returned when a descriptor violates a schema invariant.
var ErrInvalidDescriptor = errors.New("schema: invalid descriptor")

// FieldDescriptor describes one field of a message type. It is immutable
// once the owning MessageDescriptor has been built.
type FieldDescriptor struct {
	Name        string           `json:"name"`                   // "user_name"
	Tag         wire.FieldNumber `json:"tag"`                    // 1
	Type        ProtoType        `json:"type"`                   // wire datatype
	Label       Label            `json:"label"`                  // optional, required, repeated
	Packed      bool             `json:"packed"`                 // packed encoding for repeated scalars
	Default     interface{}      `json:"default,omitempty"`      // typed default value (proto2)
	MessageType TypeID           `json:"message_type,omitempty"` // for TypeMessage
	EnumType    TypeID           `json:"enum_type,omitempty"`    // for TypeEnum
}

// IsRepeated reports whether the field is repeated.
func (f *FieldDescriptor) IsRepeated() bool { return f.Label == LabelRepeated }

// IsRequired reports whether the field is required.
func (f *FieldDescriptor) IsRequired() bool { return f.Label == LabelRequired }

// WireType returns the wire type of a single element of the field.
func (f *FieldDescriptor) WireType() wire.WireType { return f.Type.WireType() }

// DefaultValue returns the value an unset singular field reads as: the
// declared default or the zero value of the type. Messages have no default.
func (f *FieldDescriptor) DefaultValue() interface{} {
	if f.IsRepeated() || f.Type == TypeMessage {
		return nil
	}
	if f.Default != nil {
		return f.Default
	}
	return f.Type.ZeroValue()
}

// Validate checks the descriptor invariants.
func (f *FieldDescriptor) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: field %d has no name", ErrInvalidDescriptor, f.Tag)
	}
	if !f.Tag.IsValid() {
		return fmt.Errorf("%w: field %s has illegal tag %d", ErrInvalidDescriptor, f.Name, f.Tag)
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("%w: field %s has unknown type %s", ErrInvalidDescriptor, f.Name, f.Type)
	}
	if f.Label < LabelOptional || f.Label > LabelRepeated {
		return fmt.Errorf("%w: field %s has unknown label %s", ErrInvalidDescriptor, f.Name, f.Label)
	}
	if f.Packed && (!f.IsRepeated() || !f.Type.Packable()) {
		return fmt.Errorf("%w: field %s cannot be packed (%s %s)", ErrInvalidDescriptor, f.Name, f.Label, f.Type)
	}
	switch f.Type {
	case TypeMessage:
		if f.MessageType == "" {
			return fmt.Errorf("%w: message field %s has no message type", ErrInvalidDescriptor, f.Name)
		}
	case TypeEnum:
		if f.EnumType == "" {
			return fmt.Errorf("%w: enum field %s has no enum type", ErrInvalidDescriptor, f.Name)
		}
	}
	if f.Default != nil {
		if f.IsRepeated() || f.Type == TypeMessage {
			return fmt.Errorf("%w: field %s cannot declare a default", ErrInvalidDescriptor, f.Name)
		}
		if !f.Type.AcceptsValue(f.Default) {
			return fmt.Errorf("%w: default %v (%T) does not fit %s field %s", ErrInvalidDescriptor, f.Default, f.Default, f.Type, f.Name)
		}
	}
	return nil
}

// ZeroValue returns the zero value of a scalar or enum type.
func (t ProtoType) ZeroValue() interface{} {
	switch t {
	case TypeInt32, TypeSint32, TypeSfixed32, TypeEnum:
		return int32(0)
	case TypeInt64, TypeSint64, TypeSfixed64:
		return int64(0)
	case TypeUint32, TypeFixed32:
		return uint32(0)
	case TypeUint64, TypeFixed64:
		return uint64(0)
	case TypeBool:
		return false
	case TypeFloat:
		return float32(0)
	case TypeDouble:
		return float64(0)
	case TypeString:
		return ""
	case TypeBytes:
		return []byte{}
	default:
		return nil
	}
}

// AcceptsValue reports whether v has the Go type used for values of t.
// Message values are checked by the message package.
func (t ProtoType) AcceptsValue(v interface{}) bool {
	switch v.(type) {
	case int32:
		return t == TypeInt32 || t == TypeSint32 || t == TypeSfixed32 || t == TypeEnum
	case int64:
		return t == TypeInt64 || t == TypeSint64 || t == TypeSfixed64
	case uint32:
		return t == TypeUint32 || t == TypeFixed32
	case uint64:
		return t == TypeUint64 || t == TypeFixed64
	case bool:
		return t == TypeBool
	case float32:
		return t == TypeFloat
	case float64:
		return t == TypeDouble
	case string:
		return t == TypeString
	case []byte:
		return t == TypeBytes
	default:
		return false
	}
}
