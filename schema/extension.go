package schema

import (
	"fmt"

	"github.com/anirudhraja/wirekit/wire"
)

// ExtensionKey identifies an extension by the type it extends and its tag.
type ExtensionKey struct {
	Extendee TypeID
	Tag      wire.FieldNumber
}

func (k ExtensionKey) String() string {
	return fmt.Sprintf("%s#%d", k.Extendee, k.Tag)
}

// ExtensionDescriptor is a field declared outside its owning message type.
type ExtensionDescriptor struct {
	FieldDescriptor

	Extendee TypeID `json:"extendee"`  // owning message type
	FullName string `json:"full_name"` // "shop.gift_wrap"
}

// Key returns the registry key of the extension.
func (x *ExtensionDescriptor) Key() ExtensionKey {
	return ExtensionKey{Extendee: x.Extendee, Tag: x.Tag}
}

// ValueType names the type values of this extension decode to: the
// referenced message or enum type, or the scalar keyword.
func (x *ExtensionDescriptor) ValueType() TypeID {
	switch x.Type {
	case TypeMessage:
		return x.MessageType
	case TypeEnum:
		return x.EnumType
	default:
		return TypeID(x.Type.String())
	}
}

// Validate checks the field invariants plus the extension specific ones.
func (x *ExtensionDescriptor) Validate() error {
	if x.Extendee == "" {
		return fmt.Errorf("%w: extension %s has no extendee", ErrInvalidDescriptor, x.Name)
	}
	if x.IsRequired() {
		return fmt.Errorf("%w: extension %s cannot be required", ErrInvalidDescriptor, x.Name)
	}
	return x.FieldDescriptor.Validate()
}

// QualifiedName returns FullName, falling back to the short name.
func (x *ExtensionDescriptor) QualifiedName() string {
	if x.FullName != "" {
		return x.FullName
	}
	return x.Name
}
