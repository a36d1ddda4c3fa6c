package schema

import (
	"fmt"

	"github.com/anirudhraja/wirekit/wire"
)

// TypeID identifies a message or enum type by its fully qualified name,
// e.g. "shop.Order" or "shop.Order.Status".
type TypeID string

// ProtoFile represents a single loaded .proto file
type ProtoFile struct {
	Name       string                 `json:"name"`       // file.proto
	Package    string                 `json:"package"`    // package name
	Syntax     string                 `json:"syntax"`     // proto2 or proto3
	Imports    []string               `json:"imports"`    // resolved import paths
	Messages   []*MessageDescriptor   `json:"messages"`   // every message, nested included
	Enums      []*EnumDescriptor      `json:"enums"`      // every enum, nested included
	Extensions []*ExtensionDescriptor `json:"extensions"` // extend blocks
}

// ProtoType is the wire datatype of a field.
type ProtoType int8

const (
	TypeInt32 ProtoType = iota + 1
	TypeInt64
	TypeUint32
	TypeUint64
	TypeSint32
	TypeSint64
	TypeBool
	TypeEnum
	TypeString
	TypeBytes
	TypeMessage
	TypeFixed32
	TypeSfixed32
	TypeFixed64
	TypeSfixed64
	TypeFloat
	TypeDouble
)

var protoTypeNames = map[ProtoType]string{
	TypeInt32:    "int32",
	TypeInt64:    "int64",
	TypeUint32:   "uint32",
	TypeUint64:   "uint64",
	TypeSint32:   "sint32",
	TypeSint64:   "sint64",
	TypeBool:     "bool",
	TypeEnum:     "enum",
	TypeString:   "string",
	TypeBytes:    "bytes",
	TypeMessage:  "message",
	TypeFixed32:  "fixed32",
	TypeSfixed32: "sfixed32",
	TypeFixed64:  "fixed64",
	TypeSfixed64: "sfixed64",
	TypeFloat:    "float",
	TypeDouble:   "double",
}

// scalarTypes maps .proto scalar keywords to their ProtoType.
var scalarTypes = map[string]ProtoType{}

func init() {
	for t, name := range protoTypeNames {
		if t != TypeEnum && t != TypeMessage {
			scalarTypes[name] = t
		}
	}
}

// ScalarType returns the ProtoType for a .proto scalar keyword such as "sint64".
func ScalarType(name string) (ProtoType, bool) {
	t, ok := scalarTypes[name]
	return t, ok
}

func (t ProtoType) String() string {
	if name, ok := protoTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("prototype(%d)", int8(t))
}

// IsValid reports whether t is one of the declared ProtoTypes.
func (t ProtoType) IsValid() bool {
	_, ok := protoTypeNames[t]
	return ok
}

// WireType returns the wire-type class of a single value of this type.
func (t ProtoType) WireType() wire.WireType {
	switch t {
	case TypeString, TypeBytes, TypeMessage:
		return wire.WireBytes
	case TypeFixed32, TypeSfixed32, TypeFloat:
		return wire.WireFixed32
	case TypeFixed64, TypeSfixed64, TypeDouble:
		return wire.WireFixed64
	default:
		return wire.WireVarint
	}
}

// Packable reports whether repeated values of this type may use the packed
// encoding.
func (t ProtoType) Packable() bool {
	return t.IsValid() && t.WireType() != wire.WireBytes
}

// Label is the cardinality of a field.
type Label int8

const (
	LabelOptional Label = iota
	LabelRequired
	LabelRepeated
)

func (l Label) String() string {
	switch l {
	case LabelOptional:
		return "optional"
	case LabelRequired:
		return "required"
	case LabelRepeated:
		return "repeated"
	default:
		return fmt.Sprintf("label(%d)", int8(l))
	}
}
