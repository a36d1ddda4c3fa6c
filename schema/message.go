package schema

import (
	"fmt"
	"sort"

	"github.com/anirudhraja/wirekit/wire"
)

// ExtensionRange is an inclusive range of tags reserved for extensions.
type ExtensionRange struct {
	Start wire.FieldNumber `json:"start"`
	End   wire.FieldNumber `json:"end"`
}

// Contains reports whether tag lies inside the range.
func (r ExtensionRange) Contains(tag wire.FieldNumber) bool {
	return tag >= r.Start && tag <= r.End
}

// MessageDescriptor is the field descriptor table of one message type.
// Fields are kept in ascending tag order.
type MessageDescriptor struct {
	ID              TypeID             `json:"id"`
	Fields          []*FieldDescriptor `json:"fields"`
	ExtensionRanges []ExtensionRange   `json:"extension_ranges,omitempty"`
	MapEntry        bool               `json:"map_entry,omitempty"` // synthesized map<K,V> entry

	byTag  map[wire.FieldNumber]int
	byName map[string]int
}

// NewMessageDescriptor validates fields and builds the lookup tables. The
// fields slice is copied and sorted by tag.
func NewMessageDescriptor(id TypeID, fields []*FieldDescriptor, ranges ...ExtensionRange) (*MessageDescriptor, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: message type has no id", ErrInvalidDescriptor)
	}

	sorted := make([]*FieldDescriptor, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Tag < sorted[j].Tag
	})

	md := &MessageDescriptor{
		ID:              id,
		Fields:          sorted,
		ExtensionRanges: append([]ExtensionRange(nil), ranges...),
		byTag:           make(map[wire.FieldNumber]int, len(sorted)),
		byName:          make(map[string]int, len(sorted)),
	}

	for i, f := range sorted {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		if _, dup := md.byTag[f.Tag]; dup {
			return nil, fmt.Errorf("%w: %s declares tag %d twice", ErrInvalidDescriptor, id, f.Tag)
		}
		if _, dup := md.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s declares field %s twice", ErrInvalidDescriptor, id, f.Name)
		}
		md.byTag[f.Tag] = i
		md.byName[f.Name] = i
	}

	for _, r := range md.ExtensionRanges {
		if r.Start > r.End || !r.Start.IsValid() || r.End > wire.MaxFieldNumber {
			return nil, fmt.Errorf("%w: %s has illegal extension range %d to %d", ErrInvalidDescriptor, id, r.Start, r.End)
		}
		for _, f := range sorted {
			if r.Contains(f.Tag) {
				return nil, fmt.Errorf("%w: %s field %s overlaps extension range %d to %d", ErrInvalidDescriptor, id, f.Name, r.Start, r.End)
			}
		}
	}

	return md, nil
}

// MustMessageDescriptor is like NewMessageDescriptor but panics on error.
// It is meant for statically declared tables.
func MustMessageDescriptor(id TypeID, fields []*FieldDescriptor, ranges ...ExtensionRange) *MessageDescriptor {
	md, err := NewMessageDescriptor(id, fields, ranges...)
	if err != nil {
		panic(err)
	}
	return md
}

// Field returns the field declared with tag.
func (m *MessageDescriptor) Field(tag wire.FieldNumber) (*FieldDescriptor, bool) {
	i, ok := m.byTag[tag]
	if !ok {
		return nil, false
	}
	return m.Fields[i], true
}

// FieldIndex returns the position of tag in Fields.
func (m *MessageDescriptor) FieldIndex(tag wire.FieldNumber) (int, bool) {
	i, ok := m.byTag[tag]
	return i, ok
}

// FieldByName returns the field declared with name.
func (m *MessageDescriptor) FieldByName(name string) (*FieldDescriptor, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.Fields[i], true
}

// Extendable reports whether the type declares extension ranges.
func (m *MessageDescriptor) Extendable() bool {
	return len(m.ExtensionRanges) > 0
}

// InExtensionRange reports whether tag falls in a declared extension range.
func (m *MessageDescriptor) InExtensionRange(tag wire.FieldNumber) bool {
	for _, r := range m.ExtensionRanges {
		if r.Contains(tag) {
			return true
		}
	}
	return false
}

// RequiredFields returns the required fields in tag order.
func (m *MessageDescriptor) RequiredFields() []*FieldDescriptor {
	var out []*FieldDescriptor
	for _, f := range m.Fields {
		if f.IsRequired() {
			out = append(out, f)
		}
	}
	return out
}
