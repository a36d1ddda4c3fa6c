package schema

import "fmt"

// EnumValue represents an enum value
type EnumValue struct {
	Name   string `json:"name"`   // "ACTIVE"
	Number int32  `json:"number"` // 1
}

// EnumDescriptor is the integer-keyed value table of one enum type.
type EnumDescriptor struct {
	ID         TypeID       `json:"id"`
	Values     []*EnumValue `json:"values"`
	AllowAlias bool         `json:"allow_alias"`

	byNumber map[int32]*EnumValue
	byName   map[string]*EnumValue
}

// NewEnumDescriptor builds the lookup tables of an enum. Duplicate numbers
// are only accepted when allowAlias is set; the first name wins for lookups.
func NewEnumDescriptor(id TypeID, values []*EnumValue, allowAlias bool) (*EnumDescriptor, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: enum type has no id", ErrInvalidDescriptor)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: enum %s has no values", ErrInvalidDescriptor, id)
	}

	ed := &EnumDescriptor{
		ID:         id,
		Values:     append([]*EnumValue(nil), values...),
		AllowAlias: allowAlias,
		byNumber:   make(map[int32]*EnumValue, len(values)),
		byName:     make(map[string]*EnumValue, len(values)),
	}
	for _, v := range ed.Values {
		if _, dup := ed.byName[v.Name]; dup {
			return nil, fmt.Errorf("%w: enum %s declares %s twice", ErrInvalidDescriptor, id, v.Name)
		}
		ed.byName[v.Name] = v
		if _, dup := ed.byNumber[v.Number]; dup {
			if !allowAlias {
				return nil, fmt.Errorf("%w: enum %s reuses number %d without allow_alias", ErrInvalidDescriptor, id, v.Number)
			}
			continue
		}
		ed.byNumber[v.Number] = v
	}
	return ed, nil
}

// Known reports whether n is a declared value.
func (e *EnumDescriptor) Known(n int32) bool {
	_, ok := e.byNumber[n]
	return ok
}

// ValueByNumber returns the value declared with number n.
func (e *EnumDescriptor) ValueByNumber(n int32) (*EnumValue, bool) {
	v, ok := e.byNumber[n]
	return v, ok
}

// ValueByName returns the value declared with name.
func (e *EnumDescriptor) ValueByName(name string) (*EnumValue, bool) {
	v, ok := e.byName[name]
	return v, ok
}
