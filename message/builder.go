package message

import (
	"fmt"
	"sort"

	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// Builder is the mutable counterpart of Message. A Builder belongs to a
// single goroutine until Build returns.
type Builder struct {
	desc       *schema.MessageDescriptor
	values     []interface{}
	extensions []ExtensionField
	unknown    []byte
}

// NewBuilder creates an empty builder for desc.
func NewBuilder(desc *schema.MessageDescriptor) *Builder {
	return &Builder{
		desc:   desc,
		values: make([]interface{}, len(desc.Fields)),
	}
}

// Descriptor returns the message type being built.
func (b *Builder) Descriptor() *schema.MessageDescriptor { return b.desc }

// Set assigns a field. Repeated fields take a []interface{} holding the
// elements; nil or an empty list clears the field.
func (b *Builder) Set(tag wire.FieldNumber, v interface{}) error {
	i, ok := b.desc.FieldIndex(tag)
	if !ok {
		return fmt.Errorf("%w: %s has no field %d", ErrUnknownField, b.desc.ID, tag)
	}
	fd := b.desc.Fields[i]
	if v == nil {
		b.values[i] = nil
		return nil
	}

	if fd.IsRepeated() {
		list, ok := v.([]interface{})
		if !ok {
			return typeMismatch(fd.Name, "[]interface{}", v)
		}
		if len(list) == 0 {
			b.values[i] = nil
			return nil
		}
		for _, elem := range list {
			if err := checkValue(fd.Type, fd.MessageType, fd.Name, elem); err != nil {
				return err
			}
		}
		b.values[i] = copyValue(list)
		return nil
	}

	if err := checkValue(fd.Type, fd.MessageType, fd.Name, v); err != nil {
		return err
	}
	b.values[i] = copyValue(v)
	return nil
}

// SetByName assigns a field by name.
func (b *Builder) SetByName(name string, v interface{}) error {
	fd, ok := b.desc.FieldByName(name)
	if !ok {
		return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, b.desc.ID, name)
	}
	return b.Set(fd.Tag, v)
}

// Add appends one element to a repeated field.
func (b *Builder) Add(tag wire.FieldNumber, v interface{}) error {
	i, ok := b.desc.FieldIndex(tag)
	if !ok {
		return fmt.Errorf("%w: %s has no field %d", ErrUnknownField, b.desc.ID, tag)
	}
	fd := b.desc.Fields[i]
	if !fd.IsRepeated() {
		return fmt.Errorf("%w: field %s is not repeated", ErrTypeMismatch, fd.Name)
	}
	if err := checkValue(fd.Type, fd.MessageType, fd.Name, v); err != nil {
		return err
	}
	list, _ := b.values[i].([]interface{})
	b.values[i] = append(list, copyValue(v))
	return nil
}

// Clear unsets a field.
func (b *Builder) Clear(tag wire.FieldNumber) {
	if i, ok := b.desc.FieldIndex(tag); ok {
		b.values[i] = nil
	}
}

// Has reports whether a field has been set.
func (b *Builder) Has(tag wire.FieldNumber) bool {
	i, ok := b.desc.FieldIndex(tag)
	return ok && b.values[i] != nil
}

// Get returns the value of a field, or its default when unset.
func (b *Builder) Get(tag wire.FieldNumber) interface{} {
	i, ok := b.desc.FieldIndex(tag)
	if !ok {
		return nil
	}
	if v := b.values[i]; v != nil {
		return v
	}
	return b.desc.Fields[i].DefaultValue()
}

// SetExtension assigns an extension value; nil removes it. Repeated
// extensions take a []interface{}.
func (b *Builder) SetExtension(x *schema.ExtensionDescriptor, v interface{}) error {
	if x.Extendee != b.desc.ID {
		return fmt.Errorf("%w: extension %s extends %s, not %s", ErrTypeMismatch, x.QualifiedName(), x.Extendee, b.desc.ID)
	}
	if v == nil {
		b.removeExtension(x.Tag)
		return nil
	}
	if x.IsRepeated() {
		list, ok := v.([]interface{})
		if !ok {
			return typeMismatch(x.QualifiedName(), "[]interface{}", v)
		}
		if len(list) == 0 {
			b.removeExtension(x.Tag)
			return nil
		}
		for _, elem := range list {
			if err := checkValue(x.Type, x.MessageType, x.QualifiedName(), elem); err != nil {
				return err
			}
		}
	} else if err := checkValue(x.Type, x.MessageType, x.QualifiedName(), v); err != nil {
		return err
	}
	b.putExtension(x, copyValue(v))
	return nil
}

// AddExtension appends one element to a repeated extension.
func (b *Builder) AddExtension(x *schema.ExtensionDescriptor, v interface{}) error {
	if !x.IsRepeated() {
		return fmt.Errorf("%w: extension %s is not repeated", ErrTypeMismatch, x.QualifiedName())
	}
	var list []interface{}
	if cur, ok := b.Extension(x.Tag); ok {
		list = cur.([]interface{})
	}
	return b.SetExtension(x, append(list, v))
}

// Extension returns the value of an extension set on the builder.
func (b *Builder) Extension(tag wire.FieldNumber) (interface{}, bool) {
	i := b.searchExtension(tag)
	if i < len(b.extensions) && b.extensions[i].Desc.Tag == tag {
		return b.extensions[i].Value, true
	}
	return nil, false
}

// AddUnknown appends raw tag+payload bytes that are re-emitted verbatim.
func (b *Builder) AddUnknown(raw []byte) {
	b.unknown = append(b.unknown, raw...)
}

// Missing returns the names of unset required fields in tag order.
func (b *Builder) Missing() []string {
	var missing []string
	for i, fd := range b.desc.Fields {
		if fd.IsRequired() && b.values[i] == nil {
			missing = append(missing, fd.Name)
		}
	}
	return missing
}

// Build validates required fields and returns the immutable message. All
// missing fields are reported in one error.
func (b *Builder) Build() (*Message, error) {
	if missing := b.Missing(); len(missing) > 0 {
		return nil, &MissingRequiredFieldsError{Type: b.desc.ID, Fields: missing}
	}
	return b.BuildPartial(), nil
}

// BuildPartial returns the message without checking required fields.
func (b *Builder) BuildPartial() *Message {
	m := &Message{
		desc:   b.desc,
		values: make([]interface{}, len(b.values)),
	}
	for i, v := range b.values {
		m.values[i] = copyValue(v)
	}
	if len(b.extensions) > 0 {
		m.extensions = make([]ExtensionField, len(b.extensions))
		for i, x := range b.extensions {
			m.extensions[i] = ExtensionField{Desc: x.Desc, Value: copyValue(x.Value)}
		}
	}
	if len(b.unknown) > 0 {
		m.unknown = append([]byte(nil), b.unknown...)
	}
	return m
}

func (b *Builder) searchExtension(tag wire.FieldNumber) int {
	return sort.Search(len(b.extensions), func(i int) bool {
		return b.extensions[i].Desc.Tag >= tag
	})
}

func (b *Builder) putExtension(x *schema.ExtensionDescriptor, v interface{}) {
	i := b.searchExtension(x.Tag)
	if i < len(b.extensions) && b.extensions[i].Desc.Tag == x.Tag {
		b.extensions[i] = ExtensionField{Desc: x, Value: v}
		return
	}
	b.extensions = append(b.extensions, ExtensionField{})
	copy(b.extensions[i+1:], b.extensions[i:])
	b.extensions[i] = ExtensionField{Desc: x, Value: v}
}

func (b *Builder) removeExtension(tag wire.FieldNumber) {
	i := b.searchExtension(tag)
	if i < len(b.extensions) && b.extensions[i].Desc.Tag == tag {
		b.extensions = append(b.extensions[:i], b.extensions[i+1:]...)
	}
}

// checkValue verifies that v is a legal single value of a field.
func checkValue(t schema.ProtoType, messageType schema.TypeID, name string, v interface{}) error {
	if t == schema.TypeMessage {
		m, ok := v.(*Message)
		if !ok || m == nil {
			return typeMismatch(name, "*message.Message", v)
		}
		if m.desc.ID != messageType {
			return fmt.Errorf("%w: field %s expects %s, got %s", ErrTypeMismatch, name, messageType, m.desc.ID)
		}
		return nil
	}
	if !t.AcceptsValue(v) {
		return typeMismatch(name, t.String(), v)
	}
	return nil
}

// copyValue copies the mutable parts of a value so builders and messages
// never share backing arrays. Messages are immutable and shared.
func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return append([]byte{}, val...)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return v
	}
}
