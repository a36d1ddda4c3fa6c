package message

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// ExtensionField is one extension value carried by a message.
type ExtensionField struct {
	Desc  *schema.ExtensionDescriptor
	Value interface{}
}

// Message is an immutable instance of a message type. It is safe to share
// between goroutines once built.
type Message struct {
	desc       *schema.MessageDescriptor
	values     []interface{}    // aligned with desc.Fields, nil when unset
	extensions []ExtensionField // ascending tag order
	unknown    []byte
}

// Descriptor returns the message type.
func (m *Message) Descriptor() *schema.MessageDescriptor { return m.desc }

// Type returns the message type id.
func (m *Message) Type() schema.TypeID { return m.desc.ID }

// Has reports whether a field is set.
func (m *Message) Has(tag wire.FieldNumber) bool {
	i, ok := m.desc.FieldIndex(tag)
	return ok && m.values[i] != nil
}

// Get returns the value of a set field. Repeated values are returned as a
// fresh []interface{}.
func (m *Message) Get(tag wire.FieldNumber) (interface{}, bool) {
	i, ok := m.desc.FieldIndex(tag)
	if !ok || m.values[i] == nil {
		return nil, false
	}
	return copyValue(m.values[i]), true
}

// GetOrDefault returns the value of a field or its descriptor default.
func (m *Message) GetOrDefault(tag wire.FieldNumber) interface{} {
	if v, ok := m.Get(tag); ok {
		return v
	}
	if fd, ok := m.desc.Field(tag); ok {
		return fd.DefaultValue()
	}
	return nil
}

// GetByName returns the value of a set field looked up by name.
func (m *Message) GetByName(name string) (interface{}, bool) {
	fd, ok := m.desc.FieldByName(name)
	if !ok {
		return nil, false
	}
	return m.Get(fd.Tag)
}

// Repeated returns the elements of a repeated field; empty when unset.
func (m *Message) Repeated(tag wire.FieldNumber) []interface{} {
	v, _ := m.Get(tag)
	list, _ := v.([]interface{})
	return list
}

// Range calls fn for every set field in ascending tag order. Values are
// passed without copying and must not be modified.
func (m *Message) Range(fn func(fd *schema.FieldDescriptor, v interface{}) bool) {
	for i, v := range m.values {
		if v == nil {
			continue
		}
		if !fn(m.desc.Fields[i], v) {
			return
		}
	}
}

// Extension returns the value of an extension by tag.
func (m *Message) Extension(tag wire.FieldNumber) (interface{}, bool) {
	i := sort.Search(len(m.extensions), func(i int) bool {
		return m.extensions[i].Desc.Tag >= tag
	})
	if i < len(m.extensions) && m.extensions[i].Desc.Tag == tag {
		return copyValue(m.extensions[i].Value), true
	}
	return nil, false
}

// Extensions returns the extension values in ascending tag order. The
// returned values must not be modified.
func (m *Message) Extensions() []ExtensionField {
	return append([]ExtensionField(nil), m.extensions...)
}

// UnknownFields returns a copy of the raw bytes of fields that were not
// recognised while decoding.
func (m *Message) UnknownFields() []byte {
	if len(m.unknown) == 0 {
		return nil
	}
	return append([]byte(nil), m.unknown...)
}

// RawUnknownFields returns the unknown bytes without copying.
func (m *Message) RawUnknownFields() []byte { return m.unknown }

// ToBuilder returns a builder initialised with a copy of the message.
func (m *Message) ToBuilder() *Builder {
	b := NewBuilder(m.desc)
	for i, v := range m.values {
		b.values[i] = copyValue(v)
	}
	for _, x := range m.extensions {
		b.extensions = append(b.extensions, ExtensionField{Desc: x.Desc, Value: copyValue(x.Value)})
	}
	b.unknown = append([]byte(nil), m.unknown...)
	return b
}

// Equal reports structural equality over declared fields, extensions and
// unknown-field bytes.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.desc.ID != o.desc.ID || len(m.values) != len(o.values) {
		return false
	}
	for i := range m.values {
		if !valuesEqual(m.values[i], o.values[i]) {
			return false
		}
	}
	if len(m.extensions) != len(o.extensions) {
		return false
	}
	for i := range m.extensions {
		if m.extensions[i].Desc.Key() != o.extensions[i].Desc.Key() {
			return false
		}
		if !valuesEqual(m.extensions[i].Value, o.extensions[i].Value) {
			return false
		}
	}
	return bytes.Equal(m.unknown, o.unknown)
}

// Hash returns a structural hash consistent with Equal.
func (m *Message) Hash() uint64 {
	h := xxhash.New()
	m.hashInto(h)
	return h.Sum64()
}

func (m *Message) hashInto(h *xxhash.Digest) {
	_, _ = h.WriteString(string(m.desc.ID))
	var scratch [8]byte
	for i, v := range m.values {
		if v == nil {
			continue
		}
		writeUint(h, scratch[:], uint64(m.desc.Fields[i].Tag))
		hashValue(h, scratch[:], v)
	}
	for _, x := range m.extensions {
		_, _ = h.WriteString(string(x.Desc.Extendee))
		writeUint(h, scratch[:], uint64(x.Desc.Tag))
		hashValue(h, scratch[:], x.Value)
	}
	_, _ = h.Write(m.unknown)
}

func (m *Message) String() string {
	return fmt.Sprintf("%s%v", m.desc.ID, m.AsMap())
}

// AsMap renders the message as nested maps keyed by field name. Extensions
// are keyed by "[full.name]" and unknown bytes by "__unknown".
func (m *Message) AsMap() map[string]interface{} {
	out := make(map[string]interface{})
	m.Range(func(fd *schema.FieldDescriptor, v interface{}) bool {
		out[fd.Name] = plainValue(v)
		return true
	})
	for _, x := range m.extensions {
		out["["+x.Desc.QualifiedName()+"]"] = plainValue(x.Value)
	}
	if len(m.unknown) > 0 {
		out["__unknown"] = append([]byte(nil), m.unknown...)
	}
	return out
}

func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case *Message:
		return val.AsMap()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = plainValue(elem)
		}
		return out
	case []byte:
		return append([]byte(nil), val...)
	default:
		return v
	}
}

func valuesEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case *Message:
		bv, ok := b.(*Message)
		return ok && av.Equal(bv)
	// Floats match when == holds (so +0 and -0 do) or the bits are
	// identical (so a NaN matches itself).
	case float32:
		bv, ok := b.(float32)
		return ok && (av == bv || math.Float32bits(av) == math.Float32bits(bv))
	case float64:
		bv, ok := b.(float64)
		return ok && (av == bv || math.Float64bits(av) == math.Float64bits(bv))
	default:
		return a == b
	}
}

func writeUint(h *xxhash.Digest, scratch []byte, v uint64) {
	for i := 0; i < 8; i++ {
		scratch[i] = byte(v >> (8 * i))
	}
	_, _ = h.Write(scratch[:8])
}

func hashValue(h *xxhash.Digest, scratch []byte, v interface{}) {
	switch val := v.(type) {
	case []interface{}:
		writeUint(h, scratch, uint64(len(val)))
		for _, elem := range val {
			hashValue(h, scratch, elem)
		}
	case []byte:
		writeUint(h, scratch, uint64(len(val)))
		_, _ = h.Write(val)
	case string:
		writeUint(h, scratch, uint64(len(val)))
		_, _ = h.WriteString(val)
	case *Message:
		val.hashInto(h)
	case int32:
		writeUint(h, scratch, uint64(val))
	case int64:
		writeUint(h, scratch, uint64(val))
	case uint32:
		writeUint(h, scratch, uint64(val))
	case uint64:
		writeUint(h, scratch, val)
	case bool:
		if val {
			writeUint(h, scratch, 1)
		} else {
			writeUint(h, scratch, 0)
		}
	case float32:
		// +0 and -0 compare equal, so they must hash equal.
		if val == 0 {
			val = 0
		}
		writeUint(h, scratch, uint64(math.Float32bits(val)))
	case float64:
		if val == 0 {
			val = 0
		}
		writeUint(h, scratch, math.Float64bits(val))
	}
}
