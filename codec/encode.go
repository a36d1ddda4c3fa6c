package codec

import (
	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// sizer computes encoded sizes, remembering the size of every embedded
// message for the duration of one encode.
type sizer struct {
	memo map[*message.Message]int
}

func newSizer() *sizer {
	return &sizer{memo: make(map[*message.Message]int)}
}

func (s *sizer) size(m *message.Message) int {
	if n, ok := s.memo[m]; ok {
		return n
	}
	n := 0
	m.Range(func(fd *schema.FieldDescriptor, v interface{}) bool {
		n += s.fieldSize(fd, v)
		return true
	})
	for _, x := range m.Extensions() {
		n += s.fieldSize(&x.Desc.FieldDescriptor, x.Value)
	}
	n += len(m.RawUnknownFields())
	s.memo[m] = n
	return n
}

func (s *sizer) fieldSize(fd *schema.FieldDescriptor, v interface{}) int {
	tagSize := wire.TagSize(fd.Tag)
	if !fd.IsRepeated() {
		return tagSize + s.valueSize(fd.Type, v)
	}
	list := v.([]interface{})
	if len(list) == 0 {
		return 0
	}
	if fd.Packed {
		payload := 0
		for _, elem := range list {
			payload += s.valueSize(fd.Type, elem)
		}
		return tagSize + wire.LengthDelimitedSize(payload)
	}
	n := 0
	for _, elem := range list {
		n += tagSize + s.valueSize(fd.Type, elem)
	}
	return n
}

// valueSize is the payload size of one value, length prefix included for
// length-delimited types.
func (s *sizer) valueSize(t schema.ProtoType, v interface{}) int {
	switch t {
	case schema.TypeInt32, schema.TypeEnum:
		return wire.Int32Size(v.(int32))
	case schema.TypeInt64:
		return wire.VarintSize(uint64(v.(int64)))
	case schema.TypeUint32:
		return wire.VarintSize(uint64(v.(uint32)))
	case schema.TypeUint64:
		return wire.VarintSize(v.(uint64))
	case schema.TypeSint32:
		return wire.VarintSize(wire.EncodeZigZag32(v.(int32)))
	case schema.TypeSint64:
		return wire.VarintSize(wire.EncodeZigZag64(v.(int64)))
	case schema.TypeBool:
		return 1
	case schema.TypeFixed32, schema.TypeSfixed32, schema.TypeFloat:
		return wire.Fixed32Size()
	case schema.TypeFixed64, schema.TypeSfixed64, schema.TypeDouble:
		return wire.Fixed64Size()
	case schema.TypeString:
		return wire.StringSize(v.(string))
	case schema.TypeBytes:
		return wire.BytesSize(v.([]byte))
	case schema.TypeMessage:
		return wire.LengthDelimitedSize(s.size(v.(*message.Message)))
	default:
		return 0
	}
}

// writeMessage writes the fields of m without a length prefix. Embedded
// message sizes come from s, which must already hold them.
func writeMessage(enc *wire.Encoder, m *message.Message, s *sizer) {
	m.Range(func(fd *schema.FieldDescriptor, v interface{}) bool {
		writeField(enc, fd, v, s)
		return true
	})
	for _, x := range m.Extensions() {
		writeField(enc, &x.Desc.FieldDescriptor, x.Value, s)
	}
	enc.EncodeRaw(m.RawUnknownFields())
}

func writeField(enc *wire.Encoder, fd *schema.FieldDescriptor, v interface{}, s *sizer) {
	if !fd.IsRepeated() {
		enc.EncodeTag(fd.Tag, fd.WireType())
		writeValue(enc, fd.Type, v, s)
		return
	}
	list := v.([]interface{})
	if len(list) == 0 {
		return
	}
	if fd.Packed {
		payload := 0
		for _, elem := range list {
			payload += s.valueSize(fd.Type, elem)
		}
		enc.EncodeTag(fd.Tag, wire.WireBytes)
		enc.EncodeVarint(uint64(payload))
		for _, elem := range list {
			writeValue(enc, fd.Type, elem, s)
		}
		return
	}
	for _, elem := range list {
		enc.EncodeTag(fd.Tag, fd.WireType())
		writeValue(enc, fd.Type, elem, s)
	}
}

func writeValue(enc *wire.Encoder, t schema.ProtoType, v interface{}, s *sizer) {
	switch t {
	case schema.TypeInt32, schema.TypeEnum:
		enc.EncodeInt32(v.(int32))
	case schema.TypeInt64:
		enc.EncodeInt64(v.(int64))
	case schema.TypeUint32:
		enc.EncodeVarint(uint64(v.(uint32)))
	case schema.TypeUint64:
		enc.EncodeVarint(v.(uint64))
	case schema.TypeSint32:
		enc.EncodeSint32(v.(int32))
	case schema.TypeSint64:
		enc.EncodeSint64(v.(int64))
	case schema.TypeBool:
		enc.EncodeBool(v.(bool))
	case schema.TypeFixed32:
		enc.EncodeFixed32(v.(uint32))
	case schema.TypeSfixed32:
		enc.EncodeSfixed32(v.(int32))
	case schema.TypeFloat:
		enc.EncodeFloat32(v.(float32))
	case schema.TypeFixed64:
		enc.EncodeFixed64(v.(uint64))
	case schema.TypeSfixed64:
		enc.EncodeSfixed64(v.(int64))
	case schema.TypeDouble:
		enc.EncodeFloat64(v.(float64))
	case schema.TypeString:
		enc.EncodeString(v.(string))
	case schema.TypeBytes:
		enc.EncodeBytes(v.([]byte))
	case schema.TypeMessage:
		nested := v.(*message.Message)
		enc.EncodeVarint(uint64(s.size(nested)))
		writeMessage(enc, nested, s)
	}
}
