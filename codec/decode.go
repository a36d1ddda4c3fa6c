package codec

import (
	"errors"
	"fmt"

	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// decodeState is shared by every nesting level of one Decode call.
type decodeState struct {
	opts Options
}

// stagedExtension collects the elements of a repeated extension.
type stagedExtension struct {
	desc *schema.ExtensionDescriptor
	list []interface{}
}

// Decode parses data as one message of the adapter's type. The whole input
// must be consumed. Missing required fields, at any depth, are reported
// together in one message.MissingRequiredFieldsError once the input has
// been read; structural errors abort immediately and return no message.
func (a *Adapter) Decode(data []byte) (*message.Message, error) {
	d := wire.NewDecoder(data)
	st := &decodeState{opts: a.cache.opts}

	m, err := a.decodeMessage(d, 0, st)
	if err != nil {
		return nil, err
	}
	if !d.AtLimit() {
		return nil, fmt.Errorf("%w: %d bytes after end of %s", wire.ErrTruncatedOrOverlongMessage, d.Remaining(), a.desc.ID)
	}
	if missing := missingFields(m, "", nil); len(missing) > 0 {
		return nil, &message.MissingRequiredFieldsError{Type: a.desc.ID, Fields: missing}
	}
	return m, nil
}

// decodeMessage reads fields until the current limit or a zero tag word.
func (a *Adapter) decodeMessage(d *wire.Decoder, depth int, st *decodeState) (*message.Message, error) {
	b := message.NewBuilder(a.desc)
	staged := make([][]interface{}, len(a.desc.Fields))
	var stagedExt []*stagedExtension

	for !d.AtLimit() {
		start := d.Pos()
		num, wt, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		if num == wire.EndOfMessage {
			break
		}

		// declared field
		if i, ok := a.desc.FieldIndex(num); ok {
			fd := a.desc.Fields[i]
			vals, unknown, matched, err := a.readField(d, fd, a.enums[i], wt, depth, st)
			if err != nil {
				return nil, wire.WrapWithField(err, fd.Name)
			}
			if !matched {
				if err := a.skipUnknown(d, b, wt, start, st); err != nil {
					return nil, wire.WrapWithField(err, fd.Name)
				}
				continue
			}
			if len(unknown) > 0 && st.opts.UnknownFields == PreserveUnknown {
				b.AddUnknown(unknown)
			}
			if fd.IsRepeated() {
				staged[i] = append(staged[i], vals...)
			} else if len(vals) > 0 {
				if err := b.Set(fd.Tag, vals[len(vals)-1]); err != nil {
					return nil, wire.WrapWithField(err, fd.Name)
				}
			}
			continue
		}

		// extension
		if a.ext != nil {
			if x, ok := a.ext.Resolve(a.desc.ID, num); ok {
				var ed *schema.EnumDescriptor
				if x.Type == schema.TypeEnum {
					ed, ok = a.cache.types.Enum(x.EnumType)
					if !ok {
						return nil, wire.WrapWithField(fmt.Errorf("%w: enum %s", ErrUnknownType, x.EnumType), "["+x.QualifiedName()+"]")
					}
				}
				vals, unknown, matched, err := a.readField(d, &x.FieldDescriptor, ed, wt, depth, st)
				if err != nil {
					return nil, wire.WrapWithField(err, "["+x.QualifiedName()+"]")
				}
				if !matched {
					if err := a.skipUnknown(d, b, wt, start, st); err != nil {
						return nil, wire.WrapWithField(err, "["+x.QualifiedName()+"]")
					}
					continue
				}
				if len(unknown) > 0 && st.opts.UnknownFields == PreserveUnknown {
					b.AddUnknown(unknown)
				}
				if x.IsRepeated() {
					stagedExt = stageExtension(stagedExt, x, vals)
				} else if len(vals) > 0 {
					if err := b.SetExtension(x, vals[len(vals)-1]); err != nil {
						return nil, wire.WrapWithField(err, "["+x.QualifiedName()+"]")
					}
				}
				continue
			}
		}

		if err := a.skipUnknown(d, b, wt, start, st); err != nil {
			return nil, wire.WrapWithField(err, fmt.Sprintf("#%d", num))
		}
	}

	for i, list := range staged {
		if len(list) == 0 {
			continue
		}
		if err := b.Set(a.desc.Fields[i].Tag, list); err != nil {
			return nil, wire.WrapWithField(err, a.desc.Fields[i].Name)
		}
	}
	for _, se := range stagedExt {
		if err := b.SetExtension(se.desc, se.list); err != nil {
			return nil, wire.WrapWithField(err, "["+se.desc.QualifiedName()+"]")
		}
	}

	return b.BuildPartial(), nil
}

// skipUnknown consumes one field payload and keeps its raw bytes when the
// policy says so.
func (a *Adapter) skipUnknown(d *wire.Decoder, b *message.Builder, wt wire.WireType, start int, st *decodeState) error {
	if err := d.SkipField(wt); err != nil {
		return err
	}
	if st.opts.UnknownFields == PreserveUnknown {
		b.AddUnknown(d.Slice(start, d.Pos()))
	}
	return nil
}

// readField reads one occurrence of fd sent with wire type wt. It returns
// the decoded elements (several for a packed run), the re-encoded bytes of
// undeclared enum values, and whether wt was acceptable for fd at all.
func (a *Adapter) readField(d *wire.Decoder, fd *schema.FieldDescriptor, ed *schema.EnumDescriptor, wt wire.WireType, depth int, st *decodeState) ([]interface{}, []byte, bool, error) {
	switch {
	case wt == fd.WireType():
		v, err := a.readValue(d, fd, depth, st)
		if err != nil {
			return nil, nil, true, err
		}
		if ed != nil {
			keep, unknown, err := checkEnum(fd, ed, v.(int32), nil, st)
			if err != nil || !keep {
				return nil, unknown, true, err
			}
		}
		return []interface{}{v}, nil, true, nil

	case wt == wire.WireBytes && fd.IsRepeated() && fd.Type.Packable():
		length, err := d.DecodeVarint()
		if err != nil {
			return nil, nil, true, err
		}
		old, err := d.PushLimit(length)
		if err != nil {
			return nil, nil, true, err
		}
		var (
			vals    []interface{}
			unknown []byte
		)
		for !d.AtLimit() {
			v, err := readScalar(d, fd.Type)
			if err != nil {
				return nil, nil, true, err
			}
			if ed != nil {
				var keep bool
				keep, unknown, err = checkEnum(fd, ed, v.(int32), unknown, st)
				if err != nil {
					return nil, nil, true, err
				}
				if !keep {
					continue
				}
			}
			vals = append(vals, v)
		}
		d.PopLimit(old)
		return vals, unknown, true, nil

	default:
		return nil, nil, false, nil
	}
}

// checkEnum applies the unknown enum policy. Undeclared values are appended
// to unknown as individual varint fields.
func checkEnum(fd *schema.FieldDescriptor, ed *schema.EnumDescriptor, n int32, unknown []byte, st *decodeState) (bool, []byte, error) {
	if ed.Known(n) {
		return true, unknown, nil
	}
	if st.opts.UnknownEnums == RejectUnknownEnums {
		return false, unknown, fmt.Errorf("%w: %d is not a value of %s", wire.ErrUnknownEnumValue, n, ed.ID)
	}
	unknown = wire.AppendVarint(unknown, uint64(wire.MakeTag(fd.Tag, wire.WireVarint)))
	unknown = wire.AppendVarint(unknown, uint64(n))
	return false, unknown, nil
}

func (a *Adapter) readValue(d *wire.Decoder, fd *schema.FieldDescriptor, depth int, st *decodeState) (interface{}, error) {
	switch fd.Type {
	case schema.TypeString:
		return d.DecodeString()
	case schema.TypeBytes:
		return d.DecodeBytes()
	case schema.TypeMessage:
		return a.readMessage(d, fd, depth, st)
	default:
		return readScalar(d, fd.Type)
	}
}

// readMessage decodes an embedded message, which must fill exactly its
// declared length.
func (a *Adapter) readMessage(d *wire.Decoder, fd *schema.FieldDescriptor, depth int, st *decodeState) (*message.Message, error) {
	length, err := d.DecodeVarint()
	if err != nil {
		return nil, err
	}
	if depth+1 > st.opts.RecursionLimit {
		return nil, fmt.Errorf("%w: limit is %d", wire.ErrRecursionLimitExceeded, st.opts.RecursionLimit)
	}
	sub, err := a.nested(fd.MessageType)
	if err != nil {
		return nil, err
	}
	old, err := d.PushLimit(length)
	if err != nil {
		return nil, err
	}

	m, err := sub.decodeMessage(d, depth+1, st)
	if err != nil {
		// the length fit in the buffer, so running out of bytes means the
		// content overruns the declared length
		if errors.Is(err, wire.ErrTruncatedInput) {
			err = replaceCause(err, fmt.Errorf("%w: content of %s overruns its length %d", wire.ErrTruncatedOrOverlongMessage, fd.MessageType, length))
		}
		return nil, err
	}
	if !d.AtLimit() {
		return nil, fmt.Errorf("%w: %s ended %d bytes before its length %d", wire.ErrTruncatedOrOverlongMessage, fd.MessageType, d.Remaining(), length)
	}
	d.PopLimit(old)
	return m, nil
}

func readScalar(d *wire.Decoder, t schema.ProtoType) (interface{}, error) {
	switch t {
	case schema.TypeInt32, schema.TypeEnum:
		return d.DecodeInt32()
	case schema.TypeInt64:
		return d.DecodeInt64()
	case schema.TypeUint32:
		return d.DecodeUint32()
	case schema.TypeUint64:
		return d.DecodeVarint()
	case schema.TypeSint32:
		return d.DecodeSint32()
	case schema.TypeSint64:
		return d.DecodeSint64()
	case schema.TypeBool:
		return d.DecodeBool()
	case schema.TypeFixed32:
		return d.DecodeFixed32()
	case schema.TypeSfixed32:
		return d.DecodeSfixed32()
	case schema.TypeFloat:
		return d.DecodeFloat32()
	case schema.TypeFixed64:
		return d.DecodeFixed64()
	case schema.TypeSfixed64:
		return d.DecodeSfixed64()
	case schema.TypeDouble:
		return d.DecodeFloat64()
	default:
		return nil, fmt.Errorf("%w: %s is not a scalar", wire.ErrInvalidWireType, t)
	}
}

func stageExtension(staged []*stagedExtension, x *schema.ExtensionDescriptor, vals []interface{}) []*stagedExtension {
	for _, se := range staged {
		if se.desc == x {
			se.list = append(se.list, vals...)
			return staged
		}
	}
	if len(vals) == 0 {
		return staged
	}
	return append(staged, &stagedExtension{desc: x, list: vals})
}

// replaceCause keeps the field path of err but swaps the underlying error.
func replaceCause(err, cause error) error {
	var fe *wire.FieldError
	if errors.As(err, &fe) {
		return &wire.FieldError{FieldPath: fe.FieldPath, Err: cause}
	}
	return cause
}

// missingFields lists the unset required fields of a decoded message and
// of every message below it. Elements of repeated fields are indexed, as
// in "items[2].sku".
func missingFields(m *message.Message, path string, out []string) []string {
	for _, fd := range m.Descriptor().RequiredFields() {
		if !m.Has(fd.Tag) {
			out = append(out, joinPath(path, fd.Name))
		}
	}
	m.Range(func(fd *schema.FieldDescriptor, v interface{}) bool {
		out = missingIn(fd, joinPath(path, fd.Name), v, out)
		return true
	})
	for _, x := range m.Extensions() {
		out = missingIn(&x.Desc.FieldDescriptor, joinPath(path, "["+x.Desc.QualifiedName()+"]"), x.Value, out)
	}
	return out
}

func missingIn(fd *schema.FieldDescriptor, path string, v interface{}, out []string) []string {
	if fd.Type != schema.TypeMessage {
		return out
	}
	if list, ok := v.([]interface{}); ok {
		for i, elem := range list {
			out = missingFields(elem.(*message.Message), fmt.Sprintf("%s[%d]", path, i), out)
		}
		return out
	}
	return missingFields(v.(*message.Message), path, out)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
