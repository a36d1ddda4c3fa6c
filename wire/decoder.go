package wire

// Decoder handles low-level protobuf wire format decoding. Reads are bounded
// by a limit that PushLimit narrows for each embedded length-delimited scope.
type Decoder struct {
	buf   []byte
	pos   int
	limit int
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf:   data,
		pos:   0,
		limit: len(data),
	}
}

// Pos returns the offset of the next unread byte.
func (d *Decoder) Pos() int { return d.pos }

// Limit returns the exclusive end of the current scope.
func (d *Decoder) Limit() int { return d.limit }

// Remaining returns the unread bytes left in the current scope.
func (d *Decoder) Remaining() int { return d.limit - d.pos }

// AtLimit reports whether the current scope has been fully consumed.
func (d *Decoder) AtLimit() bool { return d.pos >= d.limit }

// PushLimit narrows the readable scope to the next n bytes and returns the
// previous limit, which must be handed back to PopLimit.
func (d *Decoder) PushLimit(n uint64) (int, error) {
	if n > uint64(d.limit-d.pos) {
		return 0, ErrTruncatedInput
	}
	old := d.limit
	d.limit = d.pos + int(n)
	return old, nil
}

// PopLimit restores a limit returned by PushLimit.
func (d *Decoder) PopLimit(old int) {
	d.limit = old
}

// Slice returns the raw bytes between two offsets previously observed via Pos.
func (d *Decoder) Slice(from, to int) []byte {
	return d.buf[from:to]
}

// ReadTag reads the next tag word. A zero tag word yields EndOfMessage.
func (d *Decoder) ReadTag() (FieldNumber, WireType, error) {
	v, err := d.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	if v == 0 {
		return EndOfMessage, WireVarint, nil
	}
	if v>>3 > uint64(MaxFieldNumber) {
		return 0, 0, ErrInvalidFieldNumber
	}

	fieldNumber, wireType := ParseTag(Tag(v))
	if fieldNumber == 0 {
		return 0, 0, ErrInvalidFieldNumber
	}
	switch wireType {
	case WireVarint, WireFixed64, WireBytes, WireFixed32:
		return fieldNumber, wireType, nil
	default:
		return 0, 0, newFieldError("%w: %s on field %d", ErrInvalidWireType, wireType, fieldNumber)
	}
}

// SkipField skips a field payload based on wire type
func (d *Decoder) SkipField(wireType WireType) error {
	switch wireType {
	case WireVarint:
		return d.SkipVarint()
	case WireFixed64:
		if d.limit-d.pos < 8 {
			return ErrTruncatedInput
		}
		d.pos += 8
		return nil
	case WireBytes:
		return d.SkipBytes()
	case WireFixed32:
		if d.limit-d.pos < 4 {
			return ErrTruncatedInput
		}
		d.pos += 4
		return nil
	default:
		return newFieldError("%w: %s", ErrInvalidWireType, wireType)
	}
}

// RawField is one undecoded field as it appears on the wire.
type RawField struct {
	FieldNumber FieldNumber
	WireType    WireType
	Value       uint64 // varint, fixed32 and fixed64 payloads
	Bytes       []byte // length-delimited payload, aliases the input
}

// DecodeField decodes a single field without schema information. It
// returns nil at the end of the current scope or on a zero tag word.
func (d *Decoder) DecodeField() (*RawField, error) {
	if d.AtLimit() {
		return nil, nil
	}

	fieldNumber, wireType, err := d.ReadTag()
	if err != nil {
		return nil, err
	}
	if fieldNumber == EndOfMessage {
		return nil, nil
	}

	field := &RawField{FieldNumber: fieldNumber, WireType: wireType}
	switch wireType {
	case WireVarint:
		field.Value, err = d.DecodeVarint()
	case WireFixed64:
		field.Value, err = d.DecodeFixed64()
	case WireFixed32:
		var v uint32
		v, err = d.DecodeFixed32()
		field.Value = uint64(v)
	case WireBytes:
		field.Bytes, err = d.DecodeRawBytes()
	}
	if err != nil {
		return nil, WrapWithField(err, fieldLabel(fieldNumber))
	}
	return field, nil
}
