package wire

// DECODER METHODS

// DecodeBytes decodes a length-delimited byte array. The result is a copy
// and does not alias the input buffer.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	raw, err := d.DecodeRawBytes()
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(raw))
	copy(data, raw)
	return data, nil
}

// DecodeString decodes a length-delimited string
func (d *Decoder) DecodeString() (string, error) {
	raw, err := d.DecodeRawBytes()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeRawBytes decodes bytes without copying (shares buffer)
func (d *Decoder) DecodeRawBytes() ([]byte, error) {
	length, err := d.DecodeVarint()
	if err != nil {
		return nil, err
	}

	if length > uint64(d.limit-d.pos) {
		return nil, ErrTruncatedInput
	}

	data := d.buf[d.pos : d.pos+int(length)]
	d.pos += int(length)
	return data, nil
}

// SkipBytes skips over a length-delimited byte array
func (d *Decoder) SkipBytes() error {
	_, err := d.DecodeRawBytes()
	return err
}

// ENCODER METHODS

// EncodeBytes encodes a byte array as length-delimited
func (e *Encoder) EncodeBytes(data []byte) {
	e.EncodeVarint(uint64(len(data)))
	e.buf = append(e.buf, data...)
}

// EncodeString encodes a string as length-delimited bytes
func (e *Encoder) EncodeString(s string) {
	e.EncodeVarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// EncodeRaw appends pre-encoded bytes verbatim.
func (e *Encoder) EncodeRaw(data []byte) {
	e.buf = append(e.buf, data...)
}

// UTILITY FUNCTIONS

// BytesSize returns the size needed to encode the given bytes
func BytesSize(data []byte) int {
	return VarintSize(uint64(len(data))) + len(data)
}

// StringSize returns the size needed to encode the given string
func StringSize(s string) int {
	return VarintSize(uint64(len(s))) + len(s)
}

// LengthDelimitedSize returns the size of a length prefix plus n bytes.
func LengthDelimitedSize(n int) int {
	return VarintSize(uint64(n)) + n
}
