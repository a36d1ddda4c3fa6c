package wire

import "strconv"

// Encoder handles low-level protobuf wire format encoding
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder with room for size bytes.
// Callers that computed the exact encoded size get a single allocation.
func NewEncoder(size int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, size),
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// fieldLabel names a field by number in error paths when no schema is known.
func fieldLabel(n FieldNumber) string {
	return "#" + strconv.Itoa(int(n))
}
