package codec

import (
	"fmt"

	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// Adapter encodes and decodes one message type. Adapters are immutable and
// shared; get them from a Cache.
type Adapter struct {
	cache *Cache
	desc  *schema.MessageDescriptor
	ext   ExtensionResolver
	enums []*schema.EnumDescriptor // aligned with desc.Fields
}

// Descriptor returns the message type handled by the adapter.
func (a *Adapter) Descriptor() *schema.MessageDescriptor { return a.desc }

// RegistryID returns the id of the bound extension registry, or "" when
// the adapter has none.
func (a *Adapter) RegistryID() string {
	if a.ext == nil {
		return ""
	}
	return a.ext.ID()
}

// EncodedSize returns the exact number of bytes Encode produces for m.
func (a *Adapter) EncodedSize(m *message.Message) (int, error) {
	if err := a.check(m); err != nil {
		return 0, err
	}
	return newSizer().size(m), nil
}

// Encode serializes m. Fields are written in ascending tag order, then
// extensions in ascending tag order, then unknown fields verbatim.
func (a *Adapter) Encode(m *message.Message) ([]byte, error) {
	if err := a.check(m); err != nil {
		return nil, err
	}
	s := newSizer()
	size := s.size(m)
	enc := wire.NewEncoder(size)
	writeMessage(enc, m, s)
	if enc.Len() != size {
		return nil, fmt.Errorf("%w: %s computed %d bytes, wrote %d", ErrSizeMismatch, a.desc.ID, size, enc.Len())
	}
	return enc.Bytes(), nil
}

// EncodeTo appends the fields of m to enc without a length prefix.
func (a *Adapter) EncodeTo(enc *wire.Encoder, m *message.Message) error {
	if err := a.check(m); err != nil {
		return err
	}
	s := newSizer()
	size := s.size(m)
	start := enc.Len()
	writeMessage(enc, m, s)
	if written := enc.Len() - start; written != size {
		return fmt.Errorf("%w: %s computed %d bytes, wrote %d", ErrSizeMismatch, a.desc.ID, size, written)
	}
	return nil
}

func (a *Adapter) check(m *message.Message) error {
	if m == nil {
		return fmt.Errorf("%w: nil message for %s", ErrWrongType, a.desc.ID)
	}
	if m.Type() != a.desc.ID {
		return fmt.Errorf("%w: adapter for %s got %s", ErrWrongType, a.desc.ID, m.Type())
	}
	return nil
}

// nested returns the adapter of a referenced message type bound to the same
// extension registry.
func (a *Adapter) nested(id schema.TypeID) (*Adapter, error) {
	return a.cache.Adapter(id, a.ext)
}
