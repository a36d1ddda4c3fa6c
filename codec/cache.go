package codec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// TypeResolver looks up descriptor tables by type id. registry.Registry
// implements it.
type TypeResolver interface {
	Message(id schema.TypeID) (*schema.MessageDescriptor, bool)
	Enum(id schema.TypeID) (*schema.EnumDescriptor, bool)
}

// ExtensionResolver resolves extensions by owning type and tag.
// registry.ExtensionRegistry implements it.
type ExtensionResolver interface {
	ID() string
	Resolve(extendee schema.TypeID, tag wire.FieldNumber) (*schema.ExtensionDescriptor, bool)
}

type cacheKey struct {
	typ      schema.TypeID
	registry string // "" for adapters without an extension registry
}

// Cache hands out adapters, deriving each (type, extension registry) pair
// once. It is safe for concurrent use.
type Cache struct {
	types TypeResolver
	opts  Options

	adapters sync.Map // cacheKey -> *Adapter
	group    singleflight.Group
	derived  atomic.Int64
}

// NewCache creates an adapter cache over types.
func NewCache(types TypeResolver, opts Options) (*Cache, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Cache{types: types, opts: opts}, nil
}

// Options returns the decode options shared by every adapter of the cache.
func (c *Cache) Options() Options { return c.opts }

// Derived returns how many adapters have been built so far.
func (c *Cache) Derived() int64 { return c.derived.Load() }

// Adapter returns the adapter for id bound to ext. A nil ext, or one with
// an empty ID such as a nil *registry.ExtensionRegistry, yields an adapter
// that decodes extension fields as unknown fields.
func (c *Cache) Adapter(id schema.TypeID, ext ExtensionResolver) (*Adapter, error) {
	key := cacheKey{typ: id}
	if ext != nil {
		key.registry = ext.ID()
	}
	if key.registry == "" {
		ext = nil
	}
	if a, ok := c.adapters.Load(key); ok {
		return a.(*Adapter), nil
	}

	v, err, _ := c.group.Do(string(key.typ)+"\x00"+key.registry, func() (interface{}, error) {
		if a, ok := c.adapters.Load(key); ok {
			return a, nil
		}
		a, err := c.derive(id, ext)
		if err != nil {
			return nil, err
		}
		c.adapters.Store(key, a)
		c.derived.Add(1)
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Adapter), nil
}

// derive builds the per-field plan of a type. Referenced message types are
// only checked for existence; their adapters are fetched lazily so that
// recursive types work.
func (c *Cache) derive(id schema.TypeID, ext ExtensionResolver) (*Adapter, error) {
	desc, ok := c.types.Message(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
	}

	a := &Adapter{
		cache: c,
		desc:  desc,
		ext:   ext,
		enums: make([]*schema.EnumDescriptor, len(desc.Fields)),
	}
	for i, fd := range desc.Fields {
		switch fd.Type {
		case schema.TypeEnum:
			ed, ok := c.types.Enum(fd.EnumType)
			if !ok {
				return nil, fmt.Errorf("%w: enum %s of field %s.%s", ErrUnknownType, fd.EnumType, id, fd.Name)
			}
			a.enums[i] = ed
		case schema.TypeMessage:
			if _, ok := c.types.Message(fd.MessageType); !ok {
				return nil, fmt.Errorf("%w: message %s of field %s.%s", ErrUnknownType, fd.MessageType, id, fd.Name)
			}
		}
	}
	return a, nil
}
