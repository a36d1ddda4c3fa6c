package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

var (
	ErrDuplicateExtension = errors.New("registry: duplicate extension registration")
	ErrRegistryFrozen     = errors.New("registry: extension registry is frozen")
)

// DuplicateExtensionError reports a second registration of the same
// (extendee, tag) pair.
type DuplicateExtensionError struct {
	Key      schema.ExtensionKey
	Existing string
	Incoming string
}

func (e *DuplicateExtensionError) Error() string {
	return fmt.Sprintf("registry: extension %s already registered as %s, cannot register %s", e.Key, e.Existing, e.Incoming)
}

// Is makes errors.Is(err, ErrDuplicateExtension) hold.
func (e *DuplicateExtensionError) Is(target error) bool {
	return target == ErrDuplicateExtension
}

// ExtensionRegistry maps (extendee, tag) to extension descriptors. It is
// append-only: extensions are registered during start-up, then Freeze ends
// the registration phase and every later read is lock-free.
type ExtensionRegistry struct {
	id     string
	frozen atomic.Bool

	mu     sync.RWMutex
	byKey  map[schema.ExtensionKey]*schema.ExtensionDescriptor
	byName map[string]*schema.ExtensionDescriptor
}

// NewExtensionRegistry creates an empty registry with a fresh identity.
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{
		id:     uuid.NewString(),
		byKey:  make(map[schema.ExtensionKey]*schema.ExtensionDescriptor),
		byName: make(map[string]*schema.ExtensionDescriptor),
	}
}

// ID identifies this registry instance. Adapters are cached per ID. A nil
// registry has the empty ID.
func (r *ExtensionRegistry) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// Register adds an extension. Registering the same (extendee, tag) twice is
// a programming error and fails immediately.
func (r *ExtensionRegistry) Register(x *schema.ExtensionDescriptor) error {
	if x == nil {
		return fmt.Errorf("%w: nil extension", schema.ErrInvalidDescriptor)
	}
	if err := x.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, x.QualifiedName())
	}
	if existing, ok := r.byKey[x.Key()]; ok {
		return &DuplicateExtensionError{Key: x.Key(), Existing: existing.QualifiedName(), Incoming: x.QualifiedName()}
	}
	if existing, ok := r.byName[x.FullName]; ok && x.FullName != "" {
		return &DuplicateExtensionError{Key: existing.Key(), Existing: existing.QualifiedName(), Incoming: x.QualifiedName()}
	}

	r.insert(x)
	return nil
}

// insert records x. Only fully qualified names are indexed; a short name
// may be reused on another extendee.
func (r *ExtensionRegistry) insert(x *schema.ExtensionDescriptor) {
	r.byKey[x.Key()] = x
	if x.FullName != "" {
		r.byName[x.FullName] = x
	}
}

// RegisterAll adds a batch of extensions. Either all of them are
// registered or none is.
func (r *ExtensionRegistry) RegisterAll(xs []*schema.ExtensionDescriptor) error {
	for _, x := range xs {
		if x == nil {
			return fmt.Errorf("%w: nil extension", schema.ErrInvalidDescriptor)
		}
		if err := x.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() && len(xs) > 0 {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, xs[0].QualifiedName())
	}
	keys := make(map[schema.ExtensionKey]*schema.ExtensionDescriptor, len(xs))
	names := make(map[string]*schema.ExtensionDescriptor, len(xs))
	for _, x := range xs {
		existing, ok := r.byKey[x.Key()]
		if !ok {
			existing, ok = keys[x.Key()]
		}
		if !ok && x.FullName != "" {
			if existing, ok = r.byName[x.FullName]; !ok {
				existing, ok = names[x.FullName]
			}
		}
		if ok {
			return &DuplicateExtensionError{Key: x.Key(), Existing: existing.QualifiedName(), Incoming: x.QualifiedName()}
		}
		keys[x.Key()] = x
		if x.FullName != "" {
			names[x.FullName] = x
		}
	}

	for _, x := range xs {
		r.insert(x)
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *ExtensionRegistry) MustRegister(x *schema.ExtensionDescriptor) {
	if err := r.Register(x); err != nil {
		panic(err)
	}
}

// Freeze ends the registration phase.
func (r *ExtensionRegistry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *ExtensionRegistry) Frozen() bool { return r.frozen.Load() }

// Resolve looks up the extension declared for extendee at tag. Resolution
// is always scoped by the owning type.
func (r *ExtensionRegistry) Resolve(extendee schema.TypeID, tag wire.FieldNumber) (*schema.ExtensionDescriptor, bool) {
	key := schema.ExtensionKey{Extendee: extendee, Tag: tag}
	if r.frozen.Load() {
		x, ok := r.byKey[key]
		return x, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	x, ok := r.byKey[key]
	return x, ok
}

// ByName looks up an extension by its fully qualified name.
func (r *ExtensionRegistry) ByName(fullName string) (*schema.ExtensionDescriptor, bool) {
	if r.frozen.Load() {
		x, ok := r.byName[fullName]
		return x, ok
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	x, ok := r.byName[fullName]
	return x, ok
}

// ExtensionsOf returns the extensions registered for extendee in tag order.
func (r *ExtensionRegistry) ExtensionsOf(extendee schema.TypeID) []*schema.ExtensionDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*schema.ExtensionDescriptor
	for key, x := range r.byKey {
		if key.Extendee == extendee {
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// All returns every registered extension ordered by extendee then tag.
func (r *ExtensionRegistry) All() []*schema.ExtensionDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*schema.ExtensionDescriptor, 0, len(r.byKey))
	for _, x := range r.byKey {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Extendee != out[j].Extendee {
			return out[i].Extendee < out[j].Extendee
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Len returns the number of registered extensions.
func (r *ExtensionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
