package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/wirekit/schema"
)

// Registry allows us to store the schema of the protobuf messages. We look this up when we need to parse or marshal a message.
type Registry struct {
	ProtoDirectories []string

	logger     zerolog.Logger
	extensions *ExtensionRegistry

	mu       sync.RWMutex
	files    map[string]*schema.ProtoFile
	messages map[schema.TypeID]*schema.MessageDescriptor // fully qualified name -> message
	enums    map[schema.TypeID]*schema.EnumDescriptor    // fully qualified name -> enum
	kinds    map[string]entityKind                       // every known type name

	parsedProtoBody map[string]*protoparserparser.Proto
	protoEntities   map[string]*protoFileEntity
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used while loading schemas.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithExtensionRegistry makes the registry register extensions found in
// .proto files into ext instead of a private registry.
func WithExtensionRegistry(ext *ExtensionRegistry) Option {
	return func(r *Registry) { r.extensions = ext }
}

// NewRegistry creates a registry that resolves imports against protoDirectories.
func NewRegistry(protoDirectories []string, opts ...Option) *Registry {
	r := &Registry{
		ProtoDirectories: protoDirectories,
		logger:           zerolog.Nop(),
		files:            make(map[string]*schema.ProtoFile),
		messages:         make(map[schema.TypeID]*schema.MessageDescriptor),
		enums:            make(map[schema.TypeID]*schema.EnumDescriptor),
		kinds:            make(map[string]entityKind),
		parsedProtoBody:  make(map[string]*protoparserparser.Proto),
		protoEntities:    make(map[string]*protoFileEntity),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.extensions == nil {
		r.extensions = NewExtensionRegistry()
	}
	return r
}

// Extensions returns the extension registry fed by loaded schemas.
func (r *Registry) Extensions() *ExtensionRegistry { return r.extensions }

// AddMessage registers a descriptor built in code.
func (r *Registry) AddMessage(md *schema.MessageDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[string(md.ID)]; exists {
		return fmt.Errorf("%w: type %s already registered", schema.ErrInvalidDescriptor, md.ID)
	}
	r.messages[md.ID] = md
	r.kinds[string(md.ID)] = kindMessage
	return nil
}

// AddEnum registers an enum descriptor built in code.
func (r *Registry) AddEnum(ed *schema.EnumDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[string(ed.ID)]; exists {
		return fmt.Errorf("%w: type %s already registered", schema.ErrInvalidDescriptor, ed.ID)
	}
	r.enums[ed.ID] = ed
	r.kinds[string(ed.ID)] = kindEnum
	return nil
}

// Message returns the message registered under exactly id.
func (r *Registry) Message(id schema.TypeID) (*schema.MessageDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.messages[id]
	return md, ok
}

// Enum returns the enum registered under exactly id.
func (r *Registry) Enum(id schema.TypeID) (*schema.EnumDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ed, ok := r.enums[id]
	return ed, ok
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.MessageDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if msg, exists := r.messages[schema.TypeID(name)]; exists {
		return msg, nil
	}

	// Try without package prefix
	var found *schema.MessageDescriptor
	for fullName, msg := range r.messages {
		if strings.HasSuffix(string(fullName), "."+name) {
			if found != nil {
				return nil, fmt.Errorf("message name %s is ambiguous", name)
			}
			found = msg
		}
	}
	if found == nil {
		return nil, fmt.Errorf("message not found: %s", name)
	}
	return found, nil
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.EnumDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if enum, exists := r.enums[schema.TypeID(name)]; exists {
		return enum, nil
	}

	// Try without package prefix
	for fullName, enum := range r.enums {
		if strings.HasSuffix(string(fullName), "."+name) {
			return enum, nil
		}
	}

	return nil, fmt.Errorf("enum not found: %s", name)
}

// ListMessages returns all registered message names
func (r *Registry) ListMessages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// ListEnums returns all registered enum names
func (r *Registry) ListEnums() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// File returns a loaded file by the path it was resolved to.
func (r *Registry) File(path string) (*schema.ProtoFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[path]
	return f, ok
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
