package wirekit

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/anirudhraja/wirekit/codec"
	"github.com/anirudhraja/wirekit/internal/metrics"
	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/registry"
	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// ===== SCHEMA-AWARE API =====

// Wirekit encodes and decodes schema-described messages without generated code.
type Wirekit struct {
	registry *registry.Registry
	cache    *codec.Cache
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

type settings struct {
	logger  zerolog.Logger
	opts    codec.Options
	metrics prometheus.Registerer
}

// Option configures New.
type Option func(*settings)

// WithLogger sets the logger used for schema loading and registration.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithOptions sets the decode options.
func WithOptions(opts codec.Options) Option {
	return func(s *settings) { s.opts = opts }
}

// WithMetrics registers the codec collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *settings) { s.metrics = reg }
}

// New creates an instance that resolves .proto imports against protoDirs.
func New(protoDirs []string, opts ...Option) (*Wirekit, error) {
	s := settings{
		logger: zerolog.Nop(),
		opts:   codec.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	reg := registry.NewRegistry(protoDirs, registry.WithLogger(s.logger))
	cache, err := codec.NewCache(reg, s.opts)
	if err != nil {
		return nil, err
	}
	m, err := metrics.New(s.metrics)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &Wirekit{
		registry: reg,
		cache:    cache,
		logger:   s.logger,
		metrics:  m,
	}, nil
}

// LoadSchemaFromFile loads a .proto file, its imports and the extensions
// they declare.
func (w *Wirekit) LoadSchemaFromFile(path string) error {
	if err := w.registry.LoadSchemaFromFile(path); err != nil {
		return err
	}
	w.metrics.SetExtensions(w.registry.Extensions().Len())
	return nil
}

// RegisterExtension adds an extension declared in code. The extendee must
// already be loaded and declare an extension range covering the tag.
func (w *Wirekit) RegisterExtension(x *schema.ExtensionDescriptor) error {
	md, ok := w.registry.Message(x.Extendee)
	if !ok {
		return fmt.Errorf("%w: extendee %s", codec.ErrUnknownType, x.Extendee)
	}
	if !md.InExtensionRange(x.Tag) {
		return fmt.Errorf("%w: tag %d is outside the extension ranges of %s", schema.ErrInvalidDescriptor, x.Tag, x.Extendee)
	}
	if err := w.registry.Extensions().Register(x); err != nil {
		return err
	}
	w.logger.Debug().Str("extension", x.QualifiedName()).Str("extendee", string(x.Extendee)).Int32("tag", int32(x.Tag)).Msg("registered extension")
	w.metrics.SetExtensions(w.registry.Extensions().Len())
	return nil
}

// Freeze ends extension registration. Decoding does not require it, but
// reads after Freeze take no locks.
func (w *Wirekit) Freeze() {
	w.registry.Extensions().Freeze()
	w.logger.Info().Int("extensions", w.registry.Extensions().Len()).Msg("extension registry frozen")
}

// NewBuilder returns an empty builder for typeName.
func (w *Wirekit) NewBuilder(typeName string) (*message.Builder, error) {
	md, err := w.registry.GetMessage(typeName)
	if err != nil {
		return nil, err
	}
	return message.NewBuilder(md), nil
}

// Extension looks up an extension by its fully qualified name.
func (w *Wirekit) Extension(fullName string) (*schema.ExtensionDescriptor, bool) {
	return w.registry.Extensions().ByName(fullName)
}

// EncodedSize returns the number of bytes Marshal would produce.
func (w *Wirekit) EncodedSize(m *message.Message) (int, error) {
	if m == nil {
		return 0, fmt.Errorf("%w: nil message", codec.ErrWrongType)
	}
	a, err := w.cache.Adapter(m.Type(), w.registry.Extensions())
	if err != nil {
		return 0, err
	}
	return a.EncodedSize(m)
}

// Marshal encodes m.
func (w *Wirekit) Marshal(m *message.Message) (data []byte, err error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", codec.ErrWrongType)
	}
	start := time.Now()
	defer func() { w.metrics.Observe("marshal", string(m.Type()), len(data), start, err) }()

	a, err := w.cache.Adapter(m.Type(), w.registry.Extensions())
	if err != nil {
		return nil, err
	}
	return a.Encode(m)
}

type decodeSettings struct {
	noExtensions bool
}

// DecodeOption configures one Unmarshal call.
type DecodeOption func(*decodeSettings)

// WithoutExtensions decodes extension fields as unknown fields.
func WithoutExtensions() DecodeOption {
	return func(s *decodeSettings) { s.noExtensions = true }
}

// Unmarshal decodes data as a message of typeName.
func (w *Wirekit) Unmarshal(data []byte, typeName string, opts ...DecodeOption) (m *message.Message, err error) {
	var s decodeSettings
	for _, opt := range opts {
		opt(&s)
	}

	start := time.Now()
	defer func() { w.metrics.Observe("unmarshal", typeName, len(data), start, err) }()

	md, err := w.registry.GetMessage(typeName)
	if err != nil {
		return nil, err
	}
	var a *codec.Adapter
	if s.noExtensions {
		a, err = w.cache.Adapter(md.ID, nil)
	} else {
		a, err = w.cache.Adapter(md.ID, w.registry.Extensions())
	}
	if err != nil {
		return nil, err
	}
	return a.Decode(data)
}

// Inspect lists the top-level fields of data without a schema.
func (w *Wirekit) Inspect(data []byte) ([]*wire.RawField, error) {
	return Inspect(data)
}

// Inspect lists the top-level fields of data without a schema.
func Inspect(data []byte) ([]*wire.RawField, error) {
	d := wire.NewDecoder(data)
	var fields []*wire.RawField
	for {
		f, err := d.DecodeField()
		if err != nil {
			return nil, err
		}
		if f == nil {
			break
		}
		fields = append(fields, f)
	}
	if !d.AtLimit() {
		return nil, fmt.Errorf("%w: %d bytes after end of message", wire.ErrTruncatedOrOverlongMessage, d.Remaining())
	}
	return fields, nil
}

// ===== REGISTRY ACCESS =====

func (w *Wirekit) Registry() *registry.Registry { return w.registry }
func (w *Wirekit) Cache() *codec.Cache          { return w.cache }
func (w *Wirekit) ListMessages() []string       { return w.registry.ListMessages() }
func (w *Wirekit) ListEnums() []string          { return w.registry.ListEnums() }

// ListExtensions returns the fully qualified names of all extensions.
func (w *Wirekit) ListExtensions() []string {
	all := w.registry.Extensions().All()
	names := make([]string, 0, len(all))
	for _, x := range all {
		names = append(names, x.QualifiedName())
	}
	sort.Strings(names)
	return names
}
