package registry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

// loader stages the descriptors of one LoadSchemaFromFile call. Nothing is
// visible in the registry until every pass has succeeded.
type loader struct {
	r          *Registry
	kinds      map[string]entityKind
	messages   map[schema.TypeID]*schema.MessageDescriptor
	enums      map[schema.TypeID]*schema.EnumDescriptor
	extensions []*schema.ExtensionDescriptor
	files      map[string]*schema.ProtoFile
}

// LoadSchemaFromFile parses protoFile and everything it imports, resolved
// against ProtoDirectories, and registers the messages, enums and extensions
// they declare. Imports of google/protobuf are skipped.
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := r.getAllProtoInfo(protoFile)
	if err != nil {
		return err
	}

	l := &loader{
		r:        r,
		kinds:    make(map[string]entityKind, len(r.kinds)),
		messages: make(map[schema.TypeID]*schema.MessageDescriptor),
		enums:    make(map[schema.TypeID]*schema.EnumDescriptor),
		files:    make(map[string]*schema.ProtoFile, len(files)),
	}
	for name, kind := range r.kinds {
		l.kinds[name] = kind
	}

	if err := l.load(files); err != nil {
		r.forget(files)
		return fmt.Errorf("failed to load %s: %w", protoFile, err)
	}

	if err := r.extensions.RegisterAll(l.extensions); err != nil {
		r.forget(files)
		return err
	}
	for _, x := range l.extensions {
		r.logger.Debug().Str("extension", x.QualifiedName()).Str("extendee", string(x.Extendee)).Int32("tag", int32(x.Tag)).Msg("registered extension")
	}
	for id, md := range l.messages {
		r.messages[id] = md
		r.kinds[string(id)] = kindMessage
	}
	for id, ed := range l.enums {
		r.enums[id] = ed
		r.kinds[string(id)] = kindEnum
	}
	for name, pf := range l.files {
		r.files[name] = pf
	}

	r.logger.Info().
		Str("file", protoFile).
		Int("files", len(files)).
		Int("messages", len(l.messages)).
		Int("enums", len(l.enums)).
		Int("extensions", len(l.extensions)).
		Msg("loaded proto schema")
	return nil
}

// forget drops parse results so a later call parses these files again.
func (r *Registry) forget(files []string) {
	for _, f := range files {
		delete(r.protoEntities, f)
		delete(r.parsedProtoBody, f)
	}
}

func (l *loader) load(files []string) error {
	// Pass 1: Register all message and enum names
	for _, f := range files {
		entity := l.r.protoEntities[f]
		if err := l.registerNames(entity.pkg, l.r.parsedProtoBody[f].ProtoBody); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		l.files[f] = &schema.ProtoFile{
			Name:    f,
			Package: entity.pkg,
			Syntax:  entity.syntax,
			Imports: entity.imports,
		}
	}

	// Pass 2: Build enums, message defaults refer to them
	for _, f := range files {
		if err := l.buildEnums(l.files[f], l.r.protoEntities[f].pkg, l.r.parsedProtoBody[f].ProtoBody); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}

	// Pass 3: Build messages and collect extend blocks
	for _, f := range files {
		entity := l.r.protoEntities[f]
		for _, body := range l.r.parsedProtoBody[f].ProtoBody {
			var err error
			switch b := body.(type) {
			case *protoparserparser.Message:
				err = l.buildMessage(l.files[f], entity, entity.pkg, b)
			case *protoparserparser.Extend:
				err = l.buildExtend(l.files[f], entity, entity.pkg, b)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
		}
	}

	// Pass 4: Extensions must land in a declared extension range
	for _, x := range l.extensions {
		md := l.message(x.Extendee)
		if md == nil {
			return fmt.Errorf("extension %s extends %s which is not a message", x.QualifiedName(), x.Extendee)
		}
		if !md.InExtensionRange(x.Tag) {
			return fmt.Errorf("extension %s uses tag %d outside the extension ranges of %s", x.QualifiedName(), x.Tag, x.Extendee)
		}
	}
	return nil
}

func (l *loader) registerNames(scope string, body []protoparserparser.Visitee) error {
	for _, v := range body {
		switch b := v.(type) {
		case *protoparserparser.Message:
			name := getFullName(scope, b.MessageName)
			if _, dup := l.kinds[name]; dup {
				return fmt.Errorf("%w: %s is already defined", schema.ErrInvalidDescriptor, name)
			}
			l.kinds[name] = kindMessage
			if err := l.registerNames(name, b.MessageBody); err != nil {
				return err
			}
		case *protoparserparser.Enum:
			name := getFullName(scope, b.EnumName)
			if _, dup := l.kinds[name]; dup {
				return fmt.Errorf("%w: %s is already defined", schema.ErrInvalidDescriptor, name)
			}
			l.kinds[name] = kindEnum
		}
	}
	return nil
}

func (l *loader) buildEnums(pf *schema.ProtoFile, scope string, body []protoparserparser.Visitee) error {
	for _, v := range body {
		switch b := v.(type) {
		case *protoparserparser.Message:
			if err := l.buildEnums(pf, getFullName(scope, b.MessageName), b.MessageBody); err != nil {
				return err
			}
		case *protoparserparser.Enum:
			ed, err := buildEnum(getFullName(scope, b.EnumName), b)
			if err != nil {
				return err
			}
			l.enums[ed.ID] = ed
			pf.Enums = append(pf.Enums, ed)
		}
	}
	return nil
}

func buildEnum(name string, e *protoparserparser.Enum) (*schema.EnumDescriptor, error) {
	var (
		values     []*schema.EnumValue
		allowAlias bool
	)
	for _, v := range e.EnumBody {
		switch b := v.(type) {
		case *protoparserparser.EnumField:
			n, err := strconv.ParseInt(b.Number, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: enum %s value %s has bad number %q", schema.ErrInvalidDescriptor, name, b.Ident, b.Number)
			}
			values = append(values, &schema.EnumValue{Name: b.Ident, Number: int32(n)})
		case *protoparserparser.Option:
			if b.OptionName == "allow_alias" && b.Constant == "true" {
				allowAlias = true
			}
		}
	}
	return schema.NewEnumDescriptor(schema.TypeID(name), values, allowAlias)
}

func (l *loader) buildMessage(pf *schema.ProtoFile, entity *protoFileEntity, scope string, m *protoparserparser.Message) error {
	name := getFullName(scope, m.MessageName)
	var (
		fields []*schema.FieldDescriptor
		ranges []schema.ExtensionRange
	)

	for _, v := range m.MessageBody {
		switch b := v.(type) {
		case *protoparserparser.Field:
			label := schema.LabelOptional
			if b.IsRepeated {
				label = schema.LabelRepeated
			} else if b.IsRequired {
				label = schema.LabelRequired
			}
			fd, err := l.field(entity, name, b.FieldName, b.FieldNumber, b.Type, label, b.FieldOptions)
			if err != nil {
				return err
			}
			fields = append(fields, fd)

		case *protoparserparser.Oneof:
			// oneof members are plain optional fields on the wire
			for _, of := range b.OneofFields {
				fd, err := l.field(entity, name, of.FieldName, of.FieldNumber, of.Type, schema.LabelOptional, of.FieldOptions)
				if err != nil {
					return err
				}
				fields = append(fields, fd)
			}

		case *protoparserparser.MapField:
			fd, err := l.mapField(pf, entity, name, b)
			if err != nil {
				return err
			}
			fields = append(fields, fd)

		case *protoparserparser.Extensions:
			for _, rg := range b.Ranges {
				er, err := extensionRange(rg)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				ranges = append(ranges, er)
			}

		case *protoparserparser.Message:
			if err := l.buildMessage(pf, entity, name, b); err != nil {
				return err
			}

		case *protoparserparser.Extend:
			if err := l.buildExtend(pf, entity, name, b); err != nil {
				return err
			}

		case *protoparserparser.GroupField:
			return fmt.Errorf("%w: %s declares group %s, groups are not supported", schema.ErrInvalidDescriptor, name, b.GroupName)
		}
	}

	md, err := schema.NewMessageDescriptor(schema.TypeID(name), fields, ranges...)
	if err != nil {
		return err
	}
	l.messages[md.ID] = md
	pf.Messages = append(pf.Messages, md)
	return nil
}

// mapField synthesizes the map entry message of a map<K, V> field and
// returns the repeated field that refers to it.
func (l *loader) mapField(pf *schema.ProtoFile, entity *protoFileEntity, scope string, b *protoparserparser.MapField) (*schema.FieldDescriptor, error) {
	entryName := scope + "." + mapEntryName(b.MapName)
	if _, dup := l.kinds[entryName]; dup {
		return nil, fmt.Errorf("%w: map entry %s collides with a declared type", schema.ErrInvalidDescriptor, entryName)
	}

	key, err := l.field(entity, scope, "key", "1", b.KeyType, schema.LabelOptional, nil)
	if err != nil {
		return nil, err
	}
	if key.Type == schema.TypeMessage || key.Type == schema.TypeEnum || key.Type == schema.TypeBytes ||
		key.Type == schema.TypeFloat || key.Type == schema.TypeDouble {
		return nil, fmt.Errorf("%w: map %s has illegal key type %s", schema.ErrInvalidDescriptor, b.MapName, b.KeyType)
	}
	value, err := l.field(entity, scope, "value", "2", b.Type, schema.LabelOptional, nil)
	if err != nil {
		return nil, err
	}

	entry, err := schema.NewMessageDescriptor(schema.TypeID(entryName), []*schema.FieldDescriptor{key, value})
	if err != nil {
		return nil, err
	}
	entry.MapEntry = true
	l.kinds[entryName] = kindMessage
	l.messages[entry.ID] = entry
	pf.Messages = append(pf.Messages, entry)

	tag, err := parseFieldNumber(b.FieldNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s: %v", schema.ErrInvalidDescriptor, b.MapName, err)
	}
	return &schema.FieldDescriptor{
		Name:        b.MapName,
		Tag:         tag,
		Type:        schema.TypeMessage,
		Label:       schema.LabelRepeated,
		MessageType: entry.ID,
	}, nil
}

func (l *loader) buildExtend(pf *schema.ProtoFile, entity *protoFileEntity, scope string, e *protoparserparser.Extend) error {
	extendee, err := getReferencedType(e.MessageType, scope, l.kinds)
	if err != nil {
		return fmt.Errorf("extend %s: %w", e.MessageType, err)
	}
	if l.kinds[extendee] != kindMessage {
		return fmt.Errorf("%w: extend target %s is not a message", schema.ErrInvalidDescriptor, extendee)
	}

	for _, v := range e.ExtendBody {
		b, ok := v.(*protoparserparser.Field)
		if !ok {
			continue
		}
		label := schema.LabelOptional
		if b.IsRepeated {
			label = schema.LabelRepeated
		} else if b.IsRequired {
			label = schema.LabelRequired
		}
		fd, err := l.field(entity, scope, b.FieldName, b.FieldNumber, b.Type, label, b.FieldOptions)
		if err != nil {
			return err
		}
		x := &schema.ExtensionDescriptor{
			FieldDescriptor: *fd,
			Extendee:        schema.TypeID(extendee),
			FullName:        getFullName(scope, fd.Name),
		}
		if err := x.Validate(); err != nil {
			return err
		}
		l.extensions = append(l.extensions, x)
		pf.Extensions = append(pf.Extensions, x)
	}
	return nil
}

// field builds a field descriptor, resolving named types relative to scope.
func (l *loader) field(entity *protoFileEntity, scope, name, number, typeName string, label schema.Label, options []*protoparserparser.FieldOption) (*schema.FieldDescriptor, error) {
	tag, err := parseFieldNumber(number)
	if err != nil {
		return nil, fmt.Errorf("%w: field %s.%s: %v", schema.ErrInvalidDescriptor, scope, name, err)
	}
	fd := &schema.FieldDescriptor{Name: name, Tag: tag, Label: label}

	if t, ok := schema.ScalarType(typeName); ok {
		fd.Type = t
	} else {
		ref, err := getReferencedType(typeName, scope, l.kinds)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", scope, name, err)
		}
		switch l.kinds[ref] {
		case kindMessage:
			fd.Type = schema.TypeMessage
			fd.MessageType = schema.TypeID(ref)
		case kindEnum:
			fd.Type = schema.TypeEnum
			fd.EnumType = schema.TypeID(ref)
		}
	}

	packedSet := false
	var defaultConstant string
	for _, opt := range options {
		switch opt.OptionName {
		case "packed":
			fd.Packed = opt.Constant == "true"
			packedSet = true
		case "default":
			defaultConstant = opt.Constant
		}
	}
	if !packedSet && entity.syntax == "proto3" && fd.IsRepeated() && fd.Type.Packable() {
		fd.Packed = true
	}
	if defaultConstant != "" {
		if fd.Default, err = l.parseDefault(fd, defaultConstant); err != nil {
			return nil, fmt.Errorf("%w: field %s.%s default %s: %v", schema.ErrInvalidDescriptor, scope, name, defaultConstant, err)
		}
	}
	return fd, nil
}

func (l *loader) parseDefault(fd *schema.FieldDescriptor, constant string) (interface{}, error) {
	switch fd.Type {
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		n, err := strconv.ParseInt(constant, 0, 32)
		return int32(n), err
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return strconv.ParseInt(constant, 0, 64)
	case schema.TypeUint32, schema.TypeFixed32:
		n, err := strconv.ParseUint(constant, 0, 32)
		return uint32(n), err
	case schema.TypeUint64, schema.TypeFixed64:
		return strconv.ParseUint(constant, 0, 64)
	case schema.TypeBool:
		return strconv.ParseBool(constant)
	case schema.TypeFloat:
		f, err := parseFloat(constant, 32)
		return float32(f), err
	case schema.TypeDouble:
		return parseFloat(constant, 64)
	case schema.TypeString:
		return unquote(constant)
	case schema.TypeBytes:
		s, err := unquote(constant)
		return []byte(s), err
	case schema.TypeEnum:
		ed, ok := l.enums[fd.EnumType]
		if !ok {
			ed, ok = l.r.enums[fd.EnumType]
		}
		if !ok {
			return nil, fmt.Errorf("enum %s not found", fd.EnumType)
		}
		v, ok := ed.ValueByName(constant)
		if !ok {
			return nil, fmt.Errorf("enum %s has no value %s", fd.EnumType, constant)
		}
		return v.Number, nil
	default:
		return nil, fmt.Errorf("%s fields cannot declare a default", fd.Type)
	}
}

func (l *loader) message(id schema.TypeID) *schema.MessageDescriptor {
	if md, ok := l.messages[id]; ok {
		return md
	}
	return l.r.messages[id]
}

func parseFloat(constant string, bitSize int) (float64, error) {
	switch strings.ToLower(constant) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(constant, bitSize)
}

func parseFieldNumber(number string) (wire.FieldNumber, error) {
	n, err := strconv.ParseInt(number, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad field number %q", number)
	}
	return wire.FieldNumber(n), nil
}

func extensionRange(rg *protoparserparser.Range) (schema.ExtensionRange, error) {
	begin, err := parseFieldNumber(rg.Begin)
	if err != nil {
		return schema.ExtensionRange{}, err
	}
	end := begin
	switch rg.End {
	case "":
	case "max":
		end = wire.MaxFieldNumber
	default:
		if end, err = parseFieldNumber(rg.End); err != nil {
			return schema.ExtensionRange{}, err
		}
	}
	return schema.ExtensionRange{Start: begin, End: end}, nil
}
