package ir

import (
	"strings"

	"github.com/lerenn/asyncapi-codegen/internal/spec"
)

// Fixed mapping from JSON-Schema primitives to Go types. Everything else is
// derived: objects become nested structs, arrays become slices, property
// maps become map[string]T.
var primitiveTypes = map[string]string{
	"string":  "string",
	"integer": "int64",
	"number":  "float64",
	"boolean": "bool",
}

// ResolveTypes derives one TypeModel per distinct message payload reachable
// from a channel operation. Channels are walked in document order, publish
// before subscribe, so the model order is a pure function of the document.
func ResolveTypes(doc *spec.Document) (*TypeSet, error) {
	ts := &TypeSet{ByMessage: make(map[string]*TypeModel)}
	b := &typeBuilder{
		ts:        ts,
		messages:  make(map[*spec.Message]string),
		typeNames: make(map[string]string),
	}
	for _, name := range doc.Channels.Names {
		ch := doc.Channels.Items[name]
		if ch == nil {
			continue
		}
		for _, op := range []*spec.Operation{ch.Publish, ch.Subscribe} {
			if op == nil || op.Message == nil {
				continue
			}
			if err := b.messageModel(MessageKey(name, ch, op), op.Message); err != nil {
				return nil, err
			}
		}
	}
	return ts, nil
}

// MessageKey is the stable identifier a message's TypeModel is keyed by:
// the message name when declared, otherwise an identifier derived from the
// owning channel. When both of a channel's operations carry distinct
// anonymous inline messages, the key gains an operation suffix so the two
// payloads get separate models.
func MessageKey(channel string, ch *spec.Channel, op *spec.Operation) string {
	if op.Message.Name != "" {
		return op.Message.Name
	}
	base := Identifier(channel)
	if anonymousPair(ch) {
		if op == ch.Publish {
			return base + "PublishMessage"
		}
		return base + "SubscribeMessage"
	}
	return base + "Message"
}

// anonymousPair reports whether a channel carries two distinct anonymous
// inline messages, one per operation.
func anonymousPair(ch *spec.Channel) bool {
	if ch == nil || ch.Publish == nil || ch.Subscribe == nil {
		return false
	}
	pm, sm := ch.Publish.Message, ch.Subscribe.Message
	return pm != nil && sm != nil && pm != sm && pm.Name == "" && sm.Name == ""
}

type typeBuilder struct {
	ts        *TypeSet
	messages  map[*spec.Message]string // resolved message node -> key
	typeNames map[string]string        // generated type name -> message key
}

func (b *typeBuilder) messageModel(key string, msg *spec.Message) error {
	if _, ok := b.messages[msg]; ok {
		return nil
	}
	if _, ok := b.ts.ByMessage[key]; ok {
		return spec.Errorf(spec.MalformedSpec, messagePointer(key),
			"two distinct messages share the name %q", key)
	}

	typeName := Identifier(key)
	if other, taken := b.typeNames[typeName]; taken {
		return spec.Errorf(spec.FieldNameCollision, messagePointer(key),
			"messages %q and %q both map to generated type %s", other, key, typeName)
	}

	model := &TypeModel{
		Name:        typeName,
		MessageName: key,
		Description: msg.Description,
	}
	b.messages[msg] = key
	b.typeNames[typeName] = key
	b.ts.ByMessage[key] = model
	b.ts.Models = append(b.ts.Models, model)

	payload := msg.Payload
	if payload == nil {
		return nil
	}
	if payload.Type != "object" && payload.Properties.Len() == 0 {
		alias, err := b.goType(typeName, "", payload, true)
		if err != nil {
			return err
		}
		model.IsAlias = true
		model.AliasType = alias
		return nil
	}
	return b.fillStruct(model, payload)
}

// fillStruct populates a struct model's fields from an object schema,
// detecting generated-name collisions between distinct properties.
func (b *typeBuilder) fillStruct(model *TypeModel, s *spec.Schema) error {
	fieldNames := make(map[string]string, s.Properties.Len())
	for _, prop := range s.Properties.Names {
		ps := s.Properties.Items[prop]
		goName := Identifier(prop)
		if goName == "" {
			return spec.Errorf(spec.FieldNameCollision, "",
				"type %s: property %q yields an empty field identifier", model.Name, prop)
		}
		if prev, dup := fieldNames[goName]; dup {
			return spec.Errorf(spec.FieldNameCollision, "",
				"type %s: properties %q and %q both map to field %s", model.Name, prev, prop, goName)
		}
		fieldNames[goName] = prop

		required := s.IsRequired(prop)
		goType, err := b.goType(model.Name, goName, ps, required)
		if err != nil {
			return err
		}
		field := Field{
			Name:     goName,
			JSONName: prop,
			GoType:   goType,
			Required: required,
			Doc:      fieldDoc(ps),
		}
		model.Fields = append(model.Fields, field)
		if required {
			model.Required = append(model.Required, prop)
		}
	}
	return nil
}

// goType renders the Go type for a schema node, creating nested struct and
// enum models as a side effect. Optional scalar and struct fields are
// pointer-wrapped; slices and maps stay bare since nil already encodes
// absence for them.
func (b *typeBuilder) goType(owner, fieldName string, s *spec.Schema, required bool) (string, error) {
	base, err := b.baseType(owner, fieldName, s)
	if err != nil {
		return "", err
	}
	if required || !pointerWrappable(base) {
		return base, nil
	}
	return "*" + base, nil
}

func (b *typeBuilder) baseType(owner, fieldName string, s *spec.Schema) (string, error) {
	if s == nil {
		return "any", nil
	}
	switch s.Type {
	case "string":
		if vals := stringEnum(s.Enum); len(vals) > 0 {
			return b.enumType(owner+fieldName, s.Description, vals)
		}
		if s.Format == "date-time" {
			return "time.Time", nil
		}
		return "string", nil
	case "integer", "number", "boolean":
		return primitiveTypes[s.Type], nil
	case "array":
		elem, err := b.baseType(owner, fieldName+"Item", s.Items)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case "object", "":
		if s.Properties.Len() > 0 {
			return b.nestedStruct(owner+fieldName, s)
		}
		if s.AdditionalProperties != nil {
			elem, err := b.baseType(owner, fieldName+"Value", s.AdditionalProperties)
			if err != nil {
				return "", err
			}
			return "map[string]" + elem, nil
		}
		if s.Type == "object" {
			return "map[string]any", nil
		}
		return "any", nil
	default:
		return "any", nil
	}
}

func (b *typeBuilder) nestedStruct(name string, s *spec.Schema) (string, error) {
	if key, taken := b.typeNames[name]; taken {
		return "", spec.Errorf(spec.FieldNameCollision, messagePointer(key),
			"nested object type %s collides with the type generated for %q", name, key)
	}
	model := &TypeModel{Name: name, Description: s.Description}
	b.typeNames[name] = name
	b.ts.Models = append(b.ts.Models, model)
	if err := b.fillStruct(model, s); err != nil {
		return "", err
	}
	return name, nil
}

func (b *typeBuilder) enumType(name, description string, vals []string) (string, error) {
	for _, e := range b.ts.Enums {
		if e.Name == name {
			if sameEnum(e.Values, vals) {
				return name, nil
			}
			return "", spec.Errorf(spec.FieldNameCollision, "",
				"two distinct enums both map to generated type %s", name)
		}
	}
	enum := &EnumModel{Name: name, Description: description}
	constNames := make(map[string]string, len(vals))
	for _, v := range vals {
		constName := name + Identifier(v)
		if prev, dup := constNames[constName]; dup {
			return "", spec.Errorf(spec.FieldNameCollision, "",
				"enum %s: values %q and %q both map to constant %s", name, prev, v, constName)
		}
		constNames[constName] = v
		enum.Values = append(enum.Values, EnumValue{Name: constName, Value: v})
	}
	b.ts.Enums = append(b.ts.Enums, enum)
	return name, nil
}

func stringEnum(vals []any) []string {
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Mixed or non-string enums fall back to the base type.
			return nil
		}
		out = append(out, s)
	}
	return out
}

func sameEnum(values []EnumValue, vals []string) bool {
	if len(values) != len(vals) {
		return false
	}
	for i := range vals {
		if values[i].Value != vals[i] {
			return false
		}
	}
	return true
}

func fieldDoc(s *spec.Schema) string {
	if s == nil {
		return ""
	}
	doc := strings.TrimSpace(s.Description)
	if s.Format != "" && s.Format != "date-time" {
		hint := "Format: " + s.Format + "."
		if doc == "" {
			return hint
		}
		return doc + " " + hint
	}
	return doc
}

func pointerWrappable(goType string) bool {
	if strings.HasPrefix(goType, "[]") || strings.HasPrefix(goType, "map[") || goType == "any" {
		return false
	}
	return true
}

func messagePointer(key string) string {
	return "#/components/messages/" + key
}
