// Package ir holds the generator's intermediate representation: the type
// model derived from message payload schemas and the per-channel generation
// units that drive the emitters. The IR is independent of AsyncAPI document
// syntax; emitters never look at the source document.
package ir

import "strings"

// TypeModel is one generated record type, derived deterministically from a
// message payload schema. The same schema always yields the same model, so
// regeneration is idempotent.
type TypeModel struct {
	Name        string // exported Go type name
	MessageName string // message key the model was derived from
	Description string

	// IsAlias marks non-object payloads rendered as a named alias of a
	// primitive type instead of a struct.
	IsAlias   bool
	AliasType string

	Fields   []Field
	Required []string // JSON names of required properties, document order
}

// Field is one struct field of a TypeModel.
type Field struct {
	Name     string // exported Go field name
	JSONName string // original property name, used for the json tag
	GoType   string // rendered Go type, pointer-wrapped when optional
	Required bool
	Doc      string
}

// EnumModel is a named string type with typed constants, derived from a
// string schema carrying an enum keyword.
type EnumModel struct {
	Name        string
	Description string
	Values      []EnumValue
}

type EnumValue struct {
	Name  string // constant identifier
	Value string
}

// TypeSet is the ordered output of ResolveTypes. Models appear in first
// reference order walking channels as they appear in the document; nested
// object models directly follow their parent.
type TypeSet struct {
	Models    []*TypeModel
	Enums     []*EnumModel
	ByMessage map[string]*TypeModel
}

// NeedsTime reports whether any model field uses time.Time.
func (ts *TypeSet) NeedsTime() bool {
	for _, m := range ts.Models {
		for _, f := range m.Fields {
			if strings.Contains(f.GoType, "time.Time") {
				return true
			}
		}
		if m.IsAlias && strings.Contains(m.AliasType, "time.Time") {
			return true
		}
	}
	return false
}

// NeedsCodec reports whether any model enforces required properties and so
// needs the runtime codec helper.
func (ts *TypeSet) NeedsCodec() bool {
	for _, m := range ts.Models {
		if len(m.Required) > 0 {
			return true
		}
	}
	return false
}

// Direction tags a GenerationUnit with the side of the contract it belongs
// to. A channel's publish operation is outbound: the application sends and
// the user receives. Its subscribe operation is inbound: the user
// subscribes and the application is the sender's counterparty.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// GenerationUnit is one channel-operation pair, the unit the emitters
// consume. Units keep the document order of their channels.
type GenerationUnit struct {
	Channel     string
	Identifier  string // sanitized channel identifier, e.g. UserSignedup
	Direction   Direction
	MessageName string
	Type        *TypeModel
	Summary     string
}
