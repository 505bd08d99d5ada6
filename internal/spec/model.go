package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the parsed AsyncAPI document. It is built once by Load/Parse
// and handed read-only to the downstream stages; nothing mutates it after
// reference resolution completes.
type Document struct {
	AsyncAPI   string     `yaml:"asyncapi"`
	Info       Info       `yaml:"info"`
	Channels   ChannelMap `yaml:"channels"`
	Components Components `yaml:"components"`

	// Path is the source file the document was loaded from, empty for
	// in-memory parses. Used only for error reporting.
	Path string `yaml:"-"`
}

type Info struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

type Components struct {
	Messages map[string]*Message `yaml:"messages"`
	Schemas  map[string]*Schema  `yaml:"schemas"`
}

// Channel holds the operations bound to one channel name. At least one of
// Publish/Subscribe must be present; BuildIR enforces that.
type Channel struct {
	Description string     `yaml:"description"`
	Publish     *Operation `yaml:"publish"`
	Subscribe   *Operation `yaml:"subscribe"`
}

type Operation struct {
	OperationID string   `yaml:"operationId"`
	Summary     string   `yaml:"summary"`
	Description string   `yaml:"description"`
	Message     *Message `yaml:"message"`
}

type Message struct {
	Ref         string  `yaml:"$ref"`
	Name        string  `yaml:"name"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Payload     *Schema `yaml:"payload"`
}

// Schema is the JSON-Schema subset the generator understands. Unknown
// keywords are ignored by the tolerant parser.
type Schema struct {
	Ref                  string    `yaml:"$ref"`
	Type                 string    `yaml:"type"`
	Format               string    `yaml:"format"`
	Description          string    `yaml:"description"`
	Properties           SchemaMap `yaml:"properties"`
	Required             []string  `yaml:"required"`
	Items                *Schema   `yaml:"items"`
	Enum                 []any     `yaml:"enum"`
	AdditionalProperties *Schema   `yaml:"additionalProperties"`
}

// ChannelMap preserves the document order of the channels mapping. Document
// order drives IR order, which keeps regeneration byte-for-byte stable.
type ChannelMap struct {
	Names []string
	Items map[string]*Channel
}

func (m *ChannelMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("channels: expected a mapping, got %s", nodeKind(value))
	}
	m.Items = make(map[string]*Channel, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("channels: decode key: %w", err)
		}
		ch := &Channel{}
		if err := value.Content[i+1].Decode(ch); err != nil {
			return fmt.Errorf("channel %q: %w", name, err)
		}
		m.Names = append(m.Names, name)
		m.Items[name] = ch
	}
	return nil
}

// SchemaMap preserves the document order of an object schema's properties.
type SchemaMap struct {
	Names []string
	Items map[string]*Schema
}

func (m *SchemaMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("properties: expected a mapping, got %s", nodeKind(value))
	}
	m.Items = make(map[string]*Schema, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("properties: decode key: %w", err)
		}
		s := &Schema{}
		if err := value.Content[i+1].Decode(s); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		m.Names = append(m.Names, name)
		m.Items[name] = s
	}
	return nil
}

// Len reports the number of properties.
func (m SchemaMap) Len() int { return len(m.Names) }

// IsRequired reports whether name appears in the schema's required set.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
