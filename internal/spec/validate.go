package spec

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// validatePayloads re-encodes every resolved message payload as a JSON
// Schema document and compiles it. A payload the compiler rejects (bad type
// keyword, malformed enum, ...) is reported as MalformedSpec with a pointer
// to the offending message.
func validatePayloads(doc *Document) error {
	seen := make(map[*Message]bool)
	for _, name := range doc.Channels.Names {
		ch := doc.Channels.Items[name]
		if ch == nil {
			continue
		}
		for _, op := range []*Operation{ch.Publish, ch.Subscribe} {
			if op == nil || op.Message == nil || op.Message.Payload == nil || seen[op.Message] {
				continue
			}
			seen[op.Message] = true
			if err := compilePayload(op.Message, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func compilePayload(msg *Message, channel string) error {
	raw, err := json.Marshal(msg.Payload.jsonSchema())
	if err != nil {
		return &Error{
			Kind:    MalformedSpec,
			Message: fmt.Sprintf("channel %q: encode payload schema of message %q: %v", channel, msg.Name, err),
			Cause:   err,
		}
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("payload.json", strings.NewReader(string(raw))); err != nil {
		return &Error{
			Kind:    MalformedSpec,
			Message: fmt.Sprintf("channel %q: register payload schema of message %q: %v", channel, msg.Name, err),
			Pointer: messagePrefix + msg.Name,
			Cause:   err,
		}
	}
	if _, err := compiler.Compile("payload.json"); err != nil {
		return &Error{
			Kind:    MalformedSpec,
			Message: fmt.Sprintf("channel %q: invalid payload schema for message %q: %v", channel, msg.Name, err),
			Pointer: messagePrefix + msg.Name,
			Cause:   err,
		}
	}
	return nil
}

// jsonSchema renders the resolved schema back to a plain JSON Schema value.
// Refs are gone by the time this runs, so the output is self-contained.
func (s *Schema) jsonSchema() map[string]any {
	out := make(map[string]any)
	if s.Type != "" {
		out["type"] = s.Type
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Properties.Len() > 0 {
		props := make(map[string]any, s.Properties.Len())
		for _, name := range s.Properties.Names {
			props[name] = s.Properties.Items[name].jsonSchema()
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = s.Items.jsonSchema()
	}
	if s.AdditionalProperties != nil {
		out["additionalProperties"] = s.AdditionalProperties.jsonSchema()
	}
	return out
}
