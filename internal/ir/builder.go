package ir

import (
	"strings"

	"github.com/lerenn/asyncapi-codegen/internal/spec"
)

// BuildIR turns the resolved document into the ordered sequence of
// generation units the emitters consume. Channels keep their document
// order; a channel contributes one unit per operation, publish first.
//
// A channel's publish operation becomes an outbound unit (the application
// side sends, the user side receives); its subscribe operation becomes an
// inbound unit (the user side subscribes).
func BuildIR(doc *spec.Document, ts *TypeSet) ([]GenerationUnit, error) {
	if doc == nil {
		return nil, spec.Errorf(spec.MalformedSpec, "", "nil document")
	}
	if ts == nil {
		return nil, spec.Errorf(spec.DanglingOperation, "", "nil type set")
	}

	// Sanitized identifiers must be unique per direction: a second channel
	// mapping to the same identifier would declare the same generated
	// method twice.
	seen := map[Direction]map[string]string{
		Outbound: make(map[string]string),
		Inbound:  make(map[string]string),
	}
	claim := func(dir Direction, id, channel string) error {
		if prev, dup := seen[dir][id]; dup {
			return spec.Errorf(spec.FieldNameCollision, "#/channels/"+channel,
				"channels %q and %q both sanitize to identifier %s", prev, channel, id)
		}
		seen[dir][id] = channel
		return nil
	}

	units := make([]GenerationUnit, 0, len(doc.Channels.Names))
	for _, name := range doc.Channels.Names {
		ch := doc.Channels.Items[name]
		if ch == nil || (ch.Publish == nil && ch.Subscribe == nil) {
			return nil, spec.Errorf(spec.MalformedSpec, "#/channels/"+name,
				"channel %q declares neither publish nor subscribe", name)
		}
		id := Identifier(name)
		if ch.Publish != nil {
			if err := claim(Outbound, id, name); err != nil {
				return nil, err
			}
			u, err := buildUnit(name, id, Outbound, ch, ch.Publish, ts)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		}
		if ch.Subscribe != nil {
			if err := claim(Inbound, id, name); err != nil {
				return nil, err
			}
			u, err := buildUnit(name, id, Inbound, ch, ch.Subscribe, ts)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		}
	}
	return units, nil
}

func buildUnit(channel, id string, dir Direction, ch *spec.Channel, op *spec.Operation, ts *TypeSet) (GenerationUnit, error) {
	if op.Message == nil {
		return GenerationUnit{}, spec.Errorf(spec.DanglingOperation,
			"#/channels/"+channel+"/"+operationName(dir),
			"channel %q: %s operation declares no message", channel, operationName(dir))
	}
	key := MessageKey(channel, ch, op)
	model, ok := ts.ByMessage[key]
	if !ok {
		return GenerationUnit{}, spec.Errorf(spec.DanglingOperation,
			messagePointer(key),
			"channel %q: message %q has no resolved type model", channel, key)
	}
	return GenerationUnit{
		Channel:     channel,
		Identifier:  id,
		Direction:   dir,
		MessageName: key,
		Type:        model,
		Summary:     unitSummary(op),
	}, nil
}

func operationName(dir Direction) string {
	if dir == Outbound {
		return "publish"
	}
	return "subscribe"
}

func unitSummary(op *spec.Operation) string {
	if s := strings.TrimSpace(op.Summary); s != "" {
		return s
	}
	if s := strings.TrimSpace(op.Description); s != "" {
		return s
	}
	if op.Message != nil {
		return strings.TrimSpace(op.Message.Description)
	}
	return ""
}
