package spec

import "strings"

const (
	messagePrefix = "#/components/messages/"
	schemaPrefix  = "#/components/schemas/"
)

// resolver substitutes $ref nodes with the referenced components. Nodes are
// indexed by their pointer string; resolution keeps an explicit in-progress
// set so reference cycles are reported instead of recursed into.
type resolver struct {
	doc       *Document
	resolving map[string]bool
	done      map[string]bool
}

// resolveRefs resolves every reference reachable from a channel operation,
// in document order. After it returns no reachable node carries a Ref.
func resolveRefs(doc *Document) error {
	r := &resolver{
		doc:       doc,
		resolving: make(map[string]bool),
		done:      make(map[string]bool),
	}
	for _, name := range doc.Channels.Names {
		ch := doc.Channels.Items[name]
		if ch == nil {
			continue
		}
		ops := []struct {
			op    *Operation
			where string
		}{
			{ch.Publish, "#/channels/" + name + "/publish"},
			{ch.Subscribe, "#/channels/" + name + "/subscribe"},
		}
		for _, pair := range ops {
			if pair.op == nil || pair.op.Message == nil {
				continue
			}
			msg, err := r.message(pair.op.Message, pair.where+"/message")
			if err != nil {
				return err
			}
			pair.op.Message = msg
		}
	}
	return nil
}

func (r *resolver) message(m *Message, where string) (*Message, error) {
	if m.Ref == "" {
		payload, err := r.schema(m.Payload, where+"/payload")
		if err != nil {
			return nil, err
		}
		m.Payload = payload
		return m, nil
	}

	ptr := m.Ref
	if !strings.HasPrefix(ptr, messagePrefix) {
		return nil, Errorf(UnresolvedReference, where, "unsupported message reference %q (expected %s<Name>)", ptr, messagePrefix)
	}
	name := strings.TrimPrefix(ptr, messagePrefix)
	target, ok := r.doc.Components.Messages[name]
	if !ok {
		return nil, Errorf(UnresolvedReference, ptr, "message reference %q does not exist", ptr)
	}
	if r.resolving[ptr] {
		return nil, Errorf(CircularReference, ptr, "circular message reference through %q", ptr)
	}
	if !r.done[ptr] {
		r.resolving[ptr] = true
		resolved, err := r.message(target, ptr)
		delete(r.resolving, ptr)
		if err != nil {
			return nil, err
		}
		if resolved.Name == "" {
			resolved.Name = name
		}
		r.doc.Components.Messages[name] = resolved
		r.done[ptr] = true
	}
	return r.doc.Components.Messages[name], nil
}

func (r *resolver) schema(s *Schema, where string) (*Schema, error) {
	if s == nil {
		return nil, nil
	}
	if s.Ref != "" {
		ptr := s.Ref
		if !strings.HasPrefix(ptr, schemaPrefix) {
			return nil, Errorf(UnresolvedReference, where, "unsupported schema reference %q (expected %s<Name>)", ptr, schemaPrefix)
		}
		name := strings.TrimPrefix(ptr, schemaPrefix)
		target, ok := r.doc.Components.Schemas[name]
		if !ok {
			return nil, Errorf(UnresolvedReference, ptr, "schema reference %q does not exist", ptr)
		}
		if r.resolving[ptr] {
			return nil, Errorf(CircularReference, ptr, "circular schema reference through %q", ptr)
		}
		if !r.done[ptr] {
			r.resolving[ptr] = true
			resolved, err := r.schema(target, ptr)
			delete(r.resolving, ptr)
			if err != nil {
				return nil, err
			}
			r.doc.Components.Schemas[name] = resolved
			r.done[ptr] = true
		}
		return r.doc.Components.Schemas[name], nil
	}

	for _, pname := range s.Properties.Names {
		child, err := r.schema(s.Properties.Items[pname], where+"/properties/"+pname)
		if err != nil {
			return nil, err
		}
		s.Properties.Items[pname] = child
	}
	if s.Items != nil {
		items, err := r.schema(s.Items, where+"/items")
		if err != nil {
			return nil, err
		}
		s.Items = items
	}
	if s.AdditionalProperties != nil {
		ap, err := r.schema(s.AdditionalProperties, where+"/additionalProperties")
		if err != nil {
			return nil, err
		}
		s.AdditionalProperties = ap
	}
	return s, nil
}
