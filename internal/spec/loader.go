package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and parses an AsyncAPI document from a local file. YAML and
// JSON inputs are both accepted (JSON is parsed by the YAML decoder).
// Internal $ref pointers are resolved before the document is returned, so
// downstream stages never see a reference node.
func Load(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &Error{Kind: MalformedSpec, Message: "spec: input path is empty"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Kind: MalformedSpec, Message: fmt.Sprintf("resolve path: %v", err), Path: path, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &Error{Kind: MalformedSpec, Message: fmt.Sprintf("read file %s: %v", abs, err), Path: abs, Cause: err}
	}
	doc, err := Parse(raw)
	if err != nil {
		if se, ok := err.(*Error); ok && se.Path == "" {
			se.Path = abs
		}
		return nil, err
	}
	doc.Path = abs
	return doc, nil
}

// Parse parses and resolves an AsyncAPI document from raw bytes.
//
// Parsing is tolerant: unknown fields are ignored rather than rejected. The
// document version must belong to the 2.x family.
func Parse(raw []byte) (*Document, error) {
	if err := checkVersion(raw); err != nil {
		return nil, err
	}

	doc := &Document{}
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, &Error{Kind: MalformedSpec, Message: fmt.Sprintf("parse spec: %v", err), Cause: err}
	}
	if doc.Channels.Items == nil {
		return nil, &Error{Kind: MalformedSpec, Message: "spec: document declares no channels"}
	}

	if err := resolveRefs(doc); err != nil {
		return nil, err
	}
	if err := validatePayloads(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkVersion parses just enough of the document to verify the asyncapi
// version key belongs to the 2.x family.
func checkVersion(raw []byte) error {
	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return &Error{Kind: MalformedSpec, Message: fmt.Sprintf("parse spec: %v", err), Cause: err}
	}
	v, ok := root["asyncapi"]
	if !ok {
		return &Error{Kind: MalformedSpec, Message: "spec: missing 'asyncapi' version key"}
	}
	s, _ := v.(string)
	if !strings.HasPrefix(strings.TrimSpace(s), "2.") {
		return &Error{Kind: MalformedSpec, Message: fmt.Sprintf("spec: unsupported asyncapi version %q (expected 2.x)", s)}
	}
	return nil
}
