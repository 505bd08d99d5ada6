// Package typesemitter renders the message payload types: one struct (or
// alias) per TypeModel, typed constants for string enums, and an
// UnmarshalJSON guard for types with required properties.
package typesemitter

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/lerenn/asyncapi-codegen/internal/emitter/common"
	"github.com/lerenn/asyncapi-codegen/internal/ir"
	"github.com/lerenn/asyncapi-codegen/internal/spec"
)

const codecImport = "github.com/lerenn/asyncapi-codegen/pkg/codec"

// Emit renders the types target and writes it per opts.
func Emit(ctx context.Context, ts *ir.TypeSet, opts common.Options) (*common.Result, error) {
	_ = ctx
	frag, err := Fragment(ts)
	if err != nil {
		return nil, err
	}
	return common.Emit(opts, frag)
}

// Fragment renders the type declarations without writing them, so the all
// target can combine them with the controller fragments.
func Fragment(ts *ir.TypeSet) (*common.Fragment, error) {
	if ts == nil {
		return nil, spec.Errorf(spec.TemplateRenderError, "", "types emitter: nil type set")
	}
	data, err := buildData(ts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := typesTmpl.Execute(&buf, data); err != nil {
		return nil, spec.Errorf(spec.TemplateRenderError, "", "types emitter: render: %v", err)
	}

	frag := &common.Fragment{Body: strings.TrimSpace(buf.String())}
	if ts.NeedsTime() {
		frag.Imports = append(frag.Imports, "time")
	}
	if ts.NeedsCodec() {
		frag.Imports = append(frag.Imports, codecImport)
	}
	return frag, nil
}

type templateData struct {
	Enums  []enumData
	Models []modelData
}

type enumData struct {
	Doc    string
	Name   string
	Values []enumValueData
}

type enumValueData struct {
	Name     string
	TypeName string
	Value    string
}

type modelData struct {
	Doc          string
	Name         string
	IsAlias      bool
	AliasType    string
	Fields       []fieldData
	HasRequired  bool
	RequiredArgs string // rendered `, "a", "b"` suffix for the codec call
}

type fieldData struct {
	Doc    string
	Name   string
	GoType string
	Tag    string
}

func buildData(ts *ir.TypeSet) (*templateData, error) {
	data := &templateData{}
	for _, e := range ts.Enums {
		doc := strings.TrimSpace(e.Description)
		if doc == "" {
			doc = e.Name + " is generated from a string enum."
		} else {
			doc = e.Name + ": " + doc
		}
		ed := enumData{Doc: doc, Name: e.Name}
		for _, v := range e.Values {
			ed.Values = append(ed.Values, enumValueData{Name: v.Name, TypeName: e.Name, Value: v.Value})
		}
		data.Enums = append(data.Enums, ed)
	}
	for _, m := range ts.Models {
		if m == nil || m.Name == "" {
			return nil, spec.Errorf(spec.TemplateRenderError, "", "types emitter: model without a name")
		}
		doc := strings.TrimSpace(m.Description)
		if doc == "" {
			if m.MessageName != "" {
				doc = m.Name + " is the payload of the " + m.MessageName + " message."
			} else {
				doc = m.Name + " is a nested payload object."
			}
		} else {
			doc = m.Name + ": " + doc
		}
		md := modelData{
			Doc:         doc,
			Name:        m.Name,
			IsAlias:     m.IsAlias,
			AliasType:   m.AliasType,
			HasRequired: len(m.Required) > 0,
		}
		if md.IsAlias && md.AliasType == "" {
			return nil, spec.Errorf(spec.TemplateRenderError, "", "types emitter: alias %s has no target type", m.Name)
		}
		for _, f := range m.Fields {
			tag := f.JSONName
			if !f.Required {
				tag += ",omitempty"
			}
			md.Fields = append(md.Fields, fieldData{
				Doc:    strings.TrimSpace(f.Doc),
				Name:   f.Name,
				GoType: f.GoType,
				Tag:    tag,
			})
		}
		if len(m.Required) > 0 {
			var b strings.Builder
			for _, r := range m.Required {
				fmt.Fprintf(&b, ", %q", r)
			}
			md.RequiredArgs = b.String()
		}
		data.Models = append(data.Models, md)
	}
	return data, nil
}

var typesTmpl = template.Must(template.New("types").Parse(`{{- range .Enums}}
// {{.Doc}}
type {{.Name}} string

const (
{{- range .Values}}
	{{.Name}} {{.TypeName}} = "{{.Value}}"
{{- end}}
)

{{end -}}
{{- range .Models}}
{{- if .IsAlias}}
// {{.Doc}}
type {{.Name}} {{.AliasType}}

{{else}}
// {{.Doc}}
type {{.Name}} struct {
{{- range .Fields}}
{{- if .Doc}}
	// {{.Doc}}
{{- end}}
	{{.Name}} {{.GoType}} ` + "`" + `json:"{{.Tag}}"` + "`" + `
{{- end}}
}

{{if .HasRequired -}}
// UnmarshalJSON enforces {{.Name}}'s required properties.
func (t *{{.Name}}) UnmarshalJSON(data []byte) error {
	type alias {{.Name}}
	var a alias
	if err := codec.UnmarshalRequired(data, &a{{.RequiredArgs}}); err != nil {
		return err
	}
	*t = {{.Name}}(a)
	return nil
}

{{end -}}
{{- end}}
{{- end}}`))
