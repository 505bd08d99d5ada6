// Package appemitter renders the application side of the contract: a
// controller with one publish method per outbound generation unit.
package appemitter

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/lerenn/asyncapi-codegen/internal/emitter/common"
	"github.com/lerenn/asyncapi-codegen/internal/ir"
	"github.com/lerenn/asyncapi-codegen/internal/spec"
)

const brokerImport = "github.com/lerenn/asyncapi-codegen/pkg/broker"

// Emit renders the application target and writes it per opts.
func Emit(ctx context.Context, units []ir.GenerationUnit, opts common.Options) (*common.Result, error) {
	_ = ctx
	frag, err := Fragment(units)
	if err != nil {
		return nil, err
	}
	return common.Emit(opts, frag)
}

// Fragment renders the application controller declarations.
func Fragment(units []ir.GenerationUnit) (*common.Fragment, error) {
	data := templateData{}
	for _, u := range units {
		if u.Direction != ir.Outbound {
			continue
		}
		if u.Type == nil || u.Identifier == "" {
			return nil, spec.Errorf(spec.TemplateRenderError, "",
				"application emitter: incomplete generation unit for channel %q", u.Channel)
		}
		data.Units = append(data.Units, unitData{
			Identifier: u.Identifier,
			Channel:    u.Channel,
			TypeName:   u.Type.Name,
			Summary:    strings.TrimSpace(u.Summary),
		})
	}

	var buf bytes.Buffer
	if err := appTmpl.Execute(&buf, data); err != nil {
		return nil, spec.Errorf(spec.TemplateRenderError, "", "application emitter: render: %v", err)
	}
	imports := []string{"context", "fmt", "sync", brokerImport}
	if len(data.Units) > 0 {
		// json is only referenced inside the publish method bodies
		imports = append(imports, "encoding/json")
	}
	return &common.Fragment{
		Imports: imports,
		Body:    strings.TrimSpace(buf.String()),
	}, nil
}

type templateData struct {
	Units []unitData
}

type unitData struct {
	Identifier string
	Channel    string
	TypeName   string
	Summary    string
}

var appTmpl = template.Must(template.New("application").Parse(`// AppController is the application side of the contract. It publishes on
// the channels the document declares with a publish operation and is
// generic over any broker implementation.
type AppController struct {
	broker    broker.Controller
	closeOnce sync.Once
}

// NewAppController connects b and returns the application controller.
func NewAppController(ctx context.Context, b broker.Controller) (*AppController, error) {
	if b == nil {
		return nil, fmt.Errorf("nil broker controller")
	}
	if err := b.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}
	return &AppController{broker: b}, nil
}
{{range .Units}}
// Publish{{.Identifier}} publishes a {{.TypeName}} message on channel
// "{{.Channel}}".{{if .Summary}} {{.Summary}}{{end}}
// It is safe to call from multiple goroutines.
func (c *AppController) Publish{{.Identifier}}(ctx context.Context, msg {{.TypeName}}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode {{.TypeName}}: %w", err)
	}
	return c.broker.Publish(ctx, "{{.Channel}}", payload)
}
{{end}}
// Close releases the broker resources. Calling it more than once is safe;
// only the first call reaches the broker.
func (c *AppController) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.broker.Close() })
	return err
}`))
