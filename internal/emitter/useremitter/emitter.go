// Package useremitter renders the user side of the contract: a controller
// with subscribe/unsubscribe methods per inbound generation unit and an
// all-or-nothing SubscribeAll convenience operation.
package useremitter

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

// Emit renders the user target and writes it per opts.
func Emit(ctx context.Context, units []ir.GenerationUnit, opts common.Options) (*common.Result, error) {
	_ = ctx
	frag, err := Fragment(units)
	if err != nil {
		return nil, err
	}
	return common.Emit(opts, frag)
}

// Fragment renders the user controller declarations.
func Fragment(units []ir.GenerationUnit) (*common.Fragment, error) {
	data := templateData{}
	for _, u := range units {
		if u.Direction != ir.Inbound {
			continue
		}
		if u.Type == nil || u.Identifier == "" {
			return nil, spec.Errorf(spec.TemplateRenderError, "",
				"user emitter: incomplete generation unit for channel %q", u.Channel)
		}
		data.Units = append(data.Units, unitData{
			Identifier: u.Identifier,
			Channel:    u.Channel,
			TypeName:   u.Type.Name,
			Summary:    strings.TrimSpace(u.Summary),
		})
	}

	var buf bytes.Buffer
	if err := userTmpl.Execute(&buf, data); err != nil {
		return nil, spec.Errorf(spec.TemplateRenderError, "", "user emitter: render: %v", err)
	}
	imports := []string{"context", "fmt", "sync", brokerImport}
	if len(data.Units) > 0 {
		// json is only referenced inside the handler bodies
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

var userTmpl = template.Must(template.New("user").Parse(`// UserSubscriber bundles the callbacks SubscribeAll registers, one per
// channel declared for the user side. Callbacks run on the broker's
// dispatch concurrency, asynchronously relative to the subscriber.
type UserSubscriber interface {
{{- range .Units}}
	{{.Identifier}}(ctx context.Context, msg {{.TypeName}})
{{- end}}
}

// UserController is the user side of the contract. It subscribes to the
// channels the document declares and is generic over any broker
// implementation.
type UserController struct {
	broker    broker.Controller
	closeOnce sync.Once
}

// NewUserController connects b and returns the user controller.
func NewUserController(ctx context.Context, b broker.Controller) (*UserController, error) {
	if b == nil {
		return nil, fmt.Errorf("nil broker controller")
	}
	if err := b.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}
	return &UserController{broker: b}, nil
}
{{range .Units}}
// Subscribe{{.Identifier}} registers fn on channel "{{.Channel}}".
// {{if .Summary}}{{.Summary}} {{end}}Payloads that fail to decode are dropped.
func (c *UserController) Subscribe{{.Identifier}}(ctx context.Context, fn func(ctx context.Context, msg {{.TypeName}})) error {
	return c.broker.Subscribe(ctx, "{{.Channel}}", func(ctx context.Context, payload []byte) {
		var msg {{.TypeName}}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return
		}
		fn(ctx, msg)
	})
}

// Unsubscribe{{.Identifier}} removes the subscription on channel "{{.Channel}}".
func (c *UserController) Unsubscribe{{.Identifier}}(ctx context.Context) error {
	return c.broker.Unsubscribe(ctx, "{{.Channel}}")
}
{{end}}
// SubscribeAll subscribes to every declared channel or to none: when one
// subscription fails, the ones already established are rolled back before
// the error is returned.
func (c *UserController) SubscribeAll(ctx context.Context, sub UserSubscriber) error {
	if sub == nil {
		return fmt.Errorf("nil subscriber")
	}
	return broker.SubscribeAll(ctx, c.broker, []broker.Subscription{
{{- range .Units}}
		{
			Channel: "{{.Channel}}",
			Handler: func(ctx context.Context, payload []byte) {
				var msg {{.TypeName}}
				if err := json.Unmarshal(payload, &msg); err != nil {
					return
				}
				sub.{{.Identifier}}(ctx, msg)
			},
		},
{{- end}}
	})
}

// Close releases the broker resources. Calling it more than once is safe;
// only the first call reaches the broker.
func (c *UserController) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.broker.Close() })
	return err
}`))
