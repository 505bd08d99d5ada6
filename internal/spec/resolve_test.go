package spec

import (
	"errors"
	"testing"
)

func TestResolve_SchemaRefChain(t *testing.T) {
	t.Parallel()
	input := `asyncapi: '2.6.0'
info:
  title: Orders
  version: 1.0.0
channels:
  orders/created:
    publish:
      message:
        $ref: '#/components/messages/OrderCreated'
components:
  messages:
    OrderCreated:
      payload:
        $ref: '#/components/schemas/Order'
  schemas:
    Order:
      type: object
      properties:
        id:
          type: string
        address:
          $ref: '#/components/schemas/Address'
      required:
        - id
    Address:
      type: object
      properties:
        street:
          type: string
`
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg := doc.Channels.Items["orders/created"].Publish.Message
	if msg.Payload == nil || msg.Payload.Ref != "" {
		t.Fatalf("payload ref not substituted: %+v", msg.Payload)
	}
	addr := msg.Payload.Properties.Items["address"]
	if addr == nil || addr.Ref != "" || addr.Properties.Len() != 1 {
		t.Fatalf("nested schema ref not substituted: %+v", addr)
	}
}

func TestResolve_SharedSchemaResolvedOnce(t *testing.T) {
	t.Parallel()
	input := `asyncapi: '2.6.0'
info:
  title: Shared
  version: 1.0.0
channels:
  a:
    publish:
      message:
        name: A
        payload:
          $ref: '#/components/schemas/Common'
  b:
    publish:
      message:
        name: B
        payload:
          $ref: '#/components/schemas/Common'
components:
  schemas:
    Common:
      type: object
      properties:
        v:
          type: string
`
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pa := doc.Channels.Items["a"].Publish.Message.Payload
	pb := doc.Channels.Items["b"].Publish.Message.Payload
	if pa != pb {
		t.Fatalf("expected both payloads to share the resolved component node")
	}
}

func TestResolve_UnresolvedMessageRef(t *testing.T) {
	t.Parallel()
	input := `asyncapi: '2.6.0'
info:
  title: Dangling
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        $ref: '#/components/messages/Nope'
`
	_, err := Parse([]byte(input))
	var se *Error
	if !errors.As(err, &se) || se.Kind != UnresolvedReference {
		t.Fatalf("expected UnresolvedReference, got %v", err)
	}
	if se.Pointer != "#/components/messages/Nope" {
		t.Fatalf("pointer: got %q", se.Pointer)
	}
}

func TestResolve_UnresolvedSchemaRef(t *testing.T) {
	t.Parallel()
	input := `asyncapi: '2.6.0'
info:
  title: Dangling
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        name: Ping
        payload:
          $ref: '#/components/schemas/Missing'
`
	_, err := Parse([]byte(input))
	var se *Error
	if !errors.As(err, &se) || se.Kind != UnresolvedReference {
		t.Fatalf("expected UnresolvedReference, got %v", err)
	}
}

func TestResolve_UnsupportedPointerSpace(t *testing.T) {
	t.Parallel()
	input := `asyncapi: '2.6.0'
info:
  title: External
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        name: Ping
        payload:
          $ref: 'other.yaml#/Schema'
`
	_, err := Parse([]byte(input))
	var se *Error
	if !errors.As(err, &se) || se.Kind != UnresolvedReference {
		t.Fatalf("expected UnresolvedReference for external ref, got %v", err)
	}
}

// Scenario: A references B references A. Resolution must fail with
// CircularReference instead of recursing forever.
func TestResolve_CircularSchemaRef(t *testing.T) {
	t.Parallel()
	input := `asyncapi: '2.6.0'
info:
  title: Cycle
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        name: Ping
        payload:
          $ref: '#/components/schemas/A'
components:
  schemas:
    A:
      type: object
      properties:
        b:
          $ref: '#/components/schemas/B'
    B:
      type: object
      properties:
        a:
          $ref: '#/components/schemas/A'
`
	_, err := Parse([]byte(input))
	var se *Error
	if !errors.As(err, &se) || se.Kind != CircularReference {
		t.Fatalf("expected CircularReference, got %v", err)
	}
}

func TestResolve_SelfReferencingSchema(t *testing.T) {
	t.Parallel()
	input := `asyncapi: '2.6.0'
info:
  title: Cycle
  version: 1.0.0
channels:
  ping:
    publish:
      message:
        name: Ping
        payload:
          $ref: '#/components/schemas/Node'
components:
  schemas:
    Node:
      type: object
      properties:
        next:
          $ref: '#/components/schemas/Node'
`
	_, err := Parse([]byte(input))
	var se *Error
	if !errors.As(err, &se) || se.Kind != CircularReference {
		t.Fatalf("expected CircularReference, got %v", err)
	}
}
