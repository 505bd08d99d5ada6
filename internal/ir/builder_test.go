package ir

import (
	"errors"
	"strings"
	"testing"

	"github.com/lerenn/asyncapi-codegen/internal/spec"
)

const twoChannelYAML = `asyncapi: '2.6.0'
info:
  title: Accounts
  version: 1.0.0
channels:
  user/signedup:
    subscribe:
      summary: A user signed up.
      message:
        name: UserSignedUp
        payload:
          type: object
          properties:
            email:
              type: string
  user/deleted:
    publish:
      message:
        $ref: '#/components/messages/UserDeleted'
    subscribe:
      message:
        $ref: '#/components/messages/UserDeleted'
components:
  messages:
    UserDeleted:
      payload:
        type: object
        properties:
          id:
            type: string
`

func TestBuildIR_OrderAndDirections(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, twoChannelYAML)
	ts, err := ResolveTypes(doc)
	if err != nil {
		t.Fatalf("ResolveTypes: %v", err)
	}
	units, err := BuildIR(doc, ts)
	if err != nil {
		t.Fatalf("BuildIR: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("units: got %d", len(units))
	}
	// document order, publish before subscribe within a channel
	if units[0].Channel != "user/signedup" || units[0].Direction != Inbound {
		t.Fatalf("unit 0: %+v", units[0])
	}
	if units[1].Channel != "user/deleted" || units[1].Direction != Outbound {
		t.Fatalf("unit 1: %+v", units[1])
	}
	if units[2].Channel != "user/deleted" || units[2].Direction != Inbound {
		t.Fatalf("unit 2: %+v", units[2])
	}
	if units[0].Identifier != "UserSignedup" {
		t.Fatalf("identifier: got %q", units[0].Identifier)
	}
	if units[0].Summary != "A user signed up." {
		t.Fatalf("summary: got %q", units[0].Summary)
	}
}

// Every unit's message must resolve to a model in the TypeSet built from
// the same document.
func TestBuildIR_ReferentialIntegrity(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, twoChannelYAML)
	ts, err := ResolveTypes(doc)
	if err != nil {
		t.Fatalf("ResolveTypes: %v", err)
	}
	units, err := BuildIR(doc, ts)
	if err != nil {
		t.Fatalf("BuildIR: %v", err)
	}
	for _, u := range units {
		m, ok := ts.ByMessage[u.MessageName]
		if !ok || m != u.Type {
			t.Fatalf("unit %s/%s references a model missing from the type set", u.Channel, u.Direction)
		}
	}
}

func TestBuildIR_Deterministic(t *testing.T) {
	t.Parallel()
	build := func() []GenerationUnit {
		doc := mustParse(t, twoChannelYAML)
		ts, err := ResolveTypes(doc)
		if err != nil {
			t.Fatalf("ResolveTypes: %v", err)
		}
		units, err := BuildIR(doc, ts)
		if err != nil {
			t.Fatalf("BuildIR: %v", err)
		}
		return units
	}
	a, b := build(), build()
	if len(a) != len(b) {
		t.Fatalf("unit counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Channel != b[i].Channel || a[i].Direction != b[i].Direction || a[i].Identifier != b[i].Identifier {
			t.Fatalf("unit %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBuildIR_ChannelWithoutOperations(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `asyncapi: '2.6.0'
info:
  title: Empty
  version: 1.0.0
channels:
  silent:
    description: nothing declared here
`)
	ts, err := ResolveTypes(doc)
	if err != nil {
		t.Fatalf("ResolveTypes: %v", err)
	}
	_, err = BuildIR(doc, ts)
	var se *spec.Error
	if !errors.As(err, &se) || se.Kind != spec.MalformedSpec {
		t.Fatalf("expected MalformedSpec for operation-less channel, got %v", err)
	}
}

func TestBuildIR_OperationWithoutMessage(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `asyncapi: '2.6.0'
info:
  title: Dangling
  version: 1.0.0
channels:
  ping:
    publish:
      operationId: sendPing
`)
	ts, err := ResolveTypes(doc)
	if err != nil {
		t.Fatalf("ResolveTypes: %v", err)
	}
	_, err = BuildIR(doc, ts)
	var se *spec.Error
	if !errors.As(err, &se) || se.Kind != spec.DanglingOperation {
		t.Fatalf("expected DanglingOperation, got %v", err)
	}
}

// Two channels that sanitize to the same identifier would declare the same
// generated method twice, so the build must fail instead of emitting it.
func TestBuildIR_ChannelIdentifierCollision(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `asyncapi: '2.6.0'
info:
  title: Colliding
  version: 1.0.0
channels:
  user/signedup:
    publish:
      message:
        name: SlashSignup
        payload:
          type: object
          properties:
            a:
              type: string
  user.signedup:
    publish:
      message:
        name: DotSignup
        payload:
          type: object
          properties:
            b:
              type: string
`)
	ts, err := ResolveTypes(doc)
	if err != nil {
		t.Fatalf("ResolveTypes: %v", err)
	}
	_, err = BuildIR(doc, ts)
	var se *spec.Error
	if !errors.As(err, &se) || se.Kind != spec.FieldNameCollision {
		t.Fatalf("expected FieldNameCollision for colliding channels, got %v", err)
	}
	for _, want := range []string{"user/signedup", "user.signedup", "UserSignedup"} {
		if !strings.Contains(se.Message, want) {
			t.Fatalf("collision message should name %q: %v", want, se.Message)
		}
	}
}

// The same identifier on opposite directions is fine: one channel's publish
// and subscribe operations share it by construction.
func TestBuildIR_SameIdentifierAcrossDirections(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, twoChannelYAML)
	ts, err := ResolveTypes(doc)
	if err != nil {
		t.Fatalf("ResolveTypes: %v", err)
	}
	units, err := BuildIR(doc, ts)
	if err != nil {
		t.Fatalf("BuildIR: %v", err)
	}
	if units[1].Identifier != "UserDeleted" || units[2].Identifier != "UserDeleted" {
		t.Fatalf("expected both user/deleted units to share the identifier: %+v", units[1:])
	}
}
