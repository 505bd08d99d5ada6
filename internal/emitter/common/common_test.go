package common

import (
	"strings"
	"testing"
)

func TestRender_MergesAndGroupsImports(t *testing.T) {
	t.Parallel()
	a := &Fragment{Imports: []string{"fmt", "context", "github.com/lerenn/asyncapi-codegen/pkg/broker"}, Body: "var a = 1"}
	b := &Fragment{Imports: []string{"fmt", "sync"}, Body: "var b = 2"}

	out, err := Render("asyncapi", a, b)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "// Code generated by asyncapi-codegen. DO NOT EDIT.") {
		t.Fatalf("missing header:\n%s", s)
	}
	if strings.Count(s, `"fmt"`) != 1 {
		t.Fatalf("duplicate import not merged:\n%s", s)
	}
	// stdlib block precedes the external block
	ctxIdx := strings.Index(s, `"context"`)
	brokerIdx := strings.Index(s, `"github.com/lerenn/asyncapi-codegen/pkg/broker"`)
	if ctxIdx < 0 || brokerIdx < 0 || ctxIdx > brokerIdx {
		t.Fatalf("import grouping wrong:\n%s", s)
	}
	if !strings.Contains(s, "var a = 1") || !strings.Contains(s, "var b = 2") {
		t.Fatalf("bodies missing:\n%s", s)
	}
}

func TestRender_NoImports(t *testing.T) {
	t.Parallel()
	out, err := Render("asyncapi", &Fragment{Body: "type T struct{}"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(out), "import") {
		t.Fatalf("unexpected import block:\n%s", out)
	}
}

func TestRender_InvalidPackageName(t *testing.T) {
	t.Parallel()
	for _, pkg := range []string{"", "My-Pkg", "1pkg", "pkg name"} {
		if _, err := Render(pkg, &Fragment{Body: "var x = 0"}); err == nil {
			t.Fatalf("expected error for package %q", pkg)
		}
	}
}

func TestRender_SkipsEmptyBodies(t *testing.T) {
	t.Parallel()
	out, err := Render("asyncapi", &Fragment{Body: ""}, &Fragment{Body: "var x = 0"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Count(string(out), "\n\n") > 2 {
		t.Fatalf("empty fragment left stray blank lines:\n%q", out)
	}
}
