package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalSpecYAML = "" +
	"asyncapi: '2.6.0'\n" +
	"info:\n" +
	"  title: Account Service\n" +
	"  version: '1.0.0'\n" +
	"channels:\n" +
	"  user/signedup:\n" +
	"    subscribe:\n" +
	"      message:\n" +
	"        name: UserSignedUp\n" +
	"        payload:\n" +
	"          type: object\n" +
	"          properties:\n" +
	"            displayName:\n" +
	"              type: string\n" +
	"            email:\n" +
	"              type: string\n"

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "asyncapi.yaml")
	if err := os.WriteFile(specPath, []byte(minimalSpecYAML), 0o600); err != nil {
		t.Fatalf("write asyncapi doc: %v", err)
	}
	outFile := filepath.Join(dir, "out", "asyncapi.gen.go")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--output", outFile, "--dry-run"})

	out := captureStdout(func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(out, "Planned write to") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	// Dry-run should not create the file or its directory.
	if _, err := os.Stat(outFile); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_WritesAllTargets(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "asyncapi.yaml")
	if err := os.WriteFile(specPath, []byte(minimalSpecYAML), 0o600); err != nil {
		t.Fatalf("write asyncapi doc: %v", err)
	}
	outFile := filepath.Join(dir, "asyncapi.gen.go")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--output", outFile, "--generate", "all"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		"// Code generated by asyncapi-codegen. DO NOT EDIT.",
		"package asyncapi",
		"type UserSignedUp struct {",
		"type AppController struct {",
		"func (c *UserController) SubscribeUserSignedup(",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}
}

func TestGeneratePipeline_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "asyncapi.yaml")
	if err := os.WriteFile(specPath, []byte(minimalSpecYAML), 0o600); err != nil {
		t.Fatalf("write asyncapi doc: %v", err)
	}
	outFile := filepath.Join(dir, "types.gen.go")
	if err := os.WriteFile(outFile, []byte("// existing\n"), 0o600); err != nil {
		t.Fatalf("prewrite output: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--output", outFile, "--generate", "types"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected --force hint, got: %v", err)
	}
}

func TestGeneratePipeline_SpecErrorIsFriendly(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "asyncapi.yaml")
	bad := strings.Replace(minimalSpecYAML, "asyncapi: '2.6.0'", "asyncapi: '3.0.0'", 1)
	if err := os.WriteFile(specPath, []byte(bad), 0o600); err != nil {
		t.Fatalf("write asyncapi doc: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected version error")
	}
	if !strings.Contains(err.Error(), "MalformedSpec") {
		t.Fatalf("expected structured kind in message, got: %v", err)
	}
}
