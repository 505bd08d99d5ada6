// Package common holds the pieces shared by the emitters: source-file
// composition (header, package clause, merged imports) and atomic output
// writing. Rendering is split from writing so the determinism of the
// generated text is testable without touching the filesystem.
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Options controls where and how an emitter writes its output.
type Options struct {
	PackageName string // required; package clause of the generated file
	OutFile     string // required unless DryRun; target file path
	Force       bool   // overwrite an existing output file
	DryRun      bool   // render only, never write
	Verbose     bool
}

// Result reports what an emitter produced.
type Result struct {
	OutFile string
	Size    int
	Written bool
}

// Fragment is one emitter's contribution to a generated file: the imports
// it needs and its rendered declarations.
type Fragment struct {
	Imports []string
	Body    string
}

const generatedHeader = "// Code generated by asyncapi-codegen. DO NOT EDIT.\n"

// Render composes fragments into a complete Go source file: generated-code
// header, package clause, merged import block, bodies in order. Identical
// fragments always compose to identical bytes.
func Render(packageName string, frags ...*Fragment) ([]byte, error) {
	pkg := strings.TrimSpace(packageName)
	if pkg == "" {
		return nil, fmt.Errorf("emit: package name is required")
	}
	if !validPackageName(pkg) {
		return nil, fmt.Errorf("emit: invalid package name %q", pkg)
	}

	var b strings.Builder
	b.WriteString(generatedHeader)
	b.WriteString("\npackage " + pkg + "\n")

	stdlib, external := mergeImports(frags)
	if len(stdlib)+len(external) > 0 {
		b.WriteString("\nimport (\n")
		for _, p := range stdlib {
			b.WriteString("\t\"" + p + "\"\n")
		}
		if len(stdlib) > 0 && len(external) > 0 {
			b.WriteString("\n")
		}
		for _, p := range external {
			b.WriteString("\t\"" + p + "\"\n")
		}
		b.WriteString(")\n")
	}

	for _, f := range frags {
		body := strings.TrimRight(f.Body, "\n")
		if body == "" {
			continue
		}
		b.WriteString("\n" + body + "\n")
	}
	return []byte(b.String()), nil
}

// Emit renders the fragments and writes the result to opts.OutFile, unless
// DryRun is set. Output is written atomically via a temp file and rename so
// a failed run never leaves a truncated file behind.
func Emit(opts Options, frags ...*Fragment) (*Result, error) {
	data, err := Render(opts.PackageName, frags...)
	if err != nil {
		return nil, err
	}
	res := &Result{OutFile: opts.OutFile, Size: len(data)}
	if opts.DryRun {
		return res, nil
	}
	if strings.TrimSpace(opts.OutFile) == "" {
		return nil, fmt.Errorf("emit: output file is required")
	}

	abs, err := filepath.Abs(opts.OutFile)
	if err != nil {
		return nil, fmt.Errorf("emit: resolve output path: %w", err)
	}
	if _, serr := os.Stat(abs); serr == nil && !opts.Force {
		return nil, fmt.Errorf("emit: output file %q already exists (use --force to overwrite)", abs)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("emit: mkdir: %w", err)
	}
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("emit: write temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("emit: rename %s: %w", abs, err)
	}
	res.OutFile = abs
	res.Written = true
	return res, nil
}

func mergeImports(frags []*Fragment) (stdlib, external []string) {
	seen := make(map[string]bool)
	for _, f := range frags {
		for _, p := range f.Imports {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			if strings.Contains(strings.SplitN(p, "/", 2)[0], ".") {
				external = append(external, p)
			} else {
				stdlib = append(stdlib, p)
			}
		}
	}
	sort.Strings(stdlib)
	sort.Strings(external)
	return stdlib, external
}

func validPackageName(pkg string) bool {
	for i, r := range pkg {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
