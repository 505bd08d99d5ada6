package spec

import "fmt"

// Kind categorizes generation-pipeline errors for clearer handling and messaging.
type Kind string

const (
	MalformedSpec       Kind = "MalformedSpec"
	UnresolvedReference Kind = "UnresolvedReference"
	CircularReference   Kind = "CircularReference"
	FieldNameCollision  Kind = "FieldNameCollision"
	DanglingOperation   Kind = "DanglingOperation"
	TemplateRenderError Kind = "TemplateRenderError"
)

// Error is a structured pipeline error with optional source location and a
// JSON Pointer to the offending document node.
type Error struct {
	Kind    Kind
	Message string
	Path    string // file path of the source document, when known
	Pointer string // e.g. "#/components/schemas/UserSignedUp"
	Cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Cause }

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, pointer, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pointer: pointer}
}
