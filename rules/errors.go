package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every compile failure wraps exactly one of these.
var (
	ErrSchemaViolation  = errors.New("schema violation")
	ErrUnmappedEnum     = errors.New("unmapped enum value")
	ErrMissingField     = errors.New("missing required field")
	ErrMalformedLiteral = errors.New("malformed literal")
	ErrInvalidValue     = errors.New("invalid field value")
)

// Error is a fatal compile error with enough context to find the offending
// definition: the source file, the species, and the rule within it.
type Error struct {
	Kind    error
	File    string
	Line    int
	Species string
	// Rule is the zero-based index of the rule within the species, or -1.
	Rule  int
	Field string
	Keys  []string
	Value string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	if e.Species != "" {
		fmt.Fprintf(&b, " species %q", e.Species)
	}
	if e.Rule >= 0 {
		fmt.Fprintf(&b, " rule #%d", e.Rule)
	}
	if len(e.Keys) > 0 {
		fmt.Fprintf(&b, ": unsupported keys [%s]", strings.Join(e.Keys, ", "))
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %s", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, ": value %s", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the error kind, so callers can write errors.Is(err, ErrUnmappedEnum).
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindName returns a short stable label for an error kind, used for metrics.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrUnmappedEnum):
		return "unmapped_enum"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrMalformedLiteral):
		return "malformed_literal"
	case errors.Is(err, ErrInvalidValue):
		return "invalid_value"
	default:
		return "other"
	}
}
