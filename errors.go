package typesystem

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType       = "invalid_type"
	CodeRequired          = "required"
	CodeUnknownKey        = "unknown_key"
	CodeDependencyMissing = "dependency_missing"
	CodeBlank             = "blank"
	CodeTooShort          = "too_short"
	CodeTooLong           = "too_long"
	CodePattern           = "pattern"
	CodeInvalidFormat     = "invalid_format"
	CodeTooSmall          = "too_small"
	CodeTooBig            = "too_big"
	CodeNotMultiple       = "not_multiple"
	CodeNotFinite         = "not_finite"
	CodeInvalidEnum       = "invalid_enum"
	CodeTooFewItems       = "too_few_items"
	CodeTooManyItems      = "too_many_items"
	CodeAdditionalItems   = "additional_items"
	CodeNotUnique         = "not_unique"
	CodeUnionNoMatch      = "union_no_match"
	CodeParseError        = "parse_error"
	// CodeCustom marks failures raised by a Refine hook.
	CodeCustom = "custom"
)

// ErrMissingDescription is the panic value of factories given an empty description.
var ErrMissingDescription = errors.New("typesystem: type must define a description")

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Type    string // Label of the descriptor that rejected the value.
	// Params carries structured parameters (e.g., {"min_length": 2}) for i18n
	// and observability.
	Params map[string]any
}

// Issues is a flat view over one or more failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// TypeSystemError reports a value that violates a declared constraint.
//
// Composite validators stop at the first failing child and re-report it with
// the child's location prepended to Path. A union that exhausts all of its
// candidates reports each candidate failure in Candidates.
type TypeSystemError struct {
	Path       string
	Code       string
	Message    string
	Hint       string
	Type       string
	Params     map[string]any
	Candidates []*TypeSystemError
	Cause      error
}

func (e *TypeSystemError) Error() string {
	if e.Path == "" || e.Path == "/" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

func (e *TypeSystemError) Unwrap() error { return e.Cause }

// Issues flattens the error into Issues. Union candidates are listed after
// the union failure itself, rebased under the union's path.
func (e *TypeSystemError) Issues() Issues {
	out := AppendIssues(nil, Issue{Path: pointerOrRoot(e.Path), Code: e.Code, Message: e.Message, Hint: e.Hint, Type: e.Type, Params: e.Params})
	for _, c := range e.Candidates {
		for _, it := range c.Issues() {
			it.Path = JoinPointer(e.Path, it.Path)
			out = AppendIssues(out, it)
		}
	}
	return out
}

// Rebase returns a copy of e whose path is prefixed by the given pointer.
func (e *TypeSystemError) Rebase(prefix string) *TypeSystemError {
	cp := *e
	cp.Path = JoinPointer(prefix, e.Path)
	return &cp
}

// ParserError reports flat-string input that a parser could not interpret.
// It is kept apart from TypeSystemError so callers can answer "malformed
// input" differently from "input violates a constraint".
type ParserError struct {
	Param   string
	Path    string
	Message string
	Cause   error
}

func (e *ParserError) Error() string {
	var b strings.Builder
	if e.Param != "" {
		b.WriteString(e.Param)
		b.WriteString(" - ")
	} else if e.Path != "" && e.Path != "/" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *ParserError) Unwrap() error { return e.Cause }

// Rebase returns a copy of e whose path is prefixed by the given pointer.
func (e *ParserError) Rebase(prefix string) *ParserError {
	cp := *e
	cp.Path = JoinPointer(prefix, e.Path)
	return &cp
}

// SchemaError reports an external schema document that cannot be loaded or
// mapped onto a descriptor.
type SchemaError struct {
	File       string
	Definition string
	Message    string
	Cause      error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema ")
	b.WriteString(e.File)
	if e.Definition != "" {
		b.WriteString("#/definitions/")
		b.WriteString(e.Definition)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// AsTypeSystemError extracts a *TypeSystemError using errors.As.
func AsTypeSystemError(err error) (*TypeSystemError, bool) {
	var te *TypeSystemError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// AsParserError extracts a *ParserError using errors.As.
func AsParserError(err error) (*ParserError, bool) {
	var pe *ParserError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AsSchemaError extracts a *SchemaError using errors.As.
func AsSchemaError(err error) (*SchemaError, bool) {
	var se *SchemaError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsIssues flattens any engine error into Issues. ParserError becomes a
// single parse_error issue; unknown errors yield false.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	if te, ok := AsTypeSystemError(err); ok {
		return te.Issues(), true
	}
	if pe, ok := AsParserError(err); ok {
		return AppendIssues(nil, Issue{Path: pointerOrRoot(pe.Path), Code: CodeParseError, Message: pe.Message}), true
	}
	return nil, false
}
