package typesystem

import "context"

// Kind identifies the variant of a descriptor.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInteger
	KindBoolean
	KindEnum
	KindObject
	KindArray
	KindUnion
)

var kindNames = [...]string{
	KindString:  "string",
	KindNumber:  "number",
	KindInteger: "integer",
	KindBoolean: "boolean",
	KindEnum:    "enum",
	KindObject:  "object",
	KindArray:   "array",
	KindUnion:   "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// JSONType is the JSON primitive a kind travels as on the wire. Enums are
// strings; unions have no single wire type and report "".
func (k Kind) JSONType() string {
	switch k {
	case KindEnum:
		return "string"
	case KindUnion:
		return ""
	default:
		return k.String()
	}
}

// Parser transforms flat-string input before validation. It should fail with
// a *ParserError; any other error is wrapped into one.
type Parser func(raw any) (any, error)

// RefineFunc is a post-check over the coerced value. It runs after all
// structural checks succeed and fails with a *TypeSystemError.
type RefineFunc func(ctx context.Context, v any) error

// Meta carries the fields shared by every descriptor.
type Meta struct {
	// Description is what the type represents. Factories require it.
	Description string
	// Title is an optional documentation label.
	Title string
	// Example is a sample value; descriptors synthesize one when nil.
	Example any
	// Nullable allows nil, which then bypasses every other check.
	Nullable bool
	// ParamName is the request key to read when it differs from the
	// parameter name.
	ParamName string
	// Parser runs on flat-string input before validation.
	Parser Parser
	// Refine runs after structural validation succeeds.
	Refine RefineFunc
}

// Label is the name used for the descriptor in error reports.
func (m Meta) Label() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Description
}

// Type is the capability every descriptor implements. Implementations are
// immutable values and safe for concurrent use.
type Type interface {
	Kind() Kind
	Meta() Meta
	// Validate coerces v into the native representation of the type or
	// returns a *TypeSystemError (or *ParserError in flat-input mode).
	Validate(ctx context.Context, v any) (any, error)
	// Example returns the declared example, or a synthesized value that
	// satisfies the descriptor.
	Example() any
}

// Resolvable is implemented by descriptors that stand in for another one,
// such as a reference into a schema document that is loaded on first use.
type Resolvable interface {
	Resolve() (Type, error)
}

// Resolve returns the concrete descriptor behind t. Descriptors that are not
// Resolvable are returned as is. A reference that cannot be resolved fails
// with its *SchemaError, so callers never need to touch Kind or Meta of a
// broken reference.
func Resolve(t Type) (Type, error) {
	for {
		r, ok := t.(Resolvable)
		if !ok {
			return t, nil
		}
		next, err := r.Resolve()
		if err != nil {
			return nil, err
		}
		t = next
	}
}

// AllowedKinds lists the JSON types a flat string may be parsed into for t.
// Unions contribute the wire types of their candidates; nullable types also
// allow "null". Candidates that cannot be resolved contribute nothing; their
// error surfaces when they are validated.
func AllowedKinds(t Type) []string {
	var out []string
	add := func(s string) {
		for _, e := range out {
			if e == s {
				return
			}
		}
		out = append(out, s)
	}
	var walk func(Type)
	walk = func(t Type) {
		t, err := Resolve(t)
		if err != nil {
			return
		}
		if u, ok := t.(interface{ Candidates() []Type }); ok && t.Kind() == KindUnion {
			for _, c := range u.Candidates() {
				walk(c)
			}
		} else if jt := t.Kind().JSONType(); jt != "" {
			add(jt)
		}
	}
	walk(t)
	if r, err := Resolve(t); err == nil && r.Meta().Nullable {
		add("null")
	}
	return out
}
