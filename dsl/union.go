package dsl

import (
	"context"

	typesystem "github.com/reoring/typesystem"
)

// UnionType accepts the first of its candidates that validates the input.
type UnionType struct {
	base
	types []typesystem.Type
}

// Union returns a union over candidates, tried in order.
func Union(desc string, candidates []typesystem.Type, overrides ...Override) UnionType {
	return UnionType{base: newBase(desc, overrides), types: append([]typesystem.Type(nil), candidates...)}
}

func (u UnionType) Kind() typesystem.Kind { return typesystem.KindUnion }

// Candidates returns the candidate descriptors in order.
func (u UnionType) Candidates() []typesystem.Type { return append([]typesystem.Type(nil), u.types...) }

// Or appends a candidate.
func (u UnionType) Or(t typesystem.Type) UnionType {
	u.types = append(append([]typesystem.Type(nil), u.types...), t)
	return u
}

func (u UnionType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, u, v)
	if done || err != nil {
		return v, err
	}
	labels := make([]string, len(u.types))
	failures := make([]*typesystem.TypeSystemError, 0, len(u.types))
	child := typesystem.Structured(ctx)
	for i, t := range u.types {
		c, err := typesystem.Resolve(t)
		if err != nil {
			return nil, err
		}
		labels[i] = c.Meta().Label()
		out, err := c.Validate(child, v)
		if err == nil {
			return typesystem.Finish(ctx, u, out)
		}
		// a broken schema is not a candidate mismatch
		if _, ok := typesystem.AsSchemaError(err); ok {
			return nil, err
		}
		failures = append(failures, candidateFailure(err))
	}
	e := typesystem.NewError(u, typesystem.CodeUnionNoMatch, "", map[string]any{"types": labels})
	if len(u.types) == 0 {
		e.Hint = "no candidate types declared"
	}
	e.Candidates = failures
	return nil, e
}

// candidateFailure keeps each rejected alternative in the TypeSystemError
// shape so the aggregate can be flattened into Issues.
func candidateFailure(err error) *typesystem.TypeSystemError {
	if te, ok := typesystem.AsTypeSystemError(err); ok {
		return te
	}
	path := "/"
	if pe, ok := typesystem.AsParserError(err); ok && pe.Path != "" {
		path = pe.Path
	}
	return &typesystem.TypeSystemError{Path: path, Code: typesystem.CodeParseError, Message: err.Error(), Cause: err}
}

func (u UnionType) Example() any {
	if u.m.Example != nil {
		return u.m.Example
	}
	if len(u.types) == 0 {
		return nil
	}
	return u.types[0].Example()
}
