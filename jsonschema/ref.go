package jsonschema

import (
	"context"

	typesystem "github.com/reoring/typesystem"
)

// Ref is a descriptor backed by a schema definition that is resolved on
// first use through its Resolver's cache. It can be declared before the
// document is available and nested in any composite.
//
// Validate reports resolution failures as a *typesystem.SchemaError. Kind,
// Meta and Example panic with it, since there is no descriptor to describe;
// composites and params go through typesystem.Resolve and never reach them.
type Ref struct {
	r          *Resolver
	file       string
	definition string
}

// File returns the schema document the reference points into.
func (x Ref) File() string { return x.file }

// Definition returns the definition key; empty means the document root.
func (x Ref) Definition() string { return x.definition }

// Resolve returns the underlying descriptor.
func (x Ref) Resolve() (typesystem.Type, error) { return x.r.Resolve(x.file, x.definition) }

// Unwrap returns the underlying descriptor or panics.
func (x Ref) Unwrap() typesystem.Type { return x.r.MustResolve(x.file, x.definition) }

func (x Ref) Kind() typesystem.Kind { return x.Unwrap().Kind() }

func (x Ref) Meta() typesystem.Meta { return x.Unwrap().Meta() }

func (x Ref) Example() any { return x.Unwrap().Example() }

func (x Ref) Validate(ctx context.Context, v any) (any, error) {
	t, err := x.Resolve()
	if err != nil {
		return nil, err
	}
	return t.Validate(ctx, v)
}

// Candidates exposes the candidates of a union definition. It is empty when
// the definition is not a union or cannot be resolved.
func (x Ref) Candidates() []typesystem.Type {
	t, err := x.Resolve()
	if err != nil {
		return nil
	}
	if u, ok := t.(interface{ Candidates() []typesystem.Type }); ok {
		return u.Candidates()
	}
	return nil
}

var _ typesystem.Resolvable = Ref{}
