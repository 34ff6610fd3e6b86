package dsl

import (
	typesystem "github.com/reoring/typesystem"
)

// base carries the common metadata embedded by every descriptor.
type base struct {
	m typesystem.Meta
}

func (b base) Meta() typesystem.Meta { return b.m }

func (b *base) meta() *typesystem.Meta { return &b.m }

func newBase(desc string, overrides []Override) base {
	if desc == "" {
		panic(typesystem.ErrMissingDescription)
	}
	b := base{m: typesystem.Meta{Description: desc}}
	for _, o := range overrides {
		o(&b.m)
	}
	return b
}

// Override adjusts the common metadata of a descriptor being built or derived.
type Override func(m *typesystem.Meta)

// Nullable lets nil through without any other check.
func Nullable() Override { return func(m *typesystem.Meta) { m.Nullable = true } }

// NotNullable clears a nullable flag inherited from a base descriptor.
func NotNullable() Override { return func(m *typesystem.Meta) { m.Nullable = false } }

// Example sets the documented example value.
func Example(v any) Override { return func(m *typesystem.Meta) { m.Example = v } }

// ParamName sets the request key the value is read from.
func ParamName(name string) Override { return func(m *typesystem.Meta) { m.ParamName = name } }

// WithParser sets the hook that transforms flat-string input before validation.
func WithParser(p typesystem.Parser) Override { return func(m *typesystem.Meta) { m.Parser = p } }

// Refine sets the post-check run over the coerced value.
func Refine(fn typesystem.RefineFunc) Override { return func(m *typesystem.Meta) { m.Refine = fn } }

// Describe replaces the description.
func Describe(desc string) Override { return func(m *typesystem.Meta) { m.Description = desc } }

// Titled sets the documentation title, used as the label in errors.
func Titled(title string) Override { return func(m *typesystem.Meta) { m.Title = title } }

// metaCarrier is satisfied by pointers to the descriptors of this package.
type metaCarrier[T any] interface {
	*T
	meta() *typesystem.Meta
}

// NewType derives a descriptor from an existing one with the given overrides applied.
// Every constraint is inherited and the original is left untouched.
//
//	optionalAge := dsl.NewType(age, dsl.Nullable())
func NewType[T any, P metaCarrier[T]](from T, overrides ...Override) T {
	m := P(&from).meta()
	for _, o := range overrides {
		o(m)
	}
	if m.Description == "" {
		panic(typesystem.ErrMissingDescription)
	}
	return from
}

// Derive is NewType for descriptors only known through the Type interface,
// such as types resolved from schema documents.
func Derive(t typesystem.Type, overrides ...Override) typesystem.Type {
	switch x := t.(type) {
	case StringType:
		return NewType(x, overrides...)
	case NumberType:
		return NewType(x, overrides...)
	case IntegerType:
		return NewType(x, overrides...)
	case BooleanType:
		return NewType(x, overrides...)
	case EnumType:
		return NewType(x, overrides...)
	case ObjectType:
		return NewType(x, overrides...)
	case ArrayType:
		return NewType(x, overrides...)
	case UnionType:
		return NewType(x, overrides...)
	case interface{ Unwrap() typesystem.Type }:
		return Derive(x.Unwrap(), overrides...)
	default:
		panic("dsl: cannot derive from " + t.Kind().String() + " descriptor of foreign type")
	}
}
