package dsl

import (
	"context"
	"reflect"

	typesystem "github.com/reoring/typesystem"
)

// ArrayRules are the constraints of an ArrayType. At most one of Items and
// Positional is set.
type ArrayRules struct {
	Items           typesystem.Type
	Positional      []typesystem.Type
	MinItems        *int
	MaxItems        *int
	UniqueItems     bool
	AdditionalItems bool
}

// ArrayType validates ordered sequences element by element.
type ArrayType struct {
	base
	rules ArrayRules
}

// Array returns an array descriptor whose elements all match items. A nil
// items passes elements through unvalidated.
func Array(desc string, items typesystem.Type, overrides ...Override) ArrayType {
	return ArrayType{base: newBase(desc, overrides), rules: ArrayRules{Items: items}}
}

// Tuple returns an array descriptor validating element i against items[i].
func Tuple(desc string, items []typesystem.Type, overrides ...Override) ArrayType {
	return ArrayType{base: newBase(desc, overrides), rules: ArrayRules{Positional: append([]typesystem.Type(nil), items...)}}
}

func (a ArrayType) Kind() typesystem.Kind { return typesystem.KindArray }

// Rules returns a copy of the constraints.
func (a ArrayType) Rules() ArrayRules {
	r := a.rules
	r.Positional = append([]typesystem.Type(nil), r.Positional...)
	return r
}

// Items replaces the element descriptor and clears positional items.
func (a ArrayType) Items(t typesystem.Type) ArrayType {
	a.rules.Items = t
	a.rules.Positional = nil
	return a
}

// Positional replaces the element descriptors with a positional list.
func (a ArrayType) Positional(items ...typesystem.Type) ArrayType {
	a.rules.Items = nil
	a.rules.Positional = append([]typesystem.Type(nil), items...)
	return a
}

// MinItems sets the minimum length (inclusive).
func (a ArrayType) MinItems(n int) ArrayType { a.rules.MinItems = &n; return a }

// MaxItems sets the maximum length (inclusive).
func (a ArrayType) MaxItems(n int) ArrayType { a.rules.MaxItems = &n; return a }

// UniqueItems rejects duplicate coerced elements.
func (a ArrayType) UniqueItems(on bool) ArrayType { a.rules.UniqueItems = on; return a }

// AdditionalItems allows elements past the positional list.
func (a ArrayType) AdditionalItems(on bool) ArrayType { a.rules.AdditionalItems = on; return a }

func (a ArrayType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, a, v)
	if done || err != nil {
		return v, err
	}
	src, ok := toSlice(v)
	if !ok {
		return nil, invalidType(a, "array")
	}
	n := len(src)
	if pos := len(a.rules.Positional); pos > 0 {
		if n < pos {
			return nil, typesystem.NewError(a, typesystem.CodeTooFewItems, "", map[string]any{"min_items": pos})
		}
		if n > pos && !a.rules.AdditionalItems {
			e := typesystem.NewError(a, typesystem.CodeAdditionalItems, "", map[string]any{"max_items": pos})
			return nil, e.Rebase(typesystem.IndexPointer(pos))
		}
	}
	if lo := a.rules.MinItems; lo != nil && n < *lo {
		return nil, typesystem.NewError(a, typesystem.CodeTooFewItems, "", map[string]any{"min_items": *lo})
	}
	if hi := a.rules.MaxItems; hi != nil && n > *hi {
		return nil, typesystem.NewError(a, typesystem.CodeTooManyItems, "", map[string]any{"max_items": *hi})
	}

	out := make([]any, n)
	child := typesystem.Structured(ctx)
	for i, el := range src {
		t := a.itemType(i)
		if t == nil {
			out[i] = el
			continue
		}
		cv, err := t.Validate(child, el)
		if err != nil {
			return nil, typesystem.RebaseError(err, typesystem.IndexPointer(i))
		}
		out[i] = cv
	}
	if a.rules.UniqueItems {
		for i := 1; i < n; i++ {
			for j := 0; j < i; j++ {
				if reflect.DeepEqual(out[i], out[j]) {
					e := typesystem.NewError(a, typesystem.CodeNotUnique, "", map[string]any{"value": out[i], "first_index": j})
					e.Hint = "duplicate of item " + typesystem.IndexPointer(j)
					return nil, e.Rebase(typesystem.IndexPointer(i))
				}
			}
		}
	}
	return typesystem.Finish(ctx, a, out)
}

func (a ArrayType) itemType(i int) typesystem.Type {
	if len(a.rules.Positional) > 0 {
		if i < len(a.rules.Positional) {
			return a.rules.Positional[i]
		}
		return nil
	}
	return a.rules.Items
}

func (a ArrayType) Example() any {
	if a.m.Example != nil {
		return a.m.Example
	}
	if len(a.rules.Positional) > 0 {
		out := make([]any, len(a.rules.Positional))
		for i, t := range a.rules.Positional {
			out[i] = t.Example()
		}
		return out
	}
	if a.rules.Items != nil && !optionalRef(a.rules.Items, a.rules.MinItems == nil || *a.rules.MinItems == 0) {
		return []any{a.rules.Items.Example()}
	}
	return []any{}
}

// optionalRef reports whether t is a lazy reference that an example may
// leave out. References are not expanded there, which keeps recursive
// definitions finite.
func optionalRef(t typesystem.Type, optional bool) bool {
	_, ok := t.(typesystem.Resolvable)
	return ok && optional
}

// toSlice accepts any slice or array except strings and byte slices.
func toSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case string, []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}
