package dsl

import (
	"context"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"

	typesystem "github.com/reoring/typesystem"
)

// ObjectRules are the constraints of an ObjectType.
type ObjectRules struct {
	Properties           map[string]typesystem.Type
	Required             []string
	PropertyDependencies map[string][]string
	AdditionalProperties bool
}

// ObjectType validates key/value structures property by property.
type ObjectType struct {
	base
	rules ObjectRules
}

// Object returns an object descriptor. Keys without a declared property are
// passed through unless AdditionalProperties(false) is set.
func Object(desc string, overrides ...Override) ObjectType {
	return ObjectType{base: newBase(desc, overrides), rules: ObjectRules{AdditionalProperties: true}}
}

func (o ObjectType) Kind() typesystem.Kind { return typesystem.KindObject }

// Rules returns a copy of the constraints.
func (o ObjectType) Rules() ObjectRules {
	r := o.rules
	r.Properties = cloneProps(r.Properties)
	r.Required = append([]string(nil), r.Required...)
	r.PropertyDependencies = cloneDeps(r.PropertyDependencies)
	return r
}

// Property declares (or replaces) a property.
func (o ObjectType) Property(name string, t typesystem.Type) ObjectType {
	o.rules.Properties = cloneProps(o.rules.Properties)
	o.rules.Properties[name] = t
	return o
}

// Properties declares several properties at once.
func (o ObjectType) Properties(props map[string]typesystem.Type) ObjectType {
	o.rules.Properties = cloneProps(o.rules.Properties)
	for k, t := range props {
		o.rules.Properties[k] = t
	}
	return o
}

// Required marks properties that must be present, in declared order.
func (o ObjectType) Required(names ...string) ObjectType {
	req := append([]string(nil), o.rules.Required...)
	for _, n := range names {
		if !containsString(req, n) {
			req = append(req, n)
		}
	}
	o.rules.Required = req
	return o
}

// DependsOn requires deps to be present whenever prop is present.
func (o ObjectType) DependsOn(prop string, deps ...string) ObjectType {
	o.rules.PropertyDependencies = cloneDeps(o.rules.PropertyDependencies)
	cur := o.rules.PropertyDependencies[prop]
	for _, d := range deps {
		if !containsString(cur, d) {
			cur = append(cur, d)
		}
	}
	o.rules.PropertyDependencies[prop] = cur
	return o
}

// AdditionalProperties toggles whether undeclared keys are allowed.
func (o ObjectType) AdditionalProperties(on bool) ObjectType {
	o.rules.AdditionalProperties = on
	return o
}

// Title sets the documentation title.
func (o ObjectType) Title(title string) ObjectType { o.m.Title = title; return o }

// PropertyNames returns the declared property names in ascending order.
func (o ObjectType) PropertyNames() []string { return sortedKeys(o.rules.Properties) }

// PropertyType returns the descriptor of a declared property.
func (o ObjectType) PropertyType(name string) (typesystem.Type, bool) {
	t, ok := o.rules.Properties[name]
	return t, ok
}

func (o ObjectType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, o, v)
	if done || err != nil {
		return v, err
	}
	src, ok := toStringMap(v)
	if !ok {
		return nil, invalidType(o, "object")
	}
	keys := sortedKeys(src)
	if !o.rules.AdditionalProperties {
		for _, k := range keys {
			if _, declared := o.rules.Properties[k]; !declared {
				e := typesystem.NewError(o, typesystem.CodeUnknownKey, "", map[string]any{"key": k, "properties": o.PropertyNames()})
				return nil, e.Rebase(typesystem.FieldPointer(k))
			}
		}
	}
	for _, r := range o.rules.Required {
		if _, present := src[r]; !present {
			e := typesystem.NewError(o, typesystem.CodeRequired, "", map[string]any{"property": r})
			return nil, e.Rebase(typesystem.FieldPointer(r))
		}
	}
	for _, k := range sortedKeys(o.rules.PropertyDependencies) {
		if _, present := src[k]; !present {
			continue
		}
		deps := o.rules.PropertyDependencies[k]
		for _, d := range deps {
			if _, present := src[d]; !present {
				e := typesystem.NewError(o, typesystem.CodeDependencyMissing, "", map[string]any{"property": k, "dependencies": deps})
				e.Hint = d
				return nil, e.Rebase(typesystem.FieldPointer(k))
			}
		}
	}

	out := make(map[string]any, len(src))
	for k, val := range src {
		out[k] = val
	}
	child := typesystem.Structured(ctx)
	for _, k := range keys {
		t, declared := o.rules.Properties[k]
		if !declared {
			continue
		}
		cv, err := t.Validate(child, src[k])
		if err != nil {
			return nil, typesystem.RebaseError(err, typesystem.FieldPointer(k))
		}
		out[k] = cv
	}
	return typesystem.Finish(ctx, o, out)
}

func (o ObjectType) Example() any {
	if o.m.Example != nil {
		return o.m.Example
	}
	out := make(map[string]any, len(o.rules.Properties))
	for k, t := range o.rules.Properties {
		if optionalRef(t, !o.isRequired(k)) {
			continue
		}
		out[k] = t.Example()
	}
	return out
}

func (o ObjectType) isRequired(name string) bool {
	for _, r := range o.rules.Required {
		if r == name {
			return true
		}
	}
	return false
}

// toStringMap accepts maps keyed by strings and structs. Structs are decoded
// with mapstructure using their json tags.
func toStringMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			out[it.Key().String()] = it.Value().Interface()
		}
		return out, true
	case reflect.Struct:
		out := map[string]any{}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &out})
		if err != nil {
			return nil, false
		}
		if err := dec.Decode(rv.Interface()); err != nil {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

func cloneProps(in map[string]typesystem.Type) map[string]typesystem.Type {
	out := make(map[string]typesystem.Type, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneDeps(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in)+1)
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
