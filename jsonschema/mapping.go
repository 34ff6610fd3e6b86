package jsonschema

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/goccy/go-json"

	typesystem "github.com/reoring/typesystem"
	"github.com/reoring/typesystem/codec"
	"github.com/reoring/typesystem/dsl"
)

// supportedKeywords are the keywords the mapping understands. Anything else
// is ignored and reported through Diag.
var supportedKeywords = map[string]bool{
	"$ref": true, "$schema": true, "id": true, "$id": true, "definitions": true,
	"type": true, "description": true, "title": true, "example": true, "nullable": true,
	"enum": true, "format": true, "pattern": true, "minLength": true, "maxLength": true,
	"minimum": true, "maximum": true, "exclusiveMinimum": true, "exclusiveMaximum": true, "multipleOf": true,
	"properties": true, "required": true, "additionalProperties": true, "dependencies": true,
	"items": true, "additionalItems": true, "minItems": true, "maxItems": true, "uniqueItems": true,
}

// draft4Only are read from the raw fragment; openapi3.Schema has no field
// for them (or a different shape).
var draft4Only = []string{"definitions", "dependencies", "additionalItems", "items", "properties", "$ref"}

// mapper folds one definition (and whatever it references) into descriptors.
type mapper struct {
	doc    *document
	diag   *simpleDiag
	logger *slog.Logger
	// definitions currently being expanded, for cycle detection
	stack []frame
	// number of object or array levels entered so far
	depth int
	// ref returns a lazy descriptor for a definition of the same document
	ref func(key string) typesystem.Type
}

// frame is a definition being expanded and the nesting depth it started at.
// A $ref back to it from a deeper level is recursion through a container; at
// the same level it is an alias loop.
type frame struct {
	key   string
	depth int
}

func (m *mapper) schemaErr(definition, format string, a ...any) error {
	return &typesystem.SchemaError{File: m.doc.file, Definition: definition, Message: fmt.Sprintf(format, a...)}
}

func (m *mapper) warn(where, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	m.diag.warnf("%s%s: %s", m.doc.file, where, msg)
	m.logger.Debug("schema keyword ignored", slog.String("file", m.doc.file), slog.String("at", where), slog.String("reason", msg))
}

// child builds a fragment nested in an object or array.
func (m *mapper) child(raw map[string]any, definition, where, name string) (typesystem.Type, error) {
	m.depth++
	defer func() { m.depth-- }()
	return m.build(raw, definition, where, name, false)
}

// build maps raw onto a descriptor. where is the JSON Pointer of raw inside
// the document; name is the fallback description for nested fragments.
func (m *mapper) build(raw map[string]any, definition, where, name string, root bool) (typesystem.Type, error) {
	if ref, ok := raw["$ref"].(string); ok {
		key, err := m.doc.definitionFor(ref)
		if err != nil {
			return nil, &typesystem.SchemaError{File: m.doc.file, Definition: definition, Message: err.Error()}
		}
		for _, f := range m.stack {
			if f.key != key {
				continue
			}
			if f.depth == m.depth {
				return nil, m.schemaErr(definition, "cyclic $ref to definitions/%s", key)
			}
			if len(raw) > 1 {
				m.warn(where, "keywords next to a recursive $ref are ignored")
			}
			return m.ref(key), nil
		}
		target, err := m.doc.fragment(key)
		if err != nil {
			return nil, err
		}
		merged := make(map[string]any, len(target)+len(raw))
		for k, v := range target {
			merged[k] = v
		}
		// explicit sibling keywords win over the referenced definition
		for k, v := range raw {
			if k != "$ref" {
				merged[k] = v
			}
		}
		m.stack = append(m.stack, frame{key: key, depth: m.depth})
		defer func() { m.stack = m.stack[:len(m.stack)-1] }()
		return m.build(merged, definition, definitionsPrefix[1:]+key, name, root)
	}

	for _, k := range sortedKeys(raw) {
		if !supportedKeywords[k] {
			m.warn(where, "unsupported keyword %q", k)
		}
	}

	kind, nullable, err := m.kindOf(raw, definition)
	if err != nil {
		return nil, err
	}
	frag, err := m.decodeFragment(raw, definition)
	if err != nil {
		return nil, err
	}

	desc := frag.Description
	if desc == "" && !root {
		desc = frag.Title
		if desc == "" {
			desc = name
		}
	}
	if desc == "" {
		return nil, m.schemaErr(definition, "%s: %v", pointerOrRoot(where), typesystem.ErrMissingDescription)
	}
	var ov []dsl.Override
	if frag.Title != "" {
		ov = append(ov, dsl.Titled(frag.Title))
	}
	if frag.Example != nil {
		ov = append(ov, dsl.Example(frag.Example))
	}
	if nullable || frag.Nullable {
		ov = append(ov, dsl.Nullable())
	}

	switch kind {
	case "string":
		if len(frag.Enum) > 0 {
			return m.enum(desc, ov, frag, definition)
		}
		return m.str(desc, ov, frag, definition, where)
	case "number":
		return applyNumberRules(dsl.Number(desc, ov...), frag), nil
	case "integer":
		return applyNumberRules(dsl.Integer(desc, ov...), frag), nil
	case "boolean":
		return dsl.Boolean(desc, ov...), nil
	case "object":
		return m.object(raw, desc, ov, frag, definition, where)
	case "array":
		return m.array(raw, desc, ov, frag, definition, where)
	}
	return nil, m.schemaErr(definition, "%s: unsupported type %q", pointerOrRoot(where), kind)
}

// kindOf reads "type", accepting draft-04 type lists that add "null". A
// fragment without a type is an object when it declares properties, an
// array when it declares items, and a string when it declares an enum.
func (m *mapper) kindOf(raw map[string]any, definition string) (string, bool, error) {
	switch t := raw["type"].(type) {
	case string:
		return t, false, nil
	case []any:
		var kind string
		nullable := false
		for _, e := range t {
			s, _ := e.(string)
			switch {
			case s == "null":
				nullable = true
			case kind == "":
				kind = s
			default:
				return "", false, m.schemaErr(definition, "type list %v is not supported", t)
			}
		}
		return kind, nullable, nil
	case nil:
		switch {
		case raw["properties"] != nil:
			return "object", false, nil
		case raw["items"] != nil:
			return "array", false, nil
		case raw["enum"] != nil:
			return "string", false, nil
		}
		return "", false, m.schemaErr(definition, "fragment declares no type")
	default:
		return "", false, m.schemaErr(definition, "type must be a string or a list")
	}
}

// decodeFragment decodes the keywords openapi3.Schema models into it.
func (m *mapper) decodeFragment(raw map[string]any, definition string) (*openapi3.Schema, error) {
	flat := make(map[string]any, len(raw))
	for k, v := range raw {
		flat[k] = v
	}
	for _, k := range draft4Only {
		delete(flat, k)
	}
	delete(flat, "type")
	// schema-valued additionalProperties only allows extra keys here
	if _, ok := flat["additionalProperties"].(map[string]any); ok {
		flat["additionalProperties"] = true
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return nil, &typesystem.SchemaError{File: m.doc.file, Definition: definition, Message: "cannot encode fragment", Cause: err}
	}
	var s openapi3.Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, &typesystem.SchemaError{File: m.doc.file, Definition: definition, Message: "invalid keyword value", Cause: err}
	}
	return &s, nil
}

func (m *mapper) enum(desc string, ov []dsl.Override, frag *openapi3.Schema, definition string) (typesystem.Type, error) {
	values := make([]string, 0, len(frag.Enum))
	for _, v := range frag.Enum {
		if v == nil {
			// null members only matter for nullability, which "type" declares
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, m.schemaErr(definition, "enum value %v is not a string", v)
		}
		values = append(values, s)
	}
	return dsl.Enum(desc, values, ov...), nil
}

func (m *mapper) str(desc string, ov []dsl.Override, frag *openapi3.Schema, definition, where string) (typesystem.Type, error) {
	s := dsl.String(desc, ov...)
	if frag.MinLength > 0 {
		s = s.MinLength(int(frag.MinLength))
	}
	if frag.MaxLength != nil {
		s = s.MaxLength(int(*frag.MaxLength))
	}
	if frag.Pattern != "" {
		if _, err := regexp.Compile(frag.Pattern); err != nil {
			return nil, &typesystem.SchemaError{File: m.doc.file, Definition: definition, Message: "invalid pattern", Cause: err}
		}
		s = s.Pattern(frag.Pattern)
	}
	if frag.Format != "" {
		if _, ok := codec.Lookup(frag.Format); ok {
			s = s.Format(frag.Format)
		} else {
			m.warn(where, "unsupported format %q, known formats are %s", frag.Format, strings.Join(codec.Names(), ", "))
		}
	}
	return s, nil
}

func (m *mapper) object(raw map[string]any, desc string, ov []dsl.Override, frag *openapi3.Schema, definition, where string) (typesystem.Type, error) {
	o := dsl.Object(desc, ov...)
	if props, ok := raw["properties"].(map[string]any); ok {
		for _, name := range sortedKeys(props) {
			child, ok := props[name].(map[string]any)
			if !ok {
				return nil, m.schemaErr(definition, "%s: property must be an object", where+"/properties/"+name)
			}
			t, err := m.child(child, definition, where+"/properties/"+name, name)
			if err != nil {
				return nil, err
			}
			o = o.Property(name, t)
		}
	}
	if len(frag.Required) > 0 {
		o = o.Required(frag.Required...)
	}
	if deps, ok := raw["dependencies"].(map[string]any); ok {
		for _, prop := range sortedKeys(deps) {
			list, ok := deps[prop].([]any)
			if !ok {
				m.warn(where, "schema dependency for %q ignored", prop)
				continue
			}
			names := make([]string, 0, len(list))
			for _, e := range list {
				if s, ok := e.(string); ok {
					names = append(names, s)
				}
			}
			o = o.DependsOn(prop, names...)
		}
	}
	if ap := frag.AdditionalProperties; ap.Has != nil {
		o = o.AdditionalProperties(*ap.Has)
	}
	if _, ok := raw["additionalProperties"].(map[string]any); ok {
		m.warn(where, "schema-valued additionalProperties treated as true")
	}
	return o, nil
}

func (m *mapper) array(raw map[string]any, desc string, ov []dsl.Override, frag *openapi3.Schema, definition, where string) (typesystem.Type, error) {
	var a dsl.ArrayType
	switch items := raw["items"].(type) {
	case []any:
		pos := make([]typesystem.Type, len(items))
		for i, e := range items {
			child, ok := e.(map[string]any)
			if !ok {
				return nil, m.schemaErr(definition, "%s/items/%d: item must be an object", where, i)
			}
			t, err := m.child(child, definition, fmt.Sprintf("%s/items/%d", where, i), fmt.Sprintf("%s item %d", desc, i))
			if err != nil {
				return nil, err
			}
			pos[i] = t
		}
		a = dsl.Tuple(desc, pos, ov...)
		if ai, ok := raw["additionalItems"].(bool); ok {
			a = a.AdditionalItems(ai)
		}
	case map[string]any:
		t, err := m.child(items, definition, where+"/items", desc+" item")
		if err != nil {
			return nil, err
		}
		a = dsl.Array(desc, t, ov...)
	case nil:
		a = dsl.Array(desc, nil, ov...)
	default:
		return nil, m.schemaErr(definition, "%s/items: must be an object or a list", where)
	}
	if frag.MinItems > 0 {
		a = a.MinItems(int(frag.MinItems))
	}
	if frag.MaxItems != nil {
		a = a.MaxItems(int(*frag.MaxItems))
	}
	if frag.UniqueItems {
		a = a.UniqueItems(true)
	}
	return a, nil
}

// bounded is implemented by dsl.NumberType and dsl.IntegerType.
type bounded[T any] interface {
	Minimum(float64) T
	Maximum(float64) T
	MultipleOf(float64) T
	ExclusiveMinimum(bool) T
	ExclusiveMaximum(bool) T
}

func applyNumberRules[T bounded[T]](n T, frag *openapi3.Schema) T {
	n = n.ExclusiveMinimum(frag.ExclusiveMin).ExclusiveMaximum(frag.ExclusiveMax)
	if frag.Min != nil {
		n = n.Minimum(*frag.Min)
	}
	if frag.Max != nil {
		n = n.Maximum(*frag.Max)
	}
	if frag.MultipleOf != nil {
		n = n.MultipleOf(*frag.MultipleOf)
	}
	return n
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
