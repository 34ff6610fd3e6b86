package params

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	typesystem "github.com/reoring/typesystem"
)

// Param declares one request parameter.
type Param struct {
	// Name is the key of the parameter in the parsed output.
	Name string
	// Type validates the value. Its ParamName, when set, is the key read
	// from the request instead of Name.
	Type typesystem.Type
	// Required reports a missing key as a required failure.
	Required bool
}

// Key returns the request key the parameter is read from. A type that cannot
// be resolved falls back to Name.
func (p Param) Key() string {
	if p.Type == nil {
		return p.Name
	}
	t, err := typesystem.Resolve(p.Type)
	if err != nil {
		return p.Name
	}
	return key(p, t)
}

// resolve returns the descriptor behind p.Type. Schema references that cannot
// be loaded surface as their *typesystem.SchemaError.
func (p Param) resolve() (typesystem.Type, error) {
	if p.Type == nil {
		return nil, ErrNilParamType
	}
	return typesystem.Resolve(p.Type)
}

// Set is an ordered list of parameters. Failures are reported for the first
// parameter in declaration order.
type Set []Param

// ErrNilParamType is returned when a parameter has no descriptor.
var ErrNilParamType = errors.New("params: parameter without type")

// ParseValues coerces query or form values. Each value is a flat string and
// goes through the descriptor's parser hook or the default flat parsing.
// Array parameters also accept repeated keys (?tag=a&tag=b), which are
// validated element by element. Keys that no parameter declares are ignored.
func ParseValues(ctx context.Context, set Set, values url.Values) (map[string]any, error) {
	flat := typesystem.WithFlatInput(ctx, true)
	out := make(map[string]any, len(set))
	for _, p := range set {
		typ, err := p.resolve()
		if err != nil {
			return nil, err
		}
		raw, ok := values[key(p, typ)]
		if !ok || len(raw) == 0 {
			if p.Required {
				return nil, missing(p, typ)
			}
			continue
		}
		var in any = raw[0]
		if typ.Kind() == typesystem.KindArray && typ.Meta().Parser == nil && repeated(raw) {
			in = raw
		}
		v, err := typ.Validate(flat, in)
		if err != nil {
			return nil, attribute(err, p)
		}
		out[p.Name] = v
	}
	return out, nil
}

// ParseMap coerces already-structured parameters, such as a decoded JSON
// body. Parser hooks do not run.
func ParseMap(ctx context.Context, set Set, values map[string]any) (map[string]any, error) {
	structured := typesystem.WithFlatInput(ctx, false)
	out := make(map[string]any, len(set))
	for _, p := range set {
		typ, err := p.resolve()
		if err != nil {
			return nil, err
		}
		raw, ok := values[key(p, typ)]
		if !ok {
			if p.Required {
				return nil, missing(p, typ)
			}
			continue
		}
		v, err := typ.Validate(structured, raw)
		if err != nil {
			return nil, attribute(err, p)
		}
		out[p.Name] = v
	}
	return out, nil
}

// Bind decodes parsed values into the struct pointed to by out. Fields are
// matched by their `param` tag, falling back to a case-insensitive match on
// the field name.
func Bind(values map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "param",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(values)
}

// repeated reports whether raw should be offered to an array as a list of
// elements rather than parsed as a single JSON array.
func repeated(raw []string) bool {
	return len(raw) > 1 || !strings.HasPrefix(strings.TrimSpace(raw[0]), "[")
}

func key(p Param, t typesystem.Type) string {
	if k := t.Meta().ParamName; k != "" {
		return k
	}
	return p.Name
}

func missing(p Param, t typesystem.Type) error {
	e := typesystem.NewError(t, typesystem.CodeRequired, "", map[string]any{"property": p.Name})
	return e.Rebase(typesystem.FieldPointer(p.Name))
}

func attribute(err error, p Param) error {
	err = typesystem.RebaseError(err, typesystem.FieldPointer(p.Name))
	if pe, ok := typesystem.AsParserError(err); ok && pe.Param == "" {
		cp := *pe
		cp.Param = p.Name
		return &cp
	}
	return err
}
