package dsl

import (
	"context"
	"strings"

	typesystem "github.com/reoring/typesystem"
)

// BooleanType validates booleans. Strings are matched case-insensitively
// against true/false, on/off and 1/0; numbers must be 0 or 1.
type BooleanType struct {
	base
}

// Boolean returns a boolean descriptor.
func Boolean(desc string, overrides ...Override) BooleanType {
	return BooleanType{base: newBase(desc, overrides)}
}

func (b BooleanType) Kind() typesystem.Kind { return typesystem.KindBoolean }

func (b BooleanType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, b, v)
	if done || err != nil {
		return v, err
	}
	out, ok := toBool(v)
	if !ok {
		return nil, invalidType(b, "boolean")
	}
	return typesystem.Finish(ctx, b, out)
}

func (b BooleanType) Example() any {
	if b.m.Example != nil {
		return b.m.Example
	}
	return true
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "on", "1":
			return true, true
		case "false", "off", "0":
			return false, true
		}
		return false, false
	case nil:
		return false, false
	}
	f, ok := toFloat(v)
	if !ok {
		return false, false
	}
	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}
