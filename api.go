package typesystem

import (
	"context"
	"errors"
)

// ErrNilType is returned by the entry points when no descriptor is given.
var ErrNilType = errors.New("typesystem: nil type")

// Validate coerces a structured value (for example, decoded JSON) against t.
// Parser hooks do not run in this mode.
func Validate(ctx context.Context, t Type, v any) (any, error) {
	if t == nil {
		return nil, ErrNilType
	}
	return t.Validate(WithFlatInput(ctx, false), v)
}

// ValidateFlat coerces a flat string (a form or query parameter value)
// against t. Parser hooks run first; composite kinds without a hook parse
// the string with ParseValue.
func ValidateFlat(ctx context.Context, t Type, s string) (any, error) {
	if t == nil {
		return nil, ErrNilType
	}
	return t.Validate(WithFlatInput(ctx, true), s)
}

// Is returns true if v conforms to t in structured mode.
func Is(ctx context.Context, t Type, v any) bool {
	_, err := Validate(ctx, t, v)
	return err == nil
}

// ---- Validation context options (exported for subpackages) ----

type contextKey int

const (
	_ctxKeyFlatInput contextKey = iota
)

// WithFlatInput returns a child context that marks the input as a flat
// string. It is set by ValidateFlat and cleared by composites before they
// hand structured children down.
func WithFlatInput(ctx context.Context, enabled bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, _ctxKeyFlatInput, enabled)
}

// IsFlatInput reports whether the value being validated arrived as a flat string.
func IsFlatInput(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v := ctx.Value(_ctxKeyFlatInput)
	b, _ := v.(bool)
	return b
}

// Structured returns ctx with flat-input mode cleared, for child validation.
func Structured(ctx context.Context) context.Context {
	if !IsFlatInput(ctx) {
		return ctx
	}
	return WithFlatInput(ctx, false)
}
