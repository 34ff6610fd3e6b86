package typesystem

import (
	"context"
	"errors"

	"github.com/reoring/typesystem/i18n"
)

// Begin runs the steps every descriptor shares before its own checks: the
// nullability short-circuit and, for flat input, the parser hook.
//
// done reports that v (or err) is final and the caller must return it as is.
func Begin(ctx context.Context, t Type, v any) (out any, done bool, err error) {
	m := t.Meta()
	if v == nil && m.Nullable {
		return nil, true, nil
	}
	if !IsFlatInput(ctx) {
		return v, false, nil
	}
	s, ok := v.(string)
	if !ok {
		return v, false, nil
	}
	if m.Parser != nil {
		out, err = m.Parser(s)
		if err != nil {
			return nil, true, toParserError(err)
		}
	} else {
		switch t.Kind() {
		case KindObject, KindArray, KindUnion:
			if _, out, err = ParseValue(s, AllowedKinds(t), ""); err != nil {
				return nil, true, err
			}
		default:
			return s, false, nil
		}
	}
	if out == nil && m.Nullable {
		return nil, true, nil
	}
	return out, false, nil
}

// Finish runs the descriptor's Refine hook over the coerced value. Errors
// that are not a *TypeSystemError are reported with code custom.
func Finish(ctx context.Context, t Type, v any) (any, error) {
	m := t.Meta()
	if m.Refine == nil {
		return v, nil
	}
	if err := m.Refine(ctx, v); err != nil {
		if te, ok := AsTypeSystemError(err); ok {
			if te.Type == "" {
				cp := *te
				cp.Type = m.Label()
				te = &cp
			}
			return nil, te
		}
		return nil, &TypeSystemError{Path: "/", Code: CodeCustom, Message: err.Error(), Type: m.Label(), Cause: err}
	}
	return v, nil
}

func toParserError(err error) error {
	var pe *ParserError
	if errors.As(err, &pe) {
		return pe
	}
	return &ParserError{Path: "/", Message: err.Error(), Cause: err}
}

// NewError builds a *TypeSystemError for t at the root path. The message is
// rendered from the i18n catalog using key (usually the code itself) and
// params; params are also kept on the error for observability.
func NewError(t Type, code, key string, params map[string]any) *TypeSystemError {
	if key == "" {
		key = code
	}
	label := ""
	if t != nil {
		label = t.Meta().Label()
	}
	return &TypeSystemError{
		Path:    "/",
		Code:    code,
		Message: i18n.T(key, stringParams(params)),
		Type:    label,
		Params:  params,
	}
}
