package dsl

import (
	"context"
	"strings"

	typesystem "github.com/reoring/typesystem"
)

// EnumRules are the constraints of an EnumType.
type EnumRules struct {
	Values          []string
	CaseInsensitive bool
	LowercaseValue  bool
	UppercaseValue  bool
}

// EnumType validates a string against an ordered set of allowed values.
type EnumType struct {
	base
	rules EnumRules
}

// Enum returns an enum descriptor over values (kept in declared order).
func Enum(desc string, values []string, overrides ...Override) EnumType {
	return EnumType{base: newBase(desc, overrides), rules: EnumRules{Values: append([]string(nil), values...)}}
}

func (e EnumType) Kind() typesystem.Kind { return typesystem.KindEnum }

// Rules returns a copy of the constraints.
func (e EnumType) Rules() EnumRules {
	r := e.rules
	r.Values = append([]string(nil), r.Values...)
	return r
}

// Values returns the allowed values in declared order.
func (e EnumType) Values() []string { return append([]string(nil), e.rules.Values...) }

// CaseInsensitive compares input to the allowed values ignoring case. Without
// an explicit transform, the coerced value is lowercased.
func (e EnumType) CaseInsensitive(on bool) EnumType { e.rules.CaseInsensitive = on; return e }

// LowercaseValue lowercases input before the membership check. It clears
// UppercaseValue.
func (e EnumType) LowercaseValue(on bool) EnumType {
	e.rules.LowercaseValue = on
	if on {
		e.rules.UppercaseValue = false
	}
	return e
}

// UppercaseValue uppercases input before the membership check. It clears
// LowercaseValue.
func (e EnumType) UppercaseValue(on bool) EnumType {
	e.rules.UppercaseValue = on
	if on {
		e.rules.LowercaseValue = false
	}
	return e
}

func (e EnumType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, e, v)
	if done || err != nil {
		return v, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, invalidType(e, "string")
	}
	switch {
	case e.rules.LowercaseValue:
		s = strings.ToLower(s)
	case e.rules.UppercaseValue:
		s = strings.ToUpper(s)
	case e.rules.CaseInsensitive:
		s = strings.ToLower(s)
	}
	if !e.contains(s) {
		err := typesystem.NewError(e, typesystem.CodeInvalidEnum, "", map[string]any{"enum": e.Values()})
		err.Hint = strings.Join(e.rules.Values, ", ")
		return nil, err
	}
	return typesystem.Finish(ctx, e, s)
}

func (e EnumType) contains(s string) bool {
	for _, a := range e.rules.Values {
		if a == s || (e.rules.CaseInsensitive && strings.EqualFold(a, s)) {
			return true
		}
	}
	return false
}

func (e EnumType) Example() any {
	if e.m.Example != nil {
		return e.m.Example
	}
	if len(e.rules.Values) == 0 {
		return ""
	}
	return e.rules.Values[0]
}
