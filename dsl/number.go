package dsl

import (
	"context"
	"math"
	"reflect"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	typesystem "github.com/reoring/typesystem"
	"github.com/reoring/typesystem/i18n"
)

// NumberRules are the constraints shared by NumberType and IntegerType.
type NumberRules struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64
}

// NumberType validates numbers and coerces them to float64.
type NumberType struct {
	base
	rules NumberRules
}

// Number returns a number descriptor.
func Number(desc string, overrides ...Override) NumberType {
	return NumberType{base: newBase(desc, overrides)}
}

func (n NumberType) Kind() typesystem.Kind { return typesystem.KindNumber }

// Rules returns a copy of the constraints.
func (n NumberType) Rules() NumberRules { return n.rules }

// Minimum sets the lower bound, inclusive unless ExclusiveMinimum is set.
func (n NumberType) Minimum(v float64) NumberType {
	n.rules.Minimum = &v
	return n
}

// Maximum sets the upper bound, inclusive unless ExclusiveMaximum is set.
func (n NumberType) Maximum(v float64) NumberType {
	n.rules.Maximum = &v
	return n
}

// MultipleOf requires the value to be an integral multiple of v.
func (n NumberType) MultipleOf(v float64) NumberType {
	n.rules.MultipleOf = &v
	return n
}

// ExclusiveMinimum makes the minimum a strict bound.
func (n NumberType) ExclusiveMinimum(on bool) NumberType {
	n.rules.ExclusiveMinimum = on
	return n
}

// ExclusiveMaximum makes the maximum a strict bound.
func (n NumberType) ExclusiveMaximum(on bool) NumberType {
	n.rules.ExclusiveMaximum = on
	return n
}

func (n NumberType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, n, v)
	if done || err != nil {
		return v, err
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, numberTypeError(n, v, "number")
	}
	if err := checkNumber(n, n.rules, f); err != nil {
		return nil, err
	}
	return typesystem.Finish(ctx, n, f)
}

func (n NumberType) Example() any {
	if n.m.Example != nil {
		return n.m.Example
	}
	return numberExample(n.rules, 3.14, false)
}

// IntegerType validates whole numbers and coerces them to int64.
type IntegerType struct {
	base
	rules NumberRules
}

// Integer returns an integer descriptor.
func Integer(desc string, overrides ...Override) IntegerType {
	return IntegerType{base: newBase(desc, overrides)}
}

func (i IntegerType) Kind() typesystem.Kind { return typesystem.KindInteger }

// Rules returns a copy of the constraints.
func (i IntegerType) Rules() NumberRules { return i.rules }

// Minimum sets the lower bound, inclusive unless ExclusiveMinimum is set.
func (i IntegerType) Minimum(v float64) IntegerType {
	i.rules.Minimum = &v
	return i
}

// Maximum sets the upper bound, inclusive unless ExclusiveMaximum is set.
func (i IntegerType) Maximum(v float64) IntegerType {
	i.rules.Maximum = &v
	return i
}

// MultipleOf requires the value to be an integral multiple of v.
func (i IntegerType) MultipleOf(v float64) IntegerType {
	i.rules.MultipleOf = &v
	return i
}

// ExclusiveMinimum makes the minimum a strict bound.
func (i IntegerType) ExclusiveMinimum(on bool) IntegerType {
	i.rules.ExclusiveMinimum = on
	return i
}

// ExclusiveMaximum makes the maximum a strict bound.
func (i IntegerType) ExclusiveMaximum(on bool) IntegerType {
	i.rules.ExclusiveMaximum = on
	return i
}

func (i IntegerType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, i, v)
	if done || err != nil {
		return v, err
	}
	n, ok := toInt(v)
	if !ok {
		return nil, numberTypeError(i, v, "integer")
	}
	if err := checkNumber(i, i.rules, float64(n)); err != nil {
		return nil, err
	}
	return typesystem.Finish(ctx, i, n)
}

func (i IntegerType) Example() any {
	if i.m.Example != nil {
		return i.m.Example
	}
	return int64(numberExample(i.rules, 1, true))
}

func numberTypeError(t typesystem.Type, v any, expected string) *typesystem.TypeSystemError {
	if v == nil {
		return typesystem.NewError(t, typesystem.CodeInvalidType, i18n.KeyInvalidTypeNull, nil)
	}
	if f, ok := toFloat(v); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return typesystem.NewError(t, typesystem.CodeNotFinite, "", nil)
	}
	return invalidType(t, expected)
}

func checkNumber(t typesystem.Type, r NumberRules, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return typesystem.NewError(t, typesystem.CodeNotFinite, "", nil)
	}
	if r.Minimum != nil {
		lo := *r.Minimum
		if r.ExclusiveMinimum && f <= lo {
			return typesystem.NewError(t, typesystem.CodeTooSmall, i18n.KeyTooSmallExclusive, map[string]any{"minimum": lo})
		}
		if f < lo {
			return typesystem.NewError(t, typesystem.CodeTooSmall, "", map[string]any{"minimum": lo})
		}
	}
	if r.Maximum != nil {
		hi := *r.Maximum
		if r.ExclusiveMaximum && f >= hi {
			return typesystem.NewError(t, typesystem.CodeTooBig, i18n.KeyTooBigExclusive, map[string]any{"maximum": hi})
		}
		if f > hi {
			return typesystem.NewError(t, typesystem.CodeTooBig, "", map[string]any{"maximum": hi})
		}
	}
	if r.MultipleOf != nil && !isMultiple(f, *r.MultipleOf) {
		return typesystem.NewError(t, typesystem.CodeNotMultiple, "", map[string]any{"multiple_of": *r.MultipleOf})
	}
	return nil
}

// isMultiple tolerates floating point representation error: 0.3 is a
// multiple of 0.1.
func isMultiple(f, m float64) bool {
	if m == 0 {
		return true
	}
	if f == math.Trunc(f) && m == math.Trunc(m) && math.Abs(f) < 1<<53 && math.Abs(m) < 1<<53 {
		return int64(f)%int64(m) == 0
	}
	q := f / m
	return math.Abs(q-math.Round(q)) <= 1e-9*math.Max(1, math.Abs(q))
}

func (r NumberRules) accepts(f float64, integral bool) bool {
	if integral && f != math.Trunc(f) {
		return false
	}
	return checkNumber(nil, r, f) == nil
}

// numberExample picks def when valid, otherwise the smallest value the rules
// accept starting from the lower bound.
func numberExample(r NumberRules, def float64, integral bool) float64 {
	if r.accepts(def, integral) {
		return def
	}
	step := 1.0
	if r.MultipleOf != nil && *r.MultipleOf > 0 {
		step = *r.MultipleOf
	}
	var c float64
	switch {
	case r.Minimum != nil:
		c = math.Ceil(*r.Minimum/step) * step
		if r.ExclusiveMinimum && c <= *r.Minimum {
			c += step
		}
	case r.Maximum != nil:
		c = math.Floor(*r.Maximum/step) * step
		if r.ExclusiveMaximum && c >= *r.Maximum {
			c -= step
		}
	default:
		c = 0
	}
	if integral {
		c = math.Ceil(c)
	}
	for i := 0; i < 4 && !r.accepts(c, integral); i++ {
		c += step
	}
	if !r.accepts(c, integral) && r.Minimum != nil && r.Maximum != nil {
		c = (*r.Minimum + *r.Maximum) / 2
	}
	return c
}

// toFloat accepts Go numeric kinds, json.Number and numeric strings.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case bool, nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// toInt is toFloat restricted to integral values, keeping int64 precision
// for integer inputs.
func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	case bool, nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
		return 0, false
	}
	return int64(f), true
}
