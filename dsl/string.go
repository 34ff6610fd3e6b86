package dsl

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	typesystem "github.com/reoring/typesystem"
	"github.com/reoring/typesystem/codec"
	"github.com/reoring/typesystem/i18n"
)

// String formats.
const (
	FormatDate     = codec.Date
	FormatDateTime = codec.DateTime
	FormatEmail    = codec.Email
	FormatTime     = codec.Time
	FormatURI      = codec.URI
)

// StringRules are the constraints of a StringType.
type StringRules struct {
	MinLength      *int
	MaxLength      *int
	Pattern        string
	Format         string
	TrimWhitespace bool
}

// StringType validates strings. Lengths count runes after trimming.
type StringType struct {
	base
	rules StringRules
	re    *regexp.Regexp
}

// String returns a string descriptor. Surrounding whitespace is trimmed unless
// TrimWhitespace(false) is set.
func String(desc string, overrides ...Override) StringType {
	return StringType{base: newBase(desc, overrides), rules: StringRules{TrimWhitespace: true}}
}

func (s StringType) Kind() typesystem.Kind { return typesystem.KindString }

// Rules returns a copy of the constraints.
func (s StringType) Rules() StringRules { return s.rules }

// MinLength sets the minimum rune count (inclusive).
func (s StringType) MinLength(n int) StringType { s.rules.MinLength = &n; return s }

// MaxLength sets the maximum rune count (inclusive).
func (s StringType) MaxLength(n int) StringType { s.rules.MaxLength = &n; return s }

// Pattern sets a regular expression that must match somewhere in the value.
// It panics if expr does not compile.
func (s StringType) Pattern(expr string) StringType {
	s.rules.Pattern = expr
	s.re = nil
	if expr != "" {
		s.re = regexp.MustCompile(expr)
	}
	return s
}

// Format sets one of the Format* constants.
func (s StringType) Format(f string) StringType { s.rules.Format = f; return s }

// TrimWhitespace toggles trimming before the length checks.
func (s StringType) TrimWhitespace(on bool) StringType { s.rules.TrimWhitespace = on; return s }

func (s StringType) Validate(ctx context.Context, v any) (any, error) {
	v, done, err := typesystem.Begin(ctx, s, v)
	if done || err != nil {
		return v, err
	}
	out, err := s.coerce(v)
	if err != nil {
		return nil, err
	}
	return typesystem.Finish(ctx, s, out)
}

func (s StringType) coerce(v any) (any, error) {
	var str string
	switch x := v.(type) {
	case string:
		str = x
	case []byte:
		str = string(x)
	case time.Time:
		// already decoded by a date-like format
		f, ok := codec.Lookup(s.rules.Format)
		if !ok {
			return nil, invalidType(s, "string")
		}
		if str, ok = f.Encode(x); !ok {
			return nil, invalidType(s, "string")
		}
	case nil:
		return nil, typesystem.NewError(s, typesystem.CodeInvalidType, i18n.KeyInvalidTypeNull, nil)
	default:
		return nil, invalidType(s, "string")
	}
	if s.rules.TrimWhitespace {
		str = strings.TrimSpace(str)
	}
	n := utf8.RuneCountInString(str)
	if lo := s.rules.MinLength; lo != nil && n < *lo {
		if *lo == 1 && n == 0 {
			return nil, typesystem.NewError(s, typesystem.CodeBlank, "", nil)
		}
		return nil, typesystem.NewError(s, typesystem.CodeTooShort, "", map[string]any{"min_length": *lo})
	}
	if hi := s.rules.MaxLength; hi != nil && n > *hi {
		return nil, typesystem.NewError(s, typesystem.CodeTooLong, "", map[string]any{"max_length": *hi})
	}
	if s.re != nil && !s.re.MatchString(str) {
		return nil, typesystem.NewError(s, typesystem.CodePattern, "", map[string]any{"pattern": s.rules.Pattern})
	}
	if s.rules.Format == "" {
		return str, nil
	}
	out, ok := parseFormat(s.rules.Format, str)
	if !ok {
		e := typesystem.NewError(s, typesystem.CodeInvalidFormat, "", map[string]any{"format": s.rules.Format})
		e.Hint = s.rules.Format
		return nil, e
	}
	return out, nil
}

// parseFormat checks str against format. Date formats return a time.Time.
// Unknown formats are accepted as is.
func parseFormat(format, str string) (any, bool) {
	f, ok := codec.Lookup(format)
	if !ok {
		return str, true
	}
	v, err := f.Decode(str)
	return v, err == nil
}

func (s StringType) Example() any {
	if s.m.Example != nil {
		return s.m.Example
	}
	return stringExample(s)
}

// invalidType reports input of the wrong kind; expected names the JSON type.
func invalidType(t typesystem.Type, expected string) *typesystem.TypeSystemError {
	return typesystem.NewError(t, typesystem.CodeInvalidType, "", map[string]any{"expected": expected})
}
