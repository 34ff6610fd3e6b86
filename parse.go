package typesystem

import (
	"bytes"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/typesystem/i18n"
)

// parseOrder lists the JSON types in the order ParseValue tries them, from
// least to most ambiguous.
var parseOrder = [...]string{"boolean", "integer", "number", "array", "object", "string"}

// ParseValue coerces a flat string into the first of the allowed JSON types
// that accepts it and reports which type matched.
//
// "null" matches only the empty string and is tried first. Booleans are
// "true"/"false" in any case. Arrays and objects must start with "[" or "{"
// and decode as JSON. Anything is a valid "string".
//
// name is used in the error message; it defaults to "value".
func ParseValue(value string, allowed []string, name string) (kind string, v any, err error) {
	if name == "" {
		name = "value"
	}
	if contains(allowed, "null") && value == "" {
		return "null", nil, nil
	}
	for _, k := range parseOrder {
		if !contains(allowed, k) {
			continue
		}
		if out, ok := parseAs(k, value); ok {
			return k, out, nil
		}
	}
	return "", nil, &ParserError{
		Path:    "/",
		Message: i18n.T(CodeParseError, map[string]string{"name": name, "types": strings.Join(allowed, ", ")}),
	}
}

func parseAs(kind, value string) (any, bool) {
	switch kind {
	case "boolean":
		switch strings.ToLower(value) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	case "integer":
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n, true
		}
	case "number":
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f, true
		}
	case "array":
		return decodeJSONPrefixed(value, '[')
	case "object":
		return decodeJSONPrefixed(value, '{')
	case "string":
		return value, true
	}
	return nil, false
}

func decodeJSONPrefixed(value string, open byte) (any, bool) {
	s := strings.TrimLeft(value, " \t\r\n")
	if s == "" || s[0] != open {
		return nil, false
	}
	// the whole value must be one JSON document, trailing garbage included
	if !json.Valid([]byte(s)) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, false
	}
	return normalizeNumbers(out), true
}

// normalizeNumbers turns json.Number leaves into int64 when integral and
// float64 otherwise.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
		return x
	default:
		return v
	}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
