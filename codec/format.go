// Package codec converts the wire strings of string formats (date, date-time,
// time, email, uri) to and from their Go values.
package codec

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"time"
)

// Names of the built-in string formats.
const (
	Date     = "date"
	DateTime = "date-time"
	Time     = "time"
	Email    = "email"
	URI      = "uri"
)

// Format converts between the wire string of a string format and its Go
// value. Date-like formats decode into time.Time; the others validate and
// return the string unchanged.
type Format interface {
	Name() string
	// Decode parses s or reports why it is not in the format.
	Decode(s string) (any, error)
	// Encode renders a decoded value back to its wire string. ok is false
	// for values the format cannot render.
	Encode(v any) (s string, ok bool)
}

var builtin = map[string]Format{
	Date:     layoutFormat{name: Date, layouts: []string{dateLayout}, canonical: dateLayout},
	DateTime: layoutFormat{name: DateTime, layouts: dateTimeLayouts, canonical: time.RFC3339Nano},
	Time:     layoutFormat{name: Time, layouts: timeLayouts, canonical: timeLayout},
	Email:    emailFormat{},
	URI:      uriFormat{},
}

// Lookup returns the built-in format registered under name.
func Lookup(name string) (Format, bool) {
	f, ok := builtin[name]
	return f, ok
}

// Names lists the built-in formats in sorted order.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.999999999"
)

// dateTimeLayouts accept RFC3339 first, then the looser ISO 8601 shapes
// (no zone, minute precision, space separator) seen in query strings.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

var timeLayouts = []string{timeLayout, "15:04"}

type layoutFormat struct {
	name      string
	layouts   []string
	canonical string
}

func (f layoutFormat) Name() string { return f.name }

func (f layoutFormat) Decode(s string) (any, error) {
	var first error
	for _, l := range f.layouts {
		t, err := time.Parse(l, s)
		if err == nil {
			return t, nil
		}
		if first == nil {
			first = err
		}
	}
	return nil, fmt.Errorf("invalid %s: %w", f.name, first)
}

func (f layoutFormat) Encode(v any) (string, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return "", false
	}
	// the offset is kept, so decoding the result gives back t
	return t.Format(f.canonical), true
}

type emailFormat struct{}

func (emailFormat) Name() string { return Email }

func (emailFormat) Decode(s string) (any, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	// display names ("Ada <ada@example.com>") are not bare addresses
	if addr.Address != s {
		return nil, errors.New("not a bare address")
	}
	return s, nil
}

func (emailFormat) Encode(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

type uriFormat struct{}

func (uriFormat) Name() string { return URI }

func (uriFormat) Decode(s string) (any, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, errors.New("missing scheme")
	}
	return s, nil
}

func (uriFormat) Encode(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
