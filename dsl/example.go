package dsl

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// exampleSeed keeps synthesized examples stable across runs.
const exampleSeed = 20181022

const (
	exampleDate     = "2018-10-22"
	exampleDateTime = "2018-10-22T10:30:00Z"
	exampleTime     = "10:30:00"
	exampleString   = "string"
)

// stringExample synthesizes a value satisfying s, falling back to the plain
// default when the synthesized one is rejected. Each call seeds its own faker.
func stringExample(s StringType) any {
	r := s.rules
	faker := gofakeit.New(exampleSeed)
	var cand string
	switch {
	case r.Format == FormatDate:
		cand = exampleDate
	case r.Format == FormatDateTime:
		cand = exampleDateTime
	case r.Format == FormatTime:
		cand = exampleTime
	case r.Format == FormatEmail:
		cand = faker.Email()
	case r.Format == FormatURI:
		cand = faker.URL()
	case r.Pattern != "":
		cand = faker.Regex(r.Pattern)
	default:
		cand = exampleString
	}
	cand = fitLength(cand, r, faker)
	if _, err := s.coerce(cand); err != nil {
		return fitLength(exampleString, r, faker)
	}
	return cand
}

// fitLength pads with letters or truncates so the example honors the length
// bounds.
func fitLength(s string, r StringRules, faker *gofakeit.Faker) string {
	runes := []rune(s)
	if r.MinLength != nil && len(runes) < *r.MinLength {
		s += strings.ToLower(faker.LetterN(uint(*r.MinLength - len(runes))))
		runes = []rune(s)
	}
	if r.MaxLength != nil && len(runes) > *r.MaxLength {
		s = string(runes[:*r.MaxLength])
	}
	return s
}
