package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for issue codes.
// data provides values substituted into "{name}" placeholders (for example,
// "min_length" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// Message keys that refine a code. The issue code stays the base code; only
// the wording differs.
const (
	KeyTooSmallExclusive = "too_small.exclusive"
	KeyTooBigExclusive   = "too_big.exclusive"
	KeyInvalidTypeNull   = "invalid_type.null"
)

var catalogs = map[string]map[string]string{
	"en": {
		"invalid_type":       "Must be a valid {expected}.",
		KeyInvalidTypeNull:   "Must not be null.",
		"required":           "This field is required.",
		"unknown_key":        "Additional properties are not allowed. {key} not in {properties}",
		"dependency_missing": "Required properties {dependencies} for property `{property}` are missing.",
		"blank":              "Must not be blank.",
		"too_short":          "Must have at least {min_length} characters.",
		"too_long":           "Must have no more than {max_length} characters.",
		"pattern":            "Must match the pattern /{pattern}/.",
		"invalid_format":     "Not a valid {format}.",
		"too_small":          "Must be greater than or equal to {minimum}.",
		KeyTooSmallExclusive: "Must be greater than {minimum}.",
		"too_big":            "Must be less than or equal to {maximum}.",
		KeyTooBigExclusive:   "Must be less than {maximum}.",
		"not_multiple":       "Must be a multiple of {multiple_of}.",
		"not_finite":         "Must be a finite number.",
		"invalid_enum":       "Must be one of: {enum}",
		"too_few_items":      "Not enough items.",
		"too_many_items":     "Too many items.",
		"additional_items":   "Additional items are not allowed.",
		"not_unique":         "This item is not unique.",
		"union_no_match":     "Value is not one of {types}.",
		"parse_error":        "{name} must be a valid type ({types})",
	},
	"ja": {
		"invalid_type":       "型が不正です ({expected})",
		KeyInvalidTypeNull:   "null は許可されていません",
		"required":           "必須プロパティが不足しています",
		"unknown_key":        "未知のキーです: {key}",
		"dependency_missing": "プロパティ `{property}` には {dependencies} が必要です",
		"blank":              "空にできません",
		"too_short":          "短すぎます (最小 {min_length} 文字)",
		"too_long":           "長すぎます (最大 {max_length} 文字)",
		"pattern":            "パターン /{pattern}/ に一致しません",
		"invalid_format":     "{format} の形式ではありません",
		"too_small":          "{minimum} 以上である必要があります",
		KeyTooSmallExclusive: "{minimum} より大きい必要があります",
		"too_big":            "{maximum} 以下である必要があります",
		KeyTooBigExclusive:   "{maximum} より小さい必要があります",
		"not_multiple":       "{multiple_of} の倍数である必要があります",
		"not_finite":         "有限の数値である必要があります",
		"invalid_enum":       "次のいずれかである必要があります: {enum}",
		"too_few_items":      "要素が少なすぎます",
		"too_many_items":     "要素が多すぎます",
		"additional_items":   "追加の要素は許可されていません",
		"not_unique":         "要素が重複しています",
		"union_no_match":     "{types} のいずれにも一致しません",
		"parse_error":        "解析エラー: {name} ({types})",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tpl, ok := catalogs[t.lang][code]
	if !ok {
		tpl, ok = catalogs["en"][code]
	}
	if !ok {
		return code
	}
	return Render(tpl, data)
}

// Render substitutes "{name}" placeholders in tpl with values from data.
// Unknown placeholders are left as is.
func Render(tpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tpl, "{") {
		return tpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	return current.Load().tr.Message(code, data)
}
