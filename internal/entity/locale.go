package entity

import (
	"errors"
	"strings"
)

type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleSpanish Locale = "es"
	LocaleFrench  Locale = "fr"
	LocaleRussian Locale = "ru"

	DefaultLocale = LocaleEnglish
)

var ErrUnsupportedLocale = errors.New("unsupported locale")

// ParseLocale accepts "en", "en-US", "EN" and the like.
func ParseLocale(s string) (Locale, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}

	switch l := Locale(s); l {
	case LocaleEnglish, LocaleSpanish, LocaleFrench, LocaleRussian:
		return l, nil
	}
	return "", ErrUnsupportedLocale
}

// ContentLanguage maps a locale onto the listing language it edits. Only
// English and Spanish copy is generated.
func (l Locale) ContentLanguage() (Language, error) {
	switch l {
	case LocaleEnglish:
		return LanguageEnglish, nil
	case LocaleSpanish:
		return LanguageSpanish, nil
	}
	return "", ErrUnsupportedLocale
}
