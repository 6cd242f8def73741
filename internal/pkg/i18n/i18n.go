// Package i18n resolves alert title and body keys into user-facing text.
package i18n

import (
	"log/slog"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
)

// DefaultLanguage is used when a client asks for a language we do not carry.
const DefaultLanguage = "en"

// Translator looks keys up per language with an English fallback.
type Translator struct {
	uni      *ut.UniversalTranslator
	fallback ut.Translator
}

// New loads the built-in catalog.
func New() (*Translator, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, id.New())

	for lang, messages := range catalog {
		trans, ok := uni.GetTranslator(lang)
		if !ok {
			continue
		}
		for key, text := range messages {
			if err := trans.Add(key, text, false); err != nil {
				return nil, err
			}
		}
	}

	if err := uni.VerifyTranslations(); err != nil {
		return nil, err
	}

	fallback, _ := uni.GetTranslator(DefaultLanguage)
	return &Translator{uni: uni, fallback: fallback}, nil
}

// Supported reports whether lang has its own catalog.
func (t *Translator) Supported(lang string) bool {
	_, ok := catalog[strings.ToLower(lang)]
	return ok
}

// T returns the text for key in lang. Unknown languages use English and
// unknown keys come back unchanged, so a missing entry is visible instead
// of blank.
func (t *Translator) T(lang, key string) string {
	trans := t.fallback
	if found, ok := t.uni.GetTranslator(strings.ToLower(lang)); ok && t.Supported(lang) {
		trans = found
	}

	text, err := trans.T(key)
	if err == nil && text != "" {
		return text
	}
	if trans != t.fallback {
		if text, err := t.fallback.T(key); err == nil && text != "" {
			return text
		}
	}

	slog.Warn("missing translation", "lang", lang, "key", key)
	return key
}
