// Package i18n maps message keys and named arguments to display text.
package i18n

import (
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Translator renders the text registered for key, executing its {{.name}}
// placeholders against args. Unknown keys render as the key itself.
type Translator interface {
	T(key string, args map[string]any) string
}

// Language identifies a catalog.
type Language string

const (
	Spanish Language = "es"
	Catalan Language = "ca"
)

var tags = map[Language]language.Tag{
	Spanish: language.Spanish,
	Catalan: language.Catalan,
}

var bundle = newBundle()

func newBundle() *goi18n.Bundle {
	b := goi18n.NewBundle(language.Spanish)
	for lang, messages := range catalogs {
		b.MustAddMessages(tags[lang], messages...)
	}
	return b
}

// Catalog is a Translator over the built-in message bundle. Messages missing
// from its language come from the Spanish catalog.
type Catalog struct {
	lang      Language
	localizer *goi18n.Localizer
}

// New returns the catalog for lang, falling back to Spanish.
func New(lang string) *Catalog {
	l := Language(strings.ToLower(strings.TrimSpace(lang)))
	if _, ok := catalogs[l]; !ok {
		l = Spanish
	}
	return &Catalog{lang: l, localizer: goi18n.NewLocalizer(bundle, string(l))}
}

// Language returns the catalog's language.
func (c *Catalog) Language() Language {
	return c.lang
}

func (c *Catalog) T(key string, args map[string]any) string {
	text, err := c.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: args,
	})
	if err != nil && text == "" {
		return key
	}
	return text
}
