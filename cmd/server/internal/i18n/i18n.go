// Package i18n is the message catalog for response envelopes.
package i18n

import (
	_ "embed"
	"fmt"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ko"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

//go:embed messages.yaml
var messagesYAML []byte

const (
	KeySuccess = "success"
	KeyUnknown = "unknown"
)

type entry struct {
	En   string `yaml:"en"`
	Ko   string `yaml:"ko"`
	Code int    `yaml:"code"`
}

type Catalog struct {
	uni     *ut.UniversalTranslator
	matcher language.Matcher
	codes   map[string]int
}

// Ko first: it is the default when nothing in Accept-Language matches
var supported = []language.Tag{language.Korean, language.English}

func Load() (*Catalog, error) {
	return parse(messagesYAML)
}

func parse(content []byte) (*Catalog, error) {
	var entries map[string]entry
	if err := yaml.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}

	if _, ok := entries[KeyUnknown]; !ok {
		return nil, fmt.Errorf("message catalog is missing %q", KeyUnknown)
	}

	koLocale := ko.New()
	uni := ut.New(koLocale, koLocale, en.New())

	koTrans, _ := uni.GetTranslator("ko")
	enTrans, _ := uni.GetTranslator("en")

	c := &Catalog{
		uni:     uni,
		matcher: language.NewMatcher(supported),
		codes:   make(map[string]int, len(entries)),
	}

	for key, e := range entries {
		if e.En == "" || e.Ko == "" {
			return nil, fmt.Errorf("message %q is missing a translation", key)
		}

		if err := enTrans.Add(key, e.En, false); err != nil {
			return nil, fmt.Errorf("failed to add en message %q: %w", key, err)
		}
		if err := koTrans.Add(key, e.Ko, false); err != nil {
			return nil, fmt.Errorf("failed to add ko message %q: %w", key, err)
		}

		c.codes[key] = e.Code
	}

	return c, nil
}

// Picks the translator for an Accept-Language header value
func (c *Catalog) Translator(acceptLanguage string) ut.Translator {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	tag, _, _ := c.matcher.Match(tags...)
	base, _ := tag.Base()

	trans, found := c.uni.GetTranslator(base.String())
	if !found {
		return c.uni.GetFallback()
	}

	return trans
}

// Code and localized message for key. Unknown keys resolve to the unknown message.
func (c *Catalog) Message(trans ut.Translator, key string) (int, string) {
	code, ok := c.codes[key]
	if !ok {
		key = KeyUnknown
		code = c.codes[KeyUnknown]
	}

	msg, err := trans.T(key)
	if err != nil {
		msg, _ = c.uni.GetFallback().T(key)
	}

	return code, msg
}

func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.codes))
	for k := range c.codes {
		keys = append(keys, k)
	}

	return keys
}
