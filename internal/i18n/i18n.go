// Package i18n provides the localized message catalog for en-US and de-DE.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var (
	enUS = language.MustParse("en-US")
	deDE = language.MustParse("de-DE")

	// supported is ordered by preference; the first entry is the fallback.
	supported = []language.Tag{enUS, deDE}
	matcher   = language.NewMatcher(supported)
)

// Localizer resolves message keys in one language.
type Localizer struct {
	tag      language.Tag
	messages map[string]string
}

// New returns the localizer that best matches lang, e.g. "de-DE", "de" or
// "de-AT". Unknown or empty languages get en-US.
func New(lang string) *Localizer {
	tag, err := language.Parse(lang)
	if err != nil {
		return forTag(enUS)
	}
	return match(tag)
}

// FromAcceptLanguage picks the best localizer for an Accept-Language header.
func FromAcceptLanguage(header string) *Localizer {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return forTag(enUS)
	}
	return match(tags...)
}

func match(tags ...language.Tag) *Localizer {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return forTag(enUS)
	}
	return forTag(supported[idx])
}

func forTag(tag language.Tag) *Localizer {
	return &Localizer{tag: tag, messages: catalog[tag.String()]}
}

// Language returns the BCP 47 tag of the localizer, e.g. "de-DE".
func (l *Localizer) Language() string {
	return l.tag.String()
}

// T returns the message for key with {name} placeholders replaced from
// args, given as alternating name/value pairs. Keys missing in the
// localizer's language fall back to en-US, then to the key itself.
func (l *Localizer) T(key string, args ...string) string {
	msg, ok := l.messages[key]
	if !ok {
		msg, ok = catalog[enUS.String()][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Has reports whether key exists in the catalog.
func Has(key string) bool {
	_, ok := catalog[enUS.String()][key]
	return ok
}
