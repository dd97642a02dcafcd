package translator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// knownLanguages are matched by English name when a language is not given
// as a tag.
var knownLanguages = []language.Tag{
	language.English, language.Kazakh, language.Russian, language.Ukrainian,
	language.German, language.French, language.Spanish, language.Italian,
	language.Portuguese, language.Polish, language.Turkish, language.Chinese,
	language.Japanese, language.Korean, language.Arabic, language.Uzbek,
	language.Kirghiz,
}

// LanguageTag resolves a BCP 47 tag or an English language name.
func LanguageTag(name string) (language.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return language.Und, fmt.Errorf("empty language")
	}
	if tag, err := language.Parse(name); err == nil {
		return tag, nil
	}
	namer := display.English.Languages()
	for _, tag := range knownLanguages {
		if strings.EqualFold(namer.Name(tag), name) {
			return tag, nil
		}
	}
	return language.Und, fmt.Errorf("unknown language %q", name)
}

// LanguageName returns the English name of a tag or name, for prompts.
func LanguageName(name string) string {
	tag, err := LanguageTag(name)
	if err != nil {
		return name
	}
	if n := display.English.Languages().Name(tag); n != "" {
		return n
	}
	return name
}
