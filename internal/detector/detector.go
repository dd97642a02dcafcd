// Package detector identifies the language of a sentence.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector restricted to languages, given by English name or
// ISO 639-1 code. Fewer than two known languages fall back to every
// language lingua supports, which is slower to build.
func New(languages ...string) *Detector {
	var langs []lingua.Language
	for _, name := range languages {
		if l, ok := Resolve(name); ok {
			langs = append(langs, l)
		}
	}

	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(langs) >= 2 {
		detector = builder.FromLanguages(langs...).Build()
	} else {
		detector = builder.FromAllLanguages().Build()
	}
	return &Detector{detector: detector}
}

// Resolve maps an English language name or ISO 639-1 code to a lingua
// language.
func Resolve(name string) (lingua.Language, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return lingua.Unknown, false
	}
	for _, l := range lingua.AllLanguages() {
		if strings.EqualFold(l.String(), name) || strings.EqualFold(l.IsoCode639_1().String(), name) {
			return l, true
		}
	}
	return lingua.Unknown, false
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lowercase ISO 639-1 code of text.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
