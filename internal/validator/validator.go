// Package validator rejects machine translations that come back in the
// wrong language, most often the source sentence echoed unchanged.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/detector"
	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
)

// minValidationLength is the rune count below which detection is too
// unreliable to act on.
const minValidationLength = 20

// LanguageError reports a translation detected in another language.
type LanguageError struct {
	Expected string
	Detected string
}

func (e *LanguageError) Error() string {
	return fmt.Sprintf("expected %s but detected %s", e.Expected, e.Detected)
}

// Validator checks that text is written in the target language. The
// detector is expensive to build; reuse the instance.
type Validator struct {
	det    *detector.Detector
	target string
}

// New creates a Validator for translations from sourceLang into
// targetLang. Both are English names or ISO 639-1 codes.
func New(sourceLang, targetLang string) *Validator {
	target := strings.ToLower(targetLang)
	if l, ok := detector.Resolve(targetLang); ok {
		target = strings.ToLower(l.IsoCode639_1().String())
	}
	return &Validator{
		det:    detector.New(sourceLang, targetLang),
		target: target,
	}
}

// Check returns a *LanguageError when text is confidently detected in a
// language other than the target. Short and ambiguous texts pass.
func (v *Validator) Check(text string) error {
	if v.target == "" {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}
	if !strings.EqualFold(detected, v.target) {
		return &LanguageError{Expected: v.target, Detected: detected}
	}
	return nil
}

// Translator checks every result of the wrapped translator.
type Translator struct {
	next lifecycle.Translator
	v    *Validator
	log  zerolog.Logger
}

func (v *Validator) Wrap(next lifecycle.Translator) *Translator {
	return &Translator{next: next, v: v, log: logging.Component("validator")}
}

// Translate implements lifecycle.Translator.
func (t *Translator) Translate(ctx context.Context, text, model string) (string, error) {
	out, err := t.next.Translate(ctx, text, model)
	if err != nil {
		return "", err
	}
	if err := t.v.Check(out); err != nil {
		t.log.Warn().Ctx(ctx).Err(err).Str("model", model).Msg("translation rejected")
		return "", err
	}
	return out, nil
}
