// Package refiner runs an optional second pass over machine translations,
// asking an LLM editor to polish the draft for style.
package refiner

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
)

// Refiner reviews and improves a draft translation.
type Refiner interface {
	Refine(ctx context.Context, sourceLang, targetLang, sourceText, draftText string) (string, error)
}

// Translator refines every draft of the wrapped translator. A failed
// refinement keeps the draft.
type Translator struct {
	next    lifecycle.Translator
	refiner Refiner
	source  string
	target  string
	log     zerolog.Logger
}

func Wrap(next lifecycle.Translator, r Refiner, sourceLang, targetLang string) *Translator {
	return &Translator{
		next:    next,
		refiner: r,
		source:  sourceLang,
		target:  targetLang,
		log:     logging.Component("refiner"),
	}
}

// Translate implements lifecycle.Translator.
func (t *Translator) Translate(ctx context.Context, text, model string) (string, error) {
	draft, err := t.next.Translate(ctx, text, model)
	if err != nil {
		return "", err
	}
	refined, err := t.refiner.Refine(ctx, t.source, t.target, text, draft)
	if err != nil {
		t.log.Warn().Ctx(ctx).Err(err).Str("model", model).Msg("refinement failed, keeping draft")
		return draft, nil
	}
	return refined, nil
}
