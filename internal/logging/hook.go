package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts book_id and sentence_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if bookID := GetBookID(ctx); bookID != 0 {
		e.Int64("book_id", bookID)
	}

	if sentenceID := GetSentenceID(ctx); sentenceID != "" {
		e.Str("sentence_id", sentenceID)
	}
}
