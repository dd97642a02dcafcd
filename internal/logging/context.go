package logging

import "context"

type contextKey string

const (
	bookIDKey     contextKey = "book_id"
	sentenceIDKey contextKey = "sentence_id"
)

// WithBookID adds a book ID to the context.
func WithBookID(ctx context.Context, bookID int64) context.Context {
	return context.WithValue(ctx, bookIDKey, bookID)
}

// WithSentenceID adds a sentence ID to the context.
func WithSentenceID(ctx context.Context, sentenceID string) context.Context {
	return context.WithValue(ctx, sentenceIDKey, sentenceID)
}

// GetBookID retrieves the book ID from the context.
// Returns 0 if not present.
func GetBookID(ctx context.Context) int64 {
	if id, ok := ctx.Value(bookIDKey).(int64); ok {
		return id
	}
	return 0
}

// GetSentenceID retrieves the sentence ID from the context.
// Returns empty string if not present.
func GetSentenceID(ctx context.Context) string {
	if id, ok := ctx.Value(sentenceIDKey).(string); ok {
		return id
	}
	return ""
}
