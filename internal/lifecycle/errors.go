package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a translation for the sentence is already in flight.
	ErrBusy = errors.New("translation already in progress")
	// ErrStale is returned when a translation resolves after its sentence was invalidated.
	ErrStale = errors.New("translation result is stale")
	// ErrNotTranslated is returned when approving a sentence that has no translation.
	ErrNotTranslated = errors.New("sentence has no translation")
	// ErrVersionOutOfRange is returned when restoring a version that does not exist.
	ErrVersionOutOfRange = errors.New("version index out of range")
	// ErrUnknownSentence is returned for a sentence id absent from the document index.
	ErrUnknownSentence = errors.New("unknown sentence")
)

// TranslationServiceError wraps a failed call to a translation or chat service.
type TranslationServiceError struct {
	SentenceID string
	Model      string
	Err        error
}

func (e *TranslationServiceError) Error() string {
	if e.SentenceID == "" {
		return fmt.Sprintf("translation service (%s): %v", e.Model, e.Err)
	}
	return fmt.Sprintf("translation service (%s) for %s: %v", e.Model, e.SentenceID, e.Err)
}

func (e *TranslationServiceError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed save or approve call. Local state has
// already been committed when it is reported.
type PersistenceError struct {
	Op         string
	SentenceID string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.SentenceID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
