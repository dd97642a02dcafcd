package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrPageOutOfRange is returned when navigating past either end.
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrNoAffordance is returned when no translate affordance is shown.
	ErrNoAffordance = errors.New("no translate affordance")
	// ErrNoAssistant is returned by Explain and Improve when the session
	// has no assistant.
	ErrNoAssistant = errors.New("assistant not configured")
)

// LoadError reports a book that could not be opened. No session exists
// after it.
type LoadError struct {
	BookID int64
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load book %d: %v", e.BookID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
