// Package record holds the per-sentence translation state of an open
// document: current text, approval flag and owning page.
package record

import (
	"sort"
	"sync"
)

// Translation is a snapshot of one sentence's translation state. Its version
// history lives in the ledger under the same SentenceID.
type Translation struct {
	SentenceID string
	Page       int
	Text       string
	Approved   bool
}

// View is the read side of a Store, used by the projection.
type View interface {
	Get(id string) (Translation, bool)
	Revision() uint64
}

// Store is an in-memory map of translations shared by every page of a
// document. Each mutation advances Revision.
type Store struct {
	mu       sync.RWMutex
	items    map[string]*Translation
	revision uint64
}

func New() *Store {
	return &Store{items: make(map[string]*Translation)}
}

// Get returns the translation of id.
func (s *Store) Get(id string) (Translation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok {
		return Translation{}, false
	}
	return *t, true
}

// Has reports whether id has a translation.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Put sets the current text of id, creating the entry if needed. The
// approval flag of an existing entry is left as is.
func (s *Store) Put(id string, page int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.items[id]; ok {
		t.Text = text
		t.Page = page
	} else {
		s.items[id] = &Translation{SentenceID: id, Page: page, Text: text}
	}
	s.revision++
}

// SetText replaces the current text of an existing entry.
func (s *Store) SetText(id, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return false
	}
	t.Text = text
	s.revision++
	return true
}

// SetApproved updates the approval flag of an existing entry and reports
// whether the flag changed.
func (s *Store) SetApproved(id string, approved bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok || t.Approved == approved {
		return false
	}
	t.Approved = approved
	s.revision++
	return true
}

// Revision is a counter advanced by every mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Len returns the number of translated sentences.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ForPage returns the translations owned by page, ordered by sentence id.
func (s *Store) ForPage(page int) []Translation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Translation
	for _, t := range s.items {
		if t.Page == page {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentenceID < out[j].SentenceID })
	return out
}

// Progress counts translated and approved sentences.
type Progress struct {
	Translated int
	Approved   int
}

func (s *Store) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := Progress{Translated: len(s.items)}
	for _, t := range s.items {
		if t.Approved {
			p.Approved++
		}
	}
	return p
}
