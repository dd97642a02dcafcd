// Package lifecycle drives a sentence translation from untranslated through
// edits to approval, keeping the record store, version ledger and backend
// mirror consistent.
package lifecycle

import (
	"sync"

	"github.com/valpere/bitext/internal/document"
	"github.com/valpere/bitext/internal/ledger"
	"github.com/valpere/bitext/internal/record"
)

// Observer is told about state changes of a scope. Calls are made while the
// scope's operation lock is held, before the triggering call returns.
// Observers may read the scope but must not start another lifecycle
// operation from inside a callback.
type Observer interface {
	Dispatched(id string)
	Resolved(id string)
	Mutated(id string)
}

// Scope is the state of one open document. Every lifecycle operation takes
// the scope it acts on.
type Scope struct {
	BookID int64

	doc    *document.Document
	store  *record.Store
	ledger *ledger.Ledger

	// op serializes a mutation together with its observer notifications.
	op sync.Mutex

	mu       sync.Mutex
	busy     map[string]struct{}
	epochs   map[string]uint64
	observer Observer
}

// NewScope binds a document to its translation store and version ledger.
func NewScope(doc *document.Document, store *record.Store, l *ledger.Ledger) *Scope {
	return &Scope{
		BookID: doc.ID,
		doc:    doc,
		store:  store,
		ledger: l,
		busy:   make(map[string]struct{}),
		epochs: make(map[string]uint64),
	}
}

func (s *Scope) Document() *document.Document { return s.doc }
func (s *Scope) Store() *record.Store          { return s.store }
func (s *Scope) Ledger() *ledger.Ledger        { return s.ledger }

// SetObserver replaces the observer. A nil observer disables notifications.
func (s *Scope) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

// Busy reports whether a translation for id is in flight.
func (s *Scope) Busy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.busy[id]
	return ok
}

// BusyIDs returns the ids with a translation in flight.
func (s *Scope) BusyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.busy))
	for id := range s.busy {
		ids = append(ids, id)
	}
	return ids
}

// Epoch returns the current epoch of id.
func (s *Scope) Epoch(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[id]
}

// Invalidate advances the epoch of id. A translation dispatched before the
// call is discarded when it resolves.
func (s *Scope) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs[id]++
}

// InvalidateBusy invalidates every id with a translation in flight and
// returns them.
func (s *Scope) InvalidateBusy() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.busy))
	for id := range s.busy {
		s.epochs[id]++
		ids = append(ids, id)
	}
	return ids
}

// acquire marks id busy and returns the epoch captured at dispatch.
func (s *Scope) acquire(id string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[id]; ok {
		return 0, false
	}
	s.busy[id] = struct{}{}
	return s.epochs[id], true
}

// release clears the busy mark and reports whether epoch is still current.
func (s *Scope) release(id string, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, id)
	return s.epochs[id] == epoch
}

func (s *Scope) obs() Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer
}

func (s *Scope) dispatched(id string) {
	if o := s.obs(); o != nil {
		o.Dispatched(id)
	}
}

func (s *Scope) resolved(id string) {
	if o := s.obs(); o != nil {
		o.Resolved(id)
	}
}

func (s *Scope) mutated(id string) {
	if o := s.obs(); o != nil {
		o.Mutated(id)
	}
}
