// Package hover coordinates the single active sentence highlighted across
// the original and translated panes.
//
// Pointer leave events do not clear the highlight immediately. Leave/enter
// pairs fire in quick succession when the pointer crosses inline markup
// inside one sentence, so a clear is scheduled after a short debounce and
// cancelled by any later enter, by the translate affordance being hovered,
// or by the sentence being busy with a translate call.
package hover

import (
	"sort"
	"sync"
	"time"
)

// DefaultDebounce is the delay before a scheduled clear takes effect.
const DefaultDebounce = 25 * time.Millisecond

// AffordanceOffsetX is the horizontal gap between a sentence and its
// translate affordance.
const AffordanceOffsetX = 10

// Pane identifies which side of the dual view an event came from.
type Pane int

const (
	OriginalPane Pane = iota
	TranslatedPane
)

func (p Pane) String() string {
	if p == TranslatedPane {
		return "translated"
	}
	return "original"
}

// Rect is the viewport box of a hovered fragment.
type Rect struct {
	Top, Right, Bottom, Left float64
}

// Point is a viewport position.
type Point struct {
	X, Y float64
}

// Affordance is the transient translate control shown next to an
// untranslated sentence.
type Affordance struct {
	SentenceID string
	Position   Point
}

// Snapshot is the externally visible hover state.
type Snapshot struct {
	Active      string
	Highlighted []string
	Affordance  *Affordance
}

// Config configures a Synchronizer.
type Config struct {
	Debounce  time.Duration
	Scheduler Scheduler
	// HasTranslation reports whether a sentence already has a translation,
	// which suppresses the affordance.
	HasTranslation func(id string) bool
	// OnChange is called after every visible change, outside the
	// synchronizer's lock.
	OnChange func(Snapshot)
}

// Synchronizer tracks one active sentence and the per-sentence hover state
// machine. It is safe for concurrent use.
type Synchronizer struct {
	mu  sync.Mutex
	cfg Config

	states            map[string]State
	active            string
	affordance        *Affordance
	affordanceHovered bool

	pending Timer
	gen     uint64
}

func New(cfg Config) *Synchronizer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler{}
	}
	if cfg.HasTranslation == nil {
		cfg.HasTranslation = func(string) bool { return false }
	}
	return &Synchronizer{
		cfg:    cfg,
		states: make(map[string]State),
	}
}

// Enter handles the pointer entering sentence id in pane. rect is the
// fragment's box, used to place the affordance.
func (s *Synchronizer) Enter(id string, pane Pane, rect Rect) {
	s.mu.Lock()
	s.cancelPendingLocked()

	if id == s.active {
		s.mu.Unlock()
		return
	}
	if s.active != "" {
		s.applyLocked(s.active, EventBlur)
	}
	s.applyLocked(id, EventEnter)
	s.active = id

	s.affordance = nil
	if pane == OriginalPane && !s.cfg.HasTranslation(id) {
		s.affordance = &Affordance{
			SentenceID: id,
			Position:   Point{X: rect.Right + AffordanceOffsetX, Y: rect.Top},
		}
	}
	s.notifyUnlock()
}

// Leave handles the pointer leaving sentence id. The clear is debounced.
func (s *Synchronizer) Leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.active {
		return
	}
	s.scheduleClearLocked()
}

// AffordanceEnter marks the affordance as hovered, which holds the
// highlight.
func (s *Synchronizer) AffordanceEnter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked()
	s.affordanceHovered = true
}

// AffordanceLeave releases the affordance and schedules a clear.
func (s *Synchronizer) AffordanceLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.affordanceHovered = false
	if s.active != "" {
		s.scheduleClearLocked()
	}
}

// MarkBusy records that a translate call for id was dispatched.
func (s *Synchronizer) MarkBusy(id string) {
	s.mu.Lock()
	s.applyLocked(id, EventDispatch)
	s.notifyUnlock()
}

// ClearBusy records that the translate call for id resolved. If id is
// still active a debounced clear is scheduled.
func (s *Synchronizer) ClearBusy(id string) {
	s.mu.Lock()
	s.applyLocked(id, EventResolve)
	if s.affordance != nil && s.affordance.SentenceID == id && s.cfg.HasTranslation(id) {
		s.affordance = nil
		s.affordanceHovered = false
	}
	if s.active == id {
		s.scheduleClearLocked()
	}
	s.notifyUnlock()
}

// Reset drops the active sentence and affordance at once, for page
// navigation. Busy sentences stay busy.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.cancelPendingLocked()
	if s.active != "" {
		s.applyLocked(s.active, EventBlur)
	}
	s.active = ""
	s.affordance = nil
	s.affordanceHovered = false
	s.notifyUnlock()
}

// RefreshAffordance re-evaluates the affordance after a translation state
// change for id.
func (s *Synchronizer) RefreshAffordance(id string) {
	s.mu.Lock()
	if s.affordance == nil || s.affordance.SentenceID != id || !s.cfg.HasTranslation(id) {
		s.mu.Unlock()
		return
	}
	s.affordance = nil
	s.affordanceHovered = false
	s.notifyUnlock()
}

// Active returns the active sentence id, or "".
func (s *Synchronizer) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// State returns the hover state of id.
func (s *Synchronizer) State(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id]
}

// IsBusy reports whether id has a translate call in flight.
func (s *Synchronizer) IsBusy(id string) bool {
	return s.State(id).Busy()
}

// Snapshot returns the current visible state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	snap := Snapshot{Active: s.active}
	for id, st := range s.states {
		if st.Highlighted() {
			snap.Highlighted = append(snap.Highlighted, id)
		}
	}
	sort.Strings(snap.Highlighted)
	if s.affordance != nil {
		a := *s.affordance
		snap.Affordance = &a
	}
	return snap
}

func (s *Synchronizer) applyLocked(id string, e Event) {
	next := Next(s.states[id], e)
	if next == Idle {
		delete(s.states, id)
		return
	}
	s.states[id] = next
}

func (s *Synchronizer) scheduleClearLocked() {
	s.cancelPendingLocked()
	gen := s.gen
	s.pending = s.cfg.Scheduler.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
}

func (s *Synchronizer) cancelPendingLocked() {
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// fire runs a scheduled clear unless it was superseded after the timer
// started.
func (s *Synchronizer) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.pending = nil

	if s.active == "" || s.affordanceHovered || s.states[s.active].Busy() {
		s.mu.Unlock()
		return
	}
	s.applyLocked(s.active, EventClear)
	s.active = ""
	s.affordance = nil
	s.notifyUnlock()
}

// notifyUnlock releases the lock and reports the new snapshot.
func (s *Synchronizer) notifyUnlock() {
	snap := s.snapshotLocked()
	fn := s.cfg.OnChange
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
