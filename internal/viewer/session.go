// Package viewer joins the engine packages into one open-book session:
// loading, page navigation, pointer input, the sentence editor and the
// lifecycle operations, with both panes re-projected after every change.
package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/assist"
	"github.com/valpere/bitext/internal/backend"
	"github.com/valpere/bitext/internal/document"
	"github.com/valpere/bitext/internal/hover"
	"github.com/valpere/bitext/internal/ledger"
	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
	"github.com/valpere/bitext/internal/projection"
	"github.com/valpere/bitext/internal/record"
)

// Source loads a book, from the book service or the local mirror.
type Source interface {
	GetBook(ctx context.Context, id int64) (*backend.Book, error)
}

// Options configures a Session.
type Options struct {
	// Model tags translate and save calls.
	Model     string
	Debounce  time.Duration
	Scheduler hover.Scheduler
	// CacheSize bounds the projection cache; zero disables it.
	CacheSize int
	Assistant *assist.Assistant
	// OnChange receives the current view after every visible change. It
	// must not call back into the session's lifecycle operations.
	OnChange func(View)
}

// Editor is the open sentence editor.
type Editor struct {
	SentenceID string
	Draft      string
}

// View is everything a surface needs to draw the current page.
type View struct {
	Page     int
	NumPages int
	Panes    projection.Panes
	Hover    hover.Snapshot
	Editor   *Editor
}

// HistoryEntry is one version in the timeline of a sentence.
type HistoryEntry struct {
	ledger.Entry
	Restorable bool
}

// Progress counts translated and approved sentences of the book.
type Progress struct {
	record.Progress
	Total int
}

// Session is one open book. It is safe for concurrent use.
type Session struct {
	ctrl      *lifecycle.Controller
	scope     *lifecycle.Scope
	hover     *hover.Synchronizer
	proj      *projection.Projector
	assistant *assist.Assistant
	report    LoadReport
	onChange  func(View)
	log       zerolog.Logger

	mu     sync.Mutex
	model  string
	page   int
	editor *Editor
}

// Open loads book id from src and starts a session on its first page.
func Open(ctx context.Context, src Source, ctrl *lifecycle.Controller, id int64, opts Options) (*Session, error) {
	log := logging.Component("viewer")

	b, err := src.GetBook(logging.WithBookID(ctx, id), id)
	if err != nil {
		return nil, &LoadError{BookID: id, Err: err}
	}
	doc, err := document.New(id, b.Title, b.Pages)
	if err != nil {
		return nil, &LoadError{BookID: id, Err: err}
	}
	proj, err := projection.New(opts.CacheSize)
	if err != nil {
		return nil, &LoadError{BookID: id, Err: err}
	}

	store := record.New()
	l := ledger.New()
	report := hydrate(b, doc, store, l, log.With().Int64("book_id", id).Logger())

	s := &Session{
		ctrl:      ctrl,
		scope:     lifecycle.NewScope(doc, store, l),
		proj:      proj,
		assistant: opts.Assistant,
		report:    report,
		onChange:  opts.OnChange,
		log:       log,
		model:     opts.Model,
	}
	s.hover = hover.New(hover.Config{
		Debounce:       opts.Debounce,
		Scheduler:      opts.Scheduler,
		HasTranslation: store.Has,
		OnChange:       func(hover.Snapshot) { s.emit() },
	})
	s.scope.SetObserver(observer{s})

	log.Info().
		Int64("book_id", id).
		Int("pages", doc.NumPages()).
		Int("sentences", doc.SentenceCount()).
		Int("applied", report.Applied).
		Int("skipped", report.Skipped).
		Msg("book opened")
	return s, nil
}

// observer keeps hover and the panes in step with lifecycle changes.
type observer struct{ s *Session }

func (o observer) Dispatched(id string) { o.s.hover.MarkBusy(id) }
func (o observer) Resolved(id string)   { o.s.hover.ClearBusy(id) }

func (o observer) Mutated(id string) {
	o.s.syncDraft(id)
	o.s.hover.RefreshAffordance(id)
	o.s.emit()
}

func (s *Session) Document() *document.Document { return s.scope.Document() }
func (s *Session) Scope() *lifecycle.Scope        { return s.scope }
func (s *Session) Report() LoadReport             { return s.report }

// Model returns the model tag used for translate and save.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Page returns the current 0-based page index.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// GoTo moves to page. Hover and the editor are reset, and translations in
// flight are invalidated so their results are discarded.
func (s *Session) GoTo(page int) error {
	if page < 0 || page >= s.scope.Document().NumPages() {
		return fmt.Errorf("go to page %d of %d: %w", page+1, s.scope.Document().NumPages(), ErrPageOutOfRange)
	}

	s.mu.Lock()
	s.page = page
	closed := s.editor
	s.editor = nil
	s.mu.Unlock()

	if closed != nil {
		s.scope.Invalidate(closed.SentenceID)
	}
	if ids := s.scope.InvalidateBusy(); len(ids) > 0 {
		s.log.Debug().Strs("sentence_ids", ids).Msg("in-flight translations invalidated")
	}
	s.hover.Reset()
	return nil
}

// PointerEnter forwards a pointer entering sentence id.
func (s *Session) PointerEnter(id string, pane hover.Pane, rect hover.Rect) {
	s.hover.Enter(id, pane, rect)
}

// PointerLeave forwards a pointer leaving sentence id.
func (s *Session) PointerLeave(id string) { s.hover.Leave(id) }

func (s *Session) AffordanceEnter() { s.hover.AffordanceEnter() }
func (s *Session) AffordanceLeave() { s.hover.AffordanceLeave() }

// Click opens the editor on id with its current text as the draft. Only
// translated sentences open; the result reports whether one did.
func (s *Session) Click(id string) (Editor, bool) {
	t, ok := s.scope.Store().Get(id)
	if !ok {
		return Editor{}, false
	}

	s.mu.Lock()
	prev := s.editor
	s.editor = &Editor{SentenceID: id, Draft: t.Text}
	ed := *s.editor
	s.mu.Unlock()

	if prev != nil && prev.SentenceID != id {
		s.scope.Invalidate(prev.SentenceID)
	}
	s.emit()
	return ed, true
}

// Editor returns the open editor, if any.
func (s *Session) Editor() (Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return Editor{}, false
	}
	return *s.editor, true
}

// SetDraft replaces the editor draft.
func (s *Session) SetDraft(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return false
	}
	s.editor.Draft = text
	return true
}

// CloseEditor closes the editor and invalidates translations in flight for
// its sentence.
func (s *Session) CloseEditor() {
	s.mu.Lock()
	closed := s.editor
	s.editor = nil
	s.mu.Unlock()

	if closed == nil {
		return
	}
	s.scope.Invalidate(closed.SentenceID)
	s.emit()
}

// syncDraft points an open editor on id at its new current text.
func (s *Session) syncDraft(id string) {
	t, ok := s.scope.Store().Get(id)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil && s.editor.SentenceID == id {
		s.editor.Draft = t.Text
	}
}

// Translate translates sentence id from its original text.
func (s *Session) Translate(ctx context.Context, id string) (string, error) {
	return s.ctrl.Translate(logging.WithBookID(ctx, s.scope.BookID), s.scope, id, "", s.Model())
}

// TranslateAffordance translates the sentence whose affordance is shown.
func (s *Session) TranslateAffordance(ctx context.Context) (string, error) {
	snap := s.hover.Snapshot()
	if snap.Affordance == nil {
		return "", ErrNoAffordance
	}
	return s.Translate(ctx, snap.Affordance.SentenceID)
}

// Save records text as a new version of id.
func (s *Session) Save(ctx context.Context, id, text string) error {
	return s.ctrl.Save(ctx, s.scope, id, text, s.Model())
}

// SaveDraft saves the editor draft.
func (s *Session) SaveDraft(ctx context.Context) error {
	ed, ok := s.Editor()
	if !ok {
		return fmt.Errorf("save draft: no open editor")
	}
	return s.Save(ctx, ed.SentenceID, ed.Draft)
}

func (s *Session) Approve(ctx context.Context, id string) error {
	return s.ctrl.Approve(ctx, s.scope, id)
}

func (s *Session) Restore(id string, index int) error {
	return s.ctrl.Restore(s.scope, id, index)
}

// State returns the lifecycle state of id.
func (s *Session) State(id string) lifecycle.State {
	return s.ctrl.StateOf(s.scope, id)
}

// Explain asks the assistant about the translation of id. An editor open
// on id contributes its draft instead of the saved text.
func (s *Session) Explain(ctx context.Context, id string) (string, error) {
	if s.assistant == nil {
		return "", ErrNoAssistant
	}
	original, current, err := s.texts(id)
	if err != nil {
		return "", err
	}
	return s.assistant.Explain(ctx, original, current, s.Model())
}

// Improve asks the assistant for improved variants of the translation of id.
func (s *Session) Improve(ctx context.Context, id, instruction string) ([]string, error) {
	if s.assistant == nil {
		return nil, ErrNoAssistant
	}
	original, current, err := s.texts(id)
	if err != nil {
		return nil, err
	}
	return s.assistant.Improve(ctx, original, current, instruction, s.Model())
}

// ApplyCandidate saves an improvement candidate as a new version.
func (s *Session) ApplyCandidate(ctx context.Context, id, candidate string) error {
	return s.Save(ctx, id, candidate)
}

func (s *Session) texts(id string) (original, current string, err error) {
	sent, ok := s.scope.Document().Lookup(id)
	if !ok {
		return "", "", fmt.Errorf("%s: %w", id, lifecycle.ErrUnknownSentence)
	}
	t, ok := s.scope.Store().Get(id)
	if !ok {
		return "", "", fmt.Errorf("%s: %w", id, lifecycle.ErrNotTranslated)
	}
	current = t.Text
	if ed, ok := s.Editor(); ok && ed.SentenceID == id {
		current = ed.Draft
	}
	return sent.Text, current, nil
}

// History returns the version timeline of id, oldest first.
func (s *Session) History(id string) []HistoryEntry {
	timeline := s.scope.Ledger().Timeline(id)
	out := make([]HistoryEntry, len(timeline))
	for i, e := range timeline {
		out[i] = HistoryEntry{Entry: e, Restorable: !e.Latest}
	}
	return out
}

// Progress counts translated and approved sentences across the book.
func (s *Session) Progress() Progress {
	return Progress{
		Progress: s.scope.Store().Progress(),
		Total:    s.scope.Document().SentenceCount(),
	}
}

// Render projects the current page.
func (s *Session) Render() (View, error) {
	s.mu.Lock()
	page := s.page
	var ed *Editor
	if s.editor != nil {
		e := *s.editor
		ed = &e
	}
	s.mu.Unlock()

	doc := s.scope.Document()
	p, err := doc.Page(page)
	if err != nil {
		return View{}, err
	}
	snap := s.hover.Snapshot()
	panes, err := s.proj.Project(p, s.scope.Store(), snap.Highlighted)
	if err != nil {
		return View{}, err
	}
	return View{
		Page:     page,
		NumPages: doc.NumPages(),
		Panes:    panes,
		Hover:    snap,
		Editor:   ed,
	}, nil
}

func (s *Session) emit() {
	if s.onChange == nil {
		return
	}
	v, err := s.Render()
	if err != nil {
		s.log.Error().Err(err).Msg("render failed")
		return
	}
	s.onChange(v)
}
