package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/bitext/internal/ledger"
	"github.com/valpere/bitext/internal/logging"
)

// DefaultPersistTimeout bounds one asynchronous save or approve call.
const DefaultPersistTimeout = 15 * time.Second

// Translator turns source text into a translation using the named model.
type Translator interface {
	Translate(ctx context.Context, text, model string) (string, error)
}

// SaveRequest is one translation mirrored to storage. PageNumber is 1-indexed.
type SaveRequest struct {
	BookID       int64  `json:"book_id"`
	PageNumber   int    `json:"page_number"`
	SentenceID   string `json:"sentence_id"`
	OriginalText string `json:"original_text"`
	Translation  string `json:"translation"`
	Model        string `json:"model"`
	// Edited marks a manual save rather than a service translation.
	Edited bool `json:"edited,omitempty"`
}

// Persister mirrors local lifecycle changes to storage.
type Persister interface {
	SaveTranslation(ctx context.Context, req SaveRequest) error
	Approve(ctx context.Context, bookID int64, sentenceID string) error
}

// State is the lifecycle position of a sentence.
type State int

const (
	Untranslated State = iota
	Translated
	Edited
	Approved
)

func (s State) String() string {
	switch s {
	case Untranslated:
		return "untranslated"
	case Translated:
		return "translated"
	case Edited:
		return "edited"
	case Approved:
		return "approved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Controller.
type Options struct {
	// Model tags translations when the caller passes none.
	Model string
	// PersistTimeout bounds each asynchronous persistence call.
	PersistTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// OnPersistError is called with every *PersistenceError after it is logged.
	OnPersistError func(error)
}

// Controller runs lifecycle operations against a Scope.
type Controller struct {
	translator Translator
	persister  Persister

	model          string
	persistTimeout time.Duration
	now            func() time.Time
	onPersistError func(error)

	log zerolog.Logger
	wg  sync.WaitGroup

	// tails holds the completion channel of the last persistence call
	// queued per sentence; calls for one sentence run in order.
	mu    sync.Mutex
	tails map[string]chan struct{}
}

// New creates a Controller. A nil persister keeps every change local.
func New(t Translator, p Persister, opts Options) *Controller {
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		translator:     t,
		persister:      p,
		model:          opts.Model,
		persistTimeout: opts.PersistTimeout,
		now:            opts.Now,
		onPersistError: opts.OnPersistError,
		log:            logging.Component("lifecycle"),
		tails:          make(map[string]chan struct{}),
	}
}

// Translate requests a translation of id from the service. sourceText
// defaults to the sentence text in the document index. On success the
// result becomes a new version and the current text, and is persisted.
// Failures and stale results leave the scope untouched.
func (c *Controller) Translate(ctx context.Context, sc *Scope, id, sourceText, model string) (string, error) {
	sent, ok := sc.doc.Lookup(id)
	if !ok {
		return "", fmt.Errorf("translate %s: %w", id, ErrUnknownSentence)
	}
	if sourceText == "" {
		sourceText = sent.Text
	}
	if model == "" {
		model = c.model
	}
	ctx = logging.WithSentenceID(logging.WithBookID(ctx, sc.BookID), id)

	sc.op.Lock()
	epoch, ok := sc.acquire(id)
	if !ok {
		sc.op.Unlock()
		return "", fmt.Errorf("translate %s: %w", id, ErrBusy)
	}
	sc.dispatched(id)
	sc.op.Unlock()

	c.log.Debug().Ctx(ctx).Str("model", model).Msg("translation dispatched")
	text, err := c.translator.Translate(ctx, sourceText, model)
	if err == nil {
		text = norm.NFC.String(strings.TrimSpace(text))
		if text == "" {
			err = errors.New("empty translation")
		}
	}

	sc.op.Lock()
	defer sc.op.Unlock()

	current := sc.release(id, epoch)
	if err != nil {
		sc.resolved(id)
		c.log.Debug().Ctx(ctx).Err(err).Msg("translation failed")
		return "", &TranslationServiceError{SentenceID: id, Model: model, Err: err}
	}
	if !current {
		sc.resolved(id)
		c.log.Debug().Ctx(ctx).Msg("translation discarded")
		return "", fmt.Errorf("translate %s: %w", id, ErrStale)
	}

	c.commit(ctx, sc, id, sent.Page, text, model, false)
	sc.resolved(id)
	c.log.Debug().Ctx(ctx).Msg("translation resolved")
	return text, nil
}

// Save records text as a new version of id and makes it current. The
// change is mirrored to storage in the background; a storage failure is
// logged and never rolls the local state back.
func (c *Controller) Save(ctx context.Context, sc *Scope, id, text, model string) error {
	sent, ok := sc.doc.Lookup(id)
	if !ok {
		return fmt.Errorf("save %s: %w", id, ErrUnknownSentence)
	}
	if model == "" {
		model = c.model
	}
	ctx = logging.WithSentenceID(logging.WithBookID(ctx, sc.BookID), id)

	sc.op.Lock()
	defer sc.op.Unlock()
	c.commit(ctx, sc, id, sent.Page, norm.NFC.String(text), model, true)
	return nil
}

// commit appends a version, updates the store and schedules persistence.
// Callers hold sc.op.
func (c *Controller) commit(ctx context.Context, sc *Scope, id string, page int, text, model string, edited bool) {
	sc.ledger.Append(id, ledger.Version{Text: text, Timestamp: c.now(), Model: model, Edited: edited})
	sc.store.Put(id, page, text)
	sc.mutated(id)

	if c.persister == nil {
		return
	}
	sent, _ := sc.doc.Lookup(id)
	req := SaveRequest{
		BookID:       sc.BookID,
		PageNumber:   page + 1,
		SentenceID:   id,
		OriginalText: sent.Text,
		Translation:  text,
		Model:        model,
		Edited:       edited,
	}
	c.persist(ctx, sc.BookID, "save", id, func(ctx context.Context) error {
		return c.persister.SaveTranslation(ctx, req)
	})
}

// Approve marks the current translation of id as approved. Approving an
// approved sentence does nothing.
func (c *Controller) Approve(ctx context.Context, sc *Scope, id string) error {
	ctx = logging.WithSentenceID(logging.WithBookID(ctx, sc.BookID), id)

	sc.op.Lock()
	defer sc.op.Unlock()

	t, ok := sc.store.Get(id)
	if !ok {
		return fmt.Errorf("approve %s: %w", id, ErrNotTranslated)
	}
	if t.Approved {
		return nil
	}
	sc.store.SetApproved(id, true)
	sc.mutated(id)

	if c.persister != nil {
		bookID := sc.BookID
		c.persist(ctx, bookID, "approve", id, func(ctx context.Context) error {
			return c.persister.Approve(ctx, bookID, id)
		})
	}
	return nil
}

// Restore makes version index of id current again and clears approval. It
// records no new version and is not persisted.
func (c *Controller) Restore(sc *Scope, id string, index int) error {
	sc.op.Lock()
	defer sc.op.Unlock()

	n := sc.ledger.Len(id)
	if index < 0 || index >= n {
		return fmt.Errorf("restore %s to %d of %d: %w", id, index, n, ErrVersionOutOfRange)
	}
	v, err := sc.ledger.At(id, index)
	if err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	sc.store.SetText(id, v.Text)
	sc.store.SetApproved(id, false)
	sc.mutated(id)
	return nil
}

// StateOf reports the lifecycle state of id. A sentence is edited while its
// current text is the latest version and that version came from a manual
// save; service translations and restores read as translated.
func (c *Controller) StateOf(sc *Scope, id string) State {
	t, ok := sc.store.Get(id)
	if !ok {
		return Untranslated
	}
	if t.Approved {
		return Approved
	}
	if latest, ok := sc.ledger.Latest(id); ok && latest.Edited && latest.Text == t.Text {
		return Edited
	}
	return Translated
}

// Flush blocks until every background persistence call has finished.
func (c *Controller) Flush() {
	c.wg.Wait()
}

// persist runs fn in the background after every call queued earlier for
// the same sentence has returned. Callers hold sc.op, so queue order is
// commit order.
func (c *Controller) persist(ctx context.Context, bookID int64, op, id string, fn func(context.Context) error) {
	key := fmt.Sprintf("%d/%s", bookID, id)
	done := make(chan struct{})

	c.mu.Lock()
	prev := c.tails[key]
	c.tails[key] = done
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			if c.tails[key] == done {
				delete(c.tails, key)
			}
			c.mu.Unlock()
			close(done)
		}()

		if prev != nil {
			<-prev
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.persistTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			perr := &PersistenceError{Op: op, SentenceID: id, Err: err}
			c.log.Warn().Ctx(ctx).Err(err).Str("op", op).Msg("persistence failed")
			if c.onPersistError != nil {
				c.onPersistError(perr)
			}
		}
	}()
}
