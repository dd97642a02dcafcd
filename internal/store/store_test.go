package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/bitext/internal/backend"
	"github.com/valpere/bitext/internal/document"
	"github.com/valpere/bitext/internal/ledger"
	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/record"
)

const (
	page1 = `<p><span data-sentence-id="s1">The cat sat.</span> <span data-sentence-id="s2">It purred.</span></p>`
	page2 = `<p><span data-sentence-id="s3">Night fell.</span></p>`
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var n int
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s
}

func fixtureBook() *backend.Book {
	return &backend.Book{
		ID:    5,
		Title: "Alice",
		Pages: []string{page1, page2},
		Translations: map[string]backend.Translation{
			"s1": {Page: 0, Text: "Мысық отырды.", Approved: true},
		},
		Versions: map[string][]ledger.Version{
			"s1": {
				{Text: "Мысық отырды.", Timestamp: time.UnixMilli(1700000000000).UTC(), Model: "kazllm"},
			},
		},
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_ImportAndGetBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ImportBook(ctx, fixtureBook(), "2024-05-01"); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}

	b, err := s.GetBook(ctx, 5)
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if b.Title != "Alice" || len(b.Pages) != 2 {
		t.Fatalf("book = %q with %d pages", b.Title, len(b.Pages))
	}
	if b.Pages[1] != page2 {
		t.Errorf("pages out of order: %q", b.Pages[1])
	}

	tr := b.Translations["s1"]
	if tr.Text != "Мысық отырды." || !tr.Approved || tr.Page != 0 {
		t.Errorf("translation = %+v", tr)
	}

	vs := b.Versions["s1"]
	if len(vs) != 1 {
		t.Fatalf("expected 1 version, got %d", len(vs))
	}
	if !vs[0].Timestamp.Equal(time.UnixMilli(1700000000000)) || vs[0].Model != "kazllm" {
		t.Errorf("version = %+v", vs[0])
	}
}

func TestStore_ImportReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ImportBook(ctx, fixtureBook(), ""); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}
	b := fixtureBook()
	b.Title = "Alice (revised)"
	b.Translations = nil
	b.Versions = nil
	if err := s.ImportBook(ctx, b, ""); err != nil {
		t.Fatalf("second ImportBook failed: %v", err)
	}

	got, err := s.GetBook(ctx, 5)
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if got.Title != "Alice (revised)" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Translations) != 0 || len(got.Versions) != 0 {
		t.Errorf("expected translations cleared, got %d/%d", len(got.Translations), len(got.Versions))
	}
}

func TestStore_GetBook_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBook(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SaveTranslation_AppendsVersions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.ImportBook(ctx, fixtureBook(), ""); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}

	for i, text := range []string{"Ол мырылдады.", "Ол пырылдады."} {
		err := s.SaveTranslation(ctx, lifecycle.SaveRequest{
			BookID:       5,
			PageNumber:   1,
			SentenceID:   "s2",
			OriginalText: "It purred.",
			Translation:  text,
			Model:        "claude",
			Edited:       i == 1,
		})
		if err != nil {
			t.Fatalf("SaveTranslation failed: %v", err)
		}
	}

	b, err := s.GetBook(ctx, 5)
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if got := b.Translations["s2"]; got.Text != "Ол пырылдады." || got.Approved || got.Page != 0 {
		t.Errorf("translation = %+v", got)
	}
	vs := b.Versions["s2"]
	if len(vs) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(vs))
	}
	if vs[0].Text != "Ол мырылдады." || vs[1].Text != "Ол пырылдады." {
		t.Errorf("versions out of order: %+v", vs)
	}
	if vs[0].Edited || !vs[1].Edited {
		t.Errorf("edited flags = %v, %v", vs[0].Edited, vs[1].Edited)
	}
	if !vs[0].Timestamp.Before(vs[1].Timestamp) {
		t.Errorf("expected increasing timestamps: %v, %v", vs[0].Timestamp, vs[1].Timestamp)
	}
}

func TestStore_SaveKeepsApproval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.ImportBook(ctx, fixtureBook(), ""); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}

	if err := s.SaveTranslation(ctx, lifecycle.SaveRequest{BookID: 5, PageNumber: 1, SentenceID: "s1", Translation: "Мысық жатты."}); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	b, _ := s.GetBook(ctx, 5)
	if !b.Translations["s1"].Approved {
		t.Error("save should not clear approval")
	}
	if len(b.Versions["s1"]) != 2 {
		t.Errorf("expected 2 versions, got %d", len(b.Versions["s1"]))
	}
}

func TestStore_Approve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.ImportBook(ctx, fixtureBook(), ""); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}
	if err := s.SaveTranslation(ctx, lifecycle.SaveRequest{BookID: 5, PageNumber: 2, SentenceID: "s3", Translation: "Түн түсті."}); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	if err := s.Approve(ctx, 5, "s3"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	b, _ := s.GetBook(ctx, 5)
	if tr := b.Translations["s3"]; !tr.Approved || tr.Page != 1 {
		t.Errorf("translation = %+v", tr)
	}

	if err := s.Approve(ctx, 5, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_MirrorsTranslateThenApprove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.ImportBook(ctx, &backend.Book{ID: 5, Title: "Alice", Pages: []string{page1, page2}}, ""); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}
	doc, err := document.New(5, "Alice", []string{page1, page2})
	if err != nil {
		t.Fatalf("document.New failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		sc := lifecycle.NewScope(doc, record.New(), ledger.New())
		ctrl := lifecycle.New(translatorFunc(func(context.Context, string, string) (string, error) {
			return "Түн түсті.", nil
		}), s, lifecycle.Options{Model: "kazllm"})

		if _, err := ctrl.Translate(ctx, sc, "s3", "", ""); err != nil {
			t.Fatalf("Translate failed: %v", err)
		}
		if err := ctrl.Approve(ctx, sc, "s3"); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
		ctrl.Flush()

		b, err := s.GetBook(ctx, 5)
		if err != nil {
			t.Fatalf("GetBook failed: %v", err)
		}
		if !b.Translations["s3"].Approved {
			t.Fatalf("run %d: approval not mirrored", i)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE book_id = 5`); err != nil {
			t.Fatalf("reset failed: %v", err)
		}
	}
}

type translatorFunc func(ctx context.Context, text, model string) (string, error)

func (f translatorFunc) Translate(ctx context.Context, text, model string) (string, error) {
	return f(ctx, text, model)
}

func TestStore_ListBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.ImportBook(ctx, fixtureBook(), "2024-05-01"); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(books))
	}
	want := backend.BookSummary{
		ID:                  5,
		Title:               "Alice",
		TotalPages:          2,
		TotalSentences:      3,
		TranslatedSentences: 1,
		UploadedAt:          "2024-05-01",
	}
	if books[0] != want {
		t.Errorf("ListBooks()[0] = %+v, want %+v", books[0], want)
	}
}

func TestStore_DeleteBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.ImportBook(ctx, fixtureBook(), ""); err != nil {
		t.Fatalf("ImportBook failed: %v", err)
	}

	if err := s.DeleteBook(ctx, 5); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}
	if _, err := s.GetBook(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteBook(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestStore_ImportBook_NoPages(t *testing.T) {
	s := newTestStore(t)

	if err := s.ImportBook(context.Background(), &backend.Book{ID: 1}, ""); err == nil {
		t.Error("expected error for book without pages")
	}
}
