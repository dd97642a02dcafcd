// Package store is the local SQLite mirror of the book service. It serves
// books when running offline, records saves and approvals with their full
// version history, and keeps a translation memory keyed by source text.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/bitext/internal/backend"
	"github.com/valpere/bitext/internal/document"
	"github.com/valpere/bitext/internal/ledger"
	"github.com/valpere/bitext/internal/lifecycle"
)

// ErrNotFound is returned for a book or sentence missing from the mirror.
var ErrNotFound = errors.New("not found")

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps concurrent background saves from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		uploaded_at TEXT NOT NULL DEFAULT '',
		synced_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS pages (
		book_id INTEGER NOT NULL,
		page_index INTEGER NOT NULL,
		markup TEXT NOT NULL,
		sentence_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (book_id, page_index),
		FOREIGN KEY (book_id) REFERENCES books(id)
	);

	CREATE TABLE IF NOT EXISTS translations (
		book_id INTEGER NOT NULL,
		sentence_id TEXT NOT NULL,
		page_index INTEGER NOT NULL,
		original_text TEXT NOT NULL DEFAULT '',
		current_text TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (book_id, sentence_id),
		FOREIGN KEY (book_id) REFERENCES books(id)
	);

	-- versions is append-only; seq orders the history of one sentence
	CREATE TABLE IF NOT EXISTS versions (
		id TEXT PRIMARY KEY,
		book_id INTEGER NOT NULL,
		sentence_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		text TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		edited BOOLEAN NOT NULL DEFAULT FALSE,
		created_at INTEGER NOT NULL DEFAULT 0,
		UNIQUE(book_id, sentence_id, seq)
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		model TEXT NOT NULL,
		final_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		last_used INTEGER NOT NULL DEFAULT 0,
		UNIQUE(source_text, target_lang, model)
	);

	CREATE INDEX IF NOT EXISTS idx_versions_sentence ON versions(book_id, sentence_id, seq);
	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, target_lang, model);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ImportBook replaces the mirrored copy of b: metadata, pages, current
// translations and their version histories.
func (s *Store) ImportBook(ctx context.Context, b *backend.Book, uploadedAt string) error {
	doc, err := document.New(b.ID, b.Title, b.Pages)
	if err != nil {
		return fmt.Errorf("import book %d: %w", b.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO books (id, title, uploaded_at, synced_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, uploaded_at = excluded.uploaded_at, synced_at = excluded.synced_at`,
		b.ID, b.Title, uploadedAt, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}

	for _, table := range []string{"pages", "translations", "versions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE book_id = ?`, b.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range doc.Pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pages (book_id, page_index, markup, sentence_count) VALUES (?, ?, ?, ?)`,
			b.ID, p.Index, p.Markup, len(p.Sentences)); err != nil {
			return fmt.Errorf("insert page %d: %w", p.Index, err)
		}
	}

	for sid, t := range b.Translations {
		var original, model string
		if sent, ok := doc.Lookup(sid); ok {
			original = sent.Text
		}
		versions := b.Versions[sid]
		if n := len(versions); n > 0 {
			model = versions[n-1].Model
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO translations (book_id, sentence_id, page_index, original_text, current_text, model, approved, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, sid, t.Page, original, t.Text, model, t.Approved, s.now().UnixMilli()); err != nil {
			return fmt.Errorf("insert translation %s: %w", sid, err)
		}
		for i, v := range versions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO versions (id, book_id, sentence_id, seq, text, model, edited, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), b.ID, sid, i, v.Text, v.Model, v.Edited, millis(v.Timestamp)); err != nil {
				return fmt.Errorf("insert version %s/%d: %w", sid, i, err)
			}
		}
	}

	return tx.Commit()
}

// GetBook loads a mirrored book in the same shape the book service returns.
func (s *Store) GetBook(ctx context.Context, id int64) (*backend.Book, error) {
	b := &backend.Book{
		ID:           id,
		Translations: make(map[string]backend.Translation),
		Versions:     make(map[string][]ledger.Version),
	}

	err := s.db.QueryRowContext(ctx, `SELECT title FROM books WHERE id = ?`, id).Scan(&b.Title)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT markup FROM pages WHERE book_id = ? ORDER BY page_index`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var markup string
		if err := rows.Scan(&markup); err != nil {
			rows.Close()
			return nil, err
		}
		b.Pages = append(b.Pages, markup)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT sentence_id, page_index, current_text, approved FROM translations WHERE book_id = ?`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var sid string
		var t backend.Translation
		if err := rows.Scan(&sid, &t.Page, &t.Text, &t.Approved); err != nil {
			rows.Close()
			return nil, err
		}
		b.Translations[sid] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT sentence_id, text, model, edited, created_at FROM versions WHERE book_id = ? ORDER BY sentence_id, seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sid string
		var v ledger.Version
		var ms int64
		if err := rows.Scan(&sid, &v.Text, &v.Model, &v.Edited, &ms); err != nil {
			return nil, err
		}
		if ms > 0 {
			v.Timestamp = time.UnixMilli(ms).UTC()
		}
		b.Versions[sid] = append(b.Versions[sid], v)
	}
	return b, rows.Err()
}

// ListBooks returns every mirrored book with its translation progress.
func (s *Store) ListBooks(ctx context.Context) ([]backend.BookSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			b.id, b.title, b.uploaded_at,
			(SELECT COUNT(*) FROM pages p WHERE p.book_id = b.id),
			(SELECT COALESCE(SUM(sentence_count), 0) FROM pages p WHERE p.book_id = b.id),
			(SELECT COUNT(*) FROM translations t WHERE t.book_id = b.id)
		FROM books b
		ORDER BY b.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []backend.BookSummary
	for rows.Next() {
		var bs backend.BookSummary
		if err := rows.Scan(&bs.ID, &bs.Title, &bs.UploadedAt, &bs.TotalPages, &bs.TotalSentences, &bs.TranslatedSentences); err != nil {
			return nil, err
		}
		books = append(books, bs)
	}
	return books, rows.Err()
}

// DeleteBook removes a book and everything recorded for it.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"versions", "translations", "pages"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE book_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// SaveTranslation implements lifecycle.Persister. It updates the current
// translation and appends a version.
func (s *Store) SaveTranslation(ctx context.Context, req lifecycle.SaveRequest) error {
	now := s.now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO translations (book_id, sentence_id, page_index, original_text, current_text, model, approved, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, FALSE, ?)
		 ON CONFLICT(book_id, sentence_id) DO UPDATE SET
			page_index = excluded.page_index,
			original_text = excluded.original_text,
			current_text = excluded.current_text,
			model = excluded.model,
			updated_at = excluded.updated_at`,
		req.BookID, req.SentenceID, req.PageNumber-1, req.OriginalText, req.Translation, req.Model, now); err != nil {
		return fmt.Errorf("upsert translation: %w", err)
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM versions WHERE book_id = ? AND sentence_id = ?`,
		req.BookID, req.SentenceID).Scan(&seq); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO versions (id, book_id, sentence_id, seq, text, model, edited, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), req.BookID, req.SentenceID, seq, req.Translation, req.Model, req.Edited, now); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	return tx.Commit()
}

// Approve implements lifecycle.Persister.
func (s *Store) Approve(ctx context.Context, bookID int64, sentenceID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE translations SET approved = TRUE, updated_at = ? WHERE book_id = ? AND sentence_id = ?`,
		s.now().UnixMilli(), bookID, sentenceID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("translation %s: %w", sentenceID, ErrNotFound)
	}
	return nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent memory key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
