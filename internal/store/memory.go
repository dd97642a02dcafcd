package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
)

// GetCachedTranslation returns the remembered translation of sourceText.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, targetLang, model string) (string, bool, error) {
	key := normalizeText(sourceText)

	var finalText string
	err := s.db.QueryRowContext(ctx,
		`SELECT final_text FROM translation_memory WHERE source_text = ? AND target_lang = ? AND model = ?`,
		key, targetLang, model).Scan(&finalText)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND target_lang = ? AND model = ?`,
		s.now().UnixMilli(), key, targetLang, model)
	return finalText, true, err
}

// SaveToMemory remembers a translation, replacing any earlier one.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, targetLang, model, finalText string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_memory (id, source_text, target_lang, model, final_text, usage_count, last_used)
		 VALUES (?, ?, ?, ?, ?, 1, ?)
		 ON CONFLICT(source_text, target_lang, model) DO UPDATE SET final_text = excluded.final_text, last_used = excluded.last_used`,
		uuid.NewString(), normalizeText(sourceText), targetLang, model, finalText, s.now().UnixMilli())
	return err
}

// MemoryEntry is one remembered translation.
type MemoryEntry struct {
	ID         string
	SourceText string
	TargetLang string
	Model      string
	FinalText  string
	UsageCount int
	LastUsed   time.Time
}

// MemoryStats summarizes the translation memory.
type MemoryStats struct {
	TotalEntries int
	TotalUsage   int
}

// ListMemory returns every entry, most recently used first.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, target_lang, model, final_text, usage_count, last_used
		 FROM translation_memory ORDER BY last_used DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		var lastUsed int64
		if err := rows.Scan(&e.ID, &e.SourceText, &e.TargetLang, &e.Model, &e.FinalText, &e.UsageCount, &lastUsed); err != nil {
			return nil, err
		}
		e.LastUsed = time.UnixMilli(lastUsed)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) MemoryStats(ctx context.Context) (MemoryStats, error) {
	var st MemoryStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM translation_memory`).
		Scan(&st.TotalEntries, &st.TotalUsage)
	return st, err
}

// DeleteMemory removes one entry by id.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// ClearMemory removes every entry and returns how many there were.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MemoryTranslator answers repeated source sentences from the translation
// memory and records every fresh result.
type MemoryTranslator struct {
	store  *Store
	next   lifecycle.Translator
	target string
	log    zerolog.Logger
}

func (s *Store) Memory(next lifecycle.Translator, targetLang string) *MemoryTranslator {
	return &MemoryTranslator{
		store:  s,
		next:   next,
		target: targetLang,
		log:    logging.Component("memory"),
	}
}

// Translate implements lifecycle.Translator. Memory failures are logged and
// fall through to the wrapped translator.
func (m *MemoryTranslator) Translate(ctx context.Context, text, model string) (string, error) {
	cached, ok, err := m.store.GetCachedTranslation(ctx, text, m.target, model)
	if err != nil {
		m.log.Warn().Ctx(ctx).Err(err).Msg("memory lookup failed")
	}
	if ok {
		m.log.Debug().Ctx(ctx).Str("model", model).Msg("memory hit")
		return cached, nil
	}

	out, err := m.next.Translate(ctx, text, model)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if out != "" {
		if err := m.store.SaveToMemory(ctx, text, m.target, model, out); err != nil {
			m.log.Warn().Ctx(ctx).Err(err).Msg("memory save failed")
		}
	}
	return out, nil
}
