package backend

import (
	"time"

	"github.com/valpere/bitext/internal/ledger"
)

// Book is a loaded book: page markup plus the stored translation state.
// Page indexes are 0-based.
type Book struct {
	ID           int64
	Title        string
	Pages        []string
	Translations map[string]Translation
	Versions     map[string][]ledger.Version
}

// Translation is the stored state of one sentence.
type Translation struct {
	Page     int
	Text     string
	Approved bool
}

// BookSummary is one row of the book list.
type BookSummary struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	TotalPages          int    `json:"total_pages"`
	TotalSentences      int    `json:"total_sentences"`
	TranslatedSentences int    `json:"translated_sentences"`
	UploadedAt          string `json:"uploaded_at"`
}

// Progress returns the translated share as a whole percentage.
func (b BookSummary) Progress() int {
	if b.TotalSentences <= 0 {
		return 0
	}
	return (b.TranslatedSentences*100 + b.TotalSentences/2) / b.TotalSentences
}

// Completed reports whether every sentence is translated.
func (b BookSummary) Completed() bool {
	return b.Progress() == 100
}

// Export is a rendered book file.
type Export struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ChatRequest is sent to a chat endpoint.
type ChatRequest struct {
	Message     string  `json:"message"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

type bookPayload struct {
	ID           int64                         `json:"id"`
	Title        string                        `json:"title"`
	Pages        []string                      `json:"pages"`
	Translations map[string]translationPayload `json:"translations"`
	Versions     map[string][]versionPayload   `json:"versions"`
}

type translationPayload struct {
	PageNumber         int    `json:"page_number"`
	CurrentTranslation string `json:"current_translation"`
	IsApproved         bool   `json:"is_approved"`
}

type versionPayload struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Model     string `json:"model,omitempty"`
	Edited    bool   `json:"edited,omitempty"`
}

func (p *bookPayload) book(id int64) *Book {
	b := &Book{
		ID:           id,
		Title:        p.Title,
		Pages:        p.Pages,
		Translations: make(map[string]Translation, len(p.Translations)),
		Versions:     make(map[string][]ledger.Version, len(p.Versions)),
	}
	for sid, t := range p.Translations {
		b.Translations[sid] = Translation{
			Page:     t.PageNumber - 1,
			Text:     t.CurrentTranslation,
			Approved: t.IsApproved,
		}
	}
	for sid, vs := range p.Versions {
		out := make([]ledger.Version, 0, len(vs))
		for _, v := range vs {
			var ts time.Time
			if v.Timestamp > 0 {
				ts = time.UnixMilli(v.Timestamp).UTC()
			}
			out = append(out, ledger.Version{Text: v.Text, Timestamp: ts, Model: v.Model, Edited: v.Edited})
		}
		b.Versions[sid] = out
	}
	return b
}
