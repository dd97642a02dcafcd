package viewer

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/backend"
	"github.com/valpere/bitext/internal/document"
	"github.com/valpere/bitext/internal/ledger"
	"github.com/valpere/bitext/internal/record"
)

// PageReport counts the stored translations that landed on one page.
type PageReport struct {
	Page    int
	Applied int
	Skipped int
}

// LoadReport summarizes how the stored translation state was applied to
// the document.
type LoadReport struct {
	Translations int
	Applied      int
	Skipped      int
	// Synthesized counts translations that arrived without versions and
	// got one made from their current text.
	Synthesized int
	Pages       []PageReport
	Duplicates  []string
	NotFound    []*document.NotFoundError
}

// hydrate copies the stored translations of b into store and l. A
// translation whose id has no fragment is skipped. A translation is filed
// under the page its fragment is on, whatever page the payload names.
func hydrate(b *backend.Book, doc *document.Document, store *record.Store, l *ledger.Ledger, log zerolog.Logger) LoadReport {
	report := LoadReport{
		Translations: len(b.Translations),
		Pages:        make([]PageReport, doc.NumPages()),
		Duplicates:   doc.Duplicates,
	}
	for i := range report.Pages {
		report.Pages[i].Page = i
	}

	ids := make([]string, 0, len(b.Translations))
	for id := range b.Translations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		t := b.Translations[id]
		loc, ok := doc.Locate(id)
		if !ok {
			nf := &document.NotFoundError{SentenceID: id, Page: t.Page}
			report.NotFound = append(report.NotFound, nf)
			report.Skipped++
			if t.Page >= 0 && t.Page < len(report.Pages) {
				report.Pages[t.Page].Skipped++
			}
			log.Warn().Err(nf).Msg("translation skipped")
			continue
		}
		if loc.Page != t.Page {
			log.Debug().Str("sentence_id", id).Int("stored_page", t.Page+1).Int("page", loc.Page+1).Msg("translation page corrected")
		}

		versions := b.Versions[id]
		if len(versions) == 0 {
			versions = []ledger.Version{{Text: t.Text}}
			report.Synthesized++
		}
		for _, v := range versions {
			l.Append(id, v)
		}
		store.Put(id, loc.Page, t.Text)
		if t.Approved {
			store.SetApproved(id, true)
		}
		report.Applied++
		report.Pages[loc.Page].Applied++
	}

	if len(doc.Duplicates) > 0 {
		log.Warn().Strs("sentence_ids", doc.Duplicates).Msg("duplicate sentence ids, first occurrence indexed")
	}
	return report
}
