// Package projection derives the two renderable panes of a page from its
// base markup and the current translation state.
package projection

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"

	"github.com/valpere/bitext/internal/document"
	"github.com/valpere/bitext/internal/record"
)

// Class markers applied to sentence fragments in both panes.
const (
	ClassTranslated = "translated-sentence"
	ClassApproved   = "approved-sentence"
	ClassActive     = "active-sentence"
)

// Panes is the rendered original and translated markup of one page.
type Panes struct {
	Page       int
	Original   string
	Translated string
	// Applied counts fragments whose text was replaced in Translated.
	Applied int
}

type cacheKey struct {
	page      int
	revision  uint64
	highlight string
}

// Projector memoizes Render results. The cache key covers every input of
// Render for a single document, so a Projector must not be shared between
// documents.
type Projector struct {
	cache *lru.Cache[cacheKey, Panes]
}

// New returns a Projector caching up to size results. A size of zero or
// less disables caching.
func New(size int) (*Projector, error) {
	if size <= 0 {
		return &Projector{}, nil
	}
	c, err := lru.New[cacheKey, Panes](size)
	if err != nil {
		return nil, fmt.Errorf("projection cache: %w", err)
	}
	return &Projector{cache: c}, nil
}

// Project renders page, reusing a cached result when neither the store
// revision nor the highlight set changed.
func (p *Projector) Project(page *document.Page, view record.View, highlighted []string) (Panes, error) {
	if p.cache == nil {
		return Render(page, view, highlighted)
	}

	key := cacheKey{
		page:      page.Index,
		revision:  view.Revision(),
		highlight: highlightKey(highlighted),
	}
	if panes, ok := p.cache.Get(key); ok {
		return panes, nil
	}
	panes, err := Render(page, view, highlighted)
	if err != nil {
		return Panes{}, err
	}
	p.cache.Add(key, panes)
	return panes, nil
}

// Purge drops every cached result.
func (p *Projector) Purge() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

// Render derives both panes of page. The base markup is parsed afresh for
// each pane and never modified.
func Render(page *document.Page, view record.View, highlighted []string) (Panes, error) {
	active := make(map[string]bool, len(highlighted))
	for _, id := range highlighted {
		active[id] = true
	}

	original, _, err := renderPane(page.Markup, view, active, false)
	if err != nil {
		return Panes{}, fmt.Errorf("page %d original pane: %w", page.Index+1, err)
	}
	translated, applied, err := renderPane(page.Markup, view, active, true)
	if err != nil {
		return Panes{}, fmt.Errorf("page %d translated pane: %w", page.Index+1, err)
	}

	return Panes{
		Page:       page.Index,
		Original:   original,
		Translated: translated,
		Applied:    applied,
	}, nil
}

func renderPane(markup string, view record.View, active map[string]bool, replace bool) (string, int, error) {
	nodes, err := document.ParseFragment(markup)
	if err != nil {
		return "", 0, err
	}

	applied := 0
	for _, n := range nodes {
		document.Walk(n, func(el *html.Node, id string) bool {
			if t, ok := view.Get(id); ok {
				addClass(el, ClassTranslated)
				if t.Approved {
					addClass(el, ClassApproved)
				}
				if replace {
					setText(el, t.Text)
					applied++
				}
			}
			if active[id] {
				addClass(el, ClassActive)
			}
			return false
		})
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", 0, fmt.Errorf("render markup: %w", err)
		}
	}
	return buf.String(), applied, nil
}

func setText(el *html.Node, text string) {
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func addClass(el *html.Node, class string) {
	for i, a := range el.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		for _, f := range strings.Fields(a.Val) {
			if f == class {
				return
			}
		}
		el.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
		return
	}
	el.Attr = append(el.Attr, html.Attribute{Key: "class", Val: class})
}

func highlightKey(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
