// Package document models a loaded book: immutable page markup and the
// sentence index built from the data-sentence-id fragments embedded in it.
package document

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// SentenceAttr is the attribute carrying a sentence id on its fragment.
const SentenceAttr = "data-sentence-id"

// ErrNoPages is returned when a document is built from an empty page list.
var ErrNoPages = errors.New("document contains no pages")

// NotFoundError reports a sentence id that has no fragment in the loaded
// markup.
type NotFoundError struct {
	SentenceID string
	Page       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sentence %q not found on page %d", e.SentenceID, e.Page+1)
}

// Location addresses a sentence inside a document.
type Location struct {
	Page     int
	Position int
}

// Sentence is a translatable fragment of a page.
type Sentence struct {
	ID       string
	Page     int
	Position int
	Text     string
}

// Page is one page of base markup. It never holds translation state.
type Page struct {
	Index     int
	Markup    string
	Sentences []Sentence
}

// Document is an ordered sequence of pages with a global sentence index.
type Document struct {
	ID    int64
	Title string
	Pages []Page

	// Duplicates lists sentence ids seen more than once; the first
	// occurrence is the one indexed.
	Duplicates []string

	index map[string]Location
}

// New parses every page and builds the sentence index.
func New(id int64, title string, pages []string) (*Document, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	d := &Document{
		ID:    id,
		Title: title,
		Pages: make([]Page, 0, len(pages)),
		index: make(map[string]Location),
	}
	for i, markup := range pages {
		p, err := ParsePage(i, markup)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		for _, s := range p.Sentences {
			if _, dup := d.index[s.ID]; dup {
				d.Duplicates = append(d.Duplicates, s.ID)
				continue
			}
			d.index[s.ID] = Location{Page: s.Page, Position: s.Position}
		}
		d.Pages = append(d.Pages, p)
	}
	return d, nil
}

// ParsePage extracts the sentence fragments of markup in document order.
func ParsePage(index int, markup string) (Page, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return Page{}, err
	}

	p := Page{Index: index, Markup: markup}
	seen := make(map[string]bool)
	for _, n := range nodes {
		Walk(n, func(el *html.Node, id string) bool {
			if seen[id] {
				return false
			}
			seen[id] = true
			p.Sentences = append(p.Sentences, Sentence{
				ID:       id,
				Page:     index,
				Position: len(p.Sentences),
				Text:     norm.NFC.String(TextContent(el)),
			})
			return false
		})
	}
	return p, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// Page returns page i.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range [1,%d]", i+1, len(d.Pages))
	}
	return &d.Pages[i], nil
}

// Locate looks a sentence up by id alone.
func (d *Document) Locate(id string) (Location, bool) {
	loc, ok := d.index[id]
	return loc, ok
}

// Lookup returns the sentence with id.
func (d *Document) Lookup(id string) (Sentence, bool) {
	loc, ok := d.index[id]
	if !ok {
		return Sentence{}, false
	}
	return d.Pages[loc.Page].Sentences[loc.Position], true
}

// SentenceCount returns the number of indexed sentences.
func (d *Document) SentenceCount() int {
	return len(d.index)
}

// ParseFragment parses page markup in a body context.
func ParseFragment(markup string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return nodes, nil
}

// Walk calls fn for every element under n carrying a sentence id, in
// document order. Returning true from fn descends into the fragment.
func Walk(n *html.Node, fn func(el *html.Node, id string) bool) {
	if n.Type == html.ElementNode {
		if id, ok := SentenceID(n); ok {
			if !fn(n, id) {
				return
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// SentenceID returns the sentence id attribute of n.
func SentenceID(n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == SentenceAttr && a.Val != "" {
			return a.Val, true
		}
	}
	return "", false
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
