package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page1 = `<p><span class="sentence" data-sentence-id="s1">The cat sat.</span> <span class="sentence" data-sentence-id="s2">It was <b>warm</b>.</span></p>`
const page2 = `<h1><span class="sentence" data-sentence-id="s3">Chapter two</span></h1><p>no sentences here</p>`

func TestNew_BuildsIndex(t *testing.T) {
	d, err := New(7, "Book", []string{page1, page2})
	require.NoError(t, err)

	assert.Equal(t, 2, d.NumPages())
	assert.Equal(t, 3, d.SentenceCount())

	loc, ok := d.Locate("s3")
	require.True(t, ok)
	assert.Equal(t, Location{Page: 1, Position: 0}, loc)

	s, ok := d.Lookup("s2")
	require.True(t, ok)
	assert.Equal(t, "It was warm.", s.Text)
	assert.Equal(t, 0, s.Page)
	assert.Equal(t, 1, s.Position)

	_, ok = d.Lookup("nope")
	assert.False(t, ok)
}

func TestNew_NoPages(t *testing.T) {
	_, err := New(1, "Empty", nil)
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestNew_Duplicates(t *testing.T) {
	dup := `<span data-sentence-id="s1">Again</span>`
	d, err := New(1, "Dup", []string{page1, dup})
	require.NoError(t, err)

	assert.Equal(t, []string{"s1"}, d.Duplicates)
	loc, _ := d.Locate("s1")
	assert.Equal(t, 0, loc.Page, "first occurrence wins")
}

func TestParsePage_NestedFragmentsIgnored(t *testing.T) {
	markup := `<span data-sentence-id="outer">A <span data-sentence-id="inner">B</span></span>`
	p, err := ParsePage(0, markup)
	require.NoError(t, err)

	require.Len(t, p.Sentences, 1)
	assert.Equal(t, "outer", p.Sentences[0].ID)
	assert.Equal(t, "A B", p.Sentences[0].Text)
}

func TestDocument_Page(t *testing.T) {
	d, err := New(1, "Book", []string{page1})
	require.NoError(t, err)

	p, err := d.Page(0)
	require.NoError(t, err)
	assert.Equal(t, page1, p.Markup)

	_, err = d.Page(1)
	assert.Error(t, err)
	_, err = d.Page(-1)
	assert.Error(t, err)
}

func TestNotFoundError(t *testing.T) {
	var err error = &NotFoundError{SentenceID: "x", Page: 2}

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, `sentence "x" not found on page 3`, err.Error())
}
