package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutAndGet(t *testing.T) {
	s := New()

	_, ok := s.Get("s1")
	assert.False(t, ok)

	s.Put("s1", 2, "hello")
	got, ok := s.Get("s1")
	require.True(t, ok)
	assert.Equal(t, Translation{SentenceID: "s1", Page: 2, Text: "hello"}, got)
	assert.True(t, s.Has("s1"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_PutKeepsApproval(t *testing.T) {
	s := New()
	s.Put("s1", 0, "one")
	require.True(t, s.SetApproved("s1", true))

	s.Put("s1", 0, "two")

	got, _ := s.Get("s1")
	assert.True(t, got.Approved)
	assert.Equal(t, "two", got.Text)
}

func TestStore_SetApproved(t *testing.T) {
	s := New()
	assert.False(t, s.SetApproved("missing", true))

	s.Put("s1", 0, "one")
	assert.True(t, s.SetApproved("s1", true))
	assert.False(t, s.SetApproved("s1", true), "second approval is not a change")
	assert.True(t, s.SetApproved("s1", false))
}

func TestStore_SetText(t *testing.T) {
	s := New()
	assert.False(t, s.SetText("missing", "x"))

	s.Put("s1", 0, "one")
	assert.True(t, s.SetText("s1", "restored"))
	got, _ := s.Get("s1")
	assert.Equal(t, "restored", got.Text)
}

func TestStore_RevisionAdvances(t *testing.T) {
	s := New()
	r0 := s.Revision()

	s.Put("s1", 0, "one")
	r1 := s.Revision()
	s.SetApproved("s1", true)
	r2 := s.Revision()
	s.SetApproved("s1", true)

	assert.Greater(t, r1, r0)
	assert.Greater(t, r2, r1)
	assert.Equal(t, r2, s.Revision(), "no-op must not advance the revision")
}

func TestStore_ForPageAndProgress(t *testing.T) {
	s := New()
	s.Put("b", 0, "b")
	s.Put("a", 0, "a")
	s.Put("c", 1, "c")
	s.SetApproved("c", true)

	page0 := s.ForPage(0)
	require.Len(t, page0, 2)
	assert.Equal(t, "a", page0[0].SentenceID)
	assert.Equal(t, "b", page0[1].SentenceID)
	assert.Empty(t, s.ForPage(5))

	assert.Equal(t, Progress{Translated: 3, Approved: 1}, s.Progress())
}
