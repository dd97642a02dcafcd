package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/bitext/internal/worddiff"
)

func TestLedger_AppendAndRead(t *testing.T) {
	l := New()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, l.Append("s1", Version{Text: "one", Timestamp: ts, Model: "m1"}))
	assert.Equal(t, 2, l.Append("s1", Version{Text: "two", Timestamp: ts.Add(time.Minute), Model: "m2"}))
	assert.Equal(t, 2, l.Len("s1"))
	assert.Equal(t, 0, l.Len("missing"))

	v, err := l.At("s1", 0)
	require.NoError(t, err)
	assert.Equal(t, "one", v.Text)
	assert.Equal(t, "m1", v.Model)

	latest, ok := l.Latest("s1")
	require.True(t, ok)
	assert.Equal(t, "two", latest.Text)
}

func TestLedger_VersionsIsACopy(t *testing.T) {
	l := New()
	l.Append("s1", Version{Text: "one"})

	got := l.Versions("s1")
	got[0].Text = "mutated"

	v, err := l.At("s1", 0)
	require.NoError(t, err)
	assert.Equal(t, "one", v.Text)
	assert.Nil(t, l.Versions("missing"))
}

func TestLedger_AtErrors(t *testing.T) {
	l := New()

	_, err := l.At("s1", 0)
	assert.ErrorIs(t, err, ErrNoHistory)

	l.Append("s1", Version{Text: "one"})
	_, err = l.At("s1", 1)
	assert.Error(t, err)
	_, err = l.At("s1", -1)
	assert.Error(t, err)
}

func TestLedger_DiffFirstVersionIsUnchanged(t *testing.T) {
	l := New()
	l.Append("s1", Version{Text: "Мысық отырды."})

	parts, err := l.Diff("s1", 0)
	require.NoError(t, err)
	for _, p := range parts {
		assert.Equal(t, worddiff.Unchanged, p.Kind)
	}
}

func TestLedger_DiffConsecutive(t *testing.T) {
	l := New()
	l.Append("s1", Version{Text: "Мысық отырды."})
	l.Append("s1", Version{Text: "Мысық жатты."})

	parts, err := l.Diff("s1", 1)
	require.NoError(t, err)
	assert.Equal(t, worddiff.Summary{Added: 1, Removed: 1, Unchanged: 1}, worddiff.Stats(parts))
}

func TestLedger_Timeline(t *testing.T) {
	l := New()
	l.Append("s1", Version{Text: "a"})
	l.Append("s1", Version{Text: "a b"})
	l.Append("s1", Version{Text: "a b"})

	entries := l.Timeline("s1")
	require.Len(t, entries, 3)
	assert.False(t, entries[0].Latest)
	assert.True(t, entries[2].Latest)
	assert.True(t, worddiff.Stats(entries[1].Diff).Changed())
	assert.False(t, worddiff.Stats(entries[2].Diff).Changed())
	assert.Empty(t, l.Timeline("missing"))
}

func TestLedger_IDs(t *testing.T) {
	l := New()
	l.Append("a", Version{Text: "x"})
	l.Append("b", Version{Text: "y"})

	assert.ElementsMatch(t, []string{"a", "b"}, l.IDs())
}
