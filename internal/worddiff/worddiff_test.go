package worddiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single word", "cat", []string{"cat"}},
		{"two words", "the cat", []string{"the", " ", "cat"}},
		{"leading and trailing space", "  cat sat. ", []string{"  ", "cat", " ", "sat.", " "}},
		{"mixed whitespace", "a\t\n b", []string{"a", "\t\n ", "b"}},
		{"cyrillic", "Мысық отырды.", []string{"Мысық", " ", "отырды."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestDiff_Identical(t *testing.T) {
	parts := Diff("The quick brown fox", "The quick brown fox")

	require.NotEmpty(t, parts)
	for _, p := range parts {
		assert.Equal(t, Unchanged, p.Kind, "token %q", p.Token)
	}
}

func TestDiff_Reconstructs(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "new text"},
		{"old text", ""},
		{"The cat sat.", "The dog sat down."},
		{"a b c d e f g h", "h g f e d c b a"},
		{"one two three", "zero one two three four"},
		{"  spaced   out  ", "spaced out"},
		{"Мысық отырды.", "Мысық жатты."},
		{"x y z", "p q r s t u v w"},
		{"repeat repeat repeat", "repeat"},
	}

	for _, pair := range pairs {
		parts := Diff(pair[0], pair[1])
		assert.Equal(t, pair[0], Reconstruct(parts, Old), "old side of %q -> %q", pair[0], pair[1])
		assert.Equal(t, pair[1], Reconstruct(parts, New), "new side of %q -> %q", pair[0], pair[1])
	}
}

func FuzzDiff(f *testing.F) {
	f.Add("The cat sat.", "The dog sat down.")
	f.Add("a b c d e f g h", "h g f e d c b a")
	f.Add("  spaced   out  ", "spaced out")
	f.Add("Мысық отырды.", "Мысық жатты.")
	f.Add("", "x")

	f.Fuzz(func(t *testing.T, a, b string) {
		parts := Diff(a, b)
		if got := Reconstruct(parts, Old); got != a {
			t.Fatalf("old side of %q -> %q = %q", a, b, got)
		}
		if got := Reconstruct(parts, New); got != b {
			t.Fatalf("new side of %q -> %q = %q", a, b, got)
		}
	})
}

func TestDiff_Substitution(t *testing.T) {
	parts := Diff("Мысық отырды.", "Мысық жатты.")

	want := []Part{
		{Kind: Unchanged, Token: "Мысық"},
		{Kind: Unchanged, Token: " "},
		{Kind: Removed, Token: "отырды."},
		{Kind: Added, Token: "жатты."},
	}
	assert.Equal(t, want, parts)
}

func TestDiff_Insertion(t *testing.T) {
	parts := Diff("the cat", "the black cat")

	want := []Part{
		{Kind: Unchanged, Token: "the"},
		{Kind: Unchanged, Token: " "},
		{Kind: Added, Token: "black"},
		{Kind: Added, Token: " "},
		{Kind: Unchanged, Token: "cat"},
	}
	assert.Equal(t, want, parts)
}

func TestDiff_Deletion(t *testing.T) {
	parts := Diff("the black cat", "the cat")

	want := []Part{
		{Kind: Unchanged, Token: "the"},
		{Kind: Unchanged, Token: " "},
		{Kind: Removed, Token: "black"},
		{Kind: Removed, Token: " "},
		{Kind: Unchanged, Token: "cat"},
	}
	assert.Equal(t, want, parts)
}

func TestDiff_AddedSearchWinsTie(t *testing.T) {
	// "b" appears ahead on both sides; the new side is searched first.
	parts := Diff("a b", "b a b")

	assert.Equal(t, "a b", Reconstruct(parts, Old))
	assert.Equal(t, "b a b", Reconstruct(parts, New))
	require.NotEmpty(t, parts)
	assert.Equal(t, Part{Kind: Added, Token: "b"}, parts[0])
}

func TestDiff_BeyondLookahead(t *testing.T) {
	// The match for "end" sits six tokens ahead, outside the window, so the
	// walk falls back to substitutions.
	parts := Diff("end", "w1 w2 w3 end")

	assert.Equal(t, Part{Kind: Removed, Token: "end"}, parts[0])
	assert.Equal(t, Part{Kind: Added, Token: "w1"}, parts[1])
	assert.Equal(t, "w1 w2 w3 end", Reconstruct(parts, New))
}

func TestDiff_EmptySides(t *testing.T) {
	for _, p := range Diff("", "a b") {
		assert.Equal(t, Added, p.Kind)
	}
	for _, p := range Diff("a b", "") {
		assert.Equal(t, Removed, p.Kind)
	}
	assert.Empty(t, Diff("", ""))
}

func TestStats(t *testing.T) {
	s := Stats(Diff("Мысық отырды.", "Мысық жатты."))

	assert.Equal(t, Summary{Added: 1, Removed: 1, Unchanged: 1}, s)
	assert.True(t, s.Changed())
	assert.False(t, Stats(Diff("same", "same")).Changed())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "unchanged", Unchanged.String())
}
