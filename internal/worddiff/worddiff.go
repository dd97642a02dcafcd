// Package worddiff computes a readable word-level diff between two versions
// of a sentence translation.
//
// The walk is greedy with a bounded lookahead instead of a full edit-distance
// search, so the result is not always minimal but its cost stays linear in
// the number of tokens.
package worddiff

import (
	"strings"
	"unicode"
)

// Lookahead is the number of tokens past the cursor searched for a
// resynchronisation point. Together with the cursor token it forms a
// five-token window.
const Lookahead = 4

// Kind classifies a diff part.
type Kind int

const (
	Unchanged Kind = iota
	Added
	Removed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// Part is a single token of the diff output.
type Part struct {
	Kind  Kind   `json:"kind"`
	Token string `json:"token"`
}

// Side selects which text Reconstruct rebuilds.
type Side int

const (
	Old Side = iota
	New
)

// Tokenize splits text into maximal runs of whitespace and non-whitespace.
// Whitespace runs are kept as tokens so joining the result yields text.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			tokens = append(tokens, text[start:i])
			start = i
			inSpace = space
		}
	}
	return append(tokens, text[start:])
}

// Diff compares oldText with newText token by token.
//
// When the tokens under both cursors differ, the next Lookahead tokens of the
// new text are searched for the old token first; a hit marks the skipped new
// tokens as added. Failing that, the old text is searched for the new token
// and a hit marks the skipped old tokens as removed. With no hit on either
// side the pair is treated as a substitution.
func Diff(oldText, newText string) []Part {
	a, b := Tokenize(oldText), Tokenize(newText)
	parts := make([]Part, 0, len(a)+len(b))

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i >= len(a):
			for ; j < len(b); j++ {
				parts = append(parts, Part{Kind: Added, Token: b[j]})
			}
		case j >= len(b):
			for ; i < len(a); i++ {
				parts = append(parts, Part{Kind: Removed, Token: a[i]})
			}
		case a[i] == b[j]:
			parts = append(parts, Part{Kind: Unchanged, Token: a[i]})
			i++
			j++
		default:
			if k := indexWithin(b, j+1, a[i]); k >= 0 {
				for ; j < k; j++ {
					parts = append(parts, Part{Kind: Added, Token: b[j]})
				}
				continue
			}
			if k := indexWithin(a, i+1, b[j]); k >= 0 {
				for ; i < k; i++ {
					parts = append(parts, Part{Kind: Removed, Token: a[i]})
				}
				continue
			}
			parts = append(parts,
				Part{Kind: Removed, Token: a[i]},
				Part{Kind: Added, Token: b[j]},
			)
			i++
			j++
		}
	}
	return parts
}

// indexWithin returns the index of token in tokens[from:from+Lookahead], or -1.
func indexWithin(tokens []string, from int, token string) int {
	end := from + Lookahead
	if end > len(tokens) {
		end = len(tokens)
	}
	for k := from; k < end; k++ {
		if tokens[k] == token {
			return k
		}
	}
	return -1
}

// Reconstruct rebuilds one side of the comparison from parts.
func Reconstruct(parts []Part, side Side) string {
	skip := Added
	if side == New {
		skip = Removed
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.Kind != skip {
			sb.WriteString(p.Token)
		}
	}
	return sb.String()
}

// Summary counts the non-whitespace tokens of a diff by kind.
type Summary struct {
	Added     int
	Removed   int
	Unchanged int
}

// Changed reports whether the diff contains any addition or removal.
func (s Summary) Changed() bool {
	return s.Added > 0 || s.Removed > 0
}

// Stats summarises parts, ignoring whitespace-only tokens.
func Stats(parts []Part) Summary {
	var s Summary
	for _, p := range parts {
		if strings.TrimSpace(p.Token) == "" {
			continue
		}
		switch p.Kind {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		default:
			s.Unchanged++
		}
	}
	return s
}
