package postprocess

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain explanation",
			input:    "The verb отыру means to sit.",
			expected: "The verb отыру means to sit.",
		},
		{
			name:     "reasoning block removed",
			input:    "<think>consider the aspect</think>Мысық отырды.",
			expected: "Мысық отырды.",
		},
		{
			name:     "truncated reasoning block",
			input:    "Мысық<thinking>cut off here",
			expected: "Мысық",
		},
		{
			name:     "translation echo",
			input:    "Translation: Мысық отырды.",
			expected: "Мысық отырды.",
		},
		{
			name:     "polite echo with quotes",
			input:    "Sure, here is the translation: «Мысық отырды.»",
			expected: "Мысық отырды.",
		},
		{
			name:     "colon inside content is kept",
			input:    "Note the word order: subject first.",
			expected: "Note the word order: subject first.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Мысық"`, "Мысық"},
		{"'Мысық'", "Мысық"},
		{"«Мысық»", "Мысық"},
		{"“Мысық”", "Мысық"},
		{"„Мысық“", "Мысық"},
		{`"unbalanced`, `"unbalanced`},
		{`"`, `"`},
		{"  plain  ", "plain"},
	}

	for _, tt := range tests {
		if got := TrimQuotes(tt.input); got != tt.expected {
			t.Errorf("TrimQuotes(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "numbered list",
			input:    "1. \"Мысық жатты.\"\n2. Мысық отырып қалды.\n3. «Мысық жайғасты.»",
			expected: []string{"Мысық жатты.", "Мысық отырып қалды.", "Мысық жайғасты."},
		},
		{
			name:     "preamble dropped",
			input:    "Here are the variants:\n1. Бір\n2. Екі",
			expected: []string{"Бір", "Екі"},
		},
		{
			name:     "continuation line joins previous item",
			input:    "1. Бірінші\nжалғасы\n2. Екінші",
			expected: []string{"Бірінші\nжалғасы", "Екінші"},
		},
		{
			name:     "blank lines and empty items skipped",
			input:    "1. Бір\n\n2.\n3. Үш\n",
			expected: []string{"Бір", "Үш"},
		},
		{
			name:     "no numbering is one candidate",
			input:    "\"Мысық жатты.\"",
			expected: []string{"Мысық жатты."},
		},
		{
			name:     "multi digit numbers",
			input:    "9. Тоғыз\n10. Он",
			expected: []string{"Тоғыз", "Он"},
		},
		{
			name:     "empty output",
			input:    "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("Candidates(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Candidates(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}
