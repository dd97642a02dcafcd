// Package postprocess cleans chat-model output before it reaches the editor:
// reasoning blocks, prompt echoes and wrapping quotes are removed, and
// numbered improvement lists are split into candidates.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips reasoning blocks, a leading prompt echo and one pair of
// wrapping quotes, then trims the result.
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripEcho(text)
	text = TrimQuotes(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so each tag pair is spelled out.
var reasoningRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// An opened tag with no closing tag runs to the end of the output.
var openReasoningRe = regexp.MustCompile(`(?is)(?:<thinking>|<think>|<reasoning>).*$`)

func stripReasoning(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = openReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// echoRe matches an introductory line such as "Here are the improved
// variants:" or "Translation:". A trailing colon is required.
var echoRe = regexp.MustCompile(
	`(?i)^(?:(?:certainly|sure|of course)[,.!]?\s+)?(?:here(?:'s| is| are)\s+)?(?:the\s+)?(?:improved |refined |alternative )?(?:translation|variants?|versions?|options?|explanation)s?\s*:`,
)

func stripEcho(text string) string {
	if loc := echoRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
	}
	return text
}

// quotePairs are the opening and closing characters stripped by TrimQuotes.
var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
	{'„', '“'},
}

// TrimQuotes removes one matching pair of quotes around the whole of text.
func TrimQuotes(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	for _, p := range quotePairs {
		if runes[0] == p[0] && runes[n-1] == p[1] {
			return strings.TrimSpace(string(runes[1 : n-1]))
		}
	}
	return text
}

// itemRe matches the number prefix of a list line: "1.", "2. ", "10.".
var itemRe = regexp.MustCompile(`^\s*\d+\.\s*`)

// Candidates splits a numbered list into its items. Lines without a number
// continue the previous item. Output with no numbered line at all is a
// single candidate. Empty items are dropped.
func Candidates(text string) []string {
	text = stripReasoning(text)

	var (
		items   []string
		current []string
		seen    bool
	)
	flush := func() {
		if item := TrimQuotes(strings.Join(current, "\n")); item != "" {
			items = append(items, item)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if loc := itemRe.FindStringIndex(line); loc != nil {
			if seen {
				flush()
			} else {
				// Anything before the first item is a preamble.
				current = current[:0]
			}
			seen = true
			current = append(current, strings.TrimSpace(line[loc[1]:]))
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			current = append(current, trimmed)
		}
	}
	if !seen {
		if c := Clean(text); c != "" {
			return []string{c}
		}
		return nil
	}
	flush()
	return items
}
