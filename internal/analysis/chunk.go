package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChunkLength is used when Split is given a non-positive limit.
const DefaultMaxChunkLength = 4000

// fragment is one sentence-terminated span of the source text.
// Leading whitespace belongs to the fragment; only the last fragment of a
// text can carry trailing whitespace.
type fragment struct {
	start, end int
	runes      int
	lead       int
	trail      int
}

// Split cuts text into contiguous chunks of at most maxLen characters,
// breaking only after sentence-ending punctuation (., ! or ? followed by
// whitespace or end of text). Chunks are trimmed and never empty. A single
// sentence longer than maxLen becomes its own oversized chunk.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLength
	}
	frags := fragments(text)

	var chunks []string
	first, sum := -1, 0
	for k, f := range frags {
		if first >= 0 {
			candidate := sum + f.runes - frags[first].lead - f.trail
			if candidate > maxLen {
				chunks = append(chunks, strings.TrimSpace(text[frags[first].start:frags[k-1].end]))
				first = -1
			}
		}
		if first < 0 {
			first = k
			sum = 0
		}
		sum += f.runes
	}
	if first >= 0 {
		chunks = append(chunks, strings.TrimSpace(text[frags[first].start:frags[len(frags)-1].end]))
	}
	return chunks
}

func fragments(text string) []fragment {
	var out []fragment
	start := 0
	for i := 0; i < len(text); {
		if !isTerminal(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && isTerminal(text[j]) {
			j++
		}
		if j == len(text) || startsWithSpace(text[j:]) {
			out = appendFragment(out, text, start, j)
			start = j
		}
		i = j
	}
	if start < len(text) {
		out = appendFragment(out, text, start, len(text))
	}
	return out
}

// appendFragment skips whitespace-only spans so they never form a chunk.
func appendFragment(out []fragment, text string, start, end int) []fragment {
	s := text[start:end]
	left := strings.TrimLeftFunc(s, unicode.IsSpace)
	if left == "" {
		return out
	}
	n := utf8.RuneCountInString(s)
	nl := utf8.RuneCountInString(left)
	return append(out, fragment{
		start: start,
		end:   end,
		runes: n,
		lead:  n - nl,
		trail: nl - utf8.RuneCountInString(strings.TrimRightFunc(left, unicode.IsSpace)),
	})
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}
