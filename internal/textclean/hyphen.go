package textclean

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// HyphenBreak is the marker left where a word was split across lines.
const HyphenBreak = "- "

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// RepairHyphenBreaks resolves every HyphenBreak. When the fragments on both
// sides join into a known word they are joined; otherwise the break becomes a space.
// Punctuation around the fragments is ignored for the lookup and kept in the text.
func RepairHyphenBreaks(text string, lex Lexicon) string {
	for strings.Contains(text, HyphenBreak) {
		before, after, _ := strings.Cut(text, HyphenBreak)

		var head, tail string
		if fields := strings.Fields(before); len(fields) > 0 {
			head = fields[len(fields)-1]
		}
		if fields := strings.Fields(after); len(fields) > 0 {
			tail = fields[0]
		}

		if IsKnown(lex, trimPunctuation(head)+trimPunctuation(tail)) {
			text = before + after
		} else {
			text = before + " " + after
		}
	}
	return text
}

func trimPunctuation(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r)
	})
}

// IsKnown applies the spell-check rules around the lexicon: numbers and
// single punctuation marks are always known, the empty string never is.
func IsKnown(lex Lexicon, word string) bool {
	if word == "" {
		return false
	}
	if utf8.RuneCountInString(word) == 1 && strings.Contains(asciiPunctuation, word) {
		return true
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return true
	}
	if lex == nil {
		return false
	}
	return lex.Known(strings.ToLower(word))
}
