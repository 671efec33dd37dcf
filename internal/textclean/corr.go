// Package textclean repairs text extracted from scanned or converted documents.
package textclean

import (
	"regexp"
	"strings"
)

// DefaultExceptions are abbreviations Corr restores after removing spaces.
var DefaultExceptions = []string{"e.g.", "i.e.", "etc.", "cf.", "vs.", "p."}

var (
	digitDotRe       = regexp.MustCompile(`(\d)\.(\d)`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
	spaceBeforeEndRe = regexp.MustCompile(`\s([?.!"](?:\s|$))`)
	spaceQuoteRe     = regexp.MustCompile(`\s'`)
	quoteSpaceRe     = regexp.MustCompile(`'\s`)
	spaceCommaRe     = regexp.MustCompile(`\s,`)
	punctRunRe       = regexp.MustCompile(`\s*([?!.,]+(?:\s+[?!.,]+)*)\s*`)
)

// CorrOptions tunes Corr.
type CorrOptions struct {
	// SpaceAfterDigitDot turns "1.5" into "1. 5".
	SpaceAfterDigitDot bool
	// Exceptions defaults to DefaultExceptions when nil.
	Exceptions []string
}

// Corr normalizes spacing around punctuation and collapses whitespace.
func Corr(s string, opts CorrOptions) string {
	if opts.SpaceAfterDigitDot {
		s = digitDotRe.ReplaceAllString(s, "${1}. ${2}")
	}

	s = whitespaceRe.ReplaceAllString(s, " ")
	s = spaceBeforeEndRe.ReplaceAllString(s, "${1}")
	s = spaceQuoteRe.ReplaceAllString(s, "'")
	s = quoteSpaceRe.ReplaceAllString(s, "'")
	s = spaceCommaRe.ReplaceAllString(s, ",")

	exceptions := opts.Exceptions
	if exceptions == nil {
		exceptions = DefaultExceptions
	}
	for _, e := range exceptions {
		s = strings.ReplaceAll(s, whitespaceRe.ReplaceAllString(e, ""), e)
	}

	return s
}

// FixPunctSpaces joins runs of spaced punctuation and leaves exactly one space after them.
func FixPunctSpaces(s string) string {
	s = punctRunRe.ReplaceAllStringFunc(s, func(match string) string {
		run := punctRunRe.FindStringSubmatch(match)[1]
		return strings.ReplaceAll(run, " ", "") + " "
	})
	s = strings.ReplaceAll(s, " ' ", "'")
	s = strings.ReplaceAll(s, ` " `, `"`)
	return strings.TrimSpace(s)
}
