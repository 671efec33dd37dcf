package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Replacement tokens used by CleanOCR.
const (
	URLToken   = "<URL>"
	EmailToken = "<EMAIL>"
)

var (
	urlRe   = regexp.MustCompile(`(?i)\b(?:(?:https?|ftp)://|www\d{0,3}\.)[^\s<>"]*[^\s<>".,;:!?)\]'}]`)
	emailRe = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)

	inlineSpaceRe = regexp.MustCompile(`[^\S\n]+`)
	manyBreaksRe  = regexp.MustCompile(`\n{3,}`)
)

// punctuation that has a direct ASCII spelling; everything else non-ASCII is
// decomposed and, if still not ASCII, dropped.
var asciiReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"–", "-", "—", "-", "−", "-", "‐", "-", "‑", "-",
	"…", "...", "\u00a0", " ", "•", "*", "·", ".",
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "Ł", "L", "ł", "l",
)

// ToASCII folds text to ASCII: compatibility decomposition, combining marks
// removed, typographic punctuation mapped, the rest dropped.
func ToASCII(s string) string {
	s = asciiReplacer.Replace(norm.NFC.String(s))

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CleanOCR folds text to ASCII, masks URLs and e-mail addresses and
// normalizes whitespace. Punctuation is kept.
func CleanOCR(s string, lower bool) string {
	s = ToASCII(s)
	s = urlRe.ReplaceAllString(s, URLToken)
	s = emailRe.ReplaceAllString(s, EmailToken)

	if lower {
		s = strings.ToLower(s)
	}

	return normalizeWhitespace(s)
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaceRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = manyBreaksRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
