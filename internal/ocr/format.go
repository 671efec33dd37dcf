package ocr

import "strings"

// FormatTextWidth wraps every line to at most width characters, breaking at the
// last space before the limit or, when there is none, exactly at the limit.
func FormatTextWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	formatted := make([]string, 0, len(lines))

	for _, line := range lines {
		runes := []rune(line)
		for len(runes) > width {
			split := lastSpace(runes[:width])
			if split == -1 {
				split = width
			}
			formatted = append(formatted, string(runes[:split]))
			runes = []rune(strings.TrimSpace(string(runes[split:])))
		}
		formatted = append(formatted, string(runes))
	}

	return strings.Join(formatted, "\n")
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
