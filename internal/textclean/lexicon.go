package textclean

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Lexicon answers whether a lowercase word is spelled correctly.
type Lexicon interface {
	Known(word string) bool
}

// WordList is a set of lowercase words.
type WordList map[string]struct{}

// NewWordList builds a list from words.
func NewWordList(words ...string) WordList {
	wl := make(WordList, len(words))
	for _, w := range words {
		wl.Add(w)
	}
	return wl
}

// Add inserts a word.
func (wl WordList) Add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word != "" {
		wl[word] = struct{}{}
	}
}

// Known reports whether word is in the list.
func (wl WordList) Known(word string) bool {
	_, ok := wl[strings.ToLower(word)]
	return ok
}

// ReadWordList reads one word per line. Blank lines and lines starting with '#' are skipped.
func ReadWordList(r io.Reader) (WordList, error) {
	wl := make(WordList)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		wl.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}

	return wl, nil
}

// LoadWordList reads a word list file.
func LoadWordList(path string) (WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	return ReadWordList(f)
}
