package textclean

import (
	"context"
	"errors"
	"io/fs"

	"github.com/davidbz/modelbench/internal/observability"
)

// Config contains text cleanup settings.
type Config struct {
	LexiconPath        string `env:"TEXTCLEAN_LEXICON"           envDefault:"/usr/share/dict/words"`
	Lowercase          bool   `env:"TEXTCLEAN_LOWERCASE"         envDefault:"false"`
	SpaceAfterDigitDot bool   `env:"TEXTCLEAN_DIGIT_DOT_SPACING" envDefault:"false"`
}

// Cleaner runs the paragraph cleanup pipeline.
type Cleaner struct {
	lexicon Lexicon
	lower   bool
	corr    CorrOptions
}

// NewCleaner creates a cleaner over a lexicon.
func NewCleaner(lexicon Lexicon, lower, spaceAfterDigitDot bool) *Cleaner {
	return &Cleaner{
		lexicon: lexicon,
		lower:   lower,
		corr:    CorrOptions{SpaceAfterDigitDot: spaceAfterDigitDot},
	}
}

// NewCleanerFromConfig loads the configured word list. A missing file leaves
// the lexicon empty, so every hyphen break becomes a space.
func NewCleanerFromConfig(ctx context.Context, cfg *Config) (*Cleaner, error) {
	logger := observability.FromContext(ctx)

	lexicon := WordList{}
	if cfg.LexiconPath != "" {
		wl, err := LoadWordList(cfg.LexiconPath)
		switch {
		case err == nil:
			lexicon = wl
			logger.Info("word list loaded",
				observability.String("path", cfg.LexiconPath),
				observability.Int("words", len(wl)))
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("word list not found, hyphen breaks will not be joined",
				observability.String("path", cfg.LexiconPath))
		default:
			return nil, err
		}
	}

	return NewCleaner(lexicon, cfg.Lowercase, cfg.SpaceAfterDigitDot), nil
}

// Paragraph applies Corr, CleanOCR, FixPunctSpaces and RepairHyphenBreaks in order.
func (c *Cleaner) Paragraph(text string) string {
	text = Corr(text, c.corr)
	text = CleanOCR(text, c.lower)
	text = FixPunctSpaces(text)
	return RepairHyphenBreaks(text, c.lexicon)
}
