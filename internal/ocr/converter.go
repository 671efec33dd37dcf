// Package ocr turns PDF uploads into plain text, recognizing pages that have
// no embedded text layer.
package ocr

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
)

// Conversion errors.
var (
	ErrNotPDF        = errors.New("file is not a PDF file")
	ErrUnreadablePDF = errors.New("pdf could not be read")
	ErrNoText        = errors.New("no text found in pdf")
)

// Config contains OCR settings.
type Config struct {
	MaxPages       int           `env:"OCR_MAX_PAGES"         envDefault:"20"`
	LineWidth      int           `env:"OCR_LINE_WIDTH"        envDefault:"120"`
	VisionAPIKey   string        `env:"GOOGLE_VISION_API_KEY"`
	VisionEndpoint string        `env:"GOOGLE_VISION_ENDPOINT" envDefault:"https://vision.googleapis.com/v1/files:annotate"`
	Timeout        time.Duration `env:"OCR_TIMEOUT"           envDefault:"60s"`
}

// Recognizer reads the text of scanned pages.
type Recognizer interface {
	RecognizePages(ctx context.Context, data []byte, pages []int) (map[int]string, error)
}

// Result is a converted PDF.
type Result struct {
	Name      string        `json:"name"`
	Text      string        `json:"text"`
	Formatted string        `json:"formatted"`
	Pages     int           `json:"pages"`
	OCRPages  []int         `json:"ocr_pages,omitempty"`
	Runtime   time.Duration `json:"runtime"`
}

// Converter extracts text from PDFs.
type Converter struct {
	recognizer Recognizer
	maxPages   int
	lineWidth  int
}

// NewConverter creates a converter. recognizer may be nil, in which case pages
// without a text layer stay empty.
func NewConverter(recognizer Recognizer, maxPages, lineWidth int) *Converter {
	return &Converter{
		recognizer: recognizer,
		maxPages:   maxPages,
		lineWidth:  lineWidth,
	}
}

// NewConverterFromConfig wires a Vision recognizer when an API key is configured.
func NewConverterFromConfig(cfg *Config) (*Converter, error) {
	var recognizer Recognizer
	if cfg.VisionAPIKey != "" {
		client, err := NewVisionClient(cfg.VisionAPIKey, cfg.VisionEndpoint, &http.Client{Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		recognizer = client
	}

	return NewConverter(recognizer, cfg.MaxPages, cfg.LineWidth), nil
}

// Convert extracts the text of up to the configured number of pages and names
// the output <stem>_OCR.txt.
func (c *Converter) Convert(ctx context.Context, name string, data []byte) (*Result, error) {
	const op = "convert pdf"
	start := time.Now()
	logger := observability.FromContext(ctx)

	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		logger.Warn("rejected non-pdf upload", observability.String("file", name))
		return nil, domain.NewError(domain.KindInvalidInput, op, ErrNotPDF)
	}

	pages, total, err := ReadTextLayer(data, c.maxPages)
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidInput, op, err)
	}

	var missing []int
	for _, p := range pages {
		if p.Text == "" {
			missing = append(missing, p.Number)
		}
	}

	if len(missing) > 0 {
		if c.recognizer == nil {
			logger.Warn("pages without text layer and no recognizer configured",
				observability.Int("pages", len(missing)))
		} else if err := c.recognize(ctx, data, pages, missing); err != nil {
			return nil, domain.NewError(domain.KindTransport, op, err)
		}
	}

	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	if len(texts) == 0 {
		return nil, domain.NewError(domain.KindInvalidInput, op, ErrNoText)
	}

	text := strings.Join(texts, "\n")
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	result := &Result{
		Name:      stem + "_OCR.txt",
		Text:      text,
		Formatted: FormatTextWidth(strings.ReplaceAll(text, "\n", "\n\n"), c.lineWidth),
		Pages:     total,
		OCRPages:  missing,
		Runtime:   time.Since(start),
	}

	logger.Info("pdf converted",
		observability.String("file", name),
		observability.Int("pages", total),
		observability.Int("ocr_pages", len(missing)),
		observability.Duration("runtime", result.Runtime))

	return result, nil
}

func (c *Converter) recognize(ctx context.Context, data []byte, pages []PageText, missing []int) error {
	index := make(map[int]int, len(pages))
	for i, p := range pages {
		index[p.Number] = i
	}

	for start := 0; start < len(missing); start += MaxPagesPerRequest {
		end := min(start+MaxPagesPerRequest, len(missing))

		texts, err := c.recognizer.RecognizePages(ctx, data, missing[start:end])
		if err != nil {
			return err
		}

		for number, text := range texts {
			if i, ok := index[number]; ok {
				pages[i].Text = text
			}
		}
	}

	return nil
}
