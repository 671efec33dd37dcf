package document

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
)

// ErrNotDocx indicates the upload is not a Word document.
var ErrNotDocx = errors.New("file is not a .docx document")

// Cleaner cleans one non-heading paragraph.
type Cleaner interface {
	Paragraph(text string) string
}

// Result is a converted document.
type Result struct {
	Name     string
	Text     string
	PDF      []byte
	Duration time.Duration
}

// Converter turns .docx uploads into cleaned text and PDF.
type Converter struct {
	cleaner Cleaner
}

// NewConverter creates a converter.
func NewConverter(cleaner Cleaner) *Converter {
	return &Converter{cleaner: cleaner}
}

// Process keeps headings verbatim on their own lines and cleans every other paragraph.
func (c *Converter) Process(paragraphs []Paragraph) string {
	out := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		if p.IsHeading() {
			out[i] = "\n" + p.Text + "\n"
			continue
		}
		out[i] = c.cleaner.Paragraph(p.Text)
	}
	return strings.Join(out, "\n")
}

// Convert reads a .docx upload, cleans it and renders <basename>.pdf.
func (c *Converter) Convert(ctx context.Context, name string, data []byte) (*Result, error) {
	const op = "convert document"
	start := time.Now()
	logger := observability.FromContext(ctx)

	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		return nil, domain.NewError(domain.KindInvalidInput, op, ErrNotDocx)
	}

	paragraphs, err := ReadDocxBytes(data)
	if err != nil {
		logger.Warn("docx parsing failed", observability.String("file", name), observability.Error(err))
		return nil, domain.NewError(domain.KindInvalidInput, op, err)
	}

	text := c.Process(paragraphs)

	var buf bytes.Buffer
	if err := RenderPDF(text, &buf); err != nil {
		return nil, err
	}

	result := &Result{
		Name:     strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + ".pdf",
		Text:     text,
		PDF:      buf.Bytes(),
		Duration: time.Since(start),
	}

	logger.Info("document converted",
		observability.String("file", name),
		observability.Int("paragraphs", len(paragraphs)),
		observability.Int("pdf_bytes", len(result.PDF)),
		observability.Duration("duration", result.Duration))

	return result, nil
}
