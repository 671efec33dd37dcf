package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageSize        = "Letter"
	fontFamily      = "Helvetica"
	fontSize        = 12
	pageBreakMargin = 15
	lineHeight      = 10
)

// RenderPDF writes text as a Letter-size PDF, one left-aligned multi-line
// cell per input line.
func RenderPDF(text string, w io.Writer) error {
	pdf := fpdf.New("P", "mm", pageSize, "")
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", fontSize)
	pdf.SetAutoPageBreak(true, pageBreakMargin)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, line := range strings.Split(text, "\n") {
		pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}

	return nil
}
