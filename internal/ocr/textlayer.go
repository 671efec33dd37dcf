package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the text of one page; Number is 1-based.
type PageText struct {
	Number int
	Text   string
}

// ReadTextLayer extracts the embedded text of the first maxPages pages.
// Pages whose text cannot be decoded come back empty. A zero maxPages reads every page.
func ReadTextLayer(data []byte, maxPages int) (pages []PageText, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, total = nil, 0
			err = fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, errors.Join(ErrUnreadablePDF, err)
	}

	total = reader.NumPage()
	count := total
	if maxPages > 0 && maxPages < total {
		count = maxPages
	}

	pages = make([]PageText, 0, count)
	for n := 1; n <= count; n++ {
		page := PageText{Number: n}

		p := reader.Page(n)
		if !p.V.IsNull() {
			if text, textErr := p.GetPlainText(nil); textErr == nil {
				page.Text = strings.TrimSpace(text)
			}
		}

		pages = append(pages, page)
	}

	return pages, total, nil
}
