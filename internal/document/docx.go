// Package document converts Word documents into cleaned-up PDFs.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"

	defaultStyleName = "Normal"

	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// ErrMissingBody indicates the archive has no main document part.
var ErrMissingBody = errors.New("docx archive has no word/document.xml")

// Paragraph is one body paragraph with its style name.
type Paragraph struct {
	Style string
	Text  string
}

// IsHeading reports whether the paragraph uses a heading style.
func (p Paragraph) IsHeading() bool {
	return strings.HasPrefix(p.Style, "Heading")
}

// ReadDocx returns the body paragraphs of a .docx archive in document order.
// Paragraphs inside tables are skipped.
func ReadDocx(r io.ReaderAt, size int64) ([]Paragraph, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}

	var body, styles *zip.File
	for _, f := range archive.File {
		switch f.Name {
		case documentPart:
			body = f
		case stylesPart:
			styles = f
		}
	}
	if body == nil {
		return nil, ErrMissingBody
	}

	names := styleNames{byID: map[string]string{}, defaultName: defaultStyleName}
	if styles != nil {
		if err := readPart(styles, names.decode); err != nil {
			return nil, fmt.Errorf("failed to read styles: %w", err)
		}
	}

	var paragraphs []Paragraph
	err = readPart(body, func(dec *xml.Decoder) error {
		var perr error
		paragraphs, perr = decodeParagraphs(dec, names)
		return perr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read document body: %w", err)
	}

	return paragraphs, nil
}

// ReadDocxBytes is ReadDocx over an in-memory archive.
func ReadDocxBytes(data []byte) ([]Paragraph, error) {
	return ReadDocx(bytes.NewReader(data), int64(len(data)))
}

func readPart(f *zip.File, decode func(*xml.Decoder) error) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return decode(xml.NewDecoder(rc))
}

type styleNames struct {
	byID        map[string]string
	defaultName string
}

func (s styleNames) name(id string) string {
	if id == "" {
		return s.defaultName
	}
	if n, ok := s.byID[id]; ok {
		return n
	}
	return id
}

func (s *styleNames) decode(dec *xml.Decoder) error {
	var (
		id        string
		isDefault bool
		paragraph bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				id = attr(t, "styleId")
				isDefault = attr(t, "default") == "1"
				paragraph = attr(t, "type") == "paragraph"
			case "name":
				if id == "" {
					continue
				}
				name := displayName(attr(t, "val"))
				s.byID[id] = name
				if isDefault && paragraph {
					s.defaultName = name
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				id, isDefault, paragraph = "", false, false
			}
		}
	}
}

// builtinStyles maps the lowercase names Word stores for built-in styles to
// the names shown in its UI.
var builtinStyles = map[string]string{
	"caption": "Caption",
	"footer":  "Footer",
	"header":  "Header",
	"normal":  "Normal",
	"title":   "Title",
}

func displayName(stored string) string {
	if name, ok := builtinStyles[stored]; ok {
		return name
	}
	if level, ok := strings.CutPrefix(stored, "heading "); ok && len(level) == 1 && level[0] >= '1' && level[0] <= '9' {
		return "Heading " + level
	}
	return stored
}

func decodeParagraphs(dec *xml.Decoder, names styleNames) ([]Paragraph, error) {
	var (
		paragraphs []Paragraph
		tableDepth int
		nested     int
		inPara     bool
		inRun      bool
		inText     bool
		styleID    string
		text       strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return paragraphs, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				if !inPara {
					tableDepth++
				}
			case "p":
				switch {
				case inPara:
					nested++
				case tableDepth == 0:
					inPara = true
					styleID = ""
					text.Reset()
				}
			case "pStyle":
				if inPara && nested == 0 {
					styleID = attr(t, "val")
				}
			case "r":
				if nested == 0 {
					inRun = inPara
				}
			case "t":
				inText = inRun && nested == 0
			case "tab":
				if inRun && nested == 0 {
					text.WriteString("\t")
				}
			case "br", "cr":
				if inRun && nested == 0 {
					text.WriteString("\n")
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				if !inPara {
					tableDepth--
				}
			case "r":
				if nested == 0 {
					inRun = false
				}
			case "t":
				inText = false
			case "p":
				switch {
				case nested > 0:
					nested--
				case inPara:
					paragraphs = append(paragraphs, Paragraph{Style: names.name(styleID), Text: text.String()})
					inPara = false
				}
			}
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
