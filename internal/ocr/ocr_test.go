package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/modelbench/internal/domain"
)

// buildPDF renders one page per entry; an empty entry becomes a page with no text.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Cell(0, 10, text)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

type fakeRecognizer struct {
	texts map[int]string
	err   error
	calls [][]int
}

func (f *fakeRecognizer) RecognizePages(_ context.Context, _ []byte, pages []int) (map[int]string, error) {
	f.calls = append(f.calls, append([]int(nil), pages...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int]string, len(pages))
	for _, p := range pages {
		if text, ok := f.texts[p]; ok {
			out[p] = text
		}
	}
	return out, nil
}

func TestReadTextLayer(t *testing.T) {
	data := buildPDF(t, "Hello scanned world", "", "Third page")

	pages, total, err := ReadTextLayer(data, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, pages, 3)
	assert.Contains(t, pages[0].Text, "Hello")
	assert.Empty(t, pages[1].Text)
	assert.Equal(t, 3, pages[2].Number)
}

func TestReadTextLayer_MaxPages(t *testing.T) {
	data := buildPDF(t, "one", "two", "three")

	pages, total, err := ReadTextLayer(data, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, pages, 2)
}

func TestReadTextLayer_Garbage(t *testing.T) {
	_, _, err := ReadTextLayer([]byte("not a pdf at all"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadablePDF)
}

func TestConverter_Convert(t *testing.T) {
	data := buildPDF(t, "Hello scanned world", "")
	rec := &fakeRecognizer{texts: map[int]string{2: "Recognized text"}}
	conv := NewConverter(rec, 20, 120)

	result, err := conv.Convert(context.Background(), "letter.pdf", data)
	require.NoError(t, err)

	assert.Equal(t, "letter_OCR.txt", result.Name)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, []int{2}, result.OCRPages)
	assert.Contains(t, result.Text, "Hello")
	assert.Contains(t, result.Text, "\nRecognized text")
	assert.Contains(t, result.Formatted, "\n\nRecognized text")
	assert.Equal(t, [][]int{{2}}, rec.calls)
}

func TestConverter_Convert_BatchesRecognition(t *testing.T) {
	data := buildPDF(t, "", "", "", "", "", "", "")
	rec := &fakeRecognizer{texts: map[int]string{1: "a", 7: "g"}}
	conv := NewConverter(rec, 20, 120)

	result, err := conv.Convert(context.Background(), "scan.PDF", data)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}, {6, 7}}, rec.calls)
	assert.Equal(t, "a\ng", result.Text)
}

func TestConverter_Convert_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not a pdf", func(t *testing.T) {
		_, err := NewConverter(nil, 20, 120).Convert(ctx, "notes.docx", []byte("x"))
		require.ErrorIs(t, err, ErrNotPDF)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		_, err := NewConverter(nil, 20, 120).Convert(ctx, "broken.pdf", []byte("garbage"))
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})

	t.Run("no text and no recognizer", func(t *testing.T) {
		_, err := NewConverter(nil, 20, 120).Convert(ctx, "blank.pdf", buildPDF(t, ""))
		require.ErrorIs(t, err, ErrNoText)
	})

	t.Run("recognizer failure", func(t *testing.T) {
		rec := &fakeRecognizer{err: errors.New("quota exceeded")}
		_, err := NewConverter(rec, 20, 120).Convert(ctx, "blank.pdf", buildPDF(t, ""))
		require.Error(t, err)
		assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	})
}

func TestVisionClient_RecognizePages(t *testing.T) {
	data := []byte("%PDF-fake")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req annotateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Requests, 1) {
			file := req.Requests[0]
			assert.Equal(t, "application/pdf", file.InputConfig.MimeType)
			assert.Equal(t, base64.StdEncoding.EncodeToString(data), file.InputConfig.Content)
			assert.Equal(t, []int{2, 4}, file.Pages)
			assert.Equal(t, "DOCUMENT_TEXT_DETECTION", file.Features[0].Type)
		}

		_, _ = w.Write([]byte(`{"responses":[{"responses":[
			{"fullTextAnnotation":{"text":"page two\n"},"context":{"pageNumber":2}},
			{"error":{"code":3,"message":"bad page"},"context":{"pageNumber":4}}
		],"totalPages":4}]}`))
	}))
	defer srv.Close()

	client, err := NewVisionClient("secret", srv.URL, srv.Client())
	require.NoError(t, err)

	texts, err := client.RecognizePages(context.Background(), data, []int{2, 4})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{2: "page two"}, texts)
}

func TestVisionClient_Errors(t *testing.T) {
	_, err := NewVisionClient("", "http://example.invalid", nil)
	require.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/denied":
			http.Error(w, "forbidden", http.StatusForbidden)
		case "/empty":
			_, _ = w.Write([]byte(`{"responses":[]}`))
		default:
			_, _ = w.Write([]byte(`{"responses":[{"error":{"code":7,"message":"billing disabled"}}]}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	client, _ := NewVisionClient("k", srv.URL+"/denied", srv.Client())
	_, err = client.RecognizePages(ctx, nil, []int{1})
	assert.ErrorContains(t, err, "status 403")

	client, _ = NewVisionClient("k", srv.URL+"/empty", srv.Client())
	_, err = client.RecognizePages(ctx, nil, []int{1})
	assert.ErrorIs(t, err, ErrVisionEmptyResponse)

	client, _ = NewVisionClient("k", srv.URL+"/file", srv.Client())
	_, err = client.RecognizePages(ctx, nil, []int{1})
	assert.ErrorContains(t, err, "billing disabled")

	_, err = client.RecognizePages(ctx, nil, []int{1, 2, 3, 4, 5, 6})
	assert.Error(t, err)
}

func TestFormatTextWidth(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{name: "short line untouched", text: "hello world", width: 20, want: "hello world"},
		{name: "breaks at last space", text: "aaa bbb ccc", width: 8, want: "aaa bbb\nccc"},
		{name: "hard split without spaces", text: "abcdefghij", width: 4, want: "abcd\nefgh\nij"},
		{name: "keeps existing newlines", text: "ab cd\n\nef", width: 3, want: "ab\ncd\n\nef"},
		{name: "non-positive width", text: "abc def", width: 0, want: "abc def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTextWidth(tt.text, tt.width))
		})
	}
}
