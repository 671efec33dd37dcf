package http //nolint:testpackage // Need access to unexported views and status mapping

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/modelbench/internal/config"
	"github.com/davidbz/modelbench/internal/document"
	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/email"
	"github.com/davidbz/modelbench/internal/http/middleware"
	"github.com/davidbz/modelbench/internal/ocr"
	"github.com/davidbz/modelbench/internal/provider/echo"
	"github.com/davidbz/modelbench/internal/provider/registry"
	"github.com/davidbz/modelbench/internal/session"
	"github.com/davidbz/modelbench/internal/textclean"
)

type noticeBody struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	Model    string `json:"model"`
	Text     string `json:"text"`
}

type actionBody struct {
	Session sessionView `json:"session"`
	Outcome struct {
		Notices    []noticeBody `json:"notices"`
		Dispatched bool         `json:"dispatched"`
	} `json:"outcome"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	reg := registry.NewRegistry("echo")
	require.NoError(t, reg.Register(ctx, "echo", echo.NewFactory(echo.Config{
		Models:       []string{"gpt-4", "gpt-3.5-turbo", "text-davinci-003"},
		FlaggedTerms: []string{"forbidden"},
	})))

	catalog, err := domain.LoadCatalog("")
	require.NoError(t, err)
	pricing := domain.NewInMemoryPricingRegistry()
	require.NoError(t, catalog.RegisterPricing(ctx, pricing))

	comparison := domain.NewComparisonService(
		reg,
		domain.NewModelProber(catalog),
		domain.NewModerationGate(false),
		domain.NewDispatcher(domain.NewStandardCostCalculator(pricing)),
		nil,
	)

	cleaner := textclean.NewCleaner(textclean.NewWordList("information"), false, false)
	drafter := email.NewDrafter(reg, nil, &email.Config{Model: "text-davinci-003", Temperature: 0.8, TopP: 0.8, BestOf: 2})

	handler := NewHandler(
		comparison,
		session.NewMemoryStore(time.Hour),
		session.NewLocker(),
		document.NewConverter(cleaner),
		ocr.NewConverter(nil, 20, 120),
		drafter,
		&config.ServerConfig{Port: 0, MaxUploadMB: 1},
	)

	return NewServer(&config.ServerConfig{Port: 0, ReadTimeout: 5, WriteTimeout: 5}, handler, middleware.Chain(middleware.Trace()))
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return do(t, srv, req)
}

func decodeAction(t *testing.T, w *httptest.ResponseRecorder) actionBody {
	t.Helper()
	var body actionBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]string{"api_key": "sk-test"})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeAction(t, w).Session.ID
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]string{"api_key": "sk-test"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))
	require.NotContains(t, w.Body.String(), "sk-test")

	created := decodeAction(t, w)
	id := created.Session.ID
	require.NotEmpty(t, id)
	require.False(t, created.Session.Disabled)
	require.Len(t, created.Session.Models, 3)
	require.Equal(t, "gpt-4", created.Session.Models[0].Model)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/rounds", map[string]any{
		"init_prompt": "Be brief.",
		"follow_up":   "hello",
	})
	require.Equal(t, http.StatusOK, w.Code)

	round := decodeAction(t, w)
	require.True(t, round.Outcome.Dispatched)
	require.Empty(t, round.Outcome.Notices)
	require.Equal(t, "Be brief.", round.Session.InitPrompt)
	for _, col := range round.Session.Models {
		require.Len(t, col.Messages, 2)
		require.Equal(t, "hello", col.Messages[0].Content)
		require.Equal(t, "["+col.Model+"] hello", col.Messages[1].Content)
		require.Positive(t, col.Usage.TotalTokens)
	}

	w = doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view sessionView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	require.Len(t, view.Models[1].Messages, 2)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decodeAction(t, w)
	require.Empty(t, reset.Outcome.Notices)
	for _, col := range reset.Session.Models {
		require.Empty(t, col.Messages)
		require.Zero(t, col.Usage.TotalTokens)
	}

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	again := decodeAction(t, w)
	require.Len(t, again.Outcome.Notices, 1)
	require.Equal(t, "info", again.Outcome.Notices[0].Severity)

	w = doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"not_found"`)
}

func TestCreateSession_MissingKey(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeAction(t, w)
	require.True(t, body.Session.Disabled)
	require.NotEmpty(t, body.Session.ID)

	w = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+body.Session.ID+"/rounds", map[string]any{"init_prompt": "hi"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodPut, "/v1/sessions/"+body.Session.ID+"/key", map[string]string{"api_key": "sk-new"})
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, decodeAction(t, w).Session.Disabled)
}

func TestCreateSession_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader("{not json"))
	w := do(t, srv, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"invalid_input"`)
}

func TestRound_Moderated(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/rounds", map[string]any{
		"init_prompt": "This is forbidden content",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decodeAction(t, w)
	require.False(t, body.Outcome.Dispatched)
	require.Len(t, body.Outcome.Notices, 1)
	require.Equal(t, "moderated", body.Outcome.Notices[0].Kind)
	for _, col := range body.Session.Models {
		require.Empty(t, col.Messages)
	}
}

func TestRound_InvalidParams(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/rounds", map[string]any{
		"init_prompt": "Be brief.",
		"params":      map[string]any{"max_tokens": 5000, "temperature": 0.5, "top_p": 1},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRound_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/sessions/missing/rounds", map[string]any{"init_prompt": "hi"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRound_EventStream(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	raw, err := json.Marshal(map[string]any{"init_prompt": "Be brief.", "follow_up": "hello"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id+"/rounds", bytes.NewReader(raw))
	req.Header.Set("Accept", "text/event-stream")

	w := do(t, srv, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	stream := w.Body.String()
	require.Equal(t, 6, strings.Count(stream, "event: progress\n"))
	require.Equal(t, 1, strings.Count(stream, "event: outcome\n"))
	require.Contains(t, stream, `"done":true`)
	require.Less(t, strings.LastIndex(stream, "event: progress"), strings.Index(stream, "event: outcome"))
}

func TestBilling_ProviderWithoutBilling(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/billing", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "does not expose billing information")
}

func multipartUpload(t *testing.T, path, name string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sampleDocx(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	part, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>The infor- mation , is here .</w:t></w:r></w:p></w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestDocumentPDF(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, multipartUpload(t, "/v1/documents/pdf", "report.docx", sampleDocx(t)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), `filename="report.pdf"`)
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = do(t, srv, multipartUpload(t, "/v1/documents/pdf?format=text", "report.docx", sampleDocx(t)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), `filename="report.txt"`)
	require.Equal(t, "The information, is here.", w.Body.String())
}

func TestDocumentUploads_Rejected(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, multipartUpload(t, "/v1/documents/pdf", "notes.txt", []byte("hello")))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, multipartUpload(t, "/v1/documents/ocr", "notes.docx", []byte("hello")))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, multipartUpload(t, "/v1/documents/ocr", "", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "missing file field")

	w = do(t, srv, multipartUpload(t, "/v1/documents/pdf", "big.docx", bytes.Repeat([]byte("x"), 2<<20)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentOCR(t *testing.T) {
	srv := newTestServer(t)

	doc := fpdf.New("P", "mm", "Letter", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(0, 10, "Hello scanned world")
	var pdf bytes.Buffer
	require.NoError(t, doc.Output(&pdf))

	w := do(t, srv, multipartUpload(t, "/v1/documents/ocr", "scan.pdf", pdf.Bytes()))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), `filename="scan_OCR.txt"`)
	require.Contains(t, w.Body.String(), "Hello")

	w = do(t, srv, multipartUpload(t, "/v1/documents/ocr?format=json", "scan.pdf", pdf.Bytes()))
	require.Equal(t, http.StatusOK, w.Code)
	var result ocr.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.Equal(t, "scan_OCR.txt", result.Name)
	require.Equal(t, 1, result.Pages)
}

func TestDraftEmail(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/emails", map[string]any{
		"api_key":   "sk-test",
		"sender":    "Bob",
		"recipient": "Ann",
		"style":     "formal",
		"topics":    []string{"running late", "topic 2 (optional)"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var draft email.Draft
	require.NoError(t, json.NewDecoder(w.Body).Decode(&draft))
	require.Equal(t, "[text-davinci-003]", draft.Text)
	require.Len(t, draft.Contents, 1)

	w = doJSON(t, srv, http.MethodPost, "/v1/emails", map[string]any{
		"api_key": "sk-test",
		"topics":  []string{"topic 1"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", session.ErrSessionNotFound, http.StatusNotFound},
		{"unauthorized", domain.NewError(domain.KindUnauthorized, "op", errors.New("x")), http.StatusUnauthorized},
		{"invalid input", domain.InvalidInput("op", "x"), http.StatusBadRequest},
		{"rate limited", domain.NewError(domain.KindRateLimited, "op", errors.New("x")), http.StatusTooManyRequests},
		{"moderated", domain.NewError(domain.KindModerated, "op", errors.New("x")), http.StatusUnprocessableEntity},
		{"provider", domain.NewError(domain.KindProvider, "op", errors.New("x")), http.StatusBadGateway},
		{"transport", domain.NewError(domain.KindTransport, "op", errors.New("x")), http.StatusBadGateway},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
