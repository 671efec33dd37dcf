package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/davidbz/modelbench/internal/config"
	"github.com/davidbz/modelbench/internal/document"
	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/email"
	"github.com/davidbz/modelbench/internal/observability"
	"github.com/davidbz/modelbench/internal/ocr"
	"github.com/davidbz/modelbench/internal/session"
)

// Handler handles HTTP requests.
type Handler struct {
	comparison *domain.ComparisonService
	store      session.Store
	locker     *session.Locker
	documents  *document.Converter
	ocr        *ocr.Converter
	drafter    *email.Drafter
	maxUpload  int64
	now        func() time.Time
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	comparison *domain.ComparisonService,
	store session.Store,
	locker *session.Locker,
	documents *document.Converter,
	ocrConverter *ocr.Converter,
	drafter *email.Drafter,
	cfg *config.ServerConfig,
) *Handler {
	return &Handler{
		comparison: comparison,
		store:      store,
		locker:     locker,
		documents:  documents,
		ocr:        ocrConverter,
		drafter:    drafter,
		maxUpload:  cfg.MaxUploadMB << 20,
		now:        time.Now,
	}
}

type keyRequest struct {
	APIKey string `json:"api_key"`
}

// HandleCreateSession creates a session and verifies the submitted key.
// The session is kept even when verification fails so the key can be re-entered.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req keyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.store.Create(ctx)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("failed to create session: %w", err))
		return
	}
	ctx = observability.WithSessionID(ctx, sess.ID)

	out := h.comparison.VerifyKey(ctx, sess, req.APIKey)
	if err := h.store.Save(ctx, sess); err != nil {
		writeError(ctx, w, fmt.Errorf("failed to save session: %w", err))
		return
	}

	status := http.StatusCreated
	if out.Err != nil {
		status = statusFor(out.Err)
	}

	writeJSON(ctx, w, status, actionResponse{Session: newSessionView(sess), Outcome: out})
}

// HandleVerifyKey re-verifies a session with a new key.
func (h *Handler) HandleVerifyKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req keyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.withSession(w, r, func(ctx context.Context, sess *domain.Session) {
		out := h.comparison.VerifyKey(ctx, sess, req.APIKey)
		h.finishAction(ctx, w, sess, out)
	})
}

// HandleGetSession returns the session view.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.store.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, newSessionView(sess))
}

// HandleRound runs one dispatch round. With Accept: text/event-stream the
// progress updates are streamed before the outcome.
func (h *Handler) HandleRound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in := domain.RoundInput{Params: domain.DefaultGenerationParams()}
	if err := decodeJSON(r, &in); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.withSession(w, r, func(ctx context.Context, sess *domain.Session) {
		if flusher, ok := w.(http.Flusher); ok && wantsEventStream(r) {
			h.streamRound(ctx, w, flusher, sess, in)
			return
		}

		out := h.comparison.FetchResponses(ctx, sess, in, nil)
		h.finishAction(ctx, w, sess, out)
	})
}

func (h *Handler) streamRound(
	ctx context.Context,
	w http.ResponseWriter,
	flusher http.Flusher,
	sess *domain.Session,
	in domain.RoundInput,
) {
	logger := observability.FromContext(ctx)
	logger.Info("round stream started")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	progress := func(p domain.Progress) {
		if err := writeEvent(w, "progress", p); err != nil {
			logger.Warn("progress event dropped", observability.Error(err))
			return
		}
		flusher.Flush()
	}

	out := h.comparison.FetchResponses(ctx, sess, in, progress)

	if err := h.store.Save(ctx, sess); err != nil {
		logger.Error("failed to save session", observability.Error(err))
		_ = writeEvent(w, "error", errorDetail{Kind: kindName(err), Message: err.Error()})
		flusher.Flush()
		return
	}

	if err := writeEvent(w, "outcome", actionResponse{Session: newSessionView(sess), Outcome: out}); err != nil {
		logger.Error("outcome event dropped", observability.Error(err))
		return
	}
	flusher.Flush()

	logger.Info("round stream completed")
}

// HandleReset clears the session's histories and counters.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, sess *domain.Session) {
		out := h.comparison.Reset(ctx, sess)
		h.finishAction(ctx, w, sess, out)
	})
}

// HandleDeleteSession removes the session and its credential.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, sess *domain.Session) {
		if err := h.store.Delete(ctx, sess.ID); err != nil {
			writeError(ctx, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// HandleBilling returns the subscription and month-to-date usage.
func (h *Handler) HandleBilling(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.store.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	ctx = observability.WithSessionID(ctx, sess.ID)

	report, err := h.comparison.Billing(ctx, sess, h.now())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, report)
}

// HandleDocumentPDF cleans a .docx upload and returns the PDF, or the text with ?format=text.
func (h *Handler) HandleDocumentPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, data, err := h.readUpload(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.documents.Convert(ctx, name, data)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		writeAttachment(w, "text/plain; charset=utf-8", strings.TrimSuffix(result.Name, ".pdf")+".txt", []byte(result.Text))
		return
	}

	writeAttachment(w, "application/pdf", result.Name, result.PDF)
}

// HandleDocumentOCR extracts the text of a PDF upload as <stem>_OCR.txt, or
// the full result with ?format=json.
func (h *Handler) HandleDocumentOCR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, data, err := h.readUpload(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.ocr.Convert(ctx, name, data)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		writeJSON(ctx, w, http.StatusOK, result)
		return
	}

	writeAttachment(w, "text/plain; charset=utf-8", result.Name, []byte(result.Text))
}

// HandleDraftEmail drafts an email from topic notes.
func (h *Handler) HandleDraftEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req email.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	draft, err := h.drafter.Draft(ctx, &req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, draft)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// withSession runs fn with the path's session loaded under its lock, so
// actions on one session never interleave.
func (h *Handler) withSession(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, sess *domain.Session),
) {
	id := r.PathValue("id")
	ctx := observability.WithSessionID(r.Context(), id)

	unlock, err := h.locker.Lock(ctx, id)
	if err != nil {
		writeError(ctx, w, domain.NewError(domain.KindTransport, "lock session", err))
		return
	}
	defer unlock()

	sess, err := h.store.Get(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	fn(ctx, sess)
}

func (h *Handler) finishAction(ctx context.Context, w http.ResponseWriter, sess *domain.Session, out domain.Outcome) {
	if err := h.store.Save(ctx, sess); err != nil {
		writeError(ctx, w, fmt.Errorf("failed to save session: %w", err))
		return
	}

	writeJSON(ctx, w, outcomeStatus(out), actionResponse{Session: newSessionView(sess), Outcome: out})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	const op = "read upload"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, domain.NewError(domain.KindInvalidInput, op,
				fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
		}
		return "", nil, domain.NewError(domain.KindInvalidInput, op, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, domain.NewError(domain.KindInvalidInput, op, fmt.Errorf("missing file field: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, domain.NewError(domain.KindInvalidInput, op, err)
	}

	return header.Filename, data, nil
}

func writeAttachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
