package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
	"github.com/davidbz/modelbench/internal/session"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// statusFor maps an error to the HTTP status the client sees.
func statusFor(err error) int {
	if errors.Is(err, session.ErrSessionNotFound) {
		return http.StatusNotFound
	}

	switch domain.KindOf(err) {
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindModerated:
		return http.StatusUnprocessableEntity
	case domain.KindProvider, domain.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func kindName(err error) string {
	if errors.Is(err, session.ErrSessionNotFound) {
		return "not_found"
	}
	return domain.KindOf(err).String()
}

// outcomeStatus is 200 unless the action itself failed or moderation blocked dispatch.
func outcomeStatus(out domain.Outcome) int {
	if out.Err != nil {
		return statusFor(out.Err)
	}
	if !out.Dispatched {
		for _, n := range out.Notices {
			if n.Kind == domain.KindModerated {
				return http.StatusUnprocessableEntity
			}
		}
	}
	return http.StatusOK
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Status already written, just log.
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)

	logger := observability.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Int("status", status), observability.Error(err))
	} else {
		logger.Warn("request rejected", observability.Int("status", status), observability.Error(err))
	}

	writeJSON(ctx, w, status, errorResponse{Error: errorDetail{Kind: kindName(err), Message: err.Error()}})
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event, err)
	}
	return nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewError(domain.KindInvalidInput, "decode request", fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}
