package openai

import (
	"errors"
	"net/http"

	"github.com/openai/openai-go"

	"github.com/davidbz/modelbench/internal/domain"
)

// classify maps an SDK error to a domain error kind by HTTP status.
func classify(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.NewError(domain.KindUnauthorized, op, err)
		case http.StatusTooManyRequests:
			return domain.NewError(domain.KindRateLimited, op, err)
		default:
			return domain.NewError(domain.KindProvider, op, err)
		}
	}

	return domain.NewError(domain.KindTransport, op, err)
}
