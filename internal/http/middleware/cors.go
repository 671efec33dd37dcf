package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/modelbench/internal/config"
)

// exposedHeaders are readable by browser clients: the attachment name of
// converted documents and the correlation ids for support requests.
var exposedHeaders = []string{"Content-Disposition", "Retry-After", "X-Request-Id", "X-Trace-Id"}

// CORS lets the comparison page, served from another origin, call the session,
// document and email endpoints. A nil config disables cross-origin access.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	policy := cors.New(corsOptions(cfg))
	return policy.Handler
}

func corsOptions(cfg *config.CORSConfig) cors.Options {
	return cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
}
