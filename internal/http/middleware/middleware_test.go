package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/modelbench/internal/config"
	"github.com/davidbz/modelbench/internal/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(tag("first"), tag("second"), tag("third"))(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestTrace(t *testing.T) {
	var seenRequestID, seenTraceID string
	handler := Trace()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = observability.GetRequestID(r.Context())
		seenTraceID = observability.GetTraceID(r.Context())
		_, ok := w.(http.Flusher)
		require.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates ids", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusTeapot, w.Code)
		require.NotEmpty(t, seenRequestID)
		require.Equal(t, seenRequestID, w.Header().Get("X-Request-Id"))
		require.Equal(t, seenTraceID, w.Header().Get("X-Trace-Id"))
	})

	t.Run("keeps client request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "req-from-client")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, "req-from-client", seenRequestID)
		require.Equal(t, "req-from-client", w.Header().Get("X-Request-Id"))
	})
}

func TestCORS(t *testing.T) {
	handler := CORS(&config.CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	exposed := w.Header().Get("Access-Control-Expose-Headers")
	require.Contains(t, exposed, "Content-Disposition")
	require.Contains(t, exposed, "Retry-After")

	require.NotNil(t, CORS(nil)(okHandler()))
}

func TestRateLimit(t *testing.T) {
	limiter := NewClientLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		Burst:             2,
		IdleTTL:           60,
	})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := RateLimit(limiter)(okHandler())
	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, call("10.0.0.1:1111"))
	require.Equal(t, http.StatusOK, call("10.0.0.1:2222"))
	require.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:3333"))
	require.Equal(t, http.StatusOK, call("10.0.0.2:1111"))

	now = now.Add(time.Second)
	require.Equal(t, http.StatusOK, call("10.0.0.1:1111"))

	now = now.Add(2 * time.Minute)
	call("10.0.0.3:1111")
	require.Equal(t, 1, limiter.Len())
}

func TestRateLimit_Disabled(t *testing.T) {
	require.Nil(t, NewClientLimiter(&config.RateLimitConfig{Enabled: false}))

	handler := RateLimit(nil)(okHandler())
	for range 10 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
