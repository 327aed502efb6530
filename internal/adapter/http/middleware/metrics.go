package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Metrics returns middleware that records HTTP metrics.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPInFlight.Inc()
			defer m.HTTPInFlight.Dec()

			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

const walletsPrefix = "/api/v1/wallets/"

// normalizePath normalizes URL paths to avoid high cardinality.
//
//	/api/v1/wallets/6f1c.../operations/key-1 -> /api/v1/wallets/:id/operations/:key
func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, walletsPrefix)
	if !ok || rest == "" {
		return path
	}

	parts := strings.Split(rest, "/")
	parts[0] = ":id"
	if len(parts) >= 3 && parts[1] == "operations" && parts[2] != "" {
		parts[2] = ":key"
	}

	return walletsPrefix + strings.Join(parts, "/")
}
