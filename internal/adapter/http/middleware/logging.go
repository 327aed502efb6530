package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/adapter/http/handler"
)

// RequestLogger logs one line per request. Client errors log at warn, server errors at error.
// Wallet routes also carry the wallet id, idempotency key and replay flag.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var event *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				event = logger.Error()
			case status >= http.StatusBadRequest:
				event = logger.Warn()
			default:
				event = logger.Info()
			}

			event = event.
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr)

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if walletID := rctx.URLParam("wallet_uuid"); walletID != "" {
					event = event.Str("wallet_id", walletID)
				}
			}
			if key := ww.Header().Get(handler.IdempotencyKeyHeader); key != "" {
				event = event.Str("idempotency_key", key)
			}
			if ww.Header().Get(handler.IdempotencyReplayHeader) == "true" {
				event = event.Bool("replayed", true)
			}

			event.Msg("request completed")
		})
	}
}
