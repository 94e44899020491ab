// Package observability provides HTTP request metrics and the server that
// hosts the control API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"voice-query-client/internal/observability/metrics"
)

// Middleware records request count and latency per route pattern and logs
// each request.
func Middleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}

			status := ww.Status()
			if status == 0 {
				// Hijacked connections never write a status.
				if r.Header.Get("Upgrade") == "websocket" {
					status = http.StatusSwitchingProtocols
				} else {
					status = http.StatusOK
				}
			}

			m.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), duration.Seconds())
			log.Debug().
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Str("requestId", middleware.GetReqID(r.Context())).
				Dur("duration", duration).
				Msg("HTTP request")
		})
	}
}
