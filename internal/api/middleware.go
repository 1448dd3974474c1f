package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bowerhall/rumbo/internal/metrics"
	"github.com/bowerhall/rumbo/internal/telemetry"
)

// requestLogger traces, logs and counts every request by route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx, span := telemetry.StartSpan(r.Context(), "http "+r.Method)
		defer span.End()

		next.ServeHTTP(ww, r.WithContext(ctx))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), duration)
		logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", duration,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
