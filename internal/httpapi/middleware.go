package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scieloorg/documentstore/internal/metrics"
)

// CorrelationMiddleware reads X-Correlation-ID and attaches it to the
// request logger, generating one when the client does not provide it.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		w.Header().Set("X-Correlation-ID", correlationID)

		logger := log.With().Str("correlationId", correlationID).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// MetricsMiddleware records request duration, in-progress count and
// response size per route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsInProgress.Inc()
		defer metrics.RequestsInProgress.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		metrics.RequestDuration.WithLabelValues(pattern, r.Method).
			Observe(time.Since(start).Seconds())
		metrics.ResponseSize.WithLabelValues(pattern).
			Observe(float64(ww.BytesWritten()))
	})
}
