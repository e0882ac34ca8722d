// Package metrics defines the Prometheus collectors shared by the
// object-store client and the HTTP surface, and the standalone
// exporter that serves them.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// ObjectStoreResponseTime tracks the elapsed time between the
	// request for an XML and the response.
	ObjectStoreResponseTime = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "kernel_objectstore_response_time_seconds",
		Help: "Elapsed time between the request for an XML and the response",
	})

	// ObjectStoreRequestFailures counts failed object-store requests.
	ObjectStoreRequestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kernel_objectstore_request_failures_total",
		Help: "Total number of failures when requesting an XML from the object-store",
	})

	// RequestDuration tracks time spent processing HTTP requests per
	// route pattern and method.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "kernel_restfulapi_request_duration_seconds",
		Help: "Time spent processing HTTP requests",
	}, []string{"handler", "method"})

	// RequestsInProgress gauges the HTTP requests currently being
	// processed.
	RequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kernel_restfulapi_requests_inprogress",
		Help: "Current number of HTTP requests being processed",
	})

	// ResponseSize summarises response sizes per route pattern.
	ResponseSize = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name: "kernel_restfulapi_response_size_bytes",
		Help: "Summary of response size for HTTP requests",
	}, []string{"handler"})
)

// StartExporter serves the default registry on its own port. It runs
// in a background goroutine and never blocks the caller.
func StartExporter(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", port).Msg("starting prometheus exporter")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("prometheus exporter failed")
		}
	}()
}
