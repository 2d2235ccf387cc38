package monitoring

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets issued, by pass class",
		},
		[]string{"pass_class"},
	)

	validations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_validations_total",
			Help: "Total scan validations, by outcome and gate",
		},
		[]string{"result", "reason", "gate_id"},
	)

	debounceHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_debounce_hits_total",
			Help: "Scans answered from the gate suppression window",
		},
		[]string{"gate_id"},
	)

	ticketsRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_revoked_total",
			Help: "Total tickets revoked by administrative action",
		},
	)

	validateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_validate_duration_seconds",
			Help:    "Duration of scan validations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"result"},
	)
)

// TrackIssued records a successful issuance
func TrackIssued(passClass string) {
	ticketsIssued.WithLabelValues(passClass).Inc()
}

// TrackValidation records a scan validation outcome
func TrackValidation(result, reason, gateID string) {
	validations.WithLabelValues(result, reason, gateID).Inc()
}

// TrackDebounceHit records a scan answered from the suppression window
func TrackDebounceHit(gateID string) {
	debounceHits.WithLabelValues(gateID).Inc()
}

// TrackRevoked records an administrative revocation
func TrackRevoked() {
	ticketsRevoked.Inc()
}

// ObserveValidateDuration records how long one validation took
func ObserveValidateDuration(result string, d time.Duration) {
	validateDuration.WithLabelValues(result).Observe(d.Seconds())
}

// StartMetricsServer exposes /metrics on its own port, away from the gate
// and booking traffic.
func StartMetricsServer(port string) {
	e := echo.New()
	e.GET("/metrics", func(c echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})

	srv := &http.Server{Addr: ":" + port, Handler: e}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()
}
