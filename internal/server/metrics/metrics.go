// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booktag"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qrcode_registrations_total",
			Help:      "QR code registration attempts by outcome",
		},
		[]string{"result"}, // success, already_registered, not_found, error
	)

	verificationCodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_codes_issued_total",
			Help:      "Total number of verification codes issued",
		},
	)

	verificationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_attempts_total",
			Help:      "Verification code submissions by outcome",
		},
		[]string{"result"}, // success, mismatch, expired, no_code, not_found, too_many_attempts, error
	)

	eventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be handed to the broker",
		},
	)
)

// RecordHTTPRequest records one served request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveRegistration records the outcome of a RegisterOwner call.
func ObserveRegistration(err error) {
	registrationsTotal.WithLabelValues(RegistrationResult(err)).Inc()
}

func RegistrationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// RecordVerificationCodeIssued increments the issued codes counter.
func RecordVerificationCodeIssued() {
	verificationCodesIssued.Inc()
}

// ObserveVerificationAttempt records the outcome of a ValidateCode call.
func ObserveVerificationAttempt(err error) {
	verificationAttemptsTotal.WithLabelValues(VerificationResult(err)).Inc()
}

func VerificationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrCodeMismatch):
		return "mismatch"
	case errors.Is(err, common.ErrCodeExpired):
		return "expired"
	case errors.Is(err, common.ErrNoCodeOutstanding):
		return "no_code"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrTooManyAttempts):
		return "too_many_attempts"
	default:
		return "error"
	}
}

// RecordEventPublishFailure increments the failed publication counter.
func RecordEventPublishFailure() {
	eventPublishFailures.Inc()
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
