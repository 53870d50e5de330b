// Package metrics exposes Prometheus instrumentation for the ledger and its
// HTTP surface. Collectors register on the default registry, served at /metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

const outcomeOK = "ok"

var (
	// Ledger Operation Metrics
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations by outcome (ok or error kind)",
		},
		[]string{"operation", "outcome"},
	)

	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations in seconds, including the store commit",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Ledger Event Metrics (fed by the event dispatcher)
	LedgerEventsObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_total",
			Help: "Total number of committed ledger events by type",
		},
		[]string{"type"},
	)

	CodesMinted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_codes_minted_total",
			Help: "Total number of one-time codes minted",
		},
	)

	SeatsClaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_seats_claimed_total",
			Help: "Total number of seats claimed",
		},
	)

	DispatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_event_dispatch_failures_total",
			Help: "Total number of ledger events that could not be dispatched",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being handled",
		},
	)
)

// RecordLedgerOperation records the outcome and latency of one ledger operation.
func RecordLedgerOperation(operation string, duration time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	LedgerOperations.WithLabelValues(operation, outcome).Inc()
	LedgerOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records API request metrics.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDispatchFailure counts a ledger event that never reached its handlers.
func RecordDispatchFailure() {
	DispatchFailures.Inc()
}

// ObserveLedgerEvent is a domain.EventHandler feeding the ledger event counters.
func ObserveLedgerEvent(_ context.Context, event *domain.LedgerEvent) error {
	LedgerEventsObserved.WithLabelValues(string(event.Type)).Inc()
	switch event.Type {
	case domain.LedgerCodeMinted:
		CodesMinted.Inc()
	case domain.LedgerSeatClaimed:
		SeatsClaimed.Inc()
	}
	return nil
}
