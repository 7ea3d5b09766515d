package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iho/zensubmit/internal/domain"
)

// Metrics holds the Prometheus metrics of one zensubmit run. They are kept
// on a private registry and written to a textfile at exit for the node
// exporter to pick up.
type Metrics struct {
	Registry *prometheus.Registry

	// Command metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Transactions      *prometheus.CounterVec

	// Ledger API metrics
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zensubmit_operations_total",
				Help: "Total operations by name and result",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zensubmit_operation_duration_seconds",
				Help:    "Duration of operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zensubmit_transactions_total",
				Help: "Transactions sent to the ledger or printed by a dry run",
			},
			[]string{"mode"},
		),

		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zensubmit_gateway_requests_total",
				Help: "Total ledger API requests",
			},
			[]string{"code", "method"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zensubmit_gateway_duration_seconds",
				Help:    "Ledger API request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code", "method"},
		),
	}
}

// InstrumentRoundTripper wraps next so every ledger request is counted and timed.
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.GatewayRequests,
		promhttp.InstrumentRoundTripperDuration(m.GatewayDuration, next))
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	m.Operations.WithLabelValues(operation, Result(err)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveTransactions counts n transactions sent (dryRun false) or printed.
func (m *Metrics) ObserveTransactions(n int, dryRun bool) {
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	m.Transactions.WithLabelValues(mode).Add(float64(n))
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Result maps an operation error to a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUsage):
		return "usage"
	case errors.Is(err, domain.ErrInput):
		return "input"
	case errors.Is(err, domain.ErrReviewNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrGatewayResponse):
		return "gateway_response"
	case errors.Is(err, domain.ErrGateway):
		return "gateway"
	case errors.Is(err, domain.ErrSubmission):
		return "submission"
	default:
		return "error"
	}
}
