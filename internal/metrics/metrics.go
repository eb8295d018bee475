package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simaogato/multibank-backend/internal/domain"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "multibank",
			Subsystem: "core",
			Name:      "operations_total",
			Help:      "Total number of dashboard commands by outcome.",
		},
		[]string{"operation", "result"},
	)

	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "multibank",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Total number of Backend Gateway calls.",
		},
		[]string{"op", "result"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "multibank",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Duration of Backend Gateway calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"op"},
	)

	questCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "multibank",
			Subsystem: "quest",
			Name:      "completions_total",
			Help:      "Total number of completed quests.",
		},
		[]string{"tier"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "multibank",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(
		operations,
		gatewayCalls,
		gatewayDuration,
		questCompletions,
		httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Result maps an operation error to a low-cardinality label
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrRemote):
		return "remote"
	case errors.Is(err, domain.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, domain.ErrNoCurrentQuest):
		return "no_current_quest"
	default:
		return "error"
	}
}

// RecordOperation counts one dashboard command
func RecordOperation(operation string, err error) {
	operations.WithLabelValues(operation, Result(err)).Inc()
}

// RecordGatewayCall records one Backend Gateway round trip
func RecordGatewayCall(op string, duration time.Duration, err error) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	gatewayCalls.WithLabelValues(op, Result(err)).Inc()
	gatewayDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordQuestCompletion counts a completed quest
func RecordQuestCompletion(premium bool) {
	tier := "free"
	if premium {
		tier = "premium"
	}
	questCompletions.WithLabelValues(tier).Inc()
}

// RegisterLedgerGauges exposes live ledger totals, read on every scrape
func RegisterLedgerGauges(totalBalance func() float64, accountCount func() float64) {
	Registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "multibank",
			Subsystem: "ledger",
			Name:      "total_balance",
			Help:      "Sum of all account balances.",
		}, totalBalance),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "multibank",
			Subsystem: "ledger",
			Name:      "accounts",
			Help:      "Number of active accounts.",
		}, accountCount),
	)
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(strings.ToUpper(r.Method), r.URL.Path, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
