package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rumbo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rumbo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Conversation metrics
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rumbo_turns_total",
			Help: "Total number of conversation turns by router decision",
		},
		[]string{"decision"},
	)

	turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rumbo_turn_duration_seconds",
			Help:    "Conversation turn duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"decision"},
	)

	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rumbo_model_calls_total",
			Help: "Total number of language model calls",
		},
		[]string{"provider", "status"},
	)

	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rumbo_tool_calls_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool", "status"},
	)

	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rumbo_tool_call_duration_seconds",
			Help:    "Tool invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rumbo_approvals_total",
			Help: "Total number of approval events",
		},
		[]string{"outcome"},
	)

	// State gauges
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rumbo_active_sessions",
			Help: "Number of sessions held in memory",
		},
	)

	pendingApprovals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rumbo_pending_approvals",
			Help: "Number of sessions awaiting an approval decision",
		},
	)

	initOnce sync.Once
)

// Tool outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Approval outcome labels
const (
	ApprovalRequested = "requested"
	ApprovalApproved  = "approved"
	ApprovalRejected  = "rejected"
	ApprovalCancelled = "cancelled"
)

// Init registers all collectors with the default registry.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			turnsTotal,
			turnDuration,
			modelCallsTotal,
			toolCallsTotal,
			toolCallDuration,
			approvalsTotal,
			activeSessions,
			pendingApprovals,
		)
	})
}

// Handler returns an HTTP handler for Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordTurn(decision string, duration time.Duration) {
	turnsTotal.WithLabelValues(decision).Inc()
	turnDuration.WithLabelValues(decision).Observe(duration.Seconds())
}

func RecordModelCall(provider string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	modelCallsTotal.WithLabelValues(provider, status).Inc()
}

func RecordToolCall(tool, status string, duration time.Duration) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func RecordApproval(outcome string) {
	approvalsTotal.WithLabelValues(outcome).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func SetPendingApprovals(n int) {
	pendingApprovals.Set(float64(n))
}
