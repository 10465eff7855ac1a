package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signature_gateway"

// Verification outcomes
const (
	OutcomeAccepted    = "accepted"
	OutcomeMissingKey  = "missing_secret"
	OutcomeMalformed   = "malformed"
	OutcomeExpired     = "expired"
	OutcomeMismatch    = "mismatch"
	OutcomeReplayed    = "replayed"
	OutcomeUnavailable = "unavailable"
)

type GatewayMetrics struct {
	RequestsTotal          *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
	RequestSize            *prometheus.HistogramVec
	ResponseSize           *prometheus.HistogramVec
	RequestsInFlight       prometheus.Gauge
	RequestTimeouts        *prometheus.CounterVec
	RequestErrors          *prometheus.CounterVec
	SignatureVerifications *prometheus.CounterVec
	UpstreamSigned         *prometheus.CounterVec
}

var (
	defaultMetrics *GatewayMetrics
	once           sync.Once
)

func newMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		// Labels: client (格式: name-version), status_code
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests handled by the gateway",
			},
			[]string{"client", "status_code"},
		),

		// 请求延迟直方图（毫秒）
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_milliseconds",
				Help:      "Request duration in milliseconds",
				Buckets:   []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
			},
			[]string{"client"},
		),

		// 桶分布：100B, 1KB, 10KB, 100KB, 1MB, 10MB
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_size_bytes",
				Help:      "Request size in bytes",
				Buckets:   []float64{100, 1024, 10240, 102400, 1048576, 10485760},
			},
			[]string{"client"},
		),

		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_size_bytes",
				Help:      "Response size in bytes",
				Buckets:   []float64{100, 1024, 10240, 102400, 1048576, 10485760},
			},
			[]string{"client", "status_code"},
		),

		// 客户信息在签名校验之后才可知，并发数不区分客户
		RequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Current number of requests being processed",
			},
		),

		RequestTimeouts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_timeouts_total",
				Help:      "Total number of upstream timeouts",
			},
			[]string{"client"},
		),

		// Labels: client, error_type
		RequestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_errors_total",
				Help:      "Total number of 5xx responses",
			},
			[]string{"client", "error_type"},
		),

		// Labels: outcome (accepted, missing_secret, malformed, expired, mismatch, replayed, unavailable)
		SignatureVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signature_verifications_total",
				Help:      "Total number of signature verifications by outcome",
			},
			[]string{"outcome"},
		),

		// 转发时重新签名的请求数
		UpstreamSigned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_signed_requests_total",
				Help:      "Total number of proxied requests re-signed for the upstream",
			},
			[]string{"target"},
		),
	}
}

// GetMetrics returns the process-wide collectors, registering them on first use.
func GetMetrics() *GatewayMetrics {
	once.Do(func() {
		defaultMetrics = newMetrics()
	})
	return defaultMetrics
}
