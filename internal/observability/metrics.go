package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the prometheus collectors for the notification center.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	apiErrorsTotal  *prometheus.CounterVec

	deliveriesTotal   *prometheus.CounterVec
	digestFlushes     *prometheus.CounterVec
	digestItemsTotal  prometheus.Counter
	retrySweeps       prometheus.Counter
	retryAttempts     *prometheus.CounterVec
	publishFailures   prometheus.Counter
	bufferedDigestSet prometheus.Gauge
}

// NewMetrics initializes metric collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_http_requests_total",
			Help: "HTTP requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		apiErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_api_errors_total",
			Help: "API errors by path, method and error code.",
		}, []string{"path", "method", "code"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Channel delivery outcomes.",
		}, []string{"channel", "status"}),
		digestFlushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_digest_flushes_total",
			Help: "Digest flush runs by frequency.",
		}, []string{"frequency"}),
		digestItemsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_digest_items_total",
			Help: "Notifications delivered inside digest messages.",
		}),
		retrySweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_retry_sweeps_total",
			Help: "Retry pipeline sweep runs.",
		}),
		retryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_retry_attempts_total",
			Help: "Retry attempt outcomes.",
		}, []string{"outcome"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_realtime_publish_failures_total",
			Help: "Best-effort realtime publish failures.",
		}),
		bufferedDigestSet: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_digest_buffered_users",
			Help: "Users with a non-empty digest buffer.",
		}),
	}
}

// MustRegister registers all collectors with the given registry.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.apiErrorsTotal,
		m.deliveriesTotal,
		m.digestFlushes,
		m.digestItemsTotal,
		m.retrySweeps,
		m.retryAttempts,
		m.publishFailures,
		m.bufferedDigestSet,
	)
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError records an API error by code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.apiErrorsTotal.WithLabelValues(path, method, code).Inc()
}

// RecordDelivery records one channel delivery outcome.
func (m *Metrics) RecordDelivery(channel, status string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(channel, status).Inc()
}

// RecordDigestFlush records a digest flush run.
func (m *Metrics) RecordDigestFlush(frequency string, items int) {
	if m == nil {
		return
	}
	m.digestFlushes.WithLabelValues(frequency).Inc()
	m.digestItemsTotal.Add(float64(items))
}

// RecordRetrySweep records a retry sweep run.
func (m *Metrics) RecordRetrySweep() {
	if m == nil {
		return
	}
	m.retrySweeps.Inc()
}

// RecordRetryAttempt records one retry attempt outcome.
func (m *Metrics) RecordRetryAttempt(outcome string) {
	if m == nil {
		return
	}
	m.retryAttempts.WithLabelValues(outcome).Inc()
}

// RecordPublishFailure records a failed realtime publish.
func (m *Metrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// SetBufferedUsers tracks how many users currently hold buffered digests.
func (m *Metrics) SetBufferedUsers(n int) {
	if m == nil {
		return
	}
	m.bufferedDigestSet.Set(float64(n))
}
