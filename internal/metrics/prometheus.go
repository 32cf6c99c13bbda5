package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the storefront client
type Metrics struct {
	// Storefront API metrics
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrors          *prometheus.CounterVec
	APIInFlight        prometheus.Gauge

	// Voice capture metrics
	RecordingsStarted  prometheus.Counter
	RecordingsRejected prometheus.Counter
	RecordingOutcomes  *prometheus.CounterVec
	ActiveRecordings   prometheus.Gauge
	RecordedBytes      prometheus.Histogram

	// Transcription metrics
	TranscriptionDuration   prometheus.Histogram
	TranscriptionConfidence prometheus.Histogram

	// Cart metrics
	CartActions   *prometheus.CounterVec
	CartReloads   prometheus.Counter
	CartItems     prometheus.Gauge
	CartUnits     prometheus.Gauge
	CartTotal     prometheus.Gauge
	DuplicateHits *prometheus.CounterVec

	// View metrics
	NotificationsShown *prometheus.CounterVec
	SearchesApplied    prometheus.Counter

	// Status server metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Storefront API metrics
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of requests sent to the storefront service",
		}, []string{"method", "endpoint", "status_code"}),
		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Duration of storefront service requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"method", "endpoint"}),
		APIErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_errors_total",
			Help: "Total number of failed storefront service requests",
		}, []string{"method", "endpoint", "error_type"}),
		APIInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_api_in_flight_requests",
			Help: "Current number of in-flight storefront service requests",
		}),

		// Voice capture metrics
		RecordingsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_recordings_started_total",
			Help: "Total number of voice recordings started",
		}),
		RecordingsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_recordings_rejected_total",
			Help: "Total number of voice triggers rejected because a session was active",
		}),
		RecordingOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_recording_outcomes_total",
			Help: "Voice recording sessions by final state",
		}, []string{"outcome"}),
		ActiveRecordings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_active_recordings",
			Help: "Current number of active voice recording sessions",
		}),
		RecordedBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_recorded_audio_bytes",
			Help:    "Size of uploaded voice recordings in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),

		// Transcription metrics
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_transcription_duration_seconds",
			Help:    "Duration of transcription uploads",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}),
		TranscriptionConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_transcription_confidence",
			Help:    "Confidence reported for successful transcriptions",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
		}),

		// Cart metrics
		CartActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_actions_total",
			Help: "Cart mutations by action and result",
		}, []string{"action", "result"}),
		CartReloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_reloads_total",
			Help: "Total number of cart snapshots fetched",
		}),
		CartItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_items",
			Help: "Number of lines in the last cart snapshot",
		}),
		CartUnits: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_units",
			Help: "Number of units in the last cart snapshot",
		}),
		CartTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_total",
			Help: "Total value of the last cart snapshot",
		}),
		DuplicateHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_duplicate_triggers_total",
			Help: "Triggers rejected because the same action was still in flight",
		}, []string{"action"}),

		// View metrics
		NotificationsShown: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_notifications_total",
			Help: "Notifications shown to the user by kind",
		}, []string{"kind"}),
		SearchesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_searches_applied_total",
			Help: "Total number of product filter passes",
		}),

		// Status server metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_status_http_requests_total",
			Help: "Total number of status server requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_status_http_request_duration_seconds",
			Help:    "Duration of status server requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_status_http_errors_total",
			Help: "Total number of status server errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordAPIRequest records a completed storefront request
func (m *Metrics) RecordAPIRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.APIRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.APIRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordAPIError records a failed storefront request
func (m *Metrics) RecordAPIError(method, endpoint, errorType string) {
	m.APIErrors.WithLabelValues(method, endpoint, errorType).Inc()
}

// RecordRecordingStarted increments the started counter and the active gauge
func (m *Metrics) RecordRecordingStarted() {
	m.RecordingsStarted.Inc()
	m.ActiveRecordings.Inc()
}

// RecordRecordingRejected increments the rejected trigger counter
func (m *Metrics) RecordRecordingRejected() {
	m.RecordingsRejected.Inc()
}

// RecordRecordingFinished records the final state of a session that reached Recording
func (m *Metrics) RecordRecordingFinished(outcome string, audioBytes int) {
	m.ActiveRecordings.Dec()
	m.RecordingOutcomes.WithLabelValues(outcome).Inc()
	if audioBytes > 0 {
		m.RecordedBytes.Observe(float64(audioBytes))
	}
}

// RecordPermissionFailure records a session that never got the device
func (m *Metrics) RecordPermissionFailure() {
	m.RecordingOutcomes.WithLabelValues("permission_denied").Inc()
}

// RecordTranscription records a transcription upload
func (m *Metrics) RecordTranscription(durationSeconds float64, confidence float64, success bool) {
	m.TranscriptionDuration.Observe(durationSeconds)
	if success {
		m.TranscriptionConfidence.Observe(confidence)
	}
}

// RecordCartAction records a cart mutation result
func (m *Metrics) RecordCartAction(action, result string) {
	m.CartActions.WithLabelValues(action, result).Inc()
}

// RecordCartSnapshot records the shape of a freshly loaded snapshot
func (m *Metrics) RecordCartSnapshot(items, units int, total float64) {
	m.CartReloads.Inc()
	m.CartItems.Set(float64(items))
	m.CartUnits.Set(float64(units))
	m.CartTotal.Set(total)
}

// RecordDuplicate records a rejected duplicate trigger
func (m *Metrics) RecordDuplicate(action string) {
	m.DuplicateHits.WithLabelValues(action).Inc()
}

// RecordNotification records a notification shown to the user
func (m *Metrics) RecordNotification(kind string) {
	m.NotificationsShown.WithLabelValues(kind).Inc()
}

// RecordSearch increments the filter pass counter
func (m *Metrics) RecordSearch() {
	m.SearchesApplied.Inc()
}

// RecordHTTPRequest records a status server request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records a status server error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
