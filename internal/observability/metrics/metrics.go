// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teleprompter_tracker"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsActive    prometheus.Gauge
	Restarts          *prometheus.CounterVec
	RestartLoopFaults prometheus.Counter
	EngineErrors      *prometheus.CounterVec

	// Transcript metrics
	Results *prometheus.CounterVec

	// Alignment metrics
	Matches         *prometheus.CounterVec
	NoMatches       *prometheus.CounterVec
	MatchScore      prometheus.Histogram
	PositionUpdates prometheus.Counter

	// Audio metrics
	AudioBytesSent prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of supervised recognition runs started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently running recognition runs",
		}),
		Restarts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_restarts_total",
			Help:      "Total number of transparent engine restarts",
		}, []string{"kind"}),
		RestartLoopFaults: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restart_loop_faults_total",
			Help:      "Total number of runs halted by a restart loop",
		}),
		EngineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Total number of recognition engine errors",
		}, []string{"code"}),

		// Transcript metrics
		Results: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_total",
			Help:      "Total number of transcript results received",
		}, []string{"kind"}),

		// Alignment metrics
		Matches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Total number of script windows selected, by threshold tier",
		}, []string{"tier"}),
		NoMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_matches_total",
			Help:      "Total number of transcript events that did not move the position",
		}, []string{"reason"}),
		MatchScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_score",
			Help:      "Weighted normalized edit distance of selected windows",
			Buckets:   []float64{0, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5},
		}),
		PositionUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "position_updates_total",
			Help:      "Total number of position updates delivered to subscribers",
		}),

		// Audio metrics
		AudioBytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_sent_total",
			Help:      "Total audio bytes streamed to the recognition service",
		}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of status API requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Status API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"route"}),
	}
}

// RecordSessionStart records a supervised run starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a supervised run ending.
func (m *Metrics) RecordSessionEnd() {
	m.SessionsActive.Dec()
}

// RecordRestart records a transparent engine restart ("immediate" or "debounced").
func (m *Metrics) RecordRestart(kind string) {
	m.Restarts.WithLabelValues(kind).Inc()
}

// RecordRestartLoop records a run halted by a restart loop.
func (m *Metrics) RecordRestartLoop() {
	m.RestartLoopFaults.Inc()
}

// RecordEngineError records an engine error event.
func (m *Metrics) RecordEngineError(code string) {
	m.EngineErrors.WithLabelValues(code).Inc()
}

// RecordResult records a transcript result.
func (m *Metrics) RecordResult(isFinal bool) {
	if isFinal {
		m.Results.WithLabelValues("final").Inc()
		return
	}
	m.Results.WithLabelValues("interim").Inc()
}

// RecordMatch records a selected script window.
func (m *Metrics) RecordMatch(tier int, score float64) {
	m.Matches.WithLabelValues(strconv.Itoa(tier)).Inc()
	m.MatchScore.Observe(score)
}

// RecordNoMatch records a transcript event that left the position unchanged.
func (m *Metrics) RecordNoMatch(reason string) {
	m.NoMatches.WithLabelValues(reason).Inc()
}

// RecordPositionUpdate records a position notification.
func (m *Metrics) RecordPositionUpdate() {
	m.PositionUpdates.Inc()
}

// RecordAudioSent records audio bytes streamed to the engine.
func (m *Metrics) RecordAudioSent(bytes int) {
	m.AudioBytesSent.Add(float64(bytes))
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a served status API request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(durationSeconds)
}
