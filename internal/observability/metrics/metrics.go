// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "caption_timing"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Timeline metrics
	TimelinesResolved *prometheus.CounterVec
	ResolveDuration   prometheus.Histogram
	TimelineWords     *prometheus.CounterVec
	MatchRatio        prometheus.Histogram
	TimelinesClamped  prometheus.Counter

	// ASR metrics
	ASRRequests *prometheus.CounterVec
	ASRErrors   *prometheus.CounterVec
	ASRLatency  *prometheus.HistogramVec

	// Audio probe metrics
	ProbeFailures prometheus.Counter

	// Job metrics
	JobsProcessed *prometheus.CounterVec
	JobDuration   prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Service metrics
	ServiceUp prometheus.Gauge
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Timeline metrics
		TimelinesResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timelines_resolved_total",
			Help:      "Total number of timelines resolved, by strategy",
		}, []string{"method"}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "End-to-end timeline resolution duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 15, 30, 60},
		}),
		TimelineWords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_words_total",
			Help:      "Total words emitted into timelines, by timing source",
		}, []string{"source"}),
		MatchRatio: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asr_match_ratio",
			Help:      "Ratio of ASR word count to authoritative word count",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.7, 0.8, 0.9, 1.0, 1.1},
		}),
		TimelinesClamped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timelines_clamped_total",
			Help:      "Total number of timelines whose final word end was clamped",
		}),

		// ASR metrics
		ASRRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asr_requests_total",
			Help:      "Total number of ASR transcription requests",
		}, []string{"provider"}),
		ASRErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asr_errors_total",
			Help:      "Total number of failed ASR transcription requests",
		}, []string{"provider"}),
		ASRLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asr_latency_seconds",
			Help:      "ASR transcription latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 15, 30, 60, 120},
		}, []string{"provider"}),

		// Audio probe metrics
		ProbeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_probe_failures_total",
			Help:      "Total number of failed audio duration probes",
		}),

		// Job metrics
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Total number of caption jobs processed, by outcome",
		}, []string{"status"}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Caption job processing duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 15, 30, 60, 120},
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

		// Service metrics
		ServiceUp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_up",
			Help:      "1 when the service has finished starting up",
		}),
	}
}

// Word timing source labels for TimelineWords.
const (
	WordSourceMatched     = "matched"
	WordSourceSynthesized = "synthesized"
	WordSourceEstimated   = "estimated"
)

// RecordTimelineResolved records one resolved timeline and its duration.
func (m *Metrics) RecordTimelineResolved(method string, durationSeconds float64) {
	m.TimelinesResolved.WithLabelValues(method).Inc()
	m.ResolveDuration.Observe(durationSeconds)
}

// RecordWordSource records n words emitted from the given timing source.
func (m *Metrics) RecordWordSource(source string, n int) {
	if n <= 0 {
		return
	}
	m.TimelineWords.WithLabelValues(source).Add(float64(n))
}

// RecordMatchRatio records the adapter's ASR/authoritative word ratio.
func (m *Metrics) RecordMatchRatio(ratio float64) {
	m.MatchRatio.Observe(ratio)
}

// RecordClamp records a timeline whose final end was pulled back.
func (m *Metrics) RecordClamp() {
	m.TimelinesClamped.Inc()
}

// RecordASRRequest records an ASR transcription attempt.
func (m *Metrics) RecordASRRequest(provider string, err error, latencySeconds float64) {
	m.ASRRequests.WithLabelValues(provider).Inc()
	m.ASRLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.ASRErrors.WithLabelValues(provider).Inc()
	}
}

// RecordProbeFailure records a failed audio duration probe.
func (m *Metrics) RecordProbeFailure() {
	m.ProbeFailures.Inc()
}

// RecordJob records a processed job and its duration.
func (m *Metrics) RecordJob(status string, durationSeconds float64) {
	m.JobsProcessed.WithLabelValues(status).Inc()
	m.JobDuration.Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// SetUp marks the service as started (1) or stopping (0).
func (m *Metrics) SetUp(up bool) {
	if up {
		m.ServiceUp.Set(1)
	} else {
		m.ServiceUp.Set(0)
	}
}
