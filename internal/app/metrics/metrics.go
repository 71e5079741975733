package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "audio_sessions"

// Stage names used as label values
const (
	StageSave       = "save"
	StageTranscribe = "transcribe"
	StageTransform  = "transform"
)

// PipelineMetrics records stage outcomes and latency
type PipelineMetrics struct {
	attempts  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	inFlight  *prometheus.GaugeVec
	cacheHits prometheus.Counter
	tokens    *prometheus.CounterVec
}

// NewPipelineMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_attempts_total",
			Help:      "Pipeline stage executions by stage.",
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures by stage and error kind.",
		}, []string{"stage", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of external pipeline stages.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage", "outcome"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_in_flight",
			Help:      "Stages currently waiting on an external service.",
		}, []string{"stage"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_cache_hits_total",
			Help:      "Transcriptions served from the transcript cache.",
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_used_total",
			Help:      "Tokens reported by external services.",
		}, []string{"stage"}),
	}

	if reg != nil {
		reg.MustRegister(m.attempts, m.failures, m.latency, m.inFlight, m.cacheHits, m.tokens)
	}
	return m
}

// Begin marks a stage as started and returns a func that records its end.
func (m *PipelineMetrics) Begin(stage string) func(kind string) {
	start := time.Now()
	m.attempts.WithLabelValues(stage).Inc()
	m.inFlight.WithLabelValues(stage).Inc()

	return func(kind string) {
		m.inFlight.WithLabelValues(stage).Dec()
		outcome := "success"
		if kind != "" {
			outcome = "failure"
			m.failures.WithLabelValues(stage, kind).Inc()
		}
		m.latency.WithLabelValues(stage, outcome).Observe(time.Since(start).Seconds())
	}
}

// RecordFailure counts a stage that failed before reaching an external service
func (m *PipelineMetrics) RecordFailure(stage, kind string) {
	m.attempts.WithLabelValues(stage).Inc()
	m.failures.WithLabelValues(stage, kind).Inc()
}

// RecordCacheHit counts a transcription served from cache
func (m *PipelineMetrics) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RecordTokens adds reported token usage
func (m *PipelineMetrics) RecordTokens(stage string, n int) {
	if n > 0 {
		m.tokens.WithLabelValues(stage).Add(float64(n))
	}
}
