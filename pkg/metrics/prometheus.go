package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus instruments for the ingest service.
type Recorder struct {
	requests    *prometheus.CounterVec
	validations *prometheus.CounterVec
	corrections prometheus.Counter
	conversions *prometheus.CounterVec
	llmTokens   prometheus.Counter
	duration    *prometheus.HistogramVec
}

// NewRecorder registers the instruments on the given registerer. Pass
// prometheus.DefaultRegisterer unless running under test.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	const (
		namespace = "tmf921"
		subsystem = "bridge"
	)
	return &Recorder{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of intent requests",
			},
			[]string{"source", "status"},
		),
		validations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "validations_total",
				Help:      "Validation verdicts by stage outcome",
			},
			[]string{"outcome"},
		),
		corrections: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "name_corrections_total",
				Help:      "Characteristic names rewritten by the corrector",
			},
		),
		conversions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "icm_conversions_total",
				Help:      "Simple to ICM conversion attempts",
			},
			[]string{"status"},
		),
		llmTokens: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "llm_tokens_total",
				Help:      "Tokens consumed by LLM generations",
			},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "processing_duration_seconds",
				Help:      "End-to-end intent processing time",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"source"},
		),
	}
}

// ObserveRequest records one processed request.
func (r *Recorder) ObserveRequest(source, status string, took time.Duration) {
	r.requests.WithLabelValues(source, status).Inc()
	r.duration.WithLabelValues(source).Observe(took.Seconds())
}

// ObserveValidation records a verdict outcome label (valid, invalid,
// implausible).
func (r *Recorder) ObserveValidation(outcome string) {
	r.validations.WithLabelValues(outcome).Inc()
}

// ObserveCorrections records name corrections applied to one intent.
func (r *Recorder) ObserveCorrections(n int) {
	r.corrections.Add(float64(n))
}

// ObserveConversion records one ICM conversion attempt.
func (r *Recorder) ObserveConversion(ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	r.conversions.WithLabelValues(status).Inc()
}

// ObserveTokens records tokens spent on a generation.
func (r *Recorder) ObserveTokens(n int) {
	r.llmTokens.Add(float64(n))
}
