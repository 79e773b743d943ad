package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sgBuckets spans a terrible shot to a holed bunker shot.
var sgBuckets = []float64{-2, -1, -0.5, -0.25, -0.1, 0, 0.1, 0.25, 0.5, 1, 2}

// Recorder implements the domain Metrics interface using Prometheus.
type Recorder struct {
	roundsAnalyzed *prometheus.CounterVec
	shotsTotal     prometheus.Counter
	shotsReview    prometheus.Counter
	strokesGained  *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg, or on the default
// registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		roundsAnalyzed: f.NewCounterVec(
			prometheus.CounterOpts{Name: "shottrace_rounds_analyzed_total", Help: "Rounds analysed, by backend they were routed to"},
			[]string{"backend"},
		),
		shotsTotal: f.NewCounter(
			prometheus.CounterOpts{Name: "shottrace_shots_derived_total", Help: "Shots derived across all rounds"},
		),
		shotsReview: f.NewCounter(
			prometheus.CounterOpts{Name: "shottrace_shots_needs_review_total", Help: "Derived shots whose confidence is below the review threshold"},
		),
		strokesGained: f.NewHistogramVec(
			prometheus.HistogramOpts{Name: "shottrace_strokes_gained", Help: "Strokes gained per scored shot", Buckets: sgBuckets},
			[]string{"category"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{Name: "shottrace_errors_total", Help: "Errors encountered, by kind"},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{Name: "shottrace_operation_duration_seconds", Help: "Duration of operations in seconds", Buckets: prometheus.DefBuckets},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRoundAnalyzed(backend string) {
	r.roundsAnalyzed.WithLabelValues(backend).Inc()
}

func (r *Recorder) RecordShots(total, needsReview int) {
	r.shotsTotal.Add(float64(total))
	r.shotsReview.Add(float64(needsReview))
}

func (r *Recorder) RecordStrokesGained(category string, sg float64) {
	r.strokesGained.WithLabelValues(category).Observe(sg)
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything. Used where metrics are optional.
type Nop struct{}

func (Nop) RecordRoundAnalyzed(string)          {}
func (Nop) RecordShots(int, int)                {}
func (Nop) RecordStrokesGained(string, float64) {}
func (Nop) RecordError(string)                  {}
func (Nop) RecordLatency(string, float64)       {}
