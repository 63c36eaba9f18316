package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_errors_total",
			Help: "Total number of pipeline errors by kind",
		},
		[]string{"kind"},
	)
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockcast_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	fetchedRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockcast_fetched_rows",
			Help: "Rows returned by the last fetch per symbol",
		},
		[]string{"symbol"},
	)
	memoLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_memo_lookups_total",
			Help: "Memo table lookups by function and result",
		},
		[]string{"fn", "result"},
	)
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcast_runs_total",
			Help: "Dashboard pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	regOnce sync.Once
)

// Recorder implements domain.repository.Metrics using Prometheus.
// All recorders share the process-wide collectors.
type Recorder struct{}

// New registers the collectors on first use and returns a recorder.
func New() *Recorder {
	regOnce.Do(func() {
		prometheus.MustRegister(errorsTotal, stageDuration, fetchedRows, memoLookups, runsTotal)
	})
	return &Recorder{}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRows records the row count of the last fetch for a symbol.
func (r *Recorder) RecordRows(symbol string, rows int) {
	fetchedRows.WithLabelValues(symbol).Set(float64(rows))
}

// RecordMemo records a memo table hit or miss.
func (r *Recorder) RecordMemo(fn string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	memoLookups.WithLabelValues(fn, result).Inc()
}

// RecordRun records a finished pipeline run.
func (r *Recorder) RecordRun(outcome string) {
	runsTotal.WithLabelValues(outcome).Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
func (Nop) RecordRows(string, int)        {}
func (Nop) RecordMemo(string, bool)       {}
func (Nop) RecordRun(string)              {}
