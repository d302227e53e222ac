// Package metrics holds the Prometheus registry for the engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles all engine metrics on an isolated Prometheus registry.
type Registry struct {
	PassesTotal   prometheus.Counter
	PassDuration  prometheus.Histogram
	WritesTotal   *prometheus.CounterVec // kind: append|update
	RowsPruned    prometheus.Counter
	ParseMisses   prometheus.Counter
	Candidates    prometheus.Counter
	ScoreRequests *prometheus.CounterVec // tier
	ScoreFailures prometheus.Counter

	prom *prometheus.Registry
}

func NewRegistry() *Registry {
	r := &Registry{
		PassesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_passes_total",
			Help: "Reconciliation passes started",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signaldesk_pass_duration_seconds",
			Help:    "Wall time of one reconciliation pass",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_log_writes_total",
			Help: "Canonical log writes applied, by kind",
		}, []string{"kind"}),
		RowsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_rows_pruned_total",
			Help: "Data rows discarded by retention pruning",
		}),
		ParseMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_parse_misses_total",
			Help: "Chat messages matching neither signal shape",
		}),
		Candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_candidates_total",
			Help: "Candidate signals parsed from chat messages",
		}),
		ScoreRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_score_requests_total",
			Help: "Scoring calls served, by recommendation tier",
		}, []string{"tier"}),
		ScoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_score_failures_total",
			Help: "Scoring calls rejected for bad input or missing snapshot",
		}),
		prom: prometheus.NewRegistry(),
	}

	r.prom.MustRegister(
		r.PassesTotal, r.PassDuration, r.WritesTotal, r.RowsPruned,
		r.ParseMisses, r.Candidates, r.ScoreRequests, r.ScoreFailures,
	)
	return r
}

// Handler serves this registry for scraping.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}
