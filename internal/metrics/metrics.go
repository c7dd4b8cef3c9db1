package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for analyses.
const (
	OutcomeOK          = "ok"
	OutcomeDecodeError = "decode_error"
	OutcomeUnavailable = "unavailable"
	OutcomeUpstream    = "upstream_error"
	OutcomeBadRequest  = "bad_request"
)

// Recorder owns its registry so tests and multiple servers don't collide on
// the global one. A nil *Recorder is a no-op.
type Recorder struct {
	reg      *prometheus.Registry
	analyses *prometheus.CounterVec
	upstream *prometheus.HistogramVec
	history  prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aivision",
			Name:      "analyses_total",
			Help:      "Analysis requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aivision",
			Name:      "upstream_duration_seconds",
			Help:      "Latency of provider calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"provider", "operation"}),
		history: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aivision",
			Name:      "history_size",
			Help:      "Records currently held in the history log.",
		}),
	}
	r.reg.MustRegister(r.analyses, r.upstream, r.history,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return r
}

func (r *Recorder) Analysis(mode, outcome string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(mode, outcome).Inc()
}

func (r *Recorder) Upstream(provider, operation string, d time.Duration) {
	if r == nil {
		return
	}
	r.upstream.WithLabelValues(provider, operation).Observe(d.Seconds())
}

func (r *Recorder) HistorySize(n int) {
	if r == nil {
		return
	}
	r.history.Set(float64(n))
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
