package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StageFetch    = "fetch"
	StageIndex    = "index"
	StageQuery    = "query"
	StageSearch   = "search"
	StageGenerate = "generate"
)

// Recorder owns a private registry so tests and multiple instances never
// collide on the global one.
type Recorder struct {
	registry  *prometheus.Registry
	ingest    *prometheus.CounterVec
	questions *prometheus.CounterVec
	snippets  *prometheus.CounterVec
	stages    *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ingest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webrag_ingest_total",
			Help: "URL processing attempts by result.",
		}, []string{"result"}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webrag_questions_total",
			Help: "Questions answered by result.",
		}, []string{"result"}),
		snippets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webrag_snippet_total",
			Help: "Web snippet lookups by result.",
		}, []string{"result"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webrag_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.ingest, r.questions, r.snippets, r.stages)
	return r
}

// ObserveIngest counts one URL outcome: "ok", "stale" or an error kind.
func (r *Recorder) ObserveIngest(result string) {
	if r == nil {
		return
	}
	r.ingest.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveQuestion(result string) {
	if r == nil {
		return
	}
	r.questions.WithLabelValues(result).Inc()
}

// ObserveSnippet counts "hit", "empty" or "error".
func (r *Recorder) ObserveSnippet(result string) {
	if r == nil {
		return
	}
	r.snippets.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// Registry exposes the underlying registry for gathering in tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
