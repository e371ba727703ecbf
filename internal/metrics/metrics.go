// Package metrics exposes pipeline metrics for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the pipeline collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	factorLookups   *prometheus.CounterVec
	scoresTotal     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	jobsTotal       *prometheus.CounterVec
	extractionTotal *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewRecorder creates the collectors and registers them on registry.
func NewRecorder(registry *prometheus.Registry) (*Recorder, error) {
	r := &Recorder{registry: registry}
	r.initMetrics()
	for _, c := range r.collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewDefault returns a Recorder on a fresh registry that also carries the
// Go runtime and process collectors.
func NewDefault() (*Recorder, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return NewRecorder(reg)
}

func (r *Recorder) initMetrics() {
	r.factorLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecolabel_factor_lookups_total",
			Help: "Ingredient factor lookups by indicator and resolution method",
		},
		[]string{"indicator", "method"},
	)
	r.scoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecolabel_scores_total",
			Help: "Eco-scores computed, by letter grade",
		},
		[]string{"grade"},
	)
	r.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecolabel_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"stage"},
	)
	r.jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecolabel_jobs_total",
			Help: "Scoring jobs finished, by outcome",
		},
		[]string{"status"},
	)
	r.extractionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecolabel_extractions_total",
			Help: "Ingredient extractions, by extractor that answered",
		},
		[]string{"source"},
	)
	r.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecolabel_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	r.collectors = []prometheus.Collector{
		r.factorLookups, r.scoresTotal, r.stageDuration, r.jobsTotal, r.extractionTotal, r.httpRequests,
	}
}

func (r *Recorder) FactorResolved(indicator, method string) {
	if r == nil {
		return
	}
	r.factorLookups.WithLabelValues(indicator, method).Inc()
}

func (r *Recorder) ScoreComputed(grade string) {
	if r == nil {
		return
	}
	r.scoresTotal.WithLabelValues(grade).Inc()
}

// ObserveStage records how long a pipeline stage took since start.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (r *Recorder) JobFinished(status string) {
	if r == nil {
		return
	}
	r.jobsTotal.WithLabelValues(status).Inc()
}

func (r *Recorder) Extracted(source string) {
	if r == nil {
		return
	}
	r.extractionTotal.WithLabelValues(source).Inc()
}

func (r *Recorder) HTTPRequest(route, method string, code int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
