package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	conversions        *prom.CounterVec
	docrefOutcomes     *prom.CounterVec
	generationDuration *prom.HistogramVec
	buildDuration      *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.conversions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "llmdocs",
			Name:      "conversions_total",
			Help:      "HTML to markdown conversions by result",
		}, []string{"result"})
		pr.docrefOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "llmdocs",
			Name:      "docref_outcomes_total",
			Help:      "Docref resolutions by outcome (fresh, generated, failed)",
		}, []string{"outcome"})
		pr.generationDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "llmdocs",
			Name:      "generation_duration_seconds",
			Help:      "Duration of summary generation calls",
			Buckets:   prom.DefBuckets,
		}, []string{"model"})
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "llmdocs",
			Name:      "stage_duration_seconds",
			Help:      "Duration of build stages (convert, resolve)",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		reg.MustRegister(pr.conversions, pr.docrefOutcomes, pr.generationDuration, pr.buildDuration)
	})
	return pr
}

func (p *PrometheusRecorder) IncConversion(success bool) {
	if p == nil || p.conversions == nil {
		return
	}
	result := "success"
	if !success {
		result = "skipped"
	}
	p.conversions.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncDocrefOutcome(outcome DocrefOutcome) {
	if p == nil || p.docrefOutcomes == nil {
		return
	}
	p.docrefOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveGenerationDuration(model string, d time.Duration) {
	if p == nil || p.generationDuration == nil {
		return
	}
	p.generationDuration.WithLabelValues(model).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(stage string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
