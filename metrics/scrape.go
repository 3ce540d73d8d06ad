package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScrapeRegistry implements Registry for scrape-based metrics collection.
// Metrics are registered with a Prometheus registry and exposed via HTTP.
type ScrapeRegistry struct {
	prom *prometheus.Registry
}

// ScrapeOption configures a ScrapeRegistry.
type ScrapeOption func(*scrapeOptions)

type scrapeOptions struct {
	runtime   bool
	buildInfo prometheus.Labels
}

// WithoutRuntimeCollectors skips the Go and process collectors.
func WithoutRuntimeCollectors() ScrapeOption {
	return func(o *scrapeOptions) {
		o.runtime = false
	}
}

// WithBuildInfo registers a constant build_info gauge carrying labels.
func WithBuildInfo(labels prometheus.Labels) ScrapeOption {
	return func(o *scrapeOptions) {
		o.buildInfo = labels
	}
}

// NewScrapeRegistry creates a new ScrapeRegistry.
func NewScrapeRegistry(opts ...ScrapeOption) (*ScrapeRegistry, error) {
	o := scrapeOptions{runtime: true}
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	if o.runtime {
		if err := reg.Register(collectors.NewGoCollector()); err != nil {
			return nil, fmt.Errorf("registering go collector: %w", err)
		}
		if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, fmt.Errorf("registering process collector: %w", err)
		}
	}
	if o.buildInfo != nil {
		info := prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "build_info",
			Help:        "Build information of the running binary.",
			ConstLabels: o.buildInfo,
		})
		info.Set(1)
		if err := reg.Register(info); err != nil {
			return nil, fmt.Errorf("registering build info: %w", err)
		}
	}

	return &ScrapeRegistry{prom: reg}, nil
}

// Handler returns an http.Handler for the /metrics endpoint.
func (r *ScrapeRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *ScrapeRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}

// NewGauge creates and registers a new Gauge.
func (r *ScrapeRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return register(r.prom, opts.Name, prometheus.NewGauge(opts))
}

// NewGaugeVec creates and registers a new GaugeVec.
func (r *ScrapeRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	vec, err := register(r.prom, opts.Name, prometheus.NewGaugeVec(opts, labels))
	if err != nil {
		return nil, err
	}
	return scrapeGaugeVec{vec}, nil
}

// NewCounter creates and registers a new Counter.
func (r *ScrapeRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	return register(r.prom, opts.Name, prometheus.NewCounter(opts))
}

// NewCounterVec creates and registers a new CounterVec.
func (r *ScrapeRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	vec, err := register(r.prom, opts.Name, prometheus.NewCounterVec(opts, labels))
	if err != nil {
		return nil, err
	}
	return scrapeCounterVec{vec}, nil
}

func register[C prometheus.Collector](reg *prometheus.Registry, name string, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var zero C
		return zero, fmt.Errorf("registering %q: %w", name, err)
	}
	return c, nil
}

// prometheus.Gauge and prometheus.Counter satisfy Gauge and Counter directly;
// only the vectors need adapting because With returns the prometheus types.

type scrapeGaugeVec struct {
	vec *prometheus.GaugeVec
}

func (g scrapeGaugeVec) With(labels prometheus.Labels) Gauge {
	return g.vec.With(labels)
}

type scrapeCounterVec struct {
	vec *prometheus.CounterVec
}

func (c scrapeCounterVec) With(labels prometheus.Labels) Counter {
	return c.vec.With(labels)
}
