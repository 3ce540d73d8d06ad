package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second
)

// PushRegistry implements Registry for push-based metrics collection.
// Metric updates are buffered; Flush sends the current value of every series
// to a Prometheus remote write endpoint in one request.
type PushRegistry struct {
	store      *sampleStore
	url        string
	httpClient *http.Client
	prefix     string
	job        string
	instance   string
	now        func() time.Time
}

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint (e.g., "http://localhost:8428").
	URL string
	// Prefix is prepended to every metric name, followed by an underscore.
	Prefix string
	// Job is the job label for all metrics.
	Job string
	// Instance is the instance label for all metrics.
	Instance string
	// Timeout is the HTTP client timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// NewPushRegistry creates a new PushRegistry that pushes metrics to the given URL.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &PushRegistry{
		store:      newSampleStore(),
		url:        cfg.URL + "/api/v1/write",
		httpClient: &http.Client{Timeout: timeout},
		prefix:     cfg.Prefix,
		job:        cfg.Job,
		instance:   cfg.Instance,
		now:        time.Now,
	}
}

// NewGauge creates a new push-based Gauge.
func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return &pushGauge{store: r.store, name: opts.Name}, nil
}

// NewGaugeVec creates a new push-based GaugeVec.
func (r *PushRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	return &pushGaugeVec{store: r.store, name: opts.Name}, nil
}

// NewCounter creates a new push-based Counter.
func (r *PushRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	return &pushCounter{store: r.store, name: opts.Name}, nil
}

// NewCounterVec creates a new push-based CounterVec.
func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	return &pushCounterVec{store: r.store, name: opts.Name}, nil
}

// Samples returns the buffered series in the order they were first written.
func (r *PushRegistry) Samples() []Sample {
	return r.store.snapshot()
}

// Flush sends every buffered series. It does nothing if nothing was recorded.
func (r *PushRegistry) Flush(ctx context.Context) error {
	samples := r.store.snapshot()
	if len(samples) == 0 {
		return nil
	}

	timestamp := r.now().UnixMilli()
	req := &prompb.WriteRequest{
		Timeseries: make([]prompb.TimeSeries, 0, len(samples)),
	}
	for _, s := range samples {
		req.Timeseries = append(req.Timeseries, r.timeSeries(s, timestamp))
	}

	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(snappy.Encode(nil, data)))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// timeSeries converts a sample to remote write format.
func (r *PushRegistry) timeSeries(s Sample, timestamp int64) prompb.TimeSeries {
	name := s.Name
	if r.prefix != "" {
		name = r.prefix + "_" + name
	}

	labels := make([]prompb.Label, 0, len(s.Labels)+3)
	labels = append(labels, prompb.Label{Name: "__name__", Value: name})
	if r.job != "" {
		labels = append(labels, prompb.Label{Name: "job", Value: r.job})
	}
	if r.instance != "" {
		labels = append(labels, prompb.Label{Name: "instance", Value: r.instance})
	}
	for k, v := range s.Labels {
		labels = append(labels, prompb.Label{Name: k, Value: v})
	}

	return prompb.TimeSeries{
		Labels:  labels,
		Samples: []prompb.Sample{{Value: s.Value, Timestamp: timestamp}},
	}
}

type pushGauge struct {
	store  *sampleStore
	name   string
	labels map[string]string
}

func (g *pushGauge) Set(v float64) {
	g.store.set(g.name, g.labels, v)
}

type pushGaugeVec struct {
	store *sampleStore
	name  string
}

func (g *pushGaugeVec) With(labels prometheus.Labels) Gauge {
	return &pushGauge{store: g.store, name: g.name, labels: labels}
}

type pushCounter struct {
	store  *sampleStore
	name   string
	labels map[string]string
}

func (c *pushCounter) Inc() {
	c.Add(1)
}

func (c *pushCounter) Add(v float64) {
	if v < 0 {
		panic("counter cannot decrease in value")
	}
	c.store.add(c.name, c.labels, v)
}

type pushCounterVec struct {
	store *sampleStore
	name  string
}

func (c *pushCounterVec) With(labels prometheus.Labels) Counter {
	return &pushCounter{store: c.store, name: c.name, labels: labels}
}
