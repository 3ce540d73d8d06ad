package component

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/stagehand/metrics"
)

// Metrics records engine activity. A nil *Metrics records nothing.
type Metrics struct {
	runs          metrics.CounterVec
	invocations   metrics.CounterVec
	pruned        metrics.Counter
	notifications metrics.Counter
	lastDuration  metrics.Gauge
	lastKinds     metrics.Gauge
}

// NewMetrics creates and registers the engine metrics on reg.
func NewMetrics(reg metrics.Registry) (*Metrics, error) {
	runs, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "activation_runs_total",
		Help: "Activation runs by final state.",
	}, []string{"state"})
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	invocations, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_invocations_total",
		Help: "Lifecycle phase methods invoked, by phase.",
	}, []string{"phase"})
	if err != nil {
		return nil, fmt.Errorf("creating invocations counter: %w", err)
	}

	pruned, err := reg.NewCounter(prometheus.CounterOpts{
		Name: "pruned_components_total",
		Help: "Component kinds pruned from activation runs.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating pruned counter: %w", err)
	}

	notifications, err := reg.NewCounter(prometheus.CounterOpts{
		Name: "dependency_notifications_total",
		Help: "Dependency observer hooks invoked.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating notifications counter: %w", err)
	}

	lastDuration, err := reg.NewGauge(prometheus.GaugeOpts{
		Name: "last_run_duration_seconds",
		Help: "Wall time of the most recent activation run.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating duration gauge: %w", err)
	}

	lastKinds, err := reg.NewGauge(prometheus.GaugeOpts{
		Name: "last_run_components",
		Help: "Number of component kinds in the most recent plan.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating components gauge: %w", err)
	}

	return &Metrics{
		runs:          runs,
		invocations:   invocations,
		pruned:        pruned,
		notifications: notifications,
		lastDuration:  lastDuration,
		lastKinds:     lastKinds,
	}, nil
}

func (m *Metrics) observeInvocation(phase string) {
	if m == nil {
		return
	}
	m.invocations.With(prometheus.Labels{"phase": phase}).Inc()
}

func (m *Metrics) observePruned() {
	if m == nil {
		return
	}
	m.pruned.Inc()
}

func (m *Metrics) observeNotification() {
	if m == nil {
		return
	}
	m.notifications.Inc()
}

func (m *Metrics) observeRun(report *Report) {
	if m == nil {
		return
	}
	m.runs.With(prometheus.Labels{"state": report.State.String()}).Inc()
	m.lastDuration.Set(report.Duration.Seconds())
	m.lastKinds.Set(float64(len(report.Order)))
}
