// Package manifest turns components declared in the configuration file into
// component definitions, so a dependency graph can be described without
// writing Go types for each node.
package manifest

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/statusline"
)

// Module is the Kind namespace of declared components.
const Module = "manifest"

// KindNamed returns the Kind of the declared component called name.
func KindNamed(name string) component.Kind {
	return component.Kind{Module: Module, Type: name}
}

// Register adds a definition to reg for each entry. Dependencies are not
// checked here; a name that no entry declares surfaces as
// component.ErrInvalidComponentKind when the graph is built.
func Register(reg *component.Registry, entries []config.ComponentConfig) error {
	for _, entry := range entries {
		if entry.Name == "" {
			return fmt.Errorf("declared component has no name")
		}
		if err := reg.Register(definition(entry)); err != nil {
			return fmt.Errorf("registering %q: %w", entry.Name, err)
		}
	}
	return nil
}

func definition(entry config.ComponentConfig) component.Definition {
	deps := make([]component.Kind, 0, len(entry.DependsOn))
	for _, name := range entry.DependsOn {
		deps = append(deps, KindNamed(name))
	}

	return component.Definition{
		Kind:      KindNamed(entry.Name),
		Family:    component.Family(entry.Family),
		DependsOn: deps,
		ActivationConstructor: func(logger *slog.Logger, status *statusline.Line) *Declared {
			d := newDeclared(entry, logger)
			d.status = status
			return d
		},
	}
}

// Declared is the instance behind every component listed in the config. It
// takes part in every phase of both families and logs what happens to it.
type Declared struct {
	name     string
	enabled  bool
	when     map[string]string
	settings map[string]any
	logger   *slog.Logger
	status   *statusline.Line

	mu       sync.Mutex
	phases   []string
	observed []component.Invocation
}

func newDeclared(entry config.ComponentConfig, logger *slog.Logger) *Declared {
	if logger == nil {
		logger = slog.Default()
	}
	return &Declared{
		name:     entry.Name,
		enabled:  entry.IsEnabled(),
		when:     maps.Clone(entry.When),
		settings: maps.Clone(entry.Settings),
		logger:   logger,
	}
}

// Name returns the declared name.
func (d *Declared) Name() string {
	return d.name
}

// Settings returns the component's own settings block.
func (d *Declared) Settings() map[string]any {
	return maps.Clone(d.settings)
}

// CanActivate declines when the component is disabled or any of its when
// labels differs from the run's labels.
func (d *Declared) CanActivate(rc *component.RunContext) bool {
	if !d.enabled {
		d.logger.Info("component disabled", "component", d.name)
		d.status.Set("skipped: disabled")
		return false
	}
	for _, key := range slices.Sorted(maps.Keys(d.when)) {
		if got := rc.Label(key); got != d.when[key] {
			d.logger.Info("component condition not met", "component", d.name, "label", key, "want", d.when[key], "got", got)
			d.status.Set(fmt.Sprintf("skipped: %s is %q, want %q", key, got, d.when[key]))
			return false
		}
	}
	return true
}

func (d *Declared) Announce(*component.RunContext) error { return d.enter("Announce", "announced") }
func (d *Declared) Build(*component.RunContext) error    { return d.enter("Build", "built") }
func (d *Declared) Prepare(*component.RunContext) error  { return d.enter("Prepare", "prepared") }
func (d *Declared) Render(*component.RunContext) error   { return d.enter("Render", "rendered") }

func (d *Declared) enter(phase, done string) error {
	d.mu.Lock()
	d.phases = append(d.phases, phase)
	d.mu.Unlock()
	d.logger.Info("phase", "component", d.name, "phase", phase)
	d.status.Set(done)
	return nil
}

// ObserveInvocation records a phase invoked on this component or one of its
// dependencies.
func (d *Declared) ObserveInvocation(inv component.Invocation) error {
	d.mu.Lock()
	d.observed = append(d.observed, inv)
	d.mu.Unlock()
	d.logger.Debug("observed invocation", "component", d.name, "target", inv.Kind.Type, "method", inv.Method)
	return nil
}

// Phases returns the phases invoked on the component, in order.
func (d *Declared) Phases() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.phases)
}

// Observed returns the invocations the component was told about, in order.
func (d *Declared) Observed() []component.Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.observed)
}
