// Package host assembles everything a run needs from a loaded configuration:
// the component registry, the config source components draw values from and
// the activation engine.
package host

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/logging"
	"github.com/nomis52/stagehand/manifest"
	"github.com/nomis52/stagehand/metrics"
	"github.com/nomis52/stagehand/statusline"
)

// Host runs activations for one configuration.
type Host struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *component.Registry
	source   *config.Source
	engine   *component.Engine
	root     component.Kind
}

// Option configures a Host.
type Option func(*options)

type options struct {
	definitions []component.Definition
	provided    []any
	metrics     metrics.Registry
	engineStats *component.Metrics
	root        component.Kind
}

// WithDefinitions registers Go components alongside the declared ones.
func WithDefinitions(defs ...component.Definition) Option {
	return func(o *options) {
		o.definitions = append(o.definitions, defs...)
	}
}

// WithValues makes values available to constructors and `config:""` fields by type.
func WithValues(values ...any) Option {
	return func(o *options) {
		o.provided = append(o.provided, values...)
	}
}

// WithMetrics records engine metrics on reg.
func WithMetrics(reg metrics.Registry) Option {
	return func(o *options) {
		o.metrics = reg
	}
}

// WithEngineMetrics records engine metrics on m. Use it to share one set of
// metrics across hosts built for the same registry.
func WithEngineMetrics(m *component.Metrics) Option {
	return func(o *options) {
		o.engineStats = m
	}
}

// WithRoot starts runs from kind instead of the configured root.
func WithRoot(kind component.Kind) Option {
	return func(o *options) {
		o.root = kind
	}
}

// New builds a Host for cfg. cfg must already be validated.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Host, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	registry := component.NewRegistry()
	if err := manifest.Register(registry, cfg.Components); err != nil {
		return nil, fmt.Errorf("registering declared components: %w", err)
	}
	if err := registry.Register(o.definitions...); err != nil {
		return nil, fmt.Errorf("registering components: %w", err)
	}

	source := config.NewSource(cfg.Settings, cfg)
	if err := source.Provide(append([]any{cfg}, o.provided...)...); err != nil {
		return nil, fmt.Errorf("providing values: %w", err)
	}

	engineOpts := []component.Option{
		component.WithLogger(logger),
		component.WithConfigSource(source),
	}
	if o.engineStats == nil && o.metrics != nil {
		m, err := component.NewMetrics(o.metrics)
		if err != nil {
			return nil, fmt.Errorf("creating engine metrics: %w", err)
		}
		o.engineStats = m
	}
	if o.engineStats != nil {
		engineOpts = append(engineOpts, component.WithMetrics(o.engineStats))
	}

	root := o.root
	if !root.IsValid() {
		root = manifest.KindNamed(cfg.Root)
	}

	return &Host{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		source:   source,
		engine:   component.NewEngine(registry, engineOpts...),
		root:     root,
	}, nil
}

// Root returns the kind every run starts from.
func (h *Host) Root() component.Kind {
	return h.root
}

// Config returns the configuration the host was built from.
func (h *Host) Config() *config.Config {
	return h.cfg
}

// Plan returns the static analysis of the root.
func (h *Host) Plan() (*component.Plan, error) {
	return h.engine.Plan(h.root)
}

// RunContext returns a fresh run context from the configured family and labels.
func (h *Host) RunContext() *component.RunContext {
	return &component.RunContext{
		Family: component.Family(h.cfg.Family),
		Labels: maps.Clone(h.cfg.Labels),
	}
}

// Launch performs one activation run. If hook is not nil each component's
// logger comes from it. Components asking for a *statusline.Line get one
// writing to statuses, which may be nil. The report is returned even when
// the run fails.
func (h *Host) Launch(hook logging.LoggerHook, statuses *statusline.Handler) (*component.Report, error) {
	act := h.engine.NewActivator()
	if hook != nil {
		act.SetLogHook(hook)
	}
	component.ProvideFactory(act, func(kind component.Kind) *statusline.Line {
		logger := h.logger
		if hook != nil {
			logger = hook.LoggerForComponent(h.logger, kind.String())
		}
		return statusline.NewLine(kind, logger, statuses)
	})
	return h.engine.RunWithActivator(act, h.root, h.RunContext())
}
