package component

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nomis52/stagehand/logging"
)

// Engine plans and runs staged activations over a catalog of component kinds.
//
// Every run walks the kinds required by a root in two passes. The first pass
// goes from the root toward the leaves: each kind may decline activation, and
// the ones that accept receive the Announce phase. The second pass goes back
// from the leaves to the root calling the Build phase. Pruning a kind also
// prunes everything below it that no surviving kind still needs.
type Engine struct {
	catalog Catalog
	source  ConfigSource
	logger  *slog.Logger
	logHook logging.LoggerHook
	phases  *Phases
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConfigSource sets where constructor parameters and tagged fields get
// their values.
func WithConfigSource(source ConfigSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithLogHook sets the hook that hands each kind its own logger.
func WithLogHook(hook logging.LoggerHook) Option {
	return func(e *Engine) {
		e.logHook = hook
	}
}

// WithPhases fixes the phase pair for every run. Without it the phases follow
// the run's family.
func WithPhases(phases Phases) Option {
	return func(e *Engine) {
		e.phases = &phases
	}
}

// WithMetrics records run activity on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an Engine over catalog.
func NewEngine(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("subsystem", "activation")
	return e
}

// Plan is the static analysis of a root: its dependency map, an activation
// order and the relationship index.
type Plan struct {
	Root         Kind
	Dependencies *DependencyMap
	// Order lists dependencies before their dependents.
	Order []Kind
	Index *RelationshipIndex
}

// Plan builds and checks the dependency graph of root without creating any
// instance.
func (e *Engine) Plan(root Kind) (*Plan, error) {
	deps, err := BuildDependencyMap(root, e.catalog)
	if err != nil {
		return nil, err
	}
	for _, k := range deps.Keys() {
		e.logger.Debug("dependency mapping", "kind", k.ShortString(), "depends_on", kindStrings(deps.Dependencies(k)))
	}

	if cycle := FindCycle(deps); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrCircularDependency, formatCycle(cycle))
	}

	return &Plan{
		Root:         root,
		Dependencies: deps,
		Order:        TopologicalSort(deps),
		Index:        BuildIndex(deps),
	}, nil
}

// NewActivator returns an activator configured like the engine. Pass it to
// RunWithActivator to inspect instances after the run.
func (e *Engine) NewActivator() *Activator {
	act := NewActivator(e.catalog, e.source)
	act.logger = e.logger
	act.logHook = e.logHook
	return act
}

// Run performs one activation run for root with a fresh activator.
func (e *Engine) Run(root Kind, rc *RunContext) (*Report, error) {
	return e.RunWithActivator(e.NewActivator(), root, rc)
}

// RunWithActivator performs one activation run for root using act to create
// instances. The report is returned even when the run fails.
func (e *Engine) RunWithActivator(act *Activator, root Kind, rc *RunContext) (*Report, error) {
	if rc == nil {
		rc = &RunContext{}
	}
	report := &Report{
		Root:      root,
		Family:    rc.Family,
		State:     NotStarted,
		States:    make(map[Kind]KindState),
		StartedAt: time.Now(),
	}

	plan, err := e.Plan(root)
	if err != nil {
		report.State = Aborted
		e.logger.Error("activation planning failed", "root", root.String(), "error", err)
		e.metrics.observeRun(report)
		return report, err
	}

	phases := PhasesFor(rc.Family)
	if e.phases != nil {
		phases = *e.phases
	}

	r := &run{
		engine: e,
		plan:   plan,
		act:    act,
		rc:     rc,
		phases: phases,
		report: report,
	}

	report.State = Running
	e.logger.Info("starting activation run",
		"root", root.ShortString(),
		"family", string(rc.Family),
		"kinds", len(plan.Order))

	err = r.execute()
	report.Duration = time.Since(report.StartedAt)
	if err != nil {
		report.State = Aborted
		e.logger.Error("activation run aborted", "root", root.ShortString(), "error", err, "duration", report.Duration)
	} else {
		report.State = Completed
		e.logger.Info("activation run completed",
			"root", root.ShortString(),
			"built", len(report.Built),
			"pruned", len(report.Pruned),
			"duration", report.Duration)
	}
	e.metrics.observeRun(report)
	return report, err
}

// activation pairs an activated kind with its instance.
type activation struct {
	kind     Kind
	instance any
}

// run holds the state of one activation run.
type run struct {
	engine *Engine
	plan   *Plan
	act    *Activator
	rc     *RunContext
	phases Phases
	report *Report
}

func (r *run) execute() error {
	r.report.Order = slices.Clone(r.plan.Order)
	for _, k := range r.plan.Order {
		r.report.States[k] = Pending
	}

	order := r.filter(r.plan.Order)
	r.report.Filtered = order

	// Walk from the root toward the leaves. Prepending keeps activated in
	// leaf-first order for the build pass.
	var activated []activation
	for i := len(order) - 1; i >= 0; i-- {
		k := order[i]
		if r.report.States[k] == Pruned {
			continue
		}

		inst, err := r.act.GetOrCreate(k)
		if err != nil {
			return err
		}
		if c, ok := inst.(Conditional); ok && !c.CanActivate(r.rc) {
			r.engine.logger.Debug("component declined activation", "kind", k.ShortString())
			r.prune(k)
			continue
		}

		r.report.States[k] = Active
		activated = append([]activation{{kind: k, instance: inst}}, activated...)

		if err := r.invoke(r.phases.Announce, k, inst); err != nil {
			return err
		}
		r.report.States[k] = Announced
		r.report.Announced = append(r.report.Announced, k)
	}

	for _, a := range activated {
		if err := r.invoke(r.phases.Build, a.kind, a.instance); err != nil {
			return err
		}
		r.report.States[a.kind] = Built
		r.report.Built = append(r.report.Built, a.kind)
	}
	return nil
}

// filter keeps the kinds of the run's family plus family-less kinds.
func (r *run) filter(order []Kind) []Kind {
	if r.rc.Family == "" {
		return slices.Clone(order)
	}
	out := make([]Kind, 0, len(order))
	for _, k := range order {
		def, ok := r.engine.catalog.Definition(k)
		if !ok || def.Family == "" || def.Family == r.rc.Family {
			out = append(out, k)
		}
	}
	return out
}

// prune marks kind as pruned, then prunes every pending descendant of kind
// that can no longer be reached from the root without passing through a
// pruned kind.
func (r *run) prune(kind Kind) {
	r.markPruned(kind)

	reachable := r.reachable()
	for _, d := range r.plan.Index.DescendantsOf(kind) {
		if r.report.States[d] == Pending && !reachable[d] {
			r.markPruned(d)
		}
	}
}

func (r *run) markPruned(kind Kind) {
	r.report.States[kind] = Pruned
	r.report.Pruned = append(r.report.Pruned, kind)
	r.engine.metrics.observePruned()
	r.engine.logger.Debug("component pruned", "kind", kind.ShortString())
}

// reachable returns the kinds reachable from the root over unpruned kinds.
func (r *run) reachable() map[Kind]bool {
	seen := make(map[Kind]bool)
	if r.report.States[r.plan.Root] == Pruned {
		return seen
	}
	stack := []Kind{r.plan.Root}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[k] {
			continue
		}
		seen[k] = true
		for _, dep := range r.plan.Dependencies.Dependencies(k) {
			if r.report.States[dep] != Pruned {
				stack = append(stack, dep)
			}
		}
	}
	return seen
}

// invoke runs phase on inst and, if the instance defines the phase method,
// notifies observers.
func (r *run) invoke(phase Phase, kind Kind, inst any) error {
	invoked, err := phase.Invoke(inst, r.rc)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: %w", ErrPhaseFailed, kind.ShortString(), phase.Name, err)
	}
	if !invoked {
		return nil
	}
	r.engine.metrics.observeInvocation(phase.Name)
	r.engine.logger.Debug("phase invoked", "kind", kind.ShortString(), "phase", phase.Name)
	return r.notify(Invocation{Kind: kind, Instance: inst, Method: phase.Name})
}

// notify delivers inv to the kind itself and then to each of its ancestors,
// nearest first, whenever their definition implements DependencyObserver.
// Observers that have no instance yet are created.
func (r *run) notify(inv Invocation) error {
	targets := append([]Kind{inv.Kind}, r.ancestorsNearestFirst(inv.Kind)...)
	for _, t := range targets {
		def, ok := r.engine.catalog.Definition(t)
		if !ok || def.Type == nil || !def.Type.Implements(observerType) {
			continue
		}
		inst, err := r.act.GetOrCreate(t)
		if err != nil {
			return err
		}
		observer, ok := inst.(DependencyObserver)
		if !ok {
			continue
		}
		if err := observer.ObserveInvocation(inv); err != nil {
			return fmt.Errorf("%w: %s observing %s.%s: %w",
				ErrHookInvocationFailed, t.ShortString(), inv.Kind.ShortString(), inv.Method, err)
		}
		r.report.Notifications++
		r.engine.metrics.observeNotification()
	}
	return nil
}

// ancestorsNearestFirst orders the ancestors of kind by their position in the
// activation order, so kinds closer to the leaves come first.
func (r *run) ancestorsNearestFirst(kind Kind) []Kind {
	ancestors := r.plan.Index.AncestorsOf(kind)
	position := make(map[Kind]int, len(r.plan.Order))
	for i, k := range r.plan.Order {
		position[k] = i
	}
	slices.SortStableFunc(ancestors, func(a, b Kind) int {
		return position[a] - position[b]
	})
	return ancestors
}
