package manifest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/statusline"
)

func boolPtr(b bool) *bool { return &b }

func entries() []config.ComponentConfig {
	return []config.ComponentConfig{
		{Name: "app", DependsOn: []string{"api", "ui"}},
		{Name: "api", Family: "service", DependsOn: []string{"db"}},
		{Name: "ui", Family: "presentation"},
		{Name: "db", When: map[string]string{"env": "prod"}, Settings: map[string]any{"pool": 4}},
	}
}

func newEngine(t *testing.T, decls []config.ComponentConfig) *component.Engine {
	t.Helper()
	reg := component.NewRegistry()
	require.NoError(t, Register(reg, decls))
	return component.NewEngine(reg, component.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func declared(t *testing.T, act *component.Activator, name string) *Declared {
	t.Helper()
	inst, ok := act.Instance(KindNamed(name))
	require.True(t, ok, "no instance for %s", name)
	d, ok := inst.(*Declared)
	require.True(t, ok)
	return d
}

func methods(invs []component.Invocation) []string {
	out := make([]string, len(invs))
	for i, inv := range invs {
		out[i] = inv.Kind.Type + "." + inv.Method
	}
	return out
}

func TestRegister(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg, entries()))

	assert.Equal(t, []component.Kind{KindNamed("app"), KindNamed("api"), KindNamed("ui"), KindNamed("db")}, reg.Kinds())
	assert.Equal(t, []component.Kind{KindNamed("api"), KindNamed("ui")}, reg.DependenciesOf(KindNamed("app")))
	assert.Nil(t, reg.DependenciesOf(KindNamed("db")))

	def, ok := reg.Definition(KindNamed("ui"))
	require.True(t, ok)
	assert.Equal(t, component.FamilyPresentation, def.Family)
	assert.Equal(t, "manifest.ui", KindNamed("ui").ShortString())
}

func TestRegister_Errors(t *testing.T) {
	reg := component.NewRegistry()
	err := Register(reg, []config.ComponentConfig{{Name: "a"}, {Name: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	err = Register(component.NewRegistry(), []config.ComponentConfig{{}})
	assert.Error(t, err)
}

func TestDeclared_ServiceRun(t *testing.T) {
	engine := newEngine(t, entries())
	act := engine.NewActivator()

	report, err := engine.RunWithActivator(act, KindNamed("app"), &component.RunContext{
		Family: component.FamilyService,
		Labels: map[string]string{"env": "dev"},
	})
	require.NoError(t, err)

	assert.Equal(t, component.Completed, report.State)
	assert.Equal(t, []component.Kind{KindNamed("app"), KindNamed("api")}, report.Announced)
	assert.Equal(t, []component.Kind{KindNamed("api"), KindNamed("app")}, report.Built)
	assert.Equal(t, []component.Kind{KindNamed("db")}, report.Pruned)
	assert.NotContains(t, report.Filtered, KindNamed("ui"))

	app := declared(t, act, "app")
	assert.Equal(t, []string{"Announce", "Build"}, app.Phases())
	assert.Equal(t, []string{"app.Announce", "api.Announce", "api.Build", "app.Build"}, methods(app.Observed()))

	api := declared(t, act, "api")
	assert.Equal(t, []string{"api.Announce", "api.Build"}, methods(api.Observed()))
}

func TestDeclared_WhenLabelsMatch(t *testing.T) {
	engine := newEngine(t, entries())
	act := engine.NewActivator()

	report, err := engine.RunWithActivator(act, KindNamed("app"), &component.RunContext{
		Family: component.FamilyService,
		Labels: map[string]string{"env": "prod"},
	})
	require.NoError(t, err)

	assert.Empty(t, report.Pruned)
	assert.Contains(t, report.Built, KindNamed("db"))
	assert.Equal(t, map[string]any{"pool": 4}, declared(t, act, "db").Settings())
}

func TestDeclared_PresentationRun(t *testing.T) {
	engine := newEngine(t, entries())
	act := engine.NewActivator()

	report, err := engine.RunWithActivator(act, KindNamed("app"), &component.RunContext{
		Family: component.FamilyPresentation,
	})
	require.NoError(t, err)

	assert.Equal(t, []component.Kind{KindNamed("app"), KindNamed("ui")}, report.Announced)
	assert.Equal(t, []string{"Prepare", "Render"}, declared(t, act, "ui").Phases())
	assert.Equal(t, []string{"app.Prepare", "ui.Prepare", "ui.Render", "app.Render"}, methods(declared(t, act, "app").Observed()))
}

func TestDeclared_Disabled(t *testing.T) {
	decls := entries()
	decls[1].Enabled = boolPtr(false)
	engine := newEngine(t, decls)

	report, err := engine.Run(KindNamed("app"), &component.RunContext{
		Family: component.FamilyService,
		Labels: map[string]string{"env": "prod"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []component.Kind{KindNamed("api"), KindNamed("db")}, report.Pruned)
	assert.Equal(t, []component.Kind{KindNamed("app")}, report.Built)
}

func TestDeclared_UnknownDependency(t *testing.T) {
	decls := entries()
	decls[0].DependsOn = append(decls[0].DependsOn, "cache")
	engine := newEngine(t, decls)

	report, err := engine.Run(KindNamed("app"), &component.RunContext{})
	require.ErrorIs(t, err, component.ErrInvalidComponentKind)
	assert.Contains(t, err.Error(), "cache")
	assert.Equal(t, component.Aborted, report.State)
}

func TestDeclared_StatusLine(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := statusline.NewHandler()
	d := newDeclared(config.ComponentConfig{Name: "db", When: map[string]string{"env": "prod"}}, logger)
	d.status = statusline.NewLine(KindNamed("db"), logger, handler)

	assert.False(t, d.CanActivate(&component.RunContext{Labels: map[string]string{"env": "dev"}}))
	assert.Equal(t, `skipped: env is "dev", want "prod"`, handler.Get(KindNamed("db")))

	require.NoError(t, d.Announce(nil))
	require.NoError(t, d.Build(nil))
	assert.Equal(t, "built", handler.Get(KindNamed("db")))
}

func TestDeclared_CanActivate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name  string
		entry config.ComponentConfig
		rc    *component.RunContext
		want  bool
	}{
		{"no conditions", config.ComponentConfig{Name: "x"}, nil, true},
		{"disabled", config.ComponentConfig{Name: "x", Enabled: boolPtr(false)}, nil, false},
		{"explicitly enabled", config.ComponentConfig{Name: "x", Enabled: boolPtr(true)}, nil, true},
		{
			name:  "all labels match",
			entry: config.ComponentConfig{Name: "x", When: map[string]string{"env": "prod", "region": "eu"}},
			rc:    &component.RunContext{Labels: map[string]string{"env": "prod", "region": "eu", "extra": "y"}},
			want:  true,
		},
		{
			name:  "one label differs",
			entry: config.ComponentConfig{Name: "x", When: map[string]string{"env": "prod", "region": "eu"}},
			rc:    &component.RunContext{Labels: map[string]string{"env": "prod", "region": "us"}},
		},
		{
			name:  "label missing on nil context",
			entry: config.ComponentConfig{Name: "x", When: map[string]string{"env": "prod"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeclared(tt.entry, logger)
			assert.Equal(t, tt.want, d.CanActivate(tt.rc))
		})
	}
}
