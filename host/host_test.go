package host

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/logging"
	"github.com/nomis52/stagehand/manifest"
	"github.com/nomis52/stagehand/metrics"
	"github.com/nomis52/stagehand/statusline"
)

const hostConfig = `root: app
family: service
labels:
  env: dev
settings:
  database:
    host: db.internal
components:
  - name: app
    depends_on: [api, ui]
  - name: api
    family: service
    depends_on: [db]
  - name: ui
    family: presentation
  - name: db
    when:
      env: prod
`

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(hostConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return &cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// auditor is a Go component reading configuration through tags.
type auditor struct {
	DatabaseHost string         `config:"database.host"`
	Config       *config.Config `config:""`
	Clock        *fakeClock     `config:""`

	built bool
}

func (a *auditor) Build(*component.RunContext) error {
	a.built = true
	return nil
}

type fakeClock struct{ now string }

func TestHost_Plan(t *testing.T) {
	h, err := New(loadConfig(t), quietLogger())
	require.NoError(t, err)

	assert.Equal(t, manifest.KindNamed("app"), h.Root())

	plan, err := h.Plan()
	require.NoError(t, err)
	assert.Equal(t, []component.Kind{
		manifest.KindNamed("db"),
		manifest.KindNamed("api"),
		manifest.KindNamed("ui"),
		manifest.KindNamed("app"),
	}, plan.Order)
	assert.Equal(t, []component.Kind{manifest.KindNamed("app")}, plan.Index.AncestorsOf(manifest.KindNamed("api")))
}

func TestHost_Launch(t *testing.T) {
	h, err := New(loadConfig(t), quietLogger())
	require.NoError(t, err)

	collector := logging.NewLogCollector()
	statuses := statusline.NewHandler()
	report, err := h.Launch(logging.NewCapturingLoggerHook(collector), statuses)
	require.NoError(t, err)

	assert.Equal(t, component.Completed, report.State)
	assert.Equal(t, component.FamilyService, report.Family)
	assert.Equal(t, []component.Kind{manifest.KindNamed("db")}, report.Pruned)
	assert.Equal(t, []component.Kind{manifest.KindNamed("api"), manifest.KindNamed("app")}, report.Built)

	logs := collector.GetLogs(manifest.KindNamed("api").String())
	require.NotEmpty(t, logs)
	var messages []string
	for _, entry := range logs {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "phase")
	assert.Contains(t, collector.Components(), manifest.KindNamed("db").String())

	assert.Equal(t, "built", statuses.Get(manifest.KindNamed("api")))
	assert.Equal(t, "skipped: env is \"dev\", want \"prod\"", statuses.Get(manifest.KindNamed("db")))
	assert.Empty(t, statuses.Get(manifest.KindNamed("ui")), "filtered components are never created")
}

func TestHost_LaunchWithoutHook(t *testing.T) {
	h, err := New(loadConfig(t), quietLogger())
	require.NoError(t, err)

	report, err := h.Launch(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, component.Completed, report.State)
}

func TestHost_RunContextIsFresh(t *testing.T) {
	h, err := New(loadConfig(t), quietLogger())
	require.NoError(t, err)

	rc := h.RunContext()
	rc.Labels["env"] = "prod"
	assert.Equal(t, "dev", h.RunContext().Label("env"))
}

func TestHost_GoDefinitions(t *testing.T) {
	cfg := loadConfig(t)
	clock := &fakeClock{now: "noon"}
	def := component.Define[auditor](manifest.KindNamed("app"))

	h, err := New(cfg, quietLogger(),
		WithDefinitions(def),
		WithValues(clock),
		WithRoot(component.KindFor[auditor]()),
	)
	require.NoError(t, err)
	require.Equal(t, component.KindFor[auditor](), h.Root())

	act := h.engine.NewActivator()
	report, err := h.engine.RunWithActivator(act, h.Root(), h.RunContext())
	require.NoError(t, err)
	assert.Equal(t, component.KindFor[auditor](), report.Built[len(report.Built)-1])

	inst, ok := act.Instance(component.KindFor[auditor]())
	require.True(t, ok)
	a := inst.(*auditor)
	assert.True(t, a.built)
	assert.Equal(t, "db.internal", a.DatabaseHost)
	assert.Same(t, cfg, a.Config)
	assert.Same(t, clock, a.Clock)
}

func TestHost_Metrics(t *testing.T) {
	reg, err := metrics.NewScrapeRegistry(metrics.WithoutRuntimeCollectors())
	require.NoError(t, err)

	h, err := New(loadConfig(t), quietLogger(), WithMetrics(reg))
	require.NoError(t, err)

	_, err = h.Launch(nil, nil)
	require.NoError(t, err)
	_, err = h.Launch(nil, nil)
	require.NoError(t, err)

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			values[f.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["activation_runs_total"])
	assert.Equal(t, 2.0, values["pruned_components_total"], "db is pruned in each run")
}

func TestHost_SharedEngineMetrics(t *testing.T) {
	reg, err := metrics.NewScrapeRegistry(metrics.WithoutRuntimeCollectors())
	require.NoError(t, err)
	m, err := component.NewMetrics(reg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		h, err := New(loadConfig(t), quietLogger(), WithEngineMetrics(m))
		require.NoError(t, err, "building another host must not register the metrics again")
		_, err = h.Launch(nil, nil)
		require.NoError(t, err)
	}

	_, err = New(loadConfig(t), quietLogger(), WithMetrics(reg))
	assert.Error(t, err, "a second registration on the same registry fails")
}

func TestHost_Errors(t *testing.T) {
	t.Run("duplicate go definition", func(t *testing.T) {
		def := component.Define[auditor]()
		_, err := New(loadConfig(t), quietLogger(), WithDefinitions(def, def))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("config provided twice", func(t *testing.T) {
		_, err := New(loadConfig(t), quietLogger(), WithValues(&config.Config{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already provided")
	})

	t.Run("unknown dependency surfaces at plan time", func(t *testing.T) {
		cfg := loadConfig(t)
		cfg.Components[0].DependsOn = []string{"ghost"}
		h, err := New(cfg, quietLogger())
		require.NoError(t, err)

		_, err = h.Plan()
		assert.ErrorIs(t, err, component.ErrInvalidComponentKind)
	})
}
