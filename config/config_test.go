package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `root: app
family: service
labels:
  env: prod
logging:
  level: debug
  format: text
monitoring:
  push_url: http://vm:8428
server:
  listen: :9090
  schedule: "0 3 * * *"
  history_size: 10
settings:
  database:
    host: db.internal
    port: 5432
components:
  - name: app
    depends_on: [api, ui]
  - name: api
    family: service
    depends_on: [db]
  - name: ui
    family: presentation
  - name: db
    enabled: false
    when:
      env: prod
    settings:
      pool: 4
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stagehand.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Root)
	assert.Equal(t, "service", cfg.Family)
	assert.Equal(t, map[string]string{"env": "prod"}, cfg.Labels)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "http://vm:8428", cfg.Monitoring.PushURL)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "0 3 * * *", cfg.Server.Schedule)
	assert.Equal(t, 10, cfg.Server.HistorySize)

	require.Len(t, cfg.Components, 4)
	assert.Equal(t, []string{"api", "ui"}, cfg.Components[0].DependsOn)
	assert.True(t, cfg.Components[0].IsEnabled())

	db, ok := cfg.Component("db")
	require.True(t, ok)
	assert.False(t, db.IsEnabled())
	assert.Equal(t, map[string]string{"env": "prod"}, db.When)
	assert.Equal(t, 4, db.Settings["pool"])

	_, ok = cfg.Component("missing")
	assert.False(t, ok)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("root: app\ncomponents:\n  - name: app\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "stagehand", cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, "stagehand", cfg.Monitoring.JobName)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 50, cfg.Server.HistorySize)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("STAGEHAND_TEST_ROOT", "app")
	t.Setenv("STAGEHAND_TEST_PUSH", "http://push:8428")

	cfg, err := Parse([]byte(`root: ${STAGEHAND_TEST_ROOT}
monitoring:
  push_url: $STAGEHAND_TEST_PUSH
components:
  - name: app
`))
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.Root)
	assert.Equal(t, "http://push:8428", cfg.Monitoring.PushURL)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("root: app\nroots: typo\ncomponents:\n  - name: app\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roots")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Root: "app",
			Components: []ComponentConfig{
				{Name: "app", DependsOn: []string{"db"}},
				{Name: "db", Family: "service"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing root",
			mutate:  func(c *Config) { c.Root = "" },
			wantErr: "root is required",
		},
		{
			name:    "root not declared",
			mutate:  func(c *Config) { c.Root = "web" },
			wantErr: "not a declared component",
		},
		{
			name:    "unknown run family",
			mutate:  func(c *Config) { c.Family = "batch" },
			wantErr: "unknown family",
		},
		{
			name:    "unknown component family",
			mutate:  func(c *Config) { c.Components[1].Family = "batch" },
			wantErr: `component "db"`,
		},
		{
			name:    "duplicate component",
			mutate:  func(c *Config) { c.Components[1].Name = "app" },
			wantErr: "declared twice",
		},
		{
			name:    "unnamed component",
			mutate:  func(c *Config) { c.Components[1].Name = "" },
			wantErr: "has no name",
		},
		{
			name:    "empty dependency",
			mutate:  func(c *Config) { c.Components[0].DependsOn = []string{""} },
			wantErr: "empty dependency",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "logging",
		},
		{
			name:    "negative history",
			mutate:  func(c *Config) { c.Server.HistorySize = -1 },
			wantErr: "history_size",
		},
		{
			name:    "tls cert without key",
			mutate:  func(c *Config) { c.Server.TLSCert = "cert.pem" },
			wantErr: "tls_cert and tls_key",
		},
		{
			name:   "undeclared dependency is left to the graph builder",
			mutate: func(c *Config) { c.Components[0].DependsOn = []string{"ghost"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
