package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nomis52/stagehand/logging"
)

const (
	// Default monitoring settings
	defaultMetricsPrefix = "stagehand"
	defaultJobName       = "stagehand"

	// Default server settings
	defaultListen          = ":8080"
	defaultHistorySize     = 50
	defaultShutdownTimeout = 10 * time.Second

	familyService      = "service"
	familyPresentation = "presentation"
)

// Config represents the complete application configuration
type Config struct {
	// Root names the component every run starts from.
	Root string `yaml:"root"`

	// Family restricts runs to one component family. Empty runs every family.
	Family string `yaml:"family"`

	// Labels describe the host. Components may activate only for some labels.
	Labels map[string]string `yaml:"labels"`

	Logging    logging.Config   `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Server     ServerConfig     `yaml:"server"`

	// Settings is a free-form tree read by `config:"a.b"` struct tags.
	Settings map[string]any `yaml:"settings"`

	// Components declares the component graph.
	Components []ComponentConfig `yaml:"components"`
}

// MonitoringConfig holds metrics settings
type MonitoringConfig struct {
	// PushURL is a Prometheus remote-write endpoint. Empty disables pushing.
	PushURL       string `yaml:"push_url"`
	MetricsPrefix string `yaml:"metrics_prefix"`
	JobName       string `yaml:"job_name"`
}

// ServerConfig holds settings for `stagehand serve`
type ServerConfig struct {
	Listen string `yaml:"listen"`
	// Schedule is a five-field cron expression. Empty disables scheduled runs.
	Schedule string `yaml:"schedule"`
	// StateDir keeps run history on disk. Empty keeps it in memory.
	StateDir        string        `yaml:"state_dir"`
	HistorySize     int           `yaml:"history_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// TLSCert and TLSKey enable HTTPS when both are set. The files are
	// re-read when they change.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`

	// WatchConfig reloads the configuration whenever the file changes.
	WatchConfig bool `yaml:"watch_config"`
}

// ComponentConfig declares one component.
type ComponentConfig struct {
	Name      string   `yaml:"name"`
	Family    string   `yaml:"family"`
	DependsOn []string `yaml:"depends_on"`

	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`

	// When lists labels that must all match the run's labels for the
	// component to activate.
	When map[string]string `yaml:"when"`

	Settings map[string]any `yaml:"settings"`
}

// IsEnabled reports whether the component is enabled.
func (c ComponentConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Component returns the declaration called name.
func (c *Config) Component(name string) (ComponentConfig, bool) {
	for _, comp := range c.Components {
		if comp.Name == name {
			return comp, true
		}
	}
	return ComponentConfig{}, false
}

// Validate performs basic validation on the configuration. Dependencies on
// undeclared components are reported when the graph is built.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if err := validFamily(c.Family); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Server.HistorySize < 0 {
		return fmt.Errorf("server history_size must not be negative")
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("server tls_cert and tls_key must be set together")
	}

	seen := make(map[string]bool, len(c.Components))
	for i, comp := range c.Components {
		if comp.Name == "" {
			return fmt.Errorf("component %d has no name", i)
		}
		if seen[comp.Name] {
			return fmt.Errorf("component %q declared twice", comp.Name)
		}
		seen[comp.Name] = true
		if err := validFamily(comp.Family); err != nil {
			return fmt.Errorf("component %q: %w", comp.Name, err)
		}
		for _, dep := range comp.DependsOn {
			if dep == "" {
				return fmt.Errorf("component %q has an empty dependency", comp.Name)
			}
		}
	}
	if !seen[c.Root] {
		return fmt.Errorf("root %q is not a declared component", c.Root)
	}
	return nil
}

func validFamily(f string) error {
	switch f {
	case "", familyService, familyPresentation:
		return nil
	default:
		return fmt.Errorf("unknown family %q", f)
	}
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Server.HistorySize == 0 {
		c.Server.HistorySize = defaultHistorySize
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
}

// Parse decodes YAML configuration. ${VAR} references are replaced from the
// environment before decoding, and unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
