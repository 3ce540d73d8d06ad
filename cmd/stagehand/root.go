package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nomis52/stagehand/buildinfo"
	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/logging"
)

const defaultEnvFile = ".env"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "stagehand",
		Short: "Plan and run staged component activations",
		Long: `stagehand resolves a declared component graph, prunes components whose
conditions do not hold and activates the rest in two phases.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(flags.envFile)
		},
	}
	cmd.SetVersionTemplate(`{{printf "stagehand version %s\n" .Version}}`)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to config file")
	pf.StringVar(&flags.envFile, "env-file", defaultEnvFile, "dotenv file read before the config is expanded")
	pf.StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newPlanCmd(flags),
		newRunCmd(flags),
		newServeCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// loadEnv reads a dotenv file into the environment. A missing default file
// is ignored.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (path == defaultEnvFile && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// loadConfig reads the config file named by --config.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	if f.configPath == "" {
		return nil, fmt.Errorf("config flag (-c or --config) is required")
	}
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// newLogger builds the logger described by cfg, applying --log-level.
func (f *globalFlags) newLogger(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	if f.logLevel != "" {
		if err := logger.SetLevel(f.logLevel); err != nil {
			logger.Close()
			return nil, err
		}
	}
	return logger, nil
}
