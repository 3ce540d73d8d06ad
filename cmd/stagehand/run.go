package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/host"
	"github.com/nomis52/stagehand/metrics"
	"github.com/nomis52/stagehand/server/runner"
)

type runFlags struct {
	family string
	root   string
	labels map[string]string
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Activate the root component once",
		Long: `run performs a single activation run and prints the state of every
component. When monitoring.push_url is set the run's metrics are pushed
afterwards. When server.state_dir is set the run is recorded there so that a
running server can show it after POST /api/history/reload.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if err := rf.apply(cfg); err != nil {
				return err
			}
			logger, err := flags.newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			var opts []host.Option
			var push *metrics.PushRegistry
			if cfg.Monitoring.PushURL != "" {
				hostname, err := os.Hostname()
				if err != nil {
					return fmt.Errorf("getting hostname: %w", err)
				}
				push = metrics.NewPushRegistry(metrics.PushConfig{
					URL:      cfg.Monitoring.PushURL,
					Prefix:   cfg.Monitoring.MetricsPrefix,
					Job:      cfg.Monitoring.JobName,
					Instance: hostname,
				})
				opts = append(opts, host.WithMetrics(push))
			}
			h, err := host.New(cfg, logger.Logger, opts...)
			if err != nil {
				return err
			}

			var runnerOpts []runner.Option
			if cfg.Server.StateDir != "" {
				store, err := runner.NewDiskStore(cfg.Server.StateDir, cfg.Server.HistorySize, logger.Logger)
				if err != nil {
					return fmt.Errorf("opening state directory: %w", err)
				}
				runnerOpts = append(runnerOpts, runner.WithStateStore(store))
			}
			r := runner.New(logger.Logger, h, runnerOpts...)

			summary, runErr := r.RunSync()
			fmt.Fprintln(cmd.OutOrStdout(), renderRun(summary, r.Status().Components))

			if push != nil {
				logger.Info("pushing metrics", "count", len(push.Samples()), "url", cfg.Monitoring.PushURL)
				if err := push.Flush(cmd.Context()); err != nil {
					logger.Error("failed to push metrics", "error", err)
				}
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVar(&rf.family, "family", "", "restrict the run to one family (service or presentation)")
	f.StringVar(&rf.root, "root", "", "start from this component instead of the configured root")
	f.StringToStringVarP(&rf.labels, "label", "l", nil, "set a run label, e.g. --label env=prod")
	return cmd
}

// apply overrides cfg with the command line and validates the result.
func (rf *runFlags) apply(cfg *config.Config) error {
	if rf.family != "" {
		cfg.Family = rf.family
	}
	if rf.root != "" {
		cfg.Root = rf.root
	}
	if len(rf.labels) > 0 && cfg.Labels == nil {
		cfg.Labels = make(map[string]string, len(rf.labels))
	}
	for k, v := range rf.labels {
		cfg.Labels[k] = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid run options: %w", err)
	}
	return nil
}
