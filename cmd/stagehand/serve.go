package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nomis52/stagehand/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and scheduled activations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			logger, err := flags.newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			opts := []server.Option{server.WithLogger(logger.Logger)}
			if listen != "" {
				opts = append(opts, server.WithListenAddr(listen))
			}
			srv, err := server.New(flags.configPath, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "override server.listen")
	return cmd
}
