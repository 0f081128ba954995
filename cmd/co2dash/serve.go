package main

import (
	"log/slog"

	"github.com/aouyang1/co2-dashboard/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive dashboard over HTTP",
		Long: `Loads the historical data and the model once, renders the chart for the
default horizon, then serves the dashboard until interrupted. Any loading
failure exits before the server listens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := a.load()
			if err != nil {
				return err
			}

			srvCfg := a.cfg.ServerConfig()
			if cmd.Flags().Changed("addr") {
				srvCfg.Addr = addr
			}
			srvCfg.Logger = slog.Default()

			srv, err := server.New(in.renderer, srvCfg)
			if err != nil {
				return err
			}
			if err := srv.Prime(); err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	return cmd
}
