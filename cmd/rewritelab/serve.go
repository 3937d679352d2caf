package main

import (
	"rewritelab/config"
	"rewritelab/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP evaluation service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	rs, err := newRewriteServer(logger, cfg)
	if err != nil {
		return err
	}

	s := server.NewHTTPServer(logger, cfg.ListenAddr, rs, server.NewMetrics())
	return s.Start()
}
