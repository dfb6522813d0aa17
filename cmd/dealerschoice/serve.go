package main

import (
	"github.com/lox/dealerschoice/cmd/dealerschoice/shared"
	"github.com/lox/dealerschoice/internal/server"
)

// ServeCmd runs the tables described by an HCL config.
type ServeCmd struct {
	Config string `short:"c" default:"${config_file}" help:"Path to HCL configuration file"`
	Addr   string `short:"a" help:"Server address to bind to (overrides config)"`
	Seed   *int64 `help:"Deterministic RNG seed (overrides config)"`
	Debug  bool   `help:"Enable debug logging"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Seed != nil {
		cfg.Server.Seed = *c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := shared.SetupLogger(c.Debug, cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	logger.Info("Starting server",
		"addr", cfg.Server.Address,
		"tables", len(cfg.Tables),
		"bots", len(cfg.Bots))
	return srv.Run(ctx)
}
