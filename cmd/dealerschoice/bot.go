package main

import (
	"github.com/coder/quartz"
	"github.com/lox/dealerschoice/cmd/dealerschoice/shared"
	"github.com/lox/dealerschoice/internal/client"
)

// BotCmd seats a built-in strategy at a remote table.
type BotCmd struct {
	Config   string `short:"c" default:"${bot_config_file}" help:"Path to HCL client configuration file"`
	URL      string `help:"Server URL (overrides config)"`
	Name     string `short:"n" help:"Player name (overrides config)"`
	Table    string `short:"t" help:"Table to join (overrides config)"`
	Strategy string `short:"s" help:"Bot strategy (overrides config)"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *BotCmd) Run() error {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.URL != "" {
		cfg.Server.URL = c.URL
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.Table != "" {
		cfg.Player.Table = c.Table
	}
	if c.Strategy != "" {
		cfg.Player.Strategy = c.Strategy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := shared.SetupLogger(c.Debug, "")
	if err != nil {
		return err
	}
	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	logger.Info("Starting bot",
		"url", cfg.Server.URL,
		"table", cfg.Player.Table,
		"strategy", cfg.Player.Strategy)
	return client.Play(ctx, cfg, quartz.NewReal(), logger, nil)
}
