package client

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/dealerschoice/internal/bot"
)

// DefaultConfigFile is read by the bot command when no --config is given.
const DefaultConfigFile = "bot.hcl"

// Config is a bot client's HCL file.
type Config struct {
	Server *ServerConnection `hcl:"server,block"`
	Player *PlayerSettings   `hcl:"player,block"`
}

// ServerConnection says where to connect and how hard to try.
type ServerConnection struct {
	URL               string `hcl:"url,optional"`
	ReconnectAttempts int    `hcl:"reconnect_attempts,optional"`
	ReconnectDelay    string `hcl:"reconnect_delay,optional"`
}

// PlayerSettings names the player and how it plays.
type PlayerSettings struct {
	Name     string `hcl:"name,optional"`
	Table    string `hcl:"table,optional"`
	Strategy string `hcl:"strategy,optional"`
}

// DefaultConfig connects to a local server's main table.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig reads an HCL client config. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerConnection{}
	}
	if c.Player == nil {
		c.Player = &PlayerSettings{}
	}
	if c.Server.URL == "" {
		c.Server.URL = "http://localhost:8080"
	}
	if c.Server.ReconnectAttempts == 0 {
		c.Server.ReconnectAttempts = 3
	}
	if c.Server.ReconnectDelay == "" {
		c.Server.ReconnectDelay = "5s"
	}
	if c.Player.Table == "" {
		c.Player.Table = "main"
	}
	if c.Player.Strategy == "" {
		c.Player.Strategy = "medium"
	}
}

// Validate reports the first problem with the config.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server URL is required")
	}
	if c.Server.ReconnectAttempts < 0 {
		return errors.New("reconnect attempts cannot be negative")
	}
	if d, err := c.reconnectDelay(); err != nil || d <= 0 {
		return fmt.Errorf("invalid reconnect delay %q", c.Server.ReconnectDelay)
	}
	if _, err := bot.Lookup(c.Player.Strategy); err != nil {
		return err
	}
	return nil
}

func (c *Config) reconnectDelay() (time.Duration, error) {
	return time.ParseDuration(c.Server.ReconnectDelay)
}
