package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/dealerschoice/internal/bot"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/table"
)

// DefaultConfigFile is read by serve when no --config is given.
const DefaultConfigFile = "dealerschoice.hcl"

const (
	defaultAddress         = "localhost:8080"
	defaultDecisionTimeout = 30 * time.Second
)

// Config is the whole dealerschoice.hcl file.
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Tables []TableConfig   `hcl:"table,block"`
	Bots   []BotConfig     `hcl:"bot,block"`
}

// ServerSettings holds the server block. Durations are Go duration strings.
type ServerSettings struct {
	Address         string `hcl:"address,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	DecisionTimeout string `hcl:"decision_timeout,optional"`
	HandPause       string `hcl:"hand_pause,optional"`
	ArchiveDir      string `hcl:"archive_dir,optional"`
	Seed            int64  `hcl:"seed,optional"`
}

// TableConfig is one table block.
type TableConfig struct {
	Name          string      `hcl:"name,label"`
	MaxPlayers    int         `hcl:"max_players,optional"`
	StartingChips int         `hcl:"starting_chips,optional"`
	DealersChoice bool        `hcl:"dealers_choice,optional"`
	Variant       string      `hcl:"variant,optional"`
	SpecialCards  []string    `hcl:"special_cards,optional"`
	AutoStart     *bool       `hcl:"auto_start,optional"`
	Ante          *AnteConfig `hcl:"ante,block"`
}

// AnteConfig is a table's ante block. Set either starting_value for a flat
// ante or blinds for blinds.
type AnteConfig struct {
	StartingValue int    `hcl:"starting_value,optional"`
	Blinds        []int  `hcl:"blinds,optional"`
	Name          string `hcl:"name,optional"`
	MinBet        int    `hcl:"min_bet,optional"`
	Change        string `hcl:"change,optional"`
	Mul           int    `hcl:"mul,optional"`
	Rounds        int    `hcl:"rounds,optional"`
	Seconds       int    `hcl:"seconds,optional"`
}

// BotConfig seats count bots playing strategy at a table.
type BotConfig struct {
	Name     string `hcl:"name,label"`
	Table    string `hcl:"table"`
	Strategy string `hcl:"strategy,optional"`
	Count    int    `hcl:"count,optional"`
}

// DefaultConfig is one six-seat Texas Hold 'Em table and no bots.
func DefaultConfig() *Config {
	c := &Config{Tables: []TableConfig{{Name: "main"}}}
	c.applyDefaults()
	return c
}

// LoadConfig reads an HCL config file. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source and applies defaults.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	if len(config.Tables) == 0 {
		config.Tables = []TableConfig{{Name: "main"}}
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.DecisionTimeout == "" {
		c.Server.DecisionTimeout = defaultDecisionTimeout.String()
	}
	if c.Server.HandPause == "" {
		c.Server.HandPause = table.DefaultPause.String()
	}

	defaults := table.DefaultConfig("")
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.MaxPlayers == 0 {
			t.MaxPlayers = defaults.MaxPlayers
		}
		if t.StartingChips == 0 {
			t.StartingChips = defaults.StartingChips
		}
		if t.Variant == "" {
			t.Variant = defaults.Variant
		}
		if t.AutoStart == nil {
			autoStart := true
			t.AutoStart = &autoStart
		}
		if t.Ante == nil {
			t.Ante = &AnteConfig{Blinds: []int{1, 2}}
		}
		if t.Ante.Mul == 0 {
			t.Ante.Mul = 2
		}
	}

	for i := range c.Bots {
		if c.Bots[i].Strategy == "" {
			c.Bots[i].Strategy = "easy"
		}
		if c.Bots[i].Count == 0 {
			c.Bots[i].Count = 1
		}
	}
}

// Validate reports the first problem with the configuration.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}
	if d, err := c.decisionTimeout(); err != nil || d <= 0 {
		return fmt.Errorf("invalid decision timeout %q", c.Server.DecisionTimeout)
	}
	if d, err := c.handPause(); err != nil || d < 0 {
		return fmt.Errorf("invalid hand pause %q", c.Server.HandPause)
	}
	if len(c.Tables) == 0 {
		return errors.New("at least one table must be configured")
	}

	names := make(map[string]bool)
	for _, t := range c.Tables {
		if names[t.Name] {
			return fmt.Errorf("table %s is configured twice", t.Name)
		}
		names[t.Name] = true
		tc, err := c.tableConfig(t)
		if err != nil {
			return err
		}
		if err := tc.Validate(); err != nil {
			return err
		}
	}

	for _, b := range c.Bots {
		if !names[b.Table] {
			return fmt.Errorf("bot %s: %w %q", b.Name, ErrUnknownTable, b.Table)
		}
		if _, err := bot.Lookup(b.Strategy); err != nil {
			return fmt.Errorf("bot %s: %w", b.Name, err)
		}
		if b.Count < 1 {
			return fmt.Errorf("bot %s: count must be positive", b.Name)
		}
	}
	return nil
}

func (c *Config) decisionTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.DecisionTimeout)
}

func (c *Config) handPause() (time.Duration, error) {
	return time.ParseDuration(c.Server.HandPause)
}

// tableConfig converts a table block into the table package's config.
func (c *Config) tableConfig(t TableConfig) (table.Config, error) {
	pause, err := c.handPause()
	if err != nil {
		return table.Config{}, fmt.Errorf("table %s: hand pause: %w", t.Name, err)
	}
	ante, err := t.Ante.schedule()
	if err != nil {
		return table.Config{}, fmt.Errorf("table %s: %w", t.Name, err)
	}
	return table.Config{
		Name:          t.Name,
		MaxPlayers:    t.MaxPlayers,
		StartingChips: t.StartingChips,
		Variant:       t.Variant,
		SpecialGroups: t.SpecialCards,
		DealersChoice: t.DealersChoice,
		Ante:          ante,
		Pause:         pause,
		Seed:          c.Server.Seed,
	}, nil
}

func (a *AnteConfig) schedule() (table.AnteSchedule, error) {
	change, err := table.ParseAnteChange(a.Change)
	if err != nil {
		return table.AnteSchedule{}, err
	}
	s := table.AnteSchedule{
		Name:   a.Name,
		MinBet: a.MinBet,
		Change: change,
		Mul:    a.Mul,
		Rounds: a.Rounds,
		Every:  time.Duration(a.Seconds) * time.Second,
	}
	switch {
	case len(a.Blinds) > 0 && a.StartingValue > 0:
		return table.AnteSchedule{}, errors.New("ante: set starting_value or blinds, not both")
	case len(a.Blinds) > 0:
		s.Start = game.BlindsOf(a.Blinds...)
	default:
		s.Start = game.AnteOf(a.StartingValue)
	}
	return s, nil
}

// botIDs names the players a bot block seats.
func (b BotConfig) botIDs() []string {
	if b.Count == 1 {
		return []string{b.Name}
	}
	ids := make([]string, b.Count)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", b.Name, i+1)
	}
	return ids
}
