package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/dealerschoice/cmd/dealerschoice/shared"
	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/lox/dealerschoice/internal/simulator"
	"github.com/lox/dealerschoice/internal/table"
)

// SimulateCmd plays bot-only tables as fast as possible.
type SimulateCmd struct {
	Bots          []string      `short:"b" default:"easy,medium,always_call" help:"Strategy of each bot at every table"`
	Tables        int           `short:"t" default:"1" help:"Tables to play in parallel"`
	Hands         int           `short:"n" default:"100" help:"Hands per table (0 = until one bot has every chip)"`
	Variant       string        `default:"${default_variant}" help:"Game to play when there is no dealer's choice"`
	DealersChoice bool          `help:"Let the dealer pick the game each hand"`
	Special       []string      `help:"Special card groups, such as 'Twos Wild'"`
	Chips         int           `default:"1000" help:"Starting chips"`
	Seed          int64         `help:"Deterministic RNG seed (0 = random)"`
	Timeout       time.Duration `default:"5m" help:"Give up after this long"`
	Output        string        `short:"o" help:"Write the hands to this archive file"`
	Debug         bool          `help:"Enable debug logging"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.QuietLogger(os.Stderr, c.Debug)
	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	tcfg := table.DefaultConfig("sim")
	tcfg.MaxPlayers = max(tcfg.MaxPlayers, len(c.Bots))
	tcfg.StartingChips = c.Chips
	tcfg.Variant = c.Variant
	tcfg.DealersChoice = c.DealersChoice
	tcfg.SpecialGroups = c.Special
	tcfg.Pause = 0

	start := time.Now()
	res, err := simulator.New(simulator.Config{
		Tables:     c.Tables,
		Hands:      c.Hands,
		Strategies: c.Bots,
		Table:      tcfg,
		Seed:       c.Seed,
		Timeout:    c.Timeout,
		Logger:     logger,
	}).Run(ctx)
	if err != nil {
		return err
	}
	return c.report(res, time.Since(start))
}

func (c *SimulateCmd) report(res *simulator.Result, took time.Duration) error {
	hands := 0
	for _, t := range res.Tables {
		hands += t.Hands
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("%d hands at %d tables in %v", hands, len(res.Tables), took.Round(time.Millisecond))))
	fmt.Println(infoStyle.Render(fmt.Sprintf("seed %d", res.Seed)))
	fmt.Println(renderStats(res.Stats))
	if c.DealersChoice {
		fmt.Println(renderVariants(res.Stats))
	}

	if c.Output == "" {
		return nil
	}
	if err := handlog.WriteFile(c.Output, res.Records); err != nil {
		return fmt.Errorf("writing %s: %w", c.Output, err)
	}
	fmt.Println(infoStyle.Render(fmt.Sprintf("wrote %d hands to %s", len(res.Records), c.Output)))
	return nil
}
