package main

import (
	"github.com/alecthomas/kong"
	"github.com/lox/dealerschoice/internal/client"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/server"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the poker server"`
	Bot      BotCmd           `cmd:"" help:"Connect a built-in bot to a server"`
	Watch    WatchCmd         `cmd:"" help:"Spectate a table"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot-only tables and summarise the results"`
	Odds     OddsCmd          `cmd:"" help:"Work out the chance a hand wins"`
	History  HistoryCmd       `cmd:"" help:"Print hands from an archive"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dealerschoice"),
		kong.Description("Dealer's choice poker: hold 'em, stud and draw with wild cards"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":         version,
			"config_file":     server.DefaultConfigFile,
			"bot_config_file": client.DefaultConfigFile,
			"default_variant": game.TexasHoldEm,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
