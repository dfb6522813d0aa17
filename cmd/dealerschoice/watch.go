package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lox/dealerschoice/cmd/dealerschoice/shared"
	"github.com/lox/dealerschoice/internal/client"
	"github.com/lox/dealerschoice/internal/protocol"
)

// WatchCmd spectates a table and prints its log as it happens.
type WatchCmd struct {
	URL   string `default:"http://localhost:8080" help:"Server URL"`
	Table string `short:"t" default:"main" help:"Table to watch"`
	From  *int   `help:"Replay the log from this offset instead of joining live"`
	Debug bool   `help:"Enable debug logging"`
}

func (c *WatchCmd) Run() error {
	logger := shared.QuietLogger(os.Stderr, c.Debug)
	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	conn, err := client.Dial(ctx, c.URL, protocol.Hello{Table: c.Table, Spectate: true}, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	w := &watcher{out: os.Stdout, hand: -1}
	conn.On(protocol.TypeUpdate, w.update)
	if c.From != nil {
		if err := conn.Send(&protocol.Resync{Offset: *c.From}); err != nil {
			return err
		}
	}
	fmt.Println(infoStyle.Render(fmt.Sprintf("watching %s from offset %d", c.Table, conn.Welcome().Offset)))

	if err := conn.Run(ctx); ctx.Err() == nil {
		return err
	}
	return nil
}

// watcher prints the seats whenever a new hand starts and every log entry.
type watcher struct {
	out  io.Writer
	hand int
}

func (w *watcher) update(msg protocol.Message) {
	u := msg.(*protocol.Update)
	if u.Table != nil && u.Table.InHand && u.Table.Hand != w.hand {
		w.hand = u.Table.Hand
		fmt.Fprintln(w.out, renderSeats(*u.Table))
	}
	for _, entry := range u.Log {
		for _, line := range renderLog(entry) {
			fmt.Fprintln(w.out, line)
		}
	}
}
