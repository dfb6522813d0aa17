package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/lox/dealerschoice/internal/statistics"
)

var errDone = errors.New("done")

// HistoryCmd prints hands from an archive written by serve or simulate.
type HistoryCmd struct {
	File    string `arg:"" type:"existingfile" help:"Archive file, such as hands/main.msgpack"`
	Hand    *int   `help:"Only print this hand number"`
	Player  string `short:"p" help:"Only print hands this player was dealt into"`
	Limit   int    `short:"n" help:"Maximum number of hands to print (0 = all)"`
	Summary bool   `short:"s" help:"Print per-player statistics instead of hands"`
}

func (c *HistoryCmd) Run() error {
	return c.print(os.Stdout)
}

func (c *HistoryCmd) print(w io.Writer) error {
	stats := statistics.NewCollector()
	printed := 0
	err := handlog.ReadFile(c.File, func(rec handlog.Record) error {
		if c.Hand != nil && rec.Number != *c.Hand {
			return nil
		}
		if c.Player != "" && !slices.Contains(rec.Roster, c.Player) {
			return nil
		}
		if c.Summary {
			stats.Add(rec)
			return nil
		}
		if _, err := fmt.Fprintln(w, renderRecord(rec)); err != nil {
			return err
		}
		printed++
		if c.Limit > 0 && printed >= c.Limit {
			return errDone
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		return err
	}

	if c.Summary {
		if stats.Hands == 0 {
			return fmt.Errorf("no matching hands in %s", c.File)
		}
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d hands from %s", stats.Hands, c.File)))
		fmt.Fprintln(w, renderStats(stats))
		fmt.Fprintln(w, renderVariants(stats))
		return nil
	}
	if printed == 0 {
		return fmt.Errorf("no matching hands in %s", c.File)
	}
	return nil
}
