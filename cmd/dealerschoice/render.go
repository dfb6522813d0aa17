package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/lox/dealerschoice/internal/statistics"
	"github.com/lox/dealerschoice/internal/table"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))
)

func signed(n int) string {
	switch {
	case n > 0:
		return winStyle.Render(fmt.Sprintf("+%d", n))
	case n < 0:
		return lossStyle.Render(fmt.Sprintf("%d", n))
	}
	return infoStyle.Render("0")
}

// renderRecord prints an archived hand: header, every diff and the chips
// each player won or lost.
func renderRecord(rec handlog.Record) string {
	var b strings.Builder
	title := fmt.Sprintf("%s · hand %d · %s", rec.Table, rec.Number, rec.Variant)
	if len(rec.SpecialGroups) > 0 {
		title += " · " + strings.Join(rec.SpecialGroups, ", ")
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s, min bet %d", rec.Rules.Ante, rec.Rules.MinBet)))
	b.WriteString("\n")
	for _, line := range rec.Lines() {
		b.WriteString("  ")
		b.WriteString(actionStyle.Render(line))
		b.WriteString("\n")
	}
	for role, id := range rec.Roster {
		if role < len(rec.Deltas) {
			fmt.Fprintf(&b, "  %-16s %s\n", id, signed(rec.Deltas[role]))
		}
	}
	return b.String()
}

// renderLog prints log entries as a spectator sees them.
func renderLog(u table.LogUpdate) []string {
	name := func(r game.Role) string {
		if r >= 0 && int(r) < len(u.Roster) {
			return u.Roster[r]
		}
		return r.String()
	}
	lines := make([]string, len(u.Diffs))
	for i, d := range u.Diffs {
		lines[i] = fmt.Sprintf("%s %s", infoStyle.Render(fmt.Sprintf("[%d]", u.Hand)), d.Describe(name))
	}
	return lines
}

// renderSeats prints a table's seats and chips.
func renderSeats(v table.View) string {
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers("Seat", "Player", "Chips")
	for _, s := range v.Seats {
		t.Row(fmt.Sprint(s.Seat), s.ID, fmt.Sprint(s.Chips))
	}
	return headerStyle.Render(fmt.Sprintf("%s · hand %d · %s", v.Name, v.Hand, v.Variant)) + "\n" + t.String()
}

// renderStats prints one row per player, biggest winner first.
func renderStats(c *statistics.Collector) string {
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers("Player", "Hands", "Net", "bb/hand", "95% CI", "Won", "Showdown")
	for _, id := range c.Names() {
		s := c.Players[id]
		lo, hi := s.ConfidenceInterval95()
		t.Row(
			id,
			fmt.Sprint(s.Hands),
			signed(s.Net),
			fmt.Sprintf("%.3f", s.Mean()),
			fmt.Sprintf("[%.2f, %.2f]", lo, hi),
			fmt.Sprintf("%.1f%%", s.WinRate()*100),
			fmt.Sprintf("%d / %d", s.ShowdownWins, s.ShowdownWins+s.NonShowdownWins),
		)
	}
	return t.String()
}

// renderVariants prints how each game went for every player.
func renderVariants(c *statistics.Collector) string {
	var variants []string
	for _, s := range c.Players {
		for v := range s.Variants {
			if !slices.Contains(variants, v) {
				variants = append(variants, v)
			}
		}
	}
	slices.Sort(variants)

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{"Player"}, variants...)...)
	for _, id := range c.Names() {
		row := []string{id}
		for _, v := range variants {
			g, ok := c.Players[id].Variants[v]
			if !ok {
				row = append(row, infoStyle.Render("-"))
				continue
			}
			row = append(row, fmt.Sprintf("%s in %d", signed(g.Net), g.Hands))
		}
		t.Row(row...)
	}
	return t.String()
}
