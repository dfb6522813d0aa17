// Package statistics summarises archived hands per player: chips won or lost
// per hand, how the pots were won and how each seat and game fared.
package statistics

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/handlog"
	"gonum.org/v1/gonum/stat"
)

// HandResult is one player's outcome of a single hand.
type HandResult struct {
	Net            int    // Chips won or lost
	Role           int    // 0 is the dealer
	Variant        string // Game dealt
	WentToShowdown bool   // Did the player show cards?
	Pot            int    // Chips in every subpot
	BigBlind       int    // Largest forced bet, to normalise Net
}

// Results splits a finished hand into one result per player id.
func Results(rec handlog.Record) map[string]HandResult {
	showed := make(map[game.Role]bool)
	pot := 0
	for _, d := range rec.Diffs {
		switch d.Kind {
		case game.DiffShowCards:
			showed[d.Player] = true
		case game.DiffWinners:
			if d.Winners != nil {
				for _, p := range d.Winners.Pots {
					pot += p.Subpot.Chips
				}
			}
		}
	}
	bb := rec.Rules.MinBet
	if a := rec.Rules.Ante; len(a.Blinds) > 0 {
		bb = slices.Max(a.Blinds)
	}
	results := make(map[string]HandResult, len(rec.Roster))
	for role, id := range rec.Roster {
		net := 0
		if role < len(rec.Deltas) {
			net = rec.Deltas[role]
		}
		results[id] = HandResult{
			Net:            net,
			Role:           role,
			Variant:        rec.Variant,
			WentToShowdown: showed[game.Role(role)],
			Pot:            pot,
			BigBlind:       bb,
		}
	}
	return results
}

// GroupStats is a running total for one slice of the results.
type GroupStats struct {
	Hands int
	Net   int
}

// Mean is the average net chips per hand in the group.
func (g GroupStats) Mean() float64 {
	if g.Hands == 0 {
		return 0
	}
	return float64(g.Net) / float64(g.Hands)
}

// Statistics tracks one player's results.
type Statistics struct {
	Hands  int
	Net    int
	Values []float64 // Net per hand, in big blinds

	ShowdownWins    int // Hands won at showdown
	NonShowdownWins int // Hands won with everyone else folded
	ShowdownNet     int
	NonShowdownNet  int

	Roles    map[int]*GroupStats
	Variants map[string]*GroupStats

	MaxPot int
}

// Add incorporates a hand.
func (s *Statistics) Add(r HandResult) {
	bb := float64(max(r.BigBlind, 1))
	s.Hands++
	s.Net += r.Net
	s.Values = append(s.Values, float64(r.Net)/bb)

	if r.WentToShowdown {
		s.ShowdownNet += r.Net
		if r.Net > 0 {
			s.ShowdownWins++
		}
	} else {
		s.NonShowdownNet += r.Net
		if r.Net > 0 {
			s.NonShowdownWins++
		}
	}

	if s.Roles == nil {
		s.Roles = make(map[int]*GroupStats)
		s.Variants = make(map[string]*GroupStats)
	}
	addTo(s.Roles, r.Role, r.Net)
	addTo(s.Variants, r.Variant, r.Net)
	s.MaxPot = max(s.MaxPot, r.Pot)
}

func addTo[K comparable](m map[K]*GroupStats, k K, net int) {
	g, ok := m[k]
	if !ok {
		g = &GroupStats{}
		m[k] = g
	}
	g.Hands++
	g.Net += net
}

// Mean returns the average result in big blinds per hand.
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance returns the sample variance of the per-hand results.
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return stat.StdErr(s.StdDev(), float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at p (0 to 1), interpolating between the
// closest results.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// WinRate is the share of hands the player won chips in.
func (s *Statistics) WinRate() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.ShowdownWins+s.NonShowdownWins) / float64(s.Hands)
}

// IsLedgerBalanced checks the showdown split adds up.
func (s *Statistics) IsLedgerBalanced() bool {
	return s.Net == s.ShowdownNet+s.NonShowdownNet
}

// Validate checks the totals are consistent with each other.
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: net=%d, showdown=%d, non-showdown=%d",
			s.Net, s.ShowdownNet, s.NonShowdownNet)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("values length (%d) does not match hands count (%d)", len(s.Values), s.Hands)
	}
	if wins := s.ShowdownWins + s.NonShowdownWins; wins > s.Hands {
		return fmt.Errorf("total wins (%d) exceeds total hands (%d)", wins, s.Hands)
	}
	roleHands := 0
	for _, g := range s.Roles {
		roleHands += g.Hands
	}
	if roleHands != s.Hands {
		return fmt.Errorf("role hands total (%d) does not match total hands (%d)", roleHands, s.Hands)
	}
	return nil
}

// Collector gathers statistics for every player across many hands.
type Collector struct {
	Hands   int
	Players map[string]*Statistics
}

func NewCollector() *Collector {
	return &Collector{Players: make(map[string]*Statistics)}
}

// Add records a finished hand for everyone dealt in.
func (c *Collector) Add(rec handlog.Record) {
	c.Hands++
	for id, r := range Results(rec) {
		s, ok := c.Players[id]
		if !ok {
			s = &Statistics{}
			c.Players[id] = s
		}
		s.Add(r)
	}
}

// Names lists the players from biggest winner to biggest loser.
func (c *Collector) Names() []string {
	names := make([]string, 0, len(c.Players))
	for id := range c.Players {
		names = append(names, id)
	}
	slices.SortFunc(names, func(a, b string) int {
		if d := c.Players[b].Net - c.Players[a].Net; d != 0 {
			return d
		}
		if a < b {
			return -1
		}
		return 1
	})
	return names
}

// Validate checks every player and that no chips were created or lost.
func (c *Collector) Validate() error {
	total := 0
	for id, s := range c.Players {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		total += s.Net
	}
	if total != 0 {
		return fmt.Errorf("chips not conserved: players net %d", total)
	}
	return nil
}
