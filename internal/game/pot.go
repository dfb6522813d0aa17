package game

import (
	"fmt"
	"slices"

	"github.com/lox/dealerschoice/poker"
)

// Subpot is a slice of the pot contested only by Players, the unfolded
// players who matched its bet level.
type Subpot struct {
	Chips   int    `msgpack:"chips"`
	Players []Role `msgpack:"players"`
}

// CalcSubpots splits the committed chips into tiers by distinct total bet.
// A folded player pays into every tier up to their commitment but contests
// none. Every chip committed ends up in exactly one subpot.
func CalcSubpots(players []PlayerState) []Subpot {
	type tier struct {
		count int
		exact []Role
	}
	tiers := make(map[int]*tier)
	involved := make(map[Role]bool)
	for i, p := range players {
		t, ok := tiers[p.TotalBet]
		if !ok {
			t = &tier{}
			tiers[p.TotalBet] = t
		}
		t.count++
		if !p.Folded {
			t.exact = append(t.exact, Role(i))
			involved[Role(i)] = true
		}
	}

	amounts := make([]int, 0, len(tiers))
	for amount := range tiers {
		amounts = append(amounts, amount)
	}
	slices.Sort(amounts)

	var out []Subpot
	var contestants []Role
	remaining := len(players)
	acc, last := 0, 0
	for _, amount := range amounts {
		t := tiers[amount]
		acc += (amount - last) * remaining
		last = amount
		remaining -= t.count
		if len(t.exact) == 0 {
			continue
		}
		contestants = make([]Role, 0, len(involved))
		for r := range involved {
			contestants = append(contestants, r)
		}
		slices.Sort(contestants)
		if acc > 0 {
			out = append(out, Subpot{Chips: acc, Players: contestants})
			acc = 0
		}
		for _, r := range t.exact {
			delete(involved, r)
		}
	}
	// Chips above the highest unfolded bet came from players who folded.
	if acc > 0 {
		if len(out) == 0 {
			return []Subpot{{Chips: acc, Players: contestants}}
		}
		out[len(out)-1].Chips += acc
	}
	return out
}

// Share is one winner's cut of a pot.
type Share struct {
	Role  Role `msgpack:"role"`
	Chips int  `msgpack:"chips"`
}

// SplitPot divides pot evenly among winners. The remainder goes one chip at a
// time to the earliest listed winners.
func SplitPot(winners []Role, pot int) []Share {
	if len(winners) == 0 {
		panic("game: split pot between no winners")
	}
	even := pot / len(winners)
	left := pot % len(winners)
	out := make([]Share, len(winners))
	for i, w := range winners {
		cut := even
		if left > 0 {
			cut++
			left--
		}
		out[i] = Share{Role: w, Chips: cut}
	}
	return out
}

// PotResult is a settled subpot and who won it.
type PotResult struct {
	Subpot  Subpot `msgpack:"subpot"`
	Winners []Role `msgpack:"winners"`
}

// Winners is the settlement of a hand.
type Winners struct {
	Pots []PotResult `msgpack:"pots"`
}

// Totals returns the chips each winning role takes from the pot.
func (w Winners) Totals() map[Role]int {
	totals := make(map[Role]int)
	for _, pot := range w.Pots {
		for _, s := range SplitPot(pot.Winners, pot.Subpot.Chips) {
			totals[s.Role] += s.Chips
		}
	}
	return totals
}

// Deltas returns each role's net chip change for the hand.
func (w Winners) Deltas(players []PlayerState) []int {
	totals := w.Totals()
	deltas := make([]int, len(players))
	for i, p := range players {
		deltas[i] = totals[Role(i)] - p.TotalBet
	}
	return deltas
}

func (w Winners) String() string {
	s := ""
	for i, pot := range w.Pots {
		if i > 0 {
			s += "; "
		}
		if len(pot.Winners) == 1 {
			s += fmt.Sprintf("%s wins %d", pot.Winners[0], pot.Subpot.Chips)
		} else {
			s += fmt.Sprintf("%v split %d", pot.Winners, pot.Subpot.Chips)
		}
	}
	return s
}

// Showdown holds what is needed to judge the unfolded hands.
type Showdown struct {
	Community   []poker.Card
	UseFromHand int
	Rules       []poker.SpecialCard
}

// Strength evaluates one player's best hand.
func (s Showdown) Strength(p *PlayerState) poker.HandStrength {
	return poker.BestHandUseFromHand(s.UseFromHand, p.Cards(), s.Community, poker.HandSize, s.Rules)
}

// CalcWinners settles every subpot. A contested subpot goes to the
// strongest hands among its players; an uncontested one goes to its only
// player without evaluating anything.
func CalcWinners(players []PlayerState, s Showdown) Winners {
	strengths := make(map[Role]poker.HandStrength)
	strength := func(r Role) poker.HandStrength {
		if st, ok := strengths[r]; ok {
			return st
		}
		st := s.Strength(&players[r])
		strengths[r] = st
		return st
	}

	var w Winners
	for _, pot := range CalcSubpots(players) {
		if len(pot.Players) == 0 {
			panic("game: subpot with no contestants")
		}
		winners := []Role{pot.Players[0]}
		if len(pot.Players) > 1 {
			best := strength(pot.Players[0])
			for _, r := range pot.Players[1:] {
				switch st := strength(r); st.Compare(best) {
				case 1:
					winners = []Role{r}
					best = st
				case 0:
					winners = append(winners, r)
				}
			}
		}
		w.Pots = append(w.Pots, PotResult{Subpot: pot, Winners: winners})
	}
	return w
}
