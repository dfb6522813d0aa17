package game

import (
	"fmt"
	"strings"

	"github.com/lox/dealerschoice/poker"
)

// DiffKind tags a Diff.
type DiffKind string

const (
	DiffDraw          DiffKind = "draw"
	DiffCommunityDraw DiffKind = "community_draw"
	DiffFold          DiffKind = "fold"
	DiffTurnStart     DiffKind = "turn_start"
	DiffBet           DiffKind = "bet"
	DiffReplace       DiffKind = "replace"
	DiffShowCards     DiffKind = "show_cards"
	DiffWinners       DiffKind = "winners"
)

// BetKind says what kind of bet a DiffBet records.
type BetKind string

const (
	BetBlind BetKind = "blind"
	BetCheck BetKind = "check"
	BetCall  BetKind = "call"
	BetRaise BetKind = "raise"
)

// BetDiff describes a bet. Chips is what the bet put in; for raises Diff is
// the amount above the previous bet and Total the new round total.
type BetDiff struct {
	Kind  BetKind `msgpack:"kind"`
	Name  string  `msgpack:"name,omitempty"`
	Chips int     `msgpack:"chips"`
	Diff  int     `msgpack:"diff,omitempty"`
	Total int     `msgpack:"total,omitempty"`
}

// ShownCard is a card turned face up at showdown, by hand position.
type ShownCard struct {
	Index int      `msgpack:"index"`
	Card  CardView `msgpack:"card"`
}

// Diff is one entry of a hand's log. Which fields are set depends on Kind.
// Draw and replace diffs are kept unredacted in the log and redacted per
// viewer with Redact.
type Diff struct {
	Kind     DiffKind            `msgpack:"kind"`
	Player   Role                `msgpack:"player"`
	Drawn    []CardView          `msgpack:"drawn,omitempty"`
	Discard  []CardView          `msgpack:"discard,omitempty"`
	Bet      *BetDiff            `msgpack:"bet,omitempty"`
	Shown    []ShownCard         `msgpack:"shown,omitempty"`
	Strength *poker.HandStrength `msgpack:"strength,omitempty"`
	Winners  *Winners            `msgpack:"winners,omitempty"`
}

func drawDiff(player Role, drawn ...CardState) Diff {
	d := Diff{Kind: DiffDraw, Player: player}
	for _, cs := range drawn {
		d.Drawn = append(d.Drawn, Visible(cs))
	}
	return d
}

func replaceDiff(player Role, discard, drawn []CardState) Diff {
	d := Diff{Kind: DiffReplace, Player: player}
	for _, cs := range discard {
		d.Discard = append(d.Discard, Visible(cs))
	}
	for _, cs := range drawn {
		d.Drawn = append(d.Drawn, Visible(cs))
	}
	return d
}

func communityDiff(cards []poker.Card) Diff {
	d := Diff{Kind: DiffCommunityDraw, Player: NoRole}
	for _, c := range cards {
		d.Drawn = append(d.Drawn, Visible(CardState{Card: c, Facing: FaceUp}))
	}
	return d
}

func blindDiff(player Role, chips int, name string) Diff {
	return Diff{Kind: DiffBet, Player: player, Bet: &BetDiff{Kind: BetBlind, Name: name, Chips: chips}}
}

// betDiff classifies a bet of amount (the round total) by a player who had
// already put in betThisRound against a standing bet of lastBet.
func betDiff(player Role, amount, betThisRound, lastBet int) Diff {
	call := amount - betThisRound
	var b BetDiff
	switch {
	case (lastBet == 0 && amount == 0) || call == 0:
		b = BetDiff{Kind: BetCheck, Chips: call}
	case amount <= lastBet:
		b = BetDiff{Kind: BetCall, Chips: call}
	default:
		b = BetDiff{Kind: BetRaise, Chips: amount, Diff: amount - lastBet, Total: amount}
	}
	return Diff{Kind: DiffBet, Player: player, Bet: &b}
}

// Redact returns the diff as viewer sees it: face-down cards drawn or
// discarded by anyone else become invisible.
func (d Diff) Redact(viewer Role) Diff {
	if d.Kind != DiffDraw && d.Kind != DiffReplace {
		return d
	}
	owner := viewer != NoRole && viewer == d.Player
	out := d
	out.Drawn = redactAll(d.Drawn, owner)
	out.Discard = redactAll(d.Discard, owner)
	return out
}

func redactAll(views []CardView, owner bool) []CardView {
	if views == nil {
		return nil
	}
	out := make([]CardView, len(views))
	for i, v := range views {
		if v.Visible {
			v = CardState{Card: v.Card, Facing: v.Facing}.ViewFor(owner)
		}
		out[i] = v
	}
	return out
}

// RedactAll redacts a batch of diffs for viewer.
func RedactAll(diffs []Diff, viewer Role) []Diff {
	out := make([]Diff, len(diffs))
	for i, d := range diffs {
		out[i] = d.Redact(viewer)
	}
	return out
}

func formatViews(views []CardView) string {
	parts := make([]string, len(views))
	for i, v := range views {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// Describe renders the diff for humans, naming players with name.
func (d Diff) Describe(name func(Role) string) string {
	switch d.Kind {
	case DiffDraw:
		return fmt.Sprintf("%s drew %s", name(d.Player), formatViews(d.Drawn))
	case DiffCommunityDraw:
		return fmt.Sprintf("%s drawn to community", formatViews(d.Drawn))
	case DiffFold:
		return fmt.Sprintf("%s folded", name(d.Player))
	case DiffTurnStart:
		return fmt.Sprintf("%s is taking their turn", name(d.Player))
	case DiffBet:
		switch d.Bet.Kind {
		case BetBlind:
			return fmt.Sprintf("%s %s %d", name(d.Player), d.Bet.Name, d.Bet.Chips)
		case BetCheck:
			return fmt.Sprintf("%s checked", name(d.Player))
		case BetCall:
			return fmt.Sprintf("%s called %d", name(d.Player), d.Bet.Chips)
		default:
			return fmt.Sprintf("%s raised %d to %d", name(d.Player), d.Bet.Diff, d.Bet.Total)
		}
	case DiffReplace:
		if len(d.Drawn) > 0 && d.Drawn[0].Visible {
			return fmt.Sprintf("%s replaced %s with %s", name(d.Player), formatViews(d.Discard), formatViews(d.Drawn))
		}
		return fmt.Sprintf("%s replaced %d cards", name(d.Player), len(d.Drawn))
	case DiffShowCards:
		views := make([]CardView, len(d.Shown))
		for i, s := range d.Shown {
			views[i] = s.Card
		}
		return fmt.Sprintf("%s shows %s for %s", name(d.Player), formatViews(views), d.Strength)
	case DiffWinners:
		parts := make([]string, 0, len(d.Winners.Pots))
		for _, pot := range d.Winners.Pots {
			names := make([]string, len(pot.Winners))
			for i, r := range pot.Winners {
				names[i] = name(r)
			}
			if len(names) == 1 {
				parts = append(parts, fmt.Sprintf("%s wins %d", names[0], pot.Subpot.Chips))
			} else {
				parts = append(parts, fmt.Sprintf("%s split %d", strings.Join(names, ", "), pot.Subpot.Chips))
			}
		}
		return strings.Join(parts, "; ")
	}
	return string(d.Kind)
}

func (d Diff) String() string {
	return d.Describe(Role.String)
}
