package game

import (
	"errors"
	"fmt"

	"github.com/lox/dealerschoice/poker"
)

var (
	ErrBetTooSmall    = errors.New("bet less than minimum")
	ErrBetTooLarge    = errors.New("player has too few chips")
	ErrInvalidReplace = errors.New("invalid replacement")
)

// PlayerView is one player's state as seen by a viewer.
type PlayerView struct {
	Chips    int        `msgpack:"chips"`
	TotalBet int        `msgpack:"total_bet"`
	Hand     []CardView `msgpack:"hand"`
	Folded   bool       `msgpack:"folded"`
}

// Bettable is what the player can still put in.
func (p PlayerView) Bettable() int {
	return p.Chips - p.TotalBet
}

// View is a hand from one player's perspective. Other players' face-down
// cards are invisible.
type View struct {
	Role          Role         `msgpack:"role"`
	Players       []PlayerView `msgpack:"players"`
	Community     []CardView   `msgpack:"community"`
	BetThisRound  []int        `msgpack:"bet_this_round"`
	CurrentTurn   Role         `msgpack:"current_turn"`
	SpecialGroups []string     `msgpack:"special_groups"`
	UseFromHand   int          `msgpack:"use_from_hand"`
	Variant       string       `msgpack:"variant"`
	MinBet        int          `msgpack:"min_bet"`
}

// Me returns the viewer's own player view.
func (v *View) Me() *PlayerView {
	if v.Role < 0 || int(v.Role) >= len(v.Players) {
		return nil
	}
	return &v.Players[v.Role]
}

// Rules resolves the view's special card groups.
func (v *View) Rules() []poker.SpecialCard {
	rules, _ := poker.RulesFromGroups(v.SpecialGroups)
	return rules
}

// Bettable is what role can still put in.
func (v *View) Bettable(role Role) int {
	p := v.Players[role]
	if p.Chips < p.TotalBet {
		panic(fmt.Sprintf("game: %s committed %d with only %d chips", role, p.TotalBet, p.Chips))
	}
	return p.Bettable()
}

// Pot is every chip committed so far, this round's bets included.
func (v *View) Pot() int {
	pot := 0
	for _, b := range v.BetThisRound {
		pot += b
	}
	for _, p := range v.Players {
		pot += p.TotalBet
	}
	return pot
}

// ValidBet checks a bet the viewer wants to make against the standing call
// amount and minimum raise. Going all in is always allowed.
func (v *View) ValidBet(bet, callAmount, minBet int) error {
	bettable := v.Bettable(v.Role)
	if bet == bettable {
		return nil
	}
	if bet != callAmount && bet < minBet {
		return fmt.Errorf("%w: %d < %d", ErrBetTooSmall, bet, minBet)
	}
	if bet > bettable {
		return fmt.Errorf("%w: %d > %d", ErrBetTooLarge, bet, bettable)
	}
	return nil
}

// ValidReplace checks a set of hand positions to discard: no more than
// maxReplace of them, all in range and none repeated.
func ValidReplace(indices []int, maxReplace, handSize int) error {
	if len(indices) > maxReplace {
		return fmt.Errorf("%w: %d cards, at most %d allowed", ErrInvalidReplace, len(indices), maxReplace)
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= handSize {
			return fmt.Errorf("%w: position %d outside hand of %d", ErrInvalidReplace, idx, handSize)
		}
		if seen[idx] {
			return fmt.Errorf("%w: position %d repeated", ErrInvalidReplace, idx)
		}
		seen[idx] = true
	}
	return nil
}

// CallAmount is the highest bet this round.
func (v *View) CallAmount() int {
	highest := 0
	for _, b := range v.BetThisRound {
		highest = max(highest, b)
	}
	return highest
}

// Hand returns the visible cards of role's hand.
func (v *View) Hand(role Role) []poker.Card {
	var cards []poker.Card
	for _, c := range v.Players[role].Hand {
		if c.Visible {
			cards = append(cards, c.Card)
		}
	}
	return cards
}

// CommunityCards returns the board.
func (v *View) CommunityCards() []poker.Card {
	cards := make([]poker.Card, 0, len(v.Community))
	for _, c := range v.Community {
		if c.Visible {
			cards = append(cards, c.Card)
		}
	}
	return cards
}
