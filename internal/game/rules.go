package game

import (
	"fmt"
	"strings"
)

// AnteRule says how the forced bets of a hand are collected. A rule with
// Blinds set posts blinds; otherwise every player pays Ante.
type AnteRule struct {
	Ante   int   `msgpack:"ante,omitempty"`
	Blinds []int `msgpack:"blinds,omitempty"`
}

// AnteOf is an ante of amount from every player.
func AnteOf(amount int) AnteRule {
	return AnteRule{Ante: amount}
}

// BlindsOf posts blind i from role (i+1) mod n.
func BlindsOf(amounts ...int) AnteRule {
	return AnteRule{Blinds: amounts}
}

// IsBlinds reports whether the rule posts blinds.
func (a AnteRule) IsBlinds() bool {
	return len(a.Blinds) > 0
}

// Scale multiplies every amount by mul.
func (a AnteRule) Scale(mul int) AnteRule {
	out := AnteRule{Ante: a.Ante * mul}
	if a.IsBlinds() {
		out.Blinds = make([]int, len(a.Blinds))
		for i, b := range a.Blinds {
			out.Blinds[i] = b * mul
		}
	}
	return out
}

func (a AnteRule) String() string {
	if !a.IsBlinds() {
		return fmt.Sprintf("Ante is now %d", a.Ante)
	}
	parts := make([]string, len(a.Blinds))
	for i, b := range a.Blinds {
		parts[i] = fmt.Sprint(b)
	}
	return "Blinds are now " + strings.Join(parts, ", ")
}

// TableRules are the per-hand betting rules a table hands to the engine.
type TableRules struct {
	Ante     AnteRule `msgpack:"ante"`
	AnteName string   `msgpack:"ante_name"`
	MinBet   int      `msgpack:"min_bet"`
}

// Validate checks the rules are playable.
func (r TableRules) Validate() error {
	if r.MinBet <= 0 {
		return fmt.Errorf("min bet must be positive, got %d", r.MinBet)
	}
	if r.Ante.Ante < 0 {
		return fmt.Errorf("ante must not be negative, got %d", r.Ante.Ante)
	}
	for i, b := range r.Ante.Blinds {
		if b < 0 {
			return fmt.Errorf("blind %d must not be negative, got %d", i, b)
		}
	}
	return nil
}
