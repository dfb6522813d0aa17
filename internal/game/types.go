package game

import (
	"context"
	"fmt"

	"github.com/lox/dealerschoice/poker"
)

// Role is a player's position for a single hand. Role 0 is the dealer and
// the rest follow clockwise.
type Role int

// NoRole is the viewer role of spectators.
const NoRole Role = -1

func (r Role) String() string {
	if r == NoRole {
		return "spectator"
	}
	return fmt.Sprintf("role %d", int(r))
}

// Facing says whether a card in a hand is visible to the other players.
type Facing uint8

const (
	FaceDown Facing = iota
	FaceUp
)

func (f Facing) String() string {
	if f == FaceUp {
		return "up"
	}
	return "down"
}

func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Facing) UnmarshalText(text []byte) error {
	switch string(text) {
	case "up":
		*f = FaceUp
	case "down":
		*f = FaceDown
	default:
		return fmt.Errorf("game: unknown facing %q", text)
	}
	return nil
}

// CardState is a card in a player's hand.
type CardState struct {
	Card   poker.Card `msgpack:"card"`
	Facing Facing     `msgpack:"facing"`
}

// CardView is a card as one viewer sees it. Invisible cards carry no card.
type CardView struct {
	Visible bool       `msgpack:"visible"`
	Card    poker.Card `msgpack:"card,omitempty"`
	Facing  Facing     `msgpack:"facing"`
}

// Visible returns the view of a card everyone can see.
func Visible(cs CardState) CardView {
	return CardView{Visible: true, Card: cs.Card, Facing: cs.Facing}
}

// ViewFor redacts a face-down card unless the viewer owns it.
func (cs CardState) ViewFor(owner bool) CardView {
	if owner || cs.Facing == FaceUp {
		return Visible(cs)
	}
	return CardView{Facing: cs.Facing}
}

func (v CardView) String() string {
	if !v.Visible {
		return "XX"
	}
	return v.Card.String()
}

// PlayerState is a player's part of a hand. Chips is the stack the player
// started the hand with; TotalBet is what has been committed to the pot so far.
type PlayerState struct {
	Chips    int
	TotalBet int
	Hand     []CardState
	Folded   bool
}

// Bettable is what the player can still put in.
func (p *PlayerState) Bettable() int {
	return p.Chips - p.TotalBet
}

// Cards returns the bare cards of the player's hand.
func (p *PlayerState) Cards() []poker.Card {
	cards := make([]poker.Card, len(p.Hand))
	for i, cs := range p.Hand {
		cards[i] = cs.Card
	}
	return cards
}

// BetResp answers a bet request. Amount is the player's total bet for the
// current betting round, so a call is the call amount and a check is zero.
type BetResp struct {
	Fold   bool `msgpack:"fold"`
	Amount int  `msgpack:"amount"`
}

// BetChips is a bet of amount.
func BetChips(amount int) BetResp {
	return BetResp{Amount: amount}
}

// FoldResp gives up the hand.
func FoldResp() BetResp {
	return BetResp{Fold: true}
}

func (b BetResp) String() string {
	if b.Fold {
		return "fold"
	}
	return fmt.Sprintf("bet %d", b.Amount)
}

// DealersChoiceResp picks the next hand's variant by index and the special
// card groups to play with by name.
type DealersChoiceResp struct {
	Variant       int      `msgpack:"variant"`
	SpecialGroups []string `msgpack:"special_groups"`
}

// Player is the input side of a seated player. The request methods may block
// until the player answers; the context is cancelled on shutdown. Update must
// not block.
type Player interface {
	Bet(ctx context.Context, callAmount, minBet int) BetResp
	Replace(ctx context.Context, maxReplace int) []int
	DealersChoice(ctx context.Context, variants []string, groups []string) DealersChoiceResp
	Update(update ViewUpdate)
}

// ViewUpdate is pushed to a player whenever the hand changes. Offset is the
// log offset of the first diff.
type ViewUpdate struct {
	View   View   `msgpack:"view"`
	Offset int    `msgpack:"offset"`
	Diffs  []Diff `msgpack:"diffs"`
}
