package game

import "github.com/lox/dealerschoice/poker"

// Round is one phase of a variant. The concrete types are Ante, DrawToHand,
// DrawToCommunity, Bet and Replace.
type Round interface {
	roundName() string
}

// Ante collects the table's ante or blinds.
type Ante struct{}

// DrawToHand deals one card per entry to every unfolded player, each entry
// giving the facing of that card.
type DrawToHand struct {
	Facing []Facing
}

// DrawToCommunity turns Count cards onto the board.
type DrawToCommunity struct {
	Count int
}

// Bet is a betting round starting at StartingPlayer.
type Bet struct {
	StartingPlayer Role
}

// Replace lets every unfolded player swap up to MaxReplace(hand) cards.
type Replace struct {
	MaxReplace func(hand []CardState) int
}

func (Ante) roundName() string            { return "ante" }
func (DrawToHand) roundName() string      { return "draw" }
func (DrawToCommunity) roundName() string { return "community" }
func (Bet) roundName() string             { return "bet" }
func (Replace) roundName() string         { return "replace" }

// Variant is a poker game: its phases and how many hole cards may play.
type Variant struct {
	Name        string
	Rounds      []Round
	UseFromHand int
}

const (
	TexasHoldEm   = "Texas Hold 'Em"
	OmahaHoldEm   = "Omaha Hold 'Em"
	SevenCardStud = "Seven Card Stud"
	FiveCardStud  = "Five Card Stud"
	FiveCardDraw  = "Five Card Draw"
)

// Deal returns the facing of every card a player ends up holding and how
// many community cards are turned, if the hand runs to showdown.
func (v Variant) Deal() (hand []Facing, community int) {
	for _, r := range v.Rounds {
		switch r := r.(type) {
		case DrawToHand:
			hand = append(hand, r.Facing...)
		case DrawToCommunity:
			community += r.Count
		}
	}
	return hand, community
}

// Fits reports whether a full deck covers every card dealt to that many players
// and the board. Replacements are drawn from what is left.
func (v Variant) Fits(players int) bool {
	hand, community := v.Deal()
	return players*len(hand)+community <= poker.DeckSize
}

func facings(f Facing, n int) []Facing {
	out := make([]Facing, n)
	for i := range out {
		out[i] = f
	}
	return out
}

func holdEm(name string, holeCards int) Variant {
	return Variant{
		Name: name,
		Rounds: []Round{
			Ante{},
			DrawToHand{Facing: facings(FaceDown, holeCards)},
			Bet{StartingPlayer: 1},
			DrawToCommunity{Count: 3},
			Bet{StartingPlayer: 1},
			DrawToCommunity{Count: 1},
			Bet{StartingPlayer: 1},
			DrawToCommunity{Count: 1},
			Bet{StartingPlayer: 1},
		},
		UseFromHand: 2,
	}
}

func sevenCardStud() Variant {
	return Variant{
		Name: SevenCardStud,
		Rounds: []Round{
			Ante{},
			DrawToHand{Facing: []Facing{FaceDown, FaceDown, FaceUp}},
			Bet{StartingPlayer: 1},
			DrawToHand{Facing: []Facing{FaceUp}},
			Bet{StartingPlayer: 1},
			DrawToHand{Facing: []Facing{FaceUp}},
			Bet{StartingPlayer: 1},
			DrawToHand{Facing: []Facing{FaceUp}},
			Bet{StartingPlayer: 1},
			DrawToHand{Facing: []Facing{FaceDown}},
			Bet{StartingPlayer: 1},
		},
		UseFromHand: 5,
	}
}

func fiveCardStud() Variant {
	return Variant{
		Name: FiveCardStud,
		Rounds: []Round{
			Ante{},
			DrawToHand{Facing: facings(FaceDown, 5)},
			Bet{StartingPlayer: 1},
		},
		UseFromHand: 5,
	}
}

func fiveCardDraw() Variant {
	return Variant{
		Name: FiveCardDraw,
		Rounds: []Round{
			Ante{},
			DrawToHand{Facing: facings(FaceDown, 5)},
			Bet{StartingPlayer: 1},
			Replace{MaxReplace: ThreeOrFourWithAce},
			Bet{StartingPlayer: 1},
		},
		UseFromHand: 5,
	}
}

// ThreeOrFourWithAce allows three replacements, or four when the hand holds
// an ace.
func ThreeOrFourWithAce(hand []CardState) int {
	for _, cs := range hand {
		if cs.Card.IsAce() {
			return 4
		}
	}
	return 3
}

// Variants lists every playable variant. Index 0 is the default.
func Variants() []Variant {
	return []Variant{
		holdEm(TexasHoldEm, 2),
		holdEm(OmahaHoldEm, 4),
		sevenCardStud(),
		fiveCardStud(),
		fiveCardDraw(),
	}
}

// VariantNames lists the names of Variants in order.
func VariantNames() []string {
	variants := Variants()
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	return names
}

// LookupVariant finds a variant by name.
func LookupVariant(name string) (Variant, bool) {
	for _, v := range Variants() {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}
