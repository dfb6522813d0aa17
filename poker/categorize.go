package poker

import "slices"

// StartCategory is a coarse strength bucket for a two-card start.
type StartCategory string

const (
	CategoryPremium StartCategory = "Premium"
	CategoryStrong  StartCategory = "Strong"
	CategoryMedium  StartCategory = "Medium"
	CategoryWeak    StartCategory = "Weak"
	CategoryTrash   StartCategory = "Trash"
	CategoryUnknown StartCategory = "Unknown"
)

var startOrder = []StartCategory{CategoryUnknown, CategoryTrash, CategoryWeak, CategoryMedium, CategoryStrong, CategoryPremium}

// Order ranks categories, Premium highest.
func (c StartCategory) Order() int {
	return slices.Index(startOrder, c)
}

// CategorizeStart buckets two hole cards.
// Premium (JJ+, AK), Strong (TT, AQ, AJ), Medium (77-99, suited broadway),
// Weak (22-66, suited connectors), Trash (everything else). Wild cards make
// any start at least Strong.
func CategorizeStart(c1, c2 Card, rules []SpecialCard) StartCategory {
	if c1.Rank >= NumRanks || c2.Rank >= NumRanks {
		return CategoryUnknown
	}
	if HoldsAutoWin([]Card{c1, c2}, rules) {
		return CategoryPremium
	}
	if IsWild(c1, rules) || IsWild(c2, rules) {
		return CategoryStrong
	}

	small, big := highValue(c1.Rank), highValue(c2.Rank)
	if small > big {
		small, big = big, small
	}
	suited := c1.Suit == c2.Suit
	pair := small == big

	switch {
	case pair && small >= highValue(Jack), small == highValue(King) && big == highValue(AceHigh):
		return CategoryPremium
	case pair && small == highValue(Ten), big == highValue(AceHigh) && (small == highValue(Queen) || small == highValue(Jack)):
		return CategoryStrong
	case pair && small >= highValue(Seven), suited && small >= highValue(Ten):
		return CategoryMedium
	case pair, suited && big-small <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}

// highValue maps ranks onto 2..14 with the ace on top.
func highValue(r Rank) int {
	if r == Ace || r == AceHigh {
		return 14
	}
	return int(r) + 1
}

// BestStart is the strongest category of any two cards in hand. Hands of
// fewer than two cards are Unknown.
func BestStart(hand []Card, rules []SpecialCard) StartCategory {
	best := CategoryUnknown
	for i := range hand {
		for j := i + 1; j < len(hand); j++ {
			if c := CategorizeStart(hand[i], hand[j], rules); c.Order() > best.Order() {
				best = c
			}
		}
	}
	return best
}
