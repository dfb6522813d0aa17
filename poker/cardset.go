package poker

import (
	"iter"
	"math/bits"
)

// CardSet is a bitset over the 52 cards. Bit index is suit*13 + rank.
type CardSet uint64

const fullDeckMask CardSet = 1<<(NumSuits*NumRanks) - 1

// NewCardSet creates a set holding the given cards.
func NewCardSet(cards ...Card) CardSet {
	var s CardSet
	for _, c := range cards {
		s.Insert(c)
	}
	return s
}

// FullDeck returns the set of all 52 cards.
func FullDeck() CardSet {
	return fullDeckMask
}

// Insert adds c and reports whether the set changed.
func (s *CardSet) Insert(c Card) bool {
	bit := CardSet(1) << c.index()
	changed := *s&bit == 0
	*s |= bit
	return changed
}

// Remove deletes c and reports whether the set changed.
func (s *CardSet) Remove(c Card) bool {
	bit := CardSet(1) << c.index()
	changed := *s&bit != 0
	*s &^= bit
	return changed
}

// Contains reports whether c is in the set.
func (s CardSet) Contains(c Card) bool {
	return s&(CardSet(1)<<c.index()) != 0
}

// Len returns the number of cards in the set.
func (s CardSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// All iterates the cards in ascending index order.
func (s CardSet) All() iter.Seq[Card] {
	return func(yield func(Card) bool) {
		for rest := uint64(s); rest != 0; rest &= rest - 1 {
			if !yield(cardFromIndex(bits.TrailingZeros64(rest))) {
				return
			}
		}
	}
}

// Cards returns the members in ascending index order.
func (s CardSet) Cards() []Card {
	out := make([]Card, 0, s.Len())
	for c := range s.All() {
		out = append(out, c)
	}
	return out
}
