package poker

import (
	"fmt"
	"iter"
	"strings"
)

const (
	// RankTupleCap is the number of ranks a RankTuple can hold.
	RankTupleCap = 16
	// CardTupleCap is the number of cards a CardTuple can hold.
	CardTupleCap = 9

	rankBits = 4
	cardBits = 6
)

// RankTuple is an ordered sequence of up to 16 ranks packed into one word.
// The zero value is empty and ready to use.
type RankTuple struct {
	field uint64
	n     uint8
}

// RanksOf builds a RankTuple from ranks in order.
func RanksOf(ranks ...Rank) RankTuple {
	var t RankTuple
	for _, r := range ranks {
		t.Push(r)
	}
	return t
}

// Push appends a rank. It panics when the tuple is full.
func (t *RankTuple) Push(r Rank) {
	if t.n >= RankTupleCap {
		panic("poker: push on full RankTuple")
	}
	t.field |= uint64(r&0xf) << (uint(t.n) * rankBits)
	t.n++
}

// Get returns the rank at idx. It panics when idx is out of range.
func (t RankTuple) Get(idx int) Rank {
	if idx < 0 || idx >= int(t.n) {
		panic(fmt.Sprintf("poker: index %d out of range for RankTuple of length %d", idx, t.n))
	}
	return Rank((t.field >> (uint(idx) * rankBits)) & 0xf)
}

// Len returns the number of ranks held.
func (t RankTuple) Len() int { return int(t.n) }

// First returns the first rank, if any.
func (t RankTuple) First() (Rank, bool) {
	if t.n == 0 {
		return 0, false
	}
	return t.Get(0), true
}

// Last returns the last rank, if any.
func (t RankTuple) Last() (Rank, bool) {
	if t.n == 0 {
		return 0, false
	}
	return t.Get(int(t.n) - 1), true
}

// Clear empties the tuple.
func (t *RankTuple) Clear() {
	t.field = 0
	t.n = 0
}

// Sort orders the ranks ascending with a counting sort over 0..AceHigh.
func (t *RankTuple) Sort() {
	var counts [NumRanks + 1]uint8
	for i := range int(t.n) {
		counts[t.Get(i)]++
	}
	t.Clear()
	for r, c := range counts {
		for range c {
			t.Push(Rank(r))
		}
	}
}

// All iterates from first to last.
func (t RankTuple) All() iter.Seq[Rank] {
	return func(yield func(Rank) bool) {
		for i := range int(t.n) {
			if !yield(t.Get(i)) {
				return
			}
		}
	}
}

// Backward iterates from last to first.
func (t RankTuple) Backward() iter.Seq[Rank] {
	return func(yield func(Rank) bool) {
		for i := int(t.n) - 1; i >= 0; i-- {
			if !yield(t.Get(i)) {
				return
			}
		}
	}
}

// Ranks copies the tuple into a slice.
func (t RankTuple) Ranks() []Rank {
	out := make([]Rank, 0, t.n)
	for r := range t.All() {
		out = append(out, r)
	}
	return out
}

// Compare orders tuples lexicographically; a proper prefix sorts first.
func (t RankTuple) Compare(o RankTuple) int {
	n := min(t.Len(), o.Len())
	for i := range n {
		a, b := t.Get(i), o.Get(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	switch {
	case t.Len() < o.Len():
		return -1
	case t.Len() > o.Len():
		return 1
	}
	return 0
}

// MarshalBinary encodes the tuple as one byte per rank.
func (t RankTuple) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, t.n)
	for r := range t.All() {
		out = append(out, byte(r))
	}
	return out, nil
}

// UnmarshalBinary decodes MarshalBinary output, rejecting too many ranks
// or bytes that are not ranks.
func (t *RankTuple) UnmarshalBinary(data []byte) error {
	if len(data) > RankTupleCap {
		return fmt.Errorf("poker: %d ranks exceed RankTuple capacity", len(data))
	}
	t.Clear()
	for _, b := range data {
		if Rank(b) > AceHigh {
			return fmt.Errorf("poker: invalid rank %d", b)
		}
		t.Push(Rank(b))
	}
	return nil
}

func (t RankTuple) String() string {
	parts := make([]string, 0, t.n)
	for r := range t.All() {
		parts = append(parts, r.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// CardTuple is an ordered sequence of up to 9 cards packed into one word,
// 4 rank bits and 2 suit bits per card.
type CardTuple struct {
	field uint64
	n     uint8
}

// CardsOf builds a CardTuple from cards in order.
func CardsOf(cards ...Card) CardTuple {
	var t CardTuple
	for _, c := range cards {
		t.Push(c)
	}
	return t
}

// Push appends a card. It panics when the tuple is full.
func (t *CardTuple) Push(c Card) {
	if t.n >= CardTupleCap {
		panic("poker: push on full CardTuple")
	}
	shift := uint(t.n) * cardBits
	t.field |= uint64(c.Rank&0xf) << shift
	t.field |= uint64(c.Suit&0x3) << (shift + rankBits)
	t.n++
}

// Get returns the card at idx. It panics when idx is out of range.
func (t CardTuple) Get(idx int) Card {
	if idx < 0 || idx >= int(t.n) {
		panic(fmt.Sprintf("poker: index %d out of range for CardTuple of length %d", idx, t.n))
	}
	packed := (t.field >> (uint(idx) * cardBits)) & 0x3f
	return Card{Rank: Rank(packed & 0xf), Suit: Suit(packed >> rankBits)}
}

// Len returns the number of cards held.
func (t CardTuple) Len() int { return int(t.n) }

// All iterates the cards in insertion order.
func (t CardTuple) All() iter.Seq[Card] {
	return func(yield func(Card) bool) {
		for i := range int(t.n) {
			if !yield(t.Get(i)) {
				return
			}
		}
	}
}

// AppendTo appends the cards to buf and returns it.
func (t CardTuple) AppendTo(buf []Card) []Card {
	for c := range t.All() {
		buf = append(buf, c)
	}
	return buf
}

// Cards copies the tuple into a new slice.
func (t CardTuple) Cards() []Card {
	return t.AppendTo(make([]Card, 0, t.n))
}

func (t CardTuple) String() string {
	return "[" + FormatCards(t.Cards()) + "]"
}
