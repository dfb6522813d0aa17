package poker

import "iter"

// WildSubstitutions yields unwild extended with every multiset of numWild
// stand-in cards. Stand-in ranks are the ace, each natural rank, and every
// rank within numWild steps of one (wrapping around the suit), which covers
// any straight a wild card could complete. All stand-ins take the suit the
// natural cards hold most of, so a flush in a minority suit is not found.
// The yielded slice is reused between iterations.
func WildSubstitutions(unwild []Card, numWild int) iter.Seq[[]Card] {
	return func(yield func([]Card) bool) {
		if numWild <= 0 {
			yield(unwild)
			return
		}

		possible := uint16(1) << Ace
		var suitCounts [NumSuits]int
		maxSuit := Spades
		for _, c := range unwild {
			suitCounts[c.Suit]++
			if suitCounts[c.Suit] > suitCounts[maxSuit] {
				maxSuit = c.Suit
			}
			rank := int(c.Rank) % NumRanks
			possible |= 1 << rank
			for offset := 1; offset <= numWild; offset++ {
				possible |= 1 << ((rank + offset) % NumRanks)
				possible |= 1 << ((rank + NumRanks - offset%NumRanks) % NumRanks)
			}
		}

		var candidates []Card
		for rank := range Rank(NumRanks) {
			if possible&(1<<rank) != 0 {
				candidates = append(candidates, NewCard(rank, maxSuit))
			}
		}

		hand := make([]Card, len(unwild)+numWild)
		copy(hand, unwild)
		for combo := range NewCombinationsWithReplacement(candidates, numWild).All() {
			copy(hand[len(unwild):], combo)
			if !yield(hand) {
				return
			}
		}
	}
}
