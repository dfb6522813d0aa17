package poker

import "fmt"

// HandSize is the number of cards in a made hand.
const HandSize = 5

// Classify evaluates up to HandSize cards. Straights and flushes need a full
// hand; smaller selections can still make pairs, trips and quads. Aces are
// read exactly as given, so callers wanting the high reading pass AceHigh.
func Classify(cards []Card) HandStrength {
	if len(cards) > HandSize {
		panic(fmt.Sprintf("poker: cannot classify %d cards", len(cards)))
	}

	var ranks RankTuple
	for _, c := range cards {
		ranks.Push(c.Rank)
	}
	ranks.Sort()

	n := ranks.Len()
	straight := n == HandSize
	flush := n == HandSize
	for i := 1; i < n; i++ {
		if ranks.Get(0)+Rank(i) != ranks.Get(i) {
			straight = false
		}
		if cards[i].Suit != cards[0].Suit {
			flush = false
		}
	}

	var counts [NumRanks + 1]uint8
	for r := range ranks.All() {
		counts[r]++
	}
	// byCount[m] holds the ranks seen exactly m times, highest first.
	var byCount [HandSize + 1]RankTuple
	for r := int(AceHigh); r >= 0; r-- {
		if c := counts[r]; c > 0 {
			byCount[c].Push(Rank(r))
		}
	}

	high, _ := ranks.Last()
	if straight && flush {
		return HandStrength{Kind: StraightFlush, Ranks: RanksOf(high)}
	}
	if five, ok := byCount[5].First(); ok {
		// Only reachable through wild substitution.
		return HandStrength{Kind: FourKind, Ranks: RanksOf(five), Kickers: RanksOf(five)}
	}
	if quad, ok := byCount[4].First(); ok {
		return HandStrength{Kind: FourKind, Ranks: RanksOf(quad), Kickers: byCount[1]}
	}
	if trips, ok := byCount[3].First(); ok {
		if pair, ok := byCount[2].First(); ok {
			return HandStrength{Kind: FullHouse, Ranks: RanksOf(trips, pair)}
		}
	}
	if flush {
		return HandStrength{Kind: Flush, Ranks: descending(ranks)}
	}
	if straight {
		return HandStrength{Kind: Straight, Ranks: RanksOf(high)}
	}

	singles := byCount[1]
	if trips, ok := byCount[3].First(); ok {
		return HandStrength{Kind: ThreeKind, Ranks: RanksOf(trips), Kickers: singles}
	}
	switch byCount[2].Len() {
	case 0:
	case 1:
		return HandStrength{Kind: Pair, Ranks: byCount[2], Kickers: singles}
	default:
		return HandStrength{Kind: TwoPair, Ranks: RanksOf(byCount[2].Get(0), byCount[2].Get(1)), Kickers: singles}
	}

	var top, rest RankTuple
	for r := range singles.All() {
		if top.Len() == 0 {
			top.Push(r)
		} else {
			rest.Push(r)
		}
	}
	return HandStrength{Kind: HighCard, Ranks: top, Kickers: rest}
}

func descending(t RankTuple) RankTuple {
	var out RankTuple
	for r := range t.Backward() {
		out.Push(r)
	}
	return out
}

// ExplodeAces copies cards, following every ace with an AceHigh twin of the
// same suit.
func ExplodeAces(cards []Card) []Card {
	out := make([]Card, 0, len(cards)+4)
	for _, c := range cards {
		out = append(out, c)
		if c.Rank == Ace {
			out = append(out, Card{Suit: c.Suit, Rank: AceHigh})
		}
	}
	return out
}

// bestAceReading classifies every k-card selection of cards under every
// low/high reading of its aces. A physical ace is never used twice, which
// also caps the number of ace slots at the number of real aces.
func bestAceReading(cards []Card, k int) HandStrength {
	exploded := ExplodeAces(cards)
	if len(exploded) == len(cards) && k == len(cards) {
		return Classify(cards)
	}

	source := make([]int, len(exploded))
	src := -1
	for i, c := range exploded {
		if c.Rank != AceHigh {
			src++
		}
		source[i] = src
	}

	idx := make([]int, len(exploded))
	for i := range idx {
		idx[i] = i
	}

	selection := make([]Card, k)
	var best HandStrength
	found := false
	combos := NewCombinations(idx, k)
	for combos.Next() {
		var used uint64
		ok := true
		for i, e := range combos.Value() {
			bit := uint64(1) << source[e]
			if used&bit != 0 {
				ok = false
				break
			}
			used |= bit
			selection[i] = exploded[e]
		}
		if !ok {
			continue
		}
		if s := Classify(selection); !found || s.Beats(best) {
			best, found = s, true
		}
	}
	return best
}

// BestHandOverCards returns the strongest hand of up to handSize cards drawn
// from cards, resolving wild cards and both readings of every ace.
func BestHandOverCards(cards []Card, handSize int, rules []SpecialCard) HandStrength {
	if handSize <= 0 || handSize > HandSize {
		handSize = HandSize
	}
	k := min(handSize, len(cards))
	if k == 0 {
		return HandStrength{}
	}

	wild := 0
	for _, c := range cards {
		if IsWild(c, rules) {
			wild++
		}
	}
	if wild == 0 {
		return bestAceReading(cards, k)
	}

	var best HandStrength
	found := false
	unwild := make([]Card, 0, k)
	for selection := range Subsets(cards, k) {
		unwild = unwild[:0]
		numWild := 0
		for _, c := range selection {
			if IsWild(c, rules) {
				numWild++
			} else {
				unwild = append(unwild, c)
			}
		}
		for hand := range WildSubstitutions(unwild, numWild) {
			if s := bestAceReading(hand, len(hand)); !found || s.Beats(best) {
				best, found = s, true
			}
		}
	}
	return best
}

// BestHand evaluates a player's hand together with the community cards. An
// auto-win card in the hand beats everything.
func BestHand(hand, community []Card, handSize int, rules []SpecialCard) HandStrength {
	if HoldsAutoWin(hand, rules) {
		return HandStrength{Kind: WinsItAll}
	}
	pool := make([]Card, 0, len(hand)+len(community))
	pool = append(pool, hand...)
	pool = append(pool, community...)
	return BestHandOverCards(pool, handSize, rules)
}

// BestHandUseFromHand is BestHand where at most useFromHand of the player's
// own cards may play: every useFromHand-subset of the hand is combined with
// the community cards and the strongest result wins.
func BestHandUseFromHand(useFromHand int, hand, community []Card, handSize int, rules []SpecialCard) HandStrength {
	if HoldsAutoWin(hand, rules) {
		return HandStrength{Kind: WinsItAll}
	}
	k := max(0, min(useFromHand, len(hand)))

	var best HandStrength
	found := false
	pool := make([]Card, 0, k+len(community))
	for sub := range Subsets(hand, k) {
		pool = append(pool[:0], sub...)
		pool = append(pool, community...)
		if s := BestHandOverCards(pool, handSize, rules); !found || s.Beats(best) {
			best, found = s, true
		}
	}
	return best
}
