package poker

import "fmt"

// Kind is the category of a hand.
type Kind uint8

const (
	HighCard Kind = iota
	Pair
	TwoPair
	ThreeKind
	Straight
	Flush
	FullHouse
	FourKind
	StraightFlush
	WinsItAll
)

// kindOrder fixes the ranking of kinds independent of declaration order.
var kindOrder = map[Kind]int{
	HighCard:      0,
	Pair:          1,
	TwoPair:       2,
	ThreeKind:     3,
	Straight:      4,
	Flush:         5,
	FullHouse:     6,
	FourKind:      7,
	StraightFlush: 8,
	WinsItAll:     9,
}

// Order returns the kind's position in the hand ranking, weakest first.
func (k Kind) Order() int {
	order, ok := kindOrder[k]
	if !ok {
		panic(fmt.Sprintf("poker: unknown hand kind %d", k))
	}
	return order
}

func (k Kind) String() string {
	switch k {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case WinsItAll:
		return "Wins It All"
	default:
		return "Unknown"
	}
}

// HandStrength is a totally ordered hand value. Ranks holds the ranks the
// kind itself is made of (most significant first) and Kickers the rest,
// highest first.
type HandStrength struct {
	Kind    Kind
	Ranks   RankTuple
	Kickers RankTuple
}

// Compare returns -1, 0 or 1 as h is weaker than, tied with, or stronger
// than o.
func (h HandStrength) Compare(o HandStrength) int {
	if h.Kind == WinsItAll || o.Kind == WinsItAll {
		switch {
		case h.Kind == o.Kind:
			return 0
		case h.Kind == WinsItAll:
			return 1
		default:
			return -1
		}
	}
	if a, b := h.Kind.Order(), o.Kind.Order(); a != b {
		if a < b {
			return -1
		}
		return 1
	}
	if c := h.Ranks.Compare(o.Ranks); c != 0 {
		return c
	}
	return h.Kickers.Compare(o.Kickers)
}

// Beats reports whether h is strictly stronger than o.
func (h HandStrength) Beats(o HandStrength) bool {
	return h.Compare(o) > 0
}

func (h HandStrength) rank(i int) Rank {
	if i < h.Ranks.Len() {
		return h.Ranks.Get(i)
	}
	return 0
}

// String describes the hand, e.g. "Full House, Kings over Twos".
func (h HandStrength) String() string {
	switch h.Kind {
	case HighCard:
		if h.Ranks.Len() == 0 {
			return "Nothing"
		}
		return fmt.Sprintf("%s high", h.rank(0).Name())
	case Pair:
		return fmt.Sprintf("Pair of %s", plural(h.rank(0)))
	case TwoPair:
		return fmt.Sprintf("Two Pair, %s over %s", plural(h.rank(0)), plural(h.rank(1)))
	case ThreeKind:
		return fmt.Sprintf("Three %s", plural(h.rank(0)))
	case Straight:
		return fmt.Sprintf("Straight, %s high", h.rank(0).Name())
	case Flush:
		return fmt.Sprintf("Flush, %s high", h.rank(0).Name())
	case FullHouse:
		return fmt.Sprintf("Full House, %s over %s", plural(h.rank(0)), plural(h.rank(1)))
	case FourKind:
		return fmt.Sprintf("Four %s", plural(h.rank(0)))
	case StraightFlush:
		return fmt.Sprintf("Straight Flush, %s high", h.rank(0).Name())
	case WinsItAll:
		return "Wins It All"
	default:
		return h.Kind.String()
	}
}

func plural(r Rank) string {
	if r == Six {
		return "Sixes"
	}
	return r.Name() + "s"
}

// MaxStrength returns the strongest of the given strengths. It panics when
// called with none.
func MaxStrength(strengths ...HandStrength) HandStrength {
	if len(strengths) == 0 {
		panic("poker: MaxStrength of no hands")
	}
	best := strengths[0]
	for _, s := range strengths[1:] {
		if s.Beats(best) {
			best = s
		}
	}
	return best
}
