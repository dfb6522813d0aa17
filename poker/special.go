package poker

// SpecialCardType says what a special card does during evaluation.
type SpecialCardType uint8

const (
	// Wild cards stand in for any rank.
	Wild SpecialCardType = iota
	// AutoWin cards make their holder's hand unbeatable.
	AutoWin
)

func (t SpecialCardType) String() string {
	switch t {
	case Wild:
		return "wild"
	case AutoWin:
		return "wins_it_all"
	default:
		return "unknown"
	}
}

// SpecialCard binds a rule to one physical card.
type SpecialCard struct {
	Type SpecialCardType
	Card Card
}

// SpecialCardGroup is a named bundle of special cards a dealer can call.
type SpecialCardGroup struct {
	Name  string
	Cards []SpecialCard
}

const (
	GroupTwosWild     = "Twos Wild"
	GroupAxeWinsItAll = "Man with the axe wins it all"
)

// SpecialCardGroups lists the built-in groups.
func SpecialCardGroups() []SpecialCardGroup {
	twos := SpecialCardGroup{Name: GroupTwosWild}
	for suit := range Suit(NumSuits) {
		twos.Cards = append(twos.Cards, SpecialCard{Type: Wild, Card: NewCard(Two, suit)})
	}
	return []SpecialCardGroup{
		twos,
		{
			Name:  GroupAxeWinsItAll,
			Cards: []SpecialCard{{Type: AutoWin, Card: NewCard(King, Diamonds)}},
		},
	}
}

// SpecialCardGroupNames lists the names of the built-in groups.
func SpecialCardGroupNames() []string {
	groups := SpecialCardGroups()
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}

// LookupSpecialCardGroup finds a built-in group by name.
func LookupSpecialCardGroup(name string) (SpecialCardGroup, bool) {
	for _, g := range SpecialCardGroups() {
		if g.Name == name {
			return g, true
		}
	}
	return SpecialCardGroup{}, false
}

// RulesFromGroups flattens the named groups into one rule set. Unknown names
// are reported back so callers can reject them.
func RulesFromGroups(names []string) (rules []SpecialCard, unknown []string) {
	for _, name := range names {
		g, ok := LookupSpecialCardGroup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		rules = append(rules, g.Cards...)
	}
	return rules, unknown
}

func matches(c Card, rules []SpecialCard, typ SpecialCardType) bool {
	for _, r := range rules {
		if r.Type == typ && r.Card.index() == c.index() {
			return true
		}
	}
	return false
}

// IsWild reports whether c is wild under rules.
func IsWild(c Card, rules []SpecialCard) bool {
	return matches(c, rules, Wild)
}

// HoldsAutoWin reports whether any card in hand is an auto-win card.
func HoldsAutoWin(hand []Card, rules []SpecialCard) bool {
	for _, c := range hand {
		if matches(c, rules, AutoWin) {
			return true
		}
	}
	return false
}
