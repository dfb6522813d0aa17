package poker

import (
	"errors"
	rand "math/rand/v2"
	"sync"
)

// ErrDeckExhausted is returned when drawing from an empty deck.
var ErrDeckExhausted = errors.New("deck exhausted")

// DeckSize is the number of cards in a full deck.
const DeckSize = NumSuits * NumRanks

// Deck is a shuffled stack of cards drawn from the top. It is safe for
// concurrent use.
type Deck struct {
	mu    sync.Mutex
	cards []Card
	next  int
	rng   *rand.Rand // Random source for deterministic shuffling
}

// NewDeck creates a shuffled 52-card deck. A nil rng leaves it in
// suit-then-rank order.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, DeckSize),
		rng:   rng,
	}
	for suit := range Suit(NumSuits) {
		for rank := range Rank(NumRanks) {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	if rng != nil {
		d.Shuffle()
	}
	return d
}

// NewStackedDeck returns a deck that deals cards in exactly the given order.
func NewStackedDeck(cards ...Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Shuffle resets the deck and shuffles it using Fisher-Yates.
func (d *Deck) Shuffle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next = 0
	if d.rng == nil {
		return
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw deals the top card.
func (d *Deck) Draw() (Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= len(d.cards) {
		return Card{}, ErrDeckExhausted
	}
	card := d.cards[d.next]
	d.next++
	return card, nil
}

// Remaining returns the number of cards left to deal.
func (d *Deck) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards) - d.next
}
