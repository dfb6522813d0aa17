package poker

import (
	"errors"
	"testing"

	"github.com/lox/dealerschoice/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardCreation(t *testing.T) {
	t.Parallel()
	aceSpades := NewCard(Ace, Spades)
	if aceSpades.Rank != Ace {
		t.Errorf("Expected rank Ace, got %d", aceSpades.Rank)
	}
	if aceSpades.Suit != Spades {
		t.Errorf("Expected suit Spades, got %d", aceSpades.Suit)
	}
	if aceSpades.String() != "As" {
		t.Errorf("Expected 'As', got %s", aceSpades.String())
	}
	if aceSpades.Pretty() != "A♠" {
		t.Errorf("Expected 'A♠', got %s", aceSpades.Pretty())
	}

	twoClubs := NewCard(Two, Clubs)
	if twoClubs.String() != "2c" {
		t.Errorf("Expected '2c', got %s", twoClubs.String())
	}
}

func TestParseCard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		wantCard Card
		wantErr  bool
	}{
		{name: "ace of spades", input: "As", wantCard: NewCard(Ace, Spades)},
		{name: "two of hearts", input: "2h", wantCard: NewCard(Two, Hearts)},
		{name: "king of diamonds", input: "Kd", wantCard: NewCard(King, Diamonds)},
		{name: "ten as digits", input: "10c", wantCard: NewCard(Ten, Clubs)},
		{name: "lowercase rank", input: "qs", wantCard: NewCard(Queen, Spades)},
		{name: "bad suit", input: "Ax", wantErr: true},
		{name: "bad rank", input: "1s", wantErr: true},
		{name: "too short", input: "A", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			card, err := ParseCard(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCard))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCard, card)
		})
	}
}

func TestAll52Cards(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for suit := range Suit(NumSuits) {
		for rank := range Rank(NumRanks) {
			card := NewCard(rank, suit)
			str := card.String()
			if seen[str] {
				t.Errorf("Duplicate card: %s", str)
			}
			seen[str] = true

			parsed, err := ParseCard(str)
			if err != nil {
				t.Errorf("Failed to parse %s: %v", str, err)
			}
			if parsed != card {
				t.Errorf("Round-trip failed for %s", str)
			}
		}
	}
	if len(seen) != 52 {
		t.Errorf("Expected 52 unique cards, got %d", len(seen))
	}
}

func TestCardTextMarshal(t *testing.T) {
	t.Parallel()
	card := NewCard(Jack, Hearts)
	text, err := card.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Jh", string(text))

	var back Card
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, card, back)
	assert.Error(t, back.UnmarshalText([]byte("zz")))
}

func TestCardTupleRoundTrip(t *testing.T) {
	t.Parallel()
	cards := MustParseCards("As Ah Ad Ac 2s")
	tuple := CardsOf(cards...)

	require.Equal(t, len(cards), tuple.Len())
	for i, c := range cards {
		assert.Equal(t, c, tuple.Get(i))
	}
	assert.Equal(t, cards, tuple.Cards())

	var iterated []Card
	for c := range tuple.All() {
		iterated = append(iterated, c)
	}
	assert.Equal(t, cards, iterated)
}

func TestCardTupleCapacity(t *testing.T) {
	t.Parallel()
	var tuple CardTuple
	for i := range CardTupleCap {
		tuple.Push(NewCard(Rank(i), Suit(i%NumSuits)))
	}
	assert.Equal(t, CardTupleCap, tuple.Len())
	assert.Equal(t, NewCard(Nine, Spades), tuple.Get(8))
	assert.Panics(t, func() { tuple.Push(NewCard(King, Clubs)) })
	assert.Panics(t, func() { tuple.Get(CardTupleCap) })
}

func TestRankTupleSortIdempotent(t *testing.T) {
	t.Parallel()
	tuple := RanksOf(King, Two, AceHigh, Ace, Two, Seven)
	tuple.Sort()
	assert.Equal(t, []Rank{Ace, Two, Two, Seven, King, AceHigh}, tuple.Ranks())

	again := tuple
	again.Sort()
	assert.Equal(t, tuple, again)
}

func TestRankTupleBidirectional(t *testing.T) {
	t.Parallel()
	tuple := RanksOf(Three, Nine, Queen)

	first, ok := tuple.First()
	require.True(t, ok)
	assert.Equal(t, Three, first)
	last, ok := tuple.Last()
	require.True(t, ok)
	assert.Equal(t, Queen, last)

	var backward []Rank
	for r := range tuple.Backward() {
		backward = append(backward, r)
	}
	assert.Equal(t, []Rank{Queen, Nine, Three}, backward)

	var empty RankTuple
	_, ok = empty.First()
	assert.False(t, ok)
	_, ok = empty.Last()
	assert.False(t, ok)
	for range empty.Backward() {
		t.Fatal("empty tuple yielded a rank")
	}
}

func TestRankTupleCapacityAndCompare(t *testing.T) {
	t.Parallel()
	var tuple RankTuple
	for range RankTupleCap {
		tuple.Push(AceHigh)
	}
	assert.Panics(t, func() { tuple.Push(Two) })
	assert.Panics(t, func() { RanksOf(Two).Get(1) })

	assert.Equal(t, 0, RanksOf(King, Two).Compare(RanksOf(King, Two)))
	assert.Equal(t, 1, RanksOf(King, Three).Compare(RanksOf(King, Two)))
	assert.Equal(t, -1, RanksOf(Queen).Compare(RanksOf(King)))
	assert.Equal(t, -1, RanksOf(King).Compare(RanksOf(King, Two)))
}

func TestCardSet(t *testing.T) {
	t.Parallel()
	aceSpades := NewCard(Ace, Spades)
	kingClubs := NewCard(King, Clubs)

	var set CardSet
	assert.True(t, set.Insert(aceSpades))
	assert.False(t, set.Insert(aceSpades), "second insert must not change the set")
	assert.True(t, set.Insert(kingClubs))
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(aceSpades))
	assert.True(t, set.Contains(Card{Suit: Spades, Rank: AceHigh}), "AceHigh is the same physical card")

	assert.True(t, set.Remove(aceSpades))
	assert.False(t, set.Remove(aceSpades))
	assert.Equal(t, []Card{kingClubs}, set.Cards())
}

func TestCardSetIterationOrder(t *testing.T) {
	t.Parallel()
	deck := FullDeck()
	require.Equal(t, 52, deck.Len())

	prev := -1
	for c := range deck.All() {
		idx := c.index()
		assert.Greater(t, idx, prev)
		prev = idx
	}
	assert.Equal(t, NewCard(Ace, Spades), deck.Cards()[0])
	assert.Equal(t, NewCard(King, Clubs), deck.Cards()[51])
}

func TestDeck(t *testing.T) {
	t.Parallel()
	deck := NewDeck(randutil.New(42))
	seen := NewCardSet()
	for range 52 {
		c, err := deck.Draw()
		require.NoError(t, err)
		assert.True(t, seen.Insert(c), "duplicate card %s", c)
	}
	assert.Equal(t, 0, deck.Remaining())

	_, err := deck.Draw()
	assert.ErrorIs(t, err, ErrDeckExhausted)

	deck.Shuffle()
	assert.Equal(t, 52, deck.Remaining())
}

func TestDeckDeterministic(t *testing.T) {
	t.Parallel()
	a := NewDeck(randutil.New(7))
	b := NewDeck(randutil.New(7))
	for range 52 {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		require.Equal(t, ca, cb)
	}
}

func TestStackedDeck(t *testing.T) {
	t.Parallel()
	cards := MustParseCards("Kd Qh")
	deck := NewStackedDeck(cards...)
	for _, want := range cards {
		got, err := deck.Draw()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := deck.Draw()
	assert.ErrorIs(t, err, ErrDeckExhausted)
}

func BenchmarkParseCard(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = ParseCard("As")
	}
}

func TestRankTupleUnmarshalBinary(t *testing.T) {
	t.Parallel()

	want := RanksOf(AceHigh, King, Two)
	data, err := want.MarshalBinary()
	require.NoError(t, err)
	got := RanksOf(Five)
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, want, got)

	tests := []struct {
		name string
		data []byte
	}{
		{"too many ranks", make([]byte, RankTupleCap+1)},
		{"not a rank", []byte{byte(King), byte(AceHigh) + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var rt RankTuple
			assert.Error(t, rt.UnmarshalBinary(tt.data))
		})
	}
}
