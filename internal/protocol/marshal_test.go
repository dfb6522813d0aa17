package protocol

import (
	"testing"
	"time"

	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/table"
	"github.com/lox/dealerschoice/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func sampleUpdate() *Update {
	strength := poker.Classify(poker.MustParseCards("Ah Ad"))
	ah := poker.MustParseCards("Ah")[0]
	return &Update{
		Table: &table.View{
			Name:       "main",
			Running:    true,
			MaxPlayers: 6,
			Seats:      []table.SeatView{{Seat: 0, ID: "ann", Chips: 990}, {Seat: 1, ID: "bo", Chips: 1010}},
			Roster:     []string{"ann", "bo"},
			Hand:       3,
			InHand:     true,
			Variant:    game.TexasHoldEm,
			Rules:      game.TableRules{Ante: game.BlindsOf(1, 2), MinBet: 2},
		},
		Hand: &game.View{
			Role: 1,
			Players: []game.PlayerView{
				{Chips: 990, TotalBet: 2, Hand: []game.CardView{{Facing: game.FaceDown}, {Facing: game.FaceDown}}},
				{Chips: 1010, TotalBet: 2, Hand: []game.CardView{{Visible: true, Card: ah, Facing: game.FaceDown}}},
			},
			BetThisRound: []int{0, 0},
			CurrentTurn:  0,
			UseFromHand:  2,
			Variant:      game.TexasHoldEm,
			MinBet:       2,
		},
		Log: []table.LogUpdate{{
			Hand:   3,
			Roster: []string{"ann", "bo"},
			Start:  40,
			Diffs: []game.Diff{
				{Kind: game.DiffBet, Player: 0, Bet: &game.BetDiff{Kind: game.BetRaise, Chips: 4, Diff: 2, Total: 4}},
				{Kind: game.DiffShowCards, Player: 1, Strength: &strength,
					Shown: []game.ShownCard{{Index: 0, Card: game.CardView{Visible: true, Card: ah, Facing: game.FaceUp}}}},
			},
		}},
		Next: 42,
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []Message{
		&Hello{Table: "main", Name: "ann", Token: "tok"},
		&Bet{Request: 7, Amount: 40},
		&Bet{Request: 8, Fold: true},
		&Replace{Request: 9, Indices: []int{0, 3}},
		&DealersChoice{Request: 10, Variant: 2, SpecialGroups: []string{poker.GroupTwosWild}},
		&Resync{Offset: 12},
		&Welcome{Player: "ann", Token: "tok", Table: "main", Offset: 40},
		&Error{Code: CodeInvalidMove, Message: "bet less than minimum"},
		sampleUpdate(),
	}
	for _, msg := range tests {
		t.Run(string(msg.MessageType()), func(t *testing.T) {
			t.Parallel()
			data, err := Marshal(msg)
			require.NoError(t, err)
			got, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, msg, got)
		})
	}
}

func TestRequestDeadline(t *testing.T) {
	t.Parallel()
	req := &Request{
		ID:         3,
		Kind:       RequestBet,
		CallAmount: 8,
		MinBet:     16,
		Hand:       sampleUpdate().Hand,
		Deadline:   time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC),
	}
	data, err := Marshal(req)
	require.NoError(t, err)
	msg, err := Unmarshal(data)
	require.NoError(t, err)

	got, ok := msg.(*Request)
	require.True(t, ok)
	assert.True(t, req.Deadline.Equal(got.Deadline))
	got.Deadline = req.Deadline
	assert.Equal(t, req, got)
}

func TestUnmarshalErrors(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte{0xc1})
	assert.Error(t, err)

	data, err := msgpack.Marshal(Envelope{Type: "shrug", Body: msgpack.RawMessage{0x80}})
	require.NoError(t, err)
	_, err = Unmarshal(data)
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestInvisibleCardsCarryNoCard(t *testing.T) {
	t.Parallel()
	data, err := Marshal(sampleUpdate())
	require.NoError(t, err)
	// Ace of hearts is the only visible card in the hand view; the hidden
	// cards must not leak anything but their facing.
	msg, err := Unmarshal(data)
	require.NoError(t, err)
	hidden := msg.(*Update).Hand.Players[0].Hand
	for _, cv := range hidden {
		assert.False(t, cv.Visible)
		assert.Equal(t, poker.Card{}, cv.Card)
	}
}
