package server

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/protocol"
	"github.com/lox/dealerschoice/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 10 * time.Second

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// fakeConn collects what a remote player sends.
type fakeConn struct {
	msgs chan protocol.Message
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan protocol.Message, 16)}
}

func (f *fakeConn) Send(msg protocol.Message) error {
	f.msgs <- msg
	return nil
}

func (f *fakeConn) next(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case msg := <-f.msgs:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("nothing sent")
		return nil
	}
}

// seatedView is role 0 with 2 in, facing callAmount from role 1.
func seatedView(hand string, facing int) game.View {
	var cards []game.CardView
	for _, c := range poker.MustParseCards(hand) {
		cards = append(cards, game.CardView{Visible: true, Card: c, Facing: game.FaceDown})
	}
	return game.View{
		Role:         0,
		BetThisRound: []int{2, facing},
		MinBet:       2,
		UseFromHand:  2,
		Variant:      game.TexasHoldEm,
		Players: []game.PlayerView{
			{Chips: 100, TotalBet: 2, Hand: cards},
			{Chips: 100, TotalBet: facing, Hand: make([]game.CardView, len(cards))},
		},
	}
}

func newRemote(t *testing.T, v game.View) (*RemotePlayer, *quartz.Mock) {
	t.Helper()
	mock := quartz.NewMock(t)
	p := NewRemotePlayer("ann", mock, testTimeout, quietLogger())
	p.Update(game.ViewUpdate{View: v})
	return p, mock
}

func TestRemotePlayerBet(t *testing.T) {
	t.Parallel()
	p, mock := newRemote(t, seatedView("As Kd", 4))
	conn := newFakeConn()
	p.attach(conn)

	result := make(chan game.BetResp, 1)
	go func() { result <- p.Bet(context.Background(), 4, 8) }()

	req, ok := conn.next(t).(*protocol.Request)
	require.True(t, ok)
	assert.Equal(t, protocol.RequestBet, req.Kind)
	assert.Equal(t, 4, req.CallAmount)
	assert.Equal(t, 8, req.MinBet)
	assert.Equal(t, mock.Now().Add(testTimeout), req.Deadline)
	require.NotNil(t, req.Hand)
	assert.Equal(t, poker.MustParseCards("As Kd"), req.Hand.Hand(0))

	// A raise below the minimum is refused and the request stays open.
	require.NoError(t, p.answer(req.ID, &protocol.Bet{Request: req.ID, Amount: 6}))
	e, ok := conn.next(t).(*protocol.Error)
	require.True(t, ok)
	assert.Equal(t, protocol.CodeInvalidMove, e.Code)

	require.NoError(t, p.answer(req.ID, &protocol.Bet{Request: req.ID, Amount: 8}))
	assert.Equal(t, game.BetChips(8), <-result)

	assert.ErrorIs(t, p.answer(req.ID, &protocol.Bet{Request: req.ID, Amount: 8}), ErrStaleRequest)
}

func TestRemotePlayerWrongAnswer(t *testing.T) {
	t.Parallel()
	p, _ := newRemote(t, seatedView("As Kd", 4))
	conn := newFakeConn()
	p.attach(conn)

	result := make(chan game.BetResp, 1)
	go func() { result <- p.Bet(context.Background(), 4, 8) }()
	req := conn.next(t).(*protocol.Request)

	require.NoError(t, p.answer(req.ID, &protocol.Replace{Request: req.ID}))
	e := conn.next(t).(*protocol.Error)
	assert.Contains(t, e.Message, ErrWrongAnswer.Error())

	require.NoError(t, p.answer(req.ID, &protocol.Bet{Request: req.ID, Fold: true}))
	assert.Equal(t, game.FoldResp(), <-result)
}

func TestRemotePlayerTimeoutDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		facing   int
		call     int
		expected game.BetResp
	}{
		{"checks when free", 2, 2, game.BetChips(2)},
		{"folds when owing", 4, 4, game.FoldResp()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			p, mock := newRemote(t, seatedView("7c 2d", tt.facing))
			trap := mock.Trap().AfterFunc("remote", "decision")
			defer trap.Close()

			result := make(chan game.BetResp, 1)
			go func() { result <- p.Bet(ctx, tt.call, 4) }()

			call := trap.MustWait(ctx)
			assert.Equal(t, testTimeout, call.Duration)
			call.MustRelease(ctx)
			mock.Advance(testTimeout).MustWait(ctx)

			assert.Equal(t, tt.expected, <-result)
		})
	}
}

func TestRemotePlayerWithoutSeatFolds(t *testing.T) {
	t.Parallel()
	p := NewRemotePlayer("ann", quartz.NewMock(t), testTimeout, quietLogger())
	assert.Equal(t, game.FoldResp(), p.Bet(context.Background(), 4, 8))
	assert.Nil(t, p.Replace(context.Background(), 3))
}

func TestRemotePlayerReplace(t *testing.T) {
	t.Parallel()
	p, _ := newRemote(t, seatedView("As Kd 7c 7h 2s", 0))
	conn := newFakeConn()
	p.attach(conn)

	result := make(chan []int, 1)
	go func() { result <- p.Replace(context.Background(), 3) }()

	req := conn.next(t).(*protocol.Request)
	assert.Equal(t, protocol.RequestReplace, req.Kind)
	assert.Equal(t, 3, req.MaxReplace)

	for _, bad := range [][]int{{0, 0}, {5}, {0, 1, 2, 3}} {
		require.NoError(t, p.answer(req.ID, &protocol.Replace{Request: req.ID, Indices: bad}))
		e := conn.next(t).(*protocol.Error)
		assert.Equal(t, protocol.CodeInvalidMove, e.Code)
	}
	require.NoError(t, p.answer(req.ID, &protocol.Replace{Request: req.ID, Indices: []int{1, 4}}))
	assert.Equal(t, []int{1, 4}, <-result)
}

func TestRemotePlayerDealersChoice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, mock := newRemote(t, game.View{Role: game.NoRole})
	conn := newFakeConn()
	p.attach(conn)
	variants, groups := game.VariantNames(), poker.SpecialCardGroupNames()

	result := make(chan game.DealersChoiceResp, 1)
	go func() { result <- p.DealersChoice(ctx, variants, groups) }()
	req := conn.next(t).(*protocol.Request)
	assert.Equal(t, variants, req.Variants)
	assert.Equal(t, groups, req.SpecialGroups)

	require.NoError(t, p.answer(req.ID, &protocol.DealersChoice{Request: req.ID, Variant: len(variants)}))
	conn.next(t)
	require.NoError(t, p.answer(req.ID, &protocol.DealersChoice{Request: req.ID, Variant: 1, SpecialGroups: []string{"Jokers"}}))
	conn.next(t)
	require.NoError(t, p.answer(req.ID, &protocol.DealersChoice{Request: req.ID, Variant: 1, SpecialGroups: []string{poker.GroupTwosWild}}))
	assert.Equal(t, game.DealersChoiceResp{Variant: 1, SpecialGroups: []string{poker.GroupTwosWild}}, <-result)

	// Nobody answers: the table's own game is played.
	trap := mock.Trap().AfterFunc("remote", "decision")
	defer trap.Close()
	go func() { result <- p.DealersChoice(ctx, variants, groups) }()
	call := trap.MustWait(ctx)
	call.MustRelease(ctx)
	conn.next(t)
	mock.Advance(testTimeout).MustWait(ctx)
	assert.Equal(t, -1, (<-result).Variant)
}

func TestRemotePlayerReattachRepeatsRequest(t *testing.T) {
	t.Parallel()
	p, _ := newRemote(t, seatedView("As Kd", 4))
	first, second := newFakeConn(), newFakeConn()
	assert.Nil(t, p.attach(first))

	result := make(chan game.BetResp, 1)
	go func() { result <- p.Bet(context.Background(), 4, 8) }()
	req := first.next(t).(*protocol.Request)

	assert.Equal(t, first, p.attach(second))
	again := second.next(t).(*protocol.Request)
	assert.Equal(t, req.ID, again.ID)

	// The old connection no longer owns the player.
	p.detach(first)
	require.NoError(t, p.answer(req.ID, &protocol.Bet{Request: req.ID, Amount: 4}))
	assert.Equal(t, game.BetChips(4), <-result)
}
