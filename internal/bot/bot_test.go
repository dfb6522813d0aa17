package bot

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/randutil"
	"github.com/lox/dealerschoice/internal/table"
	"github.com/lox/dealerschoice/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func cards(s string, facing game.Facing) []game.CardView {
	var out []game.CardView
	for _, c := range poker.MustParseCards(s) {
		out = append(out, game.CardView{Visible: true, Card: c, Facing: facing})
	}
	return out
}

// testView is role 0 facing a bet of 8 with 4 in, in a pot of 32.
func testView(useFromHand int, hand, community string) *game.View {
	v := &game.View{
		Role:         0,
		UseFromHand:  useFromHand,
		BetThisRound: []int{4, 8},
		MinBet:       2,
		Players: []game.PlayerView{
			{Chips: 100, TotalBet: 10, Hand: cards(hand, game.FaceDown)},
			{Chips: 100, TotalBet: 10, Hand: make([]game.CardView, len(poker.MustParseCards(hand)))},
		},
	}
	if community != "" {
		v.Community = cards(community, game.FaceUp)
	}
	return v
}

func TestBetRisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		risk     RiskFactor
		mine     int
		minBet   int
		expected game.BetResp
	}{
		{"check fold facing a bet", CheckFold(), 4, 16, game.FoldResp()},
		{"check fold when checked to", CheckFold(), 8, 16, game.BetChips(8)},
		{"bet above the ratio", PotRatio(0.1), 4, 16, game.FoldResp()},
		{"ratio too small to raise", PotRatio(0.25), 4, 16, game.BetChips(8)},
		{"raise the pot", PotRatio(1), 4, 16, game.BetChips(40)},
		{"raise clamped to stack", PotRatio(5), 4, 16, game.BetChips(90)},
		{"call any never folds", CallAny(), 0, 16, game.BetChips(8)},
		{"call any raises a quarter pot", CallAny(), 4, 4, game.BetChips(16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := testView(2, "9s 4h", "")
			v.BetThisRound[0] = tt.mine
			assert.Equal(t, tt.expected, BetRisk(v, 8, tt.minBet, tt.risk))
		})
	}
}

func TestRiskFactorString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "check/fold", CheckFold().String())
	assert.Equal(t, "call any", CallAny().String())
	assert.Equal(t, "pot ratio 0.500", PotRatio(0.5).String())
}

func TestEasy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name      string
		hand      string
		community string
		expected  game.BetResp
	}{
		{"full house raises twice the pot", "Ks Kh", "Kd 7c 7d 2s 3h", game.BetChips(72)},
		{"quads call anything", "Ks Kh", "Kd Kc 7d 2s 3h", game.BetChips(8)},
		{"nothing folds to a bet", "9s 4h", "Kd 7c 6d 2s Jh", game.FoldResp()},
		{"pocket threes call", "3s 3h", "", game.BetChips(8)},
		{"trash start folds to a bet", "9s 4h", "", game.FoldResp()},
		{"premium start risks the pot", "As Kh", "", game.BetChips(40)},
		{"strong start risks three quarters", "Tc Th", "", game.BetChips(32)},
		{"medium start risks half the pot", "Ks Qs", "", game.BetChips(24)},
		{"weak start just calls", "7h 6h", "", game.BetChips(8)},
		{"omaha start uses the best pair", "9c 4d Ks Ac", "", game.BetChips(40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Easy{}.Bet(ctx, testView(2, tt.hand, tt.community), 8, 16))
		})
	}
}

func TestMedium(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Quad aces cannot lose, so the whole pot is risked.
	v := testView(2, "As Ah", "Ac Ad Kh 7c 2d")
	assert.Equal(t, game.BetChips(40), Medium{}.Bet(ctx, v, 8, 16))

	// Pocket threes skip the enumeration and call any.
	v = testView(2, "3s 3h", "")
	assert.Equal(t, game.BetChips(8), Medium{}.Bet(ctx, v, 8, 16))
	assert.Equal(t, game.BetChips(16), Medium{}.Bet(ctx, v, 8, 4))
}

func TestLookup(t *testing.T) {
	t.Parallel()
	for _, name := range StrategyNames() {
		s, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
	_, err := Lookup("shark")
	assert.Error(t, err)
}

func TestPlayerUsesLatestView(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := New(AlwaysCall{}, WithLogger(quietLogger()))

	assert.Equal(t, game.FoldResp(), p.Bet(ctx, 8, 16), "no seat yet")

	p.Update(game.ViewUpdate{View: *testView(2, "9s 4h", "")})
	p.Update(game.ViewUpdate{View: *testView(2, "As Ah", "")})
	v := p.View()
	assert.Equal(t, poker.MustParseCards("As Ah"), v.Hand(0))
	assert.Equal(t, game.BetChips(8), p.Bet(ctx, 8, 16))
}

func TestPlayerReplace(t *testing.T) {
	t.Parallel()
	p := New(AlwaysCall{}, WithLogger(quietLogger()))
	p.Update(game.ViewUpdate{View: *testView(5, "Ad Ac As 2h 3d", "")})
	assert.Equal(t, []int{3, 4}, p.Replace(context.Background(), 2))
}

func TestPlayerDealersChoice(t *testing.T) {
	t.Parallel()
	p := New(Easy{}, WithLogger(quietLogger()), WithRand(randutil.New(7)))
	names := game.VariantNames()
	seen := make(map[int]bool)
	for range 100 {
		resp := p.DealersChoice(context.Background(), names, poker.SpecialCardGroupNames())
		require.GreaterOrEqual(t, resp.Variant, 0)
		require.Less(t, resp.Variant, len(names))
		assert.Empty(t, resp.SpecialGroups)
		seen[resp.Variant] = true
	}
	assert.Len(t, seen, len(names))
}

func TestBotsPlayATable(t *testing.T) {
	t.Parallel()
	cfg := table.DefaultConfig("bots")
	cfg.Pause = 0
	tbl, err := table.New(cfg,
		table.WithLogger(quietLogger()),
		table.WithClock(quartz.NewMock(t)),
		table.WithRand(randutil.New(3)))
	require.NoError(t, err)

	for i, s := range []Strategy{AlwaysCall{}, Easy{}, Medium{}} {
		p := New(s, WithLogger(quietLogger()), WithRand(randutil.New(int64(i))))
		require.NoError(t, tbl.Join(s.Name(), p))
	}
	tbl.Start()

	ctx := context.Background()
	for range 3 {
		if _, err := tbl.PlayHand(ctx); err != nil {
			require.ErrorIs(t, err, game.ErrNotEnoughPlayers)
			break
		}
	}
	total := 0
	for _, s := range tbl.View().Seats {
		total += s.Chips
	}
	assert.Equal(t, 3000, total)
}
