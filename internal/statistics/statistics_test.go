package statistics

import (
	"testing"

	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func showdownHand() handlog.Record {
	return handlog.Record{
		Number:  0,
		Variant: game.TexasHoldEm,
		Rules:   game.TableRules{Ante: game.BlindsOf(1, 2), MinBet: 2},
		Roster:  []string{"ann", "bo", "cy"},
		Deltas:  []int{8, -4, -4},
		Diffs: []game.Diff{
			{Kind: game.DiffFold, Player: 2},
			{Kind: game.DiffShowCards, Player: 0},
			{Kind: game.DiffShowCards, Player: 1},
			{Kind: game.DiffWinners, Player: game.NoRole, Winners: &game.Winners{Pots: []game.PotResult{
				{Subpot: game.Subpot{Chips: 12, Players: []game.Role{0, 1}}, Winners: []game.Role{0}},
			}}},
		},
	}
}

func foldedHand() handlog.Record {
	return handlog.Record{
		Number:  1,
		Variant: game.SevenCardStud,
		Rules:   game.TableRules{Ante: game.AnteOf(1), MinBet: 4},
		Roster:  []string{"bo", "cy", "ann"},
		Deltas:  []int{2, -1, -1},
		Diffs: []game.Diff{
			{Kind: game.DiffFold, Player: 1},
			{Kind: game.DiffFold, Player: 2},
			{Kind: game.DiffWinners, Player: game.NoRole, Winners: &game.Winners{Pots: []game.PotResult{
				{Subpot: game.Subpot{Chips: 3, Players: []game.Role{0}}, Winners: []game.Role{0}},
			}}},
		},
	}
}

func TestResults(t *testing.T) {
	t.Parallel()

	results := Results(showdownHand())
	require.Len(t, results, 3)
	assert.Equal(t, HandResult{Net: 8, Role: 0, Variant: game.TexasHoldEm, WentToShowdown: true, Pot: 12, BigBlind: 2}, results["ann"])
	assert.True(t, results["bo"].WentToShowdown)
	assert.False(t, results["cy"].WentToShowdown)
	assert.Equal(t, 2, results["cy"].Role)

	// Without blinds the minimum bet sets the scale.
	assert.Equal(t, 4, Results(foldedHand())["bo"].BigBlind)
}

func TestStatisticsEmpty(t *testing.T) {
	t.Parallel()
	s := &Statistics{}
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.Variance())
	assert.Zero(t, s.StdDev())
	assert.Zero(t, s.StdError())
	assert.Zero(t, s.Median())
	assert.Zero(t, s.WinRate())
}

func TestStatisticsAdd(t *testing.T) {
	t.Parallel()
	s := &Statistics{}
	for _, r := range []HandResult{
		{Net: 8, Role: 0, Variant: game.TexasHoldEm, WentToShowdown: true, Pot: 12, BigBlind: 2},
		{Net: -4, Role: 1, Variant: game.TexasHoldEm, WentToShowdown: true, Pot: 8, BigBlind: 2},
		{Net: 2, Role: 1, Variant: game.SevenCardStud, Pot: 3, BigBlind: 1},
		{Net: -2, Role: 2, Variant: game.TexasHoldEm, Pot: 5, BigBlind: 2},
	} {
		s.Add(r)
	}

	assert.Equal(t, 4, s.Hands)
	assert.Equal(t, 4, s.Net)
	assert.Equal(t, []float64{4, -2, 2, -1}, s.Values)
	assert.InDelta(t, 0.75, s.Mean(), 1e-9)
	assert.InDelta(t, 0.5, s.Median(), 1e-9)
	assert.Equal(t, 1, s.ShowdownWins)
	assert.Equal(t, 1, s.NonShowdownWins)
	assert.Equal(t, 4, s.ShowdownNet)
	assert.Equal(t, 0, s.NonShowdownNet)
	assert.InDelta(t, 0.5, s.WinRate(), 1e-9)
	assert.Equal(t, 12, s.MaxPot)
	assert.Equal(t, GroupStats{Hands: 2, Net: -2}, *s.Roles[1])
	assert.Equal(t, GroupStats{Hands: 3, Net: 2}, *s.Variants[game.TexasHoldEm])
	assert.InDelta(t, 2.0/3, s.Variants[game.TexasHoldEm].Mean(), 1e-9)
	require.NoError(t, s.Validate())
}

func TestStatisticsSpread(t *testing.T) {
	t.Parallel()
	s := &Statistics{}
	for _, net := range []int{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(HandResult{Net: net, BigBlind: 1})
	}
	assert.InDelta(t, 5, s.Mean(), 1e-9)
	assert.InDelta(t, 32.0/7, s.Variance(), 1e-9)
	lo, hi := s.ConfidenceInterval95()
	assert.Less(t, lo, 5.0)
	assert.Greater(t, hi, 5.0)
	assert.InDelta(t, 5-lo, hi-5, 1e-9)
	assert.InDelta(t, 2, s.Percentile(0), 1e-9)
	assert.InDelta(t, 9, s.Percentile(1), 1e-9)
}

func TestStatisticsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Statistics)
	}{
		{"ledger mismatch", func(s *Statistics) { s.ShowdownNet++ }},
		{"values mismatch", func(s *Statistics) { s.Values = s.Values[:1] }},
		{"too many wins", func(s *Statistics) { s.NonShowdownWins = 5 }},
		{"role mismatch", func(s *Statistics) { s.Roles[0].Hands++ }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Statistics{}
			s.Add(HandResult{Net: 3, Role: 0, BigBlind: 1})
			s.Add(HandResult{Net: -1, Role: 1, BigBlind: 1})
			require.NoError(t, s.Validate())
			tt.modify(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestCollector(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.Add(showdownHand())
	c.Add(foldedHand())

	assert.Equal(t, 2, c.Hands)
	assert.Equal(t, []string{"ann", "bo", "cy"}, c.Names())
	assert.Equal(t, 7, c.Players["ann"].Net)
	assert.Equal(t, -2, c.Players["bo"].Net)
	assert.Equal(t, 1, c.Players["bo"].NonShowdownWins)
	require.NoError(t, c.Validate())

	c.Players["cy"].Net++
	c.Players["cy"].NonShowdownNet++
	assert.ErrorContains(t, c.Validate(), "not conserved")
}
