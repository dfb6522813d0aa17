package game

import (
	"testing"

	"github.com/lox/dealerschoice/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnteRule(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Ante is now 5", AnteOf(5).String())
	assert.Equal(t, "Blinds are now 1, 2", BlindsOf(1, 2).String())
	assert.Equal(t, BlindsOf(4, 8), BlindsOf(1, 2).Scale(4))
	assert.Equal(t, AnteOf(15), AnteOf(5).Scale(3))
	assert.False(t, AnteOf(5).IsBlinds())
	assert.True(t, BlindsOf(1, 2).IsBlinds())
}

func TestTableRulesValidate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, TableRules{Ante: BlindsOf(1, 2), MinBet: 2}.Validate())
	assert.Error(t, TableRules{Ante: AnteOf(1)}.Validate())
	assert.Error(t, TableRules{Ante: AnteOf(-1), MinBet: 2}.Validate())
	assert.Error(t, TableRules{Ante: BlindsOf(1, -2), MinBet: 2}.Validate())
}

func TestVariants(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{TexasHoldEm, OmahaHoldEm, SevenCardStud, FiveCardStud, FiveCardDraw}, VariantNames())

	for _, v := range Variants() {
		cards := 0
		bets := 0
		for _, r := range v.Rounds {
			switch r := r.(type) {
			case DrawToHand:
				cards += len(r.Facing)
			case DrawToCommunity:
				cards += r.Count
			case Bet:
				bets++
			}
		}
		assert.GreaterOrEqual(t, cards, poker.HandSize, v.Name)
		assert.Positive(t, bets, v.Name)
		assert.IsType(t, Ante{}, v.Rounds[0], v.Name)
	}

	omaha, ok := LookupVariant(OmahaHoldEm)
	assert.True(t, ok)
	assert.Equal(t, 2, omaha.UseFromHand)
	_, ok = LookupVariant("Crazy Pineapple")
	assert.False(t, ok)
}

func TestVariantDeal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		variant   string
		hand      []Facing
		community int
	}{
		{TexasHoldEm, []Facing{FaceDown, FaceDown}, 5},
		{OmahaHoldEm, []Facing{FaceDown, FaceDown, FaceDown, FaceDown}, 5},
		{SevenCardStud, []Facing{FaceDown, FaceDown, FaceUp, FaceUp, FaceUp, FaceUp, FaceDown}, 0},
		{FiveCardDraw, []Facing{FaceDown, FaceDown, FaceDown, FaceDown, FaceDown}, 0},
	}
	for _, tt := range tests {
		v, ok := LookupVariant(tt.variant)
		require.True(t, ok)
		hand, community := v.Deal()
		assert.Equal(t, tt.hand, hand, tt.variant)
		assert.Equal(t, tt.community, community, tt.variant)
	}
}

func TestVariantFits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		variant string
		players int
		fits    bool
	}{
		{TexasHoldEm, 23, true},
		{TexasHoldEm, 24, false},
		{OmahaHoldEm, 11, true},
		{OmahaHoldEm, 12, false},
		{SevenCardStud, 7, true},
		{SevenCardStud, 8, false},
		{FiveCardStud, 10, true},
		{FiveCardDraw, 8, true},
		{FiveCardDraw, 11, false},
	}
	for _, tt := range tests {
		v, ok := LookupVariant(tt.variant)
		require.True(t, ok)
		assert.Equal(t, tt.fits, v.Fits(tt.players), "%s with %d players", tt.variant, tt.players)
	}
}

func TestThreeOrFourWithAce(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3, ThreeOrFourWithAce(hand("Kd Qs 9c 7h 2d")))
	assert.Equal(t, 4, ThreeOrFourWithAce(hand("Kd Qs 9c 7h Ad")))
}
