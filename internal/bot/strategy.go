package bot

import (
	"context"
	"fmt"

	"github.com/lox/dealerschoice/internal/analysis"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/poker"
)

type riskKind int

const (
	checkFold riskKind = iota
	potRatio
	callAny
)

// RiskFactor is how much a bot is willing to put in.
type RiskFactor struct {
	kind  riskKind
	ratio float64
}

// CheckFold never puts in more chips.
func CheckFold() RiskFactor { return RiskFactor{kind: checkFold} }

// PotRatio calls and raises up to ratio times the pot.
func PotRatio(ratio float64) RiskFactor { return RiskFactor{kind: potRatio, ratio: ratio} }

// CallAny calls anything and raises a quarter of the pot.
func CallAny() RiskFactor { return RiskFactor{kind: callAny, ratio: 0.25} }

func (r RiskFactor) String() string {
	switch r.kind {
	case checkFold:
		return "check/fold"
	case callAny:
		return "call any"
	}
	return fmt.Sprintf("pot ratio %.3f", r.ratio)
}

// BetRisk turns a risk factor into a bet.
func BetRisk(v *game.View, callAmount, minBet int, risk RiskFactor) game.BetResp {
	owed := callAmount
	if int(v.Role) < len(v.BetThisRound) {
		owed -= v.BetThisRound[v.Role]
	}
	bettable := v.Bettable(v.Role)
	call := checkOrCall(v, callAmount)

	if risk.kind == checkFold {
		if owed > 0 {
			return game.FoldResp()
		}
		return call
	}

	maxBet := int(float64(v.Pot()) * risk.ratio)
	if risk.kind == potRatio && owed > maxBet {
		return game.FoldResp()
	}
	if maxBet < minBet {
		return call
	}
	return game.BetChips(min(maxBet+callAmount, bettable))
}

// pocketThrees is a pair of threes in the viewer's hand.
func pocketThrees(v *game.View) bool {
	n := 0
	for _, c := range v.Hand(v.Role) {
		if c.Rank == poker.Three {
			n++
		}
	}
	return n >= 2
}

// AlwaysCall checks or calls every bet.
type AlwaysCall struct{}

func (AlwaysCall) Name() string { return "always_call" }

func (AlwaysCall) Bet(_ context.Context, v *game.View, callAmount, _ int) game.BetResp {
	return checkOrCall(v, callAmount)
}

func checkOrCall(v *game.View, callAmount int) game.BetResp {
	return game.BetChips(min(callAmount, v.Bettable(v.Role)))
}

// Easy bets by its made hand, or by its best two-card start before five
// cards show.
type Easy struct{}

func (Easy) Name() string { return "easy" }

// easyRisk maps made hands onto pot ratios, strongest first.
var easyRisk = []struct {
	kind  poker.Kind
	ratio float64
}{
	{poker.FullHouse, 2},
	{poker.Flush, 1},
	{poker.Straight, 0.75},
	{poker.ThreeKind, 0.5},
	{poker.TwoPair, 0.25},
	{poker.Pair, 0.125},
}

// startRisk prices a hand before five cards are showing. Trash folds to a
// bet; a hand with no pair of cards yet gets half the pot.
func startRisk(c poker.StartCategory) RiskFactor {
	switch c {
	case poker.CategoryPremium:
		return PotRatio(1)
	case poker.CategoryStrong:
		return PotRatio(0.75)
	case poker.CategoryMedium:
		return PotRatio(0.5)
	case poker.CategoryWeak:
		return PotRatio(0.25)
	case poker.CategoryTrash:
		return CheckFold()
	}
	return PotRatio(0.5)
}

func (Easy) Bet(_ context.Context, v *game.View, callAmount, minBet int) game.BetResp {
	if pocketThrees(v) {
		return checkOrCall(v, callAmount)
	}
	hand, community := v.Hand(v.Role), v.CommunityCards()
	if len(hand)+len(community) < poker.HandSize {
		return BetRisk(v, callAmount, minBet, startRisk(poker.BestStart(hand, v.Rules())))
	}

	best := poker.BestHand(hand, community, poker.HandSize, v.Rules())
	if best.Kind.Order() >= poker.FourKind.Order() {
		return checkOrCall(v, callAmount)
	}
	risk := PotRatio(0)
	for _, r := range easyRisk {
		if best.Kind.Order() >= r.kind.Order() {
			risk = PotRatio(r.ratio)
			break
		}
	}
	return BetRisk(v, callAmount, minBet, risk)
}

// Medium risks the pot times its chance of holding the best hand.
type Medium struct{}

func (Medium) Name() string { return "medium" }

func (Medium) Bet(ctx context.Context, v *game.View, callAmount, minBet int) game.BetResp {
	if pocketThrees(v) {
		return BetRisk(v, callAmount, minBet, CallAny())
	}
	r, err := analysis.WinRatio(ctx, v)
	if err != nil {
		return BetRisk(v, callAmount, minBet, CheckFold())
	}
	return BetRisk(v, callAmount, minBet, PotRatio(r))
}
