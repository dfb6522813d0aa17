package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lox/dealerschoice/internal/analysis"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/poker"
)

// OddsCmd enumerates every way the unseen cards could fall.
type OddsCmd struct {
	Hand      string        `arg:"" help:"Your cards, such as 'As Kd'"`
	Board     string        `short:"b" help:"Community cards dealt so far"`
	Variant   string        `default:"${default_variant}" help:"Game being played"`
	Opponents int           `short:"o" default:"1" help:"Opponents still in the hand"`
	Special   []string      `help:"Special card groups, such as 'Twos Wild'"`
	Replace   int           `short:"r" help:"Also find the best cards to swap, up to this many"`
	Timeout   time.Duration `default:"1m" help:"Give up after this long"`
}

func (c *OddsCmd) Run() error {
	v, err := oddsView(c.Variant, c.Hand, c.Board, c.Opponents, c.Special)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	ratio, err := analysis.WinRatio(ctx, v)
	if err != nil {
		return err
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s vs %d", c.Variant, c.Opponents)))
	fmt.Printf("%s %s\n", infoStyle.Render("hand "), c.Hand)
	if c.Board != "" {
		fmt.Printf("%s %s\n", infoStyle.Render("board"), c.Board)
	}
	fmt.Printf("%s %s\n", infoStyle.Render("wins "), winStyle.Render(fmt.Sprintf("%.2f%%", ratio*100)))

	if c.Replace > 0 {
		indices, err := analysis.BestReplace(ctx, v, c.Replace)
		if err != nil {
			return err
		}
		hand := v.Hand(v.Role)
		swap := make([]poker.Card, len(indices))
		for i, idx := range indices {
			swap[i] = hand[idx]
		}
		if len(swap) == 0 {
			fmt.Printf("%s %s\n", infoStyle.Render("swap "), "nothing")
		} else {
			fmt.Printf("%s %s\n", infoStyle.Render("swap "), actionStyle.Render(poker.FormatCards(swap)))
		}
	}
	return nil
}

// oddsView seats the player at role 0 of a hand of variant with the given
// cards known and everything else hidden.
func oddsView(variant, hand, board string, opponents int, special []string) (*game.View, error) {
	vr, ok := game.LookupVariant(variant)
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (want one of %v)", variant, game.VariantNames())
	}
	if opponents < 1 {
		return nil, fmt.Errorf("need at least one opponent, got %d", opponents)
	}
	if _, unknown := poker.RulesFromGroups(special); len(unknown) > 0 {
		return nil, fmt.Errorf("unknown special cards %v", unknown)
	}
	facings, community := vr.Deal()

	mine, err := poker.ParseCards(hand)
	if err != nil {
		return nil, err
	}
	if len(mine) == 0 || len(mine) > len(facings) {
		return nil, fmt.Errorf("%s deals %d cards to a hand, got %d", vr.Name, len(facings), len(mine))
	}
	var common []poker.Card
	if board != "" {
		if common, err = poker.ParseCards(board); err != nil {
			return nil, err
		}
	}
	if len(common) > community {
		return nil, fmt.Errorf("%s turns %d community cards, got %d", vr.Name, community, len(common))
	}
	seen := poker.NewCardSet()
	for _, c := range append(append([]poker.Card{}, mine...), common...) {
		if !seen.Insert(c) {
			return nil, fmt.Errorf("%s appears twice", c)
		}
	}

	v := &game.View{
		Role:          0,
		UseFromHand:   vr.UseFromHand,
		Variant:       vr.Name,
		SpecialGroups: special,
	}
	me := game.PlayerView{Hand: make([]game.CardView, len(facings))}
	for i, c := range mine {
		me.Hand[i] = game.CardView{Visible: true, Card: c, Facing: facings[i]}
	}
	v.Players = append(v.Players, me)
	for range opponents {
		v.Players = append(v.Players, game.PlayerView{Hand: make([]game.CardView, len(facings))})
	}
	v.Community = make([]game.CardView, community)
	for i, c := range common {
		v.Community[i] = game.CardView{Visible: true, Card: c, Facing: game.FaceUp}
	}
	return v, nil
}
