// Package analysis judges a hand from what one player can see of it. Every
// unseen card is enumerated exactly; nothing is sampled.
package analysis

import (
	"context"
	"errors"
	"runtime"
	"slices"

	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/poker"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/combin"
)

// ErrNoSeat is returned for views of players not dealt into the hand.
var ErrNoSeat = errors.New("analysis: viewer has no seat in the hand")

// chunk is how many opponent deals one worker judges per task.
const chunk = 4096

// opponents are players who show the same cards and hide the same number,
// so one enumeration of the unseen cards serves them all.
type opponents struct {
	visible []poker.Card
	hidden  int
	count   uint64
}

type tally struct {
	won, total uint64
}

func (t *tally) add(o tally) {
	t.won += o.won
	t.total += o.total
}

// situation is the hand as the viewer knows it.
type situation struct {
	useFromHand     int
	rules           []poker.SpecialCard
	community       []poker.Card
	communityHidden int
	mine            []poker.Card
	myHidden        int
	groups          []opponents
	maxHidden       int
	left            poker.CardSet
}

func visibleCards(views []game.CardView, left *poker.CardSet) (cards []poker.Card, hidden int) {
	for _, cv := range views {
		if !cv.Visible {
			hidden++
			continue
		}
		cards = append(cards, cv.Card)
		left.Remove(cv.Card)
	}
	return cards, hidden
}

func read(v *game.View) (*situation, error) {
	if v.Me() == nil {
		return nil, ErrNoSeat
	}
	s := &situation{
		useFromHand: v.UseFromHand,
		rules:       v.Rules(),
		left:        poker.FullDeck(),
	}
	s.community, s.communityHidden = visibleCards(v.Community, &s.left)
	s.mine, s.myHidden = visibleCards(v.Me().Hand, &s.left)

	for r, p := range v.Players {
		if game.Role(r) == v.Role || p.Folded {
			continue
		}
		visible, hidden := visibleCards(p.Hand, &s.left)
		i := slices.IndexFunc(s.groups, func(o opponents) bool {
			return o.hidden == hidden && slices.Equal(o.visible, visible)
		})
		if i >= 0 {
			s.groups[i].count++
			continue
		}
		s.groups = append(s.groups, opponents{visible: visible, hidden: hidden, count: 1})
		s.maxHidden = max(s.maxHidden, hidden)
	}
	return s, nil
}

func (s *situation) strength(hand, board []poker.Card) poker.HandStrength {
	return poker.BestHandUseFromHand(s.useFromHand, hand, board, poker.HandSize, s.rules)
}

// WinRatio is the fraction of (deal, opponent) pairs the viewer's hand
// strictly beats, over every way the cards they cannot see might lie. Ties
// count as losses. A viewer with no opponents left wins outright.
func WinRatio(ctx context.Context, v *game.View) (float64, error) {
	s, err := read(v)
	if err != nil {
		return 0, err
	}
	if len(s.groups) == 0 {
		return 1, nil
	}

	var sum tally
	for extra := range poker.Subsets(s.left.Cards(), s.communityHidden) {
		board := append(slices.Clip(s.community), extra...)
		afterBoard := s.left &^ poker.NewCardSet(extra...)
		for draw := range poker.Subsets(afterBoard.Cards(), s.myHidden) {
			hand := append(slices.Clip(s.mine), draw...)
			pool := afterBoard &^ poker.NewCardSet(draw...)
			t, err := s.against(ctx, s.strength(hand, board), board, pool.Cards())
			if err != nil {
				return 0, err
			}
			sum.add(t)
		}
	}
	if sum.total == 0 {
		return 0, nil
	}
	return float64(sum.won) / float64(sum.total), nil
}

// against judges mine against every opponent over every deal of their hidden
// cards from pool, split across workers.
func (s *situation) against(ctx context.Context, mine poker.HandStrength, board, pool []poker.Card) (tally, error) {
	n, k := len(pool), s.maxHidden
	if k == 0 {
		return s.judge(mine, board, nil), nil
	}
	if k > n {
		return tally{}, nil
	}

	deals := combin.Binomial(n, k)
	tasks := (deals + chunk - 1) / chunk
	results := make([]tally, tasks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx := make([]int, k)
			dealt := make([]poker.Card, k)
			for d := i * chunk; d < min(deals, (i+1)*chunk); d++ {
				combin.IndexToCombination(idx, d, n, k)
				for j, c := range idx {
					dealt[j] = pool[c]
				}
				results[i].add(s.judge(mine, board, dealt))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tally{}, err
	}

	var sum tally
	for _, t := range results {
		sum.add(t)
	}
	return sum, nil
}

// judge scores mine against each opponent group, each taking the first of
// the dealt cards it is missing.
func (s *situation) judge(mine poker.HandStrength, board, dealt []poker.Card) tally {
	var t tally
	hand := make([]poker.Card, 0, 8)
	for _, o := range s.groups {
		hand = append(append(hand[:0], o.visible...), dealt[:o.hidden]...)
		t.total += o.count
		if mine.Beats(s.strength(hand, board)) {
			t.won += o.count
		}
	}
	return t
}
