package analysis

import (
	"context"
	"runtime"
	"slices"

	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/poker"
	"golang.org/x/sync/errgroup"
)

// Candidate is one set of hand positions to replace and how it scored.
type Candidate struct {
	Indices []int
	// Score is (better - worse) / draws over every draw of replacements.
	Score float64
}

// ReplaceCandidates scores every way of replacing between one and
// maxReplace cards of the viewer's hand. A draw counts as better or worse
// than keeping the hand as it stands.
func ReplaceCandidates(ctx context.Context, v *game.View, maxReplace int) ([]Candidate, error) {
	s, err := read(v)
	if err != nil {
		return nil, err
	}
	hand, board := s.mine, s.community
	keep := s.strength(hand, board)
	deck := s.left.Cards()

	var picks [][]int
	positions := make([]int, len(hand))
	for i := range positions {
		positions[i] = i
	}
	for n := 1; n <= min(maxReplace, len(hand)); n++ {
		for pick := range poker.Subsets(positions, n) {
			picks = append(picks, slices.Clone(pick))
		}
	}

	out := make([]Candidate, len(picks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pick := range picks {
		g.Go(func() error {
			kept := make([]poker.Card, 0, len(hand))
			for j, c := range hand {
				if !slices.Contains(pick, j) {
					kept = append(kept, c)
				}
			}
			good, total := 0, 0
			trial := make([]poker.Card, 0, len(hand))
			for drawn := range poker.Subsets(deck, len(pick)) {
				if total%chunk == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				total++
				trial = append(append(trial[:0], kept...), drawn...)
				switch s.strength(trial, board).Compare(keep) {
				case 1:
					good++
				case -1:
					good--
				}
			}
			out[i] = Candidate{Indices: pick}
			if total > 0 {
				out[i].Score = float64(good) / float64(total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BestReplace returns the hand positions whose replacement most improves the
// viewer's hand, or nil when no replacement improves it on balance.
func BestReplace(ctx context.Context, v *game.View, maxReplace int) ([]int, error) {
	candidates, err := ReplaceCandidates(ctx, v, maxReplace)
	if err != nil {
		return nil, err
	}
	var best []int
	bestScore := 0.0
	for _, c := range candidates {
		if c.Score > bestScore {
			best, bestScore = c.Indices, c.Score
		}
	}
	return best, nil
}
