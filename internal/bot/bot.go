// Package bot seats computer players. A Strategy decides how much to bet;
// Player adapts it to game.Player, keeps the latest view of the hand and
// answers everything else the same way for every strategy.
package bot

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/dealerschoice/internal/analysis"
	"github.com/lox/dealerschoice/internal/fanout"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/randutil"
)

// Strategy decides bets from a view of the hand.
type Strategy interface {
	Name() string
	Bet(ctx context.Context, v *game.View, callAmount, minBet int) game.BetResp
}

// Strategies lists the built-in strategies by name.
func Strategies() []Strategy {
	return []Strategy{AlwaysCall{}, Easy{}, Medium{}}
}

// StrategyNames lists the names Lookup accepts.
func StrategyNames() []string {
	var names []string
	for _, s := range Strategies() {
		names = append(names, s.Name())
	}
	return names
}

// Lookup finds a built-in strategy by name.
func Lookup(name string) (Strategy, error) {
	i := slices.IndexFunc(Strategies(), func(s Strategy) bool { return s.Name() == name })
	if i < 0 {
		return nil, fmt.Errorf("unknown bot strategy %q (want one of %v)", name, StrategyNames())
	}
	return Strategies()[i], nil
}

// Option customises a Player.
type Option func(*Player)

func WithLogger(logger *log.Logger) Option {
	return func(p *Player) { p.logger = logger }
}

// WithRand sets the source for dealer's choice picks.
func WithRand(rng *rand.Rand) Option {
	return func(p *Player) { p.rng = rng }
}

// Player is a game.Player driven by a Strategy.
type Player struct {
	strategy Strategy
	logger   *log.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	views  *fanout.Sender[game.View, game.View]
	latest *fanout.Receiver[game.View]
}

var _ game.Player = (*Player)(nil)

// New wraps strategy.
func New(strategy Strategy, opts ...Option) *Player {
	p := &Player{
		strategy: strategy,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = randutil.New(randutil.SeedOrNow(0))
	}
	p.logger = p.logger.WithPrefix("bot").With("strategy", strategy.Name())
	p.views = fanout.New(func() game.View { return game.View{Role: game.NoRole} }, func(v *game.View, e game.View) { *v = e })
	p.latest = p.views.Subscribe()
	return p
}

func (p *Player) Strategy() Strategy { return p.strategy }

// View returns the most recent view of the hand.
func (p *Player) View() game.View {
	var v game.View
	p.latest.Borrow(func(cur *game.View) { v = *cur })
	return v
}

func (p *Player) Update(u game.ViewUpdate) {
	p.views.Send(u.View)
}

func (p *Player) Bet(ctx context.Context, callAmount, minBet int) game.BetResp {
	v := p.View()
	if v.Me() == nil {
		p.logger.Warn("asked to bet without a seat, folding")
		return game.FoldResp()
	}
	resp := p.strategy.Bet(ctx, &v, callAmount, minBet)
	p.logger.Debug("bet", "role", v.Role, "call", callAmount, "min", minBet, "resp", resp)
	return resp
}

func (p *Player) Replace(ctx context.Context, maxReplace int) []int {
	v := p.View()
	indices, err := analysis.BestReplace(ctx, &v, maxReplace)
	if err != nil {
		p.logger.Warn("could not pick replacements, keeping hand", "error", err)
		return nil
	}
	p.logger.Debug("replace", "role", v.Role, "indices", indices)
	return indices
}

// DealersChoice picks a variant at random and no special cards.
func (p *Player) DealersChoice(_ context.Context, variants, _ []string) game.DealersChoiceResp {
	if len(variants) == 0 {
		return game.DealersChoiceResp{}
	}
	p.rngMu.Lock()
	idx := p.rng.IntN(len(variants))
	p.rngMu.Unlock()
	p.logger.Debug("dealer's choice", "variant", variants[idx])
	return game.DealersChoiceResp{Variant: idx}
}
