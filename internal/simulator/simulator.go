// Package simulator plays bot-only tables as fast as they will go and
// gathers the finished hands and per-player statistics.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/dealerschoice/internal/bot"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/lox/dealerschoice/internal/randutil"
	"github.com/lox/dealerschoice/internal/statistics"
	"github.com/lox/dealerschoice/internal/table"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Tables int
	// Hands caps the hands per table; 0 plays until one bot has every chip.
	Hands int
	// Strategies seats one bot per entry at every table.
	Strategies []string
	Table      table.Config
	Seed       int64
	Timeout    time.Duration
	Clock      quartz.Clock
	Logger     *log.Logger
}

// TableResult is how one table ended.
type TableResult struct {
	Name  string
	Hands int
	Chips map[string]int
}

// Result is everything a simulation produced. Records are grouped by table
// in table order.
type Result struct {
	Seed    int64
	Tables  []TableResult
	Records []handlog.Record
	Stats   *statistics.Collector
}

// Simulator runs bot tables.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Tables <= 0 {
		config.Tables = 1
	}
	if config.Clock == nil {
		config.Clock = quartz.NewReal()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{config: config}
}

// recorder keeps a table's finished hands in memory.
type recorder struct {
	records []handlog.Record
}

func (r *recorder) Append(rec handlog.Record) error {
	r.records = append(r.records, rec)
	return nil
}

// Run plays every table in parallel and returns once they have all finished.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	cfg := s.config
	if len(cfg.Strategies) < 2 {
		return nil, fmt.Errorf("need at least 2 bots, got %d", len(cfg.Strategies))
	}
	if len(cfg.Strategies) > cfg.Table.MaxPlayers {
		return nil, fmt.Errorf("%d bots do not fit a %d seat table", len(cfg.Strategies), cfg.Table.MaxPlayers)
	}
	strategies := make([]bot.Strategy, len(cfg.Strategies))
	for i, name := range cfg.Strategies {
		st, err := bot.Lookup(name)
		if err != nil {
			return nil, err
		}
		strategies[i] = st
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	seed := randutil.SeedOrNow(cfg.Seed)
	results := make([]TableResult, cfg.Tables)
	recorders := make([]*recorder, cfg.Tables)
	g, ctx := errgroup.WithContext(ctx)
	for i := range cfg.Tables {
		recorders[i] = &recorder{}
		g.Go(func() error {
			res, err := s.playTable(ctx, i, seed, strategies, recorders[i])
			if err != nil {
				return fmt.Errorf("table %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("simulation timed out after %v (seed: %d): %w", cfg.Timeout, seed, err)
		}
		return nil, err
	}

	out := &Result{Seed: seed, Tables: results, Stats: statistics.NewCollector()}
	for _, r := range recorders {
		for _, rec := range r.records {
			out.Records = append(out.Records, rec)
			out.Stats.Add(rec)
		}
	}
	if err := out.Stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return out, nil
}

func (s *Simulator) playTable(ctx context.Context, n int, seed int64, strategies []bot.Strategy, rec *recorder) (TableResult, error) {
	cfg := s.config
	tcfg := cfg.Table
	if cfg.Tables > 1 {
		tcfg.Name = fmt.Sprintf("%s-%d", tcfg.Name, n+1)
	}
	// Table n draws from Fork stream n*stride; its bots take the next ones.
	stride := len(strategies) + 1
	tbl, err := table.New(tcfg,
		table.WithClock(cfg.Clock),
		table.WithLogger(cfg.Logger),
		table.WithArchive(rec),
		table.WithRand(randutil.Fork(seed, n*stride)))
	if err != nil {
		return TableResult{}, err
	}
	ids := make([]string, len(strategies))
	for j, st := range strategies {
		ids[j] = fmt.Sprintf("%s-%d", st.Name(), j+1)
		p := bot.New(st,
			bot.WithLogger(cfg.Logger),
			bot.WithRand(randutil.Fork(seed, n*stride+j+1)))
		if err := tbl.Join(ids[j], p); err != nil {
			return TableResult{}, err
		}
	}
	tbl.Start()

	played := 0
	for cfg.Hands == 0 || played < cfg.Hands {
		if err := ctx.Err(); err != nil {
			return TableResult{}, err
		}
		more, err := tbl.PlayHand(ctx)
		if errors.Is(err, game.ErrNotEnoughPlayers) {
			break
		}
		if err != nil {
			return TableResult{}, err
		}
		played++
		if !more {
			break
		}
	}
	chips := make(map[string]int, len(ids))
	for _, seat := range tbl.View().Seats {
		chips[seat.ID] = seat.Chips
	}
	cfg.Logger.Debug("table finished", "table", tcfg.Name, "hands", played, "chips", chips)
	return TableResult{Name: tcfg.Name, Hands: played, Chips: chips}, nil
}
