package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/dealerschoice/poker"
)

var ErrNotEnoughPlayers = errors.New("a hand needs at least two players")

// Seat is a player taking part in a hand, listed by role.
type Seat struct {
	Player Player
	Chips  int
}

// Recorder receives every batch of diffs before the players see it and
// returns the log offset of the batch's first diff.
type Recorder interface {
	Record(diffs []Diff) int
}

// Config is everything a hand needs besides its players.
type Config struct {
	Variant       Variant
	Rules         TableRules
	SpecialGroups []string
	Deck          *poker.Deck
	Logger        *log.Logger
	Recorder      Recorder
}

// Result is the outcome of a finished hand.
type Result struct {
	Winners   Winners
	Deltas    []int
	Players   []PlayerState
	Community []poker.Card
	Showdown  bool
}

// Hand drives a single hand from ante to settlement. One goroutine calls
// Play; View may be called from anywhere.
type Hand struct {
	cfg     Config
	rules   []poker.SpecialCard
	logger  *log.Logger
	players []Player

	mu        sync.Mutex
	state     []PlayerState
	community []poker.Card
	queue     []Round // reversed; the next round is last
	cur       any
	aggressor Role

	// Blinds are posted before the first betting round opens.
	pendingBets []int
	pendingLast *lastBet

	diffs  []Diff
	offset int
}

// NewHand seats players by role.
func NewHand(seats []Seat, cfg Config) (*Hand, error) {
	if len(seats) < 2 {
		return nil, ErrNotEnoughPlayers
	}
	if cfg.Deck == nil {
		return nil, errors.New("hand needs a deck")
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("table rules: %w", err)
	}
	rules, unknown := poker.RulesFromGroups(cfg.SpecialGroups)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown special card groups: %v", unknown)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	h := &Hand{
		cfg:       cfg,
		rules:     rules,
		logger:    logger.WithPrefix("hand").With("variant", cfg.Variant.Name),
		players:   make([]Player, len(seats)),
		state:     make([]PlayerState, len(seats)),
		aggressor: NoRole,
	}
	for i, s := range seats {
		h.players[i] = s.Player
		h.state[i] = PlayerState{Chips: s.Chips}
	}
	h.queue = slices.Clone(cfg.Variant.Rounds)
	slices.Reverse(h.queue)
	return h, nil
}

func (h *Hand) numPlayers() int { return len(h.state) }

func (h *Hand) next(r Role) Role {
	return Role((int(r) + 1) % h.numPlayers())
}

func (h *Hand) unfolded() int {
	n := 0
	for _, p := range h.state {
		if !p.Folded {
			n++
		}
	}
	return n
}

func (h *Hand) emit(d ...Diff) {
	h.diffs = append(h.diffs, d...)
}

// Play runs the hand to the end. Deck exhaustion aborts the hand; no chips
// have moved when an error is returned.
func (h *Hand) Play(ctx context.Context) (Result, error) {
	for {
		h.flush()

		h.mu.Lock()
		if h.unfolded() < 2 {
			res := h.settle(false)
			h.mu.Unlock()
			h.flush()
			return res, nil
		}
		if h.cur == nil {
			if len(h.queue) == 0 {
				h.showCards()
				h.mu.Unlock()
				h.flush()
				h.mu.Lock()
				res := h.settle(true)
				h.mu.Unlock()
				h.flush()
				return res, nil
			}
			h.cur = h.start(h.queue[len(h.queue)-1])
			h.queue = h.queue[:len(h.queue)-1]
		}
		h.mu.Unlock()

		if err := h.step(ctx); err != nil {
			return Result{}, err
		}
	}
}

func (h *Hand) start(r Round) any {
	switch r := r.(type) {
	case Bet:
		bs := &betState{
			player: r.StartingPlayer,
			bets:   make([]int, h.numPlayers()),
			acted:  make([]bool, h.numPlayers()),
			last:   h.pendingLast,
		}
		if h.pendingBets != nil {
			copy(bs.bets, h.pendingBets)
		}
		h.pendingBets, h.pendingLast = nil, nil
		return bs
	case Replace:
		rs := &replaceState{maxReplace: r.MaxReplace}
		for i := 1; i < h.numPlayers(); i++ {
			rs.order = append(rs.order, Role(i))
		}
		rs.order = append(rs.order, 0)
		return rs
	default:
		return r
	}
}

func (h *Hand) step(ctx context.Context) error {
	switch cur := h.cur.(type) {
	case Ante:
		h.mu.Lock()
		h.collectAnte()
		h.cur = nil
		h.mu.Unlock()
	case DrawToHand:
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, facing := range cur.Facing {
			for i := range h.state {
				p := &h.state[i]
				if p.Folded {
					continue
				}
				card, err := h.cfg.Deck.Draw()
				if err != nil {
					return fmt.Errorf("dealing to %s: %w", Role(i), err)
				}
				cs := CardState{Card: card, Facing: facing}
				p.Hand = append(p.Hand, cs)
				h.emit(drawDiff(Role(i), cs))
			}
		}
		h.cur = nil
	case DrawToCommunity:
		h.mu.Lock()
		defer h.mu.Unlock()
		cards := make([]poker.Card, 0, cur.Count)
		for range cur.Count {
			card, err := h.cfg.Deck.Draw()
			if err != nil {
				return fmt.Errorf("dealing community: %w", err)
			}
			cards = append(cards, card)
		}
		h.community = append(h.community, cards...)
		h.emit(communityDiff(cards))
		h.cur = nil
	case *betState:
		h.betStep(ctx, cur)
	case *replaceState:
		return h.replaceStep(ctx, cur)
	default:
		panic(fmt.Sprintf("game: unknown round %T", cur))
	}
	return nil
}

func (h *Hand) anteName(fallback string) string {
	if h.cfg.Rules.AnteName != "" {
		return h.cfg.Rules.AnteName
	}
	return fallback
}

func (h *Hand) collectAnte() {
	ante := h.cfg.Rules.Ante
	if !ante.IsBlinds() {
		for i := range h.state {
			p := &h.state[i]
			amount := min(ante.Ante, p.Bettable())
			p.TotalBet += amount
			h.emit(blindDiff(Role(i), amount, h.anteName("Ante")))
		}
		return
	}

	bets := make([]int, h.numPlayers())
	var last *lastBet
	for i, blind := range ante.Blinds {
		role := Role((i + 1) % h.numPlayers())
		amount := min(blind, h.state[role].Bettable()-bets[role])
		bets[role] += amount
		h.emit(blindDiff(role, amount, h.anteName("Blind")))
		if last == nil || bets[role] > last.amount {
			last = &lastBet{role: role, amount: bets[role]}
		}
	}
	h.pendingBets, h.pendingLast = bets, last
}

type replaceState struct {
	maxReplace func([]CardState) int
	order      []Role
	pos        int
}

func (h *Hand) replaceStep(ctx context.Context, rs *replaceState) error {
	h.mu.Lock()
	if rs.pos >= len(rs.order) {
		h.cur = nil
		h.mu.Unlock()
		return nil
	}
	role := rs.order[rs.pos]
	p := &h.state[role]
	if p.Folded {
		rs.pos++
		h.mu.Unlock()
		return nil
	}
	maxReplace := rs.maxReplace(p.Hand)
	handSize := len(p.Hand)
	h.emit(Diff{Kind: DiffTurnStart, Player: role})
	h.mu.Unlock()
	h.flush()

	indices := h.players[role].Replace(ctx, maxReplace)

	h.mu.Lock()
	defer h.mu.Unlock()
	rs.pos++
	if err := ValidReplace(indices, maxReplace, handSize); err != nil {
		h.logger.Warn("ignoring replacement", "role", role, "indices", indices, "error", err)
		indices = nil
	}
	discard := make([]CardState, 0, len(indices))
	drawn := make([]CardState, 0, len(indices))
	for _, idx := range indices {
		card, err := h.cfg.Deck.Draw()
		if err != nil {
			return fmt.Errorf("replacing for %s: %w", role, err)
		}
		old := p.Hand[idx]
		fresh := CardState{Card: card, Facing: old.Facing}
		p.Hand[idx] = fresh
		discard = append(discard, old)
		drawn = append(drawn, fresh)
	}
	h.emit(replaceDiff(role, discard, drawn))
	return nil
}

// showCards turns every unfolded hand face up, starting with the last
// aggressor and going round the table.
func (h *Hand) showCards() {
	start := h.aggressor
	if start == NoRole {
		start = 0
	}
	sd := h.showdown()
	role := start
	for {
		p := &h.state[role]
		if !p.Folded {
			var shown []ShownCard
			for i := range p.Hand {
				if p.Hand[i].Facing == FaceDown {
					p.Hand[i].Facing = FaceUp
					shown = append(shown, ShownCard{Index: i, Card: Visible(p.Hand[i])})
				}
			}
			if len(shown) > 0 {
				strength := sd.Strength(p)
				h.emit(Diff{Kind: DiffShowCards, Player: role, Shown: shown, Strength: &strength})
			}
		}
		role = h.next(role)
		if role == start {
			break
		}
	}
}

func (h *Hand) showdown() Showdown {
	return Showdown{Community: h.community, UseFromHand: h.cfg.Variant.UseFromHand, Rules: h.rules}
}

// settle collects any outstanding bets and pays out the pots.
func (h *Hand) settle(showdown bool) Result {
	if bs, ok := h.cur.(*betState); ok {
		h.collect(bs)
	}
	for r, b := range h.pendingBets {
		h.state[r].TotalBet += b
	}
	h.pendingBets, h.pendingLast = nil, nil
	h.cur = nil

	winners := CalcWinners(h.state, h.showdown())
	h.emit(Diff{Kind: DiffWinners, Player: NoRole, Winners: &winners})
	h.logger.Debug("hand settled", "winners", winners, "showdown", showdown)
	return Result{
		Winners:   winners,
		Deltas:    winners.Deltas(h.state),
		Players:   slices.Clone(h.state),
		Community: slices.Clone(h.community),
		Showdown:  showdown,
	}
}

// flush records pending diffs and pushes fresh views to every player.
func (h *Hand) flush() {
	h.mu.Lock()
	if len(h.diffs) == 0 {
		h.mu.Unlock()
		return
	}
	diffs := h.diffs
	h.diffs = nil
	offset := h.offset
	if h.cfg.Recorder != nil {
		offset = h.cfg.Recorder.Record(diffs)
	}
	h.offset = offset + len(diffs)
	updates := make([]ViewUpdate, len(h.players))
	for i := range h.players {
		updates[i] = ViewUpdate{
			View:   h.viewLocked(Role(i)),
			Offset: offset,
			Diffs:  RedactAll(diffs, Role(i)),
		}
	}
	h.mu.Unlock()

	for i, p := range h.players {
		p.Update(updates[i])
	}
}

// View returns the hand as role sees it. NoRole gives the spectator view.
func (h *Hand) View(role Role) View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewLocked(role)
}

func (h *Hand) viewLocked(role Role) View {
	v := View{
		Role:          role,
		Players:       make([]PlayerView, len(h.state)),
		Community:     make([]CardView, len(h.community)),
		BetThisRound:  make([]int, len(h.state)),
		CurrentTurn:   NoRole,
		SpecialGroups: slices.Clone(h.cfg.SpecialGroups),
		UseFromHand:   h.cfg.Variant.UseFromHand,
		Variant:       h.cfg.Variant.Name,
		MinBet:        h.cfg.Rules.MinBet,
	}
	for i, p := range h.state {
		pv := PlayerView{Chips: p.Chips, TotalBet: p.TotalBet, Folded: p.Folded, Hand: make([]CardView, len(p.Hand))}
		for j, cs := range p.Hand {
			pv.Hand[j] = cs.ViewFor(role != NoRole && Role(i) == role)
		}
		v.Players[i] = pv
	}
	for i, c := range h.community {
		v.Community[i] = Visible(CardState{Card: c, Facing: FaceUp})
	}
	switch cur := h.cur.(type) {
	case *betState:
		copy(v.BetThisRound, cur.bets)
		v.CurrentTurn = cur.player
	case *replaceState:
		if cur.pos < len(cur.order) {
			v.CurrentTurn = cur.order[cur.pos]
		}
	default:
		if h.pendingBets != nil {
			copy(v.BetThisRound, h.pendingBets)
		}
	}
	return v
}
