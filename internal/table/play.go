package table

import (
	"context"
	"errors"
	"slices"

	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/handid"
	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/lox/dealerschoice/poker"
)

// Run deals hands while the table is running and more than one player has
// chips. It returns nil once the game is decided.
func (t *Table) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := t.PlayHand(ctx)
		switch {
		case errors.Is(err, game.ErrNotEnoughPlayers):
			t.logger.Info("game over", "hands", t.View().Hand+1)
			return nil
		case err != nil:
			return err
		case !more:
			t.logger.Info("game over", "hands", t.View().Hand+1)
			return nil
		}
	}
}

func (t *Table) waitRunning(ctx context.Context) error {
	r := t.running.Subscribe()
	for {
		var running bool
		r.Borrow(func(v *bool) { running = *v })
		if running {
			return nil
		}
		if err := r.Wait(ctx); err != nil {
			return err
		}
	}
}

// PlayHand waits for the table to be running and plays one hand. A hand that
// fails part way, such as by running out of cards, is logged and rolled back
// with no chips moving. more reports whether another hand can be dealt.
func (t *Table) PlayHand(ctx context.Context) (more bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := t.waitRunning(ctx); err != nil {
		return false, err
	}

	t.mu.Lock()
	roles := t.nextRolesLocked()
	if len(roles) < 2 {
		t.mu.Unlock()
		return false, game.ErrNotEnoughPlayers
	}
	t.lastDealer, t.hasDealer = roles[0].seat, true
	if t.started.IsZero() {
		t.started = t.clock.Now("table", "start")
	}
	number := len(t.logs)
	rules := t.cfg.Ante.Rules(number, t.clock.Since(t.started, "table", "ante"))
	if !sameRules(rules, t.lastRules) {
		t.logger.Info(rules.Ante.String(), "hand", number, "min_bet", rules.MinBet)
	}
	t.lastRules = rules

	seats := make([]game.Seat, len(roles))
	roster := make([]string, len(roles))
	for i, p := range roles {
		seats[i] = game.Seat{Player: p.player, Chips: p.chips}
		roster[i] = p.id
	}
	dealer := roles[0].player
	t.mu.Unlock()

	variant, groups := t.chooseGame(ctx, dealer, len(roles))

	t.mu.Lock()
	t.logs = append(t.logs, HandLog{
		Number:        number,
		ID:            handid.New(),
		Roster:        roster,
		Variant:       variant.Name,
		SpecialGroups: groups,
		Rules:         rules,
		Start:         t.logEnd,
	})
	hand, err := game.NewHand(seats, game.Config{
		Variant:       variant,
		Rules:         rules,
		SpecialGroups: groups,
		Deck:          poker.NewDeck(t.rng),
		Logger:        t.logger.With("hand", number),
		Recorder:      t,
	})
	if err != nil {
		t.logs[len(t.logs)-1].Aborted = true
		t.mu.Unlock()
		return false, err
	}
	t.hand = hand
	t.publishLocked()
	t.mu.Unlock()

	t.logger.Debug("dealing", "hand", number, "variant", variant.Name, "roster", roster)
	res, err := hand.Play(ctx)
	if err != nil {
		t.logger.Error("hand failed, rolling back", "hand", number, "error", err)
		pauseErr := t.pause(ctx)
		t.finish(nil)
		return t.Contenders() > 1, pauseErr
	}

	pauseErr := t.pause(ctx)
	t.finish(&res)
	return t.Contenders() > 1, pauseErr
}

func sameRules(a, b game.TableRules) bool {
	return a.Ante.Ante == b.Ante.Ante && slices.Equal(a.Ante.Blinds, b.Ante.Blinds) &&
		a.AnteName == b.AnteName && a.MinBet == b.MinBet
}

// chooseGame asks the dealer for the variant and special cards when the table
// plays dealer's choice. Only variants one deck can deal to players are
// offered. Invalid picks fall back to the table's game.
func (t *Table) chooseGame(ctx context.Context, dealer game.Player, players int) (game.Variant, []string) {
	if !t.cfg.DealersChoice {
		return t.variant, t.cfg.SpecialGroups
	}
	variants := slices.DeleteFunc(game.Variants(), func(v game.Variant) bool { return !v.Fits(players) })
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	resp := dealer.DealersChoice(ctx, names, poker.SpecialCardGroupNames())
	if resp.Variant < 0 || resp.Variant >= len(variants) {
		t.logger.Warn("dealer picked an unknown variant, using the default", "variant", resp.Variant)
		return t.variant, t.cfg.SpecialGroups
	}
	if _, unknown := poker.RulesFromGroups(resp.SpecialGroups); len(unknown) > 0 {
		t.logger.Warn("dealer picked unknown special cards, using the default", "groups", unknown)
		return variants[resp.Variant], t.cfg.SpecialGroups
	}
	t.logger.Info("dealer's choice", "variant", variants[resp.Variant].Name, "special", resp.SpecialGroups)
	return variants[resp.Variant], slices.Clone(resp.SpecialGroups)
}

func (t *Table) pause(ctx context.Context) error {
	if t.cfg.Pause <= 0 {
		return nil
	}
	timer := t.clock.NewTimer(t.cfg.Pause, "table", "pause")
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish closes the current hand log and applies res. A nil res rolls the
// hand back.
func (t *Table) finish(res *game.Result) {
	t.mu.Lock()
	l := &t.logs[len(t.logs)-1]
	t.hand = nil
	if res == nil {
		l.Aborted = true
	} else {
		l.Deltas = slices.Clone(res.Deltas)
		for role, id := range l.Roster {
			if p, ok := t.players[id]; ok {
				p.chips += res.Deltas[role]
			}
		}
	}
	for id, p := range t.players {
		if p.left {
			delete(t.players, id)
		}
	}
	var rec *handlog.Record
	if res != nil && t.archive != nil {
		rec = &handlog.Record{
			ID:            l.ID,
			Table:         t.cfg.Name,
			Number:        l.Number,
			Variant:       l.Variant,
			SpecialGroups: l.SpecialGroups,
			Rules:         l.Rules,
			Roster:        slices.Clone(l.Roster),
			Deltas:        slices.Clone(l.Deltas),
			Diffs:         slices.Clone(l.Diffs),
			Finished:      t.clock.Now("table", "finish"),
		}
	}
	t.publishLocked()
	t.mu.Unlock()

	if rec != nil {
		if err := t.archive.Append(*rec); err != nil {
			t.logger.Error("failed to archive hand", "hand", rec.Number, "error", err)
		}
	}
}
