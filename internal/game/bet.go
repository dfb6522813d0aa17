package game

import "context"

// lastBet is the standing bet of a betting round.
type lastBet struct {
	role   Role
	amount int
}

type betState struct {
	player Role
	last   *lastBet
	bets   []int
	acted  []bool
}

func (bs *betState) highest() int {
	highest := 0
	for _, b := range bs.bets {
		highest = max(highest, b)
	}
	return highest
}

// collect moves the round's bets into each player's total.
func (h *Hand) collect(bs *betState) {
	for r, b := range bs.bets {
		h.state[r].TotalBet += b
		bs.bets[r] = 0
	}
}

// canAct reports whether role is still in the hand with chips behind.
func (h *Hand) canAct(bs *betState, role Role) bool {
	p := &h.state[role]
	return !p.Folded && p.Bettable()-bs.bets[role] > 0
}

// nobodyOwesAction is true when at most one unfolded player has chips left
// and that player has already matched the highest bet.
func (h *Hand) nobodyOwesAction(bs *betState) bool {
	var open []Role
	for r := range h.state {
		if h.canAct(bs, Role(r)) {
			open = append(open, Role(r))
		}
	}
	switch len(open) {
	case 0:
		return true
	case 1:
		return bs.bets[open[0]] >= bs.highest()
	}
	return false
}

// actionClosed is true once every player who can still act has acted since
// the last raise and matched the highest bet. Posting a blind is not acting,
// so the blinds always get their option.
func (h *Hand) actionClosed(bs *betState) bool {
	highest := bs.highest()
	for r := range h.state {
		if h.canAct(bs, Role(r)) && (!bs.acted[r] || bs.bets[r] < highest) {
			return false
		}
	}
	return true
}

// betStep runs one turn of a betting round.
func (h *Hand) betStep(ctx context.Context, bs *betState) {
	h.mu.Lock()
	if h.actionClosed(bs) || h.nobodyOwesAction(bs) {
		h.collect(bs)
		h.cur = nil
		h.mu.Unlock()
		return
	}
	role := bs.player
	if !h.canAct(bs, role) {
		bs.player = h.next(role)
		h.mu.Unlock()
		return
	}

	callAmount, minBet := 0, h.cfg.Rules.MinBet
	if bs.last != nil && bs.last.amount > 0 {
		callAmount, minBet = bs.last.amount, 2*bs.last.amount
	}
	h.emit(Diff{Kind: DiffTurnStart, Player: role})
	h.mu.Unlock()
	h.flush()

	resp := h.players[role].Bet(ctx, callAmount, minBet)

	h.mu.Lock()
	defer h.mu.Unlock()
	bs.acted[role] = true
	bs.player = h.next(role)
	p := &h.state[role]
	if resp.Fold {
		p.Folded = true
		h.emit(Diff{Kind: DiffFold, Player: role})
		return
	}

	amount := resp.Amount
	if bettable := p.Bettable(); amount > bettable {
		h.logger.Warn("bet above stack, clamping", "role", role, "amount", amount, "bettable", bettable)
		amount = bettable
	}
	amount = max(amount, bs.bets[role])

	lastAmount := 0
	if bs.last != nil {
		lastAmount = bs.last.amount
	}
	diff := betDiff(role, amount, bs.bets[role], lastAmount)
	h.emit(diff)
	bs.bets[role] = amount

	if bs.last == nil || amount > bs.last.amount {
		bs.last = &lastBet{role: role, amount: amount}
		if diff.Bet.Kind == BetRaise {
			h.aggressor = role
			for r := range bs.acted {
				bs.acted[r] = Role(r) == role
			}
		}
	}
}
