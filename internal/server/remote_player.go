package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/dealerschoice/internal/fanout"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/protocol"
)

var (
	ErrStaleRequest = errors.New("no such request pending")
	ErrWrongAnswer  = errors.New("answer does not match the request")
)

// sender is where a remote player's requests and errors go.
type sender interface {
	Send(protocol.Message) error
}

type pendingRequest struct {
	req     protocol.Request
	answers chan protocol.Message
}

// RemotePlayer is a game.Player deciding over a websocket. It stays seated
// across reconnects; while nobody is connected its requests time out to the
// default moves.
type RemotePlayer struct {
	id      string
	token   string
	clock   quartz.Clock
	timeout time.Duration
	logger  *log.Logger

	views  *fanout.Sender[game.View, game.View]
	latest *fanout.Receiver[game.View]

	mu      sync.Mutex
	conn    sender
	nextID  uint64
	pending *pendingRequest
}

var _ game.Player = (*RemotePlayer)(nil)

// NewRemotePlayer creates a player with a fresh reconnect token.
func NewRemotePlayer(id string, clock quartz.Clock, timeout time.Duration, logger *log.Logger) *RemotePlayer {
	p := &RemotePlayer{
		id:      id,
		token:   uuid.NewString(),
		clock:   clock,
		timeout: timeout,
		logger:  logger.WithPrefix("remote-player").With("player", id),
		views:   fanout.New(func() game.View { return game.View{Role: game.NoRole} }, func(v *game.View, e game.View) { *v = e }),
	}
	p.latest = p.views.Subscribe()
	return p
}

func (p *RemotePlayer) ID() string { return p.id }

func (p *RemotePlayer) Token() string { return p.token }

// Views subscribes to the player's view of the current hand.
func (p *RemotePlayer) Views() *fanout.Receiver[game.View] {
	return p.views.Subscribe()
}

// attach routes requests to conn from now on and repeats any request still
// waiting for an answer. It returns the connection conn replaces.
func (p *RemotePlayer) attach(conn sender) (previous sender) {
	p.mu.Lock()
	previous, p.conn = p.conn, conn
	var req *protocol.Request
	if p.pending != nil {
		r := p.pending.req
		req = &r
	}
	p.mu.Unlock()

	if req != nil {
		_ = conn.Send(req)
	}
	return previous
}

// detach forgets conn unless another connection has replaced it already.
func (p *RemotePlayer) detach(conn sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		p.conn = nil
	}
}

func (p *RemotePlayer) reply(msg protocol.Message) {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn != nil {
		_ = conn.Send(msg)
	}
}

// answer delivers a client's answer to the request it names.
func (p *RemotePlayer) answer(id uint64, msg protocol.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil || p.pending.req.ID != id {
		return fmt.Errorf("%w: %d", ErrStaleRequest, id)
	}
	select {
	case p.pending.answers <- msg:
		return nil
	default:
		return fmt.Errorf("%w: %d already answered", ErrStaleRequest, id)
	}
}

func (p *RemotePlayer) Update(u game.ViewUpdate) {
	p.views.Send(u.View)
}

func (p *RemotePlayer) view() game.View {
	var v game.View
	p.latest.Borrow(func(cur *game.View) { v = *cur })
	return v
}

// ask sends req and waits for an answer that accept takes. It gives up at the
// deadline or when ctx is done.
func (p *RemotePlayer) ask(ctx context.Context, req protocol.Request, accept func(protocol.Message) error) (protocol.Message, bool) {
	answers := make(chan protocol.Message, 1)
	p.mu.Lock()
	p.nextID++
	req.ID = p.nextID
	req.Deadline = p.clock.Now().Add(p.timeout)
	p.pending = &pendingRequest{req: req, answers: answers}
	conn := p.conn
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.pending = nil
		p.mu.Unlock()
	}()

	timedOut := make(chan struct{})
	timer := p.clock.AfterFunc(p.timeout, func() { close(timedOut) }, "remote", "decision")
	defer timer.Stop()

	if conn != nil {
		if err := conn.Send(&req); err != nil {
			p.logger.Debug("Could not send request", "request", req.ID, "error", err)
		}
	}

	for {
		select {
		case msg := <-answers:
			if err := accept(msg); err != nil {
				p.logger.Warn("Rejected answer", "request", req.ID, "error", err)
				p.reply(&protocol.Error{Code: protocol.CodeInvalidMove, Message: err.Error()})
				continue
			}
			return msg, true
		case <-timedOut:
			p.logger.Warn("Decision timeout, using the default", "request", req.ID, "kind", req.Kind)
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (p *RemotePlayer) Bet(ctx context.Context, callAmount, minBet int) game.BetResp {
	v := p.view()
	if v.Me() == nil {
		return game.FoldResp()
	}
	req := protocol.Request{Kind: protocol.RequestBet, Hand: &v, CallAmount: callAmount, MinBet: minBet}
	msg, ok := p.ask(ctx, req, func(m protocol.Message) error {
		b, ok := m.(*protocol.Bet)
		if !ok {
			return fmt.Errorf("%w: got %s for %s", ErrWrongAnswer, m.MessageType(), req.Kind)
		}
		if b.Fold {
			return nil
		}
		return v.ValidBet(b.Amount, callAmount, minBet)
	})
	if !ok {
		return defaultBet(&v, callAmount)
	}
	if b := msg.(*protocol.Bet); !b.Fold {
		return game.BetChips(b.Amount)
	}
	return game.FoldResp()
}

// defaultBet checks when that costs nothing and folds otherwise.
func defaultBet(v *game.View, callAmount int) game.BetResp {
	if v.Role >= 0 && int(v.Role) < len(v.BetThisRound) && callAmount <= v.BetThisRound[v.Role] {
		return game.BetChips(callAmount)
	}
	return game.FoldResp()
}

func (p *RemotePlayer) Replace(ctx context.Context, maxReplace int) []int {
	v := p.view()
	me := v.Me()
	if me == nil {
		return nil
	}
	handSize := len(me.Hand)
	req := protocol.Request{Kind: protocol.RequestReplace, Hand: &v, MaxReplace: maxReplace}
	msg, ok := p.ask(ctx, req, func(m protocol.Message) error {
		r, ok := m.(*protocol.Replace)
		if !ok {
			return fmt.Errorf("%w: got %s for %s", ErrWrongAnswer, m.MessageType(), req.Kind)
		}
		return game.ValidReplace(r.Indices, maxReplace, handSize)
	})
	if !ok {
		return nil
	}
	return msg.(*protocol.Replace).Indices
}

// DealersChoice returns an invalid variant on timeout so the table plays its
// own game.
func (p *RemotePlayer) DealersChoice(ctx context.Context, variants, groups []string) game.DealersChoiceResp {
	req := protocol.Request{Kind: protocol.RequestDealersChoice, Variants: variants, SpecialGroups: groups}
	msg, ok := p.ask(ctx, req, func(m protocol.Message) error {
		dc, ok := m.(*protocol.DealersChoice)
		if !ok {
			return fmt.Errorf("%w: got %s for %s", ErrWrongAnswer, m.MessageType(), req.Kind)
		}
		if dc.Variant < 0 || dc.Variant >= len(variants) {
			return fmt.Errorf("variant %d out of range", dc.Variant)
		}
		for _, g := range dc.SpecialGroups {
			if !slices.Contains(groups, g) {
				return fmt.Errorf("unknown special cards %q", g)
			}
		}
		return nil
	})
	if !ok {
		return game.DealersChoiceResp{Variant: -1}
	}
	dc := msg.(*protocol.DealersChoice)
	return game.DealersChoiceResp{Variant: dc.Variant, SpecialGroups: dc.SpecialGroups}
}
