package client

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/dealerschoice/internal/bot"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/protocol"
)

// Agent answers a connection's requests with a bot player.
type Agent struct {
	client *Client
	player *bot.Player
	logger *log.Logger
	ctx    context.Context
}

// NewAgent registers the agent's handlers on c.
func NewAgent(c *Client, p *bot.Player, logger *log.Logger) *Agent {
	a := &Agent{
		client: c,
		player: p,
		logger: logger.WithPrefix("agent").With("strategy", p.Strategy().Name()),
		ctx:    context.Background(),
	}
	c.On(protocol.TypeUpdate, a.handleUpdate)
	c.On(protocol.TypeRequest, a.handleRequest)
	c.On(protocol.TypeError, a.handleError)
	return a
}

// Run plays until ctx is done or the connection drops.
func (a *Agent) Run(ctx context.Context) error {
	a.ctx = ctx
	return a.client.Run(ctx)
}

func (a *Agent) handleUpdate(msg protocol.Message) {
	u := msg.(*protocol.Update)
	if u.Hand != nil {
		a.player.Update(game.ViewUpdate{View: *u.Hand})
	}
}

func (a *Agent) handleRequest(msg protocol.Message) {
	req := msg.(*protocol.Request)
	answer := a.Answer(a.ctx, req)
	if answer == nil {
		a.logger.Warn("Ignoring request", "kind", req.Kind)
		return
	}
	if err := a.client.Send(answer); err != nil {
		a.logger.Error("Failed to send answer", "request", req.ID, "error", err)
	}
}

func (a *Agent) handleError(msg protocol.Message) {
	e := msg.(*protocol.Error)
	a.logger.Warn("Server error", "code", e.Code, "message", e.Message)
}

// Answer decides a request. It returns nil for requests it does not know.
func (a *Agent) Answer(ctx context.Context, req *protocol.Request) protocol.Message {
	if req.Hand != nil {
		a.player.Update(game.ViewUpdate{View: *req.Hand})
	}
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	switch req.Kind {
	case protocol.RequestBet:
		resp := a.player.Bet(ctx, req.CallAmount, req.MinBet)
		return &protocol.Bet{Request: req.ID, Fold: resp.Fold, Amount: resp.Amount}
	case protocol.RequestReplace:
		return &protocol.Replace{Request: req.ID, Indices: a.player.Replace(ctx, req.MaxReplace)}
	case protocol.RequestDealersChoice:
		resp := a.player.DealersChoice(ctx, req.Variants, req.SpecialGroups)
		return &protocol.DealersChoice{Request: req.ID, Variant: resp.Variant, SpecialGroups: resp.SpecialGroups}
	}
	return nil
}

// Play seats a bot as cfg describes and plays until ctx is done. Dropped
// connections are retried with the seat's token; the server refusing us is
// final. watch, if set, sees every update.
func Play(ctx context.Context, cfg *Config, clock quartz.Clock, logger *log.Logger, watch Handler) error {
	strategy, err := bot.Lookup(cfg.Player.Strategy)
	if err != nil {
		return err
	}
	delay, err := cfg.reconnectDelay()
	if err != nil {
		return err
	}
	player := bot.New(strategy, bot.WithLogger(logger))
	hello := protocol.Hello{Table: cfg.Player.Table, Name: cfg.Player.Name}

	failures := 0
	for {
		c, err := Dial(ctx, cfg.Server.URL, hello, logger)
		if err != nil {
			var refused *protocol.Error
			if errors.As(err, &refused) || ctx.Err() != nil {
				return err
			}
			failures++
			if failures > cfg.Server.ReconnectAttempts {
				return err
			}
			logger.Warn("Connection failed, retrying", "error", err, "attempt", failures, "delay", delay)
			if err := sleep(ctx, clock, delay); err != nil {
				return nil
			}
			continue
		}
		failures = 0
		hello.Token = c.Welcome().Token

		agent := NewAgent(c, player, logger)
		if watch != nil {
			c.On(protocol.TypeUpdate, watch)
		}
		err = agent.Run(ctx)
		_ = c.Close()
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("Connection lost, reconnecting", "error", err, "delay", delay)
		if err := sleep(ctx, clock, delay); err != nil {
			return nil
		}
	}
}

func sleep(ctx context.Context, clock quartz.Clock, d time.Duration) error {
	timer := clock.NewTimer(d, "client", "reconnect")
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
