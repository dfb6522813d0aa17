package client

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/dealerschoice/internal/bot"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/protocol"
	"github.com/lox/dealerschoice/internal/server"
	"github.com/lox/dealerschoice/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestWSURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, expected string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://poker.example.com", "wss://poker.example.com/ws"},
		{"ws://10.0.0.1:9000/", "ws://10.0.0.1:9000/ws"},
	}
	for _, tt := range tests {
		got, err := wsURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
	_, err := wsURL("://nope")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bot.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  url             = "http://poker:9000"
  reconnect_delay = "250ms"
}
player {
  name  = "ann"
  table = "stud"
}
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://poker:9000", cfg.Server.URL)
	assert.Equal(t, 3, cfg.Server.ReconnectAttempts)
	d, err := cfg.reconnectDelay()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
	assert.Equal(t, "ann", cfg.Player.Name)
	assert.Equal(t, "stud", cfg.Player.Table)
	assert.Equal(t, "medium", cfg.Player.Strategy)

	missing, err := LoadConfig(filepath.Join(t.TempDir(), "none.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), missing)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no url", func(c *Config) { c.Server.URL = "" }},
		{"negative attempts", func(c *Config) { c.Server.ReconnectAttempts = -1 }},
		{"bad delay", func(c *Config) { c.Server.ReconnectDelay = "later" }},
		{"unknown strategy", func(c *Config) { c.Player.Strategy = "shark" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func handView(hand string) *game.View {
	var cards []game.CardView
	for _, c := range poker.MustParseCards(hand) {
		cards = append(cards, game.CardView{Visible: true, Card: c, Facing: game.FaceDown})
	}
	return &game.View{
		Role:         0,
		BetThisRound: []int{0, 4},
		MinBet:       2,
		UseFromHand:  5,
		Variant:      game.FiveCardDraw,
		Players: []game.PlayerView{
			{Chips: 100, TotalBet: 0, Hand: cards},
			{Chips: 100, TotalBet: 0, Hand: make([]game.CardView, len(cards))},
		},
	}
}

func TestAgentAnswer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := &Agent{player: bot.New(bot.AlwaysCall{}, bot.WithLogger(quietLogger())), logger: quietLogger()}
	hand := handView("Ad Ac As 2h 3d")

	bet := a.Answer(ctx, &protocol.Request{ID: 1, Kind: protocol.RequestBet, Hand: hand, CallAmount: 4, MinBet: 8})
	assert.Equal(t, &protocol.Bet{Request: 1, Amount: 4}, bet)

	replace := a.Answer(ctx, &protocol.Request{ID: 2, Kind: protocol.RequestReplace, Hand: hand, MaxReplace: 2,
		Deadline: time.Now().Add(time.Minute)})
	assert.Equal(t, &protocol.Replace{Request: 2, Indices: []int{3, 4}}, replace)

	variants := game.VariantNames()
	msg := a.Answer(ctx, &protocol.Request{ID: 3, Kind: protocol.RequestDealersChoice, Variants: variants})
	dc, ok := msg.(*protocol.DealersChoice)
	require.True(t, ok)
	assert.Equal(t, uint64(3), dc.Request)
	assert.GreaterOrEqual(t, dc.Variant, 0)
	assert.Less(t, dc.Variant, len(variants))

	assert.Nil(t, a.Answer(ctx, &protocol.Request{ID: 4, Kind: "shrug"}))
}

func startServer(t *testing.T, src string) (*server.Server, string) {
	t.Helper()
	cfg, err := server.ParseConfig([]byte(src), "test.hcl")
	require.NoError(t, err)
	s, err := server.New(cfg, server.WithLogger(quietLogger()))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunTables(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return s, ts.URL
}

func TestPlay(t *testing.T) {
	t.Parallel()
	s, url := startServer(t, `
server {
  hand_pause       = "0s"
  decision_timeout = "5s"
}
table "main" {}
bot "house" {
  table    = "main"
  strategy = "always_call"
}
`)
	cfg := DefaultConfig()
	cfg.Server.URL = url
	cfg.Player.Name = "ann"
	cfg.Player.Strategy = "easy"

	updates := make(chan struct{}, 1)
	watch := func(protocol.Message) {
		select {
		case updates <- struct{}{}:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Play(ctx, cfg, quartz.NewReal(), quietLogger(), watch) }()

	tbl, _ := s.Table("main")
	require.Eventually(t, func() bool { return tbl.View().Hand >= 2 }, 30*time.Second, 10*time.Millisecond)
	<-updates
	_, seated := tbl.Chips("ann")
	assert.True(t, seated)

	cancel()
	require.NoError(t, <-done)
}

func TestPlayRefused(t *testing.T) {
	t.Parallel()
	_, url := startServer(t, `table "main" {}`)
	cfg := DefaultConfig()
	cfg.Server.URL = url
	cfg.Player.Table = "side"

	err := Play(context.Background(), cfg, quartz.NewReal(), quietLogger(), nil)
	var refused *protocol.Error
	require.ErrorAs(t, err, &refused)
	assert.Equal(t, protocol.CodeUnknownTable, refused.Code)
}

func TestPlayGivesUpAfterRetries(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	cfg := DefaultConfig()
	cfg.Server.URL = url
	cfg.Server.ReconnectAttempts = 2

	ctx := context.Background()
	mock := quartz.NewMock(t)
	trap := mock.Trap().NewTimer("client", "reconnect")
	defer trap.Close()

	done := make(chan error, 1)
	go func() { done <- Play(ctx, cfg, mock, quietLogger(), nil) }()

	for range cfg.Server.ReconnectAttempts {
		call := trap.MustWait(ctx)
		assert.Equal(t, 5*time.Second, call.Duration)
		call.MustRelease(ctx)
		mock.Advance(call.Duration).MustWait(ctx)
	}
	assert.Error(t, <-done)
}
