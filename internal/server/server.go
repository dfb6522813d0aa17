// Package server hosts tables over websockets. Remote players connect to /ws,
// say hello to a table and then answer the requests the table makes of them;
// bots from the config play alongside.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lox/dealerschoice/internal/bot"
	"github.com/lox/dealerschoice/internal/fanout"
	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/lox/dealerschoice/internal/protocol"
	"github.com/lox/dealerschoice/internal/randutil"
	"github.com/lox/dealerschoice/internal/table"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrBadToken     = errors.New("unknown reconnect token")
)

const shutdownTimeout = 5 * time.Second

// Option customises a Server.
type Option func(*Server)

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithClock sets the clock for tables and decision timeouts.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

type remoteSeat struct {
	player *RemotePlayer
	table  *table.Table
}

// Server owns the configured tables and the connections to them.
type Server struct {
	cfg             *Config
	logger          *log.Logger
	clock           quartz.Clock
	decisionTimeout time.Duration
	upgrader        websocket.Upgrader

	order    []*table.Table
	tables   map[string]*table.Table
	archives []*handlog.Writer

	mu          sync.Mutex
	players     map[string]remoteSeat
	connections map[*Connection]bool

	closeOnce sync.Once
}

// New builds every table in cfg and seats its bots.
func New(cfg *Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		logger: log.Default(),
		clock:  quartz.NewReal(),
		upgrader: websocket.Upgrader{
			// Bots connect from anywhere.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		tables:      make(map[string]*table.Table),
		players:     make(map[string]remoteSeat),
		connections: make(map[*Connection]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("server")
	s.decisionTimeout, _ = cfg.decisionTimeout()

	if err := s.buildTables(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) buildTables() error {
	seed := s.cfg.Server.Seed
	for i, tcfg := range s.cfg.Tables {
		tc, err := s.cfg.tableConfig(tcfg)
		if err != nil {
			return err
		}
		opts := []table.Option{table.WithLogger(s.logger), table.WithClock(s.clock)}
		if seed != 0 {
			opts = append(opts, table.WithRand(randutil.Fork(seed, i)))
		}
		if dir := s.cfg.Server.ArchiveDir; dir != "" {
			w, err := handlog.Create(dir, tc.Name)
			if err != nil {
				return err
			}
			s.archives = append(s.archives, w)
			opts = append(opts, table.WithArchive(w))
		}
		t, err := table.New(tc, opts...)
		if err != nil {
			return err
		}
		s.order = append(s.order, t)
		s.tables[t.Name()] = t
	}

	n := len(s.order)
	for _, b := range s.cfg.Bots {
		strategy, err := bot.Lookup(b.Strategy)
		if err != nil {
			return err
		}
		t := s.tables[b.Table]
		for _, id := range b.botIDs() {
			botOpts := []bot.Option{bot.WithLogger(s.logger)}
			if seed != 0 {
				botOpts = append(botOpts, bot.WithRand(randutil.Fork(seed, n)))
			}
			n++
			p := bot.New(strategy, botOpts...)
			if err := t.Join(id, p); err != nil {
				return fmt.Errorf("bot %s: %w", id, err)
			}
		}
	}

	for i, t := range s.order {
		if *s.cfg.Tables[i].AutoStart {
			t.Start()
		}
	}
	return nil
}

// Table looks up a table by name.
func (s *Server) Table(name string) (*table.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Tables lists the tables in config order.
func (s *Server) Tables() []*table.Table {
	return s.order
}

// Handler serves the websocket endpoint and a health check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run listens on the configured address and plays every table until ctx is
// done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting WebSocket server", "addr", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.closeConnections()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return s.RunTables(ctx)
	})

	err := g.Wait()
	return errors.Join(err, s.Close())
}

// RunTables plays every table until ctx is done.
func (s *Server) RunTables(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.order {
		g.Go(func() error { return s.runTable(ctx, t) })
	}
	return g.Wait()
}

// runTable plays games back to back, waiting for a second player with chips
// whenever one is decided.
func (s *Server) runTable(ctx context.Context, t *table.Table) error {
	views := t.Views()
	for {
		for {
			views.Borrow(func(*table.View) {})
			if t.Contenders() >= 2 {
				break
			}
			if err := views.Wait(ctx); err != nil {
				return nil
			}
		}
		if err := t.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("table %s: %w", t.Name(), err)
		}
	}
}

// Close flushes the hand archives.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, w := range s.archives {
			err = errors.Join(err, w.Close())
		}
	})
	return err
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	conn := newConnection(ws, s.logger)
	defer func() {
		_ = conn.Close()
	}()

	hello, err := conn.readHello()
	if err != nil {
		s.logger.Warn("Bad hello", "error", err)
		_ = conn.writeNow(&protocol.Error{Code: protocol.CodeBadMessage, Message: err.Error()})
		return
	}
	t, ok := s.tables[hello.Table]
	if !ok {
		_ = conn.writeNow(&protocol.Error{
			Code:    protocol.CodeUnknownTable,
			Message: fmt.Sprintf("%v %q", ErrUnknownTable, hello.Table),
		})
		return
	}
	p, err := s.seat(t, hello)
	if err != nil {
		s.logger.Info("Refused player", "table", t.Name(), "name", hello.Name, "error", err)
		_ = conn.writeNow(&protocol.Error{Code: refusalCode(err), Message: err.Error()})
		return
	}

	welcome := &protocol.Welcome{Table: t.Name(), Offset: t.LogEnd()}
	if p != nil {
		welcome.Player, welcome.Token = p.ID(), p.Token()
	}
	if err := conn.writeNow(welcome); err != nil {
		return
	}
	conn.resync(welcome.Offset)
	conn.logger = conn.logger.With("table", t.Name(), "player", welcome.Player)
	conn.logger.Info("Client connected")

	s.mu.Lock()
	s.connections[conn] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.connections, conn)
		s.mu.Unlock()
		conn.logger.Info("Client disconnected")
	}()

	go conn.writePump()
	if p != nil {
		if prev, ok := p.attach(conn).(*Connection); ok && prev != conn {
			_ = prev.Close()
		}
		defer p.detach(conn)
	}
	go s.watch(conn, t, p)
	conn.readPump(func(msg protocol.Message) { s.handle(conn, p, msg) })
}

// seat finds or creates the player a hello asks for. Spectators get nil.
func (s *Server) seat(t *table.Table, hello *protocol.Hello) (*RemotePlayer, error) {
	if hello.Spectate {
		return nil, nil
	}
	if hello.Token != "" {
		s.mu.Lock()
		rs, ok := s.players[hello.Token]
		s.mu.Unlock()
		if !ok || rs.table != t {
			return nil, ErrBadToken
		}
		return rs.player, nil
	}

	id := hello.Name
	if id == "" {
		id = "player-" + uuid.NewString()[:8]
	}
	p := NewRemotePlayer(id, s.clock, s.decisionTimeout, s.logger)
	if err := t.Join(id, p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.players[p.Token()] = remoteSeat{player: p, table: t}
	s.mu.Unlock()
	return p, nil
}

func refusalCode(err error) string {
	switch {
	case errors.Is(err, ErrBadToken):
		return protocol.CodeBadToken
	case errors.Is(err, table.ErrTableFull):
		return protocol.CodeTableFull
	case errors.Is(err, table.ErrAlreadyJoined):
		return protocol.CodeNameTaken
	}
	return protocol.CodeBadMessage
}

func (s *Server) handle(conn *Connection, p *RemotePlayer, msg protocol.Message) {
	var id uint64
	switch m := msg.(type) {
	case *protocol.Resync:
		conn.resync(m.Offset)
		return
	case *protocol.Bet:
		id = m.Request
	case *protocol.Replace:
		id = m.Request
	case *protocol.DealersChoice:
		id = m.Request
	default:
		conn.sendError(protocol.CodeBadMessage, "unexpected "+string(msg.MessageType()))
		return
	}
	if p == nil {
		conn.sendError(protocol.CodeBadMessage, "spectators cannot act")
		return
	}
	if err := p.answer(id, msg); err != nil {
		conn.sendError(protocol.CodeStaleRequest, err.Error())
	}
}

// watch sends an update whenever the table, its log or the player's hand
// changes. Changes that land while an update is going out are merged into
// the next one.
func (s *Server) watch(conn *Connection, t *table.Table, p *RemotePlayer) {
	ctx := conn.ctx
	go notify(ctx, t.Views(), conn)
	go notify(ctx, t.LogFeed(), conn)
	viewer := ""
	if p != nil {
		viewer = p.ID()
		go notify(ctx, p.Views(), conn)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.wake:
		}
		tv := t.View()
		u := &protocol.Update{Table: &tv}
		if hv, ok := t.HandView(viewer); ok {
			u.Hand = &hv
		}
		u.Log, u.Next = conn.nextLog(func(offset int) ([]table.LogUpdate, int) {
			return t.LogSince(viewer, offset)
		})
		if err := conn.Send(u); err != nil {
			return
		}
	}
}

// notify pokes conn each time r's sender publishes.
func notify[T any](ctx context.Context, r *fanout.Receiver[T], conn *Connection) {
	for r.Wait(ctx) == nil {
		r.Borrow(func(*T) {})
		conn.poke()
	}
}
