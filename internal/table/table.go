// Package table seats players and drives a sequence of hands between them:
// it assigns roles, keeps the chip counts between hands, lets the dealer
// choose the game and keeps a log of every hand addressable by offset.
package table

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/dealerschoice/internal/fanout"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/handlog"
	"github.com/lox/dealerschoice/internal/randutil"
	"github.com/lox/dealerschoice/poker"
)

var (
	ErrTableFull     = errors.New("table is full")
	ErrAlreadyJoined = errors.New("player already joined")
	ErrNotSeated     = errors.New("player is not seated")
)

// DefaultPause is how long finished hands stay on screen before the chips
// move and the next hand starts.
const DefaultPause = 2 * time.Second

// Seat numbers are handed out in join order and never reused.
type Seat int

// Config describes a table.
type Config struct {
	Name          string
	MaxPlayers    int
	StartingChips int
	// Variant is played every hand, or whenever the dealer's pick is invalid.
	Variant       string
	SpecialGroups []string
	DealersChoice bool
	Ante          AnteSchedule
	Pause         time.Duration
	Seed          int64
}

// DefaultConfig returns a heads-up-to-six Texas Hold 'Em table.
func DefaultConfig(name string) Config {
	return Config{
		Name:          name,
		MaxPlayers:    6,
		StartingChips: 1000,
		Variant:       game.TexasHoldEm,
		Ante:          AnteSchedule{Start: game.BlindsOf(1, 2)},
		Pause:         DefaultPause,
	}
}

// Validate reports the first problem with the config.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("table needs a name")
	}
	if c.MaxPlayers < 2 {
		return fmt.Errorf("table %s: max players must be at least 2, got %d", c.Name, c.MaxPlayers)
	}
	if c.StartingChips <= 0 {
		return fmt.Errorf("table %s: starting chips must be positive", c.Name)
	}
	v, ok := game.LookupVariant(c.Variant)
	if !ok {
		return fmt.Errorf("table %s: unknown variant %q", c.Name, c.Variant)
	}
	if !v.Fits(c.MaxPlayers) {
		return fmt.Errorf("table %s: one deck cannot deal %s to %d players", c.Name, c.Variant, c.MaxPlayers)
	}
	if _, unknown := poker.RulesFromGroups(c.SpecialGroups); len(unknown) > 0 {
		return fmt.Errorf("table %s: unknown special cards %v", c.Name, unknown)
	}
	if err := c.Ante.Validate(); err != nil {
		return fmt.Errorf("table %s: %w", c.Name, err)
	}
	return nil
}

// Archive stores finished hands.
type Archive interface {
	Append(rec handlog.Record) error
}

// Option customises a table.
type Option func(*Table)

func WithClock(clock quartz.Clock) Option {
	return func(t *Table) { t.clock = clock }
}

func WithLogger(logger *log.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

func WithArchive(a Archive) Option {
	return func(t *Table) { t.archive = a }
}

// WithRand replaces the shuffling source derived from Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(t *Table) { t.rng = rng }
}

type seated struct {
	id     string
	player game.Player
	chips  int
	seat   Seat
	left   bool
}

// SeatView is one seat in a table View.
type SeatView struct {
	Seat  Seat   `msgpack:"seat"`
	ID    string `msgpack:"id"`
	Chips int    `msgpack:"chips"`
}

// View is the table as anyone may see it.
type View struct {
	Name          string          `msgpack:"name"`
	Running       bool            `msgpack:"running"`
	MaxPlayers    int             `msgpack:"max_players"`
	Seats         []SeatView      `msgpack:"seats"`
	Roster        []string        `msgpack:"roster"`
	Hand          int             `msgpack:"hand"`
	InHand        bool            `msgpack:"in_hand"`
	Variant       string          `msgpack:"variant"`
	SpecialGroups []string        `msgpack:"special_groups"`
	Rules         game.TableRules `msgpack:"rules"`
}

// Table is safe for concurrent use. One goroutine should call Run.
type Table struct {
	cfg     Config
	variant game.Variant
	logger  *log.Logger
	clock   quartz.Clock
	rng     *rand.Rand
	archive Archive

	running *fanout.Sender[bool, bool]
	views   *fanout.Sender[View, View]
	logFeed *fanout.Sender[int, int]

	mu         sync.Mutex
	isRunning  bool
	players    map[string]*seated
	nextSeat   Seat
	lastDealer Seat
	hasDealer  bool
	logs       []HandLog
	logEnd     int
	hand       *game.Hand
	started    time.Time
	lastRules  game.TableRules
}

func replace[T any](v *T, e T) { *v = e }

// New creates a stopped table.
func New(cfg Config, opts ...Option) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	variant, _ := game.LookupVariant(cfg.Variant)
	t := &Table{
		cfg:     cfg,
		variant: variant,
		clock:   quartz.NewReal(),
		logger:  log.Default(),
		players: make(map[string]*seated),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = randutil.New(randutil.SeedOrNow(cfg.Seed))
	}
	t.logger = t.logger.WithPrefix("table").With("table", cfg.Name)
	t.running = fanout.New(func() bool { return false }, replace[bool])
	t.views = fanout.New(func() View { return t.viewLocked() }, replace[View])
	t.logFeed = fanout.New(func() int { return 0 }, func(v *int, end int) { *v = max(*v, end) })
	return t, nil
}

func (t *Table) Name() string { return t.cfg.Name }

func (t *Table) Config() Config { return t.cfg }

// Join seats a player with the table's starting chips. A player who left
// during a hand may rejoin before it ends and keeps their seat.
func (t *Table) Join(id string, player game.Player) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.players[id]; ok {
		if !p.left {
			return ErrAlreadyJoined
		}
		p.left = false
		p.player = player
		t.publishLocked()
		return nil
	}
	if len(t.players) >= t.cfg.MaxPlayers {
		return ErrTableFull
	}
	t.players[id] = &seated{id: id, player: player, chips: t.cfg.StartingChips, seat: t.nextSeat}
	t.nextSeat++
	t.logger.Info("player joined", "player", id, "players", len(t.players))
	t.publishLocked()
	return nil
}

// Leave gives up a player's seat. A player in the current hand keeps
// playing it out and is removed when it ends.
func (t *Table) Leave(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.players[id]
	if !ok || p.left {
		return ErrNotSeated
	}
	if t.inHandLocked(id) {
		p.left = true
	} else {
		delete(t.players, id)
	}
	t.logger.Info("player left", "player", id)
	t.publishLocked()
	return nil
}

func (t *Table) inHandLocked(id string) bool {
	return t.hand != nil && slices.Contains(t.logs[len(t.logs)-1].Roster, id)
}

// Start lets Run deal hands. Stop pauses it after the current hand.
func (t *Table) Start() { t.setRunning(true) }

func (t *Table) Stop() { t.setRunning(false) }

func (t *Table) setRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isRunning = running
	t.running.Send(running)
	t.publishLocked()
}

// Chips returns a seated player's stack.
func (t *Table) Chips(id string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.players[id]
	if !ok {
		return 0, false
	}
	return p.chips, true
}

// View returns the current table view.
func (t *Table) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

// Views subscribes to table view changes.
func (t *Table) Views() *fanout.Receiver[View] {
	return t.views.Subscribe()
}

// LogFeed subscribes to the end offset of the log; wake on it and call
// LogSince to catch up.
func (t *Table) LogFeed() *fanout.Receiver[int] {
	return t.logFeed.Subscribe()
}

// HandView returns the current hand as id sees it; ok is false between
// hands. Anyone not dealt in gets the spectator view.
func (t *Table) HandView(id string) (v game.View, ok bool) {
	t.mu.Lock()
	h := t.hand
	role := game.NoRole
	if h != nil {
		role = t.logs[len(t.logs)-1].role(id)
	}
	t.mu.Unlock()
	if h == nil {
		return game.View{}, false
	}
	return h.View(role), true
}

func (t *Table) viewLocked() View {
	v := View{
		Name:          t.cfg.Name,
		Running:       t.isRunning,
		MaxPlayers:    t.cfg.MaxPlayers,
		InHand:        t.hand != nil,
		Variant:       t.variant.Name,
		SpecialGroups: t.cfg.SpecialGroups,
		Rules:         t.lastRules,
	}
	for _, p := range t.seatOrderLocked() {
		v.Seats = append(v.Seats, SeatView{Seat: p.seat, ID: p.id, Chips: p.chips})
	}
	if n := len(t.logs); n > 0 {
		last := t.logs[n-1]
		v.Hand = last.Number
		v.Roster = slices.Clone(last.Roster)
		v.Variant = last.Variant
		v.SpecialGroups = last.SpecialGroups
	}
	return v
}

func (t *Table) publishLocked() {
	t.views.Send(t.viewLocked())
}

func (t *Table) seatOrderLocked() []*seated {
	order := make([]*seated, 0, len(t.players))
	for _, p := range t.players {
		order = append(order, p)
	}
	slices.SortFunc(order, func(a, b *seated) int { return int(a.seat - b.seat) })
	return order
}

// nextRolesLocked lists the players of the next hand by role. The dealer is
// the first seat after the last dealer; players without chips sit out.
func (t *Table) nextRolesLocked() []*seated {
	order := t.seatOrderLocked()
	order = slices.DeleteFunc(order, func(p *seated) bool { return p.left })
	if len(order) == 0 {
		return nil
	}
	start := 0
	if t.hasDealer {
		i := slices.IndexFunc(order, func(p *seated) bool { return p.seat > t.lastDealer })
		if i >= 0 {
			start = i
		}
	}
	var roles []*seated
	for i := range order {
		if p := order[(start+i)%len(order)]; p.chips > 0 {
			roles = append(roles, p)
		}
	}
	return roles
}

// Contenders counts players still able to play a hand.
func (t *Table) Contenders() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.contendersLocked()
}

func (t *Table) contendersLocked() int {
	n := 0
	for _, p := range t.players {
		if !p.left && p.chips > 0 {
			n++
		}
	}
	return n
}
