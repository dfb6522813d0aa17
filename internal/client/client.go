// Package client connects to a dealerschoice server over a websocket and
// plays a seat with a bot strategy.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/dealerschoice/internal/protocol"
)

var ErrClosed = errors.New("client closed")

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// Handler is called for each message of the type it was registered for.
type Handler func(protocol.Message)

// Client is one websocket connection to a table. Messages queue up until Run
// hands them to the handlers, one at a time in the order they arrived.
type Client struct {
	conn      *websocket.Conn
	welcome   protocol.Welcome
	send      chan []byte
	receive   chan protocol.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.RWMutex
	handlers map[protocol.Type][]Handler
}

// wsURL turns a server address into its websocket endpoint.
func wsURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Dial connects, says hello and waits for the welcome. A refusal comes back
// as a *protocol.Error.
func Dial(ctx context.Context, serverURL string, hello protocol.Hello, logger *log.Logger) (*Client, error) {
	endpoint, err := wsURL(serverURL)
	if err != nil {
		return nil, err
	}
	logger = logger.WithPrefix("client")
	logger.Debug("Connecting to server", "url", endpoint)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	welcome, err := handshake(conn, hello)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:     conn,
		welcome:  *welcome,
		send:     make(chan []byte, 256),
		receive:  make(chan protocol.Message, 256),
		logger:   logger.With("player", welcome.Player, "table", welcome.Table),
		ctx:      cctx,
		cancel:   cancel,
		handlers: make(map[protocol.Type][]Handler),
	}
	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return c, nil
}

func handshake(conn *websocket.Conn, hello protocol.Hello) (*protocol.Welcome, error) {
	data, err := protocol.Marshal(&hello)
	if err != nil {
		return nil, err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}
	_, data, err = conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("waiting for welcome: %w", err)
	}
	msg, err := protocol.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *protocol.Welcome:
		return m, nil
	case *protocol.Error:
		return nil, m
	}
	return nil, fmt.Errorf("expected welcome, got %s", msg.MessageType())
}

// Welcome is the server's answer to the hello.
func (c *Client) Welcome() protocol.Welcome {
	return c.welcome
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// On registers h for messages of type t.
func (c *Client) On(t protocol.Type, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t] = append(c.handlers[t], h)
}

// Send queues msg for the server.
func (c *Client) Send(msg protocol.Message) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	default:
		return errors.New("send buffer full")
	}
}

// Close disconnects. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
		c.logger.Info("Disconnected from server")
	})
	return err
}

func (c *Client) readPump() {
	defer func() {
		_ = c.Close()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		msg, err := protocol.Unmarshal(data)
		if err != nil {
			c.logger.Warn("Dropping bad message", "error", err)
			continue
		}
		c.logger.Debug("Received message", "type", msg.MessageType())
		select {
		case c.receive <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Run dispatches messages until ctx is done or the connection closes.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case msg := <-c.receive:
			c.dispatch(msg)
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return ErrClosed
		}
	}
}

func (c *Client) dispatch(msg protocol.Message) {
	c.mu.RLock()
	handlers := c.handlers[msg.MessageType()]
	c.mu.RUnlock()
	if len(handlers) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.MessageType())
	}
	for _, h := range handlers {
		h(msg)
	}
}
