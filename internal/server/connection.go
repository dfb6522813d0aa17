package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/dealerschoice/internal/protocol"
	"github.com/lox/dealerschoice/internal/table"
)

var ErrConnectionClosed = errors.New("connection closed")

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Time a new connection has to say hello
	helloWait = 10 * time.Second
)

// Connection is one websocket client. Frames are protocol envelopes.
type Connection struct {
	conn      *websocket.Conn
	send      chan []byte
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// wake asks the update loop to send whatever changed.
	wake chan struct{}

	mu     sync.Mutex
	offset int
}

func newConnection(conn *websocket.Conn, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan []byte, 256),
		logger: logger.WithPrefix("conn").With("remote", conn.RemoteAddr()),
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection. It is safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Send queues msg for the write pump. A client that cannot keep up is
// disconnected.
func (c *Connection) Send(msg protocol.Message) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) sendError(code, message string) {
	_ = c.Send(&protocol.Error{Code: code, Message: message})
}

// poke wakes the update loop without blocking.
func (c *Connection) poke() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// resync moves the log offset the next update starts from.
func (c *Connection) resync(offset int) {
	c.mu.Lock()
	c.offset = offset
	c.mu.Unlock()
	c.poke()
}

// nextLog reads the log from the connection's offset on and moves the offset
// past what was read.
func (c *Connection) nextLog(read func(offset int) ([]table.LogUpdate, int)) ([]table.LogUpdate, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, next := read(c.offset)
	c.offset = next
	return entries, next
}

// writeNow writes msg straight to the socket. Only the handshake uses it,
// before the write pump starts.
func (c *Connection) writeNow(msg protocol.Message) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// readHello waits for the first frame, which must be a hello.
func (c *Connection) readHello() (*protocol.Hello, error) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(helloWait))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	msg, err := protocol.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	hello, ok := msg.(*protocol.Hello)
	if !ok {
		return nil, errors.New("expected hello, got " + string(msg.MessageType()))
	}
	return hello, nil
}

// readPump hands every decoded frame to handle until the peer goes away.
func (c *Connection) readPump(handle func(protocol.Message)) {
	defer func() {
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		msg, err := protocol.Unmarshal(data)
		if err != nil {
			c.logger.Warn("Bad message", "error", err)
			c.sendError(protocol.CodeBadMessage, err.Error())
			continue
		}
		c.logger.Debug("Received message", "type", msg.MessageType())
		handle(msg)
	}
}

// writePump sends queued frames and keeps the connection alive with pings.
func (c *Connection) writePump() {
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
				c.logger.Debug("Failed to write message", "error", err)
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
