package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"arzweb/internal/app/cooldown"
	"arzweb/internal/pkg/errs"
	"arzweb/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 512

	// maxWatched caps the actions one connection may follow.
	maxWatched = 8

	// CloseCodeSessionEnded tells the page its session was signed out elsewhere.
	CloseCodeSessionEnded = 4001
)

// Resolver maps an action name to the session's limiter for it.
type Resolver func(action string) (*cooldown.Limiter, bool)

// Client is one live connection of a session.
type Client struct {
	hub       *Hub
	sessionID string
	conn      *websocket.Conn
	resolve   Resolver

	// send queues encoded frames for WritePump.
	send chan []byte

	mu       sync.Mutex
	watching map[string]func()

	done      chan struct{}
	closeOnce sync.Once
	closeCode int
	closeText string

	logger zerolog.Logger
}

// NewClient constructs a Client. Call Watch for the initial actions, then run the pumps.
func NewClient(hub *Hub, sessionID string, conn *websocket.Conn, resolve Resolver) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		conn:      conn,
		resolve:   resolve,
		send:      make(chan []byte, 16),
		watching:  make(map[string]func()),
		done:      make(chan struct{}),
		closeCode: websocket.CloseNormalClosure,
		logger:    logx.Component("LiveClient").With().Str("session_id", sessionID).Logger(),
	}
}

// Watch starts streaming the countdown of action. The current value is sent immediately.
func (c *Client) Watch(action string) *errs.CustomError {
	limiter, ok := c.resolve(action)
	if !ok {
		return errs.NewError(errs.ErrInvalidParams)
	}

	c.mu.Lock()
	if _, exists := c.watching[action]; exists {
		c.mu.Unlock()
		return nil
	}
	if len(c.watching) >= maxWatched {
		c.mu.Unlock()
		return errs.NewError(errs.ErrInvalidParams)
	}
	ch, cancel := limiter.Subscribe()
	c.watching[action] = cancel
	c.mu.Unlock()

	c.enqueue(Message{Type: TypeCooldown, Action: action, Remaining: limiter.Remaining()})
	go c.forward(action, ch)
	return nil
}

func (c *Client) forward(action string, ch <-chan int) {
	for {
		select {
		case <-c.done:
			return
		case remaining, ok := <-ch:
			if !ok {
				return
			}
			c.enqueue(Message{Type: TypeCooldown, Action: action, Remaining: remaining})
		}
	}
}

// enqueue drops the frame when the connection is gone or the queue is full.
func (c *Client) enqueue(msg Message) {
	data, err := msg.encode()
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling live message")
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
	}
}

// ReadPump handles heartbeats and watch requests. It returns when the connection ends.
func (c *Client) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		c.processInboundMessage(data)
	}
}

func (c *Client) processInboundMessage(data []byte) {
	var in Message
	if err := json.Unmarshal(data, &in); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	switch in.Type {
	case TypeWatch:
		if err := c.Watch(in.Action); err != nil {
			c.enqueue(Message{Type: TypeError, Action: in.Action, Code: err.Code, Message: err.Message})
		}
	default:
		c.logger.Warn().Str("msg_type", string(in.Type)).Msg("Client sent unsupported message type")
	}
}

// WritePump writes queued frames and pings until the client closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case data := <-c.send:
			if !c.write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeText))
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing message")
		return false
	}
	return true
}

// Kick ends the connection with CloseCodeSessionEnded.
func (c *Client) Kick(reason string) {
	c.closeWith(CloseCodeSessionEnded, reason)
}

// Close ends the connection normally. It is safe to call more than once.
func (c *Client) Close() {
	c.closeWith(websocket.CloseNormalClosure, "")
}

func (c *Client) closeWith(code int, text string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeText = text
		close(c.done)

		c.mu.Lock()
		for action, cancel := range c.watching {
			cancel()
			delete(c.watching, action)
		}
		c.mu.Unlock()

		if c.hub != nil {
			c.hub.unregister(c)
		}
	})
}
