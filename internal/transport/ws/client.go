package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"neondraw/internal/app"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	// Strokes arrive at pointer-move rate, everything else is human paced
	drawRate     = 120
	drawBurst    = 240
	messageRate  = 5
	messageBurst = 10
)

// Client represents a WebSocket client connection
type Client struct {
	conn     *websocket.Conn
	hub      *app.GameHub
	session  *app.GameSession
	playerID string
	send     chan []byte
	done     chan struct{}
	logger   zerolog.Logger
	validate *validator.Validate
	mu       sync.Mutex
	closed   bool

	drawLimiter    *rate.Limiter
	messageLimiter *rate.Limiter
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, hub *app.GameHub, session *app.GameSession, playerID string, validate *validator.Validate, logger zerolog.Logger) *Client {
	return &Client{
		conn:           conn,
		hub:            hub,
		session:        session,
		playerID:       playerID,
		send:           make(chan []byte, sendBufferSize),
		done:           make(chan struct{}),
		logger:         logger.With().Str("playerID", playerID).Logger(),
		validate:       validate,
		drawLimiter:    rate.NewLimiter(drawRate, drawBurst),
		messageLimiter: rate.NewLimiter(messageRate, messageBurst),
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection interface
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn().Msg("send buffer full, message dropped")
		return nil
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection. Losing the socket
// means leaving the room, unless a newer socket has taken over the seat.
func (c *Client) readPump() {
	defer func() {
		if c.session.UnregisterClient(c.playerID, c) {
			c.hub.LeaveRoom(c.session.GetRoomCode(), c.playerID)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}

		if !c.handleMessage(message) {
			return
		}
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message and reports whether the
// connection should stay open
func (c *Client) handleMessage(data []byte) bool {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return true
	}

	if msg.Type == MsgDraw {
		if !c.drawLimiter.Allow() {
			return true
		}
	} else if !c.messageLimiter.Allow() {
		c.sendError(ErrCodeRateLimited, "Slow down")
		return true
	}

	switch msg.Type {
	case MsgStartGame:
		c.reportError(c.session.StartGame(c.playerID))
	case MsgDraw:
		c.handleDraw(msg.Payload)
	case MsgClearCanvas:
		c.reportError(c.session.ClearCanvas(c.playerID))
	case MsgChat:
		c.handleChat(msg.Payload)
	case MsgGetRoom:
		c.Send(NewServerMessage(MsgRoomState, c.session.Snapshot()))
	case MsgLeave:
		c.hub.LeaveRoom(c.session.GetRoomCode(), c.playerID)
		return false
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
	return true
}

// handleDraw handles a draw message
func (c *Client) handleDraw(raw json.RawMessage) {
	var payload DrawPayload
	if !c.decode(raw, &payload) {
		return
	}
	c.reportError(c.session.SubmitDraw(c.playerID, payload.Stroke))
}

// handleChat handles a chat message
func (c *Client) handleChat(raw json.RawMessage) {
	var payload ChatPayload
	if !c.decode(raw, &payload) {
		return
	}
	_, err := c.session.SubmitChat(c.playerID, payload.Message)
	c.reportError(err)
}

// decode unmarshals and validates a message payload
func (c *Client) decode(raw json.RawMessage, dst interface{}) bool {
	if len(raw) == 0 {
		c.sendError(ErrCodeInvalidMessage, "Payload is required")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	if err := c.validate.Struct(dst); err != nil {
		c.logger.Debug().Err(err).Msg("payload rejected")
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

// reportError sends a domain error back to the client
func (c *Client) reportError(err error) {
	if err == nil {
		return
	}
	code, message := errorInfo(err)
	if code == ErrCodeInternalError {
		c.logger.Error().Err(err).Msg("unexpected session error")
	}
	c.sendError(code, message)
}

// sendConnected brings the client up to date with the room
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		PlayerID: c.playerID,
		RoomCode: c.session.GetRoomCode(),
		Room:     c.session.Snapshot(),
		Canvas:   c.session.Canvas(),
	}
	if word, ok := c.session.SecretWord(c.playerID); ok {
		payload.SecretWord = word
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
