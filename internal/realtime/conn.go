package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mufassa12/contrivance/internal/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 64 * 1024

	// Outbox capacity per connection
	sendQueueSize = 64
)

// State is the connection lifecycle state
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// Conn owns one client socket. It registers with the Registry before
// reading its first frame, forwards inbound protocol messages, and
// drains its subscriber outbox onto the socket. The inbound and
// outbound loops run concurrently; either one failing tears the
// connection down, and teardown always deregisters exactly once.
type Conn struct {
	userID        uuid.UUID
	spreadsheetID uuid.UUID

	ws       *websocket.Conn
	registry *Registry
	sub      *Subscriber

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

// NewConn constructs a connection handle in the Connecting state
func NewConn(userID, spreadsheetID uuid.UUID, ws *websocket.Conn, registry *Registry) *Conn {
	done := make(chan struct{})
	return &Conn{
		userID:        userID,
		spreadsheetID: spreadsheetID,
		ws:            ws,
		registry:      registry,
		sub:           NewSubscriber(userID, sendQueueSize, done),
		done:          done,
		log: log.With().
			Str("spreadsheet_id", spreadsheetID.String()).
			Str("user_id", userID.String()).
			Logger(),
	}
}

// State returns the current lifecycle state
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Run registers the connection, announces presence, and services the
// socket until it closes. Registration completes before the first read
// so no broadcast can slip past an unregistered handle. Run blocks
// until the connection is closed; cancelling ctx forces closure.
func (c *Conn) Run(ctx context.Context) {
	c.registry.Register(c.spreadsheetID, c.sub)
	c.state.Store(int32(StateOpen))
	c.log.Info().Msg("websocket connection established")

	c.registry.Broadcast(c.spreadsheetID, UserJoined(c.userID, c.spreadsheetID))

	go c.writePump()
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				c.Close()
			case <-c.done:
			}
		}()
	}

	c.readPump()
}

// Close tears the connection down. Idempotent; safe from any
// goroutine. Deregistration is guaranteed exactly once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		c.registry.Deregister(c.spreadsheetID, c.sub)
		c.registry.Broadcast(c.spreadsheetID, UserLeft(c.userID, c.spreadsheetID))
		_ = c.ws.Close()
		c.log.Info().Msg("websocket connection closed")
	})
}

// send queues a message for this client only. Best-effort, same
// drop semantics as a broadcast delivery.
func (c *Conn) send(msg Message) {
	payload, err := msg.Encode()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to serialize message")
		return
	}
	if !c.sub.offer(payload) {
		metrics.BroadcastDrops.Inc()
	}
}

// readPump services inbound frames until the socket dies. A protocol
// Ping gets an immediate Pong; well-formed messages with other tags are
// logged and ignored (mutations arrive via the HTTP API, the socket is
// broadcast-out plus heartbeat); malformed payloads get an Error reply
// and the connection stays open.
func (c *Conn) readPump() {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		if msgType != websocket.TextMessage {
			c.log.Warn().Msg("binary messages not supported")
			continue
		}
		metrics.MessagesReceived.Inc()

		msg, err := Decode(data)
		switch {
		case errors.Is(err, ErrUnsupportedMessage):
			c.log.Debug().Msg("ignoring unsupported message")
			continue
		case err != nil:
			c.log.Warn().Err(err).Msg("failed to parse websocket message")
			c.send(ErrorMessage("Invalid message format", "INVALID_FORMAT"))
			continue
		}

		switch msg.Type {
		case TypePing:
			c.send(Pong())
		default:
			c.log.Debug().Str("type", string(msg.Type)).Msg("ignoring inbound message")
		}
	}
}

// writePump drains the outbox onto the socket and keeps the transport
// alive with periodic pings. A write failure or timeout closes the
// connection.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.sub.outbox:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
