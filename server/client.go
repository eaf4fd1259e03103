package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// frame is one queued WebSocket write
type frame struct {
	data   []byte
	binary bool
	close  bool
}

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan frame
	id         string
	remoteAddr string
	// msgpack clients get droppable updates as binary msgpack frames
	msgpack   bool
	flood     *rate.Limiter
	timers    TimersConfig
	log       zerolog.Logger
	closeOnce sync.Once
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, timers TimersConfig, useMsgpack bool) *Client {
	id := NewConnID()
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan frame, sendBufSize),
		id:         id,
		remoteAddr: remoteAddr,
		msgpack:    useMsgpack,
		flood:      rate.NewLimiter(rate.Limit(maxMessagesPerSec), maxMessagesPerSec),
		timers:     timers,
		log:        log.With().Str("conn", id).Str("addr", remoteAddr).Logger(),
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.timers.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.timers.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("ws error")
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(c.timers.PongTimeout))

		if !c.flood.Allow() {
			c.log.Warn().Msg("message flood, disconnecting")
			break
		}

		var env InEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.log.Debug().Err(err).Msg("unmarshal error")
			continue
		}
		c.hub.coord.Handle(c.id, env.T, env.D, time.Now())
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.timers.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok || f.close {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, f.data); err != nil {
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

// enqueue queues f without blocking; false means the queue is full.
// Callers hold the hub's read lock so send is never closed underneath.
func (c *Client) enqueue(f frame) bool {
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

// closeAfterFlush closes the connection once everything already queued is written
func (c *Client) closeAfterFlush() {
	c.closeOnce.Do(func() {
		if !c.enqueue(frame{close: true}) {
			go c.closeSlow()
		}
	})
}

func (c *Client) closeSlow() {
	c.log.Warn().Msg("connection too slow, closing")
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "connection too slow to keep up with messages"),
		time.Now().Add(writeWait))
	c.conn.Close()
}
