package game

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
	"github.com/scythe504/speedboard/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client is one websocket connection. Frames are queued on send and written
// by WritePump; a stalled client that cannot take a reliable frame is closed.
type Client struct {
	id   string
	hub  *Hub
	ctrl *Controller
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool

	timeSync  time.Duration
	heartbeat *Heartbeat

	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(hub *Hub, ctrl *Controller, conn *websocket.Conn, timeSync time.Duration) *Client {
	return newClient(utils.NewConnID(), hub, ctrl, conn, timeSync)
}

func newClient(id string, hub *Hub, ctrl *Controller, conn *websocket.Conn, timeSync time.Duration) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:       id,
		hub:      hub,
		ctrl:     ctrl,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		timeSync: timeSync,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) ID() string { return c.id }

// Run registers the client, greets it and starts both pumps.
func (c *Client) Run() {
	c.hub.Register(c)
	log.Info().Str("module", "game.client").Str("conn", c.id).Msg("client connected")

	c.ctrl.Greet(c.id)
	c.heartbeat = StartHeartbeat(c.timeSync, time.Now, func(d internal.TimeSyncData) {
		if frame, ok := encode(message(internal.EventTimeSync, d)); ok {
			c.trySend(frame, true)
		}
	})

	go c.WritePump()
	go c.ReadPump()
}

// trySend queues frame without blocking. A full queue drops volatile frames
// and closes the client for reliable ones.
func (c *Client) trySend(frame []byte, volatile bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
	}
	if volatile {
		return false
	}
	log.Warn().Str("module", "game.client").Str("conn", c.id).Msg("send buffer full, closing client")
	c.closeLocked()
	return false
}

func (c *Client) Close() {
	c.mu.Lock()
	c.closeLocked()
	c.mu.Unlock()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.cancel()
}

func (c *Client) ReadPump() {
	defer func() {
		c.heartbeat.Stop()
		c.hub.Unregister(c)
		c.ctrl.Disconnect(c.id)
		c.Close()
		c.conn.Close()
		log.Info().Str("module", "game.client").Str("conn", c.id).Msg("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "game.client").Str("conn", c.id).Msg("read error")
			}
			return
		}
		c.dispatch(c.ctx, raw)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
