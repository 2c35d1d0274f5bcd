package broadcast

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parimarket/internal/service"
)

// Hub fans resolution notices out to connected websocket clients. With a
// Redis client configured, notices travel through a pub/sub channel so that
// every server instance delivers them, not just the one that settled.
type Hub struct {
	logger     *zap.Logger
	rdb        *redis.Client
	channel    string
	sendBuffer int

	register   chan *Client
	unregister chan *Client
	notices    chan service.ResolutionNotice
	clients    map[*Client]struct{}
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

func New(logger *zap.Logger, rdb *redis.Client, channel string, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	return &Hub{
		logger:     logger,
		rdb:        rdb,
		channel:    channel,
		sendBuffer: sendBuffer,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		notices:    make(chan service.ResolutionNotice, 64),
		clients:    make(map[*Client]struct{}),
	}
}

// PublishResolution enqueues a notice without blocking the caller. The
// settlement transaction has already committed by the time this runs, so a
// dropped or failed delivery is logged and forgotten.
func (h *Hub) PublishResolution(notice service.ResolutionNotice) {
	if h.rdb != nil {
		payload, err := json.Marshal(notice)
		if err == nil {
			if err := h.rdb.Publish(context.Background(), h.channel, payload).Err(); err == nil {
				// Local delivery happens through the subscription loop.
				return
			} else if h.logger != nil {
				h.logger.Warn("redis publish failed, delivering locally only", zap.Error(err))
			}
		}
	}
	select {
	case h.notices <- notice:
	default:
		if h.logger != nil {
			h.logger.Warn("notice queue full, dropping resolution notice",
				zap.Uint64("event_id", notice.EventID))
		}
	}
}

// Run owns the client set. It returns when ctx is cancelled, closing every
// connection.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb != nil {
		sub := h.rdb.Subscribe(ctx, h.channel)
		defer sub.Close()
		go func() {
			for msg := range sub.Channel() {
				var notice service.ResolutionNotice
				if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
					if h.logger != nil {
						h.logger.Warn("bad resolution notice payload", zap.Error(err))
					}
					continue
				}
				select {
				case h.notices <- notice:
				default:
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*Client]struct{})
			return ctx.Err()
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case notice := <-h.notices:
			payload, err := json.Marshal(notice)
			if err != nil {
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow client: drop the message rather than block the hub.
				}
			}
		}
	}
}

// HandleConn registers conn with the hub and blocks until the peer goes
// away. Intended to be called from the websocket HTTP handler.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	c := &Client{conn: conn, send: make(chan []byte, h.sendBuffer)}
	h.register <- c
	go c.writePump()
	c.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; the channel is one-way. It exists to
// detect the peer closing the connection.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
