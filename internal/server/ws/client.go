package ws

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// client is one websocket connection and its channel subscriptions. A
// subscription ending in * matches by prefix.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // bus traffic, closed by the hub
	ctrl chan []byte // replies, never closed

	mu   sync.RWMutex
	subs map[string]bool
}

// subscribeMsg changes a client's channels. Study ids may be given instead
// of channel names.
type subscribeMsg struct {
	Action   string   `json:"action"` // subscribe | unsubscribe
	Channels []string `json:"channels"`
	Studies  []string `json:"studies"`
}

// welcome is the first frame on every connection.
type welcome struct {
	Type          string            `json:"type"`
	Channels      []string          `json:"channels"`
	RecentStudies []json.RawMessage `json:"recent_studies"`
	ServerTime    string            `json:"server_time"`
}

type ack struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func newClient(h *Hub, conn *websocket.Conn, studies []string) *client {
	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		ctrl: make(chan []byte, ctrlBufferSize),
		subs: map[string]bool{domain.ChannelReports: true},
	}
	for _, id := range studies {
		if id = strings.TrimSpace(id); id != "" {
			c.subs[domain.StudyChannel(id)] = true
		}
	}
	return c
}

// handleSubscription applies msg and returns the resulting channel set.
func (c *client) handleSubscription(msg subscribeMsg) ([]string, error) {
	channels := slices.Clone(msg.Channels)
	for _, id := range msg.Studies {
		channels = append(channels, domain.StudyChannel(id))
	}

	c.mu.Lock()
	switch msg.Action {
	case "subscribe":
		for _, ch := range channels {
			c.subs[ch] = true
		}
	case "unsubscribe":
		for _, ch := range channels {
			delete(c.subs, ch)
		}
	default:
		c.mu.Unlock()
		return nil, domain.Validation("action", msg.Action, "must be subscribe or unsubscribe")
	}
	c.mu.Unlock()
	return c.channels(), nil
}

func (c *client) channels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

func (c *client) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.subs[channel] {
		return true
	}
	for sub := range c.subs {
		if prefix, ok := strings.CutSuffix(sub, "*"); ok && strings.HasPrefix(channel, prefix) {
			return true
		}
	}
	return false
}

// reply queues a control frame, dropping it when the buffer is full.
func (c *client) reply(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.ctrl <- data:
	default:
	}
}

// readPump applies subscription requests until the connection drops.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		var msg subscribeMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(ack{Type: "error", Error: "malformed message"})
			continue
		}
		channels, err := c.handleSubscription(msg)
		if err != nil {
			c.reply(ack{Type: "error", Error: err.Error()})
			continue
		}
		c.reply(ack{Type: msg.Action + "d", Channels: channels})
	}
}

// writePump drains send as text frames and keeps the connection alive with
// pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(websocket.TextMessage, data)
	}
	for {
		// Pending replies go out ahead of bus traffic.
		select {
		case data := <-c.ctrl:
			if write(data) != nil {
				return
			}
			continue
		default:
		}

		select {
		case data := <-c.ctrl:
			if write(data) != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if write(data) != nil {
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
