// Package ws bridges signal bus events to websocket clients as JSON text
// frames. Every client receives report_created events; study progress is
// delivered to clients that subscribe to the study's channel.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // must stay below pongWait
	maxMessageSize = 4096
	sendBufferSize = 256
	ctrlBufferSize = 8

	// recentStudies completions are replayed in the welcome frame.
	recentStudies = 5
	replayTimeout = 2 * time.Second
)

// studyPattern matches every study progress channel on the bus.
const studyPattern = "ch:study:*"

// busChannels are the bus subscriptions the hub holds.
var busChannels = []string{domain.ChannelReports, studyPattern}

// Hub fans bus messages out to the connected clients subscribed to their
// channel. The client set is owned by the Run goroutine.
type Hub struct {
	bus      domain.SignalBus
	upgrader websocket.Upgrader
	logger   *slog.Logger

	incoming   chan busMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// busMessage is a bus payload tagged with its concrete channel.
type busMessage struct {
	channel string
	data    []byte
}

// NewHub creates a hub reading from bus. Upgrades are accepted from
// allowedOrigins only; an empty list accepts any origin.
func NewHub(bus domain.SignalBus, allowedOrigins []string, logger *slog.Logger) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.ToLower(strings.TrimSpace(o))] = true
	}
	return &Hub{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := strings.ToLower(r.Header.Get("Origin"))
				return origin == "" || len(origins) == 0 || origins["*"] || origins[origin]
			},
		},
		logger:     logger.With(slog.String("component", "ws_hub")),
		incoming:   make(chan busMessage, sendBufferSize),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run forwards bus traffic to clients until ctx is cancelled, then closes
// every client. A client whose send buffer is full is disconnected.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for _, ch := range busChannels {
		go h.forward(ctx, ch)
	}

	clients := make(map[*client]struct{})
	drop := func(c *client) {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
	}
	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				drop(c)
			}
			return ctx.Err()

		case c := <-h.register:
			clients[c] = struct{}{}
			h.logger.Info("ws: client connected", slog.Int("clients", len(clients)))

		case c := <-h.unregister:
			drop(c)
			h.logger.Info("ws: client disconnected", slog.Int("clients", len(clients)))

		case msg := <-h.incoming:
			for c := range clients {
				if !c.isSubscribed(msg.channel) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					h.logger.Warn("ws: disconnecting slow client", slog.String("channel", msg.channel))
					drop(c)
				}
			}
		}
	}
}

// forward pumps one bus subscription into the hub loop.
func (h *Hub) forward(ctx context.Context, channel string) {
	msgs, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("ws: subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	h.logger.Info("ws: subscribed", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgs:
			if !ok {
				h.logger.Warn("ws: bus subscription closed", slog.String("channel", channel))
				return
			}
			select {
			case h.incoming <- busMessage{channel: route(channel, data), data: data}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// route resolves the concrete channel of a message received on a pattern
// subscription. Study events carry their id in the payload.
func route(channel string, data []byte) string {
	if channel != studyPattern {
		return channel
	}
	var ev struct {
		Data struct {
			StudyID string `json:"study_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &ev); err != nil || ev.Data.StudyID == "" {
		return channel
	}
	return domain.StudyChannel(ev.Data.StudyID)
}

// HandleWS upgrades the request and registers the client. Clients start
// subscribed to report events plus any ?study= ids.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(h, conn, r.URL.Query()["study"])
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	c.reply(welcome{
		Type:          "connected",
		Channels:      c.channels(),
		RecentStudies: h.recentStudies(r.Context()),
		ServerTime:    time.Now().UTC().Format(time.RFC3339),
	})

	go c.writePump()
	go c.readPump()
}

// recentStudies reads the study journal. A journal failure only costs the
// replay.
func (h *Hub) recentStudies(ctx context.Context) []json.RawMessage {
	ctx, cancel := context.WithTimeout(ctx, replayTimeout)
	defer cancel()
	entries, err := h.bus.Recent(ctx, domain.StreamStudies, recentStudies)
	if err != nil {
		h.logger.DebugContext(ctx, "ws: study replay unavailable", slog.String("error", err.Error()))
		return []json.RawMessage{}
	}
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if json.Valid(e.Payload) {
			out = append(out, e.Payload)
		}
	}
	return out
}
