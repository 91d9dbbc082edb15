package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

type chanBus struct {
	mu      sync.Mutex
	subs    map[string]chan []byte
	wg      sync.WaitGroup
	journal []domain.JournalEntry
}

func newChanBus() *chanBus {
	b := &chanBus{subs: map[string]chan []byte{}}
	b.wg.Add(len(busChannels))
	return b
}

func (b *chanBus) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan []byte, 8)
	b.subs[channel] = ch
	b.wg.Done()
	return ch, nil
}

func (b *chanBus) emit(channel string, payload []byte) {
	b.mu.Lock()
	ch := b.subs[channel]
	b.mu.Unlock()
	ch <- payload
}

func (b *chanBus) Publish(context.Context, string, []byte) error { return nil }

func (b *chanBus) Append(context.Context, string, []byte) (string, error) {
	return "", errors.New("unused")
}

func (b *chanBus) Recent(_ context.Context, stream string, _ int) ([]domain.JournalEntry, error) {
	if stream != domain.StreamStudies || b.journal == nil {
		return nil, errors.New("journal down")
	}
	return b.journal, nil
}

func startHub(t *testing.T) (*chanBus, *httptest.Server) {
	t.Helper()
	return startHubWith(t, newChanBus())
}

func startHubWith(t *testing.T, bus *chanBus) (*chanBus, *httptest.Server) {
	t.Helper()
	hub := NewHub(bus, nil, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	bus.wg.Wait()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return bus, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello struct {
		Type     string   `json:"type"`
		Channels []string `json:"channels"`
	}
	readJSON(t, conn, &hello)
	if hello.Type != "connected" {
		t.Fatalf("first frame type = %q", hello.Type)
	}
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("frame kind = %d, want text", kind)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func event(t *testing.T, typ string, data any) []byte {
	t.Helper()
	b, err := domain.NewEvent(typ, time.Unix(0, 0), data)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHubDeliversReportEvents(t *testing.T) {
	bus, srv := startHub(t)
	conn := dial(t, srv, "")

	bus.emit(domain.ChannelReports, event(t, domain.EventReportCreated, map[string]string{"id": "r-1"}))

	var got domain.Event
	readJSON(t, conn, &got)
	if got.Type != domain.EventReportCreated || !strings.Contains(string(got.Data), "r-1") {
		t.Errorf("event = %+v", got)
	}
}

func TestHubRoutesStudyProgress(t *testing.T) {
	bus, srv := startHub(t)
	conn := dial(t, srv, "?study=abc")

	// Progress for another study must not reach this client.
	bus.emit(studyPattern, event(t, domain.EventStudyProgress, domain.StudyProgress{StudyID: "other", Completed: 1, Total: 2}))
	bus.emit(studyPattern, event(t, domain.EventStudyProgress, domain.StudyProgress{StudyID: "abc", Completed: 2, Total: 4}))

	var got struct {
		Type string               `json:"type"`
		Data domain.StudyProgress `json:"data"`
	}
	readJSON(t, conn, &got)
	if got.Data.StudyID != "abc" || got.Data.Completed != 2 {
		t.Errorf("progress = %+v", got)
	}
}

func TestWelcomeReplaysRecentStudies(t *testing.T) {
	bus := newChanBus()
	bus.journal = []domain.JournalEntry{
		{ID: "1-0", Payload: event(t, domain.EventStudyCompleted, map[string]string{"id": "s-1"})},
		{ID: "2-0", Payload: []byte("not json")},
	}
	_, srv := startHubWith(t, bus)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var hello struct {
		Type   string         `json:"type"`
		Recent []domain.Event `json:"recent_studies"`
	}
	readJSON(t, conn, &hello)
	if len(hello.Recent) != 1 || hello.Recent[0].Type != domain.EventStudyCompleted {
		t.Errorf("recent = %+v", hello.Recent)
	}
}

func TestRoute(t *testing.T) {
	payload := event(t, domain.EventStudyProgress, domain.StudyProgress{StudyID: "s1"})
	if got := route(studyPattern, payload); got != "ch:study:s1" {
		t.Errorf("route = %q", got)
	}
	if got := route(studyPattern, []byte("junk")); got != studyPattern {
		t.Errorf("undecodable payload routed to %q", got)
	}
	if got := route(domain.ChannelReports, payload); got != domain.ChannelReports {
		t.Errorf("plain channel routed to %q", got)
	}
}

func TestClientSubscriptions(t *testing.T) {
	c := newClient(nil, nil, nil)
	chans, err := c.handleSubscription(subscribeMsg{Action: "subscribe", Studies: []string{"x"}, Channels: []string{"ch:study:y*"}})
	if err != nil || len(chans) != 3 || chans[0] != domain.ChannelReports {
		t.Fatalf("channels = %v err = %v", chans, err)
	}
	for ch, want := range map[string]bool{
		"ch:study:x":   true,
		"ch:study:y12": true,
		"ch:study:z":   false,
		"ch:reports":   true,
	} {
		if got := c.isSubscribed(ch); got != want {
			t.Errorf("isSubscribed(%q) = %v", ch, got)
		}
	}
	c.handleSubscription(subscribeMsg{Action: "unsubscribe", Channels: []string{domain.ChannelReports}})
	if c.isSubscribed(domain.ChannelReports) {
		t.Error("unsubscribe ignored")
	}
	if _, err := c.handleSubscription(subscribeMsg{Action: "mute"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown action err = %v", err)
	}
}

func TestSubscribeAck(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "")

	if err := conn.WriteJSON(subscribeMsg{Action: "subscribe", Studies: []string{"s-9"}}); err != nil {
		t.Fatal(err)
	}
	var got ack
	readJSON(t, conn, &got)
	if got.Type != "subscribed" || len(got.Channels) != 2 {
		t.Errorf("ack = %+v", got)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	readJSON(t, conn, &got)
	if got.Type != "error" {
		t.Errorf("malformed reply = %+v", got)
	}
}
