package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/g6audio/g6ctl/internal/device"
	"github.com/g6audio/g6ctl/internal/protocol"
)

type fakeSource struct {
	mu        sync.Mutex
	state     device.Settings
	events    chan device.Event
	cancelled bool
}

func newFakeSource() *fakeSource {
	s := device.DefaultSettings()
	s.Connected = true
	s.Firmware = "2.1.201208.1030"
	return &fakeSource{
		state:  s,
		events: make(chan device.Event, 8),
	}
}

func (f *fakeSource) State() device.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) Subscribe() (<-chan device.Event, func()) {
	return f.events, func() {
		f.mu.Lock()
		f.cancelled = true
		f.mu.Unlock()
	}
}

func (f *fakeSource) wasCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func newTestServer(t *testing.T) (*Server, *fakeSource, *httptest.Server) {
	t.Helper()
	source := newFakeSource()
	srv, err := New(&Config{Host: "127.0.0.1"}, source)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, source, ts
}

func dialEvents(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) failed: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) device.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev device.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	return ev
}

func TestStateEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var state device.Settings
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !state.Connected {
		t.Error("state.Connected = false, want true")
	}
	if state.Firmware != "2.1.201208.1030" {
		t.Errorf("state.Firmware = %q, want 2.1.201208.1030", state.Firmware)
	}
	if state.OutputStr != "headphones" {
		t.Errorf("state.OutputStr = %q, want headphones", state.OutputStr)
	}
}

func TestStateRejectsNonGET(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/state", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /state failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var health struct {
		Connected bool `json:"connected"`
		Clients   int  `json:"clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !health.Connected {
		t.Error("health.Connected = false, want true")
	}
	if health.Clients != 0 {
		t.Errorf("health.Clients = %d, want 0", health.Clients)
	}
}

func TestEventStreamSendsSnapshotFirst(t *testing.T) {
	_, _, ts := newTestServer(t)
	conn := dialEvents(t, ts)

	ev := readEvent(t, conn)
	if ev.Type != device.EventSnapshot {
		t.Fatalf("first event type = %q, want %q", ev.Type, device.EventSnapshot)
	}
	if !ev.State.Connected {
		t.Error("snapshot state.Connected = false, want true")
	}
}

func TestEventStreamDeliversEvents(t *testing.T) {
	_, source, ts := newTestServer(t)
	conn := dialEvents(t, ts)

	// Consume the snapshot before injecting events.
	if ev := readEvent(t, conn); ev.Type != device.EventSnapshot {
		t.Fatalf("first event type = %q, want snapshot", ev.Type)
	}

	state := source.State()
	state.Output = protocol.RouteSpeakers
	state.OutputStr = state.Output.String()
	source.events <- device.Event{
		Type:  device.EventOutputChanged,
		Field: "output",
		State: state,
		Time:  time.Now(),
	}

	ev := readEvent(t, conn)
	if ev.Type != device.EventOutputChanged {
		t.Fatalf("event type = %q, want %q", ev.Type, device.EventOutputChanged)
	}
	if ev.State.OutputStr != "speakers" {
		t.Errorf("event state.OutputStr = %q, want speakers", ev.State.OutputStr)
	}
}

func TestEventStreamClosesWhenSubscriptionEnds(t *testing.T) {
	_, source, ts := newTestServer(t)
	conn := dialEvents(t, ts)

	if ev := readEvent(t, conn); ev.Type != device.EventSnapshot {
		t.Fatalf("first event type = %q, want snapshot", ev.Type)
	}

	close(source.events)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev device.Event
	err := conn.ReadJSON(&ev)
	if err == nil {
		t.Fatal("ReadJSON() succeeded after subscription closed, want close error")
	}
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("close error = %v, want going-away close frame", err)
	}
}

func TestClientDisconnectCancelsSubscription(t *testing.T) {
	srv, source, ts := newTestServer(t)
	conn := dialEvents(t, ts)

	if ev := readEvent(t, conn); ev.Type != device.EventSnapshot {
		t.Fatalf("first event type = %q, want snapshot", ev.Type)
	}
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if source.wasCancelled() && srv.GetActiveConnections() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subscription cancelled = %v, active conns = %d after client close",
		source.wasCancelled(), srv.GetActiveConnections())
}
