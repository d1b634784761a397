package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(8)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForConnections(t, hub, 1)

	hub.BroadcastEvent(ctx, "status-change", map[string]string{"orchestration_id": "o1", "status": "executing"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if msg.Type != "status-change" {
		t.Fatalf("expected status-change frame, got %q", msg.Type)
	}
	var payload map[string]string
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload["orchestration_id"] != "o1" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestHub_ConnectionCountTracksDisconnect(t *testing.T) {
	hub := NewHub(8)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForConnections(t, hub, 1)

	_ = conn.Close(websocket.StatusNormalClosure, "")
	waitForConnections(t, hub, 0)
}

func TestHub_BroadcastWithNoClients(t *testing.T) {
	hub := NewHub(8)
	// Must not panic or block.
	hub.BroadcastEvent(context.Background(), "message", map[string]string{"x": "y"})
	if got := hub.ConnectionCount(); got != 0 {
		t.Fatalf("expected 0 connections, got %d", got)
	}
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for hub.ConnectionCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, have %d", want, hub.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
