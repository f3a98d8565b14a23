package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsPair upgrades a loopback connection and returns both ends.
func wsPair(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	serverCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		serverCh <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	var server *websocket.Conn
	select {
	case server = <-serverCh:
	case <-time.After(time.Second):
		t.Fatal("Server never received the connection")
	}

	conn := NewConnection(server, 16, time.Second)
	t.Cleanup(func() { conn.Close() })
	return conn, client
}

func TestConnection_WriteJSONDelivers(t *testing.T) {
	conn, client := wsPair(t)

	payload := map[string]string{"type": "display_update"}
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Delivered frame is not JSON: %v", err)
	}
	if got["type"] != "display_update" {
		t.Errorf("Expected display_update, got %v", got)
	}
}

func TestConnection_WriteAfterClose(t *testing.T) {
	conn, _ := wsPair(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"k": "v"}); err != ErrConnectionClosed {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	conn, _ := wsPair(t)

	if err := conn.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Second close must be a no-op, got %v", err)
	}

	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		t.Error("Done channel not closed after Close")
	}
}

func TestConnection_WriteJSONRejectsUnmarshalable(t *testing.T) {
	conn, _ := wsPair(t)

	if err := conn.WriteJSON(make(chan int)); err != ErrInvalidJSON {
		t.Errorf("Expected ErrInvalidJSON, got %v", err)
	}
}
