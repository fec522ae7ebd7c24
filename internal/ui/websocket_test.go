package ui

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openeos/tvdisplay-core/internal/display"
)

func dialTestWS(t *testing.T, s *Server) (*websocket.Conn, func()) {
	t.Helper()

	go s.hub.Run()

	srv := httptest.NewServer(s.routes())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		//nolint:errcheck // Handshake response body
		resp.Body.Close()
	}

	cleanup := func() {
		//nolint:errcheck // Test teardown
		conn.Close()
		s.hub.Close()
		srv.Close()
	}
	return conn, cleanup
}

func readFrame(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // Deadline on live connection cannot fail
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	return msg
}

func TestWebSocket_InitialState(t *testing.T) {
	store := display.NewStore()
	store.SetOrders([]display.Order{{ID: "o1", OrderNumber: "12"}})
	s := newTestServer(t, Deps{Store: store})

	conn, cleanup := dialTestWS(t, s)
	defer cleanup()

	msg := readFrame(t, conn)
	if msg.Type != wsTypeState {
		t.Fatalf("type = %q, want %q", msg.Type, wsTypeState)
	}

	var state statePayload
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(state.Orders) != 1 || state.Orders[0].ID != "o1" {
		t.Errorf("orders = %+v, want single order o1", state.Orders)
	}
}

func TestWebSocket_BroadcastOnChange(t *testing.T) {
	store := display.NewStore()
	s := newTestServer(t, Deps{Store: store})

	conn, cleanup := dialTestWS(t, s)
	defer cleanup()

	// Drain the initial snapshot.
	readFrame(t, conn)

	store.AddOrder(display.Order{ID: "o2", OrderNumber: "3"})
	s.Hub().BroadcastState(s.BuildState())

	msg := readFrame(t, conn)
	var state statePayload
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(state.Orders) != 1 || state.Orders[0].ID != "o2" {
		t.Errorf("orders = %+v, want single order o2", state.Orders)
	}
}

func TestWebSocket_PingPong(t *testing.T) {
	s := newTestServer(t, Deps{})

	conn, cleanup := dialTestWS(t, s)
	defer cleanup()

	readFrame(t, conn)

	ping, _ := json.Marshal(WSMessage{Type: wsTypePing}) //nolint:errcheck // Static frame cannot fail
	if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
		t.Fatalf("writing ping: %v", err)
	}

	msg := readFrame(t, conn)
	if msg.Type != wsTypePong {
		t.Errorf("type = %q, want %q", msg.Type, wsTypePong)
	}
}
